package tests

import (
	"context"
	"testing"

	"tableserve/internal/domain"
	"tableserve/internal/mocks"
	"tableserve/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMenuService() (*service.MenuService, *mocks.CatalogRepository, *mocks.TableRepository, *mocks.OrderRepository, *mocks.BillRepository, *mocks.BootstrapCache) {
	catalog := new(mocks.CatalogRepository)
	tables := new(mocks.TableRepository)
	orders := new(mocks.OrderRepository)
	bills := new(mocks.BillRepository)
	cache := new(mocks.BootstrapCache)
	return service.NewMenuService(catalog, tables, orders, bills, cache), catalog, tables, orders, bills, cache
}

func TestMenuService_Bootstrap(t *testing.T) {
	customerID := 3
	table := &domain.Table{
		ID: 5, HotelID: 1, Sequence: 2, Status: domain.TableOccupied,
		CustomerID: &customerID, CustomerName: "Asha",
	}
	menu := &domain.Menu{
		Dishes:     []domain.Dish{{ID: 1, HotelID: 1, Name: "Paneer Tikka", Price: 250}},
		Categories: []domain.Category{{ID: 1, HotelID: 1, Name: "Starters"}},
	}
	orderList := []domain.Order{
		{ID: 1, Status: domain.OrderDraft},
		{ID: 2, Status: domain.OrderPending},
		{ID: 3, Status: domain.OrderCompleted},
		{ID: 4, Status: domain.OrderCancelled},
	}
	bill := &domain.Bill{
		ID: 2, TableID: 5, TotalAmount: 500, TotalDiscount: 50,
		FinalAmount: 450, Status: domain.BillUnpaid,
	}

	svc, _, tables, orders, bills, cache := newMenuService()
	tables.On("GetTable", mock.Anything, 5).Return(table, nil).Once()
	orders.On("ListOrdersByTable", mock.Anything, 5).Return(orderList, nil).Once()
	cache.On("GetMenu", mock.Anything, 1).Return(menu, nil).Once()
	bills.On("GetBillByTable", mock.Anything, 5).Return(bill, nil).Once()

	boot, err := svc.Bootstrap(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, "Asha", boot.CustomerName)
	// Completed and cancelled orders are not part of the open session view.
	require.Len(t, boot.ExistingOrders, 2)
	assert.Equal(t, 1, boot.ExistingOrders[0].ID)
	assert.Equal(t, 2, boot.ExistingOrders[1].ID)
	assert.Equal(t, *menu, boot.Menu)
	require.NotNil(t, boot.Bill)
	assert.InDelta(t, 450.0, boot.Bill.FinalAmount, 1e-9)
}

func TestMenuService_BootstrapCacheMissFallsBackToCatalog(t *testing.T) {
	svc, catalog, tables, orders, bills, cache := newMenuService()
	dishes := []domain.Dish{{ID: 1, HotelID: 1}}
	categories := []domain.Category{{ID: 1, HotelID: 1}}

	tables.On("GetTable", mock.Anything, 5).Return(&domain.Table{ID: 5, HotelID: 1}, nil).Once()
	orders.On("ListOrdersByTable", mock.Anything, 5).Return([]domain.Order{}, nil).Once()
	cache.On("GetMenu", mock.Anything, 1).Return(nil, nil).Once()
	catalog.On("ListDishes", mock.Anything, 1).Return(dishes, nil).Once()
	catalog.On("ListCategories", mock.Anything, 1).Return(categories, nil).Once()
	cache.On("SetMenu", mock.Anything, 1, mock.AnythingOfType("*domain.Menu")).Return(nil).Once()
	bills.On("GetBillByTable", mock.Anything, 5).Return(nil, domain.NewNotFoundError("no running bill for this table")).Once()

	boot, err := svc.Bootstrap(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, dishes, boot.Menu.Dishes)
	// A fresh table has no bill yet; that is not an error.
	assert.Nil(t, boot.Bill)
	cache.AssertExpectations(t)
}

func TestMenuService_UpdateDishPreservesOwnership(t *testing.T) {
	svc, catalog, _, _, _, cache := newMenuService()
	offerID := 4
	current := &domain.Dish{ID: 1, HotelID: 1, Name: "Paneer Tikka", Price: 250, AppliedOfferID: &offerID}
	edit := &domain.Dish{ID: 1, HotelID: 99, Name: "Paneer Tikka", Price: 270, OutOfStock: true}

	catalog.On("GetDish", mock.Anything, 1).Return(current, nil).Once()
	catalog.On("UpdateDish", mock.Anything, edit).Return(nil).Once()
	cache.On("InvalidateMenu", mock.Anything, 1).Return(nil).Once()

	require.NoError(t, svc.UpdateDish(context.Background(), edit))

	// Hotel and offer assignment cannot be rewritten through a menu edit.
	assert.Equal(t, 1, edit.HotelID)
	require.NotNil(t, edit.AppliedOfferID)
	assert.Equal(t, 4, *edit.AppliedOfferID)
}

func TestMenuService_CreateDishValidation(t *testing.T) {
	svc, _, _, _, _, _ := newMenuService()

	err := svc.CreateDish(context.Background(), &domain.Dish{HotelID: 1, Name: "Soup", Price: -5})

	var clientErr *domain.ClientError
	require.ErrorAs(t, err, &clientErr)
}
