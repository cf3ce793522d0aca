package mocks

import (
	"context"

	"tableserve/internal/domain"
	"tableserve/internal/service"

	"github.com/stretchr/testify/mock"
)

type TableRepository struct {
	mock.Mock
}

var _ service.TableRepository = (*TableRepository)(nil)

func (m *TableRepository) CreateTable(ctx context.Context, table *domain.Table) error {
	return m.Called(ctx, table).Error(0)
}

func (m *TableRepository) ListTables(ctx context.Context, hotelID int) ([]domain.Table, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Table), args.Error(1)
}

func (m *TableRepository) GetTable(ctx context.Context, id int) (*domain.Table, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Table), args.Error(1)
}

func (m *TableRepository) UpdateTable(ctx context.Context, table *domain.Table) error {
	return m.Called(ctx, table).Error(0)
}

func (m *TableRepository) DeleteTable(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type CatalogRepository struct {
	mock.Mock
}

var _ service.CatalogRepository = (*CatalogRepository)(nil)

func (m *CatalogRepository) CreateHotel(ctx context.Context, hotel *domain.Hotel) error {
	return m.Called(ctx, hotel).Error(0)
}

func (m *CatalogRepository) GetHotel(ctx context.Context, id int) (*domain.Hotel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Hotel), args.Error(1)
}

func (m *CatalogRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *CatalogRepository) ListCategories(ctx context.Context, hotelID int) ([]domain.Category, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *CatalogRepository) CreateDish(ctx context.Context, dish *domain.Dish) error {
	return m.Called(ctx, dish).Error(0)
}

func (m *CatalogRepository) ListDishes(ctx context.Context, hotelID int) ([]domain.Dish, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Dish), args.Error(1)
}

func (m *CatalogRepository) GetDish(ctx context.Context, id int) (*domain.Dish, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dish), args.Error(1)
}

func (m *CatalogRepository) UpdateDish(ctx context.Context, dish *domain.Dish) error {
	return m.Called(ctx, dish).Error(0)
}

func (m *CatalogRepository) DishesByIDs(ctx context.Context, ids []int) (map[int]domain.Dish, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]domain.Dish), args.Error(1)
}

type OfferRepository struct {
	mock.Mock
}

var _ service.OfferRepository = (*OfferRepository)(nil)

func (m *OfferRepository) CreateOffer(ctx context.Context, offer *domain.Offer) error {
	return m.Called(ctx, offer).Error(0)
}

func (m *OfferRepository) GetOffer(ctx context.Context, id int) (*domain.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Offer), args.Error(1)
}

func (m *OfferRepository) ListOffers(ctx context.Context, hotelID int) ([]domain.Offer, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Offer), args.Error(1)
}

func (m *OfferRepository) UpdateOffer(ctx context.Context, offer *domain.Offer) error {
	return m.Called(ctx, offer).Error(0)
}

func (m *OfferRepository) DeleteOffer(ctx context.Context, id int) (*domain.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Offer), args.Error(1)
}

type OrderRepository struct {
	mock.Mock
}

var _ service.OrderRepository = (*OrderRepository)(nil)

func (m *OrderRepository) GetOrder(ctx context.Context, id int) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *OrderRepository) ListOrdersByHotel(ctx context.Context, hotelID int) ([]domain.Order, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *OrderRepository) ListOrdersByTable(ctx context.Context, tableID int) ([]domain.Order, error) {
	args := m.Called(ctx, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order, customerName string) error {
	return m.Called(ctx, order, customerName).Error(0)
}

func (m *OrderRepository) UpdateOrderItems(ctx context.Context, orderID int, items []domain.OrderItem, note string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, items, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID int, status domain.OrderStatus) (*domain.Order, error) {
	args := m.Called(ctx, orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *OrderRepository) DeleteOrder(ctx context.Context, orderID int) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

type BillRepository struct {
	mock.Mock

	// Teardown records what the last MutateBill mutation returned.
	Teardown bool
}

var _ service.BillRepository = (*BillRepository)(nil)

func (m *BillRepository) GetBill(ctx context.Context, id int) (*domain.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}

func (m *BillRepository) GetBillByTable(ctx context.Context, tableID int) (*domain.Bill, error) {
	args := m.Called(ctx, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}

func (m *BillRepository) ListBills(ctx context.Context, hotelID int) ([]domain.Bill, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bill), args.Error(1)
}

func (m *BillRepository) GenerateBill(ctx context.Context, tableID int) (*domain.Bill, error) {
	args := m.Called(ctx, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}

// MutateBill runs fn against the configured bill the way the real
// repository runs it against the locked row, so tests exercise the actual
// mutation logic. The teardown result is recorded for assertions.
func (m *BillRepository) MutateBill(ctx context.Context, billID int, fn service.BillMutation) (*domain.Bill, []int, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	bill := args.Get(0).(*domain.Bill)
	teardown, err := fn(bill)
	if err != nil {
		return nil, nil, err
	}
	m.Teardown = teardown
	var removed []int
	if args.Get(1) != nil {
		removed = args.Get(1).([]int)
	}
	return bill, removed, args.Error(2)
}

func (m *BillRepository) ExportBill(ctx context.Context, billID int) (*domain.BillExport, error) {
	args := m.Called(ctx, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillExport), args.Error(1)
}

type Notifier struct {
	mock.Mock
}

var _ service.Notifier = (*Notifier)(nil)

func (m *Notifier) PublishNewOrder(ctx context.Context, event domain.OrderEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *Notifier) PublishOrderDeleted(ctx context.Context, hotelID, orderID int) error {
	return m.Called(ctx, hotelID, orderID).Error(0)
}

type QRGenerator struct {
	mock.Mock
}

var _ service.QRGenerator = (*QRGenerator)(nil)

func (m *QRGenerator) Generate(content string) ([]byte, error) {
	args := m.Called(content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type BootstrapCache struct {
	mock.Mock
}

var _ service.BootstrapCache = (*BootstrapCache)(nil)

func (m *BootstrapCache) GetMenu(ctx context.Context, hotelID int) (*domain.Menu, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Menu), args.Error(1)
}

func (m *BootstrapCache) SetMenu(ctx context.Context, hotelID int, menu *domain.Menu) error {
	return m.Called(ctx, hotelID, menu).Error(0)
}

func (m *BootstrapCache) InvalidateMenu(ctx context.Context, hotelID int) error {
	return m.Called(ctx, hotelID).Error(0)
}
