package service

import (
	"context"
	"errors"
	"log"

	"tableserve/internal/domain"
)

// MenuService owns the tenant catalog (hotel, categories, dishes) and the
// QR-scan session bootstrap consumed by the customer menu frontend.
type MenuService struct {
	catalog CatalogRepository
	tables  TableRepository
	orders  OrderRepository
	bills   BillRepository
	cache   BootstrapCache
}

func NewMenuService(catalog CatalogRepository, tables TableRepository, orders OrderRepository, bills BillRepository, cache BootstrapCache) *MenuService {
	return &MenuService{catalog: catalog, tables: tables, orders: orders, bills: bills, cache: cache}
}

// Bootstrap answers a table's QR scan: current table state, the seated
// customer's name if any, the table's open orders, the hotel catalog and a
// totals-only view of the running bill.
func (s *MenuService) Bootstrap(ctx context.Context, tableID int) (*domain.Bootstrap, error) {
	table, err := s.tables.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.ListOrdersByTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	open := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if order.Status == domain.OrderCompleted || order.Status == domain.OrderCancelled {
			continue
		}
		open = append(open, order)
	}

	menu, err := s.menu(ctx, table.HotelID)
	if err != nil {
		return nil, err
	}

	boot := &domain.Bootstrap{
		Table:          table,
		CustomerName:   table.CustomerName,
		ExistingOrders: open,
		Menu:           *menu,
	}

	bill, err := s.bills.GetBillByTable(ctx, tableID)
	if err != nil {
		var clientErr *domain.ClientError
		if !errors.As(err, &clientErr) {
			return nil, err
		}
	} else {
		boot.Bill = &domain.BillSummary{
			TotalAmount:    bill.TotalAmount,
			TotalDiscount:  bill.TotalDiscount,
			CustomDiscount: bill.CustomDiscount,
			FinalAmount:    bill.FinalAmount,
			Status:         bill.Status,
		}
	}

	return boot, nil
}

func (s *MenuService) menu(ctx context.Context, hotelID int) (*domain.Menu, error) {
	cached, err := s.cache.GetMenu(ctx, hotelID)
	if err != nil {
		log.Printf("[menu] warning: menu cache read failed for hotel %d: %v", hotelID, err)
	}
	if cached != nil {
		return cached, nil
	}

	dishes, err := s.catalog.ListDishes(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	categories, err := s.catalog.ListCategories(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	menu := &domain.Menu{Dishes: dishes, Categories: categories}
	if err := s.cache.SetMenu(ctx, hotelID, menu); err != nil {
		log.Printf("[menu] warning: menu cache write failed for hotel %d: %v", hotelID, err)
	}
	return menu, nil
}

func (s *MenuService) CreateHotel(ctx context.Context, hotel *domain.Hotel) error {
	if hotel.Name == "" {
		return domain.NewClientError("please provide a hotel name")
	}
	return s.catalog.CreateHotel(ctx, hotel)
}

func (s *MenuService) GetHotel(ctx context.Context, id int) (*domain.Hotel, error) {
	return s.catalog.GetHotel(ctx, id)
}

func (s *MenuService) CreateCategory(ctx context.Context, category *domain.Category) error {
	if category.HotelID <= 0 || category.Name == "" {
		return domain.NewClientError("please provide hotel and name for the category")
	}
	if err := s.catalog.CreateCategory(ctx, category); err != nil {
		return err
	}
	s.invalidate(ctx, category.HotelID)
	return nil
}

func (s *MenuService) ListCategories(ctx context.Context, hotelID int) ([]domain.Category, error) {
	return s.catalog.ListCategories(ctx, hotelID)
}

func (s *MenuService) CreateDish(ctx context.Context, dish *domain.Dish) error {
	if dish.HotelID <= 0 || dish.Name == "" || dish.Price < 0 {
		return domain.NewClientError("please provide hotel, name and a non-negative price for the dish")
	}
	if err := s.catalog.CreateDish(ctx, dish); err != nil {
		return err
	}
	s.invalidate(ctx, dish.HotelID)
	return nil
}

func (s *MenuService) ListDishes(ctx context.Context, hotelID int) ([]domain.Dish, error) {
	return s.catalog.ListDishes(ctx, hotelID)
}

func (s *MenuService) GetDish(ctx context.Context, id int) (*domain.Dish, error) {
	return s.catalog.GetDish(ctx, id)
}

// UpdateDish covers menu edits including the out_of_stock toggle. The
// applied_offer back-reference is owned by the offer service and not
// writable here.
func (s *MenuService) UpdateDish(ctx context.Context, dish *domain.Dish) error {
	current, err := s.catalog.GetDish(ctx, dish.ID)
	if err != nil {
		return err
	}
	dish.HotelID = current.HotelID
	dish.AppliedOfferID = current.AppliedOfferID
	if dish.Price < 0 {
		return domain.NewClientError("dish price must not be negative")
	}
	if err := s.catalog.UpdateDish(ctx, dish); err != nil {
		return err
	}
	s.invalidate(ctx, dish.HotelID)
	return nil
}

func (s *MenuService) invalidate(ctx context.Context, hotelID int) {
	if err := s.cache.InvalidateMenu(ctx, hotelID); err != nil {
		log.Printf("[menu] warning: failed to invalidate menu cache for hotel %d: %v", hotelID, err)
	}
}

var _ MenuServiceInterface = (*MenuService)(nil)
