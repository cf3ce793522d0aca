package service

import (
	"context"

	"tableserve/internal/domain"
)

type TableRepository interface {
	CreateTable(ctx context.Context, table *domain.Table) error
	ListTables(ctx context.Context, hotelID int) ([]domain.Table, error)
	GetTable(ctx context.Context, id int) (*domain.Table, error)
	UpdateTable(ctx context.Context, table *domain.Table) error
	DeleteTable(ctx context.Context, id int) error
}

type CatalogRepository interface {
	CreateHotel(ctx context.Context, hotel *domain.Hotel) error
	GetHotel(ctx context.Context, id int) (*domain.Hotel, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
	ListCategories(ctx context.Context, hotelID int) ([]domain.Category, error)
	CreateDish(ctx context.Context, dish *domain.Dish) error
	ListDishes(ctx context.Context, hotelID int) ([]domain.Dish, error)
	GetDish(ctx context.Context, id int) (*domain.Dish, error)
	UpdateDish(ctx context.Context, dish *domain.Dish) error
	DishesByIDs(ctx context.Context, ids []int) (map[int]domain.Dish, error)
}

type OfferRepository interface {
	CreateOffer(ctx context.Context, offer *domain.Offer) error
	GetOffer(ctx context.Context, id int) (*domain.Offer, error)
	ListOffers(ctx context.Context, hotelID int) ([]domain.Offer, error)
	UpdateOffer(ctx context.Context, offer *domain.Offer) error
	DeleteOffer(ctx context.Context, id int) (*domain.Offer, error)
}

// OrderRepository executes every multi-entity write as one transaction
// serialized on the order's table row, so occupancy, customer and bill state
// can never diverge under concurrent requests.
type OrderRepository interface {
	GetOrder(ctx context.Context, id int) (*domain.Order, error)
	ListOrdersByHotel(ctx context.Context, hotelID int) ([]domain.Order, error)
	ListOrdersByTable(ctx context.Context, tableID int) ([]domain.Order, error)
	CreateOrder(ctx context.Context, order *domain.Order, customerName string) error
	UpdateOrderItems(ctx context.Context, orderID int, items []domain.OrderItem, note string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int, status domain.OrderStatus) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID int) (*domain.Order, error)
}

// BillMutation runs against a bill freshly re-read inside a transaction that
// holds the table lock, so concurrent order edits and double settlements
// serialize on it. Returning teardown true purges the visit (orders,
// customer, table occupancy) in the same transaction.
type BillMutation func(bill *domain.Bill) (teardown bool, err error)

type BillRepository interface {
	GetBill(ctx context.Context, id int) (*domain.Bill, error)
	GetBillByTable(ctx context.Context, tableID int) (*domain.Bill, error)
	ListBills(ctx context.Context, hotelID int) ([]domain.Bill, error)
	GenerateBill(ctx context.Context, tableID int) (*domain.Bill, error)
	// MutateBill returns the bill after fn ran plus the ids of any orders
	// removed by teardown.
	MutateBill(ctx context.Context, billID int, fn BillMutation) (*domain.Bill, []int, error)
	ExportBill(ctx context.Context, billID int) (*domain.BillExport, error)
}

// Notifier informs the real-time staff display about confirmed orders. A
// confirmation is not successful until PublishNewOrder has returned without
// error.
type Notifier interface {
	PublishNewOrder(ctx context.Context, event domain.OrderEvent) error
	PublishOrderDeleted(ctx context.Context, hotelID, orderID int) error
}

type QRGenerator interface {
	Generate(content string) ([]byte, error)
}

// BootstrapCache caches the per-hotel menu catalog served on QR scans. A
// cache miss returns (nil, nil); failures are best-effort for callers.
type BootstrapCache interface {
	GetMenu(ctx context.Context, hotelID int) (*domain.Menu, error)
	SetMenu(ctx context.Context, hotelID int, menu *domain.Menu) error
	InvalidateMenu(ctx context.Context, hotelID int) error
}

type TableServiceInterface interface {
	Create(ctx context.Context, table *domain.Table) error
	List(ctx context.Context, hotelID int) ([]domain.Table, error)
	Get(ctx context.Context, id int) (*domain.Table, error)
	Update(ctx context.Context, table *domain.Table) error
	Delete(ctx context.Context, id int) error
	QRCode(ctx context.Context, id int) ([]byte, error)
}

type OrderServiceInterface interface {
	Create(ctx context.Context, order *domain.Order, customerName string) error
	Get(ctx context.Context, id int) (*domain.Order, error)
	ListByHotel(ctx context.Context, hotelID int) ([]domain.Order, error)
	ListByTable(ctx context.Context, tableID int) ([]domain.Order, error)
	UpdateItems(ctx context.Context, orderID int, items []domain.OrderItem, note string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID int, status domain.OrderStatus) (*domain.Order, error)
	Confirm(ctx context.Context, orderID int) (*domain.Order, error)
	Delete(ctx context.Context, orderID int) (*domain.Order, error)
}

type BillServiceInterface interface {
	Generate(ctx context.Context, tableID int) (*domain.Bill, error)
	Get(ctx context.Context, id int) (*domain.Bill, error)
	List(ctx context.Context, hotelID int) ([]domain.Bill, error)
	Update(ctx context.Context, billID int, customerName *string, customDiscount *float64) (*domain.Bill, error)
	ApplyGlobalOffer(ctx context.Context, billID, offerID int) (*domain.Bill, error)
	Settle(ctx context.Context, billID int, status domain.BillStatus) (*domain.Bill, error)
	Export(ctx context.Context, billID int) (*domain.BillExport, error)
}

type OfferServiceInterface interface {
	Create(ctx context.Context, offer *domain.Offer) error
	Get(ctx context.Context, id int) (*domain.Offer, error)
	List(ctx context.Context, hotelID int) ([]domain.Offer, error)
	Update(ctx context.Context, offer *domain.Offer) error
	Delete(ctx context.Context, id int) (*domain.Offer, error)
}

type MenuServiceInterface interface {
	Bootstrap(ctx context.Context, tableID int) (*domain.Bootstrap, error)
	CreateHotel(ctx context.Context, hotel *domain.Hotel) error
	GetHotel(ctx context.Context, id int) (*domain.Hotel, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
	ListCategories(ctx context.Context, hotelID int) ([]domain.Category, error)
	CreateDish(ctx context.Context, dish *domain.Dish) error
	ListDishes(ctx context.Context, hotelID int) ([]domain.Dish, error)
	GetDish(ctx context.Context, id int) (*domain.Dish, error)
	UpdateDish(ctx context.Context, dish *domain.Dish) error
}
