package service

import (
	"context"
	"log"

	"tableserve/internal/domain"
)

// orderTransitions is the order status state machine. Terminal states
// (completed, cancelled) have no outgoing edges.
var orderTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderDraft:     {domain.OrderPending, domain.OrderCancelled},
	domain.OrderPending:   {domain.OrderPreparing, domain.OrderCancelled},
	domain.OrderPreparing: {domain.OrderCompleted, domain.OrderCancelled},
}

func transitionAllowed(from, to domain.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type OrderService struct {
	repo     OrderRepository
	tables   TableRepository
	catalog  CatalogRepository
	notifier Notifier
}

func NewOrderService(repo OrderRepository, tables TableRepository, catalog CatalogRepository, notifier Notifier) *OrderService {
	return &OrderService{repo: repo, tables: tables, catalog: catalog, notifier: notifier}
}

func (s *OrderService) Create(ctx context.Context, order *domain.Order, customerName string) error {
	if order.TableID <= 0 || len(order.Items) == 0 {
		return domain.NewClientError("please provide sufficient data to create order")
	}
	for _, item := range order.Items {
		if item.Quantity <= 0 {
			return domain.NewClientError("dish quantity must be positive")
		}
	}

	table, err := s.tables.GetTable(ctx, order.TableID)
	if err != nil {
		return err
	}
	order.HotelID = table.HotelID

	if order.Status == "" {
		order.Status = domain.OrderDraft
	}
	if order.Status != domain.OrderDraft && order.Status != domain.OrderPending {
		return domain.NewClientError("new orders start as draft or pending")
	}

	if err := s.checkDishes(ctx, order.Items); err != nil {
		return err
	}

	return s.repo.CreateOrder(ctx, order, customerName)
}

func (s *OrderService) Get(ctx context.Context, id int) (*domain.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *OrderService) ListByHotel(ctx context.Context, hotelID int) ([]domain.Order, error) {
	return s.repo.ListOrdersByHotel(ctx, hotelID)
}

func (s *OrderService) ListByTable(ctx context.Context, tableID int) ([]domain.Order, error) {
	return s.repo.ListOrdersByTable(ctx, tableID)
}

// UpdateItems replaces a draft order's dish list and note. The bill is
// adjusted by the quantity deltas against the stored snapshot; confirmed
// orders can only move through the status machine.
func (s *OrderService) UpdateItems(ctx context.Context, orderID int, items []domain.OrderItem, note string) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderDraft {
		return nil, domain.NewClientError("only draft orders can be edited")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, domain.NewClientError("dish quantity must be positive")
		}
	}
	if err := s.checkDishes(ctx, items); err != nil {
		return nil, err
	}

	return s.repo.UpdateOrderItems(ctx, orderID, items, note)
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID int, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(order.Status, status) {
		return nil, domain.NewClientError("cannot move order from %s to %s", order.Status, status)
	}

	// draft -> pending is a confirmation and must go through the notifier.
	if order.Status == domain.OrderDraft && status == domain.OrderPending {
		return s.confirm(ctx, order)
	}

	return s.repo.UpdateOrderStatus(ctx, orderID, status)
}

// Confirm transitions a draft order to pending and announces it to the
// staff display. If the publish fails the order stays draft.
func (s *OrderService) Confirm(ctx context.Context, orderID int) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderDraft {
		return nil, domain.NewClientError("only draft orders can be confirmed")
	}
	return s.confirm(ctx, order)
}

func (s *OrderService) confirm(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := s.notifier.PublishNewOrder(ctx, NewOrderEvent(order, domain.OrderPending)); err != nil {
		return nil, domain.NewServerError("failed to publish order", err)
	}
	return s.repo.UpdateOrderStatus(ctx, order.ID, domain.OrderPending)
}

// Delete removes the order and rolls its dishes out of the running bill.
// When the table's last order goes away the repository also purges the
// customer and bill and frees the table.
func (s *OrderService) Delete(ctx context.Context, orderID int) (*domain.Order, error) {
	order, err := s.repo.DeleteOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.PublishOrderDeleted(ctx, order.HotelID, order.ID); err != nil {
		log.Printf("[orders] warning: failed to publish order deletion for order %d: %v", order.ID, err)
	}

	return order, nil
}

func (s *OrderService) checkDishes(ctx context.Context, items []domain.OrderItem) error {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.DishID)
	}

	dishes, err := s.catalog.DishesByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, item := range items {
		dish, ok := dishes[item.DishID]
		if !ok {
			return domain.NewNotFoundError("dish %d not found", item.DishID)
		}
		if dish.OutOfStock {
			return domain.NewClientError("%s is out of stock", dish.Name)
		}
	}
	return nil
}

// NewOrderEvent projects an order to the flat DTO handed to the Notifier.
func NewOrderEvent(order *domain.Order, status domain.OrderStatus) domain.OrderEvent {
	event := domain.OrderEvent{
		OrderID:    order.ID,
		BillID:     order.BillID,
		CustomerID: order.CustomerID,
		TableID:    order.TableID,
		HotelID:    order.HotelID,
		Status:     status,
	}
	for _, item := range order.Items {
		event.Dishes = append(event.Dishes, domain.OrderEventItem{DishID: item.DishID, Quantity: item.Quantity})
	}
	return event
}

var _ OrderServiceInterface = (*OrderService)(nil)
