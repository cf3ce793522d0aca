package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tableserve/internal/billing"
	"tableserve/internal/domain"
	"tableserve/internal/service"

	"github.com/lib/pq"
)

// PostgresRepository implements every repository interface of the service
// layer. Operations that touch more than one entity run in a single
// transaction serialized on the table row (SELECT ... FOR UPDATE), so a
// crash or a concurrent request can never leave a table occupied without a
// customer or a bill pointing at deleted orders.
type PostgresRepository struct {
	DB  *sql.DB
	now func() time.Time
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db, now: time.Now}
}

const (
	pqUniqueViolation     = "23505"
	pqSerializationFailed = "40001"
	pqDeadlockDetected    = "40P01"
)

// withTx runs fn in a transaction, retrying once on serialization or
// deadlock failure before surfacing a ServerError.
func (r *PostgresRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		tx, err := r.DB.BeginTx(ctx, nil)
		if err != nil {
			return domain.NewServerError("failed to begin transaction", err)
		}

		if err := fn(tx); err != nil {
			tx.Rollback()
			if retryable(err) && attempt == 0 {
				lastErr = err
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if retryable(err) && attempt == 0 {
				lastErr = err
				continue
			}
			return domain.NewServerError("failed to commit transaction", err)
		}
		return nil
	}
	return domain.NewServerError("transaction retry exhausted", lastErr)
}

func retryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqSerializationFailed || string(pqErr.Code) == pqDeadlockDetected
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

// notFound translates the driver's no-rows error into the nearest
// ClientError before it reaches callers.
func notFound(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError("%s", message)
	}
	return domain.NewServerError("database error", err)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// --- hotels, categories, dishes -----------------------------------------

func (r *PostgresRepository) CreateHotel(ctx context.Context, hotel *domain.Hotel) error {
	err := r.DB.QueryRowContext(ctx,
		"INSERT INTO hotels (name, address, owner) VALUES ($1, $2, $3) RETURNING id, created_at",
		hotel.Name, hotel.Address, hotel.Owner,
	).Scan(&hotel.ID, &hotel.CreatedAt)
	if err != nil {
		return domain.NewServerError("failed to create hotel", err)
	}
	return nil
}

func (r *PostgresRepository) GetHotel(ctx context.Context, id int) (*domain.Hotel, error) {
	var hotel domain.Hotel
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, COALESCE(address, ''), COALESCE(owner, ''), created_at FROM hotels WHERE id = $1", id,
	).Scan(&hotel.ID, &hotel.Name, &hotel.Address, &hotel.Owner, &hotel.CreatedAt)
	if err != nil {
		return nil, notFound(err, "hotel not found")
	}
	return &hotel, nil
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	err := r.DB.QueryRowContext(ctx,
		"INSERT INTO categories (hotel_id, name, description) VALUES ($1, $2, $3) RETURNING id",
		category.HotelID, category.Name, category.Description,
	).Scan(&category.ID)
	if err != nil {
		return domain.NewServerError("failed to create category", err)
	}
	return nil
}

func (r *PostgresRepository) ListCategories(ctx context.Context, hotelID int) ([]domain.Category, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, hotel_id, name, COALESCE(description, '') FROM categories WHERE hotel_id = $1 ORDER BY name", hotelID)
	if err != nil {
		return nil, domain.NewServerError("failed to list categories", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.HotelID, &c.Name, &c.Description); err != nil {
			continue
		}
		categories = append(categories, c)
	}
	return categories, nil
}

const dishColumns = `d.id, d.hotel_id, d.category_id, d.name, COALESCE(d.description, ''), d.price, d.ingredients, d.out_of_stock, d.applied_offer_id,
	o.id, o.hotel_id, o.name, o.type, o.discount_type, o.value, o.applied_above, o.start_date, o.end_date, o.disable`

const dishSelect = "SELECT " + dishColumns + " FROM dishes d LEFT JOIN offers o ON d.applied_offer_id = o.id"

func scanDish(rows interface{ Scan(...interface{}) error }) (domain.Dish, error) {
	var dish domain.Dish
	var offerID, offerHotelID sql.NullInt64
	var offerName, offerType, offerDiscountType sql.NullString
	var offerValue, offerAbove sql.NullFloat64
	var offerStart, offerEnd sql.NullTime
	var offerDisable sql.NullBool

	err := rows.Scan(
		&dish.ID, &dish.HotelID, &dish.CategoryID, &dish.Name, &dish.Description, &dish.Price,
		pq.Array(&dish.Ingredients), &dish.OutOfStock, &dish.AppliedOfferID,
		&offerID, &offerHotelID, &offerName, &offerType, &offerDiscountType,
		&offerValue, &offerAbove, &offerStart, &offerEnd, &offerDisable,
	)
	if err != nil {
		return dish, err
	}

	if offerID.Valid {
		dish.AppliedOffer = &domain.Offer{
			ID:           int(offerID.Int64),
			HotelID:      int(offerHotelID.Int64),
			Name:         offerName.String,
			Type:         domain.OfferType(offerType.String),
			DiscountType: domain.DiscountType(offerDiscountType.String),
			Value:        offerValue.Float64,
			AppliedAbove: offerAbove.Float64,
			StartDate:    offerStart.Time,
			EndDate:      offerEnd.Time,
			Disable:      offerDisable.Bool,
		}
	}
	return dish, nil
}

func (r *PostgresRepository) CreateDish(ctx context.Context, dish *domain.Dish) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO dishes (hotel_id, category_id, name, description, price, ingredients, out_of_stock)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		dish.HotelID, dish.CategoryID, dish.Name, dish.Description, dish.Price,
		pq.Array(dish.Ingredients), dish.OutOfStock,
	).Scan(&dish.ID)
	if err != nil {
		return domain.NewServerError("failed to create dish", err)
	}
	return nil
}

func (r *PostgresRepository) ListDishes(ctx context.Context, hotelID int) ([]domain.Dish, error) {
	rows, err := r.DB.QueryContext(ctx, dishSelect+" WHERE d.hotel_id = $1 ORDER BY d.name", hotelID)
	if err != nil {
		return nil, domain.NewServerError("failed to list dishes", err)
	}
	defer rows.Close()

	dishes := []domain.Dish{}
	for rows.Next() {
		dish, err := scanDish(rows)
		if err != nil {
			continue
		}
		dishes = append(dishes, dish)
	}
	return dishes, nil
}

func (r *PostgresRepository) GetDish(ctx context.Context, id int) (*domain.Dish, error) {
	row := r.DB.QueryRowContext(ctx, dishSelect+" WHERE d.id = $1", id)
	dish, err := scanDish(row)
	if err != nil {
		return nil, notFound(err, "dish not found")
	}
	return &dish, nil
}

func (r *PostgresRepository) UpdateDish(ctx context.Context, dish *domain.Dish) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE dishes SET category_id = $1, name = $2, description = $3, price = $4, ingredients = $5, out_of_stock = $6
		 WHERE id = $7`,
		dish.CategoryID, dish.Name, dish.Description, dish.Price,
		pq.Array(dish.Ingredients), dish.OutOfStock, dish.ID)
	if err != nil {
		return domain.NewServerError("failed to update dish", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("dish not found")
	}
	return nil
}

func (r *PostgresRepository) DishesByIDs(ctx context.Context, ids []int) (map[int]domain.Dish, error) {
	return dishesByIDs(ctx, r.DB, ids)
}

func dishesByIDs(ctx context.Context, q queryer, ids []int) (map[int]domain.Dish, error) {
	dishes := make(map[int]domain.Dish, len(ids))
	if len(ids) == 0 {
		return dishes, nil
	}

	rows, err := q.QueryContext(ctx, dishSelect+" WHERE d.id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, domain.NewServerError("failed to fetch dishes", err)
	}
	defer rows.Close()

	for rows.Next() {
		dish, err := scanDish(rows)
		if err != nil {
			return nil, domain.NewServerError("failed to scan dish", err)
		}
		dishes[dish.ID] = dish
	}
	return dishes, nil
}

// --- offers ---------------------------------------------------------------

func (r *PostgresRepository) CreateOffer(ctx context.Context, offer *domain.Offer) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO offers (hotel_id, name, description, type, discount_type, value, applied_above, start_date, end_date, disable)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
			offer.HotelID, offer.Name, offer.Description, offer.Type, offer.DiscountType,
			offer.Value, offer.AppliedAbove, offer.StartDate, offer.EndDate, offer.Disable,
		).Scan(&offer.ID)
		if err != nil {
			return domain.NewServerError("failed to create offer", err)
		}
		return setAppliedOffer(ctx, tx, offer.ID, offer.AppliedOn)
	})
}

func (r *PostgresRepository) GetOffer(ctx context.Context, id int) (*domain.Offer, error) {
	var offer domain.Offer
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, hotel_id, name, COALESCE(description, ''), type, discount_type, value, applied_above, start_date, end_date, disable
		 FROM offers WHERE id = $1`, id,
	).Scan(&offer.ID, &offer.HotelID, &offer.Name, &offer.Description, &offer.Type, &offer.DiscountType,
		&offer.Value, &offer.AppliedAbove, &offer.StartDate, &offer.EndDate, &offer.Disable)
	if err != nil {
		return nil, notFound(err, "offer not found")
	}

	rows, err := r.DB.QueryContext(ctx, "SELECT id FROM dishes WHERE applied_offer_id = $1", id)
	if err != nil {
		return nil, domain.NewServerError("failed to fetch offer dishes", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dishID int
		if err := rows.Scan(&dishID); err == nil {
			offer.AppliedOn = append(offer.AppliedOn, dishID)
		}
	}
	return &offer, nil
}

func (r *PostgresRepository) ListOffers(ctx context.Context, hotelID int) ([]domain.Offer, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, hotel_id, name, COALESCE(description, ''), type, discount_type, value, applied_above, start_date, end_date, disable
		 FROM offers WHERE hotel_id = $1 ORDER BY id`, hotelID)
	if err != nil {
		return nil, domain.NewServerError("failed to list offers", err)
	}
	defer rows.Close()

	offers := []domain.Offer{}
	for rows.Next() {
		var offer domain.Offer
		if err := rows.Scan(&offer.ID, &offer.HotelID, &offer.Name, &offer.Description, &offer.Type, &offer.DiscountType,
			&offer.Value, &offer.AppliedAbove, &offer.StartDate, &offer.EndDate, &offer.Disable); err != nil {
			continue
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

func (r *PostgresRepository) UpdateOffer(ctx context.Context, offer *domain.Offer) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE offers SET name = $1, description = $2, type = $3, discount_type = $4, value = $5,
			 applied_above = $6, start_date = $7, end_date = $8, disable = $9 WHERE id = $10`,
			offer.Name, offer.Description, offer.Type, offer.DiscountType, offer.Value,
			offer.AppliedAbove, offer.StartDate, offer.EndDate, offer.Disable, offer.ID)
		if err != nil {
			return domain.NewServerError("failed to update offer", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return domain.NewNotFoundError("offer not found")
		}

		// Re-point the dish back-references: clear the old set, set the new.
		if _, err := tx.ExecContext(ctx, "UPDATE dishes SET applied_offer_id = NULL WHERE applied_offer_id = $1", offer.ID); err != nil {
			return domain.NewServerError("failed to clear offer dishes", err)
		}
		return setAppliedOffer(ctx, tx, offer.ID, offer.AppliedOn)
	})
}

func (r *PostgresRepository) DeleteOffer(ctx context.Context, id int) (*domain.Offer, error) {
	offer, err := r.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE dishes SET applied_offer_id = NULL WHERE applied_offer_id = $1", id); err != nil {
			return domain.NewServerError("failed to clear offer dishes", err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE bills SET global_offer_id = NULL WHERE global_offer_id = $1", id); err != nil {
			return domain.NewServerError("failed to clear offer bills", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM offers WHERE id = $1", id); err != nil {
			return domain.NewServerError("failed to delete offer", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func setAppliedOffer(ctx context.Context, tx *sql.Tx, offerID int, dishIDs []int) error {
	if len(dishIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, "UPDATE dishes SET applied_offer_id = $1 WHERE id = ANY($2)", offerID, pq.Array(dishIDs))
	if err != nil {
		return domain.NewServerError("failed to apply offer to dishes", err)
	}
	return nil
}

// --- tables ---------------------------------------------------------------

func (r *PostgresRepository) CreateTable(ctx context.Context, table *domain.Table) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO tables (hotel_id, sequence, capacity, status) VALUES ($1, $2, $3, 'free') RETURNING id, created_at`,
		table.HotelID, table.Sequence, table.Capacity,
	).Scan(&table.ID, &table.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewClientError("table sequence %d already exists for this hotel", table.Sequence)
		}
		return domain.NewServerError("failed to create table", err)
	}
	table.Status = domain.TableFree
	return nil
}

const tableSelect = `SELECT t.id, t.hotel_id, t.sequence, t.capacity, t.status, t.customer_id, COALESCE(c.name, ''), t.created_at
	FROM tables t LEFT JOIN customers c ON t.customer_id = c.id`

func (r *PostgresRepository) ListTables(ctx context.Context, hotelID int) ([]domain.Table, error) {
	rows, err := r.DB.QueryContext(ctx, tableSelect+" WHERE t.hotel_id = $1 ORDER BY t.sequence", hotelID)
	if err != nil {
		return nil, domain.NewServerError("failed to list tables", err)
	}
	defer rows.Close()

	tables := []domain.Table{}
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.HotelID, &t.Sequence, &t.Capacity, &t.Status, &t.CustomerID, &t.CustomerName, &t.CreatedAt); err != nil {
			continue
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func (r *PostgresRepository) GetTable(ctx context.Context, id int) (*domain.Table, error) {
	var t domain.Table
	err := r.DB.QueryRowContext(ctx, tableSelect+" WHERE t.id = $1", id).
		Scan(&t.ID, &t.HotelID, &t.Sequence, &t.Capacity, &t.Status, &t.CustomerID, &t.CustomerName, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err, "table not found")
	}
	return &t, nil
}

func (r *PostgresRepository) UpdateTable(ctx context.Context, table *domain.Table) error {
	result, err := r.DB.ExecContext(ctx,
		"UPDATE tables SET sequence = $1, capacity = $2 WHERE id = $3",
		table.Sequence, table.Capacity, table.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewClientError("table sequence %d already exists for this hotel", table.Sequence)
		}
		return domain.NewServerError("failed to update table", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("table not found")
	}
	return nil
}

func (r *PostgresRepository) DeleteTable(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM tables WHERE id = $1", id)
	if err != nil {
		return domain.NewServerError("failed to delete table", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("table not found")
	}
	return nil
}

// lockTable takes the per-table serialization lock every multi-entity write
// runs under.
func lockTable(ctx context.Context, tx *sql.Tx, tableID int) (*domain.Table, error) {
	var t domain.Table
	err := tx.QueryRowContext(ctx,
		"SELECT id, hotel_id, sequence, capacity, status, customer_id FROM tables WHERE id = $1 FOR UPDATE",
		tableID,
	).Scan(&t.ID, &t.HotelID, &t.Sequence, &t.Capacity, &t.Status, &t.CustomerID)
	if err != nil {
		return nil, notFound(err, "table not found")
	}
	return &t, nil
}

func occupyTable(ctx context.Context, tx *sql.Tx, tableID, customerID int) error {
	if _, err := tx.ExecContext(ctx,
		"UPDATE tables SET status = 'occupied', customer_id = $1 WHERE id = $2", customerID, tableID); err != nil {
		return domain.NewServerError("failed to occupy table", err)
	}
	return nil
}

func releaseTable(ctx context.Context, tx *sql.Tx, tableID int) error {
	if _, err := tx.ExecContext(ctx,
		"UPDATE tables SET status = 'free', customer_id = NULL WHERE id = $1", tableID); err != nil {
		return domain.NewServerError("failed to release table", err)
	}
	return nil
}

// syncOccupancy re-derives table status from the existence of non-draft
// orders. It is the only place occupancy is decided.
func syncOccupancy(ctx context.Context, tx *sql.Tx, tableID int) error {
	var nonDraft int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE table_id = $1 AND status <> 'draft'", tableID).Scan(&nonDraft)
	if err != nil {
		return domain.NewServerError("failed to count orders", err)
	}

	if nonDraft == 0 {
		return releaseTable(ctx, tx, tableID)
	}

	customer, err := customerByTable(ctx, tx, tableID)
	if err != nil {
		return err
	}
	if customer == nil {
		return domain.NewServerError("orders are available while customer is not", nil)
	}
	return occupyTable(ctx, tx, tableID, customer.ID)
}

// --- customers ------------------------------------------------------------

func customerByTable(ctx context.Context, q queryer, tableID int) (*domain.Customer, error) {
	var c domain.Customer
	err := q.QueryRowContext(ctx,
		"SELECT id, hotel_id, table_id, bill_id, name, created_at FROM customers WHERE table_id = $1", tableID,
	).Scan(&c.ID, &c.HotelID, &c.TableID, &c.BillID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewServerError("failed to fetch customer", err)
	}
	return &c, nil
}

// --- orders ---------------------------------------------------------------

const orderSelect = `SELECT id, hotel_id, table_id, customer_id, bill_id, status, COALESCE(note, ''), is_first_order, created_at FROM orders`

func scanOrder(row interface{ Scan(...interface{}) error }) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.HotelID, &o.TableID, &o.CustomerID, &o.BillID, &o.Status, &o.Note, &o.IsFirstOrder, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func orderItems(ctx context.Context, q queryer, orderID int) ([]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT dish_id, quantity, COALESCE(note, '') FROM order_items WHERE order_id = $1 ORDER BY dish_id", orderID)
	if err != nil {
		return nil, domain.NewServerError("failed to fetch order items", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.DishID, &item.Quantity, &item.Note); err != nil {
			return nil, domain.NewServerError("failed to scan order item", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func getOrder(ctx context.Context, q queryer, orderID int) (*domain.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx, orderSelect+" WHERE id = $1", orderID))
	if err != nil {
		return nil, notFound(err, "order not found")
	}
	order.Items, err = orderItems(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func listOrders(ctx context.Context, q queryer, where string, arg interface{}) ([]domain.Order, error) {
	rows, err := q.QueryContext(ctx, orderSelect+" WHERE "+where+" ORDER BY created_at", arg)
	if err != nil {
		return nil, domain.NewServerError("failed to list orders", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, domain.NewServerError("failed to scan order", err)
		}
		orders = append(orders, *order)
	}
	rows.Close()

	for i := range orders {
		items, err := orderItems(ctx, q, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *PostgresRepository) GetOrder(ctx context.Context, id int) (*domain.Order, error) {
	return getOrder(ctx, r.DB, id)
}

func (r *PostgresRepository) ListOrdersByHotel(ctx context.Context, hotelID int) ([]domain.Order, error) {
	return listOrders(ctx, r.DB, "hotel_id = $1", hotelID)
}

func (r *PostgresRepository) ListOrdersByTable(ctx context.Context, tableID int) ([]domain.Order, error) {
	return listOrders(ctx, r.DB, "table_id = $1", tableID)
}

// CreateOrder materializes the session on first order: customer and empty
// bill are created together, guarded by the unique customer-per-table index
// so only one of two racing first orders can win. The order's dishes are
// merged into the running bill in the same transaction.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order, customerName string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		table, err := lockTable(ctx, tx, order.TableID)
		if err != nil {
			return err
		}
		order.HotelID = table.HotelID

		dishes, err := dishesByIDs(ctx, tx, dishIDsOf(order.Items))
		if err != nil {
			return err
		}
		for _, item := range order.Items {
			if _, ok := dishes[item.DishID]; !ok {
				return domain.NewNotFoundError("dish %d not found", item.DishID)
			}
		}

		customer, err := customerByTable(ctx, tx, order.TableID)
		if err != nil {
			return err
		}

		var bill *domain.Bill
		if customer == nil {
			if customerName == "" {
				customerName = "Guest"
			}
			bill = &domain.Bill{
				HotelID:      order.HotelID,
				TableID:      order.TableID,
				CustomerName: customerName,
				Status:       domain.BillUnpaid,
			}
			if err := insertBill(ctx, tx, bill); err != nil {
				return err
			}
			customer = &domain.Customer{
				HotelID: order.HotelID,
				TableID: order.TableID,
				BillID:  bill.ID,
				Name:    customerName,
			}
			err := tx.QueryRowContext(ctx,
				"INSERT INTO customers (hotel_id, table_id, bill_id, name) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
				customer.HotelID, customer.TableID, customer.BillID, customer.Name,
			).Scan(&customer.ID, &customer.CreatedAt)
			if err != nil {
				if isUniqueViolation(err) {
					return domain.NewClientError("another customer is already seated at this table")
				}
				return domain.NewServerError("failed to create customer", err)
			}
			if _, err := tx.ExecContext(ctx, "UPDATE bills SET customer_id = $1 WHERE id = $2", customer.ID, bill.ID); err != nil {
				return domain.NewServerError("failed to link bill to customer", err)
			}
			bill.CustomerID = &customer.ID
			order.IsFirstOrder = true
		} else {
			bill, err = getBill(ctx, tx, customer.BillID)
			if err != nil {
				return err
			}
		}

		order.CustomerID = customer.ID
		order.BillID = bill.ID

		deltas := make([]domain.BillItem, 0, len(order.Items))
		for _, item := range order.Items {
			deltas = append(deltas, domain.BillItem{DishID: item.DishID, Quantity: item.Quantity})
		}
		if err := applyBillDeltas(ctx, tx, bill, deltas, dishes, r.now()); err != nil {
			return err
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (hotel_id, table_id, customer_id, bill_id, status, note, is_first_order)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
			order.HotelID, order.TableID, order.CustomerID, order.BillID, order.Status, order.Note, order.IsFirstOrder,
		).Scan(&order.ID, &order.CreatedAt)
		if err != nil {
			return domain.NewServerError("failed to create order", err)
		}
		if err := insertOrderItems(ctx, tx, order.ID, order.Items); err != nil {
			return err
		}

		return syncOccupancy(ctx, tx, order.TableID)
	})
}

// UpdateOrderItems replaces a draft order's dish list, adjusting the bill by
// the deltas against the snapshot read under the table lock.
func (r *PostgresRepository) UpdateOrderItems(ctx context.Context, orderID int, items []domain.OrderItem, note string) (*domain.Order, error) {
	var updated *domain.Order
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		order, err := getOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if _, err := lockTable(ctx, tx, order.TableID); err != nil {
			return err
		}
		// Re-read under the lock; a concurrent edit may have landed first.
		order, err = getOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderDraft {
			return domain.NewClientError("only draft orders can be edited")
		}

		deltas := billing.ItemDeltas(order.Items, items)
		dishes, err := dishesByIDs(ctx, tx, dishIDsOfDeltas(order.Items, items))
		if err != nil {
			return err
		}

		bill, err := getBill(ctx, tx, order.BillID)
		if err != nil {
			return err
		}
		if err := applyBillDeltas(ctx, tx, bill, deltas, dishes, r.now()); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "UPDATE orders SET note = $1 WHERE id = $2", note, orderID); err != nil {
			return domain.NewServerError("failed to update order", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID); err != nil {
			return domain.NewServerError("failed to clear order items", err)
		}
		if err := insertOrderItems(ctx, tx, orderID, items); err != nil {
			return err
		}

		order.Items = items
		order.Note = note
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID int, status domain.OrderStatus) (*domain.Order, error) {
	var updated *domain.Order
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		order, err := getOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if _, err := lockTable(ctx, tx, order.TableID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2", status, orderID); err != nil {
			return domain.NewServerError("failed to update order status", err)
		}
		order.Status = status
		updated = order

		return syncOccupancy(ctx, tx, order.TableID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteOrder removes the order and its dishes from the running bill. When
// no non-draft orders remain the table is released; when no orders remain at
// all, the customer and bill are purged with it.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, orderID int) (*domain.Order, error) {
	var deleted *domain.Order
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		order, err := getOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if _, err := lockTable(ctx, tx, order.TableID); err != nil {
			return err
		}
		order, err = getOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		deleted = order

		if _, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID); err != nil {
			return domain.NewServerError("failed to delete order", err)
		}

		var remaining int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE table_id = $1", order.TableID).Scan(&remaining); err != nil {
			return domain.NewServerError("failed to count orders", err)
		}

		if remaining == 0 {
			// Last order gone: the session ends and the bill goes with it.
			if _, err := tx.ExecContext(ctx, "DELETE FROM customers WHERE table_id = $1", order.TableID); err != nil {
				return domain.NewServerError("failed to delete customer", err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM bills WHERE id = $1 AND status = 'unpaid'", order.BillID); err != nil {
				return domain.NewServerError("failed to delete bill", err)
			}
			return releaseTable(ctx, tx, order.TableID)
		}

		dishes, err := dishesByIDs(ctx, tx, dishIDsOf(order.Items))
		if err != nil {
			return err
		}
		bill, err := getBill(ctx, tx, order.BillID)
		if err != nil {
			return err
		}
		if err := applyBillDeltas(ctx, tx, bill, billing.NegateItems(order.Items), dishes, r.now()); err != nil {
			return err
		}

		return syncOccupancy(ctx, tx, order.TableID)
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func insertOrderItems(ctx context.Context, tx *sql.Tx, orderID int, items []domain.OrderItem) error {
	for _, item := range items {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, dish_id, quantity, note) VALUES ($1, $2, $3, $4)",
			orderID, item.DishID, item.Quantity, item.Note); err != nil {
			return domain.NewServerError("failed to insert order item", err)
		}
	}
	return nil
}

func dishIDsOf(items []domain.OrderItem) []int {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.DishID)
	}
	return ids
}

func dishIDsOfDeltas(oldItems, newItems []domain.OrderItem) []int {
	seen := map[int]bool{}
	var ids []int
	for _, item := range append(append([]domain.OrderItem{}, oldItems...), newItems...) {
		if !seen[item.DishID] {
			seen[item.DishID] = true
			ids = append(ids, item.DishID)
		}
	}
	return ids
}

// --- bills ----------------------------------------------------------------

const billSelect = `SELECT id, hotel_id, table_id, customer_id, customer_name, global_offer_id, global_offer_discount,
	total_amount, total_discount, custom_discount, final_amount, status, created_at FROM bills`

func scanBill(row interface{ Scan(...interface{}) error }) (*domain.Bill, error) {
	var b domain.Bill
	err := row.Scan(&b.ID, &b.HotelID, &b.TableID, &b.CustomerID, &b.CustomerName, &b.GlobalOfferID, &b.GlobalOfferDiscount,
		&b.TotalAmount, &b.TotalDiscount, &b.CustomDiscount, &b.FinalAmount, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func billItems(ctx context.Context, q queryer, billID int) ([]domain.BillItem, error) {
	rows, err := q.QueryContext(ctx, "SELECT dish_id, quantity FROM bill_items WHERE bill_id = $1 ORDER BY dish_id", billID)
	if err != nil {
		return nil, domain.NewServerError("failed to fetch bill items", err)
	}
	defer rows.Close()

	var items []domain.BillItem
	for rows.Next() {
		var item domain.BillItem
		if err := rows.Scan(&item.DishID, &item.Quantity); err != nil {
			return nil, domain.NewServerError("failed to scan bill item", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func getBill(ctx context.Context, q queryer, billID int) (*domain.Bill, error) {
	bill, err := scanBill(q.QueryRowContext(ctx, billSelect+" WHERE id = $1", billID))
	if err != nil {
		return nil, notFound(err, "bill not found")
	}
	bill.Items, err = billItems(ctx, q, billID)
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func insertBill(ctx context.Context, tx *sql.Tx, bill *domain.Bill) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO bills (hotel_id, table_id, customer_name, status) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		bill.HotelID, bill.TableID, bill.CustomerName, bill.Status,
	).Scan(&bill.ID, &bill.CreatedAt)
	if err != nil {
		return domain.NewServerError("failed to create bill", err)
	}
	return nil
}

// applyBillDeltas merges quantity deltas into the bill's line items, adjusts
// the running totals by the priced deltas only, and persists the result.
func applyBillDeltas(ctx context.Context, tx *sql.Tx, bill *domain.Bill, deltas []domain.BillItem, dishes map[int]domain.Dish, now time.Time) error {
	bill.Items = billing.MergeItems(bill.Items, deltas)
	deltaAmount, deltaDiscount := billing.LineTotals(deltas, dishes, now)
	bill.TotalAmount += deltaAmount
	bill.TotalDiscount += deltaDiscount
	bill.FinalAmount = billing.FinalAmount(bill.TotalAmount, bill.TotalDiscount, bill.CustomDiscount)
	return saveBill(ctx, tx, bill)
}

func saveBill(ctx context.Context, tx *sql.Tx, bill *domain.Bill) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bills SET customer_id = $1, customer_name = $2, global_offer_id = $3, global_offer_discount = $4,
		 total_amount = $5, total_discount = $6, custom_discount = $7, final_amount = $8, status = $9 WHERE id = $10`,
		bill.CustomerID, bill.CustomerName, bill.GlobalOfferID, bill.GlobalOfferDiscount,
		bill.TotalAmount, bill.TotalDiscount, bill.CustomDiscount, bill.FinalAmount, bill.Status, bill.ID)
	if err != nil {
		return domain.NewServerError("failed to update bill", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM bill_items WHERE bill_id = $1", bill.ID); err != nil {
		return domain.NewServerError("failed to clear bill items", err)
	}
	for _, item := range bill.Items {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO bill_items (bill_id, dish_id, quantity) VALUES ($1, $2, $3)",
			bill.ID, item.DishID, item.Quantity); err != nil {
			return domain.NewServerError("failed to insert bill item", err)
		}
	}
	return nil
}

func (r *PostgresRepository) GetBill(ctx context.Context, id int) (*domain.Bill, error) {
	return getBill(ctx, r.DB, id)
}

func (r *PostgresRepository) GetBillByTable(ctx context.Context, tableID int) (*domain.Bill, error) {
	bill, err := scanBill(r.DB.QueryRowContext(ctx, billSelect+" WHERE table_id = $1 AND status = 'unpaid'", tableID))
	if err != nil {
		return nil, notFound(err, "no running bill for this table")
	}
	bill.Items, err = billItems(ctx, r.DB, bill.ID)
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *PostgresRepository) ListBills(ctx context.Context, hotelID int) ([]domain.Bill, error) {
	rows, err := r.DB.QueryContext(ctx, billSelect+" WHERE hotel_id = $1 ORDER BY created_at DESC", hotelID)
	if err != nil {
		return nil, domain.NewServerError("failed to list bills", err)
	}
	defer rows.Close()

	bills := []domain.Bill{}
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, domain.NewServerError("failed to scan bill", err)
		}
		bills = append(bills, *bill)
	}
	rows.Close()

	for i := range bills {
		items, err := billItems(ctx, r.DB, bills[i].ID)
		if err != nil {
			return nil, err
		}
		bills[i].Items = items
	}
	return bills, nil
}

// GenerateBill rebuilds the bill from every non-draft order of the table.
// Aggregation rejects tables whose orders are still in flight; a previously
// applied global offer is discarded along with its discount contribution.
func (r *PostgresRepository) GenerateBill(ctx context.Context, tableID int) (*domain.Bill, error) {
	var generated *domain.Bill
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := lockTable(ctx, tx, tableID); err != nil {
			return err
		}

		orders, err := listOrders(ctx, tx, "table_id = $1", tableID)
		if err != nil {
			return err
		}
		items, err := billing.AggregateOrders(orders)
		if err != nil {
			return err
		}

		customer, err := customerByTable(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.NewServerError("orders are available while customer is not", nil)
		}

		bill, err := getBill(ctx, tx, customer.BillID)
		if err != nil {
			return err
		}

		dishes, err := dishesByIDs(ctx, tx, billDishIDs(items))
		if err != nil {
			return err
		}
		totalAmount, totalDiscount := billing.LineTotals(items, dishes, r.now())

		bill.Items = items
		bill.GlobalOfferID = nil
		bill.GlobalOfferDiscount = 0
		bill.TotalAmount = totalAmount
		bill.TotalDiscount = totalDiscount
		bill.FinalAmount = billing.FinalAmount(totalAmount, totalDiscount, bill.CustomDiscount)

		if err := saveBill(ctx, tx, bill); err != nil {
			return err
		}
		generated = bill
		return nil
	})
	if err != nil {
		return nil, err
	}
	return generated, nil
}

// MutateBill re-reads the bill under the table lock before running fn, so
// staff edits, offer applications and settlements serialize with concurrent
// order writes on the same table. A teardown purges the visit in the same
// transaction: orders and customer deleted, table freed. The ids of the
// deleted orders come back to the caller.
func (r *PostgresRepository) MutateBill(ctx context.Context, billID int, fn service.BillMutation) (*domain.Bill, []int, error) {
	var (
		mutated *domain.Bill
		removed []int
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		mutated = nil
		removed = nil

		bill, err := getBill(ctx, tx, billID)
		if err != nil {
			return err
		}
		if _, err := lockTable(ctx, tx, bill.TableID); err != nil {
			return err
		}
		// The first read ran before the lock was held; re-read so fn sees
		// the state no concurrent writer can still change.
		bill, err = getBill(ctx, tx, billID)
		if err != nil {
			return err
		}

		teardown, err := fn(bill)
		if err != nil {
			return err
		}
		if err := saveBill(ctx, tx, bill); err != nil {
			return err
		}
		mutated = bill
		if !teardown {
			return nil
		}

		rows, err := tx.QueryContext(ctx, "SELECT id FROM orders WHERE table_id = $1", bill.TableID)
		if err != nil {
			return domain.NewServerError("failed to list orders", err)
		}
		for rows.Next() {
			var orderID int
			if err := rows.Scan(&orderID); err != nil {
				rows.Close()
				return domain.NewServerError("failed to scan order", err)
			}
			removed = append(removed, orderID)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return domain.NewServerError("failed to list orders", err)
		}
		rows.Close()

		if _, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE table_id = $1", bill.TableID); err != nil {
			return domain.NewServerError("failed to delete orders", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM customers WHERE table_id = $1", bill.TableID); err != nil {
			return domain.NewServerError("failed to delete customer", err)
		}
		return releaseTable(ctx, tx, bill.TableID)
	})
	if err != nil {
		return nil, nil, err
	}
	return mutated, removed, nil
}

// ExportBill builds the stable read-only projection the email/PDF
// collaborators consume.
func (r *PostgresRepository) ExportBill(ctx context.Context, billID int) (*domain.BillExport, error) {
	bill, err := getBill(ctx, r.DB, billID)
	if err != nil {
		return nil, err
	}

	export := &domain.BillExport{
		BillID:         bill.ID,
		CustomerName:   bill.CustomerName,
		TotalAmount:    bill.TotalAmount,
		TotalDiscount:  bill.TotalDiscount,
		CustomDiscount: bill.CustomDiscount,
		FinalAmount:    bill.FinalAmount,
		Status:         bill.Status,
	}

	err = r.DB.QueryRowContext(ctx,
		"SELECT h.name, COALESCE(h.address, '') FROM hotels h WHERE h.id = $1", bill.HotelID,
	).Scan(&export.HotelName, &export.HotelAddress)
	if err != nil {
		return nil, notFound(err, "hotel not found")
	}
	err = r.DB.QueryRowContext(ctx, "SELECT sequence FROM tables WHERE id = $1", bill.TableID).Scan(&export.TableSequence)
	if err != nil {
		return nil, notFound(err, "table not found")
	}

	dishes, err := dishesByIDs(ctx, r.DB, billDishIDs(bill.Items))
	if err != nil {
		return nil, err
	}
	for _, item := range bill.Items {
		dish, ok := dishes[item.DishID]
		if !ok {
			return nil, domain.NewServerError(fmt.Sprintf("bill references missing dish %d", item.DishID), nil)
		}
		export.Lines = append(export.Lines, domain.BillExportLine{
			DishName: dish.Name,
			Quantity: item.Quantity,
			Price:    dish.Price,
			Subtotal: dish.Price * float64(item.Quantity),
		})
	}
	return export, nil
}

func billDishIDs(items []domain.BillItem) []int {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.DishID)
	}
	return ids
}
