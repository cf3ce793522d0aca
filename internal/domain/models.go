package domain

import "time"

type TableStatus string

const (
	TableFree     TableStatus = "free"
	TableOccupied TableStatus = "occupied"
)

type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type BillStatus string

const (
	BillUnpaid   BillStatus = "unpaid"
	BillPaid     BillStatus = "paid"
	BillPayLater BillStatus = "payLater"
)

type OfferType string

const (
	OfferSpecific OfferType = "specific"
	OfferGlobal   OfferType = "global"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

type Hotel struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

type Table struct {
	ID           int         `json:"id"`
	HotelID      int         `json:"hotel_id"`
	Sequence     int         `json:"sequence"`
	Capacity     int         `json:"capacity"`
	Status       TableStatus `json:"status"`
	CustomerID   *int        `json:"customer_id"`
	CustomerName string      `json:"customer_name,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Customer is the ephemeral session record for whoever currently sits at a
// table. It is created with the first order and removed when the table is
// released.
type Customer struct {
	ID        int       `json:"id"`
	HotelID   int       `json:"hotel_id"`
	TableID   int       `json:"table_id"`
	BillID    int       `json:"bill_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID          int    `json:"id"`
	HotelID     int    `json:"hotel_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Dish struct {
	ID             int      `json:"id"`
	HotelID        int      `json:"hotel_id"`
	CategoryID     *int     `json:"category_id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	Ingredients    []string `json:"ingredients"`
	OutOfStock     bool     `json:"out_of_stock"`
	AppliedOfferID *int     `json:"applied_offer_id"`
	AppliedOffer   *Offer   `json:"applied_offer,omitempty"`
}

type Offer struct {
	ID           int          `json:"id"`
	HotelID      int          `json:"hotel_id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Type         OfferType    `json:"type"`
	DiscountType DiscountType `json:"discount_type"`
	Value        float64      `json:"value"`
	AppliedOn    []int        `json:"applied_on,omitempty"`
	AppliedAbove float64      `json:"applied_above,omitempty"`
	StartDate    time.Time    `json:"start_date"`
	EndDate      time.Time    `json:"end_date"`
	Disable      bool         `json:"disable"`
}

type OrderItem struct {
	DishID   int    `json:"dish_id"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note,omitempty"`
}

type Order struct {
	ID           int         `json:"id"`
	HotelID      int         `json:"hotel_id"`
	TableID      int         `json:"table_id"`
	CustomerID   int         `json:"customer_id"`
	BillID       int         `json:"bill_id"`
	Items        []OrderItem `json:"dishes"`
	Status       OrderStatus `json:"status"`
	Note         string      `json:"note,omitempty"`
	IsFirstOrder bool        `json:"is_first_order"`
	CreatedAt    time.Time   `json:"created_at"`
}

type BillItem struct {
	DishID   int `json:"dish_id"`
	Quantity int `json:"quantity"`
}

// Bill is the financial aggregate for one table occupancy. FinalAmount is
// always derived as TotalAmount - TotalDiscount - CustomDiscount, clamped at
// zero; it is never set independently. GlobalOfferDiscount tracks the portion
// of TotalDiscount contributed by the currently applied global offer so that
// replacing the offer can subtract exactly what was added.
type Bill struct {
	ID                  int        `json:"id"`
	HotelID             int        `json:"hotel_id"`
	TableID             int        `json:"table_id"`
	CustomerID          *int       `json:"customer_id"`
	CustomerName        string     `json:"customer_name"`
	Items               []BillItem `json:"ordered_items"`
	GlobalOfferID       *int       `json:"global_offer_id"`
	GlobalOfferDiscount float64    `json:"global_offer_discount"`
	TotalAmount         float64    `json:"total_amount"`
	TotalDiscount       float64    `json:"total_discount"`
	CustomDiscount      float64    `json:"custom_discount"`
	FinalAmount         float64    `json:"final_amount"`
	Status              BillStatus `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
}

// BillExport is the read-only projection other subsystems (email, PDF) may
// depend on. Its shape is stable regardless of internal discount bookkeeping.
type BillExport struct {
	BillID         int              `json:"bill_id"`
	HotelName      string           `json:"hotel_name"`
	HotelAddress   string           `json:"hotel_address"`
	TableSequence  int              `json:"table_sequence"`
	CustomerName   string           `json:"customer_name"`
	Lines          []BillExportLine `json:"lines"`
	TotalAmount    float64          `json:"total_amount"`
	TotalDiscount  float64          `json:"total_discount"`
	CustomDiscount float64          `json:"custom_discount"`
	FinalAmount    float64          `json:"final_amount"`
	Status         BillStatus       `json:"status"`
}

type BillExportLine struct {
	DishName string  `json:"dish_name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Subtotal float64 `json:"subtotal"`
}

// BillSummary is the totals-only view returned by the scan bootstrap.
type BillSummary struct {
	TotalAmount    float64    `json:"total_amount"`
	TotalDiscount  float64    `json:"total_discount"`
	CustomDiscount float64    `json:"custom_discount"`
	FinalAmount    float64    `json:"final_amount"`
	Status         BillStatus `json:"status"`
}

// OrderEvent is the flat, reference-free projection handed to the Notifier.
// Never the live documents: the event crosses a process boundary.
type OrderEvent struct {
	OrderID    int              `json:"order_id"`
	BillID     int              `json:"bill_id"`
	CustomerID int              `json:"customer_id"`
	TableID    int              `json:"table_id"`
	HotelID    int              `json:"hotel_id"`
	Status     OrderStatus      `json:"status"`
	Dishes     []OrderEventItem `json:"dishes"`
}

type OrderEventItem struct {
	DishID   int `json:"dish_id"`
	Quantity int `json:"quantity"`
}

// Bootstrap is what a table's QR scan returns: enough for a customer device
// to resume or start a session.
type Bootstrap struct {
	Table          *Table       `json:"table"`
	CustomerName   string       `json:"customer_name,omitempty"`
	ExistingOrders []Order      `json:"existing_orders"`
	Menu           Menu         `json:"menu"`
	Bill           *BillSummary `json:"bill,omitempty"`
}

type Menu struct {
	Dishes     []Dish     `json:"dishes"`
	Categories []Category `json:"categories"`
}
