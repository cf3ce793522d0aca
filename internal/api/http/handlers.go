package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"tableserve/internal/domain"
	"tableserve/internal/service"

	"github.com/gorilla/mux"
)

type Handler struct {
	Menu   service.MenuServiceInterface
	Tables service.TableServiceInterface
	Orders service.OrderServiceInterface
	Bills  service.BillServiceInterface
	Offers service.OfferServiceInterface
}

func NewHandler(menuSvc service.MenuServiceInterface, tableSvc service.TableServiceInterface, orderSvc service.OrderServiceInterface, billSvc service.BillServiceInterface, offerSvc service.OfferServiceInterface) *Handler {
	return &Handler{
		Menu:   menuSvc,
		Tables: tableSvc,
		Orders: orderSvc,
		Bills:  billSvc,
		Offers: offerSvc,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/hotels", h.createHotel).Methods("POST")
	r.HandleFunc("/api/hotels/{id}", h.getHotel).Methods("GET")

	r.HandleFunc("/api/hotels/{hotelId}/categories", h.createCategory).Methods("POST")
	r.HandleFunc("/api/hotels/{hotelId}/categories", h.getCategories).Methods("GET")

	r.HandleFunc("/api/hotels/{hotelId}/dishes", h.createDish).Methods("POST")
	r.HandleFunc("/api/hotels/{hotelId}/dishes", h.getDishes).Methods("GET")
	r.HandleFunc("/api/dishes/{id}", h.getDish).Methods("GET")
	r.HandleFunc("/api/dishes/{id}", h.updateDish).Methods("PUT")

	r.HandleFunc("/api/hotels/{hotelId}/offers", h.createOffer).Methods("POST")
	r.HandleFunc("/api/hotels/{hotelId}/offers", h.getOffers).Methods("GET")
	r.HandleFunc("/api/offers/{id}", h.getOffer).Methods("GET")
	r.HandleFunc("/api/offers/{id}", h.updateOffer).Methods("PUT")
	r.HandleFunc("/api/offers/{id}", h.deleteOffer).Methods("DELETE")

	r.HandleFunc("/api/hotels/{hotelId}/tables", h.createTable).Methods("POST")
	r.HandleFunc("/api/hotels/{hotelId}/tables", h.getTables).Methods("GET")
	r.HandleFunc("/api/tables/{id}", h.getTable).Methods("GET")
	r.HandleFunc("/api/tables/{id}", h.updateTable).Methods("PUT")
	r.HandleFunc("/api/tables/{id}", h.deleteTable).Methods("DELETE")
	r.HandleFunc("/api/tables/{id}/qrcode", h.getTableQRCode).Methods("GET")
	r.HandleFunc("/api/scan/{tableId}", h.scanTable).Methods("GET")

	r.HandleFunc("/api/orders", h.createOrder).Methods("POST")
	r.HandleFunc("/api/orders/{id}", h.getOrder).Methods("GET")
	r.HandleFunc("/api/orders/{id}", h.updateOrderItems).Methods("PUT")
	r.HandleFunc("/api/orders/{id}", h.deleteOrder).Methods("DELETE")
	r.HandleFunc("/api/orders/{id}/confirm", h.confirmOrder).Methods("POST")
	r.HandleFunc("/api/orders/{id}/status", h.updateOrderStatus).Methods("PATCH")
	r.HandleFunc("/api/hotels/{hotelId}/orders", h.getHotelOrders).Methods("GET")
	r.HandleFunc("/api/tables/{tableId}/orders", h.getTableOrders).Methods("GET")

	r.HandleFunc("/api/tables/{tableId}/bill/generate", h.generateBill).Methods("POST")
	r.HandleFunc("/api/hotels/{hotelId}/bills", h.getHotelBills).Methods("GET")
	r.HandleFunc("/api/bills/{id}", h.getBill).Methods("GET")
	r.HandleFunc("/api/bills/{id}", h.updateBill).Methods("PATCH")
	r.HandleFunc("/api/bills/{id}/offer", h.applyBillOffer).Methods("POST")
	r.HandleFunc("/api/bills/{id}/pay", h.payBill).Methods("POST")
	r.HandleFunc("/api/bills/{id}/paylater", h.payBillLater).Methods("POST")
	r.HandleFunc("/api/bills/{id}/export", h.exportBill).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "tableserve",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps the two domain error kinds onto HTTP. Client errors carry
// their own status code; server errors are logged with their cause and
// answered with a generic message so internals never leak to customer
// devices.
func writeError(w http.ResponseWriter, err error) {
	var clientErr *domain.ClientError
	if errors.As(err, &clientErr) {
		status := clientErr.Code
		if status == 0 {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": clientErr.Message})
		return
	}

	var serverErr *domain.ServerError
	if errors.As(err, &serverErr) {
		log.Printf("server error: %s: %v", serverErr.Message, serverErr.Err)
	} else {
		log.Printf("unexpected error: %v", err)
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func pathID(r *http.Request, name string) int {
	id, _ := strconv.Atoi(mux.Vars(r)[name])
	return id
}

// --- hotels and catalog ---------------------------------------------------

func (h *Handler) createHotel(w http.ResponseWriter, r *http.Request) {
	var hotel domain.Hotel
	if err := json.NewDecoder(r.Body).Decode(&hotel); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Menu.CreateHotel(r.Context(), &hotel); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hotel)
}

func (h *Handler) getHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Menu.GetHotel(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var category domain.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	category.HotelID = pathID(r, "hotelId")
	if err := h.Menu.CreateCategory(r.Context(), &category); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) getCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Menu.ListCategories(r.Context(), pathID(r, "hotelId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) createDish(w http.ResponseWriter, r *http.Request) {
	var dish domain.Dish
	if err := json.NewDecoder(r.Body).Decode(&dish); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dish.HotelID = pathID(r, "hotelId")
	if err := h.Menu.CreateDish(r.Context(), &dish); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dish)
}

func (h *Handler) getDishes(w http.ResponseWriter, r *http.Request) {
	dishes, err := h.Menu.ListDishes(r.Context(), pathID(r, "hotelId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dishes)
}

func (h *Handler) getDish(w http.ResponseWriter, r *http.Request) {
	dish, err := h.Menu.GetDish(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dish)
}

func (h *Handler) updateDish(w http.ResponseWriter, r *http.Request) {
	var dish domain.Dish
	if err := json.NewDecoder(r.Body).Decode(&dish); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dish.ID = pathID(r, "id")
	if err := h.Menu.UpdateDish(r.Context(), &dish); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dish)
}

// --- offers ---------------------------------------------------------------

func (h *Handler) createOffer(w http.ResponseWriter, r *http.Request) {
	var offer domain.Offer
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	offer.HotelID = pathID(r, "hotelId")
	if err := h.Offers.Create(r.Context(), &offer); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

func (h *Handler) getOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.Offers.List(r.Context(), pathID(r, "hotelId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offers)
}

func (h *Handler) getOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := h.Offers.Get(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

func (h *Handler) updateOffer(w http.ResponseWriter, r *http.Request) {
	var offer domain.Offer
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	offer.ID = pathID(r, "id")
	if err := h.Offers.Update(r.Context(), &offer); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

func (h *Handler) deleteOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := h.Offers.Delete(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

// --- tables ---------------------------------------------------------------

func (h *Handler) createTable(w http.ResponseWriter, r *http.Request) {
	var table domain.Table
	if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	table.HotelID = pathID(r, "hotelId")
	if err := h.Tables.Create(r.Context(), &table); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

func (h *Handler) getTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.Tables.List(r.Context(), pathID(r, "hotelId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (h *Handler) getTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.Tables.Get(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *Handler) updateTable(w http.ResponseWriter, r *http.Request) {
	var table domain.Table
	if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	table.ID = pathID(r, "id")
	if err := h.Tables.Update(r.Context(), &table); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *Handler) deleteTable(w http.ResponseWriter, r *http.Request) {
	if err := h.Tables.Delete(r.Context(), pathID(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getTableQRCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.Tables.QRCode(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) scanTable(w http.ResponseWriter, r *http.Request) {
	bootstrap, err := h.Menu.Bootstrap(r.Context(), pathID(r, "tableId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bootstrap)
}

// --- orders ---------------------------------------------------------------

type createOrderRequest struct {
	TableID      int                `json:"table_id"`
	CustomerName string             `json:"customer_name"`
	Dishes       []domain.OrderItem `json:"dishes"`
	Status       domain.OrderStatus `json:"status"`
	Note         string             `json:"note"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	order := domain.Order{
		TableID: req.TableID,
		Items:   req.Dishes,
		Status:  req.Status,
		Note:    req.Note,
	}
	if err := h.Orders.Create(r.Context(), &order, req.CustomerName); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.Get(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type updateOrderRequest struct {
	Dishes []domain.OrderItem `json:"dishes"`
	Note   string             `json:"note"`
}

func (h *Handler) updateOrderItems(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	order, err := h.Orders.UpdateItems(r.Context(), pathID(r, "id"), req.Dishes, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.Confirm(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	order, err := h.Orders.UpdateStatus(r.Context(), pathID(r, "id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.Delete(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) getHotelOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListByHotel(r.Context(), pathID(r, "hotelId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getTableOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListByTable(r.Context(), pathID(r, "tableId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// --- bills ----------------------------------------------------------------

func (h *Handler) generateBill(w http.ResponseWriter, r *http.Request) {
	bill, err := h.Bills.Generate(r.Context(), pathID(r, "tableId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *Handler) getHotelBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.Bills.List(r.Context(), pathID(r, "hotelId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

func (h *Handler) getBill(w http.ResponseWriter, r *http.Request) {
	bill, err := h.Bills.Get(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

type updateBillRequest struct {
	CustomerName   *string  `json:"customer_name"`
	CustomDiscount *float64 `json:"custom_discount"`
}

func (h *Handler) updateBill(w http.ResponseWriter, r *http.Request) {
	var req updateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bill, err := h.Bills.Update(r.Context(), pathID(r, "id"), req.CustomerName, req.CustomDiscount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *Handler) applyBillOffer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OfferID int `json:"offer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bill, err := h.Bills.ApplyGlobalOffer(r.Context(), pathID(r, "id"), req.OfferID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *Handler) payBill(w http.ResponseWriter, r *http.Request) {
	bill, err := h.Bills.Settle(r.Context(), pathID(r, "id"), domain.BillPaid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *Handler) payBillLater(w http.ResponseWriter, r *http.Request) {
	bill, err := h.Bills.Settle(r.Context(), pathID(r, "id"), domain.BillPayLater)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *Handler) exportBill(w http.ResponseWriter, r *http.Request) {
	export, err := h.Bills.Export(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}
