package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	httpapi "tableserve/internal/api/http"
	"tableserve/internal/domain"
	"tableserve/internal/mocks"
	"tableserve/internal/service"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type handlerMocks struct {
	catalog  *mocks.CatalogRepository
	tables   *mocks.TableRepository
	orders   *mocks.OrderRepository
	bills    *mocks.BillRepository
	offers   *mocks.OfferRepository
	notifier *mocks.Notifier
	qr       *mocks.QRGenerator
	cache    *mocks.BootstrapCache
}

func newTestRouter() (*mux.Router, *handlerMocks) {
	m := &handlerMocks{
		catalog:  new(mocks.CatalogRepository),
		tables:   new(mocks.TableRepository),
		orders:   new(mocks.OrderRepository),
		bills:    new(mocks.BillRepository),
		offers:   new(mocks.OfferRepository),
		notifier: new(mocks.Notifier),
		qr:       new(mocks.QRGenerator),
		cache:    new(mocks.BootstrapCache),
	}

	handler := httpapi.NewHandler(
		service.NewMenuService(m.catalog, m.tables, m.orders, m.bills, m.cache),
		service.NewTableService(m.tables, m.qr),
		service.NewOrderService(m.orders, m.tables, m.catalog, m.notifier),
		service.NewBillService(m.bills, m.offers, m.notifier),
		service.NewOfferService(m.offers, m.catalog, m.cache),
	)

	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	return r, m
}

func TestHealthCheck(t *testing.T) {
	r, _ := newTestRouter()
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestCreateTableHandler(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		setupMock func(m *handlerMocks)
		wantCode  int
	}{
		{
			name: "valid request",
			body: `{"sequence":4,"capacity":6}`,
			setupMock: func(m *handlerMocks) {
				m.tables.On("CreateTable", mock.Anything, mock.AnythingOfType("*domain.Table")).Return(nil).Once()
			},
			wantCode: http.StatusCreated,
		},
		{
			name:     "invalid JSON",
			body:     `{invalid}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing capacity",
			body:     `{"sequence":4}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "duplicate sequence",
			body: `{"sequence":4,"capacity":6}`,
			setupMock: func(m *handlerMocks) {
				m.tables.On("CreateTable", mock.Anything, mock.AnythingOfType("*domain.Table")).
					Return(domain.NewClientError("table sequence 4 already exists for this hotel")).Once()
			},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			r, m := newTestRouter()
			if testCase.setupMock != nil {
				testCase.setupMock(m)
			}

			req := httptest.NewRequest("POST", "/api/hotels/1/tables", bytes.NewBufferString(testCase.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, testCase.wantCode, rec.Code)
			m.tables.AssertExpectations(t)
		})
	}
}

func TestGetBillHandlerNotFound(t *testing.T) {
	r, m := newTestRouter()
	m.bills.On("GetBill", mock.Anything, 99).Return(nil, domain.NewNotFoundError("bill not found")).Once()

	req := httptest.NewRequest("GET", "/api/bills/99", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// The status comes from the error's own code, not from sniffing the
// message: a validation error that happens to mention "not found" still
// maps to 400.
func TestClientErrorStatusIgnoresMessageWording(t *testing.T) {
	r, m := newTestRouter()
	m.bills.On("GetBill", mock.Anything, 99).
		Return(nil, domain.NewClientError("dish named `not found` cannot be billed")).Once()

	req := httptest.NewRequest("GET", "/api/bills/99", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmOrderHandlerPublishFailure(t *testing.T) {
	r, m := newTestRouter()
	order := &domain.Order{ID: 7, HotelID: 1, TableID: 5, Status: domain.OrderDraft}

	m.orders.On("GetOrder", mock.Anything, 7).Return(order, nil).Once()
	m.notifier.On("PublishNewOrder", mock.Anything, mock.AnythingOfType("domain.OrderEvent")).Return(assert.AnError).Once()

	req := httptest.NewRequest("POST", "/api/orders/7/confirm", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Internals never leak to the client.
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
	m.orders.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestPayBillHandler(t *testing.T) {
	r, m := newTestRouter()
	customerID := 3
	bill := &domain.Bill{ID: 2, TableID: 5, CustomerID: &customerID, TotalAmount: 500, FinalAmount: 500, Status: domain.BillUnpaid}

	m.bills.On("MutateBill", mock.Anything, 2).Return(bill, nil, nil).Once()

	req := httptest.NewRequest("POST", "/api/bills/2/pay", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got domain.Bill
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.BillPaid, got.Status)
	m.bills.AssertExpectations(t)
}

func TestTableQRCodeHandler(t *testing.T) {
	r, m := newTestRouter()
	png := []byte{0x89, 'P', 'N', 'G'}

	m.tables.On("GetTable", mock.Anything, 5).Return(&domain.Table{ID: 5, HotelID: 1}, nil).Once()
	m.qr.On("Generate", "/api/scan/5").Return(png, nil).Once()

	req := httptest.NewRequest("GET", "/api/tables/5/qrcode", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())
}

func TestScanTableHandler(t *testing.T) {
	r, m := newTestRouter()
	menu := &domain.Menu{Dishes: []domain.Dish{{ID: 1, HotelID: 1}}}

	m.tables.On("GetTable", mock.Anything, 5).Return(&domain.Table{ID: 5, HotelID: 1}, nil).Once()
	m.orders.On("ListOrdersByTable", mock.Anything, 5).Return([]domain.Order{}, nil).Once()
	m.cache.On("GetMenu", mock.Anything, 1).Return(menu, nil).Once()
	m.bills.On("GetBillByTable", mock.Anything, 5).Return(nil, domain.NewNotFoundError("no running bill for this table")).Once()

	req := httptest.NewRequest("GET", "/api/scan/5", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var boot domain.Bootstrap
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &boot))
	require.NotNil(t, boot.Table)
	assert.Equal(t, 5, boot.Table.ID)
	assert.Len(t, boot.Menu.Dishes, 1)
}

func TestUpdateOrderStatusHandlerInvalidTransition(t *testing.T) {
	r, m := newTestRouter()
	m.orders.On("GetOrder", mock.Anything, 7).Return(&domain.Order{ID: 7, Status: domain.OrderCompleted}, nil).Once()

	req := httptest.NewRequest("PATCH", "/api/orders/7/status", bytes.NewBufferString(`{"status":"pending"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
