package httpapi

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/backend/internal/domain"
	"stockbook/backend/internal/metrics"
	"stockbook/backend/internal/service"
	"stockbook/backend/internal/store"
	"stockbook/backend/internal/store/memory"
)

const (
	testSecret   = "test-secret-key-with-32-characters!"
	testOwner    = "owner"
	testPassword = "owner-pass-123"
)

// newTestAPI builds the full request path over an in-memory store.
func newTestAPI(t *testing.T, repo store.Repository) *API {
	t.Helper()

	auth, err := NewAuthManager(testSecret, time.Hour, testOwner, testPassword)
	require.NoError(t, err)
	svc := service.New(repo, nil, service.Options{Location: time.UTC})
	return New(svc, auth, metrics.New(), "*")
}

func loginToken(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := doJSON(t, handler, "", http.MethodPost, "/api/v1/auth/login", domain.LoginRequest{Username: testOwner, Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp domain.LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func doJSON(t *testing.T, handler http.Handler, token string, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "127.0.0.1:5000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), rec.Body.String())
	return out
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t, memory.New()).Handler()

	rec := doJSON(t, handler, "", http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, true, body["ok"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	handler := newTestAPI(t, memory.New()).Handler()

	rec := doJSON(t, handler, "", http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, handler, "not-a-token", http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductSaleFlow(t *testing.T) {
	handler := newTestAPI(t, memory.New()).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/products", domain.ProductCreateRequest{
		Name:          "Notebook",
		Category:      "Stationery",
		CurrentStock:  10,
		BuyingPrice:   5,
		SellingPrice:  10,
		MinStock:      3,
		CriticalStock: 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[map[string]domain.Product](t, rec)["product"]
	require.NotEmpty(t, created.ID)

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/sales", domain.SaleRequest{ProductID: created.ID, Quantity: 4, SellingPrice: 10, CostPrice: 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sold := decodeBody[map[string]domain.Product](t, rec)["product"]
	assert.Equal(t, 6, sold.CurrentStock)
	assert.Equal(t, 4, sold.SoldUnits)
	assert.InDelta(t, 40, sold.Revenue, 1e-9)
	assert.InDelta(t, 20, sold.Profit, 1e-9)

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/sales", domain.SaleRequest{ProductID: created.ID, Quantity: 7, SellingPrice: 10, CostPrice: 5})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/products/"+created.ID+"/restock", domain.RestockRequest{Quantity: 4})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, decodeBody[map[string]domain.Product](t, rec)["product"].CurrentStock)

	rec = doJSON(t, handler, token, http.MethodGet, "/api/v1/analytics/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dashboard := decodeBody[domain.Dashboard](t, rec)
	assert.Equal(t, 1, dashboard.Summary.TotalProducts)
	assert.InDelta(t, 40, dashboard.Summary.TotalRevenue, 1e-9)
	assert.InDelta(t, 50, dashboard.Summary.AverageMargin, 1e-9)

	rec = doJSON(t, handler, token, http.MethodDelete, "/api/v1/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, handler, token, http.MethodGet, "/api/v1/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProductValidationErrors(t *testing.T) {
	handler := newTestAPI(t, memory.New()).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/products", domain.ProductCreateRequest{Category: "Misc", SellingPrice: -1})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "required", fields["ProductCreateRequest.Name"])
	assert.Equal(t, "gte", fields["ProductCreateRequest.SellingPrice"])

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"name":"x","unknown":1}`))
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestInvoiceFlowAndCustomerCSV(t *testing.T) {
	handler := newTestAPI(t, memory.NewSeeded()).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/invoices", domain.InvoiceCreateRequest{
		CustomerName:  "Citra",
		CustomerPhone: "0811000999",
		Items:         []domain.InvoiceLineRequest{{ProductID: "prod-rice-5kg", Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	invoice := decodeBody[map[string]domain.Invoice](t, rec)["invoice"]
	assert.InDelta(t, 18, invoice.Subtotal, 1e-9)
	assert.InDelta(t, 19.8, invoice.Total, 1e-9)

	rec = doJSON(t, handler, token, http.MethodGet, "/api/v1/invoices/"+invoice.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, token, http.MethodGet, "/api/v1/analytics/customers?sort=recent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	insights := decodeBody[map[string][]domain.CustomerInsight](t, rec)["customers"]
	require.NotEmpty(t, insights)
	assert.Equal(t, "0811000999", insights[0].Phone)
	assert.Equal(t, domain.FrequencyNew, insights[0].VisitFrequency)

	rec = doJSON(t, handler, token, http.MethodGet, "/api/v1/analytics/customers?q=citra&format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, customerCSVHeader, rows[0])
	assert.Equal(t, "0811000999", rows[1][0])
	assert.Equal(t, "19.80", rows[1][3])
	assert.Equal(t, "Rice 5kg x 2", rows[1][8])

	rec = doJSON(t, handler, token, http.MethodGet, "/api/v1/products/prod-rice-5kg/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeBody[domain.ProductHistory](t, rec)
	assert.NotEmpty(t, history.Transactions)
}

func TestInvoiceUnknownProductIsNotFound(t *testing.T) {
	handler := newTestAPI(t, memory.New()).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/invoices", domain.InvoiceCreateRequest{
		CustomerName: "Walk-in",
		Items:        []domain.InvoiceLineRequest{{ProductID: "ghost", Quantity: 1}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStockAlertsEndpoint(t *testing.T) {
	handler := newTestAPI(t, memory.NewSeeded()).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodGet, "/api/v1/analytics/stock-alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decodeBody[map[string][]domain.StockAlert](t, rec)["alerts"]
	require.NotEmpty(t, alerts)
	assert.Equal(t, domain.StockOutOfStock, alerts[0].Class)
}

func TestBackupExportImportAndReset(t *testing.T) {
	source := newTestAPI(t, memory.NewSeeded()).Handler()
	sourceToken := loginToken(t, source)

	rec := doJSON(t, source, sourceToken, http.MethodGet, "/api/v1/backup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	backup := decodeBody[domain.Backup](t, rec)
	require.NotEmpty(t, backup.Products)

	target := newTestAPI(t, memory.New()).Handler()
	targetToken := loginToken(t, target)
	rec = doJSON(t, target, targetToken, http.MethodPost, "/api/v1/backup", backup)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, target, targetToken, http.MethodGet, "/api/v1/products", nil)
	products := decodeBody[map[string][]domain.Product](t, rec)["products"]
	assert.Len(t, products, len(backup.Products))

	rec = doJSON(t, target, targetToken, http.MethodDelete, "/api/v1/data", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, target, targetToken, http.MethodGet, "/api/v1/invoices", nil)
	assert.Empty(t, decodeBody[map[string][]domain.Invoice](t, rec)["invoices"])
}

type unavailableRepo struct {
	store.Repository
}

func (unavailableRepo) ListProducts(context.Context) ([]domain.Product, error) {
	return nil, fmt.Errorf("%w: list products: dial tcp: connection refused", store.ErrStorageFailure)
}

func TestStorageFailureIsNotAnEmptyDashboard(t *testing.T) {
	handler := newTestAPI(t, unavailableRepo{}).Handler()
	token := loginToken(t, handler)

	rec := doJSON(t, handler, token, http.MethodGet, "/api/v1/analytics/dashboard", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "could not load data", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestAPI(t, memory.New()).Handler()
	doJSON(t, handler, "", http.MethodGet, "/healthz", nil)

	rec := doJSON(t, handler, "", http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="GET /healthz",status="200"} 1`)
}
