package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/backend/internal/domain"
)

func TestMiddlewareCountsByPattern(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := m.Middleware(mux)

	for _, path := range []string{"/items/1", "/items/2"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "GET /items/{id}", "418")))
}

func TestObserveStockAndHandler(t *testing.T) {
	m := New()
	m.ObserveStock(map[domain.StockClass]int{domain.StockLow: 3, domain.StockOutOfStock: 1})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.stockProducts.WithLabelValues("low")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.stockProducts.WithLabelValues("critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertScans))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "stockbook_products_by_stock_class"))
}
