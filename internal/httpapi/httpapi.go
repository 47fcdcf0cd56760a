package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stockbook/backend/internal/metrics"
	"stockbook/backend/internal/service"
	"stockbook/backend/internal/store"
)

const (
	maxJSONBody   = 1 << 20
	maxBackupBody = 32 << 20
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	metrics       *metrics.Metrics
	allowedOrigin string
	loginLimiter  *attemptLimiter
	log           zerolog.Logger
}

func New(svc *service.Service, auth *AuthManager, m *metrics.Metrics, allowedOrigin string) *API {
	return &API{
		service:       svc,
		auth:          auth,
		metrics:       m,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		log:           log.With().Str("component", "httpapi").Logger(),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

// Allow records an attempt for key and reports whether it fits the window.
func (l *attemptLimiter) Allow(key string) bool {
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[key][:0]
	for _, ts := range l.entries[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	l.entries[key] = append(kept, now)
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("POST /api/v1/auth/login", a.handleLogin)

	mux.HandleFunc("GET /api/v1/products", a.requireAuth(a.handleListProducts))
	mux.HandleFunc("POST /api/v1/products", a.requireAuth(a.handleCreateProduct))
	mux.HandleFunc("GET /api/v1/products/{id}", a.requireAuth(a.handleGetProduct))
	mux.HandleFunc("PATCH /api/v1/products/{id}", a.requireAuth(a.handleUpdateProduct))
	mux.HandleFunc("DELETE /api/v1/products/{id}", a.requireAuth(a.handleDeleteProduct))
	mux.HandleFunc("POST /api/v1/products/{id}/restock", a.requireAuth(a.handleRestockProduct))
	mux.HandleFunc("GET /api/v1/products/{id}/transactions", a.requireAuth(a.handleProductHistory))

	mux.HandleFunc("GET /api/v1/categories", a.requireAuth(a.handleListCategories))
	mux.HandleFunc("POST /api/v1/categories", a.requireAuth(a.handleAddCategory))
	mux.HandleFunc("DELETE /api/v1/categories/{name}", a.requireAuth(a.handleDeleteCategory))

	mux.HandleFunc("GET /api/v1/customers", a.requireAuth(a.handleListCustomers))
	mux.HandleFunc("POST /api/v1/customers", a.requireAuth(a.handleCreateCustomer))
	mux.HandleFunc("DELETE /api/v1/customers/{id}", a.requireAuth(a.handleDeleteCustomer))

	mux.HandleFunc("GET /api/v1/invoices", a.requireAuth(a.handleListInvoices))
	mux.HandleFunc("POST /api/v1/invoices", a.requireAuth(a.handleCreateInvoice))
	mux.HandleFunc("GET /api/v1/invoices/{id}", a.requireAuth(a.handleGetInvoice))
	mux.HandleFunc("DELETE /api/v1/invoices/{id}", a.requireAuth(a.handleDeleteInvoice))

	mux.HandleFunc("POST /api/v1/sales", a.requireAuth(a.handleRecordSale))

	mux.HandleFunc("GET /api/v1/analytics/dashboard", a.requireAuth(a.handleDashboard))
	mux.HandleFunc("GET /api/v1/analytics/customers", a.requireAuth(a.handleCustomerInsights))
	mux.HandleFunc("GET /api/v1/analytics/stock-alerts", a.requireAuth(a.handleStockAlerts))

	mux.HandleFunc("GET /api/v1/backup", a.requireAuth(a.handleExportBackup))
	mux.HandleFunc("POST /api/v1/backup", a.requireAuth(a.handleImportBackup))
	mux.HandleFunc("DELETE /api/v1/data", a.requireAuth(a.handleResetAll))

	var handler http.Handler = mux
	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics.Handler())
		handler = a.metrics.Middleware(mux)
	}
	return a.withMiddleware(handler)
}

func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPatch {
			limit := int64(maxJSONBody)
			if r.URL.Path == "/api/v1/backup" {
				limit = maxBackupBody
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		a.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(startedAt)).
			Msg("request")
	})
}

// writeServiceError maps store and validation errors to HTTP statuses.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, store.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, store.ErrStorageFailure):
		a.log.Error().Err(err).Msg("storage failure")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "could not load data"})
	default:
		a.log.Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
