package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockbook/backend/internal/domain"
)

// Metrics owns a private registry so tests can build as many as they need.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	stockProducts   *prometheus.GaugeVec
	alertScans      prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		stockProducts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockbook_products_by_stock_class",
				Help: "Products per stock class at the last alert scan",
			},
			[]string{"class"},
		),
		alertScans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockbook_stock_alert_scans_total",
			Help: "Completed stock alert scans",
		}),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.stockProducts,
		m.alertScans,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStock replaces the per-class gauges with counts from one scan.
func (m *Metrics) ObserveStock(counts map[domain.StockClass]int) {
	for _, class := range []domain.StockClass{domain.StockOutOfStock, domain.StockCritical, domain.StockLow, domain.StockInStock} {
		m.stockProducts.WithLabelValues(string(class)).Set(float64(counts[class]))
	}
	m.alertScans.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware counts requests by route pattern. Unmatched requests share the
// "undefined" path label to keep cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "undefined"
		}
		m.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	})
}
