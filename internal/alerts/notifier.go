// Package alerts periodically scans the catalog and reports products whose
// stock class got worse since the previous scan.
package alerts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stockbook/backend/internal/analytics"
	"stockbook/backend/internal/domain"
)

type ProductSource interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type StockObserver interface {
	ObserveStock(counts map[domain.StockClass]int)
}

// Notifier must be started with Init and released with Stop. It holds no
// package-level state.
type Notifier struct {
	source   ProductSource
	observer StockObserver
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	mu        sync.Mutex
	last      map[string]domain.StockClass
	scheduler *gocron.Scheduler
}

func NewNotifier(source ProductSource, observer StockObserver, interval time.Duration) *Notifier {
	return &Notifier{
		source:   source,
		observer: observer,
		interval: interval,
		timeout:  30 * time.Second,
		log:      log.With().Str("component", "stock-alerts").Logger(),
		last:     make(map[string]domain.StockClass),
	}
}

// Init schedules the periodic scan in loc. The first scan runs immediately.
func (n *Notifier) Init(loc *time.Location) error {
	if n.interval <= 0 {
		return errors.New("stock alert interval must be positive")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.scheduler != nil {
		return nil
	}

	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	_, err := s.Every(n.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if _, err := n.Scan(ctx); err != nil {
			n.log.Error().Err(err).Msg("stock alert scan failed")
		}
	})
	if err != nil {
		return err
	}
	s.StartAsync()
	n.scheduler = s

	n.log.Info().Dur("interval", n.interval).Msg("stock alert scheduler started")
	return nil
}

func (n *Notifier) Stop() {
	n.mu.Lock()
	s := n.scheduler
	n.scheduler = nil
	n.mu.Unlock()
	if s != nil {
		s.Stop()
		n.log.Info().Msg("stock alert scheduler stopped")
	}
}

// Scan classifies every product and returns the ones that escalated since
// the previous scan. A product seen for the first time escalates when it is
// not in stock.
func (n *Notifier) Scan(ctx context.Context) ([]domain.StockAlert, error) {
	products, err := n.source.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.StockClass]int, 4)
	current := make(map[string]domain.StockClass, len(products))
	escalated := make([]domain.StockAlert, 0)

	n.mu.Lock()
	for _, p := range products {
		class := analytics.ClassifyStock(p)
		counts[class]++
		current[p.ID] = class

		previous, seen := n.last[p.ID]
		if !seen {
			previous = domain.StockInStock
		}
		if analytics.Severity(class) > analytics.Severity(previous) {
			escalated = append(escalated, domain.StockAlert{Product: p, Class: class})
		}
	}
	n.last = current
	n.mu.Unlock()

	for _, a := range escalated {
		n.log.Warn().
			Str("product_id", a.Product.ID).
			Str("name", a.Product.Name).
			Str("class", string(a.Class)).
			Int("stock", a.Product.CurrentStock).
			Msg("stock level dropped")
	}
	if n.observer != nil {
		n.observer.ObserveStock(counts)
	}
	return escalated, nil
}
