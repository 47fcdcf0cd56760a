package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"stockbook/backend/internal/analytics"
	"stockbook/backend/internal/domain"
	"stockbook/backend/internal/store"
)

// Dashboard returns the inventory summary and weekly trend. A store failure is
// returned as an error, never as a zeroed dashboard.
func (s *Service) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	cached, ok, err := s.dashboards.Get(ctx)
	if err != nil {
		s.logger(ctx).Warn().Err(err).Msg("dashboard cache read failed, recomputing")
	} else if ok {
		return *cached, nil
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}

	dashboard := domain.Dashboard{
		Summary:     analytics.SummarizeInventory(products),
		Trend:       analytics.WeeklyTrend(products, s.location),
		GeneratedAt: s.now().UTC(),
	}
	if err := s.dashboards.Set(ctx, &dashboard, s.dashboardTTL); err != nil {
		s.logger(ctx).Warn().Err(err).Msg("dashboard cache write failed")
	}
	return dashboard, nil
}

func (s *Service) CustomerInsights(ctx context.Context, sortBy domain.CustomerSort, query string) ([]domain.CustomerInsight, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}

	list := analytics.BuildCustomerAnalytics(customers, invoices)
	list = analytics.FilterCustomers(list, query)
	analytics.SortCustomers(list, sortBy)

	now := s.now()
	insights := make([]domain.CustomerInsight, 0, len(list))
	for _, c := range list {
		insights = append(insights, domain.CustomerInsight{
			CustomerAnalytics: c,
			VisitFrequency:    analytics.VisitFrequency(c, now),
		})
	}
	return insights, nil
}

// ProductHistory returns the transaction ledger of a product. A deleted
// product still has a history as long as invoices reference it.
func (s *Service) ProductHistory(ctx context.Context, productID string) (domain.ProductHistory, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.ProductHistory{}, store.ErrInvalidInput
	}

	var history domain.ProductHistory
	p, err := s.repo.GetProduct(ctx, productID)
	switch {
	case err == nil:
		history.Product = p
	case !errors.Is(err, store.ErrNotFound):
		return domain.ProductHistory{}, err
	}

	invoices, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return domain.ProductHistory{}, err
	}
	history.Transactions, history.Totals = analytics.ProductTransactions(productID, invoices)
	if history.Product == nil && history.Totals.TransactionCount == 0 {
		return domain.ProductHistory{}, store.ErrNotFound
	}
	return history, nil
}

// StockAlerts lists every product that is not in stock, most severe first.
func (s *Service) StockAlerts(ctx context.Context) ([]domain.StockAlert, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return StockAlertsFor(products), nil
}

func StockAlertsFor(products []domain.Product) []domain.StockAlert {
	alerts := make([]domain.StockAlert, 0)
	for _, p := range products {
		class := analytics.ClassifyStock(p)
		if class == domain.StockInStock {
			continue
		}
		alerts = append(alerts, domain.StockAlert{Product: p, Class: class})
	}
	slices.SortStableFunc(alerts, func(a, b domain.StockAlert) int {
		return analytics.Severity(b.Class) - analytics.Severity(a.Class)
	})
	return alerts
}
