package cache

import (
	"context"
	"time"

	"stockbook/backend/internal/domain"
)

// DashboardCache holds the last computed dashboard. Entries are dropped on
// every write, so a hit always equals a fresh recomputation.
type DashboardCache interface {
	Get(ctx context.Context) (*domain.Dashboard, bool, error)
	Set(ctx context.Context, value *domain.Dashboard, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopDashboardCache struct{}

func (NoopDashboardCache) Get(_ context.Context) (*domain.Dashboard, bool, error) {
	return nil, false, nil
}

func (NoopDashboardCache) Set(_ context.Context, _ *domain.Dashboard, _ time.Duration) error {
	return nil
}

func (NoopDashboardCache) Invalidate(_ context.Context) error {
	return nil
}
