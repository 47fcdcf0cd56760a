package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stockbook/backend/internal/cache"
	"stockbook/backend/internal/domain"
	"stockbook/backend/internal/store"
)

// DefaultTaxRate is applied to invoice subtotals when no rate is configured.
const DefaultTaxRate = 0.10

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// ValidationError reports the request fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, field+"="+e.Fields[field])
	}
	return fmt.Sprintf("invalid input: %s", strings.Join(parts, ","))
}

func (e *ValidationError) Unwrap() error {
	return store.ErrInvalidInput
}

type Options struct {
	TaxRate      float64
	DashboardTTL time.Duration
	Location     *time.Location
	Now          func() time.Time
}

type Service struct {
	repo         store.Repository
	dashboards   cache.DashboardCache
	dashboardTTL time.Duration
	taxRate      float64
	location     *time.Location
	now          func() time.Time
	validate     *validator.Validate
	log          zerolog.Logger
}

func New(repo store.Repository, dashboards cache.DashboardCache, opts Options) *Service {
	if dashboards == nil {
		dashboards = cache.NoopDashboardCache{}
	}
	if opts.TaxRate <= 0 {
		opts.TaxRate = DefaultTaxRate
	}
	if opts.DashboardTTL <= 0 {
		opts.DashboardTTL = 30 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:         repo,
		dashboards:   dashboards,
		dashboardTTL: opts.DashboardTTL,
		taxRate:      opts.TaxRate,
		location:     opts.Location,
		now:          opts.Now,
		validate:     validator.New(),
		log:          log.With().Str("component", "service").Logger(),
	}
}

func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Namespace()] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	l := s.log
	if actor, ok := ActorFromContext(ctx); ok {
		l = l.With().Str("actor", actor.Username).Logger()
	}
	return &l
}

// invalidateDashboard drops the cached dashboard after a write. A failure is
// logged; the stale entry still expires with its TTL.
func (s *Service) invalidateDashboard(ctx context.Context) {
	if err := s.dashboards.Invalidate(ctx); err != nil {
		s.logger(ctx).Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}
