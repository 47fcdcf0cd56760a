package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/backend/internal/domain"
	"stockbook/backend/internal/store"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("STOCKBOOK_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set STOCKBOOK_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestMutateProductRollsBackOnInsufficientStock(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	id := fmt.Sprintf("prod-it-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_ = s.DeleteProduct(ctx, id)
	})

	require.NoError(t, s.SaveProduct(ctx, domain.Product{
		ID:           id,
		Name:         "Integration Widget",
		Category:     "Test",
		CurrentStock: 3,
		BuyingPrice:  2,
		SellingPrice: 5,
		CreatedAt:    time.Now().UTC(),
	}))

	_, err := s.MutateProduct(ctx, id, func(p *domain.Product) error {
		p.CurrentStock = -1
		return store.ErrInsufficientStock
	})
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	got, err := s.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentStock)

	updated, err := s.MutateProduct(ctx, id, func(p *domain.Product) error {
		p.CurrentStock -= 2
		p.SoldUnits += 2
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentStock)
	assert.Equal(t, 2, updated.SoldUnits)
}

func TestInvoicesListNewestFirst(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	older := domain.Invoice{ID: fmt.Sprintf("inv-it-a-%d", stamp), CustomerName: "A", CreatedAt: time.Now().Add(-time.Hour).UTC()}
	newer := domain.Invoice{ID: fmt.Sprintf("inv-it-b-%d", stamp), CustomerName: "B", CreatedAt: time.Now().UTC()}
	t.Cleanup(func() {
		_ = s.DeleteInvoice(ctx, older.ID)
		_ = s.DeleteInvoice(ctx, newer.ID)
	})
	require.NoError(t, s.SaveInvoice(ctx, older))
	require.NoError(t, s.SaveInvoice(ctx, newer))

	invoices, err := s.ListInvoices(ctx)
	require.NoError(t, err)

	positions := map[string]int{}
	for i, inv := range invoices {
		positions[inv.ID] = i
	}
	require.Contains(t, positions, older.ID)
	require.Contains(t, positions, newer.ID)
	assert.Less(t, positions[newer.ID], positions[older.ID])
}

func TestGetMissingProduct(t *testing.T) {
	s := newIntegrationStore(t)

	_, err := s.GetProduct(context.Background(), "prod-does-not-exist")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
