package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/backend/internal/domain"
	"stockbook/backend/internal/store"
)

func TestListInvoicesNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"inv-a", "inv-b", "inv-c"} {
		require.NoError(t, s.SaveInvoice(ctx, domain.Invoice{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	invoices, err := s.ListInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	assert.Equal(t, []string{"inv-c", "inv-b", "inv-a"}, []string{invoices[0].ID, invoices[1].ID, invoices[2].ID})
}

func TestCategoriesKeepInsertionOrderAndUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, name := range []string{"Snacks", "Drinks", "Snacks", "Household"} {
		require.NoError(t, s.SaveCategory(ctx, name))
	}
	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Snacks", "Drinks", "Household"}, categories)

	require.NoError(t, s.DeleteCategory(ctx, "Drinks"))
	categories, err = s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Snacks", "Household"}, categories)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	s := New()
	ctx := context.Background()

	assert.NoError(t, s.DeleteProduct(ctx, "missing"))
	assert.NoError(t, s.DeleteInvoice(ctx, "missing"))
	assert.NoError(t, s.DeleteCustomer(ctx, "missing"))
}

func TestEmptyStoreReturnsEmptyCollections(t *testing.T) {
	s := New()
	ctx := context.Background()

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NotNil(t, products)

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.NotNil(t, categories)
}

func TestMutateProductRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.SaveProduct(ctx, domain.Product{ID: "p1", CurrentStock: 3}))

	_, err := s.MutateProduct(ctx, "p1", func(p *domain.Product) error {
		p.CurrentStock = 0
		return store.ErrInsufficientStock
	})
	require.True(t, errors.Is(err, store.ErrInsufficientStock))

	p, err := s.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.CurrentStock)

	_, err = s.MutateProduct(ctx, "nope", func(p *domain.Product) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveProductUpsertKeepsOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.SaveProduct(ctx, domain.Product{ID: "a", Name: "A"}))
	require.NoError(t, s.SaveProduct(ctx, domain.Product{ID: "b", Name: "B"}))
	require.NoError(t, s.SaveProduct(ctx, domain.Product{ID: "a", Name: "A2"}))

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "A2", products[0].Name)
	assert.Equal(t, "B", products[1].Name)
}

func TestSeededCountersMatchInvoices(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	invoices, err := s.ListInvoices(ctx)
	require.NoError(t, err)

	sold := map[string]int{}
	for _, inv := range invoices {
		for _, item := range inv.Items {
			sold[item.ProductID] += item.Quantity
		}
	}
	for _, p := range products {
		assert.Equal(t, sold[p.ID], p.SoldUnits, p.ID)
	}
}
