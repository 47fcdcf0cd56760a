package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/backend/internal/domain"
)

type fakeSource struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	calls    int
}

func (f *fakeSource) ListProducts(context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]domain.Product(nil), f.products...), f.err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeObserver struct {
	counts map[domain.StockClass]int
}

func (f *fakeObserver) ObserveStock(counts map[domain.StockClass]int) {
	f.counts = counts
}

func TestScanReportsOnlyEscalations(t *testing.T) {
	source := &fakeSource{products: []domain.Product{
		{ID: "a", CurrentStock: 20, MinStock: 5, CriticalStock: 2},
		{ID: "b", CurrentStock: 4, MinStock: 5, CriticalStock: 2},
	}}
	observer := &fakeObserver{}
	n := NewNotifier(source, observer, time.Minute)

	first, err := n.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "b", first[0].Product.ID)
	assert.Equal(t, domain.StockLow, first[0].Class)
	assert.Equal(t, 1, observer.counts[domain.StockInStock])
	assert.Equal(t, 1, observer.counts[domain.StockLow])

	second, err := n.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)

	source.products[0].CurrentStock = 0
	source.products[1].CurrentStock = 10
	third, err := n.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.Equal(t, "a", third[0].Product.ID)
	assert.Equal(t, domain.StockOutOfStock, third[0].Class)
}

func TestScanPropagatesSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("boom")}
	n := NewNotifier(source, nil, time.Minute)

	_, err := n.Scan(context.Background())
	assert.Error(t, err)
}

func TestInitRunsScanAndStops(t *testing.T) {
	source := &fakeSource{}
	n := NewNotifier(source, nil, time.Hour)

	require.NoError(t, n.Init(time.UTC))
	assert.Eventually(t, func() bool { return source.callCount() >= 1 }, 2*time.Second, 10*time.Millisecond)
	n.Stop()
	n.Stop()
}

func TestInitRejectsNonPositiveInterval(t *testing.T) {
	n := NewNotifier(&fakeSource{}, nil, 0)
	assert.Error(t, n.Init(time.UTC))
}
