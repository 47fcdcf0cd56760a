package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"stockbook/backend/internal/domain"
	"stockbook/backend/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	products     map[string]domain.Product
	productOrder []string
	invoices     map[string]domain.Invoice
	customers    map[string]domain.Customer
	customerIDs  []string
	categories   []string
}

func New() *Store {
	return &Store{
		products:  make(map[string]domain.Product),
		invoices:  make(map[string]domain.Invoice),
		customers: make(map[string]domain.Customer),
	}
}

// NewSeeded returns a store preloaded with a small demo catalog, customers and
// invoices for dev/demo mode. Lifetime counters on the seeded products match
// the seeded invoices.
func NewSeeded() *Store {
	s := New()
	now := time.Now()
	day := 24 * time.Hour

	products := []domain.Product{
		{ID: "prod-rice-5kg", Name: "Rice 5kg", Category: "Groceries", CurrentStock: 38, BuyingPrice: 6.5, SellingPrice: 9, MinStock: 10, CriticalStock: 4, SKU: "GR-RICE-05"},
		{ID: "prod-cooking-oil", Name: "Cooking Oil 1L", Category: "Groceries", CurrentStock: 7, BuyingPrice: 2.1, SellingPrice: 3.2, MinStock: 8, CriticalStock: 3, SKU: "GR-OIL-01"},
		{ID: "prod-coffee", Name: "Ground Coffee 250g", Category: "Beverages", CurrentStock: 2, BuyingPrice: 3.8, SellingPrice: 6.5, MinStock: 6, CriticalStock: 2, SKU: "BV-COF-250"},
		{ID: "prod-tea", Name: "Black Tea 50 bags", Category: "Beverages", CurrentStock: 24, BuyingPrice: 1.4, SellingPrice: 2.5, MinStock: 6, CriticalStock: 2, SKU: "BV-TEA-50"},
		{ID: "prod-soap", Name: "Bar Soap", Category: "Household", CurrentStock: 0, BuyingPrice: 0.6, SellingPrice: 1.2, MinStock: 12, CriticalStock: 5, SKU: "HH-SOAP-01"},
	}
	for i, p := range products {
		created := now.Add(-time.Duration(35-i*7) * day)
		p.CreatedAt = created
		p.UpdatedAt = created
		s.products[p.ID] = p
		s.productOrder = append(s.productOrder, p.ID)
		if !slices.Contains(s.categories, p.Category) {
			s.categories = append(s.categories, p.Category)
		}
	}

	customers := []domain.Customer{
		{ID: "cust-amina", Name: "Amina Yusuf", Phone: "0811000111", CreatedAt: now.Add(-30 * day)},
		{ID: "cust-budi", Name: "Budi Santoso", Phone: "0811000222", CreatedAt: now.Add(-12 * day)},
	}
	for _, c := range customers {
		s.customers[c.ID] = c
		s.customerIDs = append(s.customerIDs, c.ID)
	}

	seedSale := func(id string, number string, customer domain.Customer, at time.Time, lines ...domain.InvoiceItem) {
		inv := domain.Invoice{
			ID:            id,
			InvoiceNumber: number,
			CustomerName:  customer.Name,
			CustomerPhone: customer.Phone,
			CreatedAt:     at,
		}
		for _, line := range lines {
			p := s.products[line.ProductID]
			line.ProductName = p.Name
			line.CostPrice = p.BuyingPrice
			line.Price = p.SellingPrice
			line.Total = line.Price * float64(line.Quantity)
			inv.Items = append(inv.Items, line)
			inv.Subtotal += line.Total
			inv.Profit += line.LineProfit()

			p.SoldUnits += line.Quantity
			p.Revenue += line.Total
			p.Profit += line.LineProfit()
			s.products[p.ID] = p
		}
		inv.Tax = inv.Subtotal * 0.10
		inv.Total = inv.Subtotal + inv.Tax
		s.invoices[inv.ID] = inv
	}
	seedSale("inv-seed-1", "INV-SEED-1", customers[0], now.Add(-20*day),
		domain.InvoiceItem{ProductID: "prod-rice-5kg", Quantity: 2},
		domain.InvoiceItem{ProductID: "prod-cooking-oil", Quantity: 3})
	seedSale("inv-seed-2", "INV-SEED-2", customers[0], now.Add(-6*day),
		domain.InvoiceItem{ProductID: "prod-coffee", Quantity: 1},
		domain.InvoiceItem{ProductID: "prod-rice-5kg", Quantity: 1})
	seedSale("inv-seed-3", "INV-SEED-3", customers[1], now.Add(-2*day),
		domain.InvoiceItem{ProductID: "prod-tea", Quantity: 4},
		domain.InvoiceItem{ProductID: "prod-soap", Quantity: 6})

	log.Info().Str("component", "memory-store").Int("products", len(products)).Msg("seeded demo data")
	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		products = append(products, s.products[id])
	}
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) SaveProduct(_ context.Context, product domain.Product) error {
	if strings.TrimSpace(product.ID) == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		s.productOrder = append(s.productOrder, product.ID)
	}
	s.products[product.ID] = product
	return nil
}

func (s *Store) MutateProduct(_ context.Context, id string, fn store.ProductMutation) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	next := current
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	s.products[id] = next
	return &next, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return nil
	}
	delete(s.products, id)
	s.productOrder = slices.DeleteFunc(s.productOrder, func(v string) bool { return v == id })
	return nil
}

func (s *Store) ClearProducts(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = make(map[string]domain.Product)
	s.productOrder = nil
	return nil
}

func (s *Store) ListInvoices(_ context.Context) ([]domain.Invoice, error) {
	s.mu.RLock()
	invoices := make([]domain.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		invoices = append(invoices, cloneInvoice(inv))
	}
	s.mu.RUnlock()

	slices.SortStableFunc(invoices, func(a, b domain.Invoice) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return invoices, nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cloned := cloneInvoice(inv)
	return &cloned, nil
}

func (s *Store) SaveInvoice(_ context.Context, invoice domain.Invoice) error {
	if strings.TrimSpace(invoice.ID) == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (s *Store) DeleteInvoice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.invoices, id)
	return nil
}

func (s *Store) ClearInvoices(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invoices = make(map[string]domain.Invoice)
	return nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customerIDs))
	for _, id := range s.customerIDs {
		customers = append(customers, s.customers[id])
	}
	return customers, nil
}

func (s *Store) SaveCustomer(_ context.Context, customer domain.Customer) error {
	if strings.TrimSpace(customer.ID) == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[customer.ID]; !exists {
		s.customerIDs = append(s.customerIDs, customer.ID)
	}
	s.customers[customer.ID] = customer
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return nil
	}
	delete(s.customers, id)
	s.customerIDs = slices.DeleteFunc(s.customerIDs, func(v string) bool { return v == id })
	return nil
}

func (s *Store) ClearCustomers(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customers = make(map[string]domain.Customer)
	s.customerIDs = nil
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(make([]string, 0, len(s.categories)), s.categories...), nil
}

func (s *Store) SaveCategory(_ context.Context, name string) error {
	if name == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.categories, name) {
		s.categories = append(s.categories, name)
	}
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories = slices.DeleteFunc(s.categories, func(v string) bool { return v == name })
	return nil
}

func (s *Store) ClearCategories(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories = nil
	return nil
}

func cloneInvoice(src domain.Invoice) domain.Invoice {
	dst := src
	dst.Items = slices.Clone(src.Items)
	return dst
}
