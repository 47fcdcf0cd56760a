package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockbook/backend/internal/domain"
	"stockbook/backend/internal/store"
	"stockbook/backend/internal/xid"
)

// applySale updates the running counters of p for a sale of qty units.
// p is left untouched when the stock does not cover qty.
func applySale(p *domain.Product, qty int, sellingPrice float64, costPrice float64) error {
	if p.CurrentStock < qty {
		return fmt.Errorf("%w: %s has %d, requested %d", store.ErrInsufficientStock, p.Name, p.CurrentStock, qty)
	}
	p.CurrentStock -= qty
	p.SoldUnits += qty
	p.Revenue += sellingPrice * float64(qty)
	p.Profit += (sellingPrice - costPrice) * float64(qty)
	return nil
}

// RecordSale decrements stock and accumulates the lifetime counters of one
// product in a single store write. It does not create an invoice.
func (s *Service) RecordSale(ctx context.Context, req domain.SaleRequest) (domain.Product, error) {
	req.ProductID = strings.TrimSpace(req.ProductID)
	if err := s.check(req); err != nil {
		return domain.Product{}, err
	}

	updated, err := s.recordSale(ctx, req)
	if err != nil {
		return domain.Product{}, err
	}
	s.invalidateDashboard(ctx)
	return *updated, nil
}

func (s *Service) recordSale(ctx context.Context, req domain.SaleRequest) (*domain.Product, error) {
	return s.repo.MutateProduct(ctx, req.ProductID, func(p *domain.Product) error {
		if err := applySale(p, req.Quantity, req.SellingPrice, req.CostPrice); err != nil {
			return err
		}
		p.UpdatedAt = s.now()
		return nil
	})
}

// CreateInvoice validates every line against current stock, records one sale
// per line, then stores the invoice with snapshot prices and totals.
func (s *Service) CreateInvoice(ctx context.Context, req domain.InvoiceCreateRequest) (domain.Invoice, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	for i := range req.Items {
		req.Items[i].ProductID = strings.TrimSpace(req.Items[i].ProductID)
	}
	if err := s.check(req); err != nil {
		return domain.Invoice{}, err
	}

	requested := make(map[string]int, len(req.Items))
	products := make(map[string]domain.Product, len(req.Items))
	for _, line := range req.Items {
		requested[line.ProductID] += line.Quantity
		if _, loaded := products[line.ProductID]; loaded {
			continue
		}
		p, err := s.repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Invoice{}, fmt.Errorf("product %s: %w", line.ProductID, err)
			}
			return domain.Invoice{}, err
		}
		products[line.ProductID] = *p
	}
	for id, qty := range requested {
		p := products[id]
		if p.CurrentStock < qty {
			return domain.Invoice{}, fmt.Errorf("%w: %s has %d, requested %d", store.ErrInsufficientStock, p.Name, p.CurrentStock, qty)
		}
	}

	items := make([]domain.InvoiceItem, 0, len(req.Items))
	for _, line := range req.Items {
		p := products[line.ProductID]
		price := p.SellingPrice
		if line.Price != nil {
			price = *line.Price
		}
		items = append(items, domain.InvoiceItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			Price:       price,
			CostPrice:   p.BuyingPrice,
			Total:       price * float64(line.Quantity),
		})
	}

	for i, item := range items {
		_, err := s.recordSale(ctx, domain.SaleRequest{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			SellingPrice: item.Price,
			CostPrice:    item.CostPrice,
		})
		if err != nil {
			s.logger(ctx).Error().Err(err).Int("recorded_lines", i).Str("product_id", item.ProductID).Msg("invoice sale recording interrupted")
			s.invalidateDashboard(ctx)
			return domain.Invoice{}, err
		}
	}

	now := s.now()
	invoice := domain.Invoice{
		ID:            xid.New("inv"),
		InvoiceNumber: fmt.Sprintf("INV-%d", now.UnixMilli()),
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Items:         items,
		CreatedAt:     now,
	}
	invoice.Subtotal, invoice.Tax, invoice.Total, invoice.Profit = InvoiceTotals(items, s.taxRate)

	if err := s.repo.SaveInvoice(ctx, invoice); err != nil {
		s.invalidateDashboard(ctx)
		return domain.Invoice{}, err
	}
	s.ensureCustomer(ctx, invoice.CustomerName, invoice.CustomerPhone)
	s.invalidateDashboard(ctx)

	s.logger(ctx).Info().
		Str("invoice", invoice.InvoiceNumber).
		Int("lines", len(items)).
		Float64("total", invoice.Total).
		Msg("invoice created")
	return invoice, nil
}

// InvoiceTotals computes subtotal, tax, total and profit for a set of lines.
// Tax is excluded from profit.
func InvoiceTotals(items []domain.InvoiceItem, taxRate float64) (subtotal float64, tax float64, total float64, profit float64) {
	for _, item := range items {
		subtotal += item.Total
		profit += item.LineProfit()
	}
	tax = subtotal * taxRate
	total = subtotal + tax
	return subtotal, tax, total, profit
}

// ensureCustomer creates a customer record for a phone seen for the first time.
func (s *Service) ensureCustomer(ctx context.Context, name string, phone string) {
	if phone == "" {
		return
	}
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		s.logger(ctx).Warn().Err(err).Msg("failed to load customers for invoice")
		return
	}
	for _, c := range customers {
		if c.Phone == phone {
			return
		}
	}
	err = s.repo.SaveCustomer(ctx, domain.Customer{
		ID:        xid.New("cust"),
		Name:      name,
		Phone:     phone,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.logger(ctx).Warn().Err(err).Str("phone", phone).Msg("failed to save customer for invoice")
	}
}

func (s *Service) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	return s.repo.ListInvoices(ctx)
}

func (s *Service) GetInvoice(ctx context.Context, id string) (domain.Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Invoice{}, err
	}
	return *inv, nil
}

// DeleteInvoice removes the record only; stock and lifetime counters stay.
func (s *Service) DeleteInvoice(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}
	if err := s.repo.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	s.logger(ctx).Info().Str("invoice_id", id).Msg("invoice deleted")
	return nil
}
