package service

import (
	"context"
	"strings"

	"stockbook/backend/internal/domain"
	"stockbook/backend/internal/store"
	"stockbook/backend/internal/xid"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if err := s.check(req); err != nil {
		return domain.Product{}, err
	}

	now := s.now()
	product := domain.Product{
		ID:            xid.New("prod"),
		Name:          req.Name,
		Category:      req.Category,
		CurrentStock:  req.CurrentStock,
		BuyingPrice:   req.BuyingPrice,
		SellingPrice:  req.SellingPrice,
		MinStock:      req.MinStock,
		CriticalStock: req.CriticalStock,
		SKU:           strings.TrimSpace(req.SKU),
		Barcode:       strings.TrimSpace(req.Barcode),
		Description:   strings.TrimSpace(req.Description),
		Image:         req.Image,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}
	s.registerCategory(ctx, product.Category)
	s.invalidateDashboard(ctx)

	s.logger(ctx).Info().Str("product_id", product.ID).Str("name", product.Name).Int("stock", product.CurrentStock).Msg("product created")
	return product, nil
}

// UpdateProduct applies a partial update. Lifetime counters are never touched.
func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := s.check(req); err != nil {
		return domain.Product{}, err
	}

	updated, err := s.repo.MutateProduct(ctx, strings.TrimSpace(id), func(p *domain.Product) error {
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return store.ErrInvalidInput
			}
			p.Name = name
		}
		if req.Category != nil {
			category := strings.TrimSpace(*req.Category)
			if category == "" {
				return store.ErrInvalidInput
			}
			p.Category = category
		}
		if req.CurrentStock != nil {
			p.CurrentStock = *req.CurrentStock
		}
		if req.BuyingPrice != nil {
			p.BuyingPrice = *req.BuyingPrice
		}
		if req.SellingPrice != nil {
			p.SellingPrice = *req.SellingPrice
		}
		if req.MinStock != nil {
			p.MinStock = *req.MinStock
		}
		if req.CriticalStock != nil {
			p.CriticalStock = *req.CriticalStock
		}
		if req.SKU != nil {
			p.SKU = strings.TrimSpace(*req.SKU)
		}
		if req.Barcode != nil {
			p.Barcode = strings.TrimSpace(*req.Barcode)
		}
		if req.Description != nil {
			p.Description = strings.TrimSpace(*req.Description)
		}
		if req.Image != nil {
			p.Image = *req.Image
		}
		p.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	s.registerCategory(ctx, updated.Category)
	s.invalidateDashboard(ctx)

	s.logger(ctx).Info().Str("product_id", updated.ID).Msg("product updated")
	return *updated, nil
}

func (s *Service) RestockProduct(ctx context.Context, id string, req domain.RestockRequest) (domain.Product, error) {
	if err := s.check(req); err != nil {
		return domain.Product{}, err
	}

	updated, err := s.repo.MutateProduct(ctx, strings.TrimSpace(id), func(p *domain.Product) error {
		p.CurrentStock += req.Quantity
		p.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	s.invalidateDashboard(ctx)

	s.logger(ctx).Info().Str("product_id", updated.ID).Int("qty", req.Quantity).Int("stock", updated.CurrentStock).Msg("product restocked")
	return *updated, nil
}

// DeleteProduct removes the product only. Invoices keep their snapshots.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	s.logger(ctx).Info().Str("product_id", id).Msg("product deleted")
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) AddCategory(ctx context.Context, req domain.CategoryCreateRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.check(req); err != nil {
		return "", err
	}
	if err := s.repo.SaveCategory(ctx, req.Name); err != nil {
		return "", err
	}
	return req.Name, nil
}

func (s *Service) DeleteCategory(ctx context.Context, name string) error {
	return s.repo.DeleteCategory(ctx, strings.TrimSpace(name))
}

func (s *Service) registerCategory(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.repo.SaveCategory(ctx, name); err != nil {
		s.logger(ctx).Warn().Err(err).Str("category", name).Msg("failed to register category")
	}
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.check(req); err != nil {
		return domain.Customer{}, err
	}

	customer := domain.Customer{
		ID:        xid.New("cust"),
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedAt: s.now(),
	}
	if err := s.repo.SaveCustomer(ctx, customer); err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	return s.repo.DeleteCustomer(ctx, strings.TrimSpace(id))
}
