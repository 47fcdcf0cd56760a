package service

import (
	"context"

	"stockbook/backend/internal/domain"
)

func (s *Service) ExportBackup(ctx context.Context) (domain.Backup, error) {
	var (
		b   domain.Backup
		err error
	)
	if b.Products, err = s.repo.ListProducts(ctx); err != nil {
		return domain.Backup{}, err
	}
	if b.Invoices, err = s.repo.ListInvoices(ctx); err != nil {
		return domain.Backup{}, err
	}
	if b.Customers, err = s.repo.ListCustomers(ctx); err != nil {
		return domain.Backup{}, err
	}
	if b.Categories, err = s.repo.ListCategories(ctx); err != nil {
		return domain.Backup{}, err
	}
	return b, nil
}

// ImportBackup replaces every collection with the contents of b.
func (s *Service) ImportBackup(ctx context.Context, b domain.Backup) error {
	if err := s.ResetAll(ctx); err != nil {
		return err
	}
	for _, name := range b.Categories {
		if err := s.repo.SaveCategory(ctx, name); err != nil {
			return err
		}
	}
	for _, p := range b.Products {
		if err := s.repo.SaveProduct(ctx, p); err != nil {
			return err
		}
	}
	for _, c := range b.Customers {
		if err := s.repo.SaveCustomer(ctx, c); err != nil {
			return err
		}
	}
	for _, inv := range b.Invoices {
		if err := s.repo.SaveInvoice(ctx, inv); err != nil {
			return err
		}
	}
	s.invalidateDashboard(ctx)

	s.logger(ctx).Info().
		Int("products", len(b.Products)).
		Int("invoices", len(b.Invoices)).
		Int("customers", len(b.Customers)).
		Msg("backup imported")
	return nil
}

func (s *Service) ResetAll(ctx context.Context) error {
	clears := []func(context.Context) error{
		s.repo.ClearInvoices,
		s.repo.ClearProducts,
		s.repo.ClearCustomers,
		s.repo.ClearCategories,
	}
	for _, clearFn := range clears {
		if err := clearFn(ctx); err != nil {
			return err
		}
	}
	s.invalidateDashboard(ctx)
	s.logger(ctx).Warn().Msg("all collections cleared")
	return nil
}
