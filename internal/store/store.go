package store

import (
	"context"
	"errors"

	"stockbook/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
	// ErrStorageFailure marks a real I/O failure of the backing store. An
	// empty or never-initialized collection is not a failure.
	ErrStorageFailure = errors.New("storage failure")
)

// ProductMutation edits a product in place. Returning an error aborts the
// write and leaves the stored product unchanged.
type ProductMutation func(p *domain.Product) error

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SaveProduct(ctx context.Context, product domain.Product) error
	// MutateProduct applies fn and writes the result back as one atomic update.
	MutateProduct(ctx context.Context, id string, fn ProductMutation) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ClearProducts(ctx context.Context) error

	// ListInvoices returns invoices ordered by CreatedAt, newest first.
	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error
	DeleteInvoice(ctx context.Context, id string) error
	ClearInvoices(ctx context.Context) error

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	SaveCustomer(ctx context.Context, customer domain.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
	ClearCustomers(ctx context.Context) error

	// ListCategories returns categories in insertion order.
	ListCategories(ctx context.Context) ([]string, error)
	SaveCategory(ctx context.Context, name string) error
	DeleteCategory(ctx context.Context, name string) error
	ClearCategories(ctx context.Context) error
}
