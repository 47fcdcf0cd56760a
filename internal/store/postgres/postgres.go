package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"stockbook/backend/internal/domain"
	"stockbook/backend/internal/store"
)

const (
	kindProduct  = "product"
	kindInvoice  = "invoice"
	kindCustomer = "customer"
	kindCategory = "category"
)

const schema = `
CREATE TABLE IF NOT EXISTS stockbook_entities (
	kind       TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	seq        BIGSERIAL,
	payload    JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, id)
);
CREATE INDEX IF NOT EXISTS stockbook_entities_kind_created_idx
	ON stockbook_entities (kind, created_at DESC);
`

// Store keeps each collection as JSONB documents in one keyed table. seq
// records first insertion and survives upserts, which gives list order.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the entity table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return storageErr("migrate", err)
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return listKind[domain.Product](ctx, s.db, kindProduct, "seq ASC")
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return getKind[domain.Product](ctx, s.db, kindProduct, id, "")
}

func (s *Store) SaveProduct(ctx context.Context, product domain.Product) error {
	if product.ID == "" {
		return store.ErrInvalidInput
	}
	return upsert(ctx, s.db, kindProduct, product.ID, product.CreatedAt, product)
}

func (s *Store) MutateProduct(ctx context.Context, id string, fn store.ProductMutation) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, storageErr("begin product mutation", err)
	}
	defer func() { _ = tx.Rollback() }()

	product, err := getKind[domain.Product](ctx, tx, kindProduct, id, "FOR UPDATE")
	if err != nil {
		return nil, err
	}
	if err := fn(product); err != nil {
		return nil, err
	}
	product.ID = id

	if err := upsert(ctx, tx, kindProduct, id, product.CreatedAt, product); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit product mutation", err)
	}
	return product, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return deleteKind(ctx, s.db, kindProduct, id)
}

func (s *Store) ClearProducts(ctx context.Context) error {
	return clearKind(ctx, s.db, kindProduct)
}

func (s *Store) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	return listKind[domain.Invoice](ctx, s.db, kindInvoice, "created_at DESC, id ASC")
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	return getKind[domain.Invoice](ctx, s.db, kindInvoice, id, "")
}

func (s *Store) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	if invoice.ID == "" {
		return store.ErrInvalidInput
	}
	return upsert(ctx, s.db, kindInvoice, invoice.ID, invoice.CreatedAt, invoice)
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	return deleteKind(ctx, s.db, kindInvoice, id)
}

func (s *Store) ClearInvoices(ctx context.Context) error {
	return clearKind(ctx, s.db, kindInvoice)
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return listKind[domain.Customer](ctx, s.db, kindCustomer, "seq ASC")
}

func (s *Store) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	if customer.ID == "" {
		return store.ErrInvalidInput
	}
	return upsert(ctx, s.db, kindCustomer, customer.ID, customer.CreatedAt, customer)
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return deleteKind(ctx, s.db, kindCustomer, id)
}

func (s *Store) ClearCustomers(ctx context.Context) error {
	return clearKind(ctx, s.db, kindCustomer)
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	return listKind[string](ctx, s.db, kindCategory, "seq ASC")
}

// SaveCategory is a no-op for a name that already exists.
func (s *Store) SaveCategory(ctx context.Context, name string) error {
	if name == "" {
		return store.ErrInvalidInput
	}
	payload, err := json.Marshal(name)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stockbook_entities (kind, id, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, id) DO NOTHING
	`, kindCategory, name, payload)
	if err != nil {
		return storageErr("save category", err)
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, name string) error {
	return deleteKind(ctx, s.db, kindCategory, name)
}

func (s *Store) ClearCategories(ctx context.Context) error {
	return clearKind(ctx, s.db, kindCategory)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func listKind[T any](ctx context.Context, q querier, kind string, orderBy string) ([]T, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT payload FROM stockbook_entities
		WHERE kind = $1
		ORDER BY `+orderBy, kind)
	if err != nil {
		return nil, storageErr("list "+kind, err)
	}
	defer rows.Close()

	items := make([]T, 0, 32)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, storageErr("scan "+kind, err)
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, storageErr("decode "+kind, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list "+kind, err)
	}
	return items, nil
}

func getKind[T any](ctx context.Context, q querier, kind string, id string, lock string) (*T, error) {
	var raw []byte
	err := q.QueryRowContext(ctx, `
		SELECT payload FROM stockbook_entities
		WHERE kind = $1 AND id = $2 `+lock, kind, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, storageErr("get "+kind, err)
	}
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, storageErr("decode "+kind, err)
	}
	return &item, nil
}

func upsert(ctx context.Context, q querier, kind string, id string, createdAt time.Time, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO stockbook_entities (kind, id, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (kind, id)
		DO UPDATE SET payload = EXCLUDED.payload, created_at = EXCLUDED.created_at, updated_at = now()
	`, kind, id, payload, createdAt)
	if err != nil {
		return storageErr("save "+kind, err)
	}
	return nil
}

func deleteKind(ctx context.Context, q querier, kind string, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM stockbook_entities WHERE kind = $1 AND id = $2`, kind, id); err != nil {
		return storageErr("delete "+kind, err)
	}
	return nil
}

func clearKind(ctx context.Context, q querier, kind string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM stockbook_entities WHERE kind = $1`, kind); err != nil {
		return storageErr("clear "+kind, err)
	}
	return nil
}

// storageErr tags err as a storage failure, keeping the SQLSTATE when the
// server reported one.
func storageErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s: sqlstate %s: %w", store.ErrStorageFailure, op, pgErr.Code, err)
	}
	return fmt.Errorf("%w: %s: %w", store.ErrStorageFailure, op, err)
}
