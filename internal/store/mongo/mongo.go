// Package mongostore keeps the collections in MongoDB, one collection per
// entity kind.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stockbook/backend/internal/domain"
	"stockbook/backend/internal/store"
)

// maxMutateAttempts bounds the compare-and-swap retries of MutateProduct.
const maxMutateAttempts = 5

var errConflict = errors.New("concurrent product update")

type categoryDoc struct {
	Name string `bson:"_id"`
	Seq  int64  `bson:"seq"`
}

type Store struct {
	client     *mongo.Client
	products   *mongo.Collection
	invoices   *mongo.Collection
	customers  *mongo.Collection
	categories *mongo.Collection
}

func New(ctx context.Context, uri string, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	db := client.Database(database)
	return &Store{
		client:     client,
		products:   db.Collection("products"),
		invoices:   db.Collection("invoices"),
		customers:  db.Collection("customers"),
		categories: db.Collection("categories"),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the sort indexes used by the list queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.invoices.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return storageErr("create invoice index", err)
	}
	_, err = s.categories.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "seq", Value: 1}},
	})
	if err != nil {
		return storageErr("create category index", err)
	}
	return nil
}

// Products and customers list in creation order.
var creationOrder = options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return findAll[domain.Product](ctx, s.products, "products", creationOrder)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return findByID[domain.Product](ctx, s.products, "product", id)
}

func (s *Store) SaveProduct(ctx context.Context, product domain.Product) error {
	if product.ID == "" {
		return store.ErrInvalidInput
	}
	return replaceByID(ctx, s.products, "product", product.ID, product)
}

// MutateProduct retries a compare-and-swap on currentStock and updatedAt so
// concurrent sales never both pass the stock check.
func (s *Store) MutateProduct(ctx context.Context, id string, fn store.ProductMutation) (*domain.Product, error) {
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		current, err := findByID[domain.Product](ctx, s.products, "product", id)
		if err != nil {
			return nil, err
		}
		filter := bson.M{"_id": id, "currentStock": current.CurrentStock, "updatedAt": current.UpdatedAt}

		next := *current
		if err := fn(&next); err != nil {
			return nil, err
		}
		next.ID = id

		res, err := s.products.ReplaceOne(ctx, filter, next)
		if err != nil {
			return nil, storageErr("mutate product", err)
		}
		if res.MatchedCount == 1 {
			return &next, nil
		}
	}
	return nil, storageErr("mutate product", fmt.Errorf("%w: %s", errConflict, id))
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return deleteByID(ctx, s.products, "product", id)
}

func (s *Store) ClearProducts(ctx context.Context) error {
	return clearAll(ctx, s.products, "products")
}

func (s *Store) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	return findAll[domain.Invoice](ctx, s.invoices, "invoices", opts)
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	return findByID[domain.Invoice](ctx, s.invoices, "invoice", id)
}

func (s *Store) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	if invoice.ID == "" {
		return store.ErrInvalidInput
	}
	return replaceByID(ctx, s.invoices, "invoice", invoice.ID, invoice)
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	return deleteByID(ctx, s.invoices, "invoice", id)
}

func (s *Store) ClearInvoices(ctx context.Context) error {
	return clearAll(ctx, s.invoices, "invoices")
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return findAll[domain.Customer](ctx, s.customers, "customers", creationOrder)
}

func (s *Store) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	if customer.ID == "" {
		return store.ErrInvalidInput
	}
	return replaceByID(ctx, s.customers, "customer", customer.ID, customer)
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return deleteByID(ctx, s.customers, "customer", id)
}

func (s *Store) ClearCustomers(ctx context.Context) error {
	return clearAll(ctx, s.customers, "customers")
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	docs, err := findAll[categoryDoc](ctx, s.categories, "categories", options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
	}
	return names, nil
}

// SaveCategory keeps the original position of a name that already exists.
func (s *Store) SaveCategory(ctx context.Context, name string) error {
	if name == "" {
		return store.ErrInvalidInput
	}
	_, err := s.categories.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$setOnInsert": bson.M{"seq": time.Now().UnixNano()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return storageErr("save category", err)
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, name string) error {
	return deleteByID(ctx, s.categories, "category", name)
}

func (s *Store) ClearCategories(ctx context.Context) error {
	return clearAll(ctx, s.categories, "categories")
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, what string, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storageErr("list "+what, err)
	}
	items := make([]T, 0, 32)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, storageErr("decode "+what, err)
	}
	return items, nil
}

func findByID[T any](ctx context.Context, coll *mongo.Collection, what string, id string) (*T, error) {
	var item T
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, storageErr("get "+what, err)
	}
	return &item, nil
}

func replaceByID(ctx context.Context, coll *mongo.Collection, what string, id string, doc any) error {
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return storageErr("save "+what, err)
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, what string, id string) error {
	if _, err := coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return storageErr("delete "+what, err)
	}
	return nil
}

func clearAll(ctx context.Context, coll *mongo.Collection, what string) error {
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		return storageErr("clear "+what, err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", store.ErrStorageFailure, op, err)
}
