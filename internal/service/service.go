// Package service orchestrates id allocation, stock movement, and record
// persistence into the operations the presentation layer calls.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"grocerymis/internal/domain"
	"grocerymis/internal/ledger"
	"grocerymis/internal/sequence"
	"grocerymis/internal/store"
)

type Service struct {
	store  store.Store
	seq    *sequence.Allocator
	ledger *ledger.Engine
	log    *zap.Logger
	now    func() time.Time
}

func New(st store.Store, seq *sequence.Allocator, eng *ledger.Engine, log *zap.Logger) *Service {
	return &Service{
		store:  st,
		seq:    seq,
		ledger: eng,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// NextID exposes the allocator for id previews. The returned value is
// committed: the counter moves even if the caller abandons the form.
func (s *Service) NextID(ctx context.Context, kind store.Kind) (int64, error) {
	return s.seq.NextID(ctx, kind)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return listAs[domain.Category](ctx, s.store, store.Categories)
}

func (s *Service) CreateCategory(ctx context.Context, draft domain.Category) (domain.Category, error) {
	if draft.CategoryID == "" {
		n, err := s.seq.NextID(ctx, store.Categories)
		if err != nil {
			return domain.Category{}, err
		}
		draft.CategoryID = strconv.FormatInt(n, 10)
	}
	draft.CreatedDate = s.now()
	return insertAs(ctx, s.store, store.Categories, draft)
}

func (s *Service) UpdateCategory(ctx context.Context, recordID string, draft domain.Category) (domain.Category, error) {
	existing, err := getAs[domain.Category](ctx, s.store, store.Categories, recordID)
	if err != nil {
		return domain.Category{}, err
	}
	if draft.CategoryID != "" {
		existing.CategoryID = draft.CategoryID
	}
	existing.CategoryName = draft.CategoryName
	existing.Description = draft.Description
	return updateAs(ctx, s.store, store.Categories, recordID, existing)
}

func (s *Service) DeleteCategory(ctx context.Context, recordID string) (bool, error) {
	return s.store.Delete(ctx, store.Categories, recordID)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return listAs[domain.Supplier](ctx, s.store, store.Suppliers)
}

func (s *Service) CreateSupplier(ctx context.Context, draft domain.Supplier) (domain.Supplier, error) {
	if draft.SupplierID == "" {
		n, err := s.seq.NextID(ctx, store.Suppliers)
		if err != nil {
			return domain.Supplier{}, err
		}
		draft.SupplierID = strconv.FormatInt(n, 10)
	}
	draft.CreatedDate = s.now()
	return insertAs(ctx, s.store, store.Suppliers, draft)
}

func (s *Service) UpdateSupplier(ctx context.Context, recordID string, draft domain.Supplier) (domain.Supplier, error) {
	existing, err := getAs[domain.Supplier](ctx, s.store, store.Suppliers, recordID)
	if err != nil {
		return domain.Supplier{}, err
	}
	if draft.SupplierID != "" {
		existing.SupplierID = draft.SupplierID
	}
	existing.SupplierName = draft.SupplierName
	existing.SupplierPhone = draft.SupplierPhone
	existing.SupplierEmail = draft.SupplierEmail
	existing.SupplierAddress = draft.SupplierAddress
	return updateAs(ctx, s.store, store.Suppliers, recordID, existing)
}

func (s *Service) DeleteSupplier(ctx context.Context, recordID string) (bool, error) {
	return s.store.Delete(ctx, store.Suppliers, recordID)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return listAs[domain.Customer](ctx, s.store, store.Customers)
}

func (s *Service) CreateCustomer(ctx context.Context, draft domain.Customer) (domain.Customer, error) {
	if draft.CustomerID == "" {
		n, err := s.seq.NextID(ctx, store.Customers)
		if err != nil {
			return domain.Customer{}, err
		}
		draft.CustomerID = strconv.FormatInt(n, 10)
	}
	draft.CreatedDate = s.now()
	return insertAs(ctx, s.store, store.Customers, draft)
}

func (s *Service) UpdateCustomer(ctx context.Context, recordID string, draft domain.Customer) (domain.Customer, error) {
	existing, err := getAs[domain.Customer](ctx, s.store, store.Customers, recordID)
	if err != nil {
		return domain.Customer{}, err
	}
	if draft.CustomerID != "" {
		existing.CustomerID = draft.CustomerID
	}
	existing.CustomerName = draft.CustomerName
	existing.CustomerPhone = draft.CustomerPhone
	existing.CustomerEmail = draft.CustomerEmail
	existing.CustomerAddress = draft.CustomerAddress
	return updateAs(ctx, s.store, store.Customers, recordID, existing)
}

func (s *Service) DeleteCustomer(ctx context.Context, recordID string) (bool, error) {
	return s.store.Delete(ctx, store.Customers, recordID)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return listAs[domain.Product](ctx, s.store, store.Products)
}

// SuggestProductID returns max existing numeric product id + 1 (minimum 1).
// Unlike the other kinds, products have no persistent counter; the
// suggestion is display-only and recomputed on demand, so a deleted product
// with the highest id frees its number again.
func (s *Service) SuggestProductID(ctx context.Context) (int64, error) {
	products, err := listAs[domain.Product](ctx, s.store, store.Products)
	if err != nil {
		return 0, err
	}
	var max int64
	for _, product := range products {
		n, err := strconv.ParseInt(product.ProductID, 10, 64)
		if err == nil && n > max {
			max = n
		}
	}
	if max == 0 {
		return 1, nil
	}
	return max + 1, nil
}

func (s *Service) CreateProduct(ctx context.Context, draft domain.Product) (domain.Product, error) {
	if draft.ProductID == "" {
		suggested, err := s.SuggestProductID(ctx)
		if err != nil {
			return domain.Product{}, err
		}
		draft.ProductID = strconv.FormatInt(suggested, 10)
	}
	draft.CreatedDate = s.now()
	return insertAs(ctx, s.store, store.Products, draft)
}

func (s *Service) UpdateProduct(ctx context.Context, recordID string, draft domain.Product) (domain.Product, error) {
	existing, err := getAs[domain.Product](ctx, s.store, store.Products, recordID)
	if err != nil {
		return domain.Product{}, err
	}
	if draft.ProductID != "" {
		existing.ProductID = draft.ProductID
	}
	existing.ProductName = draft.ProductName
	existing.CategoryID = draft.CategoryID
	existing.SupplierID = draft.SupplierID
	existing.SalesPrice = draft.SalesPrice
	existing.CurrentStock = draft.CurrentStock
	existing.IsActive = draft.IsActive
	return updateAs(ctx, s.store, store.Products, recordID, existing)
}

func (s *Service) DeleteProduct(ctx context.Context, recordID string) (bool, error) {
	return s.store.Delete(ctx, store.Products, recordID)
}

func listAs[T any](ctx context.Context, st store.Store, kind store.Kind) ([]T, error) {
	records, err := st.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, record := range records {
		var item T
		if err := json.Unmarshal(record, &item); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", kind, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func getAs[T any](ctx context.Context, st store.Store, kind store.Kind, recordID string) (T, error) {
	var item T
	record, err := st.Get(ctx, kind, recordID)
	if err != nil {
		return item, err
	}
	if err := json.Unmarshal(record, &item); err != nil {
		return item, fmt.Errorf("decode %s record: %w", kind, err)
	}
	return item, nil
}

func insertAs[T any](ctx context.Context, st store.Store, kind store.Kind, item T) (T, error) {
	var out T
	encoded, err := json.Marshal(item)
	if err != nil {
		return out, fmt.Errorf("encode %s record: %w", kind, err)
	}
	stored, err := st.Insert(ctx, kind, encoded)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(stored, &out); err != nil {
		return out, fmt.Errorf("decode stored %s record: %w", kind, err)
	}
	return out, nil
}

func updateAs[T any](ctx context.Context, st store.Store, kind store.Kind, recordID string, item T) (T, error) {
	var out T
	encoded, err := json.Marshal(item)
	if err != nil {
		return out, fmt.Errorf("encode %s record: %w", kind, err)
	}
	merged, err := st.Update(ctx, kind, recordID, encoded)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(merged, &out); err != nil {
		return out, fmt.Errorf("decode merged %s record: %w", kind, err)
	}
	return out, nil
}
