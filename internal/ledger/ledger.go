// Package ledger keeps each product's current_stock consistent with the net
// effect of every committed invoice and bill line. It is the only place in
// the system allowed to write current_stock.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"grocerymis/internal/domain"
	"grocerymis/internal/store"
)

// Engine applies stock deltas for document lifecycle events. Stock is
// clamped at zero: a withdrawal larger than the available stock discards the
// negative remainder, so a create-then-delete cycle across a clamp does not
// restore the original value. That drift is inherited behavior and is kept.
type Engine struct {
	store store.Store
	log   *zap.Logger
}

func New(st store.Store, log *zap.Logger) *Engine {
	return &Engine{store: st, log: log}
}

// ApplyOnCreate moves stock for a newly committed document: sign*quantity
// per line, clamped at zero. Lines referencing a product that no longer
// exists are skipped with a warning; the document is still valid.
func (e *Engine) ApplyOnCreate(ctx context.Context, docType domain.DocumentType, items []domain.LineItem) error {
	deltas := map[string]int64{}
	for id, qty := range aggregateQuantities(items) {
		deltas[id] = docType.Sign() * qty
	}
	return e.applyDeltas(ctx, deltas)
}

// ApplyOnUpdate reconciles an edited document incrementally. It never
// re-applies the new totals outright: per product it takes the difference
// between the summed quantities of the new and old versions and moves stock
// by sign*difference, iterating the union of products from both versions. A
// product dropped from the document gets its quantity handed back; a product
// added gets charged in full.
func (e *Engine) ApplyOnUpdate(ctx context.Context, docType domain.DocumentType, oldItems, newItems []domain.LineItem) error {
	oldQty := aggregateQuantities(oldItems)
	newQty := aggregateQuantities(newItems)
	deltas := map[string]int64{}
	for _, id := range unionKeys(oldQty, newQty) {
		deltas[id] = docType.Sign() * (newQty[id] - oldQty[id])
	}
	return e.applyDeltas(ctx, deltas)
}

// ApplyOnDelete reverses the document's original effect, -sign*quantity per
// line, clamped at zero like every other movement.
func (e *Engine) ApplyOnDelete(ctx context.Context, docType domain.DocumentType, items []domain.LineItem) error {
	deltas := map[string]int64{}
	for id, qty := range aggregateQuantities(items) {
		deltas[id] = -docType.Sign() * qty
	}
	return e.applyDeltas(ctx, deltas)
}

// applyDeltas loads the product table once, adjusts each referenced
// product's stock by its delta, and writes the changed counters back.
func (e *Engine) applyDeltas(ctx context.Context, deltas map[string]int64) error {
	ids := make([]string, 0, len(deltas))
	for id, delta := range deltas {
		if delta != 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	index, err := e.loadProducts(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		product, ok := index[id]
		if !ok {
			e.log.Warn("line item references missing product; stock not adjusted",
				zap.String("product_id", id))
			continue
		}
		next := product.CurrentStock + deltas[id]
		if next < 0 {
			next = 0
		}
		partial, err := json.Marshal(map[string]int64{"current_stock": next})
		if err != nil {
			return fmt.Errorf("encode stock update for %s: %w", id, err)
		}
		if _, err := e.store.Update(ctx, store.Products, product.ID, partial); err != nil {
			return fmt.Errorf("write stock for product %s: %w", id, err)
		}
	}
	return nil
}

func (e *Engine) loadProducts(ctx context.Context) (map[string]domain.Product, error) {
	records, err := e.store.List(ctx, store.Products)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	index := make(map[string]domain.Product, len(records))
	for _, record := range records {
		var product domain.Product
		if err := json.Unmarshal(record, &product); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		index[product.ProductID] = product
	}
	return index, nil
}

// aggregateQuantities sums line quantities per referenced product. A
// document may name the same product on several lines; movements are applied
// against the per-product total.
func aggregateQuantities(items []domain.LineItem) map[string]int64 {
	totals := map[string]int64{}
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		totals[item.ProductID] += item.Quantity
	}
	return totals
}

func unionKeys(a, b map[string]int64) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for key := range a {
		set[key] = struct{}{}
	}
	for key := range b {
		set[key] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
