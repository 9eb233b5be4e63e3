// Package sequence allocates the human-facing numeric ids shown in the UI.
package sequence

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"grocerymis/internal/store"
)

// businessIDField maps each allocator kind to the record field holding its
// business id. Products are deliberately absent: they use the display-only
// suggestion in the service layer instead of a persistent counter.
var businessIDField = map[store.Kind]string{
	store.Categories: "category_id",
	store.Suppliers:  "supplier_id",
	store.Customers:  "customer_id",
	store.Invoices:   "invoice_id",
	store.Bills:      "bill_id",
}

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// Allocator hands out strictly increasing integers per kind. The counter is
// persisted, so ids survive restarts and are never reused after deletions.
type Allocator struct {
	store store.Store
}

func New(st store.Store) *Allocator {
	return &Allocator{store: st}
}

// NextID increments and returns the counter for kind. A zero counter is
// first seeded from the largest numeric id among existing records, so the
// allocator picks up where imported or pre-existing data left off. Calling
// it with a kind it does not serve is a programming error and panics.
func (a *Allocator) NextID(ctx context.Context, kind store.Kind) (int64, error) {
	field, ok := businessIDField[kind]
	if !ok {
		panic(fmt.Sprintf("sequence: invalid counter kind %q", kind))
	}
	current, err := a.store.Counter(ctx, string(kind))
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", kind, err)
	}
	if current == 0 {
		seed, err := a.seed(ctx, kind, field)
		if err != nil {
			return 0, err
		}
		if seed > 0 {
			current = seed
		}
	}
	next := current + 1
	if err := a.store.SetCounter(ctx, string(kind), next); err != nil {
		return 0, fmt.Errorf("store counter %s: %w", kind, err)
	}
	return next, nil
}

// seed scans existing records of kind for the maximum numeric value of their
// business id: the trailing digit run of the string form (so "INV123" seeds
// 123), falling back to parsing the whole value, skipping anything
// non-numeric.
func (a *Allocator) seed(ctx context.Context, kind store.Kind, field string) (int64, error) {
	records, err := a.store.List(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("scan %s for counter seed: %w", kind, err)
	}
	var max int64
	for _, record := range records {
		var fields map[string]any
		if err := json.Unmarshal(record, &fields); err != nil {
			return 0, fmt.Errorf("decode %s record: %w", kind, err)
		}
		value, ok := numericID(fields[field])
		if ok && value > max {
			max = value
		}
	}
	return max, nil
}

func numericID(raw any) (int64, bool) {
	var text string
	switch v := raw.(type) {
	case string:
		text = v
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return 0, false
	}
	if match := trailingDigits.FindString(text); match != "" {
		value, err := strconv.ParseInt(match, 10, 64)
		if err != nil {
			return 0, false
		}
		return value, true
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return int64(value), true
}
