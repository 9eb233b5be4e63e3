// Package store holds every persisted collection of the system: one ordered
// sequence of JSON records per entity kind, the allocator counters, and a
// small meta area for single values such as the session flag.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Kind string

const (
	Categories Kind = "categories"
	Suppliers  Kind = "suppliers"
	Customers  Kind = "customers"
	Products   Kind = "products"
	Invoices   Kind = "invoices"
	Bills      Kind = "bills"
)

// Kinds lists every entity kind in a stable order.
func Kinds() []Kind {
	return []Kind{Categories, Suppliers, Customers, Products, Invoices, Bills}
}

var ErrNotFound = errors.New("record not found")

// Store is the injected persistence abstraction. Records are opaque JSON
// objects carrying their record identity in the "id" field; kinds are stored
// as independent insertion-ordered sequences. Updates replace a record in
// place and do not change its position.
type Store interface {
	List(ctx context.Context, kind Kind) ([]json.RawMessage, error)
	Get(ctx context.Context, kind Kind, recordID string) (json.RawMessage, error)
	// Insert assigns a fresh record id when the record carries none, appends
	// the record, and returns it as stored.
	Insert(ctx context.Context, kind Kind, record json.RawMessage) (json.RawMessage, error)
	// Update shallow-merges the partial object into the record addressed by
	// recordID and returns the merged record.
	Update(ctx context.Context, kind Kind, recordID string, partial json.RawMessage) (json.RawMessage, error)
	// Delete reports whether a record was actually removed; deleting an
	// absent record is not an error.
	Delete(ctx context.Context, kind Kind, recordID string) (bool, error)

	Counter(ctx context.Context, name string) (int64, error)
	SetCounter(ctx context.Context, name string, value int64) error

	Meta(ctx context.Context, key string) (json.RawMessage, error)
	PutMeta(ctx context.Context, key string, value json.RawMessage) error
	DeleteMeta(ctx context.Context, key string) error
}

func newRecordID() string {
	return uuid.NewString()
}

func recordID(record json.RawMessage) (string, error) {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(record, &probe); err != nil {
		return "", fmt.Errorf("decode record id: %w", err)
	}
	return probe.ID, nil
}

// withRecordID returns the record with its "id" field set, assigning a fresh
// one when absent.
func withRecordID(record json.RawMessage) (json.RawMessage, string, error) {
	var fields map[string]any
	if err := json.Unmarshal(record, &fields); err != nil {
		return nil, "", fmt.Errorf("decode record: %w", err)
	}
	id, _ := fields["id"].(string)
	if id == "" {
		id = newRecordID()
		fields["id"] = id
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, "", fmt.Errorf("encode record: %w", err)
	}
	return encoded, id, nil
}

// mergeRecord overlays the fields of partial onto existing. The "id" field of
// the stored record always wins; record identity is immutable.
func mergeRecord(existing, partial json.RawMessage) (json.RawMessage, error) {
	var base map[string]any
	if err := json.Unmarshal(existing, &base); err != nil {
		return nil, fmt.Errorf("decode stored record: %w", err)
	}
	var overlay map[string]any
	if err := json.Unmarshal(partial, &overlay); err != nil {
		return nil, fmt.Errorf("decode partial record: %w", err)
	}
	id := base["id"]
	for key, value := range overlay {
		base[key] = value
	}
	base["id"] = id
	merged, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("encode merged record: %w", err)
	}
	return merged, nil
}
