package store

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-memory Store with the same semantics as Bolt. It backs
// tests; nothing survives the process.
type Memory struct {
	mu       sync.Mutex
	records  map[Kind][]json.RawMessage
	counters map[string]int64
	meta     map[string]json.RawMessage
}

func NewMemory() *Memory {
	records := make(map[Kind][]json.RawMessage, len(Kinds()))
	for _, kind := range Kinds() {
		records[kind] = []json.RawMessage{}
	}
	return &Memory{
		records:  records,
		counters: map[string]int64{},
		meta:     map[string]json.RawMessage{},
	}
}

func (m *Memory) List(_ context.Context, kind Kind) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]json.RawMessage, len(m.records[kind]))
	for i, record := range m.records[kind] {
		out[i] = bytes.Clone(record)
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, kind Kind, id string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, err := m.find(kind, id)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, ErrNotFound
	}
	return bytes.Clone(m.records[kind][idx]), nil
}

func (m *Memory) Insert(_ context.Context, kind Kind, record json.RawMessage) (json.RawMessage, error) {
	stored, _, err := withRecordID(record)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[kind] = append(m.records[kind], stored)
	return bytes.Clone(stored), nil
}

func (m *Memory) Update(_ context.Context, kind Kind, id string, partial json.RawMessage) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, err := m.find(kind, id)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, ErrNotFound
	}
	merged, err := mergeRecord(m.records[kind][idx], partial)
	if err != nil {
		return nil, err
	}
	m.records[kind][idx] = merged
	return bytes.Clone(merged), nil
}

func (m *Memory) Delete(_ context.Context, kind Kind, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, err := m.find(kind, id)
	if err != nil {
		return false, err
	}
	if idx < 0 {
		return false, nil
	}
	m.records[kind] = append(m.records[kind][:idx], m.records[kind][idx+1:]...)
	return true, nil
}

func (m *Memory) Counter(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name], nil
}

func (m *Memory) SetCounter(_ context.Context, name string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] = value
	return nil
}

func (m *Memory) Meta(_ context.Context, key string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.meta[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(value), nil
}

func (m *Memory) PutMeta(_ context.Context, key string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[key] = bytes.Clone(value)
	return nil
}

func (m *Memory) DeleteMeta(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.meta, key)
	return nil
}

func (m *Memory) find(kind Kind, id string) (int, error) {
	for i, record := range m.records[kind] {
		candidate, err := recordID(record)
		if err != nil {
			return -1, err
		}
		if candidate == id {
			return i, nil
		}
	}
	return -1, nil
}
