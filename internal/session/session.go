// Package session stores the single local login flag. It gates nothing on
// its own and is not a security boundary.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"grocerymis/internal/domain"
	"grocerymis/internal/store"
)

const metaKey = "session"

type Manager struct {
	store store.Store
}

func New(st store.Store) *Manager {
	return &Manager{store: st}
}

// Get returns the active session, or nil when nobody is logged in.
func (m *Manager) Get(ctx context.Context) (*domain.Session, error) {
	raw, err := m.store.Meta(ctx, metaKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (m *Manager) Set(ctx context.Context, sess domain.Session) error {
	encoded, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.PutMeta(ctx, metaKey, encoded); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.DeleteMeta(ctx, metaKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (m *Manager) IsActive(ctx context.Context) (bool, error) {
	sess, err := m.Get(ctx)
	if err != nil {
		return false, err
	}
	return sess != nil, nil
}
