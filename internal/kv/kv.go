// Package kv provides the string key-value stores that persist sessions
// and onboarding markers.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("key not found")

// Store is a flat string key-value store. Writes are single-key and need
// no transactional guarantees.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes the given keys; missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// PrefixDeleter is implemented by stores able to drop a whole namespace.
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

// DeletePrefix removes every key starting with prefix when s supports it
// and is a no-op otherwise.
func DeletePrefix(ctx context.Context, s Store, prefix string) error {
	if pd, ok := s.(PrefixDeleter); ok {
		return pd.DeletePrefix(ctx, prefix)
	}
	return nil
}
