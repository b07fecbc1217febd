package kv

import (
	"context"
	"fmt"

	"github.com/ebrhq/backoffice/internal/crypto"
)

// Sealed encrypts values before handing them to the inner store. Keys stay
// in clear so prefix deletion keeps working.
type Sealed struct {
	inner  Store
	cipher *crypto.Cipher
}

// NewSealed wraps inner. A nil cipher stores values as-is.
func NewSealed(inner Store, c *crypto.Cipher) *Sealed {
	return &Sealed{inner: inner, cipher: c}
}

func (s *Sealed) Get(ctx context.Context, key string) (string, error) {
	v, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	plain, err := s.cipher.Open(key, v)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", key, err)
	}
	return plain, nil
}

func (s *Sealed) Set(ctx context.Context, key, value string) error {
	sealed, err := s.cipher.Seal(key, value)
	if err != nil {
		return fmt.Errorf("sealing %s: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *Sealed) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}

func (s *Sealed) DeletePrefix(ctx context.Context, prefix string) error {
	return DeletePrefix(ctx, s.inner, prefix)
}
