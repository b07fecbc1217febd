package kv

import "context"

// Prefixed namespaces every key of an underlying store.
type Prefixed struct {
	inner  Store
	prefix string
}

// NewPrefixed wraps inner so that key k is stored as prefix+k.
func NewPrefixed(inner Store, prefix string) *Prefixed {
	return &Prefixed{inner: inner, prefix: prefix}
}

func (p *Prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *Prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *Prefixed) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = p.prefix + k
	}
	return p.inner.Delete(ctx, full...)
}

func (p *Prefixed) DeletePrefix(ctx context.Context, prefix string) error {
	return DeletePrefix(ctx, p.inner, p.prefix+prefix)
}
