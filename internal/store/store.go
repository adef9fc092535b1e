// Package store provides a small versioned keyed store for the keepsake
// widgets and the gallery's local photos. Values are JSON documents; every
// write carries the version it expects to replace so that concurrent writers
// (two open tabs, two Lambda instances) cannot silently drop each other's
// changes.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jun/babymemories/internal/adapter"
)

// Item is a stored value and its version. Version 0 means "absent".
type Item struct {
	Value   []byte
	Version int64
}

// Backend persists raw values under string keys.
type Backend interface {
	// Get returns adapter.ErrNotFound when the key has never been written.
	Get(ctx context.Context, key string) (Item, error)

	// Put stores value if the current version equals expectedVersion and
	// returns the new version. An expectedVersion of 0 requires the key to be
	// absent. A mismatch returns adapter.ErrPreconditionFailed.
	Put(ctx context.Context, key string, value []byte, expectedVersion int64) (int64, error)
}

const defaultAttempts = 5

// Typed is a JSON-typed view over a Backend.
type Typed[T any] struct {
	backend  Backend
	attempts int
}

// NewTyped creates a Typed store over backend.
func NewTyped[T any](backend Backend) *Typed[T] {
	return &Typed[T]{backend: backend, attempts: defaultAttempts}
}

// WithAttempts sets how many times Update retries on a version conflict.
func (s *Typed[T]) WithAttempts(n int) *Typed[T] {
	if n > 0 {
		s.attempts = n
	}
	return s
}

// Get decodes the value under key.
func (s *Typed[T]) Get(ctx context.Context, key string) (T, int64, error) {
	var v T
	item, err := s.backend.Get(ctx, key)
	if err != nil {
		return v, 0, err
	}
	if err := json.Unmarshal(item.Value, &v); err != nil {
		return v, 0, fmt.Errorf("decode %q: %w", key, err)
	}
	return v, item.Version, nil
}

// Put encodes and stores v, see Backend.Put.
func (s *Typed[T]) Put(ctx context.Context, key string, v T, expectedVersion int64) (int64, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encode %q: %w", key, err)
	}
	return s.backend.Put(ctx, key, raw, expectedVersion)
}

// Load returns the stored value, or seed() when nothing was stored yet.
// It never writes.
func (s *Typed[T]) Load(ctx context.Context, key string, seed func() T) (T, error) {
	v, _, err := s.Get(ctx, key)
	if errors.Is(err, adapter.ErrNotFound) {
		return seed(), nil
	}
	return v, err
}

// Update applies mutate to the current value (or seed() when absent) and
// writes the result, retrying the whole read-modify-write when another writer
// got there first. An error from mutate aborts without writing.
func (s *Typed[T]) Update(ctx context.Context, key string, seed func() T, mutate func(*T) error) (T, error) {
	var zero T
	for attempt := 0; attempt < s.attempts; attempt++ {
		v, version, err := s.Get(ctx, key)
		if errors.Is(err, adapter.ErrNotFound) {
			v, version = seed(), 0
		} else if err != nil {
			return zero, err
		}

		if err := mutate(&v); err != nil {
			return zero, err
		}

		_, err = s.Put(ctx, key, v, version)
		if errors.Is(err, adapter.ErrPreconditionFailed) {
			continue
		}
		if err != nil {
			return zero, err
		}
		return v, nil
	}
	return zero, fmt.Errorf("update %q: %w after %d attempts", key, adapter.ErrPreconditionFailed, s.attempts)
}
