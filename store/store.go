// Package store provides durable local key-value storage for the user's
// session and preferences.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Store is a Badger-backed key-value store. Values are JSON-encoded.
// Writes are last-writer-wins.
type Store struct {
	db *badger.DB
}

// Options configures Open.
type Options struct {
	// Dir is the on-disk location. Ignored when InMemory is set.
	Dir      string
	InMemory bool
	// Logger receives Badger's own logs. Nil uses slog.Default.
	Logger *slog.Logger
}

// Open opens (or creates) the store.
func Open(opts Options) (*Store, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	bopts := badger.DefaultOptions(opts.Dir).
		WithLogger(slogLogger{log.With("component", "badger")})
	if opts.InMemory {
		bopts = bopts.WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// get decodes the value at key into v. found is false when the key is unset.
func (s *Store) get(key string, v any) (found bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return found, nil
}

func (s *Store) set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	}); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) remove(key string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Item is a typed entry with a fallback returned when the key is unset.
type Item[T any] struct {
	store    *Store
	key      string
	fallback T
}

// DefineItem binds a typed item to key.
func DefineItem[T any](s *Store, key string, fallback T) *Item[T] {
	return &Item[T]{store: s, key: key, fallback: fallback}
}

// Key returns the storage key.
func (it *Item[T]) Key() string { return it.key }

// Get returns the stored value or the fallback.
func (it *Item[T]) Get(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		return it.fallback, err
	}
	var v T
	found, err := it.store.get(it.key, &v)
	if err != nil {
		return it.fallback, err
	}
	if !found {
		return it.fallback, nil
	}
	return v, nil
}

// Set stores v.
func (it *Item[T]) Set(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return it.store.set(it.key, v)
}

// Remove deletes the value so Get returns the fallback again.
func (it *Item[T]) Remove(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return it.store.remove(it.key)
}

// slogLogger routes Badger's printf-style logs into slog.
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Errorf(format string, args ...any) {
	s.l.Error(fmt.Sprintf(format, args...))
}

func (s slogLogger) Warningf(format string, args ...any) {
	s.l.Warn(fmt.Sprintf(format, args...))
}

// Badger's info output is chatty (compactions, value log GC), keep it at debug.
func (s slogLogger) Infof(format string, args ...any) {
	s.l.Debug(fmt.Sprintf(format, args...))
}

func (s slogLogger) Debugf(format string, args ...any) {
	s.l.Debug(fmt.Sprintf(format, args...))
}
