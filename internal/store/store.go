// Package store keeps bot state in badger: thread contexts, conversation
// history and per-chat settings.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v3"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("not found")

// Store is a typed key-value collection under a common key prefix.
type Store[T any] interface {
	Get(key string) (T, error)
	Set(key string, value T) error
	Delete(key string) error
	Has(key string) (bool, error)
}

// Open opens a badger database at path, or an in-memory one when path is empty.
func Open(path string, log *slog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{log: log})
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

type store[T any] struct {
	prefix []byte
	db     *badger.DB

	marshal   func(T) ([]byte, error)
	unmarshal func([]byte) (T, error)
}

// New creates a store using the given codec for values.
func New[T any](db *badger.DB, prefix string, marshal func(T) ([]byte, error), unmarshal func([]byte) (T, error)) Store[T] {
	return &store[T]{
		prefix:    []byte(prefix),
		db:        db,
		marshal:   marshal,
		unmarshal: unmarshal,
	}
}

// NewJSON creates a store that encodes values as JSON.
func NewJSON[T any](db *badger.DB, prefix string) Store[T] {
	return New(db, prefix, func(v T) ([]byte, error) {
		return json.Marshal(v)
	}, func(raw []byte) (T, error) {
		var v T
		err := json.Unmarshal(raw, &v)
		return v, err
	})
}

func (s *store[T]) Get(key string) (T, error) {
	var res T
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.makeKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			res, err = s.unmarshal(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return res, ErrNotFound
	}
	return res, err
}

func (s *store[T]) Has(key string) (bool, error) {
	var ok bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(s.makeKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return nil
	})
	return ok, err
}

func (s *store[T]) Set(key string, value T) error {
	raw, err := s.marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.makeKey(key), raw)
	})
}

func (s *store[T]) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.makeKey(key))
	})
}

func (s *store[T]) makeKey(key string) []byte {
	out := make([]byte, 0, len(s.prefix)+len(key))
	out = append(out, s.prefix...)
	return append(out, key...)
}
