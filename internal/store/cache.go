package store

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cached[T any] struct {
	next  Store[T]
	cache *lru.Cache[string, T]
}

// NewCached puts an LRU read cache of the given size in front of next.
func NewCached[T any](next Store[T], size int) (Store[T], error) {
	cache, err := lru.New[string, T](size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &cached[T]{next: next, cache: cache}, nil
}

func (c *cached[T]) Get(key string) (T, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.next.Get(key)
	if err != nil {
		return v, err
	}
	c.cache.Add(key, v)
	return v, nil
}

func (c *cached[T]) Has(key string) (bool, error) {
	if c.cache.Contains(key) {
		return true, nil
	}
	return c.next.Has(key)
}

func (c *cached[T]) Set(key string, value T) error {
	if err := c.next.Set(key, value); err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, value)
	return nil
}

func (c *cached[T]) Delete(key string) error {
	c.cache.Remove(key)
	return c.next.Delete(key)
}
