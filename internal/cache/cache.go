// Package cache provides a small in-process LRU with per-entry TTL, keyed by
// user id. It backs the dashboard metrics so repeated reads between writes
// skip the aggregation queries.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	userID    int64
	value     T
	expiresAt time.Time
}

// UserCache is an LRU cache with TTL expiry, safe for concurrent use.
type UserCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	index   map[int64]*list.Element
	order   *list.List // front = most recently used
}

func New[T any](maxSize int, ttl time.Duration) *UserCache[T] {
	return &UserCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		index:   make(map[int64]*list.Element),
		order:   list.New(),
	}
}

func (c *UserCache[T]) Get(userID int64) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.index[userID]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *UserCache[T]) Set(userID int64, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{userID: userID, value: value, expiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.index[userID]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}

	c.index[userID] = c.order.PushFront(e)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

// Invalidate drops the cached value for a user. Called after every write that
// changes what the dashboard would show.
func (c *UserCache[T]) Invalidate(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.index[userID]; ok {
		c.remove(elem)
	}
}

func (c *UserCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *UserCache[T]) remove(elem *list.Element) {
	e := elem.Value.(*entry[T])
	delete(c.index, e.userID)
	c.order.Remove(elem)
}

// CleanExpired removes every expired entry and reports how many were dropped.
func (c *UserCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			c.remove(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// RunCleanup sweeps expired entries on a ticker until the context is done.
func (c *UserCache[T]) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.CleanExpired()
		case <-ctx.Done():
			return
		}
	}
}
