// Package registry provides the lock-guarded maps shared between the driver
// and the workers of a scheduling pass: jobs, nodes and completed jobs.
//
// Every operation holds the registry's single lock for its whole duration, so a
// caller never observes a partially applied mutation. Reads that take a timeout
// report whether the key was missing or the lock could not be acquired in time.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	ErrNotFound    = errors.New("registry: key not found")
	ErrLockTimeout = errors.New("registry: timed out acquiring lock")
)

// Status of a timed lookup.
type Status int

const (
	NotFound Status = iota
	Found
	TimedOut
)

func (s Status) String() string {
	switch s {
	case Found:
		return "Found"
	case NotFound:
		return "NotFound"
	case TimedOut:
		return "TimedOut"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is returned by Get and Pop. Value is only meaningful when Status is Found.
type Result[V any] struct {
	Value  V
	Status Status
}

func (r Result[V]) Found() bool { return r.Status == Found }

// Err converts a non-Found result into ErrNotFound or ErrLockTimeout.
func (r Result[V]) Err() error {
	switch r.Status {
	case Found:
		return nil
	case TimedOut:
		return ErrLockTimeout
	default:
		return ErrNotFound
	}
}

type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Registry is a map guarded by a single weighted semaphore of size one, which
// lets lookups bound how long they wait for the lock.
type Registry[K comparable, V any] struct {
	sem   *semaphore.Weighted
	items map[K]V
}

func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{
		sem:   semaphore.NewWeighted(1),
		items: make(map[K]V),
	}
}

// Get returns the value for key. A timeout <= 0 only tries the lock once.
func (r *Registry[K, V]) Get(key K, timeout time.Duration) Result[V] {
	if !r.tryLock(timeout) {
		return Result[V]{Status: TimedOut}
	}
	defer r.unlock()
	v, ok := r.items[key]
	if !ok {
		return Result[V]{Status: NotFound}
	}
	return Result[V]{Value: v, Status: Found}
}

// Pop removes and returns the value for key, with the same lock discipline as Get.
func (r *Registry[K, V]) Pop(key K, timeout time.Duration) Result[V] {
	if !r.tryLock(timeout) {
		return Result[V]{Status: TimedOut}
	}
	defer r.unlock()
	v, ok := r.items[key]
	if !ok {
		return Result[V]{Status: NotFound}
	}
	delete(r.items, key)
	return Result[V]{Value: v, Status: Found}
}

// Update inserts or replaces the value for key, blocking until the lock is held.
func (r *Registry[K, V]) Update(key K, value V) {
	r.lock()
	defer r.unlock()
	r.items[key] = value
}

// Add is an alias of Update.
func (r *Registry[K, V]) Add(key K, value V) {
	r.Update(key, value)
}

// Modify replaces the value of an existing key with fn(value) under the lock.
// Absent keys are left absent and NotFound is returned without calling fn.
func (r *Registry[K, V]) Modify(key K, timeout time.Duration, fn func(v V) V) Status {
	if !r.tryLock(timeout) {
		return TimedOut
	}
	defer r.unlock()
	v, ok := r.items[key]
	if !ok {
		return NotFound
	}
	r.items[key] = fn(v)
	return Found
}

func (r *Registry[K, V]) Remove(key K) {
	r.lock()
	defer r.unlock()
	delete(r.items, key)
}

// Items returns a snapshot of every entry. Order is unspecified.
func (r *Registry[K, V]) Items() []Entry[K, V] {
	r.lock()
	defer r.unlock()
	entries := make([]Entry[K, V], 0, len(r.items))
	for k, v := range r.items {
		entries = append(entries, Entry[K, V]{Key: k, Value: v})
	}
	return entries
}

func (r *Registry[K, V]) Keys() []K {
	r.lock()
	defer r.unlock()
	keys := make([]K, 0, len(r.items))
	for k := range r.items {
		keys = append(keys, k)
	}
	return keys
}

func (r *Registry[K, V]) Len() int {
	r.lock()
	defer r.unlock()
	return len(r.items)
}

func (r *Registry[K, V]) lock() {
	// Acquire only fails when its context is done, which Background never is.
	_ = r.sem.Acquire(context.Background(), 1)
}

func (r *Registry[K, V]) unlock() {
	r.sem.Release(1)
}

func (r *Registry[K, V]) tryLock(timeout time.Duration) bool {
	if timeout <= 0 {
		return r.sem.TryAcquire(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.sem.Acquire(ctx, 1) == nil
}
