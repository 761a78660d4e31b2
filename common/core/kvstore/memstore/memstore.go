// Package memstore keeps ordinal-versioned store state in process memory. It has no
// reorg rollback: a block is either committed or the process restarts from a checkpoint.
package memstore

import (
	"sort"
	"strings"
	"sync"

	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
)

type Store[V any] struct {
	mu   sync.RWMutex
	name string

	committed map[string]V
	current   map[string]V
	deltas    []kvstore.Delta[V]
	// key -> positions in deltas, ascending
	deltasByKey map[string][]int
}

func New[V any](name string) *Store[V] {
	return &Store[V]{
		name:      name,
		committed:   map[string]V{},
		current:     map[string]V{},
		deltasByKey: map[string][]int{},
	}
}

func (s *Store[V]) Name() string {
	return s.name
}

func (s *Store[V]) Set(ordinal uint64, key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.write(ordinal, key, value)
}

func (s *Store[V]) SetMany(ordinal uint64, keys []string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		s.write(ordinal, key, value)
	}
}

// DeletePrefix removes every live key starting with prefix, in key order.
func (s *Store[V]) DeletePrefix(ordinal uint64, prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0)
	for key := range s.current {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var zero V
	for _, key := range keys {
		old := s.current[key]
		delete(s.current, key)
		s.appendDelta(kvstore.Delta[V]{
			Operation: kvstore.OperationDelete,
			Ordinal:   ordinal,
			Key:       key,
			OldValue:  old,
			NewValue:  zero,
		})
	}
}

func (s *Store[V]) GetAt(ordinal uint64, key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero V
	positions := s.deltasByKey[key]
	for i := len(positions) - 1; i >= 0; i-- {
		delta := s.deltas[positions[i]]
		if delta.Ordinal > ordinal {
			continue
		}
		if delta.Operation == kvstore.OperationDelete {
			return zero, false
		}
		return delta.NewValue, true
	}

	value, ok := s.committed[key]
	return value, ok
}

func (s *Store[V]) GetLast(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.current[key]
	return value, ok
}

func (s *Store[V]) HasLast(key string) bool {
	_, ok := s.GetLast(key)
	return ok
}

// Deltas returns the writes of the block being processed, in write order.
func (s *Store[V]) Deltas() []kvstore.Delta[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deltas := make([]kvstore.Delta[V], len(s.deltas))
	copy(deltas, s.deltas)
	return deltas
}

// Commit closes the block: its writes become the base for the next one.
func (s *Store[V]) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, delta := range s.deltas {
		if delta.Operation == kvstore.OperationDelete {
			delete(s.committed, delta.Key)
			continue
		}
		s.committed[delta.Key] = delta.NewValue
	}
	s.deltas = nil
	clear(s.deltasByKey)
}

// Restore replaces the whole state, dropping uncommitted writes.
func (s *Store[V]) Restore(values map[string]V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.committed = make(map[string]V, len(values))
	s.current = make(map[string]V, len(values))
	for key, value := range values {
		s.committed[key] = value
		s.current[key] = value
	}
	s.deltas = nil
	clear(s.deltasByKey)
}

func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.current)
}

// write must be called with the lock held.
func (s *Store[V]) write(ordinal uint64, key string, value V) {
	old, exists := s.current[key]
	operation := kvstore.OperationUpdate
	if !exists {
		operation = kvstore.OperationCreate
	}

	s.current[key] = value
	s.appendDelta(kvstore.Delta[V]{
		Operation: operation,
		Ordinal:   ordinal,
		Key:       key,
		OldValue:  old,
		NewValue:  value,
	})
}

func (s *Store[V]) appendDelta(delta kvstore.Delta[V]) {
	s.deltasByKey[delta.Key] = append(s.deltasByKey[delta.Key], len(s.deltas))
	s.deltas = append(s.deltas, delta)
}
