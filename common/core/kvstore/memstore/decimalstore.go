package memstore

import (
	"github.com/shopspring/decimal"
)

// DecimalStore adds accumulate and extrema writes on top of Store.
type DecimalStore struct {
	*Store[decimal.Decimal]
}

func NewDecimal(name string) *DecimalStore {
	return &DecimalStore{Store: New[decimal.Decimal](name)}
}

func (s *DecimalStore) Add(ordinal uint64, key string, value decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.add(ordinal, key, value)
}

func (s *DecimalStore) AddMany(ordinal uint64, keys []string, value decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		s.add(ordinal, key, value)
	}
}

func (s *DecimalStore) Min(ordinal uint64, key string, value decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.current[key]; ok && !value.LessThan(old) {
		return
	}
	s.write(ordinal, key, value)
}

func (s *DecimalStore) Max(ordinal uint64, key string, value decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.current[key]; ok && !value.GreaterThan(old) {
		return
	}
	s.write(ordinal, key, value)
}

func (s *DecimalStore) add(ordinal uint64, key string, value decimal.Decimal) {
	old, ok := s.current[key]
	if !ok {
		old = decimal.Zero
	}
	s.write(ordinal, key, old.Add(value))
}

// ListStore keeps append-only string lists.
type ListStore struct {
	*Store[[]string]
}

func NewList(name string) *ListStore {
	return &ListStore{Store: New[[]string](name)}
}

func (s *ListStore) Append(ordinal uint64, key string, values ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.current[key]
	next := make([]string, 0, len(old)+len(values))
	next = append(next, old...)
	next = append(next, values...)
	s.write(ordinal, key, next)
}
