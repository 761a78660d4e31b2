// Package kvstore is the contract of the ordinal-versioned key-value store every
// pipeline stage writes through. Keys are ':'-delimited strings.
package kvstore

import (
	"github.com/shopspring/decimal"
)

type Operation uint8

const (
	OperationUnset Operation = iota
	OperationCreate
	OperationUpdate
	OperationDelete
)

func (o Operation) String() string {
	switch o {
	case OperationCreate:
		return "CREATE"
	case OperationUpdate:
		return "UPDATE"
	case OperationDelete:
		return "DELETE"
	}
	return "UNSET"
}

// Delta is emitted for every write. OldValue is the zero value on Create,
// NewValue the zero value on Delete.
type Delta[V any] struct {
	Operation Operation
	Ordinal   uint64
	Key       string
	OldValue  V
	NewValue  V
}

// Getter reads values. GetAt sees every write with an ordinal lower or equal to ordinal,
// including writes of the block being processed. GetLast sees the latest write.
type Getter[V any] interface {
	GetAt(ordinal uint64, key string) (V, bool)
	GetLast(key string) (V, bool)
	HasLast(key string) bool
}

type Pruner interface {
	DeletePrefix(ordinal uint64, prefix string)
}

type Setter[V any] interface {
	Pruner
	Set(ordinal uint64, key string, value V)
	SetMany(ordinal uint64, keys []string, value V)
}

type Adder interface {
	Pruner
	Add(ordinal uint64, key string, value decimal.Decimal)
	AddMany(ordinal uint64, keys []string, value decimal.Decimal)
}

type Minimizer interface {
	Pruner
	Min(ordinal uint64, key string, value decimal.Decimal)
}

type Maximizer interface {
	Pruner
	Max(ordinal uint64, key string, value decimal.Decimal)
}

type Appender interface {
	Append(ordinal uint64, key string, values ...string)
}

type DeltaSource[V any] interface {
	Deltas() []Delta[V]
}

// DecimalGetter is the read side used by price and volume code.
type DecimalGetter = Getter[decimal.Decimal]
