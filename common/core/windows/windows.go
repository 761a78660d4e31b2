// Package windows buckets metrics into day, hour and minute windows.
//
// A window key is "{Table}:{bucketID}:...". Every processing step deletes the bucket
// preceding the current one, so only the current bucket of a table outlives a block.
package windows

import (
	"sort"
	"strconv"

	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/shopspring/decimal"
)

const (
	SECONDS_IN_MINUTE = 60
	SECONDS_IN_HOUR   = 3600
	SECONDS_IN_DAY    = 86400
)

type Table struct {
	Name   string
	Period uint64
}

var (
	UniswapDayData  = Table{Name: "UniswapDayData", Period: SECONDS_IN_DAY}
	PoolDayData     = Table{Name: "PoolDayData", Period: SECONDS_IN_DAY}
	PoolHourData    = Table{Name: "PoolHourData", Period: SECONDS_IN_HOUR}
	TokenDayData    = Table{Name: "TokenDayData", Period: SECONDS_IN_DAY}
	TokenHourData   = Table{Name: "TokenHourData", Period: SECONDS_IN_HOUR}
	TokenMinuteData = Table{Name: "TokenMinuteData", Period: SECONDS_IN_MINUTE}
)

var (
	PoolTables  = []Table{PoolDayData, PoolHourData}
	TokenTables = []Table{TokenDayData, TokenHourData, TokenMinuteData}
	PriceTables = []Table{PoolDayData, PoolHourData, TokenDayData, TokenHourData, TokenMinuteData}
	AllTables   = []Table{UniswapDayData, PoolDayData, PoolHourData, TokenDayData, TokenHourData, TokenMinuteData}
)

func (t Table) BucketID(timestamp uint64) int64 {
	return int64(timestamp / t.Period)
}

// Key builds "{Name}:{bucket of timestamp}:{parts...}".
func (t Table) Key(timestamp uint64, parts ...string) string {
	return t.bucketKey(t.BucketID(timestamp), parts...)
}

// BucketStart is the first second covered by the bucket of timestamp.
func (t Table) BucketStart(timestamp uint64) uint64 {
	return uint64(t.BucketID(timestamp)) * t.Period
}

func (t Table) bucketKey(bucketID int64, parts ...string) string {
	segments := make([]string, 0, len(parts)+2)
	segments = append(segments, t.Name, strconv.FormatInt(bucketID, 10))
	segments = append(segments, parts...)
	return kvstore.Key(segments...)
}

func (t Table) previousBucketPrefix(timestamp uint64) string {
	return t.bucketKey(t.BucketID(timestamp)-1) + kvstore.KeySeparator
}

// Prune deletes the bucket preceding the current one of every table.
// Pruning runs at ordinal 0 so it never shadows a write of the block.
func Prune(store kvstore.Pruner, timestamp uint64, tables ...Table) {
	for _, table := range tables {
		store.DeletePrefix(0, table.previousBucketPrefix(timestamp))
	}
}

// ApplyLows tracks the open and low of every windowed price touched by deltas.
// Open is written on bucket creation only.
func ApplyLows(out kvstore.Minimizer, deltas ...[]kvstore.Delta[decimal.Decimal]) {
	for _, delta := range mergeByOrdinal(deltas) {
		base, ok := windowedPriceKey(delta.Key)
		if !ok {
			continue
		}

		if delta.Operation == kvstore.OperationCreate {
			out.Min(delta.Ordinal, kvstore.Key(base, "open"), delta.NewValue)
		}
		out.Min(delta.Ordinal, kvstore.Key(base, "low"), delta.NewValue)
	}
}

// ApplyHighs tracks the high of every windowed price touched by deltas.
func ApplyHighs(out kvstore.Maximizer, deltas ...[]kvstore.Delta[decimal.Decimal]) {
	for _, delta := range mergeByOrdinal(deltas) {
		base, ok := windowedPriceKey(delta.Key)
		if !ok {
			continue
		}

		out.Max(delta.Ordinal, kvstore.Key(base, "high"), delta.NewValue)
	}
}

func mergeByOrdinal(deltas [][]kvstore.Delta[decimal.Decimal]) []kvstore.Delta[decimal.Decimal] {
	merged := make([]kvstore.Delta[decimal.Decimal], 0)
	for _, batch := range deltas {
		for _, delta := range batch {
			if delta.Operation == kvstore.OperationDelete {
				continue
			}
			merged = append(merged, delta)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Ordinal < merged[j].Ordinal
	})
	return merged
}

// windowedPriceKey maps a price key to "{Table}:{bucketID}:{address}".
// Pool windows only follow token0 prices.
func windowedPriceKey(key string) (string, bool) {
	switch kvstore.FirstSegment(key) {
	case PoolDayData.Name, PoolHourData.Name:
		if kvstore.LastSegment(key) != "token0" {
			return "", false
		}
	case TokenDayData.Name, TokenHourData.Name, TokenMinuteData.Name:
	default:
		return "", false
	}

	table := kvstore.FirstSegment(key)
	bucketID, ok := kvstore.SegmentAt(key, 1)
	if !ok {
		return "", false
	}
	address, ok := kvstore.SegmentAt(key, 2)
	if !ok {
		return "", false
	}
	return kvstore.Key(table, bucketID, address), true
}
