package memstore

import (
	"testing"

	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ kvstore.Setter[decimal.Decimal]      = (*DecimalStore)(nil)
	_ kvstore.Getter[decimal.Decimal]      = (*DecimalStore)(nil)
	_ kvstore.Adder                        = (*DecimalStore)(nil)
	_ kvstore.Minimizer                    = (*DecimalStore)(nil)
	_ kvstore.Maximizer                    = (*DecimalStore)(nil)
	_ kvstore.DeltaSource[decimal.Decimal] = (*DecimalStore)(nil)
	_ kvstore.Appender                     = (*ListStore)(nil)
	_ kvstore.Getter[[]string]             = (*ListStore)(nil)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestStore_SetEmitsCreateThenUpdate(t *testing.T) {
	store := New[string]("pools")

	store.Set(1, "pair:0x1", "a")
	store.Set(2, "pair:0x1", "b")

	deltas := store.Deltas()
	require.Len(t, deltas, 2)
	assert.Equal(t, kvstore.OperationCreate, deltas[0].Operation)
	assert.Equal(t, "", deltas[0].OldValue)
	assert.Equal(t, kvstore.OperationUpdate, deltas[1].Operation)
	assert.Equal(t, "a", deltas[1].OldValue)
	assert.Equal(t, "b", deltas[1].NewValue)
}

func TestStore_GetAtSeesOnlyEarlierOrdinals(t *testing.T) {
	store := NewDecimal("prices")
	store.Set(5, "bundle", dec("1000"))
	store.Commit()

	store.Set(10, "bundle", dec("2000"))
	store.Set(20, "bundle", dec("3000"))

	v, ok := store.GetAt(4, "bundle")
	require.True(t, ok)
	assert.True(t, v.Equal(dec("1000")), "committed value is visible before any block write")

	v, ok = store.GetAt(10, "bundle")
	require.True(t, ok)
	assert.True(t, v.Equal(dec("2000")))

	v, ok = store.GetAt(15, "bundle")
	require.True(t, ok)
	assert.True(t, v.Equal(dec("2000")))

	v, ok = store.GetLast("bundle")
	require.True(t, ok)
	assert.True(t, v.Equal(dec("3000")))
}

func TestStore_GetAtInterleavedKeysAcrossBlocks(t *testing.T) {
	store := NewDecimal("prices")
	store.Set(1, "pair:a", dec("1"))
	store.Set(2, "pair:b", dec("10"))
	store.Set(3, "pair:a", dec("2"))
	store.DeletePrefix(4, "pair:b")
	store.Set(5, "pair:a", dec("3"))

	v, ok := store.GetAt(3, "pair:a")
	require.True(t, ok)
	assert.True(t, v.Equal(dec("2")))
	v, ok = store.GetAt(3, "pair:b")
	require.True(t, ok)
	assert.True(t, v.Equal(dec("10")))
	_, ok = store.GetAt(4, "pair:b")
	assert.False(t, ok)

	store.Commit()
	store.Set(1, "pair:c", dec("7"))

	v, ok = store.GetAt(0, "pair:a")
	require.True(t, ok)
	assert.True(t, v.Equal(dec("3")), "committed value once the block is closed")
	_, ok = store.GetAt(9, "pair:b")
	assert.False(t, ok)
	v, ok = store.GetAt(1, "pair:c")
	require.True(t, ok)
	assert.True(t, v.Equal(dec("7")))
}

func TestStore_DeletePrefix(t *testing.T) {
	store := NewDecimal("volumes")
	store.Add(1, "PoolDayData:10:0xp:volumeUSD", dec("5"))
	store.Add(1, "PoolDayData:10:0xq:volumeUSD", dec("6"))
	store.Add(1, "PoolDayData:11:0xp:volumeUSD", dec("7"))
	store.Commit()

	store.DeletePrefix(0, "PoolDayData:10:")
	store.Add(3, "PoolDayData:10:0xp:volumeUSD", dec("1"))

	assert.Equal(t, 2, store.Len())
	_, ok := store.GetAt(2, "PoolDayData:10:0xq:volumeUSD")
	assert.False(t, ok)

	v, ok := store.GetAt(3, "PoolDayData:10:0xp:volumeUSD")
	require.True(t, ok)
	assert.True(t, v.Equal(dec("1")), "accumulation restarts after a delete")

	deltas := store.Deltas()
	require.Len(t, deltas, 3)
	assert.Equal(t, kvstore.OperationDelete, deltas[0].Operation)
	assert.Equal(t, "PoolDayData:10:0xp:volumeUSD", deltas[0].Key)
	assert.Equal(t, kvstore.OperationDelete, deltas[1].Operation)
	assert.Equal(t, kvstore.OperationCreate, deltas[2].Operation)
}

func TestDecimalStore_AddMany(t *testing.T) {
	store := NewDecimal("tx_counts")

	store.AddMany(1, []string{"pool:0xp", "factory:0xf"}, decimal.NewFromInt(1))
	store.AddMany(2, []string{"pool:0xp", "factory:0xf"}, decimal.NewFromInt(1))

	v, _ := store.GetLast("pool:0xp")
	assert.True(t, v.Equal(decimal.NewFromInt(2)))
	v, _ = store.GetLast("factory:0xf")
	assert.True(t, v.Equal(decimal.NewFromInt(2)))
	assert.Len(t, store.Deltas(), 4)
}

func TestDecimalStore_MinMax(t *testing.T) {
	store := NewDecimal("windows")

	store.Min(1, "low", dec("5"))
	store.Min(2, "low", dec("7"))
	store.Min(3, "low", dec("3"))
	store.Max(1, "high", dec("5"))
	store.Max(2, "high", dec("4"))
	store.Max(3, "high", dec("9"))

	low, _ := store.GetLast("low")
	high, _ := store.GetLast("high")
	assert.True(t, low.Equal(dec("3")))
	assert.True(t, high.Equal(dec("9")))

	assert.Len(t, store.Deltas(), 4, "writes that do not move the extremum are not recorded")
}

func TestListStore_AppendDoesNotAlias(t *testing.T) {
	store := NewList("whitelist_pools")

	store.Append(1, "token:0xa", "0xp1")
	first, _ := store.GetLast("token:0xa")
	store.Append(1, "token:0xa", "0xp2", "0xp3")

	assert.Equal(t, []string{"0xp1"}, first)
	last, _ := store.GetLast("token:0xa")
	assert.Equal(t, []string{"0xp1", "0xp2", "0xp3"}, last)
}

func TestStore_CommitAndRestore(t *testing.T) {
	store := New[string]("pools")
	store.Set(1, "pair:0x1", "a")
	store.Commit()

	assert.Empty(t, store.Deltas())
	assert.True(t, store.HasLast("pair:0x1"))

	store.Set(2, "pair:0x2", "b")
	store.Restore(map[string]string{"pair:0x3": "c"})

	assert.Empty(t, store.Deltas())
	assert.False(t, store.HasLast("pair:0x1"))
	assert.False(t, store.HasLast("pair:0x2"))
	v, ok := store.GetAt(0, "pair:0x3")
	require.True(t, ok)
	assert.Equal(t, "c", v)
}
