package entitytables

import (
	"math/big"
	"testing"

	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTables_KeepsFirstTouchOrder(t *testing.T) {
	tables := New()
	tables.UpdateRow(3, "Token", "0xb").Set("txCount", big.NewInt(2))
	tables.CreateRow(1, "Pair", "0xa").Set("reserve0", decimal.RequireFromString("1.5"))
	tables.UpdateRow(5, "Token", "0xb").Set("volume", decimal.NewFromInt(7))

	changes := tables.ToEntityChanges()
	require.Len(t, changes, 2)

	assert.Equal(t, "Token", changes[0].Entity)
	assert.Equal(t, uint64(5), changes[0].Ordinal)
	assert.Equal(t, models.ENTITY_OPERATION_UPDATE, changes[0].Operation)
	assert.Equal(t, []models.EntityField{
		{Name: "txCount", Value: "2"},
		{Name: "volume", Value: "7"},
	}, changes[0].Fields)

	assert.Equal(t, "Pair", changes[1].Entity)
	value, ok := changes[1].Field("reserve0")
	require.True(t, ok)
	assert.Equal(t, "1.5", value)
}

func TestTables_CreateWinsOverUpdate(t *testing.T) {
	tables := New()
	tables.UpdateRow(1, "User", "0x1").Set("id", "0x1")
	tables.CreateRow(2, "User", "0x1")
	tables.UpdateRow(3, "User", "0x1").Set("id", "0x2")

	changes := tables.ToEntityChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, models.ENTITY_OPERATION_CREATE, changes[0].Operation)
	assert.Equal(t, []models.EntityField{{Name: "id", Value: "0x2"}}, changes[0].Fields)
}

func TestTables_DeleteDropsFields(t *testing.T) {
	tables := New()
	tables.CreateRow(1, "Pair", "0xa").Set("reserve0", "1")
	tables.DeleteRow(2, "Pair", "0xa").Set("reserve1", "2")

	changes := tables.ToEntityChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, models.ENTITY_OPERATION_DELETE, changes[0].Operation)
	assert.Empty(t, changes[0].Fields)
}

func TestFormatValue(t *testing.T) {
	testCases := []struct {
		value    any
		expected string
	}{
		{value: "0xabc", expected: "0xabc"},
		{value: true, expected: "true"},
		{value: uint64(12), expected: "12"},
		{value: int64(-3), expected: "-3"},
		{value: (*big.Int)(nil), expected: "0"},
		{value: big.NewInt(1000), expected: "1000"},
		{value: decimal.RequireFromString("0.000100"), expected: "0.0001"},
		{value: []string{"0x1", "0x2"}, expected: "0x1,0x2"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, formatValue(tc.value))
	}
}
