package lpcorrelation

import (
	"math/big"
	"testing"

	"github.com/alexkalak/go_dex_metrics/common/core/chainconfig"
	"github.com/alexkalak/go_dex_metrics/common/helpers/addresshelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPool      = "0x00000000000000000000000000000000000000aa"
	testUserX     = "0x0000000000000000000000000000000000000001"
	testUserY     = "0x0000000000000000000000000000000000000002"
	testCollector = "0x00000000000000000000000000000000000000fe"
	zero          = addresshelper.ZERO_ADDRESS
)

func testConfig(t *testing.T) chainconfig.Config {
	t.Helper()
	config, err := chainconfig.New(chainconfig.Params{
		Factory:              "0x6c9258026a9272368e49bbb7d0a78c17bbe284bf",
		WrappedNative:        "0xe91d02e66a9152fee1bc79c1830121f6507a4f6d",
		USDReference:         "0x46a906fca4487c87f0d89d2d0824ec57bdaa947d",
		MinimumLiquidityLock: big.NewInt(1000),
	})
	require.NoError(t, err)
	return config
}

func transfer(logIndex uint64, from, to string, value int64) Transfer {
	return Transfer{LogIndex: logIndex, From: from, To: to, Value: big.NewInt(value)}
}

func TestRecord_DropsMinimumLiquidityLock(t *testing.T) {
	ctx := NewTransferContext(testConfig(t))

	ctx.Record(testPool, transfer(1, zero, zero, 1000))
	ctx.Record(testPool, transfer(2, testPool, zero, 1000))

	_, _, ok := ctx.ConsumeForMint(testPool, 10)
	assert.False(t, ok)

	amount, ok := ctx.ConsumeForBurn(testPool, 0)
	assert.False(t, ok, "the lock is never matched, even by a burn looking for pool->zero transfers")
	assert.Nil(t, amount)
}

func TestRecord_KeepsOtherTransfersToZero(t *testing.T) {
	ctx := NewTransferContext(testConfig(t))

	ctx.Record(testPool, transfer(5, testPool, zero, 1001))

	amount, ok := ctx.ConsumeForBurn(testPool, 4)
	require.True(t, ok)
	assert.Equal(t, int64(1001), amount.Int64())
}

func TestConsumeForMint_PicksClosestPreceding(t *testing.T) {
	ctx := NewTransferContext(testConfig(t))
	ctx.Record(testPool, transfer(1, zero, testUserY, 100))
	ctx.Record(testPool, transfer(3, zero, testUserX, 5000))
	ctx.Record(testPool, transfer(6, zero, testUserY, 7))

	owner, amount, ok := ctx.ConsumeForMint(testPool, 4)
	require.True(t, ok)
	assert.Equal(t, testUserX, owner)
	assert.Equal(t, int64(5000), amount.Int64())

	owner, amount, ok = ctx.ConsumeForMint(testPool, 4)
	require.True(t, ok)
	assert.Equal(t, testUserY, owner)
	assert.Equal(t, int64(100), amount.Int64())

	_, _, ok = ctx.ConsumeForMint(testPool, 4)
	assert.False(t, ok, "a consumed transfer is never returned twice")
}

func TestConsumeForMint_IgnoresNonMintTransfers(t *testing.T) {
	ctx := NewTransferContext(testConfig(t))
	ctx.Record(testPool, transfer(1, testUserX, testUserY, 10))
	ctx.Record(testPool, transfer(2, testUserX, testPool, 10))

	_, _, ok := ctx.ConsumeForMint(testPool, 5)
	assert.False(t, ok)
}

func TestConsumeForMint_UnknownPool(t *testing.T) {
	ctx := NewTransferContext(testConfig(t))
	ctx.Record(testPool, transfer(1, zero, testUserX, 10))

	_, _, ok := ctx.ConsumeForMint("0x00000000000000000000000000000000000000bb", 5)
	assert.False(t, ok)
}

func TestConsumeForBurn_PrefersPoolBurnAfterEvent(t *testing.T) {
	ctx := NewTransferContext(testConfig(t))
	ctx.Record(testPool, transfer(2, testUserX, testPool, 40))
	ctx.Record(testPool, transfer(5, testPool, zero, 41))
	ctx.Record(testPool, transfer(7, testPool, zero, 42))

	amount, ok := ctx.ConsumeForBurn(testPool, 4)
	require.True(t, ok)
	assert.Equal(t, int64(41), amount.Int64())

	amount, ok = ctx.ConsumeForBurn(testPool, 4)
	require.True(t, ok)
	assert.Equal(t, int64(42), amount.Int64())

	amount, ok = ctx.ConsumeForBurn(testPool, 4)
	require.True(t, ok, "falls back to the deposit into the pool")
	assert.Equal(t, int64(40), amount.Int64())

	_, ok = ctx.ConsumeForBurn(testPool, 4)
	assert.False(t, ok)
}

func TestConsumeForBurn_FallbackPicksClosestPrecedingDeposit(t *testing.T) {
	ctx := NewTransferContext(testConfig(t))
	ctx.Record(testPool, transfer(1, testUserX, testPool, 10))
	ctx.Record(testPool, transfer(3, testUserY, testPool, 30))
	ctx.Record(testPool, transfer(9, testUserY, testPool, 90))

	amount, ok := ctx.ConsumeForBurn(testPool, 4)
	require.True(t, ok)
	assert.Equal(t, int64(30), amount.Int64())
}

func TestMintAndBurnNeverShareTransfer(t *testing.T) {
	ctx := NewTransferContext(testConfig(t))
	ctx.Record(testPool, transfer(1, zero, testPool, 500))

	owner, amount, ok := ctx.ConsumeForMint(testPool, 2)
	require.True(t, ok)
	assert.Equal(t, testPool, owner)
	assert.Equal(t, int64(500), amount.Int64())

	_, ok = ctx.ConsumeForBurn(testPool, 2)
	assert.False(t, ok, "the transfer was already consumed by the mint")
}

// The lock filter matches on the exact value, so a user mint of exactly 1000 LP to the
// zero address would be dropped too. Known edge case kept on purpose.
func TestRecord_ExactValueLockEdgeCase(t *testing.T) {
	ctx := NewTransferContext(testConfig(t))
	ctx.Record(testPool, transfer(8, testPool, zero, 1000))

	_, ok := ctx.ConsumeForBurn(testPool, 8)
	assert.False(t, ok)
}
