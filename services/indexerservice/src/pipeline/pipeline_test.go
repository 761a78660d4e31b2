package pipeline

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/alexkalak/go_dex_metrics/common/core/chainconfig"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testChainID = 11155111
	testFactory = "0x6c9258026a9272368e49bbb7d0a78c17bbe284bf"
	weth        = "0xe91d02e66a9152fee1bc79c1830121f6507a4f6d"
	usdc        = "0x46a906fca4487c87f0d89d2d0824ec57bdaa947d"
	tokenA      = "0x00000000000000000000000000000000000000a1"
	tokenB      = "0x00000000000000000000000000000000000000a2"
	poolUSDC    = "0x0000000000000000000000000000000000000c01"
	poolP       = "0x0000000000000000000000000000000000000c02"
	deployer    = "0x00000000000000000000000000000000000000d1"
	router      = "0x00000000000000000000000000000000000000d2"
	userX       = "0x00000000000000000000000000000000000000e1"
	userY       = "0x00000000000000000000000000000000000000e2"
	collector   = "0x00000000000000000000000000000000000000f1"
	zeroAddress = "0x0000000000000000000000000000000000000000"

	// 2023-11-15 00:00:00 UTC, start of day bucket 19676
	dayStart uint64 = 1700006400
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()

	config, err := chainconfig.New(chainconfig.Params{
		ChainID:              testChainID,
		Factory:              testFactory,
		WrappedNative:        weth,
		USDReference:         usdc,
		Stablecoins:          []string{usdc},
		Whitelist:            []string{weth, usdc},
		MinimumEthLocked:     decimal.NewFromInt(52),
		MinimumLiquidityLock: big.NewInt(1000),
	})
	require.NoError(t, err)

	p, err := New(config, PipelineDependencies{Logger: zap.NewNop()})
	require.NoError(t, err)
	return p
}

func units(amount int64, decimals int) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(amount), scale)
}

func testToken(address, symbol string, decimals int) models.Token {
	return models.Token{
		Address:     address,
		Symbol:      symbol,
		Name:        symbol + " token",
		Decimals:    decimals,
		TotalSupply: units(1000000, decimals),
	}
}

func pairCreatedLog(index uint64, pair string, token0, token1 models.Token) models.Log {
	return models.Log{
		Address: testFactory,
		Index:   index,
		Ordinal: index + 1,
		Type:    models.LOG_TYPE_PAIR_CREATED,
		PairCreated: &models.PairCreatedEvent{
			Token0:    token0,
			Token1:    token1,
			Pair:      pair,
			PairIndex: big.NewInt(1),
		},
	}
}

func syncLog(index uint64, pool string, reserve0, reserve1 *big.Int) models.Log {
	return models.Log{
		Address: pool,
		Index:   index,
		Ordinal: index + 1,
		Type:    models.LOG_TYPE_SYNC,
		Sync:    &models.SyncEvent{Reserve0: reserve0, Reserve1: reserve1},
	}
}

func swapLog(index uint64, pool string, amount0In, amount1In, amount0Out, amount1Out *big.Int) models.Log {
	return models.Log{
		Address: pool,
		Index:   index,
		Ordinal: index + 1,
		Type:    models.LOG_TYPE_SWAP,
		Swap: &models.SwapEvent{
			Sender:     router,
			To:         userX,
			Amount0In:  amount0In,
			Amount1In:  amount1In,
			Amount0Out: amount0Out,
			Amount1Out: amount1Out,
		},
	}
}

func mintLog(index uint64, pool string) models.Log {
	return models.Log{
		Address: pool,
		Index:   index,
		Ordinal: index + 1,
		Type:    models.LOG_TYPE_MINT,
		Mint: &models.MintEvent{
			Sender:  deployer,
			Amount0: units(10, 18),
			Amount1: units(20, 18),
		},
	}
}

func burnLog(index uint64, pool, to string) models.Log {
	return models.Log{
		Address: pool,
		Index:   index,
		Ordinal: index + 1,
		Type:    models.LOG_TYPE_BURN,
		Burn: &models.BurnEvent{
			Sender:  router,
			To:      to,
			Amount0: units(1, 18),
			Amount1: units(2, 18),
		},
	}
}

func transferLog(index uint64, pool, from, to string, value int64) models.Log {
	return models.Log{
		Address:  pool,
		Index:    index,
		Ordinal:  index + 1,
		Type:     models.LOG_TYPE_TRANSFER,
		Transfer: &models.TransferEvent{From: from, To: to, Value: big.NewInt(value)},
	}
}

func tx(hash string, logs ...models.Log) models.Transaction {
	return models.Transaction{Hash: hash, From: deployer, To: router, Logs: logs}
}

func block(number, timestamp uint64, txs ...models.Transaction) models.Block {
	return models.Block{
		ChainID:      testChainID,
		Number:       number,
		Hash:         fmt.Sprintf("0xblock%d", number),
		Timestamp:    timestamp,
		Transactions: txs,
	}
}

func process(t *testing.T, p *Pipeline, b models.Block) models.BlockEntityChanges {
	t.Helper()

	out, err := p.Process(b)
	require.NoError(t, err)
	p.Commit(b.Number)
	return out
}

func findChange(out models.BlockEntityChanges, entity, id string) (models.EntityChange, bool) {
	for _, change := range out.Changes {
		if change.Entity == entity && change.ID == id {
			return change, true
		}
	}
	return models.EntityChange{}, false
}

func requireChange(t *testing.T, out models.BlockEntityChanges, entity, id string) models.EntityChange {
	t.Helper()

	change, ok := findChange(out, entity, id)
	require.True(t, ok, "no %s %s change", entity, id)
	return change
}

func assertField(t *testing.T, change models.EntityChange, name, expected string) {
	t.Helper()

	value, ok := change.Field(name)
	require.True(t, ok, "%s %s has no field %s", change.Entity, change.ID, name)
	assert.Equal(t, expected, value, "%s.%s", change.Entity, name)
}

func assertDecimalField(t *testing.T, change models.EntityChange, name, expected string) {
	t.Helper()

	value, ok := change.Field(name)
	require.True(t, ok, "%s %s has no field %s", change.Entity, change.ID, name)
	actual, err := decimal.NewFromString(value)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString(expected).Equal(actual),
		"%s.%s: expected %s, got %s", change.Entity, name, expected, value)
}

// createUSDCPool opens the usdc/weth pair in block 1.
func createUSDCPool(t *testing.T, p *Pipeline) models.BlockEntityChanges {
	t.Helper()

	return process(t, p, block(1, dayStart+60,
		tx("0xcreate", pairCreatedLog(0, poolUSDC, testToken(usdc, "USDC", 6), testToken(weth, "WETH", 18))),
	))
}

// createPoolP opens the tokenA/tokenB pair in block 1.
func createPoolP(t *testing.T, p *Pipeline) {
	t.Helper()

	process(t, p, block(1, dayStart+60,
		tx("0xcreate", pairCreatedLog(0, poolP, testToken(tokenA, "A", 18), testToken(tokenB, "B", 18))),
	))
}

// swapBlock syncs the usdc/weth pair to 200000 USDC / 100 WETH and swaps 2000 USDC for 1 WETH.
func swapBlock(number, timestamp uint64, hash string) models.Block {
	return block(number, timestamp,
		tx(hash,
			syncLog(0, poolUSDC, units(200000, 6), units(100, 18)),
			swapLog(1, poolUSDC, units(2000, 6), big.NewInt(0), big.NewInt(0), units(1, 18)),
		),
	)
}

func TestNew_ValidatesDependencies(t *testing.T) {
	_, err := New(chainconfig.Config{}, PipelineDependencies{})
	assert.Error(t, err)
}

func TestProcess_PairCreated(t *testing.T) {
	p := newTestPipeline(t)

	out := createUSDCPool(t, p)

	assert.Equal(t, uint64(1), out.BlockNumber)
	assert.Equal(t, uint(testChainID), out.ChainID)

	pair := requireChange(t, out, ENTITY_PAIR, poolUSDC)
	assert.Equal(t, models.ENTITY_OPERATION_CREATE, pair.Operation)
	assertField(t, pair, "token0", usdc)
	assertField(t, pair, "token1", weth)
	assertField(t, pair, "feeTier", "3000")
	assertField(t, pair, "transaction", "0xcreate")
	assertDecimalField(t, pair, "volumeUSD", "0")

	factory := requireChange(t, out, ENTITY_FACTORY, testFactory)
	assert.Equal(t, models.ENTITY_OPERATION_CREATE, factory.Operation)
	assertDecimalField(t, factory, "pairCount", "1")

	token := requireChange(t, out, ENTITY_TOKEN, usdc)
	assert.Equal(t, models.ENTITY_OPERATION_CREATE, token.Operation)
	assertField(t, token, "symbol", "USDC")
	assertField(t, token, "decimals", "6")
	assertField(t, token, "whitelistPairs", poolUSDC)
	requireChange(t, out, ENTITY_TOKEN, weth)

	lookup := requireChange(t, out, ENTITY_PAIR_TOKEN_LOOKUP, usdc+"-"+weth)
	assertField(t, lookup, "pair", poolUSDC)
	requireChange(t, out, ENTITY_PAIR_TOKEN_LOOKUP, weth+"-"+usdc)

	_, ok := p.Stores().Pools.GetLast(pairKey(poolUSDC))
	assert.True(t, ok)
}

func TestProcess_SecondPairUpdatesFactory(t *testing.T) {
	p := newTestPipeline(t)
	createUSDCPool(t, p)

	out := process(t, p, block(2, dayStart+120,
		tx("0xcreate2", pairCreatedLog(0, poolP, testToken(tokenA, "A", 18), testToken(weth, "WETH", 18))),
	))

	factory := requireChange(t, out, ENTITY_FACTORY, testFactory)
	assert.Equal(t, models.ENTITY_OPERATION_UPDATE, factory.Operation)
	assertDecimalField(t, factory, "pairCount", "2")

	_, ok := findChange(out, ENTITY_TOKEN, weth)
	assert.False(t, ok, "a listed token is never created twice")
	token := requireChange(t, out, ENTITY_TOKEN, tokenA)
	assert.Equal(t, models.ENTITY_OPERATION_CREATE, token.Operation)
	assertField(t, token, "whitelistPairs", poolP)
}

func TestProcess_IgnoresPairCreatedOfOtherFactories(t *testing.T) {
	p := newTestPipeline(t)

	lg := pairCreatedLog(0, poolP, testToken(tokenA, "A", 18), testToken(tokenB, "B", 18))
	lg.Address = router
	out := process(t, p, block(1, dayStart, tx("0xcreate", lg)))

	assert.Empty(t, out.Changes)
	assert.False(t, p.Stores().Pools.HasLast(pairKey(poolP)))
}

func TestProcess_MintClaimsLPTransfer(t *testing.T) {
	p := newTestPipeline(t)
	createPoolP(t, p)

	out := process(t, p, block(2, dayStart+120,
		tx("0xmint",
			transferLog(3, poolP, zeroAddress, userX, 5000),
			mintLog(4, poolP),
		),
	))

	mint := requireChange(t, out, ENTITY_MINT, "0xmint#1")
	assertField(t, mint, "sender", deployer)
	assertField(t, mint, "to", userX)
	assertDecimalField(t, mint, "liquidity", "0.000000000000005")
	assertDecimalField(t, mint, "amount0", "10")
	assertDecimalField(t, mint, "amount1", "20")
	assertField(t, mint, "pair", poolP)
	assertField(t, mint, "logIndex", "4")
	_, hasFee := mint.Field("feeTo")
	assert.False(t, hasFee)

	requireChange(t, out, ENTITY_USER, userX)
	requireChange(t, out, ENTITY_USER, deployer)
	_, ok := findChange(out, ENTITY_USER, zeroAddress)
	assert.False(t, ok)

	transaction := requireChange(t, out, ENTITY_TRANSACTION, "0xmint")
	assertField(t, transaction, "blockNumber", "2")
	assertField(t, transaction, "from", deployer)

	pair := requireChange(t, out, ENTITY_PAIR, poolP)
	assertDecimalField(t, pair, "txCount", "1")
	assertDecimalField(t, pair, "liquidityProviderCount", "1")
}

func TestProcess_MintWithoutTransferFallsBackToSender(t *testing.T) {
	p := newTestPipeline(t)
	createPoolP(t, p)

	out := process(t, p, block(2, dayStart+120,
		tx("0xmint", mintLog(4, poolP)),
	))

	mint := requireChange(t, out, ENTITY_MINT, "0xmint#1")
	assertField(t, mint, "to", deployer)
	assertDecimalField(t, mint, "liquidity", "0")
}

func TestProcess_MintSkipsMinimumLiquidityLock(t *testing.T) {
	p := newTestPipeline(t)
	createPoolP(t, p)

	out := process(t, p, block(2, dayStart+120,
		tx("0xmint",
			transferLog(1, poolP, zeroAddress, zeroAddress, 1000),
			transferLog(2, poolP, zeroAddress, userX, 9000),
			mintLog(3, poolP),
		),
	))

	mint := requireChange(t, out, ENTITY_MINT, "0xmint#1")
	assertField(t, mint, "to", userX)
	assertDecimalField(t, mint, "liquidity", "0.000000000000009")
}

func TestProcess_FeeMintAttachedToMint(t *testing.T) {
	p := newTestPipeline(t)
	createPoolP(t, p)

	out := process(t, p, block(2, dayStart+120,
		tx("0xfee",
			transferLog(2, poolP, zeroAddress, userY, 300),
			mintLog(3, poolP),
			transferLog(5, poolP, zeroAddress, collector, 7),
		),
	))

	mint := requireChange(t, out, ENTITY_MINT, "0xfee#1")
	assertField(t, mint, "to", userY)
	assertDecimalField(t, mint, "liquidity", "0.0000000000000003")
	assertField(t, mint, "feeTo", collector)
	assertDecimalField(t, mint, "feeLiquidity", "0.000000000000000007")

	requireChange(t, out, ENTITY_USER, collector)
}

func TestProcess_EveryTransferClaimedLeavesNoFeeMint(t *testing.T) {
	p := newTestPipeline(t)
	createPoolP(t, p)

	out := process(t, p, block(2, dayStart+120,
		tx("0xfee",
			transferLog(2, poolP, zeroAddress, userY, 300),
			mintLog(3, poolP),
			transferLog(5, poolP, zeroAddress, collector, 7),
			mintLog(6, poolP),
		),
	))

	first := requireChange(t, out, ENTITY_MINT, "0xfee#1")
	assertField(t, first, "to", userY)
	second := requireChange(t, out, ENTITY_MINT, "0xfee#2")
	assertField(t, second, "to", collector)

	for _, mint := range []models.EntityChange{first, second} {
		_, hasFee := mint.Field("feeTo")
		assert.False(t, hasFee)
	}
}

func TestProcess_BurnClaimsPoolBurnTransfer(t *testing.T) {
	p := newTestPipeline(t)
	createPoolP(t, p)

	out := process(t, p, block(2, dayStart+120,
		tx("0xburn",
			transferLog(1, poolP, userX, poolP, 400),
			transferLog(2, poolP, poolP, zeroAddress, 400),
			burnLog(3, poolP, userX),
		),
	))

	burn := requireChange(t, out, ENTITY_BURN, "0xburn#1")
	assertField(t, burn, "sender", router)
	assertField(t, burn, "to", userX)
	assertDecimalField(t, burn, "liquidity", "0.0000000000000004")
	assertDecimalField(t, burn, "amount0", "1")
	assertDecimalField(t, burn, "amount1", "2")
	assertField(t, burn, "needsComplete", "false")
}

func TestProcess_SwapPricesAndVolumes(t *testing.T) {
	p := newTestPipeline(t)
	createUSDCPool(t, p)

	ts := dayStart + 3600
	out := process(t, p, swapBlock(2, ts, "0xswap"))

	bundle := requireChange(t, out, ENTITY_BUNDLE, BUNDLE_ID)
	assert.Equal(t, models.ENTITY_OPERATION_CREATE, bundle.Operation)
	assertDecimalField(t, bundle, "ethPrice", "2000")

	assertDecimalField(t, requireChange(t, out, ENTITY_TOKEN, weth), "derivedETH", "1")
	assertDecimalField(t, requireChange(t, out, ENTITY_TOKEN, usdc), "derivedETH", "0.0005")

	swap := requireChange(t, out, ENTITY_SWAP, "0xswap#1")
	assertDecimalField(t, swap, "amount0In", "2000")
	assertDecimalField(t, swap, "amount1Out", "1")
	assertDecimalField(t, swap, "amountUSD", "2000")
	assertField(t, swap, "sender", router)
	assertField(t, swap, "to", userX)
	assertField(t, swap, "from", deployer)

	pair := requireChange(t, out, ENTITY_PAIR, poolUSDC)
	assertDecimalField(t, pair, "reserve0", "200000")
	assertDecimalField(t, pair, "reserve1", "100")
	assertDecimalField(t, pair, "token0Price", "2000")
	assertDecimalField(t, pair, "token1Price", "0.0005")
	assertDecimalField(t, pair, "txCount", "1")
	assertDecimalField(t, pair, "volumeToken0", "2000")
	assertDecimalField(t, pair, "volumeToken1", "1")
	assertDecimalField(t, pair, "volumeUSD", "2000")
	assertDecimalField(t, pair, "feesUSD", "6")
	assertDecimalField(t, pair, "totalValueLockedToken0", "200000")
	assertDecimalField(t, pair, "totalValueLockedToken1", "100")
	assertDecimalField(t, pair, "totalValueLockedETH", "200")
	assertDecimalField(t, pair, "totalValueLockedUSD", "400000")

	factory := requireChange(t, out, ENTITY_FACTORY, testFactory)
	assertDecimalField(t, factory, "txCount", "1")
	assertDecimalField(t, factory, "totalVolumeUSD", "2000")
	assertDecimalField(t, factory, "totalVolumeETH", "1")
	assertDecimalField(t, factory, "totalFeesUSD", "6")
	assertDecimalField(t, factory, "totalValueLockedUSD", "400000")

	token := requireChange(t, out, ENTITY_TOKEN, usdc)
	assertDecimalField(t, token, "txCount", "1")
	assertDecimalField(t, token, "volume", "2000")
	assertDecimalField(t, token, "volumeUSD", "2000")
	assertDecimalField(t, token, "totalValueLocked", "200000")
	assertDecimalField(t, token, "totalValueLockedUSD", "200000")

	day := requireChange(t, out, ENTITY_UNISWAP_DAY_DATA, "19676")
	assert.Equal(t, models.ENTITY_OPERATION_CREATE, day.Operation)
	assertField(t, day, "date", "1700006400")
	assertDecimalField(t, day, "txCount", "1")
	assertDecimalField(t, day, "volumeUSD", "2000")
	assertDecimalField(t, day, "totalValueLockedUSD", "400000")

	pairDay := requireChange(t, out, ENTITY_PAIR_DAY_DATA, poolUSDC+"-19676")
	assertField(t, pairDay, "pair", poolUSDC)
	assertField(t, pairDay, "token0", usdc)
	assertDecimalField(t, pairDay, "volumeUSD", "2000")
	assertDecimalField(t, pairDay, "reserve0", "200000")

	tokenHour := requireChange(t, out, ENTITY_TOKEN_HOUR_DATA, usdc+"-472225")
	assertField(t, tokenHour, "token", usdc)
	assertField(t, tokenHour, "periodStartUnix", "1700010000")
	assertDecimalField(t, tokenHour, "volumeUSD", "2000")
}

func TestProcess_UsesOracleRoundForBundle(t *testing.T) {
	p := newTestPipeline(t)
	createUSDCPool(t, p)

	b := swapBlock(2, dayStart+3600, "0xswap")
	b.OracleRound = &models.OracleRound{
		RoundID:  big.NewInt(42),
		Answer:   big.NewInt(250000000000),
		Decimals: 8,
	}
	out := process(t, p, b)

	bundle := requireChange(t, out, ENTITY_BUNDLE, BUNDLE_ID)
	assertDecimalField(t, bundle, "ethPrice", "2500")
	assertDecimalField(t, bundle, "oracleRoundId", "42")
}

func TestProcess_SwapWithoutPricesHasNoVolume(t *testing.T) {
	p := newTestPipeline(t)
	createPoolP(t, p)

	out := process(t, p, block(2, dayStart+120,
		tx("0xswap", swapLog(0, poolP, units(5, 18), big.NewInt(0), big.NewInt(0), units(4, 18))),
	))

	swap := requireChange(t, out, ENTITY_SWAP, "0xswap#1")
	assertDecimalField(t, swap, "amountUSD", "0")
	assertDecimalField(t, swap, "amount0", "-5")
	assertDecimalField(t, swap, "amount1", "4")

	pair := requireChange(t, out, ENTITY_PAIR, poolP)
	assertDecimalField(t, pair, "txCount", "1")
	_, ok := pair.Field("volumeUSD")
	assert.False(t, ok)
}

func TestProcess_PricesLowUnitPriceToken(t *testing.T) {
	p := newTestPipeline(t)
	poolA := "0x0000000000000000000000000000000000000c03"
	process(t, p, block(1, dayStart+60,
		tx("0xcreate", pairCreatedLog(0, poolA, testToken(tokenA, "A", 18), testToken(weth, "WETH", 18))),
	))

	// 1e19 A against 100 WETH, one A is worth 1e-17 ETH
	reserveA := new(big.Int).Exp(big.NewInt(10), big.NewInt(37), nil)
	out := process(t, p, block(2, dayStart+120,
		tx("0xsync", syncLog(0, poolA, reserveA, units(100, 18))),
	))

	pair := requireChange(t, out, ENTITY_PAIR, poolA)
	assertDecimalField(t, pair, "token0Price", "100000000000000000")
	assertDecimalField(t, pair, "token1Price", "0.00000000000000001")
	assertDecimalField(t, requireChange(t, out, ENTITY_TOKEN, tokenA), "derivedETH", "0.00000000000000001")
}

func TestProcess_DayBucketRetention(t *testing.T) {
	p := newTestPipeline(t)
	createUSDCPool(t, p)

	day := dayStart + 3600
	process(t, p, swapBlock(2, day, "0xday"))

	volumes := p.Stores().SwapVolumes
	dayKey := "UniswapDayData:19676:volumeUSD"
	assert.True(t, volumes.HasLast(dayKey))

	process(t, p, block(3, day+600,
		tx("0xsameday", swapLog(0, poolUSDC, units(2000, 6), big.NewInt(0), big.NewInt(0), units(1, 18))),
	))
	value, ok := volumes.GetLast(dayKey)
	require.True(t, ok, "the current day stays queryable")
	assert.True(t, value.Equal(decimal.NewFromInt(4000)))

	nextDay := day + 86400
	out := process(t, p, block(4, nextDay,
		tx("0xnextday", swapLog(0, poolUSDC, units(2000, 6), big.NewInt(0), big.NewInt(0), units(1, 18))),
	))

	assert.False(t, volumes.HasLast(dayKey), "the previous day is dropped once the next one starts")
	assert.True(t, volumes.HasLast("UniswapDayData:19677:volumeUSD"))

	next := requireChange(t, out, ENTITY_UNISWAP_DAY_DATA, "19677")
	assert.Equal(t, models.ENTITY_OPERATION_CREATE, next.Operation)
	assertDecimalField(t, next, "volumeUSD", "2000")
	_, ok = findChange(out, ENTITY_UNISWAP_DAY_DATA, "19676")
	assert.False(t, ok)

	factory := requireChange(t, out, ENTITY_FACTORY, testFactory)
	assertDecimalField(t, factory, "totalVolumeUSD", "6000")
}

func TestProcess_Errors(t *testing.T) {
	t.Run("missing timestamp", func(t *testing.T) {
		p := newTestPipeline(t)
		_, err := p.Process(block(1, 0))
		assert.ErrorIs(t, err, ErrMissingTimestamp)
	})

	t.Run("uncommitted block", func(t *testing.T) {
		p := newTestPipeline(t)
		_, err := p.Process(block(1, dayStart))
		require.NoError(t, err)

		_, err = p.Process(block(2, dayStart+12))
		assert.ErrorIs(t, err, ErrUncommittedBlock)
	})

	t.Run("out of order", func(t *testing.T) {
		p := newTestPipeline(t)
		process(t, p, block(5, dayStart))

		_, err := p.Process(block(5, dayStart))
		assert.ErrorIs(t, err, ErrBlockOutOfOrder)
		_, err = p.Process(block(4, dayStart))
		assert.ErrorIs(t, err, ErrBlockOutOfOrder)
	})

	t.Run("resume", func(t *testing.T) {
		p := newTestPipeline(t)
		p.Resume(10)

		_, err := p.Process(block(10, dayStart))
		assert.ErrorIs(t, err, ErrBlockOutOfOrder)
		_, err = p.Process(block(11, dayStart))
		assert.NoError(t, err)
	})

	t.Run("malformed log", func(t *testing.T) {
		p := newTestPipeline(t)
		lg := pairCreatedLog(0, poolP, testToken(tokenA, "A", 18), testToken(tokenB, "B", 18))
		lg.PairCreated = nil

		_, err := p.Process(block(1, dayStart, tx("0xbad", lg)))
		assert.ErrorIs(t, err, ErrMalformedLog)
	})
}
