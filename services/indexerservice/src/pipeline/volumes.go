package pipeline

import (
	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/alexkalak/go_dex_metrics/common/core/windows"
	"github.com/alexkalak/go_dex_metrics/common/helpers/mathhelper"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const FEE_TIER_DENOMINATOR = 1000000

func tokenKey(token string, parts ...string) string {
	return kvstore.Key(append([]string{"token", token}, parts...)...)
}

// uniswapDayKey is the day tx count key. Unlike every other window key it has no field.
func uniswapDayKey(timestamp uint64) string {
	return windows.UniswapDayData.Key(timestamp)
}

func (p *Pipeline) storeTxCounts(bc *blockContext) {
	windows.Prune(p.stores.TxCounts, bc.timestamp, windows.AllTables...)

	ts := bc.timestamp
	one := decimal.NewFromInt(1)
	for _, event := range bc.extracted.events {
		p.stores.TxCounts.AddMany(event.LogOrdinal, []string{
			poolKey(event.PoolAddress),
			tokenKey(event.Token0),
			tokenKey(event.Token1),
			kvstore.Key("factory", p.config.Factory),
			uniswapDayKey(ts),
			windows.PoolDayData.Key(ts, event.PoolAddress),
			windows.PoolHourData.Key(ts, event.PoolAddress),
			windows.TokenDayData.Key(ts, event.Token0),
			windows.TokenDayData.Key(ts, event.Token1),
			windows.TokenHourData.Key(ts, event.Token0),
			windows.TokenHourData.Key(ts, event.Token1),
			windows.TokenMinuteData.Key(ts, event.Token0),
			windows.TokenMinuteData.Key(ts, event.Token1),
		}, one)
	}
}

// storeEthPrices prices both tokens of every synced pair and records the bundle price
// used for them.
func (p *Pipeline) storeEthPrices(bc *blockContext) {
	windows.Prune(p.stores.EthPrices, bc.timestamp, windows.TokenTables...)

	ts := bc.timestamp
	for _, reserves := range bc.extracted.reserves {
		ord := reserves.Ordinal
		pair, ok := p.stores.Pools.GetLast(pairKey(reserves.PoolAddress))
		if !ok {
			continue
		}
		token0 := pair.Token0.Address
		token1 := pair.Token1.Address

		bundlePrice, roundID := p.oracle.BundlePrice(ord, bc.block.OracleRound)
		token0EthPrice := p.oracle.FindEthPerToken(ord, token0, bundlePrice)
		token1EthPrice := p.oracle.FindEthPerToken(ord, token1, bundlePrice)

		p.stores.EthPrices.Set(ord, "bundle", bundlePrice)
		p.stores.EthPrices.Set(ord, "bundle:roundId", roundID)
		p.stores.EthPrices.Set(ord, tokenKey(token0, "dprice", "eth"), token0EthPrice)
		p.stores.EthPrices.Set(ord, tokenKey(token1, "dprice", "eth"), token1EthPrice)

		if reserves.Initialized {
			continue
		}

		p.stores.EthPrices.SetMany(ord, []string{
			windows.TokenDayData.Key(ts, token0),
			windows.TokenHourData.Key(ts, token0),
			windows.TokenMinuteData.Key(ts, token0),
		}, token0EthPrice.Mul(bundlePrice))
		p.stores.EthPrices.SetMany(ord, []string{
			windows.TokenDayData.Key(ts, token1),
			windows.TokenHourData.Key(ts, token1),
			windows.TokenMinuteData.Key(ts, token1),
		}, token1EthPrice.Mul(bundlePrice))
	}
}

// storeSwapVolumes accumulates volumes and fees of swaps, and counts mints per pool.
// Events of pools without a tx count and swaps without prices are skipped.
func (p *Pipeline) storeSwapVolumes(bc *blockContext) {
	windows.Prune(p.stores.SwapVolumes, bc.timestamp, windows.AllTables...)

	for _, event := range bc.extracted.events {
		if !p.stores.TxCounts.HasLast(poolKey(event.PoolAddress)) {
			continue
		}

		switch event.Type {
		case models.POOL_EVENT_MINT:
			p.stores.SwapVolumes.Add(event.LogOrdinal, poolKey(event.PoolAddress, "liquidityProviderCount"), decimal.NewFromInt(1))
		case models.POOL_EVENT_SWAP:
			p.addSwapVolume(bc, event)
		}
	}
}

type swapVolume struct {
	amount0      decimal.Decimal
	amount1      decimal.Decimal
	volumeETH    decimal.Decimal
	volumeUSD    decimal.Decimal
	untrackedUSD decimal.Decimal
	feeETH       decimal.Decimal
	feeUSD       decimal.Decimal
}

// valueSwap prices a swap as of its ordinal. Tracked amounts count both legs, so volume is half.
func (p *Pipeline) valueSwap(event models.PoolEvent) (swapVolume, bool) {
	ord := event.LogOrdinal

	bundlePrice, ok := p.stores.EthPrices.GetAt(ord, "bundle")
	if !ok {
		p.logger.Debug("bundle price not found", zap.String("tx", event.TransactionID))
		return swapVolume{}, false
	}
	token0EthPrice, ok := p.stores.EthPrices.GetAt(ord, tokenKey(event.Token0, "dprice", "eth"))
	if !ok {
		return swapVolume{}, false
	}
	token1EthPrice, ok := p.stores.EthPrices.GetAt(ord, tokenKey(event.Token1, "dprice", "eth"))
	if !ok {
		return swapVolume{}, false
	}

	amount0 := event.Amount0.Abs()
	amount1 := event.Amount1.Abs()
	tracked := p.oracle.TrackedAmounts(event.Token0, event.Token1, amount0, amount1, token0EthPrice, token1EthPrice, bundlePrice)

	two := decimal.NewFromInt(2)
	volume := swapVolume{
		amount0:      amount0,
		amount1:      amount1,
		volumeETH:    mathhelper.SafeDiv(tracked.ETH, two),
		volumeUSD:    mathhelper.SafeDiv(tracked.USD, two),
		untrackedUSD: mathhelper.SafeDiv(tracked.UntrackedUSD, two),
	}

	feeTier, err := decimal.NewFromString(event.FeeTier)
	if err != nil {
		p.logger.Warn("invalid fee tier", zap.String("pool", event.PoolAddress), zap.String("fee_tier", event.FeeTier))
		feeTier = decimal.Zero
	}
	denominator := decimal.NewFromInt(FEE_TIER_DENOMINATOR)
	volume.feeETH = mathhelper.SafeDiv(volume.volumeETH.Mul(feeTier), denominator)
	volume.feeUSD = mathhelper.SafeDiv(volume.volumeUSD.Mul(feeTier), denominator)

	return volume, true
}

func (p *Pipeline) addSwapVolume(bc *blockContext, event models.PoolEvent) {
	volume, ok := p.valueSwap(event)
	if !ok {
		return
	}

	ord := event.LogOrdinal
	ts := bc.timestamp
	pool := event.PoolAddress
	token0 := event.Token0
	token1 := event.Token1
	out := p.stores.SwapVolumes

	out.AddMany(ord, []string{
		poolKey(pool, "volumeToken0"),
		tokenKey(token0, "volume"),
		windows.PoolDayData.Key(ts, pool, token0, "volumeToken0"),
		windows.TokenDayData.Key(ts, token0, "volume"),
		windows.PoolHourData.Key(ts, pool, token0, "volumeToken0"),
		windows.TokenHourData.Key(ts, token0, "volume"),
		windows.TokenMinuteData.Key(ts, token0, "volume"),
	}, volume.amount0)
	out.AddMany(ord, []string{
		poolKey(pool, "volumeToken1"),
		tokenKey(token1, "volume"),
		windows.PoolDayData.Key(ts, pool, token1, "volumeToken1"),
		windows.TokenDayData.Key(ts, token1, "volume"),
		windows.PoolHourData.Key(ts, pool, token1, "volumeToken1"),
		windows.TokenHourData.Key(ts, token1, "volume"),
		windows.TokenMinuteData.Key(ts, token1, "volume"),
	}, volume.amount1)
	out.AddMany(ord, []string{
		poolKey(pool, "volumeUSD"),
		tokenKey(token0, "volume", "usd"),
		tokenKey(token1, "volume", "usd"),
		"factory:totalVolumeUSD",
		windows.UniswapDayData.Key(ts, "volumeUSD"),
		windows.PoolDayData.Key(ts, pool, "volumeUSD"),
		windows.TokenDayData.Key(ts, token0, "volumeUSD"),
		windows.TokenDayData.Key(ts, token1, "volumeUSD"),
		windows.PoolHourData.Key(ts, pool, "volumeUSD"),
		windows.TokenHourData.Key(ts, token0, "volumeUSD"),
		windows.TokenHourData.Key(ts, token1, "volumeUSD"),
		windows.TokenMinuteData.Key(ts, token0, "volumeUSD"),
		windows.TokenMinuteData.Key(ts, token1, "volumeUSD"),
	}, volume.volumeUSD)
	out.AddMany(ord, []string{
		"factory:untrackedVolumeUSD",
		poolKey(pool, "volumeUntrackedUSD"),
		tokenKey(token0, "volume", "untrackedUSD"),
		tokenKey(token1, "volume", "untrackedUSD"),
		windows.TokenDayData.Key(ts, token0, "volume", "untrackedUSD"),
		windows.TokenDayData.Key(ts, token1, "volume", "untrackedUSD"),
		windows.TokenHourData.Key(ts, token0, "volume", "untrackedUSD"),
		windows.TokenHourData.Key(ts, token1, "volume", "untrackedUSD"),
		windows.TokenMinuteData.Key(ts, token0, "volume", "untrackedUSD"),
		windows.TokenMinuteData.Key(ts, token1, "volume", "untrackedUSD"),
	}, volume.untrackedUSD)
	out.AddMany(ord, []string{
		"factory:totalVolumeETH",
		windows.UniswapDayData.Key(ts, "volumeETH"),
	}, volume.volumeETH)
	out.AddMany(ord, []string{
		poolKey(pool, "feesUSD"),
		tokenKey(token0, "feesUSD"),
		tokenKey(token1, "feesUSD"),
		"factory:totalFeesUSD",
		windows.UniswapDayData.Key(ts, "feesUSD"),
		windows.PoolDayData.Key(ts, pool, "feesUSD"),
		windows.TokenDayData.Key(ts, token0, "feesUSD"),
		windows.TokenDayData.Key(ts, token1, "feesUSD"),
		windows.PoolHourData.Key(ts, pool, "feesUSD"),
		windows.TokenHourData.Key(ts, token0, "feesUSD"),
		windows.TokenHourData.Key(ts, token1, "feesUSD"),
		windows.TokenMinuteData.Key(ts, token0, "feesUSD"),
		windows.TokenMinuteData.Key(ts, token1, "feesUSD"),
	}, volume.feeUSD)
	out.Add(ord, "factory:totalFeesETH", volume.feeETH)
}
