package pipeline

import (
	"strings"

	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/alexkalak/go_dex_metrics/common/core/windows"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// nativeKeyParts splits "pool:{pool}:{token}:native".
func nativeKeyParts(key string) (string, string, bool) {
	if !strings.HasPrefix(key, "pool"+kvstore.KeySeparator) || kvstore.LastSegment(key) != "native" {
		return "", "", false
	}
	pool, ok := kvstore.SegmentAt(key, 1)
	if !ok {
		return "", "", false
	}
	token, ok := kvstore.SegmentAt(key, 2)
	if !ok {
		return "", "", false
	}
	return pool, token, true
}

func deltaDiff(delta kvstore.Delta[decimal.Decimal]) decimal.Decimal {
	return delta.NewValue.Sub(delta.OldValue)
}

// storeTokenTVL follows reserve changes into per pool and per token locked amounts.
func (p *Pipeline) storeTokenTVL(bc *blockContext) {
	for _, delta := range p.stores.NativeAmounts.Deltas() {
		if delta.Operation == kvstore.OperationDelete {
			continue
		}
		poolAddress, token, ok := nativeKeyParts(delta.Key)
		if !ok {
			continue
		}
		pair, ok := p.stores.Pools.GetLast(pairKey(poolAddress))
		if !ok {
			continue
		}
		tokenIndex, ok := pair.TokenIndex(token)
		if !ok {
			continue
		}

		p.stores.TokenTVL.AddMany(delta.Ordinal, []string{
			poolKey(poolAddress, token, tokenIndex),
			tokenKey(token),
		}, deltaDiff(delta))
	}
}

// storeDerivedTVL values pools and tokens in ETH and USD after every reserve change.
func (p *Pipeline) storeDerivedTVL(bc *blockContext) {
	windows.Prune(p.stores.DerivedTVL, bc.timestamp, windows.PriceTables...)

	ts := bc.timestamp
	for _, delta := range p.stores.NativeAmounts.Deltas() {
		if delta.Operation == kvstore.OperationDelete {
			continue
		}
		poolAddress, _, ok := nativeKeyParts(delta.Key)
		if !ok {
			continue
		}
		ord := delta.Ordinal

		bundlePrice, ok := p.stores.EthPrices.GetAt(ord, "bundle")
		if !ok {
			p.logger.Debug("bundle price not found", zap.String("pool", poolAddress))
			continue
		}
		pair, ok := p.stores.Pools.GetLast(pairKey(poolAddress))
		if !ok {
			continue
		}
		token0 := pair.Token0.Address
		token1 := pair.Token1.Address

		token0EthPrice := orZero(p.stores.EthPrices.GetAt(ord, tokenKey(token0, "dprice", "eth")))
		token1EthPrice := orZero(p.stores.EthPrices.GetAt(ord, tokenKey(token1, "dprice", "eth")))

		reserve0, ok := p.stores.NativeAmounts.GetAt(ord, poolKey(poolAddress, token0, "native"))
		if !ok {
			continue
		}
		reserve1, ok := p.stores.NativeAmounts.GetAt(ord, poolKey(poolAddress, token1, "native"))
		if !ok {
			continue
		}

		token0TVL := orZero(p.stores.TokenTVL.GetAt(ord, tokenKey(token0)))
		token1TVL := orZero(p.stores.TokenTVL.GetAt(ord, tokenKey(token1)))

		amounts := p.oracle.TrackedAmounts(token0, token1, reserve0, reserve1, token0EthPrice, token1EthPrice, bundlePrice)

		p.stores.DerivedTVL.SetMany(ord, []string{
			tokenKey(token0, "totalValueLockedUSD"),
			windows.TokenDayData.Key(ts, token0, "totalValueLockedUSD"),
			windows.TokenHourData.Key(ts, token0, "totalValueLockedUSD"),
			windows.TokenMinuteData.Key(ts, token0, "totalValueLockedUSD"),
		}, token0TVL.Mul(token0EthPrice.Mul(bundlePrice)))
		p.stores.DerivedTVL.SetMany(ord, []string{
			tokenKey(token1, "totalValueLockedUSD"),
			windows.TokenDayData.Key(ts, token1, "totalValueLockedUSD"),
			windows.TokenHourData.Key(ts, token1, "totalValueLockedUSD"),
			windows.TokenMinuteData.Key(ts, token1, "totalValueLockedUSD"),
		}, token1TVL.Mul(token1EthPrice.Mul(bundlePrice)))

		p.stores.DerivedTVL.Set(ord, poolKey(poolAddress, "totalValueLockedETH"), amounts.ETH)
		p.stores.DerivedTVL.SetMany(ord, []string{
			poolKey(poolAddress, "totalValueLockedUSD"),
			windows.PoolDayData.Key(ts, poolAddress, "totalValueLockedUSD"),
			windows.PoolHourData.Key(ts, poolAddress, "totalValueLockedUSD"),
		}, amounts.USD)
		p.stores.DerivedTVL.Set(ord, poolKey(poolAddress, "totalValueLockedETHUntracked"), amounts.UntrackedETH)
		p.stores.DerivedTVL.Set(ord, poolKey(poolAddress, "totalValueLockedUSDUntracked"), amounts.UntrackedUSD)
	}
}

// storeFactoryTVL sums the changes of pool TVLs into the factory totals.
func (p *Pipeline) storeFactoryTVL(bc *blockContext) {
	windows.Prune(p.stores.FactoryTVL, bc.timestamp, windows.UniswapDayData)

	for _, delta := range p.stores.DerivedTVL.Deltas() {
		if delta.Operation == kvstore.OperationDelete || kvstore.FirstSegment(delta.Key) != "pool" {
			continue
		}
		diff := deltaDiff(delta)

		switch kvstore.LastSegment(delta.Key) {
		case "totalValueLockedETH":
			p.stores.FactoryTVL.Add(delta.Ordinal, "factory:totalValueLockedETH", diff)
		case "totalValueLockedETHUntracked":
			p.stores.FactoryTVL.Add(delta.Ordinal, "factory:totalValueLockedETHUntracked", diff)
		case "totalValueLockedUSD":
			p.stores.FactoryTVL.AddMany(delta.Ordinal, []string{
				"factory:totalValueLockedUSD",
				windows.UniswapDayData.Key(bc.timestamp, "totalValueLockedUSD"),
			}, diff)
		case "totalValueLockedUSDUntracked":
			p.stores.FactoryTVL.Add(delta.Ordinal, "factory:totalValueLockedUSDUntracked", diff)
		}
	}
}

func (p *Pipeline) storeMinWindows(bc *blockContext) {
	windows.Prune(p.stores.MinWindows, bc.timestamp, windows.PriceTables...)
	windows.ApplyLows(p.stores.MinWindows, p.stores.Prices.Deltas(), p.stores.EthPrices.Deltas())
}

func (p *Pipeline) storeMaxWindows(bc *blockContext) {
	windows.Prune(p.stores.MaxWindows, bc.timestamp, windows.PriceTables...)
	windows.ApplyHighs(p.stores.MaxWindows, p.stores.Prices.Deltas(), p.stores.EthPrices.Deltas())
}

// orZero reads an optional value as zero.
func orZero(value decimal.Decimal, ok bool) decimal.Decimal {
	if !ok {
		return decimal.Zero
	}
	return value
}
