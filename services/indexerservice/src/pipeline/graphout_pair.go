package pipeline

import (
	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/alexkalak/go_dex_metrics/common/helpers/mathhelper"
	"github.com/shopspring/decimal"
)

var pairTotals = []string{
	"reserve0",
	"reserve1",
	"liquidity",
	"token0Price",
	"token1Price",
	"txCount",
	"volumeToken0",
	"volumeToken1",
	"volumeUSD",
	"untrackedVolumeUSD",
	"feesUSD",
	"liquidityProviderCount",
	"totalValueLockedToken0",
	"totalValueLockedToken1",
	"totalValueLockedETH",
	"totalValueLockedUSD",
	"totalValueLockedETHUntracked",
	"totalValueLockedUSDUntracked",
}

func (g *graphOut) pairsCreated() {
	for _, pair := range g.bc.pairsCreated {
		row := g.tables.CreateRow(pair.LogOrdinal, ENTITY_PAIR, pair.Address)
		row.Set("token0", pair.Token0.Address).
			Set("token1", pair.Token1.Address).
			Set("feeTier", pair.FeeTier).
			Set("createdAtTimestamp", pair.CreatedAtTimestamp).
			Set("createdAtBlockNumber", pair.CreatedAtBlockNumber).
			Set("transaction", pair.TransactionID)
		for _, field := range pairTotals {
			row.Set(field, decimal.Zero)
		}
	}
}

func (g *graphOut) pairReserves() {
	for _, delta := range liveDeltas(g.p.stores.Reserves.Deltas()) {
		reserves := delta.NewValue
		pair, ok := g.p.stores.Pools.GetLast(pairKey(reserves.PoolAddress))
		if !ok {
			continue
		}

		g.tables.UpdateRow(delta.Ordinal, ENTITY_PAIR, pair.Address).
			Set("reserve0", mathhelper.ConvertTokenToDecimal(reserves.Reserve0, pair.Token0.Decimals)).
			Set("reserve1", mathhelper.ConvertTokenToDecimal(reserves.Reserve1, pair.Token1.Decimals))
	}
}

// poolDeltas calls apply for live "pool:{pool}[:...]" deltas with the pool and the key suffix.
func poolDeltas(deltas []kvstore.Delta[decimal.Decimal], apply func(pool, suffix string, delta kvstore.Delta[decimal.Decimal])) {
	for _, delta := range liveDeltas(deltas) {
		if kvstore.FirstSegment(delta.Key) != "pool" {
			continue
		}
		pool, ok := kvstore.SegmentAt(delta.Key, 1)
		if !ok {
			continue
		}
		apply(pool, keySuffix(delta.Key, 2), delta)
	}
}

func (g *graphOut) pairLiquidities() {
	poolDeltas(g.p.stores.Liquidities.Deltas(), func(pool, suffix string, delta kvstore.Delta[decimal.Decimal]) {
		if suffix != "" {
			return
		}
		g.tables.UpdateRow(delta.Ordinal, ENTITY_PAIR, pool).Set("liquidity", delta.NewValue)
	})
}

func (g *graphOut) pairTVL() {
	poolDeltas(g.p.stores.DerivedTVL.Deltas(), func(pool, suffix string, delta kvstore.Delta[decimal.Decimal]) {
		g.tables.UpdateRow(delta.Ordinal, ENTITY_PAIR, pool).Set(suffix, delta.NewValue)
	})
}

// pairTokenTVL handles "pool:{pool}:{token}:token0|token1".
func (g *graphOut) pairTokenTVL() {
	poolDeltas(g.p.stores.TokenTVL.Deltas(), func(pool, suffix string, delta kvstore.Delta[decimal.Decimal]) {
		switch kvstore.LastSegment(suffix) {
		case "token0":
			g.tables.UpdateRow(delta.Ordinal, ENTITY_PAIR, pool).Set("totalValueLockedToken0", delta.NewValue)
		case "token1":
			g.tables.UpdateRow(delta.Ordinal, ENTITY_PAIR, pool).Set("totalValueLockedToken1", delta.NewValue)
		}
	})
}

func (g *graphOut) pairPrices() {
	poolDeltas(g.p.stores.Prices.Deltas(), func(pool, suffix string, delta kvstore.Delta[decimal.Decimal]) {
		switch kvstore.LastSegment(suffix) {
		case "token0":
			g.tables.UpdateRow(delta.Ordinal, ENTITY_PAIR, pool).Set("token0Price", delta.NewValue)
		case "token1":
			g.tables.UpdateRow(delta.Ordinal, ENTITY_PAIR, pool).Set("token1Price", delta.NewValue)
		}
	})
}

func (g *graphOut) pairTxCounts() {
	poolDeltas(g.p.stores.TxCounts.Deltas(), func(pool, suffix string, delta kvstore.Delta[decimal.Decimal]) {
		if suffix != "" {
			return
		}
		g.tables.UpdateRow(delta.Ordinal, ENTITY_PAIR, pool).Set("txCount", delta.NewValue)
	})
}

func (g *graphOut) pairVolumes() {
	poolDeltas(g.p.stores.SwapVolumes.Deltas(), func(pool, suffix string, delta kvstore.Delta[decimal.Decimal]) {
		if suffix == "" {
			return
		}
		g.tables.UpdateRow(delta.Ordinal, ENTITY_PAIR, pool).Set(volumeField(suffix), delta.NewValue)
	})
}

func (g *graphOut) pairTokenLookups() {
	for _, pair := range g.bc.pairsCreated {
		token0 := pair.Token0.Address
		token1 := pair.Token1.Address

		g.tables.CreateRow(pair.LogOrdinal, ENTITY_PAIR_TOKEN_LOOKUP, token0+"-"+token1).Set("pair", pair.Address)
		g.tables.CreateRow(pair.LogOrdinal, ENTITY_PAIR_TOKEN_LOOKUP, token1+"-"+token0).Set("pair", pair.Address)
	}
}
