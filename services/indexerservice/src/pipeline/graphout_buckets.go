package pipeline

import (
	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/alexkalak/go_dex_metrics/common/core/windows"
	"github.com/alexkalak/go_dex_metrics/common/helpers/mathhelper"
	"github.com/shopspring/decimal"
)

type windowDelta = kvstore.Delta[decimal.Decimal]

// setWindowField updates a field of an existing or created window row.
func (g *graphOut) setWindowField(ref windowRef, delta windowDelta, field string, value any) {
	g.tables.UpdateRow(delta.Ordinal, ref.window.entity, ref.id()).Set(field, value)
}

// ohlc maps min/max window fields and window prices onto open, high, low and close.
func (g *graphOut) ohlc(accept func(windowRef) bool) {
	g.windowDeltas(g.p.stores.MinWindows.Deltas(), accept, func(ref windowRef, delta windowDelta) {
		switch ref.field {
		case "open", "low":
			g.setWindowField(ref, delta, ref.field, delta.NewValue)
		}
	})
	g.windowDeltas(g.p.stores.MaxWindows.Deltas(), accept, func(ref windowRef, delta windowDelta) {
		if ref.field == "high" {
			g.setWindowField(ref, delta, "high", delta.NewValue)
		}
	})
}

func (g *graphOut) pairWindows() {
	g.windowDeltas(g.p.stores.TxCounts.Deltas(), isPairWindow, func(ref windowRef, delta windowDelta) {
		if ref.field != "" {
			return
		}
		g.windowRow(delta.Operation, delta.Ordinal, ref).Set("txCount", delta.NewValue)
	})
	g.windowDeltas(g.p.stores.SwapVolumes.Deltas(), isPairWindow, func(ref windowRef, delta windowDelta) {
		g.setWindowField(ref, delta, volumeField(ref.field), delta.NewValue)
	})
	g.windowDeltas(g.p.stores.Liquidities.Deltas(), isPairWindow, func(ref windowRef, delta windowDelta) {
		if ref.field == "" {
			g.setWindowField(ref, delta, "liquidity", delta.NewValue)
		}
	})
	g.windowDeltas(g.p.stores.DerivedTVL.Deltas(), isPairWindow, func(ref windowRef, delta windowDelta) {
		g.setWindowField(ref, delta, ref.field, delta.NewValue)
	})
	g.windowDeltas(g.p.stores.Prices.Deltas(), isPairWindow, func(ref windowRef, delta windowDelta) {
		switch ref.field {
		case "token0":
			g.setWindowField(ref, delta, "token0Price", delta.NewValue)
			g.setWindowField(ref, delta, "close", delta.NewValue)
		case "token1":
			g.setWindowField(ref, delta, "token1Price", delta.NewValue)
		}
	})
	g.ohlc(isPairWindow)

	for _, delta := range liveDeltas(g.p.stores.Reserves.Deltas()) {
		reserves := delta.NewValue
		pair, ok := g.p.stores.Pools.GetLast(pairKey(reserves.PoolAddress))
		if !ok {
			continue
		}
		reserve0 := mathhelper.ConvertTokenToDecimal(reserves.Reserve0, pair.Token0.Decimals)
		reserve1 := mathhelper.ConvertTokenToDecimal(reserves.Reserve1, pair.Token1.Decimals)

		for _, table := range windows.PoolTables {
			ref, _ := parseWindowKey(table.Key(g.bc.timestamp, pair.Address))
			g.tables.UpdateRow(delta.Ordinal, ref.window.entity, ref.id()).
				Set("reserve0", reserve0).
				Set("reserve1", reserve1)
		}
	}
}

func (g *graphOut) tokenWindows() {
	g.windowDeltas(g.p.stores.TxCounts.Deltas(), isTokenWindow, func(ref windowRef, delta windowDelta) {
		if ref.field != "" {
			return
		}
		g.windowRow(delta.Operation, delta.Ordinal, ref).Set("txCount", delta.NewValue)
	})
	g.windowDeltas(g.p.stores.SwapVolumes.Deltas(), isTokenWindow, func(ref windowRef, delta windowDelta) {
		g.setWindowField(ref, delta, volumeField(ref.field), delta.NewValue)
	})
	g.windowDeltas(g.p.stores.DerivedTVL.Deltas(), isTokenWindow, func(ref windowRef, delta windowDelta) {
		g.setWindowField(ref, delta, ref.field, delta.NewValue)
	})
	g.windowDeltas(g.p.stores.EthPrices.Deltas(), isTokenWindow, func(ref windowRef, delta windowDelta) {
		if ref.field != "" {
			return
		}
		g.setWindowField(ref, delta, "priceUSD", delta.NewValue)
		g.setWindowField(ref, delta, "close", delta.NewValue)
	})
	g.ohlc(isTokenWindow)

	// token TVL is not windowed in its store, it lands on the current buckets
	tokenDeltas(g.p.stores.TokenTVL.Deltas(), func(token, suffix string, delta kvstore.Delta[decimal.Decimal]) {
		if suffix != "" {
			return
		}
		for _, table := range windows.TokenTables {
			ref, _ := parseWindowKey(table.Key(g.bc.timestamp, token))
			g.setWindowField(ref, delta, "totalValueLocked", delta.NewValue)
		}
	})
}
