package pipeline

import (
	"github.com/alexkalak/go_dex_metrics/common/core/entitytables"
	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/alexkalak/go_dex_metrics/common/core/windows"
	"github.com/shopspring/decimal"
)

func (g *graphOut) bundle() {
	for _, delta := range liveDeltas(g.p.stores.EthPrices.Deltas()) {
		switch delta.Key {
		case "bundle":
			g.row(delta.Operation, delta.Ordinal, ENTITY_BUNDLE, BUNDLE_ID).Set("ethPrice", delta.NewValue)
		case "bundle:roundId":
			g.tables.UpdateRow(delta.Ordinal, ENTITY_BUNDLE, BUNDLE_ID).Set("oracleRoundId", delta.NewValue)
		}
	}
}

func (g *graphOut) factoryPairCount() {
	for _, delta := range liveDeltas(g.p.stores.PairCount.Deltas()) {
		if delta.Key != "factory:pairCount" {
			continue
		}
		row := g.row(delta.Operation, delta.Ordinal, ENTITY_FACTORY, g.p.config.Factory)
		if delta.Operation == kvstore.OperationCreate {
			zeroFactory(row)
		}
		row.Set("pairCount", delta.NewValue)
	}
}

func (g *graphOut) factoryTxCount() {
	key := kvstore.Key("factory", g.p.config.Factory)
	for _, delta := range liveDeltas(g.p.stores.TxCounts.Deltas()) {
		if delta.Key != key {
			continue
		}
		g.tables.UpdateRow(delta.Ordinal, ENTITY_FACTORY, g.p.config.Factory).Set("txCount", delta.NewValue)
	}
}

func (g *graphOut) factoryVolumes() {
	g.factoryFields(g.p.stores.SwapVolumes.Deltas())
}

func (g *graphOut) factoryTVL() {
	g.factoryFields(g.p.stores.FactoryTVL.Deltas())
}

// factoryFields copies "factory:{field}" values onto the factory.
func (g *graphOut) factoryFields(deltas []kvstore.Delta[decimal.Decimal]) {
	for _, delta := range liveDeltas(deltas) {
		if kvstore.FirstSegment(delta.Key) != "factory" || kvstore.SegmentCount(delta.Key) != 2 {
			continue
		}
		g.tables.UpdateRow(delta.Ordinal, ENTITY_FACTORY, g.p.config.Factory).
			Set(kvstore.LastSegment(delta.Key), delta.NewValue)
	}
}

var factoryTotals = []string{
	"txCount",
	"totalVolumeUSD",
	"totalVolumeETH",
	"untrackedVolumeUSD",
	"totalFeesUSD",
	"totalFeesETH",
	"totalValueLockedETH",
	"totalValueLockedUSD",
	"totalValueLockedETHUntracked",
	"totalValueLockedUSDUntracked",
}

func zeroFactory(row *entitytables.Row) {
	for _, field := range factoryTotals {
		row.Set(field, decimal.Zero)
	}
}

// uniswapDayData creates day rows from the day tx count and fills volumes and TVL.
func (g *graphOut) uniswapDayData() {
	isDay := func(ref windowRef) bool {
		return ref.window.table == windows.UniswapDayData
	}

	g.windowDeltas(g.p.stores.TxCounts.Deltas(), isDay, func(ref windowRef, delta kvstore.Delta[decimal.Decimal]) {
		if ref.field != "" {
			return
		}
		row := g.windowRow(delta.Operation, delta.Ordinal, ref)
		row.Set("txCount", delta.NewValue)
	})
	g.windowDeltas(g.p.stores.SwapVolumes.Deltas(), isDay, func(ref windowRef, delta kvstore.Delta[decimal.Decimal]) {
		g.tables.UpdateRow(delta.Ordinal, ref.window.entity, ref.id()).Set(ref.field, delta.NewValue)
	})
	g.windowDeltas(g.p.stores.FactoryTVL.Deltas(), isDay, func(ref windowRef, delta kvstore.Delta[decimal.Decimal]) {
		g.tables.UpdateRow(delta.Ordinal, ref.window.entity, ref.id()).Set(ref.field, delta.NewValue)
	})
}
