package pipeline

import (
	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/alexkalak/go_dex_metrics/common/helpers/mathhelper"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/shopspring/decimal"
)

var tokenTotals = []string{
	"txCount",
	"volume",
	"volumeUSD",
	"untrackedVolumeUSD",
	"feesUSD",
	"totalValueLocked",
	"totalValueLockedUSD",
	"derivedETH",
}

// tokensCreated creates a token the first time a pair lists it.
func (g *graphOut) tokensCreated() {
	created := map[string]models.Token{}
	for _, pair := range g.bc.pairsCreated {
		created[pair.Token0.Address] = pair.Token0
		created[pair.Token1.Address] = pair.Token1
	}

	for _, delta := range liveDeltas(g.p.stores.Tokens.Deltas()) {
		if delta.Operation != kvstore.OperationCreate {
			continue
		}
		address, ok := kvstore.SegmentAt(delta.Key, 1)
		if !ok {
			continue
		}
		token, ok := created[address]
		if !ok {
			continue
		}

		row := g.tables.CreateRow(delta.Ordinal, ENTITY_TOKEN, address)
		row.Set("symbol", token.Symbol).
			Set("name", token.Name).
			Set("decimals", token.Decimals).
			Set("totalSupply", mathhelper.BigIntOrZero(token.TotalSupply)).
			Set("whitelistPairs", []string{})
		for _, field := range tokenTotals {
			row.Set(field, decimal.Zero)
		}
	}
}

// tokenDeltas calls apply for live "token:{token}[:...]" deltas with the token and the key suffix.
func tokenDeltas(deltas []kvstore.Delta[decimal.Decimal], apply func(token, suffix string, delta kvstore.Delta[decimal.Decimal])) {
	for _, delta := range liveDeltas(deltas) {
		if kvstore.FirstSegment(delta.Key) != "token" {
			continue
		}
		token, ok := kvstore.SegmentAt(delta.Key, 1)
		if !ok {
			continue
		}
		apply(token, keySuffix(delta.Key, 2), delta)
	}
}

func (g *graphOut) tokenVolumes() {
	tokenDeltas(g.p.stores.SwapVolumes.Deltas(), func(token, suffix string, delta kvstore.Delta[decimal.Decimal]) {
		if suffix == "" {
			return
		}
		g.tables.UpdateRow(delta.Ordinal, ENTITY_TOKEN, token).Set(volumeField(suffix), delta.NewValue)
	})
}

func (g *graphOut) tokenTxCounts() {
	tokenDeltas(g.p.stores.TxCounts.Deltas(), func(token, suffix string, delta kvstore.Delta[decimal.Decimal]) {
		if suffix != "" {
			return
		}
		g.tables.UpdateRow(delta.Ordinal, ENTITY_TOKEN, token).Set("txCount", delta.NewValue)
	})
}

func (g *graphOut) tokenTVL() {
	tokenDeltas(g.p.stores.TokenTVL.Deltas(), func(token, suffix string, delta kvstore.Delta[decimal.Decimal]) {
		if suffix != "" {
			return
		}
		g.tables.UpdateRow(delta.Ordinal, ENTITY_TOKEN, token).Set("totalValueLocked", delta.NewValue)
	})
}

func (g *graphOut) tokenTVLUSD() {
	tokenDeltas(g.p.stores.DerivedTVL.Deltas(), func(token, suffix string, delta kvstore.Delta[decimal.Decimal]) {
		if suffix != "totalValueLockedUSD" {
			return
		}
		g.tables.UpdateRow(delta.Ordinal, ENTITY_TOKEN, token).Set("totalValueLockedUSD", delta.NewValue)
	})
}

func (g *graphOut) tokenDerivedETH() {
	tokenDeltas(g.p.stores.EthPrices.Deltas(), func(token, suffix string, delta kvstore.Delta[decimal.Decimal]) {
		if suffix != "dprice:eth" {
			return
		}
		g.tables.UpdateRow(delta.Ordinal, ENTITY_TOKEN, token).Set("derivedETH", delta.NewValue)
	})
}

func (g *graphOut) tokenWhitelistPairs() {
	for _, delta := range liveDeltas(g.p.stores.WhitelistPools.Deltas()) {
		token, ok := kvstore.SegmentAt(delta.Key, 1)
		if !ok {
			continue
		}
		g.tables.UpdateRow(delta.Ordinal, ENTITY_TOKEN, token).Set("whitelistPairs", delta.NewValue)
	}
}
