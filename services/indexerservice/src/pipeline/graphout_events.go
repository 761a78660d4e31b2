package pipeline

import (
	"sort"

	"github.com/alexkalak/go_dex_metrics/common/core/entitytables"
	"github.com/alexkalak/go_dex_metrics/common/core/lpcorrelation"
	"github.com/alexkalak/go_dex_metrics/common/helpers/addresshelper"
	"github.com/alexkalak/go_dex_metrics/common/helpers/mathhelper"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/shopspring/decimal"
)

// users creates a User for every address that traded, provided liquidity or moved LP tokens.
func (g *graphOut) users() {
	seen := map[string]uint64{}
	add := func(address string, ordinal uint64) {
		if address == "" || addresshelper.IsZero(address) {
			return
		}
		if _, ok := seen[address]; ok {
			return
		}
		seen[address] = ordinal
	}

	for _, event := range g.bc.extracted.events {
		add(event.Sender, event.LogOrdinal)
		add(event.Recipient, event.LogOrdinal)
		add(event.Owner, event.LogOrdinal)
	}
	for _, user := range g.bc.extracted.transferUsers {
		add(user.ID, user.Ordinal)
	}

	users := make([]string, 0, len(seen))
	for user := range seen {
		users = append(users, user)
	}
	sort.Strings(users)

	for _, user := range users {
		g.tables.CreateRow(seen[user], ENTITY_USER, user)
	}
}

func (g *graphOut) transactions() {
	for _, tx := range g.bc.extracted.transactions {
		g.tables.CreateRow(tx.Ordinal, ENTITY_TRANSACTION, tx.ID).
			Set("blockNumber", tx.BlockNumber).
			Set("timestamp", tx.Timestamp).
			Set("from", tx.From).
			Set("to", tx.To)
	}
}

// poolEvents creates Swap, Mint and Burn rows. The fee mint of a transaction and pair is
// attached to its first Mint or Burn.
func (g *graphOut) poolEvents() {
	feeMintClaimed := map[string]struct{}{}

	for _, event := range g.bc.extracted.events {
		id := g.eventID(event)

		var row *entitytables.Row
		switch event.Type {
		case models.POOL_EVENT_SWAP:
			row = g.swapRow(event, id)
		case models.POOL_EVENT_MINT:
			row = g.tables.CreateRow(event.LogOrdinal, ENTITY_MINT, id).
				Set("sender", event.Sender).
				Set("to", event.Owner).
				Set("liquidity", mathhelper.ConvertTokenToDecimal(event.Liquidity, lpcorrelation.LP_TOKEN_DECIMALS)).
				Set("amount0", event.Amount0).
				Set("amount1", event.Amount1).
				Set("amountUSD", g.liquidityValueUSD(event))
		case models.POOL_EVENT_BURN:
			row = g.tables.CreateRow(event.LogOrdinal, ENTITY_BURN, id).
				Set("sender", event.Sender).
				Set("to", event.Recipient).
				Set("liquidity", mathhelper.ConvertTokenToDecimal(event.Liquidity, lpcorrelation.LP_TOKEN_DECIMALS)).
				Set("amount0", event.Amount0.Abs()).
				Set("amount1", event.Amount1.Abs()).
				Set("amountUSD", g.liquidityValueUSD(event)).
				Set("needsComplete", false)
		default:
			continue
		}

		row.Set("transaction", event.TransactionID).
			Set("timestamp", event.Timestamp).
			Set("pair", event.PoolAddress).
			Set("origin", event.Origin).
			Set("logIndex", event.LogIndex)

		if event.Type == models.POOL_EVENT_SWAP {
			continue
		}
		key := lpcorrelation.FeeMintKey(event.TransactionID, event.PoolAddress)
		feeMint, ok := g.bc.extracted.feeMints[key]
		if !ok {
			continue
		}
		if _, claimed := feeMintClaimed[key]; claimed {
			continue
		}
		feeMintClaimed[key] = struct{}{}
		row.Set("feeTo", feeMint.FeeTo).Set("feeLiquidity", feeMint.Liquidity)
	}
}

// eventID is "{transaction}#{pair tx count}", unique per pair as every event bumps the count.
func (g *graphOut) eventID(event models.PoolEvent) string {
	count := orZero(g.p.stores.TxCounts.GetAt(event.LogOrdinal, poolKey(event.PoolAddress)))
	return event.TransactionID + "#" + count.String()
}

func (g *graphOut) swapRow(event models.PoolEvent, id string) *entitytables.Row {
	amountUSD := decimal.Zero
	if volume, ok := g.p.valueSwap(event); ok {
		amountUSD = volume.volumeUSD
	}

	return g.tables.CreateRow(event.LogOrdinal, ENTITY_SWAP, id).
		Set("sender", event.Sender).
		Set("to", event.Recipient).
		Set("from", event.Origin).
		Set("amount0In", event.Amount0In).
		Set("amount1In", event.Amount1In).
		Set("amount0Out", event.Amount0Out).
		Set("amount1Out", event.Amount1Out).
		Set("amount0", event.Amount0).
		Set("amount1", event.Amount1).
		Set("amountUSD", amountUSD)
}

// liquidityValueUSD values both deposited or withdrawn sides at their derived prices.
func (g *graphOut) liquidityValueUSD(event models.PoolEvent) decimal.Decimal {
	ord := event.LogOrdinal
	bundlePrice := orZero(g.p.stores.EthPrices.GetAt(ord, "bundle"))
	token0EthPrice := orZero(g.p.stores.EthPrices.GetAt(ord, tokenKey(event.Token0, "dprice", "eth")))
	token1EthPrice := orZero(g.p.stores.EthPrices.GetAt(ord, tokenKey(event.Token1, "dprice", "eth")))

	return event.Amount0.Abs().Mul(token0EthPrice).
		Add(event.Amount1.Abs().Mul(token1EthPrice)).
		Mul(bundlePrice)
}
