package pipeline

import (
	"strconv"
	"strings"

	"github.com/alexkalak/go_dex_metrics/common/core/entitytables"
	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/alexkalak/go_dex_metrics/common/core/windows"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/shopspring/decimal"
)

const (
	ENTITY_BUNDLE            = "Bundle"
	ENTITY_FACTORY           = "UniswapFactory"
	ENTITY_PAIR              = "Pair"
	ENTITY_TOKEN             = "Token"
	ENTITY_PAIR_TOKEN_LOOKUP = "PairTokenLookup"
	ENTITY_USER              = "User"
	ENTITY_TRANSACTION       = "Transaction"
	ENTITY_SWAP              = "Swap"
	ENTITY_MINT              = "Mint"
	ENTITY_BURN              = "Burn"
	ENTITY_UNISWAP_DAY_DATA  = "UniswapDayData"
	ENTITY_PAIR_DAY_DATA     = "PairDayData"
	ENTITY_PAIR_HOUR_DATA    = "PairHourData"
	ENTITY_TOKEN_DAY_DATA    = "TokenDayData"
	ENTITY_TOKEN_HOUR_DATA   = "TokenHourData"
	ENTITY_TOKEN_MINUTE_DATA = "TokenMinuteData"

	BUNDLE_ID = "1"
)

type graphOut struct {
	p      *Pipeline
	bc     *blockContext
	tables *entitytables.Tables
}

// entityChanges converts the store deltas and events of the block into entity rows.
func (p *Pipeline) entityChanges(bc *blockContext) []models.EntityChange {
	g := &graphOut{
		p:      p,
		bc:     bc,
		tables: entitytables.New(),
	}

	g.bundle()

	g.factoryPairCount()
	g.factoryTxCount()
	g.factoryVolumes()
	g.factoryTVL()

	g.pairsCreated()
	g.pairReserves()
	g.pairLiquidities()
	g.pairTVL()
	g.pairTokenTVL()
	g.pairPrices()
	g.pairTxCounts()
	g.pairVolumes()

	g.tokensCreated()
	g.tokenVolumes()
	g.tokenTxCounts()
	g.tokenTVL()
	g.tokenTVLUSD()
	g.tokenDerivedETH()
	g.tokenWhitelistPairs()

	g.users()
	g.pairTokenLookups()

	g.transactions()
	g.poolEvents()

	g.uniswapDayData()
	g.pairWindows()
	g.tokenWindows()

	return g.tables.ToEntityChanges()
}

// row creates the row on a store Create, otherwise updates it.
func (g *graphOut) row(operation kvstore.Operation, ordinal uint64, entity, id string) *entitytables.Row {
	if operation == kvstore.OperationCreate {
		return g.tables.CreateRow(ordinal, entity, id)
	}
	return g.tables.UpdateRow(ordinal, entity, id)
}

func liveDeltas[V any](deltas []kvstore.Delta[V]) []kvstore.Delta[V] {
	live := make([]kvstore.Delta[V], 0, len(deltas))
	for _, delta := range deltas {
		if delta.Operation != kvstore.OperationDelete {
			live = append(live, delta)
		}
	}
	return live
}

// keySuffix returns what follows the first n segments of key.
func keySuffix(key string, n int) string {
	segments := strings.SplitN(key, kvstore.KeySeparator, n+1)
	if len(segments) <= n {
		return ""
	}
	return segments[n]
}

var volumeFields = map[string]string{
	"volume:usd":          "volumeUSD",
	"volume:untrackedUSD": "untrackedVolumeUSD",
	"volumeUntrackedUSD":  "untrackedVolumeUSD",
}

// volumeField names the entity field of a volume key suffix.
// "{token}:volumeToken0" style suffixes of pool windows keep their last segment.
func volumeField(suffix string) string {
	if field, ok := volumeFields[suffix]; ok {
		return field
	}
	return kvstore.LastSegment(suffix)
}

type windowEntity struct {
	table     windows.Table
	entity    string
	dateField string
}

var windowEntities = map[string]windowEntity{
	windows.UniswapDayData.Name:  {table: windows.UniswapDayData, entity: ENTITY_UNISWAP_DAY_DATA, dateField: "date"},
	windows.PoolDayData.Name:     {table: windows.PoolDayData, entity: ENTITY_PAIR_DAY_DATA, dateField: "date"},
	windows.PoolHourData.Name:    {table: windows.PoolHourData, entity: ENTITY_PAIR_HOUR_DATA, dateField: "hourStartUnix"},
	windows.TokenDayData.Name:    {table: windows.TokenDayData, entity: ENTITY_TOKEN_DAY_DATA, dateField: "date"},
	windows.TokenHourData.Name:   {table: windows.TokenHourData, entity: ENTITY_TOKEN_HOUR_DATA, dateField: "periodStartUnix"},
	windows.TokenMinuteData.Name: {table: windows.TokenMinuteData, entity: ENTITY_TOKEN_MINUTE_DATA, dateField: "periodStartUnix"},
}

// windowRef is a parsed "{Table}:{bucketID}[:{address}][:{field...}]" key.
type windowRef struct {
	window   windowEntity
	bucketID int64
	address  string
	field    string
}

func parseWindowKey(key string) (windowRef, bool) {
	segments := strings.Split(key, kvstore.KeySeparator)
	if len(segments) < 2 {
		return windowRef{}, false
	}
	window, ok := windowEntities[segments[0]]
	if !ok {
		return windowRef{}, false
	}
	bucketID, err := strconv.ParseInt(segments[1], 10, 64)
	if err != nil {
		return windowRef{}, false
	}

	ref := windowRef{window: window, bucketID: bucketID}
	rest := segments[2:]
	if window.table != windows.UniswapDayData {
		if len(rest) == 0 {
			return windowRef{}, false
		}
		ref.address = rest[0]
		rest = rest[1:]
	}
	ref.field = strings.Join(rest, kvstore.KeySeparator)
	return ref, true
}

func (r windowRef) id() string {
	bucket := strconv.FormatInt(r.bucketID, 10)
	if r.address == "" {
		return bucket
	}
	return r.address + "-" + bucket
}

func (r windowRef) start() uint64 {
	return uint64(r.bucketID) * r.window.table.Period
}

// windowRow opens the row of ref. Created rows get their period start and owner.
func (g *graphOut) windowRow(operation kvstore.Operation, ordinal uint64, ref windowRef) *entitytables.Row {
	row := g.row(operation, ordinal, ref.window.entity, ref.id())
	if operation != kvstore.OperationCreate {
		return row
	}

	row.Set(ref.window.dateField, ref.start())
	switch ref.window.entity {
	case ENTITY_PAIR_DAY_DATA, ENTITY_PAIR_HOUR_DATA:
		row.Set("pair", ref.address)
		if pair, ok := g.p.stores.Pools.GetLast(pairKey(ref.address)); ok {
			row.Set("token0", pair.Token0.Address)
			row.Set("token1", pair.Token1.Address)
		}
	case ENTITY_TOKEN_DAY_DATA, ENTITY_TOKEN_HOUR_DATA, ENTITY_TOKEN_MINUTE_DATA:
		row.Set("token", ref.address)
	}
	return row
}

func isPairWindow(ref windowRef) bool {
	return ref.window.entity == ENTITY_PAIR_DAY_DATA || ref.window.entity == ENTITY_PAIR_HOUR_DATA
}

func isTokenWindow(ref windowRef) bool {
	switch ref.window.entity {
	case ENTITY_TOKEN_DAY_DATA, ENTITY_TOKEN_HOUR_DATA, ENTITY_TOKEN_MINUTE_DATA:
		return true
	}
	return false
}

// windowDeltas calls apply for the live deltas of keys belonging to a window entity.
func (g *graphOut) windowDeltas(
	deltas []kvstore.Delta[decimal.Decimal],
	accept func(windowRef) bool,
	apply func(windowRef, kvstore.Delta[decimal.Decimal]),
) {
	for _, delta := range liveDeltas(deltas) {
		ref, ok := parseWindowKey(delta.Key)
		if !ok || !accept(ref) {
			continue
		}
		apply(ref, delta)
	}
}
