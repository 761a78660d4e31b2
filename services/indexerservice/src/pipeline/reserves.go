package pipeline

import (
	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/alexkalak/go_dex_metrics/common/core/windows"
	"github.com/alexkalak/go_dex_metrics/common/helpers/mathhelper"
	"go.uber.org/zap"
)

func poolKey(pool string, parts ...string) string {
	return kvstore.Key(append([]string{"pool", pool}, parts...)...)
}

func (p *Pipeline) storeReserves(bc *blockContext) {
	for _, reserves := range bc.extracted.reserves {
		p.stores.Reserves.Set(reserves.Ordinal, poolKey(reserves.PoolAddress), reserves)
	}
}

// storePrices writes both relative prices of a pair. Empty sides carry no price.
func (p *Pipeline) storePrices(bc *blockContext) {
	windows.Prune(p.stores.Prices, bc.timestamp, windows.PoolTables...)

	for _, reserves := range bc.extracted.reserves {
		pair, ok := p.stores.Pools.GetLast(pairKey(reserves.PoolAddress))
		if !ok {
			p.logger.Debug("skipping unknown pool", zap.String("pool", reserves.PoolAddress))
			continue
		}
		token0 := pair.Token0.Address
		token1 := pair.Token1.Address

		reserve0 := mathhelper.ConvertTokenToDecimal(reserves.Reserve0, pair.Token0.Decimals)
		reserve1 := mathhelper.ConvertTokenToDecimal(reserves.Reserve1, pair.Token1.Decimals)
		if reserve0.IsZero() || reserve1.IsZero() {
			continue
		}

		token0Price := mathhelper.SafeDiv(reserve0, reserve1)
		token1Price := mathhelper.SafeDiv(reserve1, reserve0)

		p.stores.Prices.SetMany(reserves.Ordinal, []string{
			poolKey(pair.Address, token0, "token0"),
			kvstore.Key("pair", token0, token1),
		}, token0Price)
		p.stores.Prices.SetMany(reserves.Ordinal, []string{
			poolKey(pair.Address, token1, "token1"),
			kvstore.Key("pair", token1, token0),
		}, token1Price)

		if reserves.Initialized {
			continue
		}

		p.stores.Prices.SetMany(reserves.Ordinal, []string{
			windows.PoolDayData.Key(bc.timestamp, pair.Address, "token0"),
			windows.PoolHourData.Key(bc.timestamp, pair.Address, "token0"),
		}, token0Price)
		p.stores.Prices.SetMany(reserves.Ordinal, []string{
			windows.PoolDayData.Key(bc.timestamp, pair.Address, "token1"),
			windows.PoolHourData.Key(bc.timestamp, pair.Address, "token1"),
		}, token1Price)
	}
}

// storeLiquidities keeps reserve0 + reserve1 in raw units, the oracle only compares it to zero.
func (p *Pipeline) storeLiquidities(bc *blockContext) {
	windows.Prune(p.stores.Liquidities, bc.timestamp, windows.PoolTables...)

	for _, reserves := range bc.extracted.reserves {
		pair, ok := p.stores.Pools.GetLast(pairKey(reserves.PoolAddress))
		if !ok {
			continue
		}
		token0 := pair.Token0.Address
		token1 := pair.Token1.Address

		liquidity := mathhelper.BigIntToDecimal(reserves.Reserve0).Add(mathhelper.BigIntToDecimal(reserves.Reserve1))
		p.stores.Liquidities.SetMany(reserves.Ordinal, []string{
			poolKey(pair.Address),
			kvstore.Key("pair", token0, token1),
			kvstore.Key("pair", token1, token0),
			windows.PoolDayData.Key(bc.timestamp, pair.Address),
			windows.PoolHourData.Key(bc.timestamp, pair.Address),
		}, liquidity)
	}
}

func (p *Pipeline) storeNativeAmounts(bc *blockContext) {
	for _, reserves := range bc.extracted.reserves {
		pair, ok := p.stores.Pools.GetLast(pairKey(reserves.PoolAddress))
		if !ok {
			continue
		}

		p.stores.NativeAmounts.Set(reserves.Ordinal,
			poolKey(pair.Address, pair.Token0.Address, "native"),
			mathhelper.ConvertTokenToDecimal(reserves.Reserve0, pair.Token0.Decimals))
		p.stores.NativeAmounts.Set(reserves.Ordinal,
			poolKey(pair.Address, pair.Token1.Address, "native"),
			mathhelper.ConvertTokenToDecimal(reserves.Reserve1, pair.Token1.Decimals))
	}
}
