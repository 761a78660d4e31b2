// Package priceoracle derives ETH and USD prices of tokens from pool reserves.
// Prices are read "as of" an ordinal so a result never depends on later writes in the block.
package priceoracle

import (
	"errors"

	"github.com/alexkalak/go_dex_metrics/common/core/chainconfig"
	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/alexkalak/go_dex_metrics/common/helpers/mathhelper"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PriceOracleDependencies struct {
	// pair:{pool} -> Pair
	Pools kvstore.Getter[models.Pair]
	// pool:{pool} and pair:{tokenA}:{tokenB} -> reserve0 + reserve1
	Liquidities kvstore.DecimalGetter
	// token:{token} -> pools pairing the token with a whitelisted token
	WhitelistPools kvstore.Getter[[]string]
	// pool:{pool}:{token}:native -> reserve in token units
	NativeAmounts kvstore.DecimalGetter
	// pool:{pool}:{token}:token0|token1 and pair:{tokenA}:{tokenB} -> tokenA per tokenB
	Prices kvstore.DecimalGetter
	Logger *zap.Logger
}

func (d *PriceOracleDependencies) validate() error {
	if d.Pools == nil {
		return errors.New("price oracle pools store dependency cannot be nil")
	}
	if d.Liquidities == nil {
		return errors.New("price oracle liquidities store dependency cannot be nil")
	}
	if d.WhitelistPools == nil {
		return errors.New("price oracle whitelist pools store dependency cannot be nil")
	}
	if d.NativeAmounts == nil {
		return errors.New("price oracle native amounts store dependency cannot be nil")
	}
	if d.Prices == nil {
		return errors.New("price oracle prices store dependency cannot be nil")
	}
	if d.Logger == nil {
		return errors.New("price oracle logger dependency cannot be nil")
	}
	return nil
}

type PriceOracle struct {
	config chainconfig.Config

	pools          kvstore.Getter[models.Pair]
	liquidities    kvstore.DecimalGetter
	whitelistPools kvstore.Getter[[]string]
	nativeAmounts  kvstore.DecimalGetter
	prices         kvstore.DecimalGetter
	logger         *zap.Logger
}

func New(config chainconfig.Config, dependencies PriceOracleDependencies) (*PriceOracle, error) {
	if err := dependencies.validate(); err != nil {
		return nil, err
	}

	return &PriceOracle{
		config:         config,
		pools:          dependencies.Pools,
		liquidities:    dependencies.Liquidities,
		whitelistPools: dependencies.WhitelistPools,
		nativeAmounts:  dependencies.NativeAmounts,
		prices:         dependencies.Prices,
		logger:         dependencies.Logger,
	}, nil
}

// EthPriceInUSD reads the USD reference pair: USDC per WETH, or the inverse of WETH per USDC.
// Zero when neither side has a price yet.
func (o *PriceOracle) EthPriceInUSD(ordinal uint64) decimal.Decimal {
	weth := o.config.WrappedNative
	usd := o.config.USDReference

	if price, ok := o.prices.GetAt(ordinal, kvstore.Key("pair", usd, weth)); ok {
		return price
	}
	if price, ok := o.prices.GetAt(ordinal, kvstore.Key("pair", weth, usd)); ok {
		return mathhelper.SafeDiv(decimal.NewFromInt(1), price)
	}

	o.logger.Debug("eth usd price not found", zap.Uint64("ordinal", ordinal))
	return decimal.Zero
}

// BundlePrice prefers a positive oracle answer over the pool derived price.
func (o *PriceOracle) BundlePrice(ordinal uint64, round *models.OracleRound) (decimal.Decimal, decimal.Decimal) {
	if price := round.Price(); price.IsPositive() {
		return price, mathhelper.BigIntToDecimal(round.RoundID)
	}
	return o.EthPriceInUSD(ordinal), decimal.Zero
}

// FindEthPerToken returns how much ETH one token is worth, zero when no pool qualifies.
// Only pools pairing the token directly with a whitelisted token are considered.
func (o *PriceOracle) FindEthPerToken(ordinal uint64, token string, ethPriceUSD decimal.Decimal) decimal.Decimal {
	if token == o.config.WrappedNative {
		return decimal.NewFromInt(1)
	}
	if o.config.IsStablecoin(token) {
		return mathhelper.SafeDiv(decimal.NewFromInt(1), ethPriceUSD)
	}

	whitelistedPools, ok := o.whitelistPools.GetLast(kvstore.Key("token", token))
	if !ok {
		o.logger.Debug("no whitelisted pools for token", zap.String("token", token))
		return decimal.Zero
	}

	priceSoFar := decimal.Zero
	largestEthLocked := decimal.Zero

	for _, poolAddress := range whitelistedPools {
		candidate, ok := o.evaluatePool(ordinal, poolAddress, token)
		if !ok {
			continue
		}

		if !candidate.ethLocked.GreaterThan(largestEthLocked) {
			continue
		}
		if !candidate.ethLocked.GreaterThan(o.config.MinimumEthLocked) && !o.config.IsWhitelisted(candidate.counterpart) {
			continue
		}

		localPrice, ok := o.prices.GetAt(ordinal, kvstore.Key("pool", poolAddress, candidate.counterpart, candidate.counterpartIndex))
		if !ok {
			o.logger.Debug("pool local price not found",
				zap.String("pool", poolAddress),
				zap.String("token", token),
			)
			continue
		}

		largestEthLocked = candidate.ethLocked
		priceSoFar = localPrice.Mul(candidate.counterpartEthPrice)
	}

	return priceSoFar
}

type poolCandidate struct {
	counterpart         string
	counterpartIndex    string
	counterpartEthPrice decimal.Decimal
	ethLocked           decimal.Decimal
}

func (o *PriceOracle) evaluatePool(ordinal uint64, poolAddress, token string) (poolCandidate, bool) {
	pool, ok := o.pools.GetLast(kvstore.Key("pair", poolAddress))
	if !ok {
		return poolCandidate{}, false
	}

	candidate := poolCandidate{}
	switch token {
	case pool.Token0.Address:
		candidate.counterpart = pool.Token1.Address
		candidate.counterpartIndex = "token1"
	case pool.Token1.Address:
		candidate.counterpart = pool.Token0.Address
		candidate.counterpartIndex = "token0"
	default:
		return poolCandidate{}, false
	}

	liquidity, ok := o.liquidities.GetAt(ordinal, kvstore.Key("pool", poolAddress))
	if !ok || !liquidity.IsPositive() {
		o.logger.Debug("no liquidity for pool", zap.String("pool", poolAddress))
		return poolCandidate{}, false
	}

	nativeAmount, ok := o.nativeAmounts.GetAt(ordinal, kvstore.Key("pool", poolAddress, candidate.counterpart, "native"))
	if !ok {
		nativeAmount = decimal.Zero
	}

	if candidate.counterpart == o.config.WrappedNative {
		candidate.counterpartEthPrice = decimal.NewFromInt(1)
		candidate.ethLocked = nativeAmount
		return candidate, true
	}

	crossKey := kvstore.Key("pair", o.config.WrappedNative, candidate.counterpart)
	crossLiquidity, ok := o.liquidities.GetAt(ordinal, crossKey)
	if !ok || crossLiquidity.IsZero() {
		return poolCandidate{}, false
	}
	counterpartEthPrice, ok := o.prices.GetAt(ordinal, crossKey)
	if !ok {
		return poolCandidate{}, false
	}

	candidate.counterpartEthPrice = counterpartEthPrice
	candidate.ethLocked = nativeAmount.Mul(counterpartEthPrice)
	return candidate, true
}
