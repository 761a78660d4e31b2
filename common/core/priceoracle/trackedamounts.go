package priceoracle

import (
	"github.com/shopspring/decimal"
)

// TrackedAmounts values a pair of token amounts. Tracked values only count
// whitelisted sides; untracked values count both sides at their derived price.
type TrackedAmounts struct {
	ETH          decimal.Decimal
	USD          decimal.Decimal
	UntrackedETH decimal.Decimal
	UntrackedUSD decimal.Decimal
}

func (o *PriceOracle) TrackedAmounts(
	token0, token1 string,
	amount0, amount1 decimal.Decimal,
	token0EthPrice, token1EthPrice decimal.Decimal,
	ethPriceUSD decimal.Decimal,
) TrackedAmounts {
	amount0ETH := amount0.Mul(token0EthPrice)
	amount1ETH := amount1.Mul(token1EthPrice)

	amounts := TrackedAmounts{
		ETH:          decimal.Zero,
		USD:          decimal.Zero,
		UntrackedETH: amount0ETH.Add(amount1ETH),
	}
	amounts.UntrackedUSD = amounts.UntrackedETH.Mul(ethPriceUSD)

	whitelisted0 := o.config.IsWhitelisted(token0)
	whitelisted1 := o.config.IsWhitelisted(token1)
	two := decimal.NewFromInt(2)

	switch {
	case whitelisted0 && whitelisted1:
		amounts.ETH = amounts.UntrackedETH
	case whitelisted0:
		amounts.ETH = amount0ETH.Mul(two)
	case whitelisted1:
		amounts.ETH = amount1ETH.Mul(two)
	}
	amounts.USD = amounts.ETH.Mul(ethPriceUSD)

	return amounts
}
