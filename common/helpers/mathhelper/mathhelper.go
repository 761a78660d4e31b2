package mathhelper

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// DivisionScale is the number of decimal places kept by SafeDiv.
// decimal.Div keeps 16, which turns prices of low unit tokens into zero.
const DivisionScale = 50

// SafeDiv returns zero instead of failing on a zero denominator.
func SafeDiv(amount0, amount1 decimal.Decimal) decimal.Decimal {
	if amount1.IsZero() {
		return decimal.Zero
	}
	return amount0.DivRound(amount1, DivisionScale)
}

func ExponentToDecimal(decimals int) decimal.Decimal {
	return decimal.New(1, int32(decimals))
}

// ConvertTokenToDecimal scales a raw token amount down by its decimals. Nil is zero.
func ConvertTokenToDecimal(amount *big.Int, decimals int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

func BigIntToDecimal(amount *big.Int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, 0)
}

// BigIntOrZero never returns nil.
func BigIntOrZero(amount *big.Int) *big.Int {
	if amount == nil {
		return big.NewInt(0)
	}
	return amount
}
