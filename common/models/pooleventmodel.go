package models

import (
	"math/big"

	"github.com/shopspring/decimal"
)

type PoolEventType string

const (
	POOL_EVENT_SWAP PoolEventType = "Swap"
	POOL_EVENT_MINT PoolEventType = "Mint"
	POOL_EVENT_BURN PoolEventType = "Burn"
)

// PoolEvent is a Swap, Mint or Burn of a known pair, with amounts converted to token decimals.
// For swaps Amount0/Amount1 are out minus in, so positive means the pool paid out.
type PoolEvent struct {
	Type          PoolEventType
	PoolAddress   string
	Token0        string
	Token1        string
	FeeTier       string
	TransactionID string
	LogOrdinal    uint64
	LogIndex      uint64
	Timestamp     uint64
	BlockNumber   uint64

	Sender    string
	Recipient string
	Origin    string
	Owner     string

	Amount0 decimal.Decimal
	Amount1 decimal.Decimal

	Amount0In  decimal.Decimal
	Amount0Out decimal.Decimal
	Amount1In  decimal.Decimal
	Amount1Out decimal.Decimal

	// LP token amount recovered from the pair's own Transfer logs, raw units.
	Liquidity *big.Int
}

// PairReserves is a Sync snapshot. Initialized marks the first snapshot ever seen for the pair.
type PairReserves struct {
	PoolAddress string   `json:"pool_address"`
	Ordinal     uint64   `json:"ordinal"`
	Reserve0    *big.Int `json:"reserve0"`
	Reserve1    *big.Int `json:"reserve1"`
	Initialized bool     `json:"initialized"`
}

// FeeMint is the protocol fee liquidity minted ahead of a user mint or burn.
type FeeMint struct {
	FeeTo        string
	Liquidity    decimal.Decimal
	LiquidityRaw *big.Int
}
