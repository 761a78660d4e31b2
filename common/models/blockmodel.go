package models

import (
	"math/big"

	"github.com/shopspring/decimal"
)

type LogType string

const (
	LOG_TYPE_PAIR_CREATED LogType = "PairCreated"
	LOG_TYPE_SWAP         LogType = "Swap"
	LOG_TYPE_MINT         LogType = "Mint"
	LOG_TYPE_BURN         LogType = "Burn"
	LOG_TYPE_TRANSFER     LogType = "Transfer"
	LOG_TYPE_SYNC         LogType = "Sync"
)

type PairCreatedEvent struct {
	Token0    Token    `json:"token0"`
	Token1    Token    `json:"token1"`
	Pair      string   `json:"pair"`
	PairIndex *big.Int `json:"pair_index"`
}

type SwapEvent struct {
	Sender     string   `json:"sender"`
	To         string   `json:"to"`
	Amount0In  *big.Int `json:"amount0_in"`
	Amount1In  *big.Int `json:"amount1_in"`
	Amount0Out *big.Int `json:"amount0_out"`
	Amount1Out *big.Int `json:"amount1_out"`
}

type MintEvent struct {
	Sender  string   `json:"sender"`
	Amount0 *big.Int `json:"amount0"`
	Amount1 *big.Int `json:"amount1"`
}

type BurnEvent struct {
	Sender  string   `json:"sender"`
	To      string   `json:"to"`
	Amount0 *big.Int `json:"amount0"`
	Amount1 *big.Int `json:"amount1"`
}

type TransferEvent struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Value *big.Int `json:"value"`
}

type SyncEvent struct {
	Reserve0 *big.Int `json:"reserve0"`
	Reserve1 *big.Int `json:"reserve1"`
}

// Log is an ABI-decoded log. Exactly one of the event pointers matching Type is set.
// Index is the log position inside the block, Ordinal is block-monotonic and never 0.
type Log struct {
	Address string  `json:"address"`
	Index   uint64  `json:"index"`
	Ordinal uint64  `json:"ordinal"`
	Type    LogType `json:"type"`

	PairCreated *PairCreatedEvent `json:"pair_created,omitempty"`
	Swap        *SwapEvent        `json:"swap,omitempty"`
	Mint        *MintEvent        `json:"mint,omitempty"`
	Burn        *BurnEvent        `json:"burn,omitempty"`
	Transfer    *TransferEvent    `json:"transfer,omitempty"`
	Sync        *SyncEvent        `json:"sync,omitempty"`
}

type Transaction struct {
	Hash  string `json:"hash"`
	From  string `json:"from"`
	To    string `json:"to"`
	Index uint   `json:"index"`
	Logs  []Log  `json:"logs"`
}

// OracleRound is the latest ETH/USD answer of a Chainlink-style aggregator as of a block.
type OracleRound struct {
	RoundID  *big.Int `json:"round_id"`
	Answer   *big.Int `json:"answer"`
	Decimals uint8    `json:"decimals"`
}

// Price returns the answer scaled by the feed decimals, zero for non-positive answers.
func (r *OracleRound) Price() decimal.Decimal {
	if r == nil || r.Answer == nil || r.Answer.Sign() <= 0 {
		return decimal.Zero
	}
	decimals := int32(r.Decimals)
	if decimals == 0 {
		decimals = 8
	}
	return decimal.NewFromBigInt(r.Answer, -decimals)
}

type Block struct {
	ChainID      uint          `json:"chain_id"`
	Number       uint64        `json:"number"`
	Hash         string        `json:"hash"`
	Timestamp    uint64        `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	OracleRound  *OracleRound  `json:"oracle_round,omitempty"`
}
