package models

import (
	"fmt"
)

const PAIRS_TABLE = "pairs"

const PAIR_ADDRESS = "address"
const PAIR_CHAINID = "chain_id"
const PAIR_TOKEN0_ADDRESS = "token0_address"
const PAIR_TOKEN1_ADDRESS = "token1_address"
const PAIR_FEE_TIER = "fee_tier"
const PAIR_CREATED_AT_BLOCK_NUMBER = "created_at_block_number"
const PAIR_CREATED_AT_TIMESTAMP = "created_at_timestamp"
const PAIR_TRANSACTION_ID = "transaction_id"

// Pair is a constant-product pool. It never changes after PairCreated.
type Pair struct {
	Address              string `json:"address"`
	ChainID              uint   `json:"chain_id"`
	Token0               Token  `json:"token0"`
	Token1               Token  `json:"token1"`
	FeeTier              string `json:"fee_tier"`
	CreatedAtBlockNumber uint64 `json:"created_at_block_number"`
	CreatedAtTimestamp   uint64 `json:"created_at_timestamp"`
	TransactionID        string `json:"transaction_id"`
	LogOrdinal           uint64 `json:"log_ordinal"`
}

type PairIdentificator struct {
	Address string
	ChainID uint
}

func (p *Pair) GetIdentificator() PairIdentificator {
	return PairIdentificator{
		Address: p.Address,
		ChainID: p.ChainID,
	}
}

// TokenIndex reports whether token is token0 or token1 of the pair.
func (p *Pair) TokenIndex(token string) (string, bool) {
	switch token {
	case p.Token0.Address:
		return "token0", true
	case p.Token1.Address:
		return "token1", true
	}
	return "", false
}

func (p PairIdentificator) String() string {
	return fmt.Sprintf("%d.%s", p.ChainID, p.Address)
}
