package models

import (
	"fmt"
	"math/big"
)

const TOKENS_TABLE = "tokens"
const TOKEN_NAME = "name"
const TOKEN_SYMBOL = "symbol"
const TOKEN_ADDRESS = "address"
const TOKEN_CHAINID = "chain_id"
const TOKEN_DECIMALS = "decimals"
const TOKEN_TOTAL_SUPPLY = "total_supply"

type TokenIdentificator struct {
	Address string
	ChainID uint
}

type Token struct {
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Address     string   `json:"address"`
	ChainID     uint     `json:"chain_id"`
	Decimals    int      `json:"decimals"`
	TotalSupply *big.Int `json:"total_supply"`
}

func (t *Token) GetIdentificator() TokenIdentificator {
	return TokenIdentificator{
		Address: t.Address,
		ChainID: t.ChainID,
	}
}

func (t TokenIdentificator) String() string {
	return fmt.Sprintf("%d.%s", t.ChainID, t.Address)
}
