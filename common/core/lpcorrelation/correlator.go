package lpcorrelation

import (
	"math/big"

	"github.com/alexkalak/go_dex_metrics/common/core/chainconfig"
	"github.com/alexkalak/go_dex_metrics/common/helpers/addresshelper"
	"github.com/alexkalak/go_dex_metrics/common/helpers/mathhelper"
)

type poolTransfers struct {
	transfers []Transfer
	used      []bool
}

// TransferContext matches the LP transfers of a single transaction with its Mint and
// Burn events. Build a new one per transaction; each transfer is consumed at most once.
type TransferContext struct {
	minimumLiquidityLock *big.Int
	pools                map[string]*poolTransfers
}

func NewTransferContext(config chainconfig.Config) *TransferContext {
	return &TransferContext{
		minimumLiquidityLock: config.MinimumLiquidityLock,
		pools:                map[string]*poolTransfers{},
	}
}

// Record stores a transfer of pool's LP token. The permanent MINIMUM_LIQUIDITY lock
// (value 1000 to the zero address) is dropped.
func (c *TransferContext) Record(pool string, transfer Transfer) {
	if addresshelper.IsZero(transfer.To) && transfer.Value != nil && c.minimumLiquidityLock != nil &&
		transfer.Value.Cmp(c.minimumLiquidityLock) == 0 {
		return
	}

	entry, ok := c.pools[pool]
	if !ok {
		entry = &poolTransfers{}
		c.pools[pool] = entry
	}
	entry.transfers = append(entry.transfers, transfer)
	entry.used = append(entry.used, false)
}

// ConsumeForMint takes the closest unused zero-origin transfer at or before the Mint log.
func (c *TransferContext) ConsumeForMint(pool string, mintLogIndex uint64) (string, *big.Int, bool) {
	entry, ok := c.pools[pool]
	if !ok {
		return "", nil, false
	}

	i, found := nearest(entry.transfers, mintLogIndex, atOrBefore, func(i int) bool {
		t := entry.transfers[i]
		return !entry.used[i] && addresshelper.IsZero(t.From) && !addresshelper.IsZero(t.To)
	})
	if !found {
		return "", nil, false
	}

	entry.used[i] = true
	transfer := entry.transfers[i]
	return transfer.To, new(big.Int).Set(mathhelper.BigIntOrZero(transfer.Value)), true
}

// ConsumeForBurn prefers the pool burning its own LP tokens at or after the Burn log,
// then falls back to the LP tokens sent to the pool at or before it.
func (c *TransferContext) ConsumeForBurn(pool string, burnLogIndex uint64) (*big.Int, bool) {
	entry, ok := c.pools[pool]
	if !ok {
		return nil, false
	}

	i, found := nearest(entry.transfers, burnLogIndex, atOrAfter, func(i int) bool {
		t := entry.transfers[i]
		return !entry.used[i] && t.From == pool && addresshelper.IsZero(t.To)
	})
	if !found {
		i, found = nearest(entry.transfers, burnLogIndex, atOrBefore, func(i int) bool {
			return !entry.used[i] && entry.transfers[i].To == pool
		})
	}
	if !found {
		return nil, false
	}

	entry.used[i] = true
	return new(big.Int).Set(mathhelper.BigIntOrZero(entry.transfers[i].Value)), true
}
