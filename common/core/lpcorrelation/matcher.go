// Package lpcorrelation recovers LP token amounts of Mint and Burn events from the
// pair's own Transfer logs in the same transaction.
package lpcorrelation

import (
	"math/big"
)

// Transfer is an LP token transfer of one pair. LogIndex is unique inside a transaction.
type Transfer struct {
	LogIndex uint64
	From     string
	To       string
	Value    *big.Int
}

type side uint8

const (
	atOrBefore side = iota
	atOrAfter
)

// nearest returns the position of the accepted transfer closest to pivot on the given side:
// the largest log index not above pivot, or the smallest not below it.
func nearest(transfers []Transfer, pivot uint64, s side, accept func(i int) bool) (int, bool) {
	best := -1
	for i, transfer := range transfers {
		if !accept(i) {
			continue
		}

		switch s {
		case atOrBefore:
			if transfer.LogIndex > pivot {
				continue
			}
			if best < 0 || transfer.LogIndex > transfers[best].LogIndex {
				best = i
			}
		case atOrAfter:
			if transfer.LogIndex < pivot {
				continue
			}
			if best < 0 || transfer.LogIndex < transfers[best].LogIndex {
				best = i
			}
		}
	}

	return best, best >= 0
}
