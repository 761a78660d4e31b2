package lpcorrelation

import (
	"fmt"
	"sort"

	"github.com/alexkalak/go_dex_metrics/common/helpers/addresshelper"
	"github.com/alexkalak/go_dex_metrics/common/helpers/mathhelper"
	"github.com/alexkalak/go_dex_metrics/common/models"
)

const LP_TOKEN_DECIMALS = 18

// FeeMintKey is the "{transactionId}:{poolAddress}" key of a detected fee mint.
func FeeMintKey(transactionID, pool string) string {
	return fmt.Sprintf("%s:%s", transactionID, pool)
}

// FeeMintDetector finds, per transaction and pool, the zero-origin LP transfer left over
// once every Mint has claimed its own transfer. It keeps its own bookkeeping and does not
// share state with TransferContext.
type FeeMintDetector struct {
	mints     map[string][]uint64
	transfers map[string][]Transfer
	order     []string
}

func NewFeeMintDetector() *FeeMintDetector {
	return &FeeMintDetector{
		mints:     map[string][]uint64{},
		transfers: map[string][]Transfer{},
	}
}

func (d *FeeMintDetector) AddMint(transactionID, pool string, logIndex uint64) {
	key := FeeMintKey(transactionID, pool)
	d.mints[key] = append(d.mints[key], logIndex)
}

// AddTransfer keeps only mints of LP tokens: from the zero address to a non-zero address.
func (d *FeeMintDetector) AddTransfer(transactionID, pool string, transfer Transfer) {
	if !addresshelper.IsZero(transfer.From) || addresshelper.IsZero(transfer.To) {
		return
	}

	key := FeeMintKey(transactionID, pool)
	if _, ok := d.transfers[key]; !ok {
		d.order = append(d.order, key)
	}
	d.transfers[key] = append(d.transfers[key], transfer)
}

func (d *FeeMintDetector) Detect() map[string]models.FeeMint {
	feeMints := map[string]models.FeeMint{}

	for _, key := range d.order {
		transfers := make([]Transfer, len(d.transfers[key]))
		copy(transfers, d.transfers[key])
		sort.SliceStable(transfers, func(i, j int) bool {
			return transfers[i].LogIndex < transfers[j].LogIndex
		})

		mintLogs := make([]uint64, len(d.mints[key]))
		copy(mintLogs, d.mints[key])
		sort.Slice(mintLogs, func(i, j int) bool {
			return mintLogs[i] < mintLogs[j]
		})

		used := make([]bool, len(transfers))
		for _, mintLog := range mintLogs {
			i, found := nearest(transfers, mintLog, atOrBefore, func(i int) bool {
				return !used[i]
			})
			if found {
				used[i] = true
			}
		}

		fee := -1
		for i := range transfers {
			if used[i] {
				continue
			}
			if fee < 0 || transfers[i].LogIndex > transfers[fee].LogIndex {
				fee = i
			}
		}
		if fee < 0 {
			continue
		}

		feeMints[key] = models.FeeMint{
			FeeTo:        transfers[fee].To,
			Liquidity:    mathhelper.ConvertTokenToDecimal(transfers[fee].Value, LP_TOKEN_DECIMALS),
			LiquidityRaw: mathhelper.BigIntOrZero(transfers[fee].Value),
		}
	}

	return feeMints
}
