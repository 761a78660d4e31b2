package pipeline

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/alexkalak/go_dex_metrics/common/core/lpcorrelation"
	"github.com/alexkalak/go_dex_metrics/common/helpers/addresshelper"
	"github.com/alexkalak/go_dex_metrics/common/helpers/mathhelper"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"go.uber.org/zap"
)

type transactionRecord struct {
	ID          string
	From        string
	To          string
	BlockNumber uint64
	Timestamp   uint64
	// ordinal of the first pool event of the transaction
	Ordinal uint64
}

type userRecord struct {
	ID      string
	Ordinal uint64
}

type extracted struct {
	reserves     []models.PairReserves
	events       []models.PoolEvent
	transactions []transactionRecord
	// non zero senders and receivers of LP transfers
	transferUsers []userRecord
	feeMints      map[string]models.FeeMint
}

// mapExtract walks every log of a known pair. Transfers of a transaction are recorded
// before its events so a Burn can claim an LP transfer logged after it.
func (p *Pipeline) mapExtract(bc *blockContext) (extracted, error) {
	out := extracted{}
	feeMintDetector := lpcorrelation.NewFeeMintDetector()
	transferUsers := map[string]uint64{}
	initialized := map[string]struct{}{}

	for _, tx := range bc.block.Transactions {
		transferCtx := lpcorrelation.NewTransferContext(p.config)

		for _, lg := range tx.Logs {
			if lg.Type != models.LOG_TYPE_TRANSFER {
				continue
			}
			if _, ok := p.stores.Pools.GetLast(pairKey(lg.Address)); !ok {
				continue
			}
			if lg.Transfer == nil {
				return extracted{}, fmt.Errorf("%w: Transfer log %d of tx %s", ErrMalformedLog, lg.Index, tx.Hash)
			}

			transfer := lpcorrelation.Transfer{
				LogIndex: lg.Index,
				From:     addresshelper.Normalize(lg.Transfer.From),
				To:       addresshelper.Normalize(lg.Transfer.To),
				Value:    mathhelper.BigIntOrZero(lg.Transfer.Value),
			}
			transferCtx.Record(lg.Address, transfer)
			feeMintDetector.AddTransfer(tx.Hash, lg.Address, transfer)

			for _, user := range []string{transfer.From, transfer.To} {
				if _, ok := transferUsers[user]; ok || addresshelper.IsZero(user) {
					continue
				}
				transferUsers[user] = lg.Ordinal
			}
		}

		txRecorded := false
		for _, lg := range tx.Logs {
			pair, ok := p.stores.Pools.GetLast(pairKey(lg.Address))
			if !ok {
				continue
			}

			switch lg.Type {
			case models.LOG_TYPE_SYNC:
				if lg.Sync == nil {
					return extracted{}, fmt.Errorf("%w: Sync log %d of tx %s", ErrMalformedLog, lg.Index, tx.Hash)
				}
				_, seen := initialized[pair.Address]
				reserves := models.PairReserves{
					PoolAddress: pair.Address,
					Ordinal:     lg.Ordinal,
					Reserve0:    mathhelper.BigIntOrZero(lg.Sync.Reserve0),
					Reserve1:    mathhelper.BigIntOrZero(lg.Sync.Reserve1),
					Initialized: !seen && !p.stores.Reserves.HasLast(poolKey(pair.Address)),
				}
				initialized[pair.Address] = struct{}{}
				out.reserves = append(out.reserves, reserves)
				continue

			case models.LOG_TYPE_SWAP, models.LOG_TYPE_MINT, models.LOG_TYPE_BURN:
			default:
				continue
			}

			event, err := p.poolEvent(bc, tx, lg, pair, transferCtx)
			if err != nil {
				return extracted{}, err
			}
			if event.Type == models.POOL_EVENT_MINT {
				feeMintDetector.AddMint(tx.Hash, pair.Address, lg.Index)
			}
			out.events = append(out.events, event)

			if !txRecorded {
				txRecorded = true
				out.transactions = append(out.transactions, transactionRecord{
					ID:          tx.Hash,
					From:        tx.From,
					To:          tx.To,
					BlockNumber: bc.block.Number,
					Timestamp:   bc.timestamp,
					Ordinal:     lg.Ordinal,
				})
			}
		}
	}

	out.transferUsers = make([]userRecord, 0, len(transferUsers))
	for user, ordinal := range transferUsers {
		out.transferUsers = append(out.transferUsers, userRecord{ID: user, Ordinal: ordinal})
	}
	sort.Slice(out.transferUsers, func(i, j int) bool {
		return out.transferUsers[i].ID < out.transferUsers[j].ID
	})
	out.feeMints = feeMintDetector.Detect()

	return out, nil
}

func (p *Pipeline) poolEvent(
	bc *blockContext,
	tx models.Transaction,
	lg models.Log,
	pair models.Pair,
	transferCtx *lpcorrelation.TransferContext,
) (models.PoolEvent, error) {
	event := models.PoolEvent{
		PoolAddress:   pair.Address,
		Token0:        pair.Token0.Address,
		Token1:        pair.Token1.Address,
		FeeTier:       pair.FeeTier,
		TransactionID: tx.Hash,
		LogOrdinal:    lg.Ordinal,
		LogIndex:      lg.Index,
		Timestamp:     bc.timestamp,
		BlockNumber:   bc.block.Number,
		Origin:        tx.From,
		Liquidity:     big.NewInt(0),
	}
	decimals0 := pair.Token0.Decimals
	decimals1 := pair.Token1.Decimals

	switch lg.Type {
	case models.LOG_TYPE_SWAP:
		if lg.Swap == nil {
			return models.PoolEvent{}, fmt.Errorf("%w: Swap log %d of tx %s", ErrMalformedLog, lg.Index, tx.Hash)
		}
		swap := lg.Swap
		event.Type = models.POOL_EVENT_SWAP
		event.Sender = addresshelper.Normalize(swap.Sender)
		event.Recipient = addresshelper.Normalize(swap.To)
		event.Amount0In = mathhelper.ConvertTokenToDecimal(swap.Amount0In, decimals0)
		event.Amount1In = mathhelper.ConvertTokenToDecimal(swap.Amount1In, decimals1)
		event.Amount0Out = mathhelper.ConvertTokenToDecimal(swap.Amount0Out, decimals0)
		event.Amount1Out = mathhelper.ConvertTokenToDecimal(swap.Amount1Out, decimals1)
		event.Amount0 = event.Amount0Out.Sub(event.Amount0In)
		event.Amount1 = event.Amount1Out.Sub(event.Amount1In)

	case models.LOG_TYPE_MINT:
		if lg.Mint == nil {
			return models.PoolEvent{}, fmt.Errorf("%w: Mint log %d of tx %s", ErrMalformedLog, lg.Index, tx.Hash)
		}
		mint := lg.Mint
		event.Type = models.POOL_EVENT_MINT
		event.Sender = addresshelper.Normalize(mint.Sender)
		event.Owner = event.Sender
		event.Amount0 = mathhelper.ConvertTokenToDecimal(mint.Amount0, decimals0)
		event.Amount1 = mathhelper.ConvertTokenToDecimal(mint.Amount1, decimals1)

		if owner, liquidity, ok := transferCtx.ConsumeForMint(pair.Address, lg.Index); ok {
			event.Owner = owner
			event.Liquidity = liquidity
		} else {
			p.logger.Debug("no lp transfer for mint",
				zap.String("pair", pair.Address),
				zap.String("tx", tx.Hash),
				zap.Uint64("log_index", lg.Index),
			)
		}
		event.Recipient = event.Owner

	case models.LOG_TYPE_BURN:
		if lg.Burn == nil {
			return models.PoolEvent{}, fmt.Errorf("%w: Burn log %d of tx %s", ErrMalformedLog, lg.Index, tx.Hash)
		}
		burn := lg.Burn
		event.Type = models.POOL_EVENT_BURN
		event.Sender = addresshelper.Normalize(burn.Sender)
		event.Recipient = addresshelper.Normalize(burn.To)
		event.Owner = event.Sender
		// burned tokens leave the pool
		event.Amount0 = mathhelper.ConvertTokenToDecimal(burn.Amount0, decimals0).Neg()
		event.Amount1 = mathhelper.ConvertTokenToDecimal(burn.Amount1, decimals1).Neg()

		if liquidity, ok := transferCtx.ConsumeForBurn(pair.Address, lg.Index); ok {
			event.Liquidity = liquidity
		} else {
			p.logger.Debug("no lp transfer for burn",
				zap.String("pair", pair.Address),
				zap.String("tx", tx.Hash),
				zap.Uint64("log_index", lg.Index),
			)
		}
	}

	return event, nil
}
