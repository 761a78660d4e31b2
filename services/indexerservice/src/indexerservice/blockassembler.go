package indexerservice

import (
	"fmt"

	"github.com/alexkalak/go_dex_metrics/common/models"
)

// blockAssembler groups log events into transactions until the BlockOver of their block.
type blockAssembler struct {
	chainID uint

	current *models.Block
	txs     map[string]int
}

func newBlockAssembler(chainID uint) *blockAssembler {
	return &blockAssembler{
		chainID: chainID,
	}
}

func (a *blockAssembler) reset() {
	a.current = nil
	a.txs = nil
}

func (a *blockAssembler) open(blockNumber uint64) {
	a.current = &models.Block{
		ChainID: a.chainID,
		Number:  blockNumber,
	}
	a.txs = map[string]int{}
}

// add returns the finished block on its BlockOver. Events of a new block arriving before
// the BlockOver of the current one drop the current block with ErrIncompleteBlock and
// start the new one.
func (a *blockAssembler) add(event models.BlockEvent) (models.Block, bool, error) {
	if event.ChainID != a.chainID {
		return models.Block{}, false, fmt.Errorf("%w: %d", ErrForeignChain, event.ChainID)
	}

	var incomplete error
	if a.current != nil && a.current.Number != event.BlockNumber {
		incomplete = fmt.Errorf("%w: block %d", ErrIncompleteBlock, a.current.Number)
		a.reset()
	}

	switch event.Type {
	case models.BLOCK_EVENT_LOG:
		if event.Log == nil {
			return models.Block{}, false, fmt.Errorf("%w: block %d tx %s", ErrMissingLog, event.BlockNumber, event.TxHash)
		}
		if a.current == nil {
			a.open(event.BlockNumber)
		}

		i, ok := a.txs[event.TxHash]
		if !ok {
			i = len(a.current.Transactions)
			a.txs[event.TxHash] = i
			a.current.Transactions = append(a.current.Transactions, models.Transaction{
				Hash:  event.TxHash,
				From:  event.TxFrom,
				To:    event.TxTo,
				Index: event.TxIndex,
			})
		}
		a.current.Transactions[i].Logs = append(a.current.Transactions[i].Logs, *event.Log)
		return models.Block{}, false, incomplete

	case models.BLOCK_EVENT_BLOCK_OVER:
		if a.current == nil {
			a.open(event.BlockNumber)
		}
		block := *a.current
		block.Hash = event.BlockHash
		block.Timestamp = event.Timestamp
		block.OracleRound = event.OracleRound
		a.reset()
		return block, true, incomplete
	}

	return models.Block{}, false, fmt.Errorf("%w: %s", ErrUnknownBlockEvent, event.Type)
}
