package eventcollectorservice

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/alexkalak/go_dex_metrics/common/helpers/addresshelper"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

type collectedLog struct {
	raw     types.Log
	decoded models.Log
}

type fetchedBlock struct {
	block *types.Block
	round *models.OracleRound
	err   error
}

func (s *eventCollector) Start(ctx context.Context) error {
	defer s.writer.Close()

	from, err := s.firstBlock()
	if err != nil {
		return err
	}
	if err := s.loadPairs(); err != nil {
		return err
	}

	s.logger.Info("collecting block events",
		zap.Uint64("from_block", from),
		zap.Int("pairs", len(s.pairs)),
	)
	for {
		head, err := s.chain.BlockNumber(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("unable to get head block", zap.Error(err))
			if !s.wait(ctx) {
				return nil
			}
			continue
		}
		if from > head {
			if !s.wait(ctx) {
				return nil
			}
			continue
		}

		to := min(from+s.config.BlockChunk-1, head)
		startedAt := time.Now()
		published, err := s.collectRange(ctx, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("collect blocks %d-%d: %w", from, to, err)
		}
		if err := s.cursorRepo.SetLastBlock(s.config.ChainID, to); err != nil {
			return err
		}

		s.logger.Info("blocks collected",
			zap.Uint64("from_block", from),
			zap.Uint64("to_block", to),
			zap.Int("published_blocks", published),
			zap.Int("pairs", len(s.pairs)),
			zap.Duration("took", time.Since(startedAt)),
		)
		from = to + 1
	}
}

func (s *eventCollector) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.config.PollInterval):
		return true
	}
}

func (s *eventCollector) firstBlock() (uint64, error) {
	lastBlock, found, err := s.cursorRepo.GetLastBlock(s.config.ChainID)
	if err != nil {
		return 0, err
	}
	if !found {
		return s.config.StartBlock, nil
	}
	return lastBlock + 1, nil
}

func (s *eventCollector) loadPairs() error {
	addresses, err := s.pairRepo.GetPairAddressesByChainID(s.config.ChainID)
	if err != nil {
		return err
	}
	for _, address := range addresses {
		s.pairs[addresshelper.Normalize(address)] = struct{}{}
	}
	return nil
}

// collectRange publishes every block of [from, to] holding factory or pair events and
// returns how many were published.
func (s *eventCollector) collectRange(ctx context.Context, from, to uint64) (int, error) {
	created, newPairs, err := s.collectPairsCreated(ctx, from, to)
	if err != nil {
		return 0, err
	}
	pairLogs, err := s.collectPairLogs(ctx, from, to)
	if err != nil {
		return 0, err
	}

	logs := append(created, pairLogs...)
	if len(logs) == 0 {
		return 0, nil
	}
	slices.SortFunc(logs, func(a, b collectedLog) int {
		if c := cmp.Compare(a.raw.BlockNumber, b.raw.BlockNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.raw.Index, b.raw.Index)
	})

	numbers := []uint64{}
	byBlock := map[uint64][]collectedLog{}
	for _, lg := range logs {
		if _, ok := byBlock[lg.raw.BlockNumber]; !ok {
			numbers = append(numbers, lg.raw.BlockNumber)
		}
		byBlock[lg.raw.BlockNumber] = append(byBlock[lg.raw.BlockNumber], lg)
	}

	blocks, err := s.fetchBlocks(ctx, numbers)
	if err != nil {
		return 0, err
	}

	for i := range newPairs {
		if block, ok := blocks[newPairs[i].CreatedAtBlockNumber]; ok {
			newPairs[i].CreatedAtTimestamp = block.block.Time()
		}
	}
	if err := s.pairRepo.InsertPairs(newPairs); err != nil {
		return 0, err
	}

	for _, number := range numbers {
		events, err := s.blockEvents(blocks[number], byBlock[number])
		if err != nil {
			return 0, err
		}
		if err := s.writer.WriteBlock(ctx, events); err != nil {
			return 0, fmt.Errorf("publish block %d: %w", number, err)
		}
	}
	return len(numbers), nil
}

func blockRange(from, to uint64) (*big.Int, *big.Int) {
	return new(big.Int).SetUint64(from), new(big.Int).SetUint64(to)
}

// collectPairsCreated starts tracking the pairs created by the factory in [from, to].
// Pairs whose tokens cannot be read from chain are left out.
func (s *eventCollector) collectPairsCreated(ctx context.Context, from, to uint64) ([]collectedLog, []models.Pair, error) {
	fromBlock, toBlock := blockRange(from, to)
	raw, err := s.chain.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Addresses: []common.Address{common.HexToAddress(s.config.Factory)},
		Topics:    [][]common.Hash{s.decoder.FactoryTopics()},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("factory logs: %w", err)
	}

	decoded, err := s.decode(raw)
	if err != nil {
		return nil, nil, err
	}
	if len(decoded) == 0 {
		return nil, nil, nil
	}

	tokenAddresses := make([]string, 0, 2*len(decoded))
	for _, lg := range decoded {
		tokenAddresses = append(tokenAddresses, lg.decoded.PairCreated.Token0.Address, lg.decoded.PairCreated.Token1.Address)
	}
	tokens, err := s.tokens.resolve(ctx, tokenAddresses, toBlock)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve tokens: %w", err)
	}

	kept := make([]collectedLog, 0, len(decoded))
	pairs := make([]models.Pair, 0, len(decoded))
	for _, lg := range decoded {
		event := lg.decoded.PairCreated
		token0, ok0 := tokens[event.Token0.Address]
		token1, ok1 := tokens[event.Token1.Address]
		if !ok0 || !ok1 {
			s.logger.Warn("skipping pair with unreadable tokens",
				zap.String("pair", event.Pair),
				zap.String("token0", event.Token0.Address),
				zap.String("token1", event.Token1.Address),
			)
			continue
		}
		event.Token0 = token0
		event.Token1 = token1

		s.pairs[event.Pair] = struct{}{}
		kept = append(kept, lg)
		pairs = append(pairs, models.Pair{
			Address:              event.Pair,
			ChainID:              s.config.ChainID,
			Token0:               token0,
			Token1:               token1,
			FeeTier:              s.config.FeeTier,
			CreatedAtBlockNumber: lg.raw.BlockNumber,
			TransactionID:        lg.raw.TxHash.Hex(),
			LogOrdinal:           lg.decoded.Ordinal,
		})
	}
	return kept, pairs, nil
}

func (s *eventCollector) collectPairLogs(ctx context.Context, from, to uint64) ([]collectedLog, error) {
	if len(s.pairs) == 0 {
		return nil, nil
	}

	addresses := make([]common.Address, 0, len(s.pairs))
	for pair := range s.pairs {
		addresses = append(addresses, common.HexToAddress(pair))
	}

	fromBlock, toBlock := blockRange(from, to)
	logs := []collectedLog{}
	for batch := range slices.Chunk(addresses, pairAddressesBatch) {
		raw, err := s.chain.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: fromBlock,
			ToBlock:   toBlock,
			Addresses: batch,
			Topics:    [][]common.Hash{s.decoder.PairTopics()},
		})
		if err != nil {
			return nil, fmt.Errorf("pair logs: %w", err)
		}
		decoded, err := s.decode(raw)
		if err != nil {
			return nil, err
		}
		logs = append(logs, decoded...)
	}
	return logs, nil
}

// decode fails on the first log that matches a known event but cannot be unpacked,
// nothing of the range gets published then.
func (s *eventCollector) decode(raw []types.Log) ([]collectedLog, error) {
	logs := make([]collectedLog, 0, len(raw))
	for _, lg := range raw {
		if lg.Removed {
			continue
		}
		decoded, ok, err := s.decoder.Decode(lg)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", lg.BlockNumber, err)
		}
		if !ok {
			continue
		}
		logs = append(logs, collectedLog{raw: lg, decoded: decoded})
	}
	return logs, nil
}

func (s *eventCollector) fetchBlocks(ctx context.Context, numbers []uint64) (map[uint64]fetchedBlock, error) {
	results := make([]fetchedBlock, len(numbers))

	group := s.blockPool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for i, number := range numbers {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				results[i].err = err
				return
			}
			results[i] = s.fetchBlock(groupCtx, number)
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return nil, err
	}

	blocks := make(map[uint64]fetchedBlock, len(numbers))
	for i, number := range numbers {
		if results[i].err != nil {
			return nil, results[i].err
		}
		blocks[number] = results[i]
	}
	return blocks, nil
}

func (s *eventCollector) fetchBlock(ctx context.Context, number uint64) fetchedBlock {
	blockNumber := new(big.Int).SetUint64(number)
	block, err := s.chain.BlockByNumber(ctx, blockNumber)
	if err != nil {
		return fetchedBlock{err: fmt.Errorf("block %d: %w", number, err)}
	}
	if block == nil {
		return fetchedBlock{err: fmt.Errorf("%w: %d", ErrBlockNotFound, number)}
	}

	if s.config.EthUSDOracle == "" {
		return fetchedBlock{block: block}
	}
	round, err := s.rpcClient.GetOracleRound(ctx, s.config.EthUSDOracle, blockNumber)
	if err != nil {
		s.logger.Warn("oracle round unavailable",
			zap.Uint64("block", number),
			zap.Error(err),
		)
		round = nil
	}
	return fetchedBlock{block: block, round: round}
}

// blockEvents fails when a log does not belong to the fetched block, which happens when
// the chain reorganized between the log filter and the block read.
func (s *eventCollector) blockEvents(fetched fetchedBlock, logs []collectedLog) ([]models.BlockEvent, error) {
	block := fetched.block
	txs := make(map[common.Hash]*types.Transaction, len(block.Transactions()))
	for _, tx := range block.Transactions() {
		txs[tx.Hash()] = tx
	}

	events := make([]models.BlockEvent, 0, len(logs)+1)
	for _, lg := range logs {
		if lg.raw.BlockHash != block.Hash() {
			return nil, fmt.Errorf("%w: block %d hash %s, log from %s", ErrBlockHashMismatch, block.NumberU64(), block.Hash().Hex(), lg.raw.BlockHash.Hex())
		}
		tx, ok := txs[lg.raw.TxHash]
		if !ok {
			return nil, fmt.Errorf("%w: tx %s block %d", ErrTransactionNotInBlock, lg.raw.TxHash.Hex(), block.NumberU64())
		}
		sender, err := types.Sender(s.signer, tx)
		if err != nil {
			return nil, fmt.Errorf("sender of tx %s: %w", tx.Hash().Hex(), err)
		}
		txTo := ""
		if tx.To() != nil {
			txTo = addresshelper.FromAddress(*tx.To())
		}

		decoded := lg.decoded
		events = append(events, models.BlockEvent{
			Type:        models.BLOCK_EVENT_LOG,
			ChainID:     s.config.ChainID,
			BlockNumber: block.NumberU64(),
			TxHash:      lg.raw.TxHash.Hex(),
			TxFrom:      addresshelper.FromAddress(sender),
			TxTo:        txTo,
			TxIndex:     lg.raw.TxIndex,
			Log:         &decoded,
		})
	}

	events = append(events, models.BlockEvent{
		Type:        models.BLOCK_EVENT_BLOCK_OVER,
		ChainID:     s.config.ChainID,
		BlockNumber: block.NumberU64(),
		BlockHash:   block.Hash().Hex(),
		Timestamp:   block.Time(),
		OracleRound: fetched.round,
	})
	return events, nil
}
