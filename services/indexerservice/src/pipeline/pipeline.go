// Package pipeline turns decoded blocks into store writes and entity changes.
// Stages run one after another and each one only reads stores written before it.
package pipeline

import (
	"errors"

	"github.com/alexkalak/go_dex_metrics/common/core/chainconfig"
	"github.com/alexkalak/go_dex_metrics/common/core/priceoracle"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"go.uber.org/zap"
)

type PipelineDependencies struct {
	Logger *zap.Logger
}

func (d *PipelineDependencies) validate() error {
	if d.Logger == nil {
		return errors.New("pipeline logger dependency cannot be nil")
	}
	return nil
}

type Pipeline struct {
	config chainconfig.Config
	stores *Stores
	oracle *priceoracle.PriceOracle
	logger *zap.Logger

	lastBlock *uint64
	pending   bool
}

func New(config chainconfig.Config, dependencies PipelineDependencies) (*Pipeline, error) {
	if err := dependencies.validate(); err != nil {
		return nil, err
	}

	stores := NewStores()
	oracle, err := priceoracle.New(config, priceoracle.PriceOracleDependencies{
		Pools:          stores.Pools,
		Liquidities:    stores.Liquidities,
		WhitelistPools: stores.WhitelistPools,
		NativeAmounts:  stores.NativeAmounts,
		Prices:         stores.Prices,
		Logger:         dependencies.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		config: config,
		stores: stores,
		oracle: oracle,
		logger: dependencies.Logger,
	}, nil
}

func (p *Pipeline) Stores() *Stores {
	return p.stores
}

// Resume makes Process reject blocks up to and including blockNumber.
func (p *Pipeline) Resume(blockNumber uint64) {
	p.lastBlock = &blockNumber
}

// blockContext carries the per block outputs of the map stages.
type blockContext struct {
	block        models.Block
	timestamp    uint64
	pairsCreated []models.Pair
	extracted    extracted
}

// Process runs every stage on block and returns its entity changes. Store writes stay
// pending until Commit, so a failed sink can be retried after a restart.
func (p *Pipeline) Process(block models.Block) (models.BlockEntityChanges, error) {
	if p.pending {
		return models.BlockEntityChanges{}, ErrUncommittedBlock
	}
	if p.lastBlock != nil && block.Number <= *p.lastBlock {
		return models.BlockEntityChanges{}, ErrBlockOutOfOrder
	}
	if block.Timestamp == 0 {
		return models.BlockEntityChanges{}, ErrMissingTimestamp
	}
	p.pending = true

	bc := &blockContext{
		block:     block,
		timestamp: block.Timestamp,
	}

	pairsCreated, err := p.mapPairsCreated(block)
	if err != nil {
		return models.BlockEntityChanges{}, err
	}
	bc.pairsCreated = pairsCreated

	p.storePairsCreated(bc)
	p.storeTokens(bc)
	p.storePairCount(bc)
	p.storeWhitelistPools(bc)

	extracted, err := p.mapExtract(bc)
	if err != nil {
		return models.BlockEntityChanges{}, err
	}
	bc.extracted = extracted

	p.storeReserves(bc)
	p.storePrices(bc)
	p.storeLiquidities(bc)
	p.storeNativeAmounts(bc)
	p.storeTxCounts(bc)
	p.storeEthPrices(bc)
	p.storeSwapVolumes(bc)
	p.storeTokenTVL(bc)
	p.storeDerivedTVL(bc)
	p.storeFactoryTVL(bc)
	p.storeMinWindows(bc)
	p.storeMaxWindows(bc)

	changes := p.entityChanges(bc)

	p.logger.Debug("block processed",
		zap.Uint64("block", block.Number),
		zap.Int("pairs_created", len(bc.pairsCreated)),
		zap.Int("pool_events", len(bc.extracted.events)),
		zap.Int("entity_changes", len(changes)),
	)

	return models.BlockEntityChanges{
		ChainID:     block.ChainID,
		BlockNumber: block.Number,
		BlockHash:   block.Hash,
		Timestamp:   block.Timestamp,
		Changes:     changes,
	}, nil
}

// Commit closes the processed block in every store.
func (p *Pipeline) Commit(blockNumber uint64) {
	p.stores.Commit()
	p.lastBlock = &blockNumber
	p.pending = false
}
