package indexerservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/alexkalak/go_dex_metrics/common/repo/checkpointrepo"
	"github.com/alexkalak/go_dex_metrics/common/repo/entitychangerepo"
	"github.com/alexkalak/go_dex_metrics/services/indexerservice/src/pipeline"
	"go.uber.org/zap"
)

type IndexerService interface {
	Start(ctx context.Context) error
}

type IndexerServiceConfig struct {
	ChainID               uint
	KafkaServer           string
	KafkaBlockEventsTopic string
	KafkaConsumerGroup    string
}

func (c *IndexerServiceConfig) validate() error {
	if c.ChainID == 0 {
		return errors.New("indexer service config ChainID not set")
	}

	if c.KafkaServer == "" {
		return errors.New("indexer service config KafkaServer not set")
	}

	if c.KafkaBlockEventsTopic == "" {
		return errors.New("indexer service config KafkaBlockEventsTopic not set")
	}

	if c.KafkaConsumerGroup == "" {
		return errors.New("indexer service config KafkaConsumerGroup not set")
	}

	return nil
}

type IndexerServiceDependencies struct {
	Pipeline              *pipeline.Pipeline
	CheckpointRepo        checkpointrepo.CheckpointRepo
	EntityChangeDBRepo    entitychangerepo.EntityChangeDBRepo
	EntityChangeCacheRepo entitychangerepo.EntityChangeCacheRepo
	Logger                *zap.Logger
}

func (d *IndexerServiceDependencies) validate() error {
	if d.Pipeline == nil {
		return errors.New("indexer service dependencies Pipeline cannot be nil")
	}

	if d.CheckpointRepo == nil {
		return errors.New("indexer service dependencies CheckpointRepo cannot be nil")
	}

	if d.EntityChangeDBRepo == nil {
		return errors.New("indexer service dependencies EntityChangeDBRepo cannot be nil")
	}

	if d.EntityChangeCacheRepo == nil {
		return errors.New("indexer service dependencies EntityChangeCacheRepo cannot be nil")
	}

	if d.Logger == nil {
		return errors.New("indexer service dependencies Logger cannot be nil")
	}

	return nil
}

type indexerService struct {
	config IndexerServiceConfig

	pipeline              *pipeline.Pipeline
	checkpointRepo        checkpointrepo.CheckpointRepo
	entityChangeDBRepo    entitychangerepo.EntityChangeDBRepo
	entityChangeCacheRepo entitychangerepo.EntityChangeCacheRepo
	logger                *zap.Logger

	assembler *blockAssembler
}

func New(config IndexerServiceConfig, dependencies IndexerServiceDependencies) (IndexerService, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if err := dependencies.validate(); err != nil {
		return nil, err
	}

	return newIndexerService(config, dependencies), nil
}

func newIndexerService(config IndexerServiceConfig, dependencies IndexerServiceDependencies) *indexerService {
	return &indexerService{
		config:                config,
		pipeline:              dependencies.Pipeline,
		checkpointRepo:        dependencies.CheckpointRepo,
		entityChangeDBRepo:    dependencies.EntityChangeDBRepo,
		entityChangeCacheRepo: dependencies.EntityChangeCacheRepo,
		logger:                dependencies.Logger,
		assembler:             newBlockAssembler(config.ChainID),
	}
}

// restore loads the checkpointed stores and drops entity changes written after the
// checkpoint, their block is replayed from kafka.
func (s *indexerService) restore() error {
	cursor, found, err := s.checkpointRepo.LoadCursor(s.config.ChainID)
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}
	if !found {
		s.logger.Info("no checkpoint, indexing from the first block event")
		return nil
	}

	if err := s.pipeline.Stores().Restore(s.checkpointRepo); err != nil {
		return fmt.Errorf("restore stores: %w", err)
	}
	s.pipeline.Resume(cursor.BlockNumber)

	if err := s.entityChangeDBRepo.DeleteChangesFromBlock(s.config.ChainID, cursor.BlockNumber+1); err != nil {
		return fmt.Errorf("delete changes after block %d: %w", cursor.BlockNumber, err)
	}

	s.logger.Info("restored from checkpoint",
		zap.Uint64("block", cursor.BlockNumber),
		zap.String("block_hash", cursor.BlockHash),
		zap.Int64("kafka_offset", cursor.KafkaOffset),
	)
	return nil
}

// handleBlock runs the pipeline on a block and writes its results. Stores are committed
// only once both sinks and the checkpoint are written.
func (s *indexerService) handleBlock(block models.Block, offset int64) error {
	startedAt := time.Now()

	changes, err := s.pipeline.Process(block)
	if errors.Is(err, pipeline.ErrBlockOutOfOrder) {
		s.logger.Info("skipping already indexed block", zap.Uint64("block", block.Number))
		return nil
	}
	if err != nil {
		return fmt.Errorf("process block %d: %w", block.Number, err)
	}

	if err := s.entityChangeDBRepo.InsertBlockChanges(changes); err != nil {
		return fmt.Errorf("insert changes of block %d: %w", block.Number, err)
	}
	if err := s.entityChangeCacheRepo.StreamBlockChanges(changes); err != nil {
		return fmt.Errorf("stream changes of block %d: %w", block.Number, err)
	}

	keyChanges, err := s.pipeline.Stores().KeyChanges()
	if err != nil {
		return err
	}
	cursor := checkpointrepo.Cursor{
		ChainID:     s.config.ChainID,
		BlockNumber: block.Number,
		BlockHash:   block.Hash,
		KafkaOffset: offset,
	}
	if err := s.checkpointRepo.SaveBlock(cursor, keyChanges); err != nil {
		return fmt.Errorf("checkpoint block %d: %w", block.Number, err)
	}
	s.pipeline.Commit(block.Number)

	s.logger.Info("block indexed",
		zap.Uint64("block", block.Number),
		zap.Int("transactions", len(block.Transactions)),
		zap.Int("entity_changes", len(changes.Changes)),
		zap.Duration("took", time.Since(startedAt)),
	)
	return nil
}
