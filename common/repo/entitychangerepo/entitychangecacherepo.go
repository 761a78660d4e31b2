package entitychangerepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/alexkalak/go_dex_metrics/common/periphery/redisdb"
	"github.com/redis/go-redis/v9"
)

const ENTITY_CHANGES_STREAM = "entity_changes"
const ENTITY_CHANGES_STREAM_FIELD = "block"

func getEntityChangesStreamByChainID(chainID uint) string {
	return fmt.Sprintf("%d_%s", chainID, ENTITY_CHANGES_STREAM)
}

type EntityChangeCacheRepo interface {
	StreamBlockChanges(block models.BlockEntityChanges) error
}

type EntityChangeCacheRepoConfig struct {
	// approximate stream length cap, 0 keeps everything
	MaxLen int64
}

type EntityChangeCacheRepoDependencies struct {
	Database *redisdb.RedisDatabase
}

func (d *EntityChangeCacheRepoDependencies) validate() error {
	if d.Database == nil {
		return errors.New("entity change cache repo database dependency cannot be nil")
	}
	return nil
}

type entityChangeCacheRepo struct {
	redisDB *redisdb.RedisDatabase
	maxLen  int64
	ctx     context.Context
}

func NewCacheRepo(ctx context.Context, config EntityChangeCacheRepoConfig, dependencies EntityChangeCacheRepoDependencies) (EntityChangeCacheRepo, error) {
	if err := dependencies.validate(); err != nil {
		return nil, err
	}

	return &entityChangeCacheRepo{
		redisDB: dependencies.Database,
		maxLen:  config.MaxLen,
		ctx:     ctx,
	}, nil
}

func (r *entityChangeCacheRepo) StreamBlockChanges(block models.BlockEntityChanges) error {
	rdb, err := r.redisDB.GetDB()
	if err != nil {
		return err
	}

	formattedBlock, err := json.Marshal(&block)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: getEntityChangesStreamByChainID(block.ChainID),
		Values: map[string]any{
			ENTITY_CHANGES_STREAM_FIELD: formattedBlock,
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	return rdb.XAdd(r.ctx, args).Err()
}
