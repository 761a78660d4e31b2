package collectorcursorrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/alexkalak/go_dex_metrics/common/periphery/redisdb"
	"github.com/redis/go-redis/v9"
)

const COLLECTOR_CURSOR_KEY = "collector_last_block"

func getCollectorCursorKeyByChainID(chainID uint) string {
	return fmt.Sprintf("%d.%s", chainID, COLLECTOR_CURSOR_KEY)
}

// CollectorCursorCacheRepo keeps the last block whose events were published.
type CollectorCursorCacheRepo interface {
	GetLastBlock(chainID uint) (uint64, bool, error)
	SetLastBlock(chainID uint, blockNumber uint64) error
}

type CollectorCursorCacheRepoDependencies struct {
	Database *redisdb.RedisDatabase
}

func (d *CollectorCursorCacheRepoDependencies) validate() error {
	if d.Database == nil {
		return errors.New("collector cursor repo database dependency cannot be nil")
	}
	return nil
}

type collectorCursorCacheRepo struct {
	redisDB *redisdb.RedisDatabase
	ctx     context.Context
}

func NewCacheRepo(ctx context.Context, dependencies CollectorCursorCacheRepoDependencies) (CollectorCursorCacheRepo, error) {
	if err := dependencies.validate(); err != nil {
		return nil, err
	}

	return &collectorCursorCacheRepo{
		redisDB: dependencies.Database,
		ctx:     ctx,
	}, nil
}

func (r *collectorCursorCacheRepo) GetLastBlock(chainID uint) (uint64, bool, error) {
	rdb, err := r.redisDB.GetDB()
	if err != nil {
		return 0, false, err
	}

	value, err := rdb.Get(r.ctx, getCollectorCursorKeyByChainID(chainID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	blockNumber, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("collector cursor %q: %w", value, err)
	}
	return blockNumber, true, nil
}

func (r *collectorCursorCacheRepo) SetLastBlock(chainID uint, blockNumber uint64) error {
	rdb, err := r.redisDB.GetDB()
	if err != nil {
		return err
	}

	return rdb.Set(r.ctx, getCollectorCursorKeyByChainID(chainID), strconv.FormatUint(blockNumber, 10), 0).Err()
}
