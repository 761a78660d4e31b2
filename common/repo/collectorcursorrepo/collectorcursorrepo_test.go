package collectorcursorrepo

import (
	"context"
	"testing"

	"github.com/alexkalak/go_dex_metrics/common/periphery/redisdb"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) (*miniredis.Miniredis, CollectorCursorCacheRepo) {
	t.Helper()

	mr := miniredis.RunT(t)
	database, err := redisdb.New(redisdb.RedisDatabaseConfig{RedisServer: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	repo, err := NewCacheRepo(context.Background(), CollectorCursorCacheRepoDependencies{Database: database})
	require.NoError(t, err)

	return mr, repo
}

func TestNewCacheRepo_NilDatabase(t *testing.T) {
	_, err := NewCacheRepo(context.Background(), CollectorCursorCacheRepoDependencies{})
	assert.Error(t, err)
}

func TestCollectorCursor_NotFound(t *testing.T) {
	_, repo := setupTestRepo(t)

	_, found, err := repo.GetLastBlock(1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCollectorCursor_SetThenGet(t *testing.T) {
	mr, repo := setupTestRepo(t)

	require.NoError(t, repo.SetLastBlock(1, 120))
	require.NoError(t, repo.SetLastBlock(1, 180))
	require.NoError(t, repo.SetLastBlock(11155111, 7))

	blockNumber, found, err := repo.GetLastBlock(1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(180), blockNumber)

	stored, err := mr.Get("11155111.collector_last_block")
	require.NoError(t, err)
	assert.Equal(t, "7", stored)
}

func TestCollectorCursor_Garbage(t *testing.T) {
	mr, repo := setupTestRepo(t)

	require.NoError(t, mr.Set("1.collector_last_block", "abc"))
	_, _, err := repo.GetLastBlock(1)
	assert.Error(t, err)
}
