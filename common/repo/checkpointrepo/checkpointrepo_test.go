package checkpointrepo

import (
	"path/filepath"
	"testing"

	"github.com/alexkalak/go_dex_metrics/common/periphery/boltdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) CheckpointRepo {
	t.Helper()

	database, err := boltdb.New(boltdb.BoltDatabaseConfig{Path: filepath.Join(t.TempDir(), "checkpoint.db")})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	repo, err := New(CheckpointRepoDependencies{Database: database})
	require.NoError(t, err)
	return repo
}

func TestNew_NilDatabase(t *testing.T) {
	_, err := New(CheckpointRepoDependencies{})
	assert.Error(t, err)
}

func TestCheckpointRepo_EmptyDatabase(t *testing.T) {
	repo := setupTestRepo(t)

	_, found, err := repo.LoadCursor(1)
	require.NoError(t, err)
	assert.False(t, found)

	values, err := repo.LoadStore("prices")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestCheckpointRepo_SaveBlockAppliesChanges(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.SaveBlock(Cursor{ChainID: 1, BlockNumber: 10, BlockHash: "0xa", KafkaOffset: 41}, map[string][]KeyChange{
		"prices": {
			{Key: "pair:0xa:0xb", Value: []byte(`"2"`)},
			{Key: "PoolDayData:1:0xp:token0", Value: []byte(`"3"`)},
		},
		"pools": {
			{Key: "pair:0xp", Value: []byte(`{}`)},
		},
	})
	require.NoError(t, err)

	err = repo.SaveBlock(Cursor{ChainID: 1, BlockNumber: 11, BlockHash: "0xb", KafkaOffset: 42}, map[string][]KeyChange{
		"prices": {
			{Key: "pair:0xa:0xb", Value: []byte(`"4"`)},
			{Key: "PoolDayData:1:0xp:token0", Deleted: true},
		},
	})
	require.NoError(t, err)

	cursor, found, err := repo.LoadCursor(1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, Cursor{ChainID: 1, BlockNumber: 11, BlockHash: "0xb", KafkaOffset: 42}, cursor)

	prices, err := repo.LoadStore("prices")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"pair:0xa:0xb": []byte(`"4"`)}, prices)

	pools, err := repo.LoadStore("pools")
	require.NoError(t, err)
	assert.Len(t, pools, 1)

	_, found, err = repo.LoadCursor(2)
	require.NoError(t, err)
	assert.False(t, found)
}
