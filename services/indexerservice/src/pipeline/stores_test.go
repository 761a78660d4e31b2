package pipeline

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/alexkalak/go_dex_metrics/common/periphery/boltdb"
	"github.com/alexkalak/go_dex_metrics/common/repo/checkpointrepo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCheckpointRepo(t *testing.T) checkpointrepo.CheckpointRepo {
	t.Helper()

	database, err := boltdb.New(boltdb.BoltDatabaseConfig{Path: filepath.Join(t.TempDir(), "checkpoint.db")})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	repo, err := checkpointrepo.New(checkpointrepo.CheckpointRepoDependencies{Database: database})
	require.NoError(t, err)
	return repo
}

// processAndSave runs a block and checkpoints it the way the indexer does.
func processAndSave(t *testing.T, p *Pipeline, repo checkpointrepo.CheckpointRepo, b models.Block) models.BlockEntityChanges {
	t.Helper()

	out, err := p.Process(b)
	require.NoError(t, err)

	changes, err := p.Stores().KeyChanges()
	require.NoError(t, err)
	require.NoError(t, repo.SaveBlock(checkpointrepo.Cursor{
		ChainID:     b.ChainID,
		BlockNumber: b.Number,
		BlockHash:   b.Hash,
	}, changes))

	p.Commit(b.Number)
	return out
}

func TestStores_KeyChangesKeepLastWritePerKey(t *testing.T) {
	p := newTestPipeline(t)
	createUSDCPool(t, p)

	_, err := p.Process(block(2, dayStart+3600,
		tx("0xsync",
			syncLog(0, poolUSDC, units(1000, 6), units(1, 18)),
			syncLog(1, poolUSDC, units(2000, 6), units(1, 18)),
		),
	))
	require.NoError(t, err)

	changes, err := p.Stores().KeyChanges()
	require.NoError(t, err)

	prices := map[string]string{}
	for _, change := range changes[PRICES_STORE] {
		require.False(t, change.Deleted)
		prices[change.Key] = string(change.Value)
	}
	assert.Equal(t, `"2000"`, prices["pair:"+usdc+":"+weth])

	_, ok := changes[POOLS_STORE]
	assert.False(t, ok, "stores left untouched by the block have no changes")
}

func TestStores_KeyChangesReportDeletedKeys(t *testing.T) {
	p := newTestPipeline(t)
	createUSDCPool(t, p)

	day := dayStart + 3600
	process(t, p, swapBlock(2, day, "0xswap"))

	_, err := p.Process(block(3, day+86400))
	require.NoError(t, err)

	changes, err := p.Stores().KeyChanges()
	require.NoError(t, err)

	deleted := map[string]bool{}
	for _, change := range changes[SWAP_VOLUMES_STORE] {
		deleted[change.Key] = change.Deleted
	}
	assert.True(t, deleted["UniswapDayData:19676:volumeUSD"])
}

func TestStores_RestoreFromCheckpoint(t *testing.T) {
	repo := setupCheckpointRepo(t)

	first := newTestPipeline(t)
	processAndSave(t, first, repo, block(1, dayStart+60,
		tx("0xcreate", pairCreatedLog(0, poolUSDC, testToken(usdc, "USDC", 6), testToken(weth, "WETH", 18))),
	))
	processAndSave(t, first, repo, block(2, dayStart+120,
		tx("0xsync", syncLog(0, poolUSDC, units(200000, 6), units(100, 18))),
	))

	cursor, found, err := repo.LoadCursor(testChainID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(2), cursor.BlockNumber)

	restarted := newTestPipeline(t)
	require.NoError(t, restarted.Stores().Restore(repo))
	restarted.Resume(cursor.BlockNumber)

	pair, ok := restarted.Stores().Pools.GetLast(pairKey(poolUSDC))
	require.True(t, ok)
	assert.Equal(t, usdc, pair.Token0.Address)
	assert.Equal(t, 6, pair.Token0.Decimals)

	pools, ok := restarted.Stores().WhitelistPools.GetLast("token:" + usdc)
	require.True(t, ok)
	assert.Equal(t, []string{poolUSDC}, pools)

	reserves, ok := restarted.Stores().Reserves.GetLast(poolKey(poolUSDC))
	require.True(t, ok)
	assert.Equal(t, units(100, 18).String(), reserves.Reserve1.String())

	bundle, ok := restarted.Stores().EthPrices.GetLast("bundle")
	require.True(t, ok)
	assert.True(t, bundle.Equal(decimal.NewFromInt(2000)))

	_, err = restarted.Process(block(2, dayStart+120))
	assert.ErrorIs(t, err, ErrBlockOutOfOrder)

	// a restored pipeline continues exactly where the first one stopped
	out := process(t, restarted, block(3, dayStart+3600,
		tx("0xswap", swapLog(0, poolUSDC, units(2000, 6), big.NewInt(0), big.NewInt(0), units(1, 18))),
	))

	swap := requireChange(t, out, ENTITY_SWAP, "0xswap#1")
	assertDecimalField(t, swap, "amountUSD", "2000")

	token := requireChange(t, out, ENTITY_TOKEN, usdc)
	assert.Equal(t, models.ENTITY_OPERATION_UPDATE, token.Operation)
}
