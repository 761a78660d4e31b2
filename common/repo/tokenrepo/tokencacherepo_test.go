package tokenrepo

import (
	"context"
	"math/big"
	"testing"

	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/alexkalak/go_dex_metrics/common/periphery/redisdb"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCacheRepo(t *testing.T) (*miniredis.Miniredis, TokenCacheRepo) {
	t.Helper()

	mr := miniredis.RunT(t)
	database, err := redisdb.New(redisdb.RedisDatabaseConfig{RedisServer: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	repo, err := NewCacheRepo(context.Background(), TokenCacheRepoDependencies{Database: database})
	require.NoError(t, err)

	return mr, repo
}

func TestNewCacheRepo_NilDatabase(t *testing.T) {
	_, err := NewCacheRepo(context.Background(), TokenCacheRepoDependencies{})
	assert.Error(t, err)
}

func TestTokenCacheRepo_SetThenGet(t *testing.T) {
	mr, repo := setupTestCacheRepo(t)

	weth := models.Token{
		Name:        "Wrapped Ether",
		Symbol:      "WETH",
		Address:     "0xe91d02e66a9152fee1bc79c1830121f6507a4f6d",
		ChainID:     11155111,
		Decimals:    18,
		TotalSupply: big.NewInt(1000),
	}
	usdc := models.Token{
		Name:     "USD Coin",
		Symbol:   "USDC",
		Address:  "0x46a906fca4487c87f0d89d2d0824ec57bdaa947d",
		ChainID:  11155111,
		Decimals: 6,
	}

	require.NoError(t, repo.SetTokens([]models.Token{weth, usdc}))
	assert.True(t, mr.Exists("11155111.tokens"))

	tokens, err := repo.GetTokens(11155111, []string{weth.Address, "0x0000000000000000000000000000000000000001"})
	require.NoError(t, err)
	require.Len(t, tokens, 1)

	got := tokens[weth.Address]
	assert.Equal(t, "WETH", got.Symbol)
	assert.Equal(t, 18, got.Decimals)
	assert.Equal(t, 0, got.TotalSupply.Cmp(big.NewInt(1000)))
}

func TestTokenCacheRepo_ChainsAreSeparated(t *testing.T) {
	_, repo := setupTestCacheRepo(t)

	token := models.Token{Address: "0xaa", ChainID: 1, Symbol: "A", Decimals: 18}
	require.NoError(t, repo.SetTokens([]models.Token{token}))

	tokens, err := repo.GetTokens(2, []string{"0xaa"})
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestTokenCacheRepo_EmptyInput(t *testing.T) {
	_, repo := setupTestCacheRepo(t)

	require.NoError(t, repo.SetTokens(nil))
	tokens, err := repo.GetTokens(1, nil)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
