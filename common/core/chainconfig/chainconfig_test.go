package chainconfig

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSepolia(t *testing.T) {
	config, err := Load(11155111)
	require.NoError(t, err)

	assert.Equal(t, "0x6c9258026a9272368e49bbb7d0a78c17bbe284bf", config.Factory)
	assert.Equal(t, "0xe91d02e66a9152fee1bc79c1830121f6507a4f6d", config.WrappedNative)
	assert.Equal(t, "0x46a906fca4487c87f0d89d2d0824ec57bdaa947d", config.USDReference)
	assert.True(t, config.MinimumEthLocked.Equal(decimal.NewFromInt(52)))
	assert.True(t, config.IsMinimumLiquidityLock(big.NewInt(1000)))
	assert.False(t, config.IsMinimumLiquidityLock(big.NewInt(1001)))

	assert.True(t, config.IsStablecoin("0xbacdbe38df8421d0aa90262beb1c20d32a634fe7"))
	assert.False(t, config.IsStablecoin(config.WrappedNative))
	assert.True(t, config.IsWhitelisted(config.WrappedNative))
	assert.True(t, config.IsWhitelisted("0x4911fb3923f6da0cd4920f914991b0a742d88bfd"))
	assert.Len(t, config.Whitelist(), 7)
}

func TestLoadUnknownChain(t *testing.T) {
	_, err := Load(42)
	assert.ErrorIs(t, err, ErrUnknownChain)
}

func TestNewNormalizesAddresses(t *testing.T) {
	config, err := New(Params{
		Factory:              "0x6C9258026A9272368E49BBB7D0A78C17BBE284BF",
		WrappedNative:        "0xE91D02E66A9152FEE1BC79C1830121F6507A4F6D",
		USDReference:         "0x46A906FCA4487C87F0D89D2D0824EC57BDAA947D",
		Whitelist:            []string{"0xE91D02E66A9152FEE1BC79C1830121F6507A4F6D", "0xe91d02e66a9152fee1bc79c1830121f6507a4f6d"},
		MinimumLiquidityLock: big.NewInt(1000),
	})
	require.NoError(t, err)

	assert.Equal(t, "0xe91d02e66a9152fee1bc79c1830121f6507a4f6d", config.WrappedNative)
	assert.Equal(t, []string{"0xe91d02e66a9152fee1bc79c1830121f6507a4f6d"}, config.Whitelist())
	assert.Equal(t, "3000", config.FeeTier)
}

func TestNewRequiresWrappedNative(t *testing.T) {
	_, err := New(Params{
		Factory:              "0x6c9258026a9272368e49bbb7d0a78c17bbe284bf",
		USDReference:         "0x46a906fca4487c87f0d89d2d0824ec57bdaa947d",
		MinimumLiquidityLock: big.NewInt(1000),
	})
	assert.Error(t, err)
}
