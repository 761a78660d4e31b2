// Package chainconfig holds the immutable per-chain constants shared by every
// pricing and aggregation component.
package chainconfig

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/alexkalak/go_dex_metrics/common/helpers/addresshelper"
	"github.com/shopspring/decimal"
)

//go:embed chainconfigassets/chains.json
var chainsJSON []byte

var ErrUnknownChain = errors.New("unknown chain")

type chainJSON struct {
	Name                 string   `json:"name"`
	Factory              string   `json:"factory"`
	WrappedNative        string   `json:"wrapped_native"`
	USDReference         string   `json:"usd_reference"`
	Stablecoins          []string `json:"stablecoins"`
	Whitelist            []string `json:"whitelist"`
	MinimumEthLocked     string   `json:"minimum_eth_locked"`
	MinimumLiquidityLock string   `json:"minimum_liquidity_lock"`
	FeeTier              string   `json:"fee_tier"`
	EthUSDOracle         string   `json:"eth_usd_oracle"`
	StartBlock           uint64   `json:"start_block"`
}

// Config is read-only after construction. Copy it freely.
type Config struct {
	ChainID              uint
	Name                 string
	Factory              string
	WrappedNative        string
	USDReference         string
	MinimumEthLocked     decimal.Decimal
	MinimumLiquidityLock *big.Int
	FeeTier              string
	EthUSDOracle         string
	StartBlock           uint64

	stablecoins map[string]struct{}
	whitelist   map[string]struct{}
	whitelisted []string
}

func (c Config) IsStablecoin(token string) bool {
	_, ok := c.stablecoins[token]
	return ok
}

func (c Config) IsWhitelisted(token string) bool {
	_, ok := c.whitelist[token]
	return ok
}

func (c Config) Whitelist() []string {
	out := make([]string, len(c.whitelisted))
	copy(out, c.whitelisted)
	return out
}

func (c Config) IsMinimumLiquidityLock(value *big.Int) bool {
	return value != nil && c.MinimumLiquidityLock != nil && value.Cmp(c.MinimumLiquidityLock) == 0
}

func (c Config) validate() error {
	if c.Factory == "" {
		return errors.New("chain config factory cannot be empty")
	}
	if c.WrappedNative == "" {
		return errors.New("chain config wrapped native token cannot be empty")
	}
	if c.USDReference == "" {
		return errors.New("chain config usd reference token cannot be empty")
	}
	if c.MinimumLiquidityLock == nil {
		return errors.New("chain config minimum liquidity lock cannot be empty")
	}
	return nil
}

// Load returns the embedded configuration of chainID.
func Load(chainID uint) (Config, error) {
	chains := map[string]chainJSON{}
	if err := json.Unmarshal(chainsJSON, &chains); err != nil {
		return Config{}, err
	}

	raw, ok := chains[strconv.FormatUint(uint64(chainID), 10)]
	if !ok {
		return Config{}, fmt.Errorf("%w: %d", ErrUnknownChain, chainID)
	}

	minimumEthLocked, err := decimal.NewFromString(raw.MinimumEthLocked)
	if err != nil {
		return Config{}, fmt.Errorf("chain %d minimum_eth_locked: %w", chainID, err)
	}
	minimumLiquidityLock, ok := new(big.Int).SetString(raw.MinimumLiquidityLock, 10)
	if !ok {
		return Config{}, fmt.Errorf("chain %d minimum_liquidity_lock: invalid integer %q", chainID, raw.MinimumLiquidityLock)
	}

	oracle := ""
	if raw.EthUSDOracle != "" {
		oracle = addresshelper.Normalize(raw.EthUSDOracle)
	}

	return New(Params{
		ChainID:              chainID,
		Name:                 raw.Name,
		Factory:              raw.Factory,
		WrappedNative:        raw.WrappedNative,
		USDReference:         raw.USDReference,
		Stablecoins:          raw.Stablecoins,
		Whitelist:            raw.Whitelist,
		MinimumEthLocked:     minimumEthLocked,
		MinimumLiquidityLock: minimumLiquidityLock,
		FeeTier:              raw.FeeTier,
		EthUSDOracle:         oracle,
		StartBlock:           raw.StartBlock,
	})
}

type Params struct {
	ChainID              uint
	Name                 string
	Factory              string
	WrappedNative        string
	USDReference         string
	Stablecoins          []string
	Whitelist            []string
	MinimumEthLocked     decimal.Decimal
	MinimumLiquidityLock *big.Int
	FeeTier              string
	EthUSDOracle         string
	StartBlock           uint64
}

// New builds a Config from explicit parameters. Addresses are normalized.
func New(params Params) (Config, error) {
	config := Config{
		ChainID:              params.ChainID,
		Name:                 params.Name,
		Factory:              normalizeOrEmpty(params.Factory),
		WrappedNative:        normalizeOrEmpty(params.WrappedNative),
		USDReference:         normalizeOrEmpty(params.USDReference),
		MinimumEthLocked:     params.MinimumEthLocked,
		MinimumLiquidityLock: params.MinimumLiquidityLock,
		FeeTier:              params.FeeTier,
		EthUSDOracle:         params.EthUSDOracle,
		StartBlock:           params.StartBlock,
		stablecoins:          map[string]struct{}{},
		whitelist:            map[string]struct{}{},
	}
	if config.FeeTier == "" {
		config.FeeTier = "3000"
	}

	for _, token := range params.Stablecoins {
		config.stablecoins[addresshelper.Normalize(token)] = struct{}{}
	}
	for _, token := range params.Whitelist {
		normalized := addresshelper.Normalize(token)
		if _, ok := config.whitelist[normalized]; ok {
			continue
		}
		config.whitelist[normalized] = struct{}{}
		config.whitelisted = append(config.whitelisted, normalized)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func normalizeOrEmpty(address string) string {
	if address == "" {
		return ""
	}
	return addresshelper.Normalize(address)
}
