package rpcclient

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/alexkalak/go_dex_metrics/common/external/rpcclient/rpcclienterrors"
	"github.com/alexkalak/go_dex_metrics/common/helpers/addresshelper"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:embed rpcclientassets/erc20ABI.json
var erc20ABIStr string

//go:embed rpcclientassets/erc20Bytes32ABI.json
var erc20Bytes32ABIStr string

//go:embed rpcclientassets/aggregatorABI.json
var aggregatorABIStr string

const tokensConcurrency = 7

type RpcClient interface {
	GetToken(ctx context.Context, address string, blockNumber *big.Int) (models.Token, error)
	// GetTokens skips tokens without readable decimals.
	GetTokens(ctx context.Context, addresses []string, blockNumber *big.Int) ([]models.Token, error)
	GetOracleRound(ctx context.Context, oracle string, blockNumber *big.Int) (*models.OracleRound, error)
}

type contractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type RpcClientConfig struct {
	ChainID    uint
	EthRpcHttp string
}

func (c *RpcClientConfig) validate() error {
	if c.ChainID == 0 {
		return errors.New("RpcClientConfig.ChainID cannot be empty")
	}
	if c.EthRpcHttp == "" {
		return errors.New("RpcClientConfig.EthRpcHttp cannot be empty")
	}
	return nil
}

type RpcClientDependencies struct {
	Logger *zap.Logger
}

func (d *RpcClientDependencies) validate() error {
	if d.Logger == nil {
		return errors.New("rpc client logger dependency cannot be nil")
	}
	return nil
}

type rpcClient struct {
	config RpcClientConfig
	caller contractCaller
	logger *zap.Logger

	erc20ABI        abi.ABI
	erc20Bytes32ABI abi.ABI
	aggregatorABI   abi.ABI
}

func NewRpcClient(config RpcClientConfig, dependencies RpcClientDependencies) (RpcClient, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if err := dependencies.validate(); err != nil {
		return nil, err
	}

	ethClient, err := ethclient.Dial(config.EthRpcHttp)
	if err != nil {
		return nil, err
	}

	client, err := newRpcClient(config, ethClient, dependencies.Logger)
	if err != nil {
		ethClient.Close()
		return nil, err
	}
	return client, nil
}

func newRpcClient(config RpcClientConfig, caller contractCaller, logger *zap.Logger) (*rpcClient, error) {
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIStr))
	if err != nil {
		return nil, err
	}
	erc20Bytes32ABI, err := abi.JSON(strings.NewReader(erc20Bytes32ABIStr))
	if err != nil {
		return nil, err
	}
	aggregatorABI, err := abi.JSON(strings.NewReader(aggregatorABIStr))
	if err != nil {
		return nil, err
	}

	return &rpcClient{
		config:          config,
		caller:          caller,
		logger:          logger,
		erc20ABI:        erc20ABI,
		erc20Bytes32ABI: erc20Bytes32ABI,
		aggregatorABI:   aggregatorABI,
	}, nil
}

func (c *rpcClient) GetTokens(ctx context.Context, addresses []string, blockNumber *big.Int) ([]models.Token, error) {
	res := struct {
		mu     sync.Mutex
		tokens map[string]models.Token
	}{
		tokens: make(map[string]models.Token, len(addresses)),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(tokensConcurrency)

	for _, address := range addresses {
		group.Go(func() error {
			token, err := c.GetToken(groupCtx, address, blockNumber)
			if errors.Is(err, rpcclienterrors.ErrUnableToGetDecimals) {
				c.logger.Warn("skipping token without decimals", zap.String("token", address), zap.Error(err))
				return nil
			}
			if err != nil {
				return err
			}

			res.mu.Lock()
			res.tokens[token.Address] = token
			res.mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	tokens := make([]models.Token, 0, len(res.tokens))
	for _, address := range addresses {
		if token, ok := res.tokens[addresshelper.Normalize(address)]; ok {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

// GetToken fails with ErrUnableToGetDecimals when the contract has no decimals().
// Name and symbol fall back to bytes32 encodings, total supply to zero.
func (c *rpcClient) GetToken(ctx context.Context, address string, blockNumber *big.Int) (models.Token, error) {
	tokenAddress := common.HexToAddress(address)

	decimalsOut, err := c.call(ctx, c.erc20ABI, tokenAddress, "decimals", blockNumber)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %s: %w", rpcclienterrors.ErrUnableToGetDecimals, address, err)
	}
	decimals, ok := decimalsOut[0].(uint8)
	if !ok {
		return models.Token{}, fmt.Errorf("%w: %s", rpcclienterrors.ErrUnableToGetDecimals, address)
	}

	totalSupply := big.NewInt(0)
	if totalSupplyOut, err := c.call(ctx, c.erc20ABI, tokenAddress, "totalSupply", blockNumber); err == nil {
		if value, ok := totalSupplyOut[0].(*big.Int); ok {
			totalSupply = value
		}
	} else {
		c.logger.Debug("token total supply unavailable", zap.String("token", address), zap.Error(err))
	}

	return models.Token{
		Name:        c.textField(ctx, tokenAddress, "name", blockNumber),
		Symbol:      c.textField(ctx, tokenAddress, "symbol", blockNumber),
		Address:     addresshelper.FromAddress(tokenAddress),
		ChainID:     c.config.ChainID,
		Decimals:    int(decimals),
		TotalSupply: totalSupply,
	}, nil
}

func (c *rpcClient) GetOracleRound(ctx context.Context, oracle string, blockNumber *big.Int) (*models.OracleRound, error) {
	oracleAddress := common.HexToAddress(oracle)

	decimalsOut, err := c.call(ctx, c.aggregatorABI, oracleAddress, "decimals", blockNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rpcclienterrors.ErrUnableToGetOracleRound, err)
	}
	decimals, ok := decimalsOut[0].(uint8)
	if !ok {
		return nil, rpcclienterrors.ErrUnableToConvertResult
	}

	roundOut, err := c.call(ctx, c.aggregatorABI, oracleAddress, "latestRoundData", blockNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rpcclienterrors.ErrUnableToGetOracleRound, err)
	}
	if len(roundOut) < 2 {
		return nil, rpcclienterrors.ErrUnableToConvertResult
	}
	roundID, ok := roundOut[0].(*big.Int)
	if !ok {
		return nil, rpcclienterrors.ErrUnableToConvertResult
	}
	answer, ok := roundOut[1].(*big.Int)
	if !ok {
		return nil, rpcclienterrors.ErrUnableToConvertResult
	}

	return &models.OracleRound{
		RoundID:  roundID,
		Answer:   answer,
		Decimals: decimals,
	}, nil
}

func (c *rpcClient) textField(ctx context.Context, tokenAddress common.Address, method string, blockNumber *big.Int) string {
	out, err := c.call(ctx, c.erc20ABI, tokenAddress, method, blockNumber)
	if err == nil {
		if value, ok := out[0].(string); ok {
			return value
		}
	}

	out, err = c.call(ctx, c.erc20Bytes32ABI, tokenAddress, method, blockNumber)
	if err != nil {
		c.logger.Debug("token text field unavailable",
			zap.String("token", tokenAddress.Hex()),
			zap.String("method", method),
			zap.Error(err),
		)
		return ""
	}
	value, ok := out[0].([32]byte)
	if !ok {
		return ""
	}
	return string(bytes.TrimRight(value[:], "\x00"))
}

func (c *rpcClient) call(ctx context.Context, contractABI abi.ABI, to common.Address, method string, blockNumber *big.Int) ([]interface{}, error) {
	data, err := contractABI.Pack(method)
	if err != nil {
		return nil, err
	}

	returnBytes, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, blockNumber)
	if err != nil {
		return nil, err
	}

	out, err := contractABI.Unpack(method, returnBytes)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, rpcclienterrors.ErrUnableToConvertResult
	}
	return out, nil
}
