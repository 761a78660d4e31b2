package eventcollectorservice

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/alexkalak/go_dex_metrics/common/core/eventdecoder"
	"github.com/alexkalak/go_dex_metrics/common/external/rpcclient"
	"github.com/alexkalak/go_dex_metrics/common/helpers/addresshelper"
	"github.com/alexkalak/go_dex_metrics/common/repo/collectorcursorrepo"
	"github.com/alexkalak/go_dex_metrics/common/repo/pairrepo"
	"github.com/alexkalak/go_dex_metrics/common/repo/tokenrepo"
	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const defaultPollInterval = 4 * time.Second
const defaultBlockWorkers = 8

// pair addresses per eth_getLogs filter
const pairAddressesBatch = 500

type EventCollectorService interface {
	Start(ctx context.Context) error
}

// ChainReader is the part of ethclient.Client the collector reads from.
type ChainReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error)
}

type EventCollectorServiceConfig struct {
	ChainID      uint
	Factory      string
	FeeTier      string
	EthUSDOracle string
	// first block to collect when there is no cursor yet
	StartBlock   uint64
	BlockChunk   uint64
	PollInterval time.Duration
	BlockWorkers int
}

func (c *EventCollectorServiceConfig) validate() error {
	if c.ChainID == 0 {
		return errors.New("EventCollectorServiceConfig.ChainID cannot be empty")
	}
	if c.Factory == "" {
		return errors.New("EventCollectorServiceConfig.Factory cannot be empty")
	}
	if c.BlockChunk == 0 {
		return errors.New("EventCollectorServiceConfig.BlockChunk cannot be empty")
	}
	return nil
}

type EventCollectorServiceDependencies struct {
	ChainReader    ChainReader
	Writer         BlockEventWriter
	Decoder        *eventdecoder.Decoder
	RpcClient      rpcclient.RpcClient
	TokenCacheRepo tokenrepo.TokenCacheRepo
	TokenDBRepo    tokenrepo.TokenDBRepo
	PairDBRepo     pairrepo.PairDBRepo
	CursorRepo     collectorcursorrepo.CollectorCursorCacheRepo
	Logger         *zap.Logger
}

func (d *EventCollectorServiceDependencies) validate() error {
	if d.ChainReader == nil {
		return errors.New("event collector dependencies ChainReader cannot be nil")
	}
	if d.Writer == nil {
		return errors.New("event collector dependencies Writer cannot be nil")
	}
	if d.Decoder == nil {
		return errors.New("event collector dependencies Decoder cannot be nil")
	}
	if d.RpcClient == nil {
		return errors.New("event collector dependencies RpcClient cannot be nil")
	}
	if d.TokenCacheRepo == nil {
		return errors.New("event collector dependencies TokenCacheRepo cannot be nil")
	}
	if d.TokenDBRepo == nil {
		return errors.New("event collector dependencies TokenDBRepo cannot be nil")
	}
	if d.PairDBRepo == nil {
		return errors.New("event collector dependencies PairDBRepo cannot be nil")
	}
	if d.CursorRepo == nil {
		return errors.New("event collector dependencies CursorRepo cannot be nil")
	}
	if d.Logger == nil {
		return errors.New("event collector dependencies Logger cannot be nil")
	}
	return nil
}

type eventCollector struct {
	config EventCollectorServiceConfig

	chain      ChainReader
	writer     BlockEventWriter
	decoder    *eventdecoder.Decoder
	rpcClient  rpcclient.RpcClient
	tokens     *tokenResolver
	pairRepo   pairrepo.PairDBRepo
	cursorRepo collectorcursorrepo.CollectorCursorCacheRepo
	logger     *zap.Logger

	blockPool pond.Pool
	signer    types.Signer

	// tracked pair addresses
	pairs map[string]struct{}
}

func New(config EventCollectorServiceConfig, dependencies EventCollectorServiceDependencies) (EventCollectorService, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if err := dependencies.validate(); err != nil {
		return nil, err
	}

	return newEventCollector(config, dependencies), nil
}

func newEventCollector(config EventCollectorServiceConfig, dependencies EventCollectorServiceDependencies) *eventCollector {
	if config.PollInterval == 0 {
		config.PollInterval = defaultPollInterval
	}
	if config.BlockWorkers <= 0 {
		config.BlockWorkers = defaultBlockWorkers
	}
	config.Factory = addresshelper.Normalize(config.Factory)
	if config.EthUSDOracle != "" {
		config.EthUSDOracle = addresshelper.Normalize(config.EthUSDOracle)
	}

	return &eventCollector{
		config:     config,
		chain:      dependencies.ChainReader,
		writer:     dependencies.Writer,
		decoder:    dependencies.Decoder,
		rpcClient:  dependencies.RpcClient,
		pairRepo:   dependencies.PairDBRepo,
		cursorRepo: dependencies.CursorRepo,
		logger:     dependencies.Logger,
		tokens: newTokenResolver(
			config.ChainID,
			dependencies.TokenCacheRepo,
			dependencies.TokenDBRepo,
			dependencies.RpcClient,
			dependencies.Logger,
		),
		blockPool: pond.NewPool(config.BlockWorkers),
		signer:    types.LatestSignerForChainID(new(big.Int).SetUint64(uint64(config.ChainID))),
		pairs:     map[string]struct{}{},
	}
}
