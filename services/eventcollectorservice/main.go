package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/alexkalak/go_dex_metrics/common/core/chainconfig"
	"github.com/alexkalak/go_dex_metrics/common/core/eventdecoder"
	"github.com/alexkalak/go_dex_metrics/common/external/rpcclient"
	"github.com/alexkalak/go_dex_metrics/common/helpers/envhelper"
	"github.com/alexkalak/go_dex_metrics/common/helpers/logging"
	"github.com/alexkalak/go_dex_metrics/common/periphery/pgdatabase"
	"github.com/alexkalak/go_dex_metrics/common/periphery/redisdb"
	"github.com/alexkalak/go_dex_metrics/common/repo/collectorcursorrepo"
	"github.com/alexkalak/go_dex_metrics/common/repo/pairrepo"
	"github.com/alexkalak/go_dex_metrics/common/repo/tokenrepo"
	"github.com/alexkalak/go_dex_metrics/services/eventcollectorservice/src/eventcollectorservice"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

func main() {
	env, err := envhelper.GetEnv()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chainConfig, err := chainconfig.Load(env.CHAIN_ID)
	if err != nil {
		panic(err)
	}

	pgDB, err := pgdatabase.New(pgdatabase.PgDatabaseConfig{
		Host:     env.POSTGRES_HOST,
		Port:     env.POSTGRES_PORT,
		User:     env.POSTGRES_USER,
		Password: env.POSTGRES_PASSWORD,
		DBName:   env.POSTGRES_DB_NAME,
		SSlMode:  env.POSTGRES_SSL_MODE,
	})
	if err != nil {
		panic(err)
	}
	defer pgDB.Close()

	redisDB, err := redisdb.New(redisdb.RedisDatabaseConfig{
		RedisServer: env.REDIS_SERVER,
	})
	if err != nil {
		panic(err)
	}
	defer redisDB.Close()

	tokenDBRepo, err := tokenrepo.NewDBRepo(tokenrepo.TokenDBRepoDependencies{
		Database: pgDB,
	})
	if err != nil {
		panic(err)
	}
	tokenCacheRepo, err := tokenrepo.NewCacheRepo(ctx, tokenrepo.TokenCacheRepoDependencies{
		Database: redisDB,
	})
	if err != nil {
		panic(err)
	}
	pairDBRepo, err := pairrepo.NewDBRepo(pairrepo.PairDBRepoDependencies{
		Database: pgDB,
	})
	if err != nil {
		panic(err)
	}
	cursorRepo, err := collectorcursorrepo.NewCacheRepo(ctx, collectorcursorrepo.CollectorCursorCacheRepoDependencies{
		Database: redisDB,
	})
	if err != nil {
		panic(err)
	}

	rpcClient, err := rpcclient.NewRpcClient(rpcclient.RpcClientConfig{
		ChainID:    env.CHAIN_ID,
		EthRpcHttp: env.ETH_RPC_HTTP,
	}, rpcclient.RpcClientDependencies{
		Logger: logger.Named("rpc"),
	})
	if err != nil {
		panic(err)
	}

	logsClient, err := ethclient.DialContext(ctx, env.ETH_RPC_HTTP)
	if err != nil {
		panic(fmt.Errorf("%w: %w", eventcollectorservice.ErrUnableToInitLogsClient, err))
	}
	defer logsClient.Close()

	decoder, err := eventdecoder.New()
	if err != nil {
		panic(err)
	}

	writer, err := eventcollectorservice.NewKafkaBlockEventWriter(eventcollectorservice.KafkaBlockEventWriterConfig{
		ChainID:     env.CHAIN_ID,
		KafkaServer: env.KAFKA_SERVER,
		KafkaTopic:  env.KAFKA_BLOCK_EVENTS_TOPIC,
	})
	if err != nil {
		panic(err)
	}

	eventCollectorService, err := eventcollectorservice.New(eventcollectorservice.EventCollectorServiceConfig{
		ChainID:      env.CHAIN_ID,
		Factory:      chainConfig.Factory,
		FeeTier:      chainConfig.FeeTier,
		EthUSDOracle: chainConfig.EthUSDOracle,
		StartBlock:   chainConfig.StartBlock,
		BlockChunk:   env.COLLECTOR_BLOCK_CHUNK,
	}, eventcollectorservice.EventCollectorServiceDependencies{
		ChainReader:    logsClient,
		Writer:         writer,
		Decoder:        decoder,
		RpcClient:      rpcClient,
		TokenCacheRepo: tokenCacheRepo,
		TokenDBRepo:    tokenDBRepo,
		PairDBRepo:     pairDBRepo,
		CursorRepo:     cursorRepo,
		Logger:         logger.Named("collector"),
	})
	if err != nil {
		panic(err)
	}

	logger.Info("starting event collector", zap.Uint("chain_id", env.CHAIN_ID), zap.String("chain", chainConfig.Name))
	if err := eventCollectorService.Start(ctx); err != nil {
		panic(err)
	}
}
