package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alexkalak/go_dex_metrics/common/core/chainconfig"
	"github.com/alexkalak/go_dex_metrics/common/helpers/envhelper"
	"github.com/alexkalak/go_dex_metrics/common/helpers/logging"
	"github.com/alexkalak/go_dex_metrics/common/periphery/boltdb"
	"github.com/alexkalak/go_dex_metrics/common/periphery/pgdatabase"
	"github.com/alexkalak/go_dex_metrics/common/periphery/redisdb"
	"github.com/alexkalak/go_dex_metrics/common/repo/checkpointrepo"
	"github.com/alexkalak/go_dex_metrics/common/repo/entitychangerepo"
	"github.com/alexkalak/go_dex_metrics/services/indexerservice/src/indexerservice"
	"github.com/alexkalak/go_dex_metrics/services/indexerservice/src/pipeline"
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

	boltDB, err := boltdb.New(boltdb.BoltDatabaseConfig{
		Path: env.BOLT_PATH,
	})
	if err != nil {
		panic(err)
	}
	defer boltDB.Close()

	checkpointRepo, err := checkpointrepo.New(checkpointrepo.CheckpointRepoDependencies{
		Database: boltDB,
	})
	if err != nil {
		panic(err)
	}

	entityChangeDBRepo, err := entitychangerepo.NewDBRepo(entitychangerepo.EntityChangeDBRepoDependencies{
		Database: pgDB,
	})
	if err != nil {
		panic(err)
	}

	entityChangeCacheRepo, err := entitychangerepo.NewCacheRepo(ctx, entitychangerepo.EntityChangeCacheRepoConfig{
		MaxLen: 100_000,
	}, entitychangerepo.EntityChangeCacheRepoDependencies{
		Database: redisDB,
	})
	if err != nil {
		panic(err)
	}

	p, err := pipeline.New(chainConfig, pipeline.PipelineDependencies{
		Logger: logger.Named("pipeline"),
	})
	if err != nil {
		panic(err)
	}

	indexerService, err := indexerservice.New(indexerservice.IndexerServiceConfig{
		ChainID:               env.CHAIN_ID,
		KafkaServer:           env.KAFKA_SERVER,
		KafkaBlockEventsTopic: env.KAFKA_BLOCK_EVENTS_TOPIC,
		KafkaConsumerGroup:    env.KAFKA_CONSUMER_GROUP,
	}, indexerservice.IndexerServiceDependencies{
		Pipeline:              p,
		CheckpointRepo:        checkpointRepo,
		EntityChangeDBRepo:    entityChangeDBRepo,
		EntityChangeCacheRepo: entityChangeCacheRepo,
		Logger:                logger.Named("indexer"),
	})
	if err != nil {
		panic(err)
	}

	logger.Info("starting indexer", zap.Uint("chain_id", env.CHAIN_ID), zap.String("chain", chainConfig.Name))
	if err := indexerService.Start(ctx); err != nil {
		panic(err)
	}
}
