package envhelper

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Environment struct {
	CHAIN_ID uint

	POSTGRES_HOST     string
	POSTGRES_PORT     string
	POSTGRES_USER     string
	POSTGRES_PASSWORD string
	POSTGRES_DB_NAME  string
	POSTGRES_SSL_MODE string

	ETH_RPC_HTTP string

	KAFKA_SERVER             string
	KAFKA_BLOCK_EVENTS_TOPIC string
	KAFKA_CONSUMER_GROUP     string

	REDIS_SERVER string

	BOLT_PATH string

	// blocks per eth_getLogs request of the collector
	COLLECTOR_BLOCK_CHUNK uint64
}

var env *Environment

func GetEnv() (*Environment, error) {
	if env != nil {
		return env, nil
	}

	env = &Environment{}
	err := load()
	if err != nil {
		env = nil
		return nil, err
	}
	return env, nil
}

const _CHAIN_ID = "CHAIN_ID"

const _POSTGRES_HOST = "POSTGRES_HOST"
const _POSTGRES_PORT = "POSTGRES_PORT"
const _POSTGRES_USER = "POSTGRES_USER"
const _POSTGRES_PASSWORD = "POSTGRES_PASSWORD"
const _POSTGRES_DB_NAME = "POSTGRES_DB_NAME"
const _POSTGRES_SSL_MODE = "POSTGRES_SSL_MODE"

const _ETH_RPC_HTTP = "ETH_RPC_HTTP"

const _KAFKA_SERVER = "KAFKA_SERVER"
const _KAFKA_BLOCK_EVENTS_TOPIC = "KAFKA_BLOCK_EVENTS_TOPIC"
const _KAFKA_CONSUMER_GROUP = "KAFKA_CONSUMER_GROUP"

const _REDIS_SERVER = "REDIS_SERVER"

const _BOLT_PATH = "BOLT_PATH"

const _COLLECTOR_BLOCK_CHUNK = "COLLECTOR_BLOCK_CHUNK"
const _DEFAULT_COLLECTOR_BLOCK_CHUNK = 500

func load() error {
	godotenv.Load()

	chainIDStr := os.Getenv(_CHAIN_ID)
	chainID, err := strconv.ParseUint(chainIDStr, 10, 64)
	if err != nil {
		return buildLoadingEnvError(_CHAIN_ID)
	}
	env.CHAIN_ID = uint(chainID)

	env.POSTGRES_HOST = os.Getenv(_POSTGRES_HOST)
	if env.POSTGRES_HOST == "" {
		return buildLoadingEnvError(_POSTGRES_HOST)
	}

	env.POSTGRES_PORT = os.Getenv(_POSTGRES_PORT)
	if env.POSTGRES_PORT == "" {
		return buildLoadingEnvError(_POSTGRES_PORT)
	}

	env.POSTGRES_DB_NAME = os.Getenv(_POSTGRES_DB_NAME)
	if env.POSTGRES_DB_NAME == "" {
		return buildLoadingEnvError(_POSTGRES_DB_NAME)
	}

	env.POSTGRES_USER = os.Getenv(_POSTGRES_USER)
	if env.POSTGRES_USER == "" {
		return buildLoadingEnvError(_POSTGRES_USER)
	}

	env.POSTGRES_PASSWORD = os.Getenv(_POSTGRES_PASSWORD)
	if env.POSTGRES_PASSWORD == "" {
		return buildLoadingEnvError(_POSTGRES_PASSWORD)
	}

	env.POSTGRES_SSL_MODE = os.Getenv(_POSTGRES_SSL_MODE)
	if env.POSTGRES_SSL_MODE == "" {
		return buildLoadingEnvError(_POSTGRES_SSL_MODE)
	}

	env.ETH_RPC_HTTP = os.Getenv(_ETH_RPC_HTTP)
	if env.ETH_RPC_HTTP == "" {
		return buildLoadingEnvError(_ETH_RPC_HTTP)
	}

	env.KAFKA_SERVER = os.Getenv(_KAFKA_SERVER)
	if env.KAFKA_SERVER == "" {
		return buildLoadingEnvError(_KAFKA_SERVER)
	}
	env.KAFKA_BLOCK_EVENTS_TOPIC = os.Getenv(_KAFKA_BLOCK_EVENTS_TOPIC)
	if env.KAFKA_BLOCK_EVENTS_TOPIC == "" {
		return buildLoadingEnvError(_KAFKA_BLOCK_EVENTS_TOPIC)
	}
	env.KAFKA_CONSUMER_GROUP = os.Getenv(_KAFKA_CONSUMER_GROUP)
	if env.KAFKA_CONSUMER_GROUP == "" {
		return buildLoadingEnvError(_KAFKA_CONSUMER_GROUP)
	}

	env.REDIS_SERVER = os.Getenv(_REDIS_SERVER)
	if env.REDIS_SERVER == "" {
		return buildLoadingEnvError(_REDIS_SERVER)
	}

	env.BOLT_PATH = os.Getenv(_BOLT_PATH)
	if env.BOLT_PATH == "" {
		return buildLoadingEnvError(_BOLT_PATH)
	}

	env.COLLECTOR_BLOCK_CHUNK = _DEFAULT_COLLECTOR_BLOCK_CHUNK
	if chunkStr := os.Getenv(_COLLECTOR_BLOCK_CHUNK); chunkStr != "" {
		chunk, err := strconv.ParseUint(chunkStr, 10, 64)
		if err != nil || chunk == 0 {
			return buildLoadingEnvError(_COLLECTOR_BLOCK_CHUNK)
		}
		env.COLLECTOR_BLOCK_CHUNK = chunk
	}

	return nil
}

func buildLoadingEnvError(key string) error {
	return fmt.Errorf("error with variable: %s", key)
}
