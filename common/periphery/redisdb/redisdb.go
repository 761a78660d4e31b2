package redisdb

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

type RedisDatabaseConfig struct {
	RedisServer string
	DB          int
}

type RedisDatabase struct {
	rdb *redis.Client
}

func (d *RedisDatabase) GetDB() (*redis.Client, error) {
	if d.rdb == nil {
		return nil, errors.New("redis database uninitialized")
	}

	return d.rdb, nil
}

func (d *RedisDatabase) Close() error {
	if d.rdb == nil {
		return nil
	}
	return d.rdb.Close()
}

func New(config RedisDatabaseConfig) (*RedisDatabase, error) {
	if config.RedisServer == "" {
		return nil, errors.New("redis server address cannot be empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: config.RedisServer,
		DB:   config.DB,
	})

	return &RedisDatabase{
		rdb: rdb,
	}, nil
}
