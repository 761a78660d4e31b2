package boltdb

import (
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"
)

type BoltDatabaseConfig struct {
	Path string
}

type BoltDatabase struct {
	db *bolt.DB
}

func (d *BoltDatabase) GetDB() (*bolt.DB, error) {
	if d.db == nil {
		return nil, errors.New("bolt database uninitialized")
	}

	return d.db, nil
}

func (d *BoltDatabase) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

func New(config BoltDatabaseConfig) (*BoltDatabase, error) {
	if config.Path == "" {
		return nil, errors.New("bolt database path cannot be empty")
	}

	db, err := bolt.Open(config.Path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	return &BoltDatabase{
		db: db,
	}, nil
}
