// Package checkpointrepo persists the committed store state and the position of the
// last processed block in a local bbolt file.
package checkpointrepo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/alexkalak/go_dex_metrics/common/periphery/boltdb"
	bolt "go.etcd.io/bbolt"
)

const CURSORS_BUCKET = "cursors"
const STORE_BUCKET_PREFIX = "store."

// Cursor is the last block whose results are fully written.
type Cursor struct {
	ChainID     uint   `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	KafkaOffset int64  `json:"kafka_offset"`
}

// KeyChange is the final state of a key after a block. Deleted keys have no value.
type KeyChange struct {
	Key     string
	Value   []byte
	Deleted bool
}

type CheckpointRepo interface {
	LoadCursor(chainID uint) (Cursor, bool, error)
	LoadStore(name string) (map[string][]byte, error)
	// SaveBlock applies the key changes of every store and moves the cursor in one transaction.
	SaveBlock(cursor Cursor, changes map[string][]KeyChange) error
}

type CheckpointRepoDependencies struct {
	Database *boltdb.BoltDatabase
}

func (d *CheckpointRepoDependencies) validate() error {
	if d.Database == nil {
		return errors.New("checkpoint repo database dependency cannot be nil")
	}
	return nil
}

type checkpointRepo struct {
	boltDB *boltdb.BoltDatabase
}

func New(dependencies CheckpointRepoDependencies) (CheckpointRepo, error) {
	if err := dependencies.validate(); err != nil {
		return nil, err
	}

	return &checkpointRepo{
		boltDB: dependencies.Database,
	}, nil
}

func storeBucketName(name string) []byte {
	return []byte(STORE_BUCKET_PREFIX + name)
}

func cursorKey(chainID uint) []byte {
	return []byte(strconv.FormatUint(uint64(chainID), 10))
}

func (r *checkpointRepo) LoadCursor(chainID uint) (Cursor, bool, error) {
	db, err := r.boltDB.GetDB()
	if err != nil {
		return Cursor{}, false, err
	}

	cursor := Cursor{}
	found := false
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(CURSORS_BUCKET))
		if bucket == nil {
			return nil
		}
		raw := bucket.Get(cursorKey(chainID))
		if raw == nil {
			return nil
		}

		found = true
		return json.Unmarshal(raw, &cursor)
	})
	if err != nil {
		return Cursor{}, false, err
	}

	return cursor, found, nil
}

func (r *checkpointRepo) LoadStore(name string) (map[string][]byte, error) {
	db, err := r.boltDB.GetDB()
	if err != nil {
		return nil, err
	}

	values := map[string][]byte{}
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(storeBucketName(name))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			// bbolt memory is only valid inside the transaction
			value := make([]byte, len(v))
			copy(value, v)
			values[string(k)] = value
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return values, nil
}

func (r *checkpointRepo) SaveBlock(cursor Cursor, changes map[string][]KeyChange) error {
	db, err := r.boltDB.GetDB()
	if err != nil {
		return err
	}

	cursorJSON, err := json.Marshal(&cursor)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		for name, storeChanges := range changes {
			bucket, err := tx.CreateBucketIfNotExists(storeBucketName(name))
			if err != nil {
				return fmt.Errorf("store %s bucket: %w", name, err)
			}

			for _, change := range storeChanges {
				if change.Deleted {
					err = bucket.Delete([]byte(change.Key))
				} else {
					err = bucket.Put([]byte(change.Key), change.Value)
				}
				if err != nil {
					return fmt.Errorf("store %s key %s: %w", name, change.Key, err)
				}
			}
		}

		cursors, err := tx.CreateBucketIfNotExists([]byte(CURSORS_BUCKET))
		if err != nil {
			return err
		}
		return cursors.Put(cursorKey(cursor.ChainID), cursorJSON)
	})
}
