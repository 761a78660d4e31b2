package entitychangerepo

import (
	"encoding/json"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/alexkalak/go_dex_metrics/common/periphery/pgdatabase"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// rows per INSERT statement, keeps the statement under the postgres bind parameter limit
const INSERT_BATCH_SIZE = 1000

type EntityChangeDBRepo interface {
	InsertBlockChanges(block models.BlockEntityChanges) error
	DeleteChangesFromBlock(chainID uint, blockNumber uint64) error
}

type EntityChangeDBRepoDependencies struct {
	Database *pgdatabase.PgDatabase
}

func (d *EntityChangeDBRepoDependencies) validate() error {
	if d.Database == nil {
		return errors.New("entity change repo dependencies database cannot be nil")
	}

	return nil
}

type entityChangeDBRepo struct {
	pgDatabase *pgdatabase.PgDatabase
}

func NewDBRepo(dependencies EntityChangeDBRepoDependencies) (EntityChangeDBRepo, error) {
	if err := dependencies.validate(); err != nil {
		return nil, err
	}

	return &entityChangeDBRepo{
		pgDatabase: dependencies.Database,
	}, nil
}

func insertChangesQuery(block models.BlockEntityChanges, changes []models.EntityChange) (sq.InsertBuilder, error) {
	query := psql.
		Insert(models.ENTITY_CHANGES_TABLE).
		Columns(
			models.ENTITY_CHANGE_CHAIN_ID,
			models.ENTITY_CHANGE_BLOCK_NUMBER,
			models.ENTITY_CHANGE_BLOCK_HASH,
			models.ENTITY_CHANGE_ENTITY,
			models.ENTITY_CHANGE_ENTITY_ID,
			models.ENTITY_CHANGE_OPERATION,
			models.ENTITY_CHANGE_ORDINAL,
			models.ENTITY_CHANGE_FIELDS,
		)

	for _, change := range changes {
		if change.Fields == nil {
			change.Fields = []models.EntityField{}
		}
		fields, err := json.Marshal(change.Fields)
		if err != nil {
			return sq.InsertBuilder{}, err
		}

		query = query.Values(
			block.ChainID,
			block.BlockNumber,
			block.BlockHash,
			change.Entity,
			change.ID,
			string(change.Operation),
			change.Ordinal,
			string(fields),
		)
	}

	return query, nil
}

func (r *entityChangeDBRepo) InsertBlockChanges(block models.BlockEntityChanges) error {
	if len(block.Changes) == 0 {
		return nil
	}

	db, err := r.pgDatabase.GetDB()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for start := 0; start < len(block.Changes); start += INSERT_BATCH_SIZE {
		end := min(start+INSERT_BATCH_SIZE, len(block.Changes))

		query, err := insertChangesQuery(block, block.Changes[start:end])
		if err != nil {
			return err
		}
		if _, err := query.RunWith(tx).Exec(); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteChangesFromBlock drops the changes of blockNumber and every later block, so a
// replay after a restart does not write duplicates.
func (r *entityChangeDBRepo) DeleteChangesFromBlock(chainID uint, blockNumber uint64) error {
	db, err := r.pgDatabase.GetDB()
	if err != nil {
		return err
	}

	_, err = psql.
		Delete(models.ENTITY_CHANGES_TABLE).
		Where(sq.Eq{models.ENTITY_CHANGE_CHAIN_ID: chainID}).
		Where(sq.GtOrEq{models.ENTITY_CHANGE_BLOCK_NUMBER: blockNumber}).
		RunWith(db).
		Exec()

	return err
}
