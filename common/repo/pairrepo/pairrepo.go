package pairrepo

import (
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	sq "github.com/Masterminds/squirrel"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/alexkalak/go_dex_metrics/common/periphery/pgdatabase"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PairDBRepo interface {
	GetPairsByChainID(chainID uint) ([]models.Pair, error)
	GetPairAddressesByChainID(chainID uint) ([]string, error)
	InsertPairs(pairs []models.Pair) error
}

type PairDBRepoDependencies struct {
	Database *pgdatabase.PgDatabase
}

func (d *PairDBRepoDependencies) validate() error {
	if d.Database == nil {
		return errors.New("pair repo database dependency cannot be nil")
	}

	return nil
}

type pairDBRepo struct {
	pgDatabase *pgdatabase.PgDatabase
}

func NewDBRepo(dependencies PairDBRepoDependencies) (PairDBRepo, error) {
	if err := dependencies.validate(); err != nil {
		return nil, err
	}

	return &pairDBRepo{
		pgDatabase: dependencies.Database,
	}, nil
}

func column(table, name string) string {
	return fmt.Sprintf("%s.%s", table, name)
}

// GetPairsByChainID loads pairs together with both token rows.
func (r *pairDBRepo) GetPairsByChainID(chainID uint) ([]models.Pair, error) {
	db, err := r.pgDatabase.GetDB()
	if err != nil {
		return nil, err
	}

	query := psql.
		Select(
			column("p", models.PAIR_ADDRESS),
			column("p", models.PAIR_CHAINID),
			column("p", models.PAIR_FEE_TIER),
			column("p", models.PAIR_CREATED_AT_BLOCK_NUMBER),
			column("p", models.PAIR_CREATED_AT_TIMESTAMP),
			column("p", models.PAIR_TRANSACTION_ID),

			column("t0", models.TOKEN_ADDRESS),
			column("t0", models.TOKEN_NAME),
			column("t0", models.TOKEN_SYMBOL),
			column("t0", models.TOKEN_DECIMALS),
			column("t0", models.TOKEN_TOTAL_SUPPLY),

			column("t1", models.TOKEN_ADDRESS),
			column("t1", models.TOKEN_NAME),
			column("t1", models.TOKEN_SYMBOL),
			column("t1", models.TOKEN_DECIMALS),
			column("t1", models.TOKEN_TOTAL_SUPPLY),
		).
		From(models.PAIRS_TABLE + " p").
		Join(fmt.Sprintf("%s t0 ON t0.%s = p.%s AND t0.%s = p.%s",
			models.TOKENS_TABLE, models.TOKEN_ADDRESS, models.PAIR_TOKEN0_ADDRESS, models.TOKEN_CHAINID, models.PAIR_CHAINID)).
		Join(fmt.Sprintf("%s t1 ON t1.%s = p.%s AND t1.%s = p.%s",
			models.TOKENS_TABLE, models.TOKEN_ADDRESS, models.PAIR_TOKEN1_ADDRESS, models.TOKEN_CHAINID, models.PAIR_CHAINID)).
		Where(sq.Eq{column("p", models.PAIR_CHAINID): chainID}).
		OrderBy(column("p", models.PAIR_CREATED_AT_BLOCK_NUMBER))

	rows, err := query.
		RunWith(db).
		Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pairs := []models.Pair{}
	for rows.Next() {
		pair, err := scanPair(rows)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}

	return pairs, rows.Err()
}

func scanPair(rows *sql.Rows) (models.Pair, error) {
	pair := models.Pair{}
	totalSupply0Str := ""
	totalSupply1Str := ""

	err := rows.Scan(
		&pair.Address,
		&pair.ChainID,
		&pair.FeeTier,
		&pair.CreatedAtBlockNumber,
		&pair.CreatedAtTimestamp,
		&pair.TransactionID,

		&pair.Token0.Address,
		&pair.Token0.Name,
		&pair.Token0.Symbol,
		&pair.Token0.Decimals,
		&totalSupply0Str,

		&pair.Token1.Address,
		&pair.Token1.Name,
		&pair.Token1.Symbol,
		&pair.Token1.Decimals,
		&totalSupply1Str,
	)
	if err != nil {
		return models.Pair{}, err
	}

	pair.Token0.ChainID = pair.ChainID
	pair.Token1.ChainID = pair.ChainID
	pair.Token0.TotalSupply = parseBigInt(totalSupply0Str)
	pair.Token1.TotalSupply = parseBigInt(totalSupply1Str)

	return pair, nil
}

func parseBigInt(value string) *big.Int {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return big.NewInt(0)
	}
	return parsed
}

func (r *pairDBRepo) GetPairAddressesByChainID(chainID uint) ([]string, error) {
	db, err := r.pgDatabase.GetDB()
	if err != nil {
		return nil, err
	}

	rows, err := psql.
		Select(models.PAIR_ADDRESS).
		From(models.PAIRS_TABLE).
		Where(sq.Eq{models.PAIR_CHAINID: chainID}).
		RunWith(db).
		Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addresses := []string{}
	for rows.Next() {
		address := ""
		if err := rows.Scan(&address); err != nil {
			return nil, err
		}
		addresses = append(addresses, address)
	}

	return addresses, rows.Err()
}

func insertPairQuery(pair models.Pair) sq.InsertBuilder {
	return psql.
		Insert(models.PAIRS_TABLE).
		Columns(
			models.PAIR_ADDRESS,
			models.PAIR_CHAINID,
			models.PAIR_TOKEN0_ADDRESS,
			models.PAIR_TOKEN1_ADDRESS,
			models.PAIR_FEE_TIER,
			models.PAIR_CREATED_AT_BLOCK_NUMBER,
			models.PAIR_CREATED_AT_TIMESTAMP,
			models.PAIR_TRANSACTION_ID,
		).
		Values(
			pair.Address,
			pair.ChainID,
			pair.Token0.Address,
			pair.Token1.Address,
			pair.FeeTier,
			pair.CreatedAtBlockNumber,
			pair.CreatedAtTimestamp,
			pair.TransactionID,
		).
		Suffix(fmt.Sprintf("ON CONFLICT (%s, %s) DO NOTHING", models.PAIR_ADDRESS, models.PAIR_CHAINID))
}

// InsertPairs skips pairs that are already stored.
func (r *pairDBRepo) InsertPairs(pairs []models.Pair) error {
	if len(pairs) == 0 {
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

	for _, pair := range pairs {
		query := insertPairQuery(pair)
		if _, err := query.RunWith(tx).Exec(); err != nil {
			return err
		}
	}

	return tx.Commit()
}
