package tokenrepo

import (
	"errors"
	"fmt"
	"math/big"

	sq "github.com/Masterminds/squirrel"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/alexkalak/go_dex_metrics/common/periphery/pgdatabase"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type TokenDBRepo interface {
	GetTokensByAddressesAndChainID(addresses []string, chainID uint) ([]models.Token, error)
	UpsertTokens(tokens []models.Token) error
}

type TokenDBRepoDependencies struct {
	Database *pgdatabase.PgDatabase
}

func (d *TokenDBRepoDependencies) validate() error {
	if d.Database == nil {
		return errors.New("token repo dependenices database cannot be nil")
	}

	return nil
}

type tokenDBRepo struct {
	pgDatabase *pgdatabase.PgDatabase
}

func NewDBRepo(dependencies TokenDBRepoDependencies) (TokenDBRepo, error) {
	if err := dependencies.validate(); err != nil {
		return nil, err
	}

	return &tokenDBRepo{
		pgDatabase: dependencies.Database,
	}, nil
}

func selectTokensQuery(addresses []string, chainID uint) sq.SelectBuilder {
	return psql.
		Select(
			models.TOKEN_NAME,
			models.TOKEN_SYMBOL,
			models.TOKEN_ADDRESS,
			models.TOKEN_CHAINID,
			models.TOKEN_DECIMALS,
			models.TOKEN_TOTAL_SUPPLY,
		).
		From(models.TOKENS_TABLE).
		Where(sq.Eq{models.TOKEN_ADDRESS: addresses, models.TOKEN_CHAINID: chainID})
}

func upsertTokenQuery(token models.Token) sq.InsertBuilder {
	totalSupply := "0"
	if token.TotalSupply != nil {
		totalSupply = token.TotalSupply.String()
	}

	return psql.
		Insert(models.TOKENS_TABLE).
		Columns(
			models.TOKEN_NAME,
			models.TOKEN_SYMBOL,
			models.TOKEN_ADDRESS,
			models.TOKEN_CHAINID,
			models.TOKEN_DECIMALS,
			models.TOKEN_TOTAL_SUPPLY,
		).
		Values(
			token.Name,
			token.Symbol,
			token.Address,
			token.ChainID,
			token.Decimals,
			totalSupply,
		).
		Suffix(fmt.Sprintf("ON CONFLICT (%s, %s) DO UPDATE SET %s = EXCLUDED.%s",
			models.TOKEN_ADDRESS, models.TOKEN_CHAINID, models.TOKEN_TOTAL_SUPPLY, models.TOKEN_TOTAL_SUPPLY))
}

func (r *tokenDBRepo) GetTokensByAddressesAndChainID(addresses []string, chainID uint) ([]models.Token, error) {
	if len(addresses) == 0 {
		return []models.Token{}, nil
	}

	db, err := r.pgDatabase.GetDB()
	if err != nil {
		return nil, err
	}

	rows, err := selectTokensQuery(addresses, chainID).
		RunWith(db).
		Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []models.Token{}
	for rows.Next() {
		var token models.Token
		totalSupplyStr := ""
		err := rows.Scan(&token.Name, &token.Symbol, &token.Address, &token.ChainID, &token.Decimals, &totalSupplyStr)
		if err != nil {
			return nil, err
		}

		totalSupply, ok := new(big.Int).SetString(totalSupplyStr, 10)
		if !ok {
			totalSupply = big.NewInt(0)
		}
		token.TotalSupply = totalSupply
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

func (r *tokenDBRepo) UpsertTokens(tokens []models.Token) error {
	if len(tokens) == 0 {
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

	for _, token := range tokens {
		if _, err := upsertTokenQuery(token).RunWith(tx).Exec(); err != nil {
			return err
		}
	}
	return tx.Commit()
}
