package tokenrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/alexkalak/go_dex_metrics/common/periphery/redisdb"
	"github.com/redis/go-redis/v9"
)

const TOKENS_HASH = "tokens"

func getTokensHashByChainID(chainID uint) string {
	return fmt.Sprintf("%d.%s", chainID, TOKENS_HASH)
}

type TokenCacheRepo interface {
	// GetTokens returns the cached tokens of addresses, missing ones are left out.
	GetTokens(chainID uint, addresses []string) (map[string]models.Token, error)
	SetTokens(tokens []models.Token) error
}

type TokenCacheRepoDependencies struct {
	Database *redisdb.RedisDatabase
}

func (d *TokenCacheRepoDependencies) validate() error {
	if d.Database == nil {
		return errors.New("token cache repo database dependency cannot be nil")
	}
	return nil
}

type tokenCacheRepo struct {
	redisDB *redisdb.RedisDatabase
	ctx     context.Context
}

func NewCacheRepo(ctx context.Context, dependencies TokenCacheRepoDependencies) (TokenCacheRepo, error) {
	if err := dependencies.validate(); err != nil {
		return nil, err
	}

	return &tokenCacheRepo{
		redisDB: dependencies.Database,
		ctx:     ctx,
	}, nil
}

func (r *tokenCacheRepo) GetTokens(chainID uint, addresses []string) (map[string]models.Token, error) {
	tokens := map[string]models.Token{}
	if len(addresses) == 0 {
		return tokens, nil
	}

	rdb, err := r.redisDB.GetDB()
	if err != nil {
		return nil, err
	}

	values, err := rdb.HMGet(r.ctx, getTokensHashByChainID(chainID), addresses...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	for _, value := range values {
		tokenStr, ok := value.(string)
		if !ok {
			continue
		}

		token := models.Token{}
		if err := json.Unmarshal([]byte(tokenStr), &token); err != nil {
			continue
		}
		tokens[token.Address] = token
	}

	return tokens, nil
}

func (r *tokenCacheRepo) SetTokens(tokens []models.Token) error {
	if len(tokens) == 0 {
		return nil
	}

	rdb, err := r.redisDB.GetDB()
	if err != nil {
		return err
	}

	byChain := map[uint][]any{}
	for _, token := range tokens {
		tokenJSON, err := json.Marshal(&token)
		if err != nil {
			return err
		}
		byChain[token.ChainID] = append(byChain[token.ChainID], token.Address, string(tokenJSON))
	}

	pipe := rdb.TxPipeline()
	for chainID, values := range byChain {
		pipe.HSet(r.ctx, getTokensHashByChainID(chainID), values...)
	}
	_, err = pipe.Exec(r.ctx)
	return err
}
