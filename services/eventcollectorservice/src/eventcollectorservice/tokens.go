package eventcollectorservice

import (
	"context"
	"math/big"

	"github.com/alexkalak/go_dex_metrics/common/external/rpcclient"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/alexkalak/go_dex_metrics/common/repo/tokenrepo"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// tokenResolver looks tokens up in memory, then redis, then postgres and reads the
// rest from chain. Tokens read from chain are written back to both stores.
type tokenResolver struct {
	chainID uint

	known     *xsync.Map[string, models.Token]
	cacheRepo tokenrepo.TokenCacheRepo
	dbRepo    tokenrepo.TokenDBRepo
	rpcClient rpcclient.RpcClient
	logger    *zap.Logger
}

func newTokenResolver(chainID uint, cacheRepo tokenrepo.TokenCacheRepo, dbRepo tokenrepo.TokenDBRepo, rpcClient rpcclient.RpcClient, logger *zap.Logger) *tokenResolver {
	return &tokenResolver{
		chainID:   chainID,
		known:     xsync.NewMap[string, models.Token](),
		cacheRepo: cacheRepo,
		dbRepo:    dbRepo,
		rpcClient: rpcClient,
		logger:    logger,
	}
}

func missing(addresses []string, found map[string]models.Token) []string {
	res := []string{}
	seen := map[string]struct{}{}
	for _, address := range addresses {
		if _, ok := found[address]; ok {
			continue
		}
		if _, ok := seen[address]; ok {
			continue
		}
		seen[address] = struct{}{}
		res = append(res, address)
	}
	return res
}

// resolve leaves out tokens that cannot be read from chain.
func (r *tokenResolver) resolve(ctx context.Context, addresses []string, blockNumber *big.Int) (map[string]models.Token, error) {
	tokens := map[string]models.Token{}
	for _, address := range addresses {
		if token, ok := r.known.Load(address); ok {
			tokens[address] = token
		}
	}

	toLoad := missing(addresses, tokens)
	if len(toLoad) == 0 {
		return tokens, nil
	}

	cached, err := r.cacheRepo.GetTokens(r.chainID, toLoad)
	if err != nil {
		r.logger.Warn("token cache unavailable", zap.Error(err))
		cached = map[string]models.Token{}
	}
	for address, token := range cached {
		tokens[address] = token
	}

	toLoad = missing(toLoad, tokens)
	toCache := []models.Token{}
	if len(toLoad) > 0 {
		stored, err := r.dbRepo.GetTokensByAddressesAndChainID(toLoad, r.chainID)
		if err != nil {
			return nil, err
		}
		for _, token := range stored {
			tokens[token.Address] = token
			toCache = append(toCache, token)
		}
	}

	toLoad = missing(toLoad, tokens)
	if len(toLoad) > 0 {
		fetched, err := r.rpcClient.GetTokens(ctx, toLoad, blockNumber)
		if err != nil {
			return nil, err
		}
		if err := r.dbRepo.UpsertTokens(fetched); err != nil {
			return nil, err
		}
		for _, token := range fetched {
			tokens[token.Address] = token
			toCache = append(toCache, token)
		}
		r.logger.Debug("tokens read from chain", zap.Int("requested", len(toLoad)), zap.Int("fetched", len(fetched)))
	}

	if err := r.cacheRepo.SetTokens(toCache); err != nil {
		r.logger.Warn("unable to cache tokens", zap.Error(err))
	}

	for address, token := range tokens {
		r.known.Store(address, token)
	}
	return tokens, nil
}
