package pipeline

import (
	"fmt"

	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/alexkalak/go_dex_metrics/common/helpers/addresshelper"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func pairKey(pool string) string {
	return kvstore.Key("pair", pool)
}

func (p *Pipeline) mapPairsCreated(block models.Block) ([]models.Pair, error) {
	pairs := []models.Pair{}

	for _, tx := range block.Transactions {
		for _, lg := range tx.Logs {
			if lg.Type != models.LOG_TYPE_PAIR_CREATED || lg.Address != p.config.Factory {
				continue
			}
			if lg.PairCreated == nil {
				return nil, fmt.Errorf("%w: PairCreated log %d of tx %s", ErrMalformedLog, lg.Index, tx.Hash)
			}

			event := lg.PairCreated
			token0 := event.Token0
			token0.Address = addresshelper.Normalize(token0.Address)
			token0.ChainID = block.ChainID
			token1 := event.Token1
			token1.Address = addresshelper.Normalize(token1.Address)
			token1.ChainID = block.ChainID

			pair := models.Pair{
				Address:              addresshelper.Normalize(event.Pair),
				ChainID:              block.ChainID,
				Token0:               token0,
				Token1:               token1,
				FeeTier:              p.config.FeeTier,
				CreatedAtBlockNumber: block.Number,
				CreatedAtTimestamp:   block.Timestamp,
				TransactionID:        tx.Hash,
				LogOrdinal:           lg.Ordinal,
			}
			p.logger.Info("pair created",
				zap.String("pair", pair.Address),
				zap.String("token0", token0.Address),
				zap.String("token1", token1.Address),
			)
			pairs = append(pairs, pair)
		}
	}

	return pairs, nil
}

func (p *Pipeline) storePairsCreated(bc *blockContext) {
	for _, pair := range bc.pairsCreated {
		p.stores.Pools.Set(pair.LogOrdinal, pairKey(pair.Address), pair)
	}
}

func (p *Pipeline) storeTokens(bc *blockContext) {
	for _, pair := range bc.pairsCreated {
		p.stores.Tokens.AddMany(pair.LogOrdinal, []string{
			kvstore.Key("token", pair.Token0.Address),
			kvstore.Key("token", pair.Token1.Address),
		}, decimal.NewFromInt(1))
	}
}

func (p *Pipeline) storePairCount(bc *blockContext) {
	for _, pair := range bc.pairsCreated {
		p.stores.PairCount.Add(pair.LogOrdinal, "factory:pairCount", decimal.NewFromInt(1))
	}
}

// storeWhitelistPools lists, for every token, the pairs matching it with a whitelisted token.
func (p *Pipeline) storeWhitelistPools(bc *blockContext) {
	for _, pair := range bc.pairsCreated {
		if p.config.IsWhitelisted(pair.Token0.Address) {
			p.stores.WhitelistPools.Append(pair.LogOrdinal, kvstore.Key("token", pair.Token1.Address), pair.Address)
		}
		if p.config.IsWhitelisted(pair.Token1.Address) {
			p.stores.WhitelistPools.Append(pair.LogOrdinal, kvstore.Key("token", pair.Token0.Address), pair.Address)
		}
	}
}
