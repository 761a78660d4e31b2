package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/alexkalak/go_dex_metrics/common/core/kvstore"
	"github.com/alexkalak/go_dex_metrics/common/core/kvstore/memstore"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/alexkalak/go_dex_metrics/common/repo/checkpointrepo"
	"github.com/shopspring/decimal"
)

const (
	POOLS_STORE           = "pools"
	TOKENS_STORE          = "tokens"
	PAIR_COUNT_STORE      = "pair_count"
	WHITELIST_POOLS_STORE = "whitelist_pools"
	RESERVES_STORE        = "reserves"
	PRICES_STORE          = "prices"
	LIQUIDITIES_STORE     = "liquidities"
	NATIVE_AMOUNTS_STORE  = "native_amounts"
	TX_COUNTS_STORE       = "tx_counts"
	ETH_PRICES_STORE      = "eth_prices"
	SWAP_VOLUMES_STORE    = "swap_volumes"
	TOKEN_TVL_STORE       = "token_tvl"
	DERIVED_TVL_STORE     = "derived_tvl"
	FACTORY_TVL_STORE     = "factory_tvl"
	MIN_WINDOWS_STORE     = "min_windows"
	MAX_WINDOWS_STORE     = "max_windows"
)

// Stores is the state shared by the stages. Each store has exactly one writing stage.
type Stores struct {
	// pair:{pool}
	Pools *memstore.Store[models.Pair]
	// token:{token} -> number of pairs listing the token
	Tokens *memstore.DecimalStore
	// factory:pairCount
	PairCount      *memstore.DecimalStore
	WhitelistPools *memstore.ListStore
	// pool:{pool}
	Reserves      *memstore.Store[models.PairReserves]
	Prices        *memstore.DecimalStore
	Liquidities   *memstore.DecimalStore
	NativeAmounts *memstore.DecimalStore
	TxCounts      *memstore.DecimalStore
	EthPrices     *memstore.DecimalStore
	SwapVolumes   *memstore.DecimalStore
	TokenTVL      *memstore.DecimalStore
	DerivedTVL    *memstore.DecimalStore
	FactoryTVL    *memstore.DecimalStore
	MinWindows    *memstore.DecimalStore
	MaxWindows    *memstore.DecimalStore
}

func NewStores() *Stores {
	return &Stores{
		Pools:          memstore.New[models.Pair](POOLS_STORE),
		Tokens:         memstore.NewDecimal(TOKENS_STORE),
		PairCount:      memstore.NewDecimal(PAIR_COUNT_STORE),
		WhitelistPools: memstore.NewList(WHITELIST_POOLS_STORE),
		Reserves:       memstore.New[models.PairReserves](RESERVES_STORE),
		Prices:         memstore.NewDecimal(PRICES_STORE),
		Liquidities:    memstore.NewDecimal(LIQUIDITIES_STORE),
		NativeAmounts:  memstore.NewDecimal(NATIVE_AMOUNTS_STORE),
		TxCounts:       memstore.NewDecimal(TX_COUNTS_STORE),
		EthPrices:      memstore.NewDecimal(ETH_PRICES_STORE),
		SwapVolumes:    memstore.NewDecimal(SWAP_VOLUMES_STORE),
		TokenTVL:       memstore.NewDecimal(TOKEN_TVL_STORE),
		DerivedTVL:     memstore.NewDecimal(DERIVED_TVL_STORE),
		FactoryTVL:     memstore.NewDecimal(FACTORY_TVL_STORE),
		MinWindows:     memstore.NewDecimal(MIN_WINDOWS_STORE),
		MaxWindows:     memstore.NewDecimal(MAX_WINDOWS_STORE),
	}
}

// persistedStore is the checkpoint view of one store.
type persistedStore interface {
	Name() string
	Commit()
	keyChanges() ([]checkpointrepo.KeyChange, error)
	restore(values map[string][]byte) error
}

type jsonStore[V any] struct {
	*memstore.Store[V]
}

// keyChanges keeps the final state of every key written in the block.
func (s jsonStore[V]) keyChanges() ([]checkpointrepo.KeyChange, error) {
	deltas := s.Deltas()

	last := map[string]int{}
	order := make([]string, 0, len(deltas))
	for i, delta := range deltas {
		if _, ok := last[delta.Key]; !ok {
			order = append(order, delta.Key)
		}
		last[delta.Key] = i
	}

	changes := make([]checkpointrepo.KeyChange, 0, len(order))
	for _, key := range order {
		delta := deltas[last[key]]
		if delta.Operation == kvstore.OperationDelete {
			changes = append(changes, checkpointrepo.KeyChange{Key: key, Deleted: true})
			continue
		}

		value, err := json.Marshal(delta.NewValue)
		if err != nil {
			return nil, fmt.Errorf("store %s key %s: %w", s.Name(), key, err)
		}
		changes = append(changes, checkpointrepo.KeyChange{Key: key, Value: value})
	}
	return changes, nil
}

func (s jsonStore[V]) restore(raw map[string][]byte) error {
	values := make(map[string]V, len(raw))
	for key, data := range raw {
		var value V
		if err := json.Unmarshal(data, &value); err != nil {
			return fmt.Errorf("store %s key %s: %w", s.Name(), key, err)
		}
		values[key] = value
	}
	s.Restore(values)
	return nil
}

func (s *Stores) all() []persistedStore {
	decimals := []*memstore.DecimalStore{
		s.Tokens, s.PairCount, s.Prices, s.Liquidities, s.NativeAmounts, s.TxCounts, s.EthPrices,
		s.SwapVolumes, s.TokenTVL, s.DerivedTVL, s.FactoryTVL, s.MinWindows, s.MaxWindows,
	}

	stores := []persistedStore{
		jsonStore[models.Pair]{s.Pools},
		jsonStore[[]string]{s.WhitelistPools.Store},
		jsonStore[models.PairReserves]{s.Reserves},
	}
	for _, store := range decimals {
		stores = append(stores, jsonStore[decimal.Decimal]{store.Store})
	}
	return stores
}

// KeyChanges returns, per store name, the keys the current block left behind.
func (s *Stores) KeyChanges() (map[string][]checkpointrepo.KeyChange, error) {
	changes := map[string][]checkpointrepo.KeyChange{}
	for _, store := range s.all() {
		storeChanges, err := store.keyChanges()
		if err != nil {
			return nil, err
		}
		if len(storeChanges) > 0 {
			changes[store.Name()] = storeChanges
		}
	}
	return changes, nil
}

// Restore loads every store from the checkpoint. Stores missing from it stay empty.
func (s *Stores) Restore(repo checkpointrepo.CheckpointRepo) error {
	for _, store := range s.all() {
		values, err := repo.LoadStore(store.Name())
		if err != nil {
			return fmt.Errorf("load store %s: %w", store.Name(), err)
		}
		if err := store.restore(values); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stores) Commit() {
	for _, store := range s.all() {
		store.Commit()
	}
}
