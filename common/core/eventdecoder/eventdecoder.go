// Package eventdecoder turns raw pair and factory logs into models.Log values.
package eventdecoder

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/alexkalak/go_dex_metrics/common/core/eventdecoder/eventdecoderassets"
	"github.com/alexkalak/go_dex_metrics/common/helpers/addresshelper"
	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type eventSignatures struct {
	PairCreatedSig common.Hash
	SwapSig        common.Hash
	MintSig        common.Hash
	BurnSig        common.Hash
	TransferSig    common.Hash
	SyncSig        common.Hash
}

type Decoder struct {
	factoryABI abi.ABI
	pairABI    abi.ABI
	sigs       eventSignatures
}

func New() (*Decoder, error) {
	factoryABI, err := abi.JSON(strings.NewReader(eventdecoderassets.FactoryEventsABIString))
	if err != nil {
		return nil, err
	}
	pairABI, err := abi.JSON(strings.NewReader(eventdecoderassets.PairEventsABIString))
	if err != nil {
		return nil, err
	}

	return &Decoder{
		factoryABI: factoryABI,
		pairABI:    pairABI,
		sigs: eventSignatures{
			PairCreatedSig: factoryABI.Events["PairCreated"].ID,
			SwapSig:        pairABI.Events["Swap"].ID,
			MintSig:        pairABI.Events["Mint"].ID,
			BurnSig:        pairABI.Events["Burn"].ID,
			TransferSig:    pairABI.Events["Transfer"].ID,
			SyncSig:        pairABI.Events["Sync"].ID,
		},
	}, nil
}

func (d *Decoder) FactoryTopics() []common.Hash {
	return []common.Hash{d.sigs.PairCreatedSig}
}

func (d *Decoder) PairTopics() []common.Hash {
	return []common.Hash{
		d.sigs.SwapSig,
		d.sigs.MintSig,
		d.sigs.BurnSig,
		d.sigs.TransferSig,
		d.sigs.SyncSig,
	}
}

// Decode reports false for logs of unknown events. A known signature that cannot be
// unpacked returns ErrDecodeMismatch.
// Ordinal is the log index shifted by one, ordinal 0 belongs to store pruning.
func (d *Decoder) Decode(lg types.Log) (models.Log, bool, error) {
	if len(lg.Topics) == 0 {
		return models.Log{}, false, nil
	}

	decoded := models.Log{
		Address: addresshelper.FromAddress(lg.Address),
		Index:   uint64(lg.Index),
		Ordinal: uint64(lg.Index) + 1,
	}

	var err error
	switch lg.Topics[0] {
	case d.sigs.PairCreatedSig:
		decoded.Type = models.LOG_TYPE_PAIR_CREATED
		decoded.PairCreated, err = d.parsePairCreated(lg)
	case d.sigs.SwapSig:
		decoded.Type = models.LOG_TYPE_SWAP
		decoded.Swap, err = d.parseSwap(lg)
	case d.sigs.MintSig:
		decoded.Type = models.LOG_TYPE_MINT
		decoded.Mint, err = d.parseMint(lg)
	case d.sigs.BurnSig:
		decoded.Type = models.LOG_TYPE_BURN
		decoded.Burn, err = d.parseBurn(lg)
	case d.sigs.TransferSig:
		decoded.Type = models.LOG_TYPE_TRANSFER
		decoded.Transfer, err = d.parseTransfer(lg)
	case d.sigs.SyncSig:
		decoded.Type = models.LOG_TYPE_SYNC
		decoded.Sync, err = d.parseSync(lg)
	default:
		return models.Log{}, false, nil
	}

	if err != nil {
		return models.Log{}, true, fmt.Errorf("%w: %s log %d of tx %s: %w", ErrDecodeMismatch, decoded.Type, lg.Index, lg.TxHash.Hex(), err)
	}
	return decoded, true, nil
}

func (d *Decoder) parsePairCreated(lg types.Log) (*models.PairCreatedEvent, error) {
	if len(lg.Topics) < 3 {
		return nil, ErrNotEnoughTopics
	}
	out, err := d.factoryABI.Unpack("PairCreated", lg.Data)
	if err != nil {
		return nil, err
	}
	if len(out) < 2 {
		return nil, ErrUnableToParseLog
	}

	pair, ok := out[0].(common.Address)
	if !ok {
		return nil, ErrUnableToParseLog
	}
	index, ok := out[1].(*big.Int)
	if !ok {
		return nil, ErrUnableToParseLog
	}

	return &models.PairCreatedEvent{
		Token0:    models.Token{Address: topicAddress(lg.Topics[1])},
		Token1:    models.Token{Address: topicAddress(lg.Topics[2])},
		Pair:      addresshelper.FromAddress(pair),
		PairIndex: index,
	}, nil
}

func (d *Decoder) parseSwap(lg types.Log) (*models.SwapEvent, error) {
	if len(lg.Topics) < 3 {
		return nil, ErrNotEnoughTopics
	}
	amounts, err := d.unpackAmounts("Swap", lg, 4)
	if err != nil {
		return nil, err
	}

	return &models.SwapEvent{
		Sender:     topicAddress(lg.Topics[1]),
		To:         topicAddress(lg.Topics[2]),
		Amount0In:  amounts[0],
		Amount1In:  amounts[1],
		Amount0Out: amounts[2],
		Amount1Out: amounts[3],
	}, nil
}

func (d *Decoder) parseMint(lg types.Log) (*models.MintEvent, error) {
	if len(lg.Topics) < 2 {
		return nil, ErrNotEnoughTopics
	}
	amounts, err := d.unpackAmounts("Mint", lg, 2)
	if err != nil {
		return nil, err
	}

	return &models.MintEvent{
		Sender:  topicAddress(lg.Topics[1]),
		Amount0: amounts[0],
		Amount1: amounts[1],
	}, nil
}

func (d *Decoder) parseBurn(lg types.Log) (*models.BurnEvent, error) {
	if len(lg.Topics) < 3 {
		return nil, ErrNotEnoughTopics
	}
	amounts, err := d.unpackAmounts("Burn", lg, 2)
	if err != nil {
		return nil, err
	}

	return &models.BurnEvent{
		Sender:  topicAddress(lg.Topics[1]),
		To:      topicAddress(lg.Topics[2]),
		Amount0: amounts[0],
		Amount1: amounts[1],
	}, nil
}

// parseTransfer only accepts the pair's own LP Transfer layout. ERC721 style transfers
// carry the id as a third topic and no data.
func (d *Decoder) parseTransfer(lg types.Log) (*models.TransferEvent, error) {
	if len(lg.Topics) < 3 {
		return nil, ErrNotEnoughTopics
	}
	amounts, err := d.unpackAmounts("Transfer", lg, 1)
	if err != nil {
		return nil, err
	}

	return &models.TransferEvent{
		From:  topicAddress(lg.Topics[1]),
		To:    topicAddress(lg.Topics[2]),
		Value: amounts[0],
	}, nil
}

func (d *Decoder) parseSync(lg types.Log) (*models.SyncEvent, error) {
	amounts, err := d.unpackAmounts("Sync", lg, 2)
	if err != nil {
		return nil, err
	}

	return &models.SyncEvent{
		Reserve0: amounts[0],
		Reserve1: amounts[1],
	}, nil
}

func (d *Decoder) unpackAmounts(event string, lg types.Log, count int) ([]*big.Int, error) {
	out, err := d.pairABI.Unpack(event, lg.Data)
	if err != nil {
		return nil, err
	}
	if len(out) < count {
		return nil, ErrUnableToParseLog
	}

	amounts := make([]*big.Int, count)
	for i := range count {
		amount, ok := out[i].(*big.Int)
		if !ok {
			return nil, ErrUnableToParseLog
		}
		amounts[i] = amount
	}
	return amounts, nil
}

func topicAddress(topic common.Hash) string {
	return addresshelper.FromAddress(common.HexToAddress(topic.Hex()))
}
