package models

type BlockEventType string

const (
	BLOCK_EVENT_LOG        BlockEventType = "Log"
	BLOCK_EVENT_BLOCK_OVER BlockEventType = "BlockOver"
)

// BlockEvent is one kafka message of the block events topic. A block is sent as its
// decoded logs in log order followed by a single BlockOver carrying the header fields.
type BlockEvent struct {
	Type        BlockEventType `json:"type"`
	ChainID     uint           `json:"chain_id"`
	BlockNumber uint64         `json:"block_number"`

	TxHash  string `json:"tx_hash,omitempty"`
	TxFrom  string `json:"tx_from,omitempty"`
	TxTo    string `json:"tx_to,omitempty"`
	TxIndex uint   `json:"tx_index,omitempty"`
	Log     *Log   `json:"log,omitempty"`

	BlockHash   string       `json:"block_hash,omitempty"`
	Timestamp   uint64       `json:"timestamp,omitempty"`
	OracleRound *OracleRound `json:"oracle_round,omitempty"`
}
