package models

const ENTITY_CHANGES_TABLE = "entity_changes"

const ENTITY_CHANGE_CHAIN_ID = "chain_id"
const ENTITY_CHANGE_BLOCK_NUMBER = "block_number"
const ENTITY_CHANGE_BLOCK_HASH = "block_hash"
const ENTITY_CHANGE_ENTITY = "entity"
const ENTITY_CHANGE_ENTITY_ID = "entity_id"
const ENTITY_CHANGE_OPERATION = "operation"
const ENTITY_CHANGE_ORDINAL = "ordinal"
const ENTITY_CHANGE_FIELDS = "fields"

type EntityOperation string

const (
	ENTITY_OPERATION_CREATE EntityOperation = "CREATE"
	ENTITY_OPERATION_UPDATE EntityOperation = "UPDATE"
	ENTITY_OPERATION_DELETE EntityOperation = "DELETE"
)

type EntityField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type EntityChange struct {
	Entity    string          `json:"entity"`
	ID        string          `json:"id"`
	Ordinal   uint64          `json:"ordinal"`
	Operation EntityOperation `json:"operation"`
	Fields    []EntityField   `json:"fields"`
}

// Field returns the value of a field and whether it is set.
func (c *EntityChange) Field(name string) (string, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

type BlockEntityChanges struct {
	ChainID     uint           `json:"chain_id"`
	BlockNumber uint64         `json:"block_number"`
	BlockHash   string         `json:"block_hash"`
	Timestamp   uint64         `json:"timestamp"`
	Changes     []EntityChange `json:"changes"`
}
