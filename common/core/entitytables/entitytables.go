// Package entitytables accumulates the entity rows touched by one block.
package entitytables

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/shopspring/decimal"
)

type rowKey struct {
	entity string
	id     string
}

type Row struct {
	operation models.EntityOperation
	ordinal   uint64
	names     []string
	values    map[string]string
}

func newRow(operation models.EntityOperation) *Row {
	return &Row{
		operation: operation,
		values:    map[string]string{},
	}
}

// Set overwrites a field. Supported values: string, bool, integers, *big.Int,
// decimal.Decimal, []string and fmt.Stringer.
func (r *Row) Set(name string, value any) *Row {
	if r.operation == models.ENTITY_OPERATION_DELETE {
		return r
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = formatValue(value)
	return r
}

func (r *Row) touch(ordinal uint64) {
	if ordinal > r.ordinal {
		r.ordinal = ordinal
	}
}

// Tables keeps rows in first touch order so a block always yields the same changes.
type Tables struct {
	rows  map[rowKey]*Row
	order []rowKey
}

func New() *Tables {
	return &Tables{
		rows: map[rowKey]*Row{},
	}
}

// CreateRow marks the row as created, upgrading a pending update.
func (t *Tables) CreateRow(ordinal uint64, entity, id string) *Row {
	row := t.row(entity, id, models.ENTITY_OPERATION_CREATE)
	if row.operation == models.ENTITY_OPERATION_UPDATE {
		row.operation = models.ENTITY_OPERATION_CREATE
	}
	row.touch(ordinal)
	return row
}

// UpdateRow returns the row, keeping its operation when it was already created.
func (t *Tables) UpdateRow(ordinal uint64, entity, id string) *Row {
	row := t.row(entity, id, models.ENTITY_OPERATION_UPDATE)
	row.touch(ordinal)
	return row
}

// DeleteRow drops every pending field of the row.
func (t *Tables) DeleteRow(ordinal uint64, entity, id string) *Row {
	row := t.row(entity, id, models.ENTITY_OPERATION_DELETE)
	row.operation = models.ENTITY_OPERATION_DELETE
	row.names = nil
	row.values = map[string]string{}
	row.touch(ordinal)
	return row
}

func (t *Tables) Len() int {
	return len(t.order)
}

func (t *Tables) ToEntityChanges() []models.EntityChange {
	changes := make([]models.EntityChange, 0, len(t.order))
	for _, key := range t.order {
		row := t.rows[key]
		fields := make([]models.EntityField, 0, len(row.names))
		for _, name := range row.names {
			fields = append(fields, models.EntityField{Name: name, Value: row.values[name]})
		}

		changes = append(changes, models.EntityChange{
			Entity:    key.entity,
			ID:        key.id,
			Ordinal:   row.ordinal,
			Operation: row.operation,
			Fields:    fields,
		})
	}
	return changes
}

func (t *Tables) row(entity, id string, operation models.EntityOperation) *Row {
	key := rowKey{entity: entity, id: id}
	if row, ok := t.rows[key]; ok {
		return row
	}

	row := newRow(operation)
	t.rows[key] = row
	t.order = append(t.order, key)
	return row
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case *big.Int:
		if v == nil {
			return "0"
		}
		return v.String()
	case decimal.Decimal:
		return v.String()
	case []string:
		return strings.Join(v, ",")
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}
