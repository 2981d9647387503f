package engine

import (
	"fmt"

	"gridhost/internal/models"
)

// ColumnSet is the ordered, append-only list of sparse columns.
// The key index mirrors the dictionary map used while discovering keys.
type ColumnSet struct {
	columns []models.ColumnDescriptor
	index   map[string]int
}

// BuildColumnSet creates one descriptor per key, keeping order.
// A key repeated in the input is kept once at its first position.
func BuildColumnSet(keys []string) *ColumnSet {
	cs := &ColumnSet{
		columns: make([]models.ColumnDescriptor, 0, len(keys)),
		index:   make(map[string]int, len(keys)),
	}
	for _, k := range keys {
		if _, exists := cs.index[k]; exists {
			continue
		}
		cs.add(k)
	}
	return cs
}

func newDescriptor(key string) models.ColumnDescriptor {
	return models.ColumnDescriptor{
		Group:     models.GroupDynamicItem,
		Key:       key,
		ValueType: models.ValueTypeDynamicData,
	}
}

func (cs *ColumnSet) add(key string) {
	cs.index[key] = len(cs.columns)
	cs.columns = append(cs.columns, newDescriptor(key))
}

// Append adds key at the end. The set is left untouched on error.
func (cs *ColumnSet) Append(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, exists := cs.index[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	cs.add(key)
	return nil
}

func (cs *ColumnSet) Has(key string) bool {
	_, ok := cs.index[key]
	return ok
}

func (cs *ColumnSet) Len() int {
	return len(cs.columns)
}

// Keys returns the ordered keys (copy).
func (cs *ColumnSet) Keys() []string {
	out := make([]string, len(cs.columns))
	for i, c := range cs.columns {
		out[i] = c.Key
	}
	return out
}

// Columns returns the ordered descriptors (copy).
func (cs *ColumnSet) Columns() []models.ColumnDescriptor {
	out := make([]models.ColumnDescriptor, len(cs.columns))
	copy(out, cs.columns)
	return out
}

func (cs *ColumnSet) Clone() *ColumnSet {
	out := &ColumnSet{
		columns: cs.Columns(),
		index:   make(map[string]int, len(cs.index)),
	}
	for k, v := range cs.index {
		out.index[k] = v
	}
	return out
}
