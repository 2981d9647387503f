package models

import (
	"errors"
	"fmt"
	"strconv"
)

// SeedKeyModulus is the number of distinct seed keys ("Pos0".."Pos4") a row can carry.
const SeedKeyModulus = 5

var ErrKeyExists = errors.New("sparse key already exists")

// DynamicData is the opaque value stored under a sparse key.
type DynamicData struct {
	X string `json:"x"`
	Y string `json:"y"`
}

func NewDynamicData(index int) DynamicData {
	return DynamicData{
		X: "X" + strconv.Itoa(index),
		Y: "Y" + strconv.Itoa(index),
	}
}

// SparseMap is an insertion-ordered key -> DynamicData map.
// Entries can be added but never replaced or removed.
type SparseMap struct {
	keys   []string
	values map[string]DynamicData
}

func NewSparseMap() *SparseMap {
	return &SparseMap{values: make(map[string]DynamicData)}
}

// Add stores value under key. It fails with ErrKeyExists instead of overwriting.
func (m *SparseMap) Add(key string, value DynamicData) error {
	if _, ok := m.values[key]; ok {
		return fmt.Errorf("%w: %q", ErrKeyExists, key)
	}
	m.keys = append(m.keys, key)
	m.values[key] = value
	return nil
}

// Get reports the value for key; ok is false when the row does not carry it.
func (m *SparseMap) Get(key string) (DynamicData, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *SparseMap) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Keys returns a copy of the keys in insertion order.
func (m *SparseMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *SparseMap) Len() int {
	return len(m.keys)
}

// Row is one grid record: two fixed attributes and the sparse bag.
type Row struct {
	Index       int
	A           string
	B           string
	DynamicItem *SparseMap
}

// NewRow derives every field from index. The seed entry lives under "Pos"+(index mod 5).
func NewRow(index int) *Row {
	r := &Row{
		Index:       index,
		A:           "A" + strconv.Itoa(index),
		B:           "B" + strconv.Itoa(index),
		DynamicItem: NewSparseMap(),
	}
	// Add on an empty map cannot fail.
	_ = r.DynamicItem.Add(SeedKey(index), NewDynamicData(index))
	return r
}

// SeedKey returns the seed sparse key for a construction index.
func SeedKey(index int) string {
	pos := index % SeedKeyModulus
	if pos < 0 {
		pos += SeedKeyModulus
	}
	return "Pos" + strconv.Itoa(pos)
}
