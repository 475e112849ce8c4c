// Package fields holds the editable field list of an opened valuation
// document and the views derived from it.
package fields

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrReadOnlyField = errors.New("field is read-only")
)

// Field keys, in the order the extractor emits them.
const (
	KeyFileNumber     = "fileNumber"
	KeyReferenceCode  = "referenceCode"
	KeyPropertyType   = "propertyType"
	KeyLocation       = "location"
	KeyCustomerName   = "customerName"
	KeyBankCode       = "bankCode"
	KeyInspectionDate = "inspectionDate"
	KeyInspectionTime = "inspectionTime"
	KeyValuerName     = "valuerName"
	KeyPropertyValue  = "propertyValue"
	KeyRemarks        = "remarks"
)

type DocumentField struct {
	Label     string `json:"label"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Editable  bool   `json:"editable"`
	Automated bool   `json:"automated,omitempty"`
}

// Fields is an ordered field list, unique by key.
type Fields []DocumentField

func (f Fields) index(key string) int {
	for i := range f {
		if f[i].Key == key {
			return i
		}
	}
	return -1
}

// Get returns the field with the given key.
func (f Fields) Get(key string) (DocumentField, bool) {
	if i := f.index(key); i >= 0 {
		return f[i], true
	}
	return DocumentField{}, false
}

// Value returns the value for key, or "" when absent.
func (f Fields) Value(key string) string {
	field, _ := f.Get(key)
	return field.Value
}

// Set updates an editable field in place.
func (f Fields) Set(key, value string) error {
	i := f.index(key)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	if !f[i].Editable {
		return fmt.Errorf("%w: %s", ErrReadOnlyField, key)
	}
	f[i].Value = value
	return nil
}

// Assign updates a field regardless of editability. It is meant for values
// the system regenerates, such as the sequential file number.
func (f Fields) Assign(key, value string) bool {
	i := f.index(key)
	if i < 0 {
		return false
	}
	f[i].Value = value
	return true
}

// Clone returns a copy that can be mutated independently.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	copy(out, f)
	return out
}

// Snapshot captures key → value, used as the originals for change tracking.
func (f Fields) Snapshot() map[string]string {
	out := make(map[string]string, len(f))
	for _, field := range f {
		out[field.Key] = field.Value
	}
	return out
}

// ValueMap derives the label-and-key lookup used by the merge engine. Each
// field contributes its label first and then its key.
func (f Fields) ValueMap() *ValueMap {
	m := NewValueMap()
	for _, field := range f {
		m.Set(field.Label, field.Value)
		m.Set(field.Key, field.Value)
	}
	return m
}

// ValueMap is an insertion-ordered string map. Merge substitutions run in
// this order, so it has to be stable.
type ValueMap struct {
	keys   []string
	values map[string]string
}

func NewValueMap() *ValueMap {
	return &ValueMap{values: make(map[string]string)}
}

func (m *ValueMap) Set(name, value string) {
	if _, ok := m.values[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.values[name] = value
}

func (m *ValueMap) Get(name string) (string, bool) {
	v, ok := m.values[name]
	return v, ok
}

func (m *ValueMap) Len() int {
	return len(m.keys)
}

// Range visits entries in insertion order until fn returns false.
func (m *ValueMap) Range(fn func(name, value string) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

func (m *ValueMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.values)
}
