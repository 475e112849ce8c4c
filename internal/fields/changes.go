package fields

import (
	"bytes"
	"encoding/json"
)

type Change struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ChangeSet lists the fields whose value differs from the value captured
// when the document was opened. It is a view: compute it, never store it.
type ChangeSet struct {
	keys    []string
	changes map[string]Change
}

// Changes compares current values with originals in field-list order.
// A key is included only when both sides are non-empty and differ.
func Changes(current Fields, originals map[string]string) ChangeSet {
	cs := ChangeSet{changes: make(map[string]Change)}
	for _, field := range current {
		old, ok := originals[field.Key]
		if !ok || old == "" || field.Value == "" || old == field.Value {
			continue
		}
		cs.keys = append(cs.keys, field.Key)
		cs.changes[field.Key] = Change{Old: old, New: field.Value}
	}
	return cs
}

// NewChangeSet builds a ChangeSet from explicit entries, keeping their order
// and dropping the ones that do not qualify.
func NewChangeSet(keys []string, changes map[string]Change) ChangeSet {
	cs := ChangeSet{changes: make(map[string]Change)}
	for _, k := range keys {
		c, ok := changes[k]
		if !ok || c.Old == "" || c.New == "" || c.Old == c.New {
			continue
		}
		if _, dup := cs.changes[k]; dup {
			continue
		}
		cs.keys = append(cs.keys, k)
		cs.changes[k] = c
	}
	return cs
}

func (cs ChangeSet) Len() int {
	return len(cs.keys)
}

func (cs ChangeSet) Keys() []string {
	return append([]string(nil), cs.keys...)
}

func (cs ChangeSet) Get(key string) (Change, bool) {
	c, ok := cs.changes[key]
	return c, ok
}

// Equal reports whether both sets hold the same changes in the same order.
func (cs ChangeSet) Equal(other ChangeSet) bool {
	if len(cs.keys) != len(other.keys) {
		return false
	}
	for i, k := range cs.keys {
		if other.keys[i] != k || other.changes[k] != cs.changes[k] {
			return false
		}
	}
	return true
}

// Range visits changes in field order until fn returns false.
func (cs ChangeSet) Range(fn func(key string, c Change) bool) {
	for _, k := range cs.keys {
		if !fn(k, cs.changes[k]) {
			return
		}
	}
}

// MarshalJSON writes the set as an object with keys in field order.
func (cs ChangeSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range cs.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(cs.changes[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
