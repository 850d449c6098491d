package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Snapshot is a field name → value map. Translatable fields hold a nested
// locale → value map.
type Snapshot map[string]any

// Clone returns a deep copy of s
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

// Keys returns the field names present in s
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}

func (s Snapshot) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	return marshalColumn(s)
}

func (s *Snapshot) Scan(src any) error {
	return scanColumn(src, s)
}

// Metadata is the free-form context stored with a revision
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return marshalColumn(m)
}

func (m *Metadata) Scan(src any) error {
	return scanColumn(src, m)
}

// FieldChange is a single field's before/after pair
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Diff maps field names to their changes between two snapshots
type Diff map[string]FieldChange

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, inner := range typed {
			out[k] = cloneValue(inner)
		}
		return out
	case Snapshot:
		return typed.Clone()
	case []any:
		out := make([]any, len(typed))
		for i, inner := range typed {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

func marshalColumn(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}
	return string(b), nil
}

func scanColumn(src any, dest any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
