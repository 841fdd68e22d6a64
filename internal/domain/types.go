package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// StringList is an append-only set of identifier strings stored as a JSONB
// array. Ordering is insertion order; duplicates are rejected by Append.
type StringList []string

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(l))
}

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", value)
	}
	cloned := bytes.Clone(b)
	return json.Unmarshal(cloned, l)
}

// Contains reports whether v is already in the list.
func (l StringList) Contains(v string) bool {
	for _, s := range l {
		if s == v {
			return true
		}
	}
	return false
}

// Append adds v if not already present and reports whether it was added.
// Entries are never removed outside an explicit merge or deletion.
func (l *StringList) Append(v string) bool {
	if v == "" || l.Contains(v) {
		return false
	}
	*l = append(*l, v)
	return true
}

// Union appends every entry of other not already present.
func (l *StringList) Union(other StringList) {
	for _, v := range other {
		l.Append(v)
	}
}

// JSONMap is an open JSON object column (user-supplied traits, event
// properties).
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(map[string]interface{}{})
	}
	return json.Marshal(map[string]interface{}(m))
}

// Scan implements the sql.Scanner interface
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", value)
	}
	cloned := bytes.Clone(b)
	return json.Unmarshal(cloned, m)
}

const (
	// MaxPropertyBytes bounds the serialized size of a properties/traits bag.
	MaxPropertyBytes = 10 * 1024
	// MaxPropertyDepth bounds the nesting depth of a properties/traits bag.
	MaxPropertyDepth = 10
)

// ValidatePropertyBag enforces the size and nesting bounds on a raw JSON
// object. Oversized or overly-nested bags are client errors, never crashes.
func ValidatePropertyBag(raw json.RawMessage, maxBytes, maxDepth int) error {
	if len(raw) == 0 {
		return nil
	}
	if len(raw) > maxBytes {
		return NewPayloadTooLargeError(fmt.Sprintf("payload exceeds %d bytes", maxBytes))
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return NewValidationError("properties must be a JSON object")
	}
	if depth := jsonDepth(parsed, 1); depth > maxDepth {
		return NewPayloadTooLargeError(fmt.Sprintf("payload exceeds nesting depth %d", maxDepth))
	}
	return nil
}

func jsonDepth(v gjson.Result, current int) int {
	max := current
	if v.IsObject() || v.IsArray() {
		v.ForEach(func(_, child gjson.Result) bool {
			if d := jsonDepth(child, current+1); d > max {
				max = d
			}
			return true
		})
	}
	return max
}
