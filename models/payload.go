package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is a read-only snapshot of an unwrapped response: an object,
// an array, or a scalar.
type Payload struct {
	value any
}

// NewPayload copies v into a Payload
func NewPayload(v any) Payload {
	return Payload{value: cloneValue(v)}
}

// Raw returns a copy of the underlying value
func (p Payload) Raw() any {
	return cloneValue(p.value)
}

// IsNull reports whether the payload holds no value
func (p Payload) IsNull() bool {
	return p.value == nil
}

// Record returns the payload as an object
func (p Payload) Record() (Record, bool) {
	obj, ok := asObject(p.value)
	if !ok {
		return nil, false
	}
	return obj.Clone(), true
}

// Records returns the payload as an array of objects. It fails if any
// element is not an object.
func (p Payload) Records() ([]Record, bool) {
	items, ok := p.value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		obj, ok := asObject(item)
		if !ok {
			return nil, false
		}
		out = append(out, obj.Clone())
	}
	return out, true
}

// Len returns the number of elements of an array or keys of an object
func (p Payload) Len() int {
	switch v := p.value.(type) {
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	case Record:
		return len(v)
	default:
		return 0
	}
}

// Decode re-encodes the payload into dst, for callers that want their own
// struct types.
func (p Payload) Decode(dst any) error {
	raw, err := json.Marshal(p.value)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// MarshalJSON encodes the underlying value
func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value)
}
