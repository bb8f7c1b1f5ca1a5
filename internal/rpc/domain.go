package rpc

import "encoding/json"

// Condition is one [field, operator, value] term of a search domain.
type Condition struct {
	Field string
	Op    string
	Value any
}

// Where builds a Condition.
func Where(field, op string, value any) Condition {
	return Condition{Field: field, Op: op, Value: value}
}

// MarshalJSON encodes the condition as a three-element array.
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Field, c.Op, c.Value})
}

// Domain is a conjunction of conditions. An empty domain matches everything.
type Domain []Condition

// MarshalJSON encodes a nil domain as [] rather than null.
func (d Domain) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Condition(d))
}
