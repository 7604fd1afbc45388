package domain

import (
	"bytes"
	"encoding/json"
)

type optionalState uint8

const (
	optionalUnset optionalState = iota
	optionalNull
	optionalValue
)

// Optional distinguishes "leave unchanged" (zero value), "clear" and "set to v"
// for partial updates. When decoded from JSON an absent key stays unset and an
// explicit null clears the field.
type Optional[T any] struct {
	state optionalState
	value T
}

func Set[T any](v T) Optional[T] {
	return Optional[T]{state: optionalValue, value: v}
}

func Clear[T any]() Optional[T] {
	return Optional[T]{state: optionalNull}
}

// Present reports whether the field takes part in the update at all.
func (o Optional[T]) Present() bool {
	return o.state != optionalUnset
}

func (o Optional[T]) IsNull() bool {
	return o.state == optionalNull
}

// Value returns the new value; ok is false for unset and cleared fields.
func (o Optional[T]) Value() (T, bool) {
	return o.value, o.state == optionalValue
}

// Ptr is nil when cleared or unset.
func (o Optional[T]) Ptr() *T {
	if o.state != optionalValue {
		return nil
	}
	v := o.value
	return &v
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Clear[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Set(v)
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.state != optionalValue {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
