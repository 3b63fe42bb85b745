// Package coerce converts loosely typed snapshot values (JSON maps, numbers
// decoded as float64) into the concrete types a property's default declares.
package coerce

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Value converts input into an instance of target via a JSON round trip.
// It returns the input unchanged when it is already assignable to target.
func Value(input any, target reflect.Type) (any, error) {
	if target == nil {
		return input, nil
	}
	if input == nil {
		return nil, nil
	}
	if reflect.TypeOf(input).AssignableTo(target) {
		return input, nil
	}

	buffer, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("coerce: marshal %T: %w", input, err)
	}
	out := reflect.New(target)
	if err := json.Unmarshal(buffer, out.Interface()); err != nil {
		return nil, fmt.Errorf("coerce: decode into %s: %w", target, err)
	}
	return out.Elem().Interface(), nil
}

// Into converts input into T, using Value.
func Into[T any](input any) (T, error) {
	var zero T
	converted, err := Value(input, reflect.TypeOf(zero))
	if err != nil {
		return zero, err
	}
	if converted == nil {
		return zero, nil
	}
	typed, ok := converted.(T)
	if !ok {
		return zero, fmt.Errorf("coerce: %T is not %T", converted, zero)
	}
	return typed, nil
}
