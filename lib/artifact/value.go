// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"fmt"
	"math"
)

// Value is a bounded metadata tree node. The type is closed: a Value
// is exactly one of null, bool, number, string, array, or map, fixed
// at construction. Trees only enter the system through [NewValue],
// which enforces the depth bound, so a held Value is always within
// limits.
type Value struct {
	kind   valueKind
	bool   bool
	number float64
	str    string
	array  []Value
	object map[string]Value
}

type valueKind uint8

const (
	kindNull valueKind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindMap
)

// MaxValueDepth bounds metadata tree nesting. The root counts as
// depth one.
const MaxValueDepth = 8

// NewValue converts a decoded JSON value (nil, bool, float64 or
// integer, string, []any, map[string]any) into a Value, rejecting
// unsupported Go types, non-finite numbers, and trees nested past
// MaxValueDepth.
func NewValue(raw any) (Value, error) {
	return newValueAtDepth(raw, 1)
}

func newValueAtDepth(raw any, depth int) (Value, error) {
	if depth > MaxValueDepth {
		return Value{}, fmt.Errorf("metadata nested past depth %d", MaxValueDepth)
	}

	switch v := raw.(type) {
	case nil:
		return Value{kind: kindNull}, nil
	case bool:
		return Value{kind: kindBool, bool: v}, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Value{}, fmt.Errorf("metadata number is not finite")
		}
		return Value{kind: kindNumber, number: v}, nil
	case int:
		return Value{kind: kindNumber, number: float64(v)}, nil
	case int64:
		return Value{kind: kindNumber, number: float64(v)}, nil
	case string:
		return Value{kind: kindString, str: v}, nil
	case []any:
		array := make([]Value, len(v))
		for i, element := range v {
			converted, err := newValueAtDepth(element, depth+1)
			if err != nil {
				return Value{}, err
			}
			array[i] = converted
		}
		return Value{kind: kindArray, array: array}, nil
	case map[string]any:
		object := make(map[string]Value, len(v))
		for key, element := range v {
			converted, err := newValueAtDepth(element, depth+1)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", key, err)
			}
			object[key] = converted
		}
		return Value{kind: kindMap, object: object}, nil
	default:
		return Value{}, fmt.Errorf("unsupported metadata type %T", raw)
	}
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == kindNull }

// Bool returns the boolean value and whether the node is a bool.
func (v Value) Bool() (bool, bool) { return v.bool, v.kind == kindBool }

// Number returns the numeric value and whether the node is a number.
func (v Value) Number() (float64, bool) { return v.number, v.kind == kindNumber }

// String returns the string value and whether the node is a string.
func (v Value) String() (string, bool) { return v.str, v.kind == kindString }

// Array returns the elements and whether the node is an array.
func (v Value) Array() ([]Value, bool) { return v.array, v.kind == kindArray }

// Map returns the entries and whether the node is a map.
func (v Value) Map() (map[string]Value, bool) { return v.object, v.kind == kindMap }

// Interface converts the value back to the plain JSON representation
// (nil, bool, float64, string, []any, map[string]any).
func (v Value) Interface() any {
	switch v.kind {
	case kindNull:
		return nil
	case kindBool:
		return v.bool
	case kindNumber:
		return v.number
	case kindString:
		return v.str
	case kindArray:
		array := make([]any, len(v.array))
		for i, element := range v.array {
			array[i] = element.Interface()
		}
		return array
	default:
		object := make(map[string]any, len(v.object))
		for key, element := range v.object {
			object[key] = element.Interface()
		}
		return object
	}
}

// NewMetadata converts a plain map into the bounded Value form the
// record carries. A nil map yields a nil result.
func NewMetadata(raw map[string]any) (map[string]Value, error) {
	if raw == nil {
		return nil, nil
	}
	metadata := make(map[string]Value, len(raw))
	for key, element := range raw {
		value, err := newValueAtDepth(element, 2)
		if err != nil {
			return nil, fmt.Errorf("metadata key %q: %w", key, err)
		}
		metadata[key] = value
	}
	return metadata, nil
}

// MetadataInterface converts bounded metadata back to plain maps for
// serialization and merging.
func MetadataInterface(metadata map[string]Value) map[string]any {
	if metadata == nil {
		return nil
	}
	raw := make(map[string]any, len(metadata))
	for key, value := range metadata {
		raw[key] = value.Interface()
	}
	return raw
}
