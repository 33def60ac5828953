// Package normalization maps loosely written configuration strings onto typed
// enum values.
package normalization

import (
	"fmt"
	"slices"
	"strings"
)

// Enum normalizes raw strings to one of a fixed set of values of T.
type Enum[T ~string] struct {
	name     string
	fallback T
	values   map[string]T
	keys     []string
}

// NewEnum builds a normalizer named name (used in error messages). Empty
// input normalizes to fallback.
func NewEnum[T ~string](name string, fallback T, values ...T) *Enum[T] {
	e := &Enum[T]{name: name, fallback: fallback, values: make(map[string]T, len(values))}
	for _, v := range values {
		key := clean(string(v))
		e.values[key] = v
		e.keys = append(e.keys, key)
	}
	slices.Sort(e.keys)
	return e
}

// Parse returns the canonical value for raw, or an error naming the valid options.
func (e *Enum[T]) Parse(raw string) (T, error) {
	key := clean(raw)
	if key == "" {
		return e.fallback, nil
	}
	if v, ok := e.values[key]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %s", e.name, raw, strings.Join(e.keys, ", "))
}

// Normalize is Parse without the error: unknown input yields the fallback.
func (e *Enum[T]) Normalize(raw string) T {
	v, err := e.Parse(raw)
	if err != nil {
		return e.fallback
	}
	return v
}

// Valid reports whether raw names a known value (empty counts as valid).
func (e *Enum[T]) Valid(raw string) bool {
	_, err := e.Parse(raw)
	return err == nil
}

// Keys returns the accepted spellings in sorted order.
func (e *Enum[T]) Keys() []string {
	return slices.Clone(e.keys)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
