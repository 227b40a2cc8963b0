// Package formula defines the catalog of named operations the pack
// exposes to the host document platform. Each formula is a fixed recipe:
// resolve typed parameters, compose a prompt, hand it to the router, shape
// the response into a document value.
package formula

import (
	"context"
	"time"
)

// ParamType is the host-facing type of a formula parameter.
type ParamType string

const (
	ParamString      ParamType = "string"
	ParamNumber      ParamType = "number"
	ParamBoolean     ParamType = "boolean"
	ParamStringArray ParamType = "string_array"
)

// Param describes one formula parameter. Defaults and autocomplete lists
// are plain data here; the host (or the harness emulating it) applies them
// before execution.
type Param struct {
	Name        string
	Type        ParamType
	Description string

	// Optional parameters may be omitted. A parameter with a non-nil
	// Default is implicitly optional.
	Optional bool

	// Default is injected when the caller omits the parameter. Its dynamic
	// type must match Type (float64 for numbers).
	Default any

	// Autocomplete lists suggested values (model names, sizes, styles).
	Autocomplete []string
}

// Formula is a single catalog entry.
type Formula struct {
	Name        string
	Description string
	Params      []Param

	// CacheTTL is the host caching annotation. Zero disables caching.
	CacheTTL time.Duration

	// IsAction marks document side-effecting formulas, which the host
	// never caches.
	IsAction bool

	// Execute runs the formula against resolved parameters.
	Execute func(ctx context.Context, inv *Invocation) (any, error)
}

// Invocation holds the resolved parameter values for a single call. Values
// are already coerced and defaulted; accessors return zero values for
// absent optional parameters.
type Invocation struct {
	values map[string]any
}

// Lookup returns the raw resolved value and whether it was set.
func (inv *Invocation) Lookup(name string) (any, bool) {
	v, ok := inv.values[name]
	return v, ok
}

// String returns a string parameter, or "" when absent.
func (inv *Invocation) String(name string) string {
	v, _ := inv.values[name].(string)
	return v
}

// Float returns a number parameter, or 0 when absent.
func (inv *Invocation) Float(name string) float64 {
	v, _ := inv.values[name].(float64)
	return v
}

// Int returns a number parameter truncated to int, or 0 when absent.
func (inv *Invocation) Int(name string) int {
	return int(inv.Float(name))
}

// Bool returns a boolean parameter, or false when absent.
func (inv *Invocation) Bool(name string) bool {
	v, _ := inv.values[name].(bool)
	return v
}

// StringSlice returns a string-array parameter, or nil when absent.
func (inv *Invocation) StringSlice(name string) []string {
	v, _ := inv.values[name].([]string)
	return v
}
