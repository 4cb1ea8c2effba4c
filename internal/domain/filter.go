package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Operator is the comparison applied by a Filter.
type Operator string

const (
	OpEq  Operator = "="
	OpNe  Operator = "!="
	OpIn  Operator = "in"
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
)

// suffixes are checked longest first so ">=" wins over ">".
var suffixes = []Operator{OpGte, OpLte, OpNe, OpGt, OpLt, OpEq}

// Filter is one predicate over a column.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Filters is a conjunction of predicates.
type Filters []Filter

// ParseFilters converts a filter map into predicates. Keys are a column name with an
// optional operator suffix ("run_date >="); a list value means set membership.
// Keys are processed in sorted order so the result is deterministic.
func ParseFilters(m map[string]any) (Filters, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Filters, 0, len(keys))
	for _, key := range keys {
		field, op := splitKey(key)
		if err := ValidateColumn(field); err != nil {
			return nil, err
		}
		value := m[key]
		if list, ok := AsList(value); ok {
			switch op {
			case OpEq:
				op = OpIn
			default:
				return nil, fmt.Errorf("filter %q: list value needs equality", key)
			}
			value = list
		}
		out = append(out, Filter{Field: field, Op: op, Value: value})
	}
	return out, nil
}

func splitKey(key string) (string, Operator) {
	k := strings.TrimSpace(key)
	for _, op := range suffixes {
		if strings.HasSuffix(k, string(op)) {
			return strings.TrimSpace(strings.TrimSuffix(k, string(op))), op
		}
	}
	return k, OpEq
}

// AsList normalizes slice values coming from YAML, JSON, or Go callers.
func AsList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

// Exact reports whether the filter can be pushed down to the store.
func (f Filter) Exact() bool {
	return f.Op == OpEq || f.Op == OpIn
}

// Match evaluates the filter against a column value.
func (f Filter) Match(v any) bool {
	switch f.Op {
	case OpIn:
		list, _ := AsList(f.Value)
		for _, want := range list {
			if CompareValues(v, want) == 0 {
				return true
			}
		}
		return false
	case OpEq:
		return CompareValues(v, f.Value) == 0
	case OpNe:
		return CompareValues(v, f.Value) != 0
	}
	if v == nil {
		return false
	}
	c := CompareValues(v, f.Value)
	switch f.Op {
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	}
	return false
}

// Split separates store-pushable predicates from in-memory ones.
func (fs Filters) Split() (exact, rest Filters) {
	for _, f := range fs {
		if f.Exact() {
			exact = append(exact, f)
		} else {
			rest = append(rest, f)
		}
	}
	return exact, rest
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value)
}
