// Package filter holds the predicates applied to a source before it is paginated.
package filter

import (
	"math"
	"strings"
)

// Comparison is a numeric comparison operator.
type Comparison int

const (
	// None disables the comparison; every value matches.
	None Comparison = iota
	Greater
	Less
	Equal
)

// ParseComparison accepts greater, less and equal (case-insensitive).
func ParseComparison(s string) (Comparison, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "greater":
		return Greater, true
	case "less":
		return Less, true
	case "equal":
		return Equal, true
	default:
		return None, false
	}
}

func (c Comparison) String() string {
	switch c {
	case Greater:
		return "greater"
	case Less:
		return "less"
	case Equal:
		return "equal"
	default:
		return "none"
	}
}

// Operator is the SQL operator for c, or "" for None.
func (c Comparison) Operator() string {
	switch c {
	case Greater:
		return ">"
	case Less:
		return "<"
	case Equal:
		return "="
	default:
		return ""
	}
}

// Match reports whether value <op> target holds. Equality is checked at cent precision.
func (c Comparison) Match(value, target float64) bool {
	switch c {
	case Greater:
		return value > target
	case Less:
		return value < target
	case Equal:
		return math.Round(value*100) == math.Round(target*100)
	default:
		return true
	}
}

// ContainsFold reports whether substr is within s, ignoring case.
// An empty substr matches everything.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Predicate decides whether an item stays in the source.
type Predicate[T any] func(T) bool

// All is the conjunction of ps; nil predicates are skipped.
func All[T any](ps ...Predicate[T]) Predicate[T] {
	return func(v T) bool {
		for _, p := range ps {
			if p != nil && !p(v) {
				return false
			}
		}
		return true
	}
}

// Apply returns the items matching p, preserving order.
func Apply[T any](items []T, p Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if p == nil || p(it) {
			out = append(out, it)
		}
	}
	return out
}
