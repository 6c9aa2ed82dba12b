package entity

import (
	"fmt"
	"strings"
)

// Op is a comparison operator in a filter predicate.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpGt Op = ">"
	OpLt Op = "<"
)

// Predicate compares a single field against a value.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of predicates. A nil or empty filter matches
// every entity.
type Filter []Predicate

// Eq builds a single-predicate equality filter.
func Eq(field string, value any) Filter {
	return Filter{{Field: field, Op: OpEq, Value: value}}
}

// And returns the conjunction of f and other.
func (f Filter) And(other Filter) Filter {
	if len(other) == 0 {
		return f
	}
	combined := make(Filter, 0, len(f)+len(other))
	combined = append(combined, f...)
	combined = append(combined, other...)
	return combined
}

// Matches evaluates the filter against an entity exposed through a field
// lookup. Unknown fields never match.
func (f Filter) Matches(lookup func(name string) (any, bool)) bool {
	for _, p := range f {
		value, ok := lookup(p.Field)
		if !ok {
			return false
		}
		cmp := compareValues(value, p.Value)
		switch p.Op {
		case OpEq:
			if cmp != 0 {
				return false
			}
		case OpNe:
			if cmp == 0 {
				return false
			}
		case OpGt:
			if cmp <= 0 {
				return false
			}
		case OpLt:
			if cmp >= 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ParseFilter builds a Filter from a compact expression such as
// "business_name=exampleName0" or "city=Rome AND nation!=IT".
// Predicates are separated by " AND ".
func ParseFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	var filter Filter
	for _, clause := range strings.Split(expr, " AND ") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		pred, err := parsePredicate(clause)
		if err != nil {
			return nil, err
		}
		filter = append(filter, pred)
	}
	return filter, nil
}

func parsePredicate(clause string) (Predicate, error) {
	// Two-character operators first so "!=" is not read as "=".
	for _, op := range []Op{OpNe, OpEq, OpGt, OpLt} {
		idx := strings.Index(clause, string(op))
		if idx <= 0 {
			continue
		}
		field := strings.TrimSpace(clause[:idx])
		value := strings.TrimSpace(clause[idx+len(op):])
		if field == "" || value == "" {
			return Predicate{}, fmt.Errorf("entity: malformed filter clause %q", clause)
		}
		return Predicate{Field: field, Op: op, Value: value}, nil
	}
	return Predicate{}, fmt.Errorf("entity: malformed filter clause %q", clause)
}

// compareValues orders two values of possibly different dynamic types.
// Numeric kinds compare numerically, everything else falls back to the
// string rendering so parsed filter literals compare against typed fields.
func compareValues(a, b any) int {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%f", &f); err == nil && strings.TrimSpace(n) != "" {
			// Reject partial parses such as "12abc".
			var rest string
			if _, err := fmt.Sscanf(n, "%f%s", &f, &rest); err == nil && rest != "" {
				return 0, false
			}
			return f, true
		}
	}
	return 0, false
}
