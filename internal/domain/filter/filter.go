// Package filter turns a caller-supplied filter map into explicit predicates.
//
// The value's JSON type picks the operation exactly once, at the boundary:
// a string means substring match, an array means membership, anything else
// means equality. Stores translate the resulting predicates into their own
// query language and may fall back to Match for fields they cannot query.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
)

type Op int

const (
	OpEquals Op = iota
	OpContains
	OpIn
)

func (o Op) String() string {
	switch o {
	case OpContains:
		return "contains"
	case OpIn:
		return "in"
	default:
		return "equals"
	}
}

type Predicate struct {
	Field string
	Op    Op
	// Value is the operand of OpEquals and OpContains.
	Value any
	// Values is the operand of OpIn.
	Values []any
}

func Contains(field, substr string) Predicate {
	return Predicate{Field: field, Op: OpContains, Value: substr}
}

func In(field string, values ...any) Predicate {
	return Predicate{Field: field, Op: OpIn, Values: values}
}

func Equals(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEquals, Value: value}
}

func (p Predicate) String() string {
	if p.Op == OpIn {
		return fmt.Sprintf("%s in %v", p.Field, p.Values)
	}
	return fmt.Sprintf("%s %s %v", p.Field, p.Op, p.Value)
}

// Filter is a conjunction of predicates.
type Filter []Predicate

// FromMap builds the predicates for a decoded JSON filter map, in key order.
func FromMap(m map[string]any) Filter {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := make(Filter, 0, len(keys))
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			f = append(f, Contains(k, v))
		case []any:
			values := make([]any, len(v))
			for i, e := range v {
				values[i] = operand(e)
			}
			f = append(f, In(k, values...))
		case []string:
			values := make([]any, len(v))
			for i, s := range v {
				values[i] = s
			}
			f = append(f, In(k, values...))
		case map[string]any:
			f = append(f, Equals(k, operand(v)))
		default:
			f = append(f, Equals(k, v))
		}
	}
	return f
}

// operand resolves a pointer object to its id, a Date object to a UTC time
// and a latitude/longitude object to a GeoPoint. Other values pass through.
func operand(v any) any {
	obj, ok := v.(map[string]any)
	if !ok {
		return v
	}
	switch obj["__type"] {
	case "Date":
		if iso, ok := obj["iso"].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, iso); err == nil {
				return t.UTC()
			}
		}
		return v
	case "Pointer":
		if id, ok := obj["objectId"].(string); ok {
			return id
		}
		return v
	}
	if id, ok := obj["objectId"].(string); ok {
		return id
	}
	lat, latOk := obj["latitude"].(float64)
	lng, lngOk := obj["longitude"].(float64)
	if latOk && lngOk {
		return entities.GeoPoint{Latitude: lat, Longitude: lng}
	}
	return v
}

// Match evaluates the predicate against a field value. For list values the
// predicate holds when it holds for at least one element.
func (p Predicate) Match(v any) bool {
	switch list := v.(type) {
	case []string:
		for _, e := range list {
			if p.matchScalar(e) {
				return true
			}
		}
		return false
	case []any:
		for _, e := range list {
			if p.matchScalar(e) {
				return true
			}
		}
		return false
	}
	return p.matchScalar(v)
}

func (p Predicate) matchScalar(v any) bool {
	switch p.Op {
	case OpContains:
		s, ok := v.(string)
		sub, _ := p.Value.(string)
		return ok && strings.Contains(s, sub)
	case OpIn:
		for _, candidate := range p.Values {
			if Equal(v, candidate) {
				return true
			}
		}
		return false
	default:
		return Equal(v, p.Value)
	}
}

// MatchAll reports whether every predicate holds, looking fields up with get.
// A field get does not know never matches.
func (f Filter) MatchAll(get func(field string) (any, bool)) bool {
	for _, p := range f {
		v, ok := get(p.Field)
		if !ok || !p.Match(v) {
			return false
		}
	}
	return true
}

// Equal compares two filter operands. All numeric kinds compare by value.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case entities.GeoPoint:
		bv, ok := b.(entities.GeoPoint)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
