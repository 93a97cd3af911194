package postgres

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/filter"
)

type columnKind int

const (
	kindText columnKind = iota
	kindNumber
	kindBool
	kindTime
	// kindGeo is the latitude and longitude column pair.
	kindGeo
	// kindList columns hold a JSON array and are matched after loading.
	kindList
)

type column struct {
	name string
	kind columnKind
}

var userColumns = map[string]column{
	"objectId":  {"id", kindText},
	"username":  {"username", kindText},
	"email":     {"email", kindText},
	"premium":   {"premium", kindBool},
	"createdAt": {"created_at", kindTime},
	"updatedAt": {"updated_at", kindTime},
}

var productColumns = map[string]column{
	"objectId":     {"id", kindText},
	"name":         {"name", kindText},
	"price":        {"price", kindNumber},
	"description":  {"description", kindText},
	"pictures":     {"pictures", kindList},
	"tags":         {"tags", kindList},
	"userObjectId": {"user_id", kindText},
	"user":         {"user_id", kindText},
	"createdAt":    {"created_at", kindTime},
	"updatedAt":    {"updated_at", kindTime},
}

var saleColumns = map[string]column{
	"objectId":            {"id", kindText},
	"fixed":               {"fixed", kindBool},
	"products":            {"product_ids", kindList},
	"mainProductObjectId": {"main_product_id", kindText},
	"mainProduct":         {"main_product_id", kindText},
	"card":                {"card", kindBool},
	"closeTime":           {"close_time", kindTime},
	"location":            {"location", kindGeo},
	"locationDescription": {"location_description", kindText},
	"userObjectId":        {"user_id", kindText},
	"user":                {"user_id", kindText},
	"active":              {"active", kindBool},
	"createdAt":           {"created_at", kindTime},
	"updatedAt":           {"updated_at", kindTime},
}

// query is a filter split between the SQL it compiles to and the predicates
// that must be checked on loaded rows.
type query struct {
	tx       *gorm.DB
	residual filter.Filter
	// empty is set when some predicate can never match.
	empty bool
}

// compile adds a WHERE clause for every predicate on a known scalar column.
// Predicates on list columns, and on fields missing from the catalog, are
// returned as residual.
func compile(tx *gorm.DB, columns map[string]column, f filter.Filter) query {
	q := query{tx: tx}
	for _, p := range f {
		col, ok := columns[p.Field]
		if !ok || col.kind == kindList {
			q.residual = append(q.residual, p)
			continue
		}
		if col.kind == kindGeo {
			where, args, ok := geoClause(p)
			if !ok {
				q.empty = true
				return q
			}
			q.tx = q.tx.Where(where, args...)
			continue
		}

		switch p.Op {
		case filter.OpContains:
			s, _ := p.Value.(string)
			if col.kind != kindText {
				q.empty = true
				return q
			}
			q.tx = q.tx.Where(col.name+` LIKE ? ESCAPE '\'`, "%"+escapeLike(s)+"%")
		case filter.OpIn:
			values := make([]any, 0, len(p.Values))
			for _, v := range p.Values {
				if cv, ok := coerce(col.kind, v); ok {
					values = append(values, cv)
				}
			}
			if len(values) == 0 {
				q.empty = true
				return q
			}
			q.tx = q.tx.Where(col.name+" IN ?", values)
		default:
			if p.Value == nil {
				q.tx = q.tx.Where(col.name + " IS NULL")
				continue
			}
			v, ok := coerce(col.kind, p.Value)
			if !ok {
				q.empty = true
				return q
			}
			q.tx = q.tx.Where(col.name+" = ?", v)
		}
	}
	return q
}

// geoClause matches the coordinate pair against one point, or any of several.
func geoClause(p filter.Predicate) (string, []any, bool) {
	var operands []any
	switch p.Op {
	case filter.OpEquals:
		operands = []any{p.Value}
	case filter.OpIn:
		operands = p.Values
	default:
		return "", nil, false
	}

	var (
		terms []string
		args  []any
	)
	for _, v := range operands {
		if pt, ok := v.(entities.GeoPoint); ok {
			terms = append(terms, "(latitude = ? AND longitude = ?)")
			args = append(args, pt.Latitude, pt.Longitude)
		}
	}
	if len(terms) == 0 {
		return "", nil, false
	}
	return "(" + strings.Join(terms, " OR ") + ")", args, true
}

// coerce checks that a decoded JSON value can be compared with a column of
// the given kind, and converts it when the column needs another Go type.
func coerce(kind columnKind, v any) (any, bool) {
	switch kind {
	case kindText:
		s, ok := v.(string)
		return s, ok
	case kindNumber:
		switch v.(type) {
		case float64, float32, int, int64, int32:
			return v, true
		}
	case kindBool:
		b, ok := v.(bool)
		return b, ok
	case kindTime:
		if s, ok := v.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return t.UTC(), true
			}
		}
		if t, ok := v.(time.Time); ok {
			return t.UTC(), true
		}
	}
	return nil, false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
