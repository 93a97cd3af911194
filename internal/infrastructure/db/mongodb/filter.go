package mongodb

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/filter"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumber
	kindBool
	kindTime
	// kindGeo fields hold GeoJSON point coordinates as [longitude, latitude].
	kindGeo
	// kindTextList fields hold an array of strings; operators apply per element.
	kindTextList
	// kindAny fields are free-form and compared as given.
	kindAny
)

type field struct {
	name string
	kind fieldKind
}

var userFields = map[string]field{
	"objectId":  {"_id", kindText},
	"username":  {"username", kindText},
	"email":     {"email", kindText},
	"premium":   {"premium", kindBool},
	"createdAt": {"createdAt", kindTime},
	"updatedAt": {"updatedAt", kindTime},
}

var productFields = map[string]field{
	"objectId":     {"_id", kindText},
	"name":         {"name", kindText},
	"price":        {"price", kindNumber},
	"description":  {"description", kindText},
	"pictures":     {"pictures", kindTextList},
	"tags":         {"tags", kindTextList},
	"userObjectId": {"userId", kindText},
	"user":         {"userId", kindText},
	"createdAt":    {"createdAt", kindTime},
	"updatedAt":    {"updatedAt", kindTime},
}

var saleFields = map[string]field{
	"objectId":            {"_id", kindText},
	"fixed":               {"fixed", kindBool},
	"products":            {"productIds", kindTextList},
	"mainProductObjectId": {"mainProductId", kindText},
	"mainProduct":         {"mainProductId", kindText},
	"card":                {"card", kindBool},
	"closeTime":           {"closeTime", kindTime},
	"location":            {"location.coordinates", kindGeo},
	"locationDescription": {"locationDescription", kindText},
	"userObjectId":        {"userId", kindText},
	"user":                {"userId", kindText},
	"active":              {"active", kindBool},
	"createdAt":           {"createdAt", kindTime},
	"updatedAt":           {"updatedAt", kindTime},
}

// fallback resolves a field missing from the catalog. It returns false when
// the field can never match.
type fallback func(name string) (field, bool)

func noFallback(string) (field, bool) { return field{}, false }

func attributeFallback(name string) (field, bool) {
	return field{"attributes." + name, kindAny}, true
}

// compile translates f into a MongoDB query document. ok is false when some
// predicate can never match.
func compile(fields map[string]field, unknown fallback, f filter.Filter) (bson.M, bool) {
	var and bson.A
	for _, p := range f {
		fd, known := fields[p.Field]
		if !known {
			if fd, known = unknown(p.Field); !known {
				return nil, false
			}
		}

		switch p.Op {
		case filter.OpContains:
			s, _ := p.Value.(string)
			if fd.kind != kindText && fd.kind != kindTextList && fd.kind != kindAny {
				return nil, false
			}
			and = append(and, bson.M{fd.name: bson.M{"$regex": regexp.QuoteMeta(s)}})
		case filter.OpIn:
			values := make(bson.A, 0, len(p.Values))
			for _, v := range p.Values {
				if cv, ok := coerce(fd.kind, v); ok {
					values = append(values, cv)
				}
			}
			if len(values) == 0 {
				return nil, false
			}
			and = append(and, bson.M{fd.name: bson.M{"$in": values}})
		default:
			if p.Value == nil {
				and = append(and, bson.M{fd.name: nil})
				continue
			}
			v, ok := coerce(fd.kind, p.Value)
			if !ok {
				return nil, false
			}
			and = append(and, bson.M{fd.name: v})
		}
	}
	if len(and) == 0 {
		return bson.M{}, true
	}
	return bson.M{"$and": and}, true
}

func coerce(kind fieldKind, v any) (any, bool) {
	switch kind {
	case kindText, kindTextList:
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
	case kindGeo:
		if p, ok := v.(entities.GeoPoint); ok {
			return bson.A{p.Longitude, p.Latitude}, true
		}
	case kindAny:
		return v, true
	}
	return nil, false
}
