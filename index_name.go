package odm

import (
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CanonicalIndexName builds the name MongoDB assigns to an index created
// without an explicit name: each key field followed by its direction or type
// token, all joined with underscores. Key order is part of the identity, so
// {a:1, b:1} and {b:1, a:1} produce different names.
func CanonicalIndexName(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key.Key+"_"+indexKeyToken(key.Value))
	}
	return strings.Join(parts, "_")
}

// indexKeyToken renders an index key value the way the server renders it in
// auto-generated names: integers as their decimal value, special index kinds
// (text, 2dsphere, hashed, ...) as their string tag.
func indexKeyToken(value any) string {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
