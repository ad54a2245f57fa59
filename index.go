package odm

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// IndexDefinition is a declared index: an ordered key specification plus an
// opaque set of index options. Options are passed through to the server as-is
// and compared for equality during reconciliation; their semantics are never
// interpreted here.
type IndexDefinition struct {
	Keys    bson.D // Ordered field -> direction (1/-1) or type tag ("text", "2dsphere", ...)
	Options bson.M // Index options (name, unique, sparse, expireAfterSeconds, weights, ...)
}

// Name returns the explicit index name if one was declared, otherwise the
// canonical name derived from the keys.
func (idx IndexDefinition) Name() string {
	if name, ok := idx.Options["name"].(string); ok && name != "" {
		return name
	}
	return CanonicalIndexName(idx.Keys)
}

// cloneOptions returns a shallow copy of the option set so reconciliation can
// inject the canonical name without mutating the caller's declaration.
func (idx IndexDefinition) cloneOptions() bson.M {
	cloned := make(bson.M, len(idx.Options)+1)
	for key, value := range idx.Options {
		cloned[key] = value
	}
	return cloned
}

// Special MongoDB index type tags, used as key values instead of a direction.
const (
	IndexTypeText     = "text"
	IndexType2D       = "2d"
	IndexType2DSphere = "2dsphere"
	IndexTypeHashed   = "hashed"
)

// Helper constructors for common index shapes

// NewIndex creates an index over the given keys with no options.
func NewIndex(keys bson.D) IndexDefinition {
	return IndexDefinition{Keys: keys, Options: bson.M{}}
}

// NewSimpleIndex creates an ascending index on a single field.
func NewSimpleIndex(fieldName string, unique bool) IndexDefinition {
	idx := NewIndex(bson.D{{Key: fieldName, Value: 1}})
	if unique {
		idx.Options["unique"] = true
	}
	return idx
}

// NewCompoundIndex creates a named compound index. Key order matters: it is
// part of the index identity.
func NewCompoundIndex(name string, keys bson.D) IndexDefinition {
	idx := NewIndex(keys)
	idx.Options["name"] = name
	return idx
}

// NewTTLIndex creates a TTL index on a single date field.
func NewTTLIndex(fieldName string, expireAfter time.Duration) IndexDefinition {
	idx := NewIndex(bson.D{{Key: fieldName, Value: 1}})
	idx.Options["expireAfterSeconds"] = int32(expireAfter.Seconds())
	return idx
}

// NewTextIndex creates a full-text search index over the given fields.
func NewTextIndex(name string, fields []string) IndexDefinition {
	keys := make(bson.D, 0, len(fields))
	for _, field := range fields {
		keys = append(keys, bson.E{Key: field, Value: IndexTypeText})
	}
	idx := NewIndex(keys)
	idx.Options["name"] = name
	return idx
}

// NewHashedIndex creates a hashed index on a single field.
func NewHashedIndex(fieldName string) IndexDefinition {
	return NewIndex(bson.D{{Key: fieldName, Value: IndexTypeHashed}})
}

// New2DSphereIndex creates a 2dsphere geospatial index on a single field.
func New2DSphereIndex(fieldName string) IndexDefinition {
	return NewIndex(bson.D{{Key: fieldName, Value: IndexType2DSphere}})
}

// WithName sets an explicit index name.
func (idx IndexDefinition) WithName(name string) IndexDefinition {
	idx.Options = idx.cloneOptions()
	idx.Options["name"] = name
	return idx
}

// WithUnique sets the unique option.
func (idx IndexDefinition) WithUnique(unique bool) IndexDefinition {
	idx.Options = idx.cloneOptions()
	idx.Options["unique"] = unique
	return idx
}

// WithSparse sets the sparse option.
func (idx IndexDefinition) WithSparse(sparse bool) IndexDefinition {
	idx.Options = idx.cloneOptions()
	idx.Options["sparse"] = sparse
	return idx
}

// WithTTL sets the expireAfterSeconds option. The first key must be a date
// field for TTL expiry to work.
func (idx IndexDefinition) WithTTL(expireAfter time.Duration) IndexDefinition {
	idx.Options = idx.cloneOptions()
	idx.Options["expireAfterSeconds"] = int32(expireAfter.Seconds())
	return idx
}

// WithPartialFilter sets a partial filter expression.
func (idx IndexDefinition) WithPartialFilter(filter bson.M) IndexDefinition {
	idx.Options = idx.cloneOptions()
	idx.Options["partialFilterExpression"] = filter
	return idx
}

// WithWeights sets text search weights for text indexes.
func (idx IndexDefinition) WithWeights(weights bson.M) IndexDefinition {
	idx.Options = idx.cloneOptions()
	idx.Options["weights"] = weights
	return idx
}

// WithDefaultLanguage sets the default language for text indexes.
func (idx IndexDefinition) WithDefaultLanguage(language string) IndexDefinition {
	idx.Options = idx.cloneOptions()
	idx.Options["default_language"] = language
	return idx
}

// WithHidden hides the index from the query planner.
func (idx IndexDefinition) WithHidden(hidden bool) IndexDefinition {
	idx.Options = idx.cloneOptions()
	idx.Options["hidden"] = hidden
	return idx
}

// WithOption sets an arbitrary index option by its wire name.
func (idx IndexDefinition) WithOption(name string, value any) IndexDefinition {
	idx.Options = idx.cloneOptions()
	idx.Options[name] = value
	return idx
}
