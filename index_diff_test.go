package odm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xompass/vsaas-odm/odmerrors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// serverCatalog builds a current catalog the way the reader would from raw
// listIndexes documents.
func serverCatalog(t *testing.T, documents []bson.D) map[string]IndexDefinition {
	t.Helper()
	catalog, err := catalogFromDocuments(documents)
	require.NoError(t, err)
	return catalog
}

func declaredMap(t *testing.T, declared ...IndexDefinition) map[string]IndexDefinition {
	t.Helper()
	indexes, err := declaredIndexMap(declared)
	require.NoError(t, err)
	return indexes
}

func TestDiffIndexesCreatesMissingIndex(t *testing.T) {
	declared := declaredMap(t, NewSimpleIndex("email", true))

	plan := diffIndexes(declared, map[string]IndexDefinition{})

	assert.Equal(t, []string{"email_1"}, plan.CreateNames())
	assert.Empty(t, plan.DropNames())
}

func TestDiffIndexesDropsUndeclaredIndex(t *testing.T) {
	current := serverCatalog(t, []bson.D{
		{
			{Key: "v", Value: int32(2)},
			{Key: "key", Value: bson.D{{Key: "legacy", Value: int32(1)}}},
			{Key: "name", Value: "legacy_1"},
		},
	})

	plan := diffIndexes(map[string]IndexDefinition{}, current)

	assert.Empty(t, plan.CreateNames())
	assert.Equal(t, []string{"legacy_1"}, plan.DropNames())
}

func TestDiffIndexesUnchangedIndexIsUntouched(t *testing.T) {
	declared := declaredMap(t, NewSimpleIndex("email", true).WithName("unique-email"))
	current := serverCatalog(t, []bson.D{
		{
			{Key: "v", Value: int32(2)},
			{Key: "key", Value: bson.D{{Key: "email", Value: int32(1)}}},
			{Key: "name", Value: "unique-email"},
			{Key: "unique", Value: true},
		},
	})

	plan := diffIndexes(declared, current)

	assert.True(t, plan.Empty())
}

func TestDiffIndexesOptionChangeTriggersReplace(t *testing.T) {
	declared := declaredMap(t, NewSimpleIndex("email", true).WithName("unique-email"))
	current := serverCatalog(t, []bson.D{
		{
			{Key: "v", Value: int32(2)},
			{Key: "key", Value: bson.D{{Key: "email", Value: int32(1)}}},
			{Key: "name", Value: "unique-email"},
			{Key: "unique", Value: false},
		},
	})

	plan := diffIndexes(declared, current)

	// An index cannot be altered in place: the same name lands in both sets.
	assert.Equal(t, []string{"unique-email"}, plan.CreateNames())
	assert.Equal(t, []string{"unique-email"}, plan.DropNames())
}

func TestDiffIndexesMissingDeclaredOptionTriggersReplace(t *testing.T) {
	declared := declaredMap(t, NewSimpleIndex("email", true))
	current := serverCatalog(t, []bson.D{
		{
			{Key: "v", Value: int32(2)},
			{Key: "key", Value: bson.D{{Key: "email", Value: int32(1)}}},
			{Key: "name", Value: "email_1"},
		},
	})

	plan := diffIndexes(declared, current)

	assert.Equal(t, []string{"email_1"}, plan.CreateNames())
	assert.Equal(t, []string{"email_1"}, plan.DropNames())
}

func TestDiffIndexesServerOnlyOptionsDoNotChurn(t *testing.T) {
	declared := declaredMap(t, NewSimpleIndex("email", false))
	current := serverCatalog(t, []bson.D{
		{
			{Key: "v", Value: int32(2)},
			{Key: "key", Value: bson.D{{Key: "email", Value: int32(1)}}},
			{Key: "name", Value: "email_1"},
			// Reported by the server, never declared by the caller.
			{Key: "textIndexVersion", Value: int32(3)},
		},
	})

	plan := diffIndexes(declared, current)

	assert.True(t, plan.Empty())
}

func TestDiffIndexesKeyOrderChangeIsADistinctIndex(t *testing.T) {
	declared := declaredMap(t, NewIndex(bson.D{{Key: "b", Value: 1}, {Key: "a", Value: 1}}))
	current := serverCatalog(t, []bson.D{
		{
			{Key: "key", Value: bson.D{{Key: "a", Value: int32(1)}, {Key: "b", Value: int32(1)}}},
			{Key: "name", Value: "a_1_b_1"},
		},
	})

	plan := diffIndexes(declared, current)

	assert.Equal(t, []string{"b_1_a_1"}, plan.CreateNames())
	assert.Equal(t, []string{"a_1_b_1"}, plan.DropNames())
}

func TestDiffIndexesIsIdempotent(t *testing.T) {
	// A second sync against a catalog shaped like what the first sync created
	// must produce an empty plan.
	declared := declaredMap(t,
		NewSimpleIndex("email", true).WithName("unique-email"),
		NewTTLIndex("created", time.Hour),
		NewTextIndex("search", []string{"bio"}),
	)

	current := serverCatalog(t, []bson.D{
		{
			{Key: "v", Value: int32(2)},
			{Key: "key", Value: bson.D{{Key: "email", Value: int32(1)}}},
			{Key: "name", Value: "unique-email"},
			{Key: "unique", Value: true},
		},
		{
			{Key: "v", Value: int32(2)},
			{Key: "key", Value: bson.D{{Key: "created", Value: int32(1)}}},
			{Key: "name", Value: "created_1"},
			{Key: "expireAfterSeconds", Value: int32(3600)},
		},
		{
			{Key: "v", Value: int32(2)},
			{Key: "key", Value: bson.D{{Key: "bio", Value: "text"}}},
			{Key: "name", Value: "search"},
		},
	})

	plan := diffIndexes(declared, current)

	assert.True(t, plan.Empty(), "expected empty plan, got create=%v drop=%v", plan.CreateNames(), plan.DropNames())
}

func TestDeclaredIndexMapInjectsCanonicalName(t *testing.T) {
	indexes := declaredMap(t, NewSimpleIndex("email", false))

	definition, ok := indexes["email_1"]
	require.True(t, ok)
	assert.Equal(t, "email_1", definition.Options["name"])
}

func TestDeclaredIndexMapKeepsExplicitName(t *testing.T) {
	indexes := declaredMap(t, NewSimpleIndex("email", false).WithName("unique-email"))

	definition, ok := indexes["email_1"]
	require.True(t, ok)
	assert.Equal(t, "unique-email", definition.Options["name"])
}

func TestDeclaredIndexMapDoesNotMutateDeclaration(t *testing.T) {
	declaration := NewSimpleIndex("email", false)

	_, err := declaredIndexMap([]IndexDefinition{declaration})
	require.NoError(t, err)

	_, injected := declaration.Options["name"]
	assert.False(t, injected)
}

func TestDeclaredIndexMapRejectsDuplicateKeys(t *testing.T) {
	// Two declarations over the same keys are one index to the server; a
	// silent last-wins would hide whichever declaration loses.
	_, err := declaredIndexMap([]IndexDefinition{
		NewSimpleIndex("email", false),
		NewSimpleIndex("email", true).WithName("unique-email"),
	})

	assert.True(t, odmerrors.IsCode(err, odmerrors.DECLARED_INDEX_INVALID))
}

func TestDeclaredIndexMapRejectsEmptyKeys(t *testing.T) {
	_, err := declaredIndexMap([]IndexDefinition{{Options: bson.M{"unique": true}}})

	assert.True(t, odmerrors.IsCode(err, odmerrors.DECLARED_INDEX_INVALID))
}

func TestOptionValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		a        any
		b        any
		expected bool
	}{
		{"int vs int32", 3600, int32(3600), true},
		{"int vs float64", 1, float64(1), true},
		{"mismatched numbers", 1, 2, false},
		{"bool equality", true, true, true},
		{"bool mismatch", true, false, false},
		{"strings", "en", "en", true},
		{"declared map vs server document", bson.M{"bio": 1}, bson.D{{Key: "bio", Value: int32(1)}}, true},
		{"nested documents", bson.M{"loc": bson.M{"type": "Point"}}, bson.D{{Key: "loc", Value: bson.D{{Key: "type", Value: "Point"}}}}, true},
		{"nested document mismatch", bson.M{"bio": 1}, bson.D{{Key: "bio", Value: int32(2)}}, false},
		{"array equality", bson.A{"a", "b"}, bson.A{"a", "b"}, true},
		{"array order matters", bson.A{"a", "b"}, bson.A{"b", "a"}, false},
		{"number vs string", 1, "1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, optionValuesEqual(tt.a, tt.b))
		})
	}
}
