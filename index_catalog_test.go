package odm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xompass/vsaas-odm/odmerrors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCatalogFromDocumentsParsesEntries(t *testing.T) {
	catalog, err := catalogFromDocuments([]bson.D{
		{
			{Key: "v", Value: int32(2)},
			{Key: "key", Value: bson.D{{Key: "_id", Value: int32(1)}}},
			{Key: "name", Value: "_id_"},
		},
		{
			{Key: "v", Value: int32(2)},
			{Key: "key", Value: bson.D{{Key: "email", Value: int32(1)}}},
			{Key: "name", Value: "unique-email"},
			{Key: "unique", Value: true},
		},
	})
	require.NoError(t, err)

	// The default _id index never takes part in reconciliation.
	require.Len(t, catalog, 1)

	entry, ok := catalog["email_1"]
	require.True(t, ok, "catalog entries are keyed by canonical name")
	assert.Equal(t, "unique-email", entry.Options["name"])
	assert.Equal(t, true, entry.Options["unique"])
}

func TestCatalogFromDocumentsStripsBookkeepingFields(t *testing.T) {
	catalog, err := catalogFromDocuments([]bson.D{
		{
			{Key: "v", Value: int32(2)},
			{Key: "ns", Value: "mydb.users"},
			{Key: "background", Value: true},
			{Key: "key", Value: bson.D{{Key: "email", Value: int32(1)}}},
			{Key: "name", Value: "email_1"},
		},
	})
	require.NoError(t, err)

	entry := catalog["email_1"]
	assert.NotContains(t, entry.Options, "v")
	assert.NotContains(t, entry.Options, "ns")
	assert.NotContains(t, entry.Options, "key")
	assert.NotContains(t, entry.Options, "background")
	assert.Contains(t, entry.Options, "name")
}

func TestCatalogFromDocumentsMissingKeyIsMalformed(t *testing.T) {
	_, err := catalogFromDocuments([]bson.D{
		{{Key: "name", Value: "email_1"}},
	})

	assert.True(t, odmerrors.IsCode(err, odmerrors.MALFORMED_CATALOG_ENTRY))
}

func TestCatalogFromDocumentsMissingNameIsMalformed(t *testing.T) {
	_, err := catalogFromDocuments([]bson.D{
		{{Key: "key", Value: bson.D{{Key: "email", Value: int32(1)}}}},
	})

	assert.True(t, odmerrors.IsCode(err, odmerrors.MALFORMED_CATALOG_ENTRY))
}

func TestCatalogFromDocumentsNonDocumentKeyIsMalformed(t *testing.T) {
	_, err := catalogFromDocuments([]bson.D{
		{
			{Key: "key", Value: "email"},
			{Key: "name", Value: "email_1"},
		},
	})

	assert.True(t, odmerrors.IsCode(err, odmerrors.MALFORMED_CATALOG_ENTRY))
}

func TestCatalogFromDocumentsEmpty(t *testing.T) {
	catalog, err := catalogFromDocuments(nil)

	require.NoError(t, err)
	assert.Empty(t, catalog)
}
