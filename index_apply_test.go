package odm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCreateIndexDocumentMergesOptionsAtTopLevel(t *testing.T) {
	definition := NewSimpleIndex("email", true).WithName("unique-email").WithSparse(true)

	document := createIndexDocument(definition)

	require.NotEmpty(t, document)
	assert.Equal(t, "key", document[0].Key, "the key specification comes first")
	assert.Equal(t, definition.Keys, document[0].Value)

	// Options follow in sorted order so the wire command is deterministic.
	optionKeys := make([]string, 0, len(document)-1)
	for _, element := range document[1:] {
		optionKeys = append(optionKeys, element.Key)
	}
	assert.Equal(t, []string{"name", "sparse", "unique"}, optionKeys)
}

func TestCreateIndexDocumentWithoutOptions(t *testing.T) {
	document := createIndexDocument(NewIndex(bson.D{{Key: "a", Value: 1}}))

	assert.Len(t, document, 1)
	assert.Equal(t, "key", document[0].Key)
}
