package odm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type syncedModel struct {
	ID      any      `bson:"_id,omitempty"`
	Email   string   `bson:"email" odm:"index,unique"`
	Created DateTime `bson:"created"`
}

func (m *syncedModel) GetTableName() string { return "synced_models" }
func (m *syncedModel) GetModelName() string { return "SyncedModel" }
func (m *syncedModel) GetConnectorName() string { return "fake" }
func (m *syncedModel) GetId() any { return nil }

func (m *syncedModel) DeclaredIndexes() []IndexDefinition {
	return []IndexDefinition{
		NewCompoundIndex("email-created", bson.D{
			{Key: "email", Value: 1},
			{Key: "created", Value: -1},
		}),
	}
}

func TestModelIndexesForRegisteredPointerModel(t *testing.T) {
	ds := &Datasource{}
	require.NoError(t, ds.AddConnector(&fakeConnector{name: "fake"}))

	// Repositories register the zero value of the model type, a typed nil
	// for pointer models.
	var instance *syncedModel
	require.NoError(t, ds.RegisterModel(instance))

	schema, err := ds.GetSchema("SyncedModel")
	require.NoError(t, err)
	require.Len(t, schema.DeclaredIndexes(), 1, "tag-declared index from the registered instance")

	// Both the tag index and the explicit declaration must reach the plan.
	declared, err := declaredIndexMap(modelIndexes(instance))
	require.NoError(t, err)

	plan := diffIndexes(declared, map[string]IndexDefinition{})
	assert.ElementsMatch(t, []string{"email_1", "email-created"}, plan.CreateNames())
	assert.Empty(t, plan.DropNames())
}
