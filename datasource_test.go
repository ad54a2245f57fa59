package odm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConnector is a minimal non-MongoDB connector for registry tests.
type fakeConnector struct {
	name         string
	disconnected bool
}

func (f *fakeConnector) Ping() error { return nil }
func (f *fakeConnector) Disconnect() error { f.disconnected = true; return nil }
func (f *fakeConnector) GetName() string { return f.name }
func (f *fakeConnector) GetDatabaseName() string { return "testdb" }
func (f *fakeConnector) GetDriver() any { return nil }

type registryModel struct {
	ID    any    `bson:"_id,omitempty"`
	Email string `bson:"email" odm:"index,unique"`
}

func (m *registryModel) GetTableName() string { return "registry_models" }
func (m *registryModel) GetModelName() string { return "RegistryModel" }
func (m *registryModel) GetConnectorName() string { return "fake" }
func (m *registryModel) GetId() any { return m.ID }

func TestDatasourceRegisterModel(t *testing.T) {
	ds := &Datasource{}
	require.NoError(t, ds.AddConnector(&fakeConnector{name: "fake"}))

	model := &registryModel{}
	require.NoError(t, ds.RegisterModel(model))

	registered, err := ds.GetModel("RegistryModel")
	require.NoError(t, err)
	assert.Equal(t, model, registered)

	connector, err := ds.GetModelConnector(model)
	require.NoError(t, err)
	assert.Equal(t, "fake", connector.GetName())

	schema, err := ds.GetSchema("RegistryModel")
	require.NoError(t, err)
	assert.Equal(t, "registry_models", schema.CollectionName)
	assert.Len(t, schema.DeclaredIndexes(), 1)
}

func TestDatasourceRegisterModelTwiceFails(t *testing.T) {
	ds := &Datasource{}
	require.NoError(t, ds.AddConnector(&fakeConnector{name: "fake"}))
	require.NoError(t, ds.RegisterModel(&registryModel{}))

	err := ds.RegisterModel(&registryModel{})

	assert.Error(t, err)
}

func TestDatasourceRegisterModelUnknownConnector(t *testing.T) {
	ds := &Datasource{}

	err := ds.RegisterModel(&registryModel{})

	assert.Error(t, err)
}

func TestDatasourceGetUnknownModel(t *testing.T) {
	ds := &Datasource{}

	_, err := ds.GetModel("Nope")

	assert.Error(t, err)
}

func TestDatasourceSyncModelSkipsNonMongoConnectors(t *testing.T) {
	ds := &Datasource{}
	require.NoError(t, ds.AddConnector(&fakeConnector{name: "fake"}))
	require.NoError(t, ds.RegisterModel(&registryModel{}))

	// A registered model on a non-MongoDB connector has nothing to sync.
	assert.NoError(t, ds.SyncModels(t.Context()))
}

func TestDatasourceDestroyDisconnectsConnectors(t *testing.T) {
	connector := &fakeConnector{name: "fake"}
	ds := &Datasource{}
	require.NoError(t, ds.AddConnector(connector))

	ds.Destroy()

	assert.True(t, connector.disconnected)
}

func TestNilDatasource(t *testing.T) {
	var ds *Datasource

	assert.Error(t, ds.RegisterModel(&registryModel{}))
	assert.Error(t, ds.SyncModels(t.Context()))

	_, err := ds.GetModel("RegistryModel")
	assert.Error(t, err)
}
