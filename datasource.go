package odm

import (
	"context"
	"sort"

	"github.com/go-errors/errors"
)

// Datasource is the model registry: it binds registered models to their
// connectors and exposes the boot-time maintenance entry points (index
// synchronization and migrations).
type Datasource struct {
	connectors           map[string]Connector // Connectors registered in the datasource. Allows multiple connectors for different databases.
	repositories         map[string]any       // Repositories registered in the datasource.
	models               map[string]IModel    // Models registered in the datasource.
	schemas              map[string]*Schema   // Parsed schemas by model name.
	connectorByModelName map[string]Connector // Connectors by model name.
}

func (receiver *Datasource) AddConnector(connector Connector) error {
	if receiver == nil {
		return errors.New("datasource is nil")
	}

	if receiver.connectors == nil {
		receiver.connectors = make(map[string]Connector)
	}

	receiver.connectors[connector.GetName()] = connector
	return nil
}

func (receiver *Datasource) Destroy() {
	for _, connector := range receiver.connectors {
		if connector != nil {
			_ = connector.Disconnect()
		}
	}
}

func (receiver *Datasource) RegisterModel(model IModel) error {
	if receiver == nil {
		return errors.New("datasource is nil")
	}

	connectorName := model.GetConnectorName()
	modelName := model.GetModelName()
	connector, err := receiver.GetConnector(connectorName)
	if err != nil {
		return err
	}

	if receiver.models == nil {
		receiver.models = make(map[string]IModel)
	}

	if receiver.schemas == nil {
		receiver.schemas = make(map[string]*Schema)
	}

	if receiver.connectorByModelName == nil {
		receiver.connectorByModelName = make(map[string]Connector)
	}

	if receiver.connectorByModelName[modelName] != nil {
		return errors.Errorf("the model %s is already registered with connector %s", modelName, receiver.connectorByModelName[modelName].GetName())
	}

	receiver.models[modelName] = model
	receiver.schemas[modelName] = NewSchema(model)
	receiver.connectorByModelName[modelName] = connector
	return nil
}

func (receiver *Datasource) GetModelConnector(model IModel) (Connector, error) {
	if receiver == nil {
		return nil, errors.New("datasource is nil")
	}

	connector, ok := receiver.connectorByModelName[model.GetModelName()]
	if !ok {
		return nil, errors.Errorf("the model %s is not registered", model.GetModelName())
	}

	return connector, nil
}

func (receiver *Datasource) GetConnector(name string) (Connector, error) {
	if receiver == nil {
		return nil, errors.New("datasource is nil")
	}

	connector, ok := receiver.connectors[name]
	if !ok {
		return nil, errors.Errorf("the connector %s is not registered", name)
	}

	return connector, nil
}

func (receiver *Datasource) GetModel(modelName string) (IModel, error) {
	if receiver == nil {
		return nil, errors.New("datasource is nil")
	}

	if receiver.models == nil {
		return nil, errors.New("no models registered in the datasource")
	}

	model, ok := receiver.models[modelName]
	if !ok {
		return nil, errors.Errorf("the model %s is not registered", modelName)
	}

	return model, nil
}

// GetSchema returns the parsed schema of a registered model.
func (receiver *Datasource) GetSchema(modelName string) (*Schema, error) {
	if receiver == nil {
		return nil, errors.New("datasource is nil")
	}

	schema, ok := receiver.schemas[modelName]
	if !ok {
		return nil, errors.Errorf("the model %s is not registered", modelName)
	}

	return schema, nil
}

// sortedModelNames returns the registered model names in a stable order, so
// fail-fast boot sequences behave deterministically.
func (receiver *Datasource) sortedModelNames() []string {
	names := make([]string, 0, len(receiver.models))
	for name := range receiver.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

/**
 * SyncModels synchronizes every registered model with the backend: first the
 * declared indexes, then the declared migrations, per model. It should be
 * called once, early at boot time, after all models are registered. The first
 * failure aborts the sequence; a process should not begin serving traffic
 * with out-of-sync indexes or unapplied migrations.
 */
func (receiver *Datasource) SyncModels(ctx context.Context) error {
	if receiver == nil {
		return errors.New("datasource is nil")
	}

	for _, modelName := range receiver.sortedModelNames() {
		if err := receiver.SyncModel(ctx, receiver.models[modelName]); err != nil {
			return err
		}
	}

	return nil
}

/**
 * SyncModel synchronizes indexes and runs migrations for a single model.
 */
func (receiver *Datasource) SyncModel(ctx context.Context, model IModel) error {
	if receiver == nil {
		return errors.New("datasource is nil")
	}

	connector, err := receiver.GetModelConnector(model)
	if err != nil {
		return errors.Errorf("failed to get connector for model %s: %v", model.GetModelName(), err)
	}

	mongoConnector, ok := connector.(*MongoConnector)
	if !ok {
		// Non-MongoDB connectors have nothing to synchronize yet.
		return nil
	}

	if err := mongoConnector.GetIndexManager().Sync(ctx, model); err != nil {
		return errors.Errorf("failed to sync indexes for model %s: %v", model.GetModelName(), err)
	}

	if err := mongoConnector.GetMigrationExecutor().Run(ctx, model); err != nil {
		return errors.Errorf("failed to run migrations for model %s: %v", model.GetModelName(), err)
	}

	return nil
}

/**
 * MigrateModels runs the declared migrations of every registered model
 * without touching indexes. Useful when index synchronization is handled
 * out-of-band.
 */
func (receiver *Datasource) MigrateModels(ctx context.Context) error {
	if receiver == nil {
		return errors.New("datasource is nil")
	}

	for _, modelName := range receiver.sortedModelNames() {
		model := receiver.models[modelName]
		connector, err := receiver.GetModelConnector(model)
		if err != nil {
			return errors.Errorf("failed to get connector for model %s: %v", modelName, err)
		}

		if mongoConnector, ok := connector.(*MongoConnector); ok {
			if err := mongoConnector.GetMigrationExecutor().Run(ctx, model); err != nil {
				return errors.Errorf("failed to run migrations for model %s: %v", modelName, err)
			}
		}
	}

	return nil
}

func RegisterDatasourceRepository[T IModel](ds *Datasource, model T, repository Repository[T]) error {
	if ds == nil || repository == nil {
		return errors.New("datasource or repository cannot be nil")
	}

	modelName := model.GetModelName()

	if ds.repositories == nil {
		ds.repositories = make(map[string]any)
	}

	repositoryConnector := repository.GetConnector()
	if repositoryConnector == nil {
		return errors.Errorf("repository for model %s does not have a connector", modelName)
	}

	connectorExists := false
	for _, existingConnector := range ds.connectors {
		if existingConnector == repositoryConnector {
			connectorExists = true
			break
		}
	}
	if !connectorExists {
		return errors.Errorf("the connector %s for model %s is not registered in the datasource", repositoryConnector.GetName(), modelName)
	}

	for registeredName, existingRepository := range ds.repositories {
		if existingRepository == repository {
			return errors.Errorf("the repository is already registered for model %s, current model name is %s", modelName, registeredName)
		}
	}

	ds.repositories[modelName] = repository

	return nil
}

func GetDatasourceModelRepository[T IModel](datasource *Datasource, model T) (Repository[T], error) {
	if datasource == nil {
		return nil, errors.New("datasource is nil")
	}

	repository, ok := datasource.repositories[model.GetModelName()]
	if !ok {
		return nil, errors.Errorf("the model %s is not registered", model.GetModelName())
	}

	if repo, ok := repository.(Repository[T]); ok {
		return repo, nil
	}

	return nil, errors.Errorf("the repository for model %s is not of the expected type", model.GetModelName())
}
