package odm

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/labstack/gommon/log"
)

// MongoIndexManager reconciles the indexes declared on a model with the ones
// present on its collection. Sync is the single entry point: it reads the
// catalog, computes the plan and applies it, with no retries of its own.
// Callers that need retry-on-boot semantics wrap it.
type MongoIndexManager struct {
	connector *MongoConnector
}

// NewMongoIndexManager creates a new MongoDB index manager
func NewMongoIndexManager(connector *MongoConnector) *MongoIndexManager {
	return &MongoIndexManager{
		connector: connector,
	}
}

// Sync synchronizes the model's declared indexes with the collection.
// Indexes present on the collection but not declared are dropped; declared
// indexes missing from the collection are created; an index whose declared
// options no longer match is replaced (drop then create). Two concurrent
// calls may race; both are idempotent and self-correct on the next pass.
func (m *MongoIndexManager) Sync(ctx context.Context, model IModel) error {
	declared := modelIndexes(model)
	plan, err := m.Plan(ctx, model)
	if err != nil {
		return err
	}

	if plan.Empty() {
		log.Debugf("indexes for '%s' are in sync (%d declared)", model.GetModelName(), len(declared))
		return nil
	}

	if summary, err := sonic.MarshalString(map[string]any{
		"create": plan.CreateNames(),
		"drop":   plan.DropNames(),
	}); err == nil {
		log.Infof("synchronizing indexes for '%s': %s", model.GetModelName(), summary)
	}

	return applyIndexPlan(ctx, m.connector.Database(), model.GetTableName(), plan)
}

// Plan computes the reconciliation plan for a model without applying it.
// Useful for dry runs and boot-time diagnostics.
func (m *MongoIndexManager) Plan(ctx context.Context, model IModel) (IndexPlan, error) {
	declared, err := declaredIndexMap(modelIndexes(model))
	if err != nil {
		return IndexPlan{}, err
	}

	collection := m.connector.Collection(model.GetTableName())
	current, err := readIndexCatalog(ctx, collection)
	if err != nil {
		return IndexPlan{}, err
	}

	return diffIndexes(declared, current), nil
}

// ListIndexNames returns the names of the indexes currently present on the
// model's collection, excluding the default _id index.
func (m *MongoIndexManager) ListIndexNames(ctx context.Context, model IModel) ([]string, error) {
	collection := m.connector.Collection(model.GetTableName())
	catalog, err := readIndexCatalog(ctx, collection)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(catalog))
	for _, entry := range catalog {
		names = append(names, serverIndexName(entry))
	}
	return names, nil
}

// modelIndexes collects the model's declared index set: schema-tag indexes
// first, then any explicit declarations from IndexedModel.
func modelIndexes(model IModel) []IndexDefinition {
	indexes := NewSchema(model).DeclaredIndexes()
	if indexed, ok := model.(IndexedModel); ok {
		indexes = append(indexes, indexed.DeclaredIndexes()...)
	}
	return indexes
}
