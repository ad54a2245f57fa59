package odm

import (
	"context"
	"sort"

	"github.com/xompass/vsaas-odm/odmerrors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// applyIndexPlan executes a reconciliation plan against a collection. Drops
// run first so a replaced index never collides with its own old name, then
// all creations go out as a single createIndexes command. The first failure
// is surfaced; there is no partial-success suppression and no atomicity
// between the two phases. A failure in between leaves the collection without
// that index until the next reconciliation pass.
func applyIndexPlan(ctx context.Context, db *mongo.Database, collectionName string, plan IndexPlan) error {
	for _, name := range plan.DropNames() {
		command := bson.D{
			{Key: "dropIndexes", Value: collectionName},
			{Key: "index", Value: name},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			return odmerrors.IndexOperationFailed("failed to drop index '"+name+"' on "+collectionName+": "+err.Error(), err)
		}
	}

	if len(plan.ToCreate) == 0 {
		return nil
	}

	documents := make([]bson.D, 0, len(plan.ToCreate))
	for _, name := range plan.CreateNames() {
		documents = append(documents, createIndexDocument(plan.ToCreate[name]))
	}

	command := bson.D{
		{Key: "createIndexes", Value: collectionName},
		{Key: "indexes", Value: documents},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		names := plan.CreateNames()
		return odmerrors.IndexOperationFailed("failed to create indexes on "+collectionName+": "+err.Error(), names)
	}

	return nil
}

// createIndexDocument renders one index for the createIndexes wire command:
// the key specification plus the declared options merged at the top level.
// Options are emitted in sorted order so the command document is
// deterministic.
func createIndexDocument(definition IndexDefinition) bson.D {
	document := bson.D{{Key: "key", Value: definition.Keys}}

	optionNames := make([]string, 0, len(definition.Options))
	for name := range definition.Options {
		optionNames = append(optionNames, name)
	}
	sort.Strings(optionNames)

	for _, name := range optionNames {
		document = append(document, bson.E{Key: name, Value: definition.Options[name]})
	}
	return document
}
