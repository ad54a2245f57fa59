package odm

import (
	"context"
	"errors"

	"github.com/xompass/vsaas-odm/odmerrors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// defaultIndexName is the name of the index MongoDB creates on _id for every
// collection. It is never part of a reconciliation plan.
const defaultIndexName = "_id_"

const namespaceNotFoundCode = 26

// catalogBookkeepingFields are server-maintained fields reported by
// listIndexes that a caller never declares. They are stripped from the option
// set before comparison so they cannot cause spurious diffs.
var catalogBookkeepingFields = map[string]bool{
	"v":          true,
	"ns":         true,
	"key":        true,
	"background": true,
}

// readIndexCatalog fetches the current index catalog of a collection, keyed
// by the canonical name of each index's key specification. A collection that
// does not exist yet is reported as an empty catalog, not an error.
func readIndexCatalog(ctx context.Context, collection *mongo.Collection) (map[string]IndexDefinition, error) {
	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		if isNamespaceNotFound(err) {
			return map[string]IndexDefinition{}, nil
		}
		return nil, odmerrors.CatalogUnavailable("failed to list indexes for "+collection.Name()+": "+err.Error(), err)
	}
	defer cursor.Close(ctx)

	var documents []bson.D
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, odmerrors.CatalogUnavailable("failed to read index catalog for "+collection.Name()+": "+err.Error(), err)
	}

	return catalogFromDocuments(documents)
}

// catalogFromDocuments parses raw listIndexes documents into a catalog map.
// The server contract requires every entry to carry a "key" sub-document and
// a "name"; a violation is a hard failure rather than a silent skip, so real
// schema drift is never masked.
func catalogFromDocuments(documents []bson.D) (map[string]IndexDefinition, error) {
	catalog := make(map[string]IndexDefinition, len(documents))
	for _, document := range documents {
		entry, name, err := parseCatalogEntry(document)
		if err != nil {
			return nil, err
		}
		if name == defaultIndexName {
			continue
		}
		catalog[CanonicalIndexName(entry.Keys)] = entry
	}
	return catalog, nil
}

// parseCatalogEntry extracts the key specification and option set of one
// listIndexes document. The reported name stays in the option set so it takes
// part in equality comparison against declared names.
func parseCatalogEntry(document bson.D) (IndexDefinition, string, error) {
	var keys bson.D
	name := ""
	options := bson.M{}

	for _, element := range document {
		if element.Key == "key" {
			parsed, ok := element.Value.(bson.D)
			if !ok {
				return IndexDefinition{}, "", odmerrors.MalformedCatalogEntry("index entry has a non-document 'key' field", document)
			}
			keys = parsed
			continue
		}

		if element.Key == "name" {
			parsed, ok := element.Value.(string)
			if !ok {
				return IndexDefinition{}, "", odmerrors.MalformedCatalogEntry("index entry has a non-string 'name' field", document)
			}
			name = parsed
		}

		if catalogBookkeepingFields[element.Key] {
			continue
		}
		options[element.Key] = element.Value
	}

	if keys == nil {
		return IndexDefinition{}, "", odmerrors.MalformedCatalogEntry("index entry is missing the 'key' field", document)
	}
	if name == "" {
		return IndexDefinition{}, "", odmerrors.MalformedCatalogEntry("index entry is missing the 'name' field", document)
	}

	return IndexDefinition{Keys: keys, Options: options}, name, nil
}

// isNamespaceNotFound reports whether err is the server's definite "namespace
// does not exist" error, the expected state for a brand-new collection.
func isNamespaceNotFound(err error) bool {
	var commandErr mongo.CommandError
	if errors.As(err, &commandErr) {
		return commandErr.Code == namespaceNotFoundCode || commandErr.Name == "NamespaceNotFound"
	}
	return false
}
