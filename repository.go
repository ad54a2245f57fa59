package odm

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type Repository[T IModel] interface {
	// GetSchema returns the schema of the model used by this repository.
	GetSchema() *Schema

	// GetCollection returns the underlying MongoDB collection handle, for
	// operations the repository methods do not cover.
	GetCollection() *mongo.Collection

	// GetConnector returns the connector used by this repository.
	// It is typically used for advanced operations that are not covered by
	// the repository methods.
	GetConnector() Connector

	// Find retrieves all documents matching the filter.
	// If no documents match, it returns an empty slice.
	Find(ctx context.Context, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]T, error)

	// FindOne retrieves a single document matching the filter.
	// If no documents match, it returns nil without error.
	FindOne(ctx context.Context, filter bson.D) (*T, error)

	// FindById retrieves a single document by its ID.
	FindById(ctx context.Context, id any) (*T, error)

	// Insert inserts a new document into the collection.
	// It returns the inserted document's ID or an error if the operation fails.
	Insert(ctx context.Context, doc T) (any, error)

	// Create inserts a new document into the collection and returns the created document.
	Create(ctx context.Context, doc T) (*T, error)

	// Save persists the document: documents without an ID are inserted,
	// documents with an ID replace the stored document, upserting if it no
	// longer exists. Returns the stored document.
	Save(ctx context.Context, doc T) (*T, error)

	// UpdateById updates a single document by its ID.
	UpdateById(ctx context.Context, id any, update any) error

	// UpdateMany updates all documents matching the filter and returns the
	// modified count.
	UpdateMany(ctx context.Context, filter bson.D, update any) (int64, error)

	// Count returns the number of documents matching the filter.
	Count(ctx context.Context, filter bson.D) (int64, error)

	// Exists checks if a document with the given ID exists in the collection.
	Exists(ctx context.Context, id any) (bool, error)

	// DeleteById deletes a single document by its ID.
	DeleteById(ctx context.Context, id any) error

	// DeleteMany deletes all documents matching the filter.
	DeleteMany(ctx context.Context, filter bson.D) (int64, error)
}
