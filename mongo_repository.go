package odm

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/xompass/vsaas-odm/odmerrors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mapMongoError maps MongoDB driver errors to coded odmerrors
func mapMongoError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return odmerrors.NewError(odmerrors.MONGO_NO_DOCUMENTS_FOUND, "document not found")
	}

	// Handle MongoDB write errors (duplicates, validation, etc.)
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, writeError := range writeErr.WriteErrors {
			switch writeError.Code {
			case 11000, 11001: // Duplicate key errors
				return odmerrors.NewError(odmerrors.MONGO_DUPLICATE_KEY, "duplicate key error: "+writeError.Message)
			case 121: // Document validation failure
				return odmerrors.NewError(odmerrors.MONGO_VALIDATION_ERROR, "validation error: "+writeError.Message)
			default:
				return odmerrors.NewError(odmerrors.MONGO_OPERATION_FAILED, "write operation failed: "+writeError.Message)
			}
		}
	}

	var bulkWriteErr mongo.BulkWriteException
	if errors.As(err, &bulkWriteErr) {
		return odmerrors.NewError(odmerrors.MONGO_OPERATION_FAILED, "bulk write operation failed: "+err.Error())
	}

	var commandErr mongo.CommandError
	if errors.As(err, &commandErr) {
		switch commandErr.Code {
		case 11000, 11001: // Duplicate key
			return odmerrors.NewError(odmerrors.MONGO_DUPLICATE_KEY, "duplicate key error: "+commandErr.Message)
		case 121: // Document validation failure
			return odmerrors.NewError(odmerrors.MONGO_VALIDATION_ERROR, "validation error: "+commandErr.Message)
		default:
			return odmerrors.NewError(odmerrors.MONGO_OPERATION_FAILED, "command failed: "+commandErr.Message)
		}
	}

	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return odmerrors.NewError(odmerrors.MONGO_CONNECTION_ERROR, "database connection error")
	}

	return odmerrors.NewError(odmerrors.MONGO_OPERATION_FAILED, "database operation failed: "+err.Error())
}

// normalizeId converts caller-supplied IDs into their BSON form: a 24-char
// hex string becomes an ObjectID, everything else passes through.
func normalizeId(id any) (any, error) {
	if id == nil {
		return nil, odmerrors.NewError(odmerrors.MONGO_ID_CANNOT_BE_NIL, "id cannot be nil")
	}

	if text, ok := id.(string); ok {
		if objectID, err := bson.ObjectIDFromHex(text); err == nil {
			return objectID, nil
		}
	}
	return id, nil
}

var modelValidator = validator.New(validator.WithRequiredStructEnabled())

type RepositoryOptions struct {
	// Validate runs the model's `validate` struct tags before Insert/Save.
	Validate bool
}

type MongoRepository[T IModel] struct {
	Options    RepositoryOptions
	collection *mongo.Collection
	schema     *Schema
	connector  *MongoConnector
	datasource *Datasource
}

func NewMongoRepository[T IModel](ds *Datasource, options RepositoryOptions) (Repository[T], error) {
	var instance T
	collectionName := instance.GetTableName()

	err := ds.RegisterModel(instance)
	if err != nil {
		return nil, err
	}

	schema, err := ds.GetSchema(instance.GetModelName())
	if err != nil {
		return nil, err
	}

	tmp, err := ds.GetModelConnector(instance)
	if err != nil {
		return nil, err
	}

	connector, ok := tmp.(*MongoConnector)
	if !ok {
		return nil, odmerrors.NewError(odmerrors.MONGO_CLIENT_NOT_INITIALIZED, "the connector for model "+instance.GetModelName()+" is not a MongoConnector")
	}

	if connector.GetDatabaseName() == "" {
		return nil, odmerrors.NewError(odmerrors.MONGO_DATABASE_NAME_REQUIRED, "database name is required")
	}

	repository := &MongoRepository[T]{
		Options:    options,
		collection: connector.Collection(collectionName),
		schema:     schema,
		connector:  connector,
		datasource: ds,
	}

	if err := RegisterDatasourceRepository(ds, instance, repository); err != nil {
		return nil, err
	}

	return repository, nil
}

func (repository *MongoRepository[T]) GetCollection() *mongo.Collection {
	return repository.collection
}

func (repository *MongoRepository[T]) GetSchema() *Schema {
	return repository.schema
}

func (repository *MongoRepository[T]) GetConnector() Connector {
	return repository.connector
}

func (repository *MongoRepository[T]) Find(ctx context.Context, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]T, error) {
	if filter == nil {
		filter = bson.D{}
	}

	cursor, err := repository.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, mapMongoError(err)
	}

	var receiver []T
	if err = cursor.All(ctx, &receiver); err != nil {
		return nil, mapMongoError(err)
	}

	if receiver == nil {
		return []T{}, nil
	}
	return receiver, nil
}

func (repository *MongoRepository[T]) FindOne(ctx context.Context, filter bson.D) (*T, error) {
	if filter == nil {
		filter = bson.D{}
	}

	receiver := new(T)
	result := repository.collection.FindOne(ctx, filter)

	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mapMongoError(result.Err())
	}

	if err := result.Decode(receiver); err != nil {
		return nil, mapMongoError(err)
	}

	return receiver, nil
}

func (repository *MongoRepository[T]) FindById(ctx context.Context, id any) (*T, error) {
	normalized, err := normalizeId(id)
	if err != nil {
		return nil, err
	}

	return repository.FindOne(ctx, bson.D{{Key: "_id", Value: normalized}})
}

func (repository *MongoRepository[T]) Insert(ctx context.Context, doc T) (any, error) {
	hook, ok := any(doc).(BeforeCreateHook)
	if !ok {
		hook, ok = any(&doc).(BeforeCreateHook)
	}
	if ok {
		if err := hook.BeforeCreate(); err != nil {
			return nil, err
		}
	}

	if err := repository.validate(doc); err != nil {
		return nil, err
	}

	insertedResult, err := repository.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, mapMongoError(err)
	}

	return insertedResult.InsertedID, nil
}

func (repository *MongoRepository[T]) Create(ctx context.Context, doc T) (*T, error) {
	insertedID, err := repository.Insert(ctx, doc)
	if err != nil {
		return nil, err
	}

	return repository.FindById(ctx, insertedID)
}

func (repository *MongoRepository[T]) Save(ctx context.Context, doc T) (*T, error) {
	if doc.GetId() == nil {
		return repository.Create(ctx, doc)
	}

	hook, ok := any(doc).(BeforeUpdateHook)
	if !ok {
		hook, ok = any(&doc).(BeforeUpdateHook)
	}
	if ok {
		if err := hook.BeforeUpdate(); err != nil {
			return nil, err
		}
	}

	if err := repository.validate(doc); err != nil {
		return nil, err
	}

	replaceOpts := options.FindOneAndReplace().
		SetUpsert(true).
		SetReturnDocument(options.After)

	receiver := new(T)
	result := repository.collection.FindOneAndReplace(ctx, bson.D{{Key: "_id", Value: doc.GetId()}}, doc, replaceOpts)
	if result.Err() != nil {
		return nil, mapMongoError(result.Err())
	}

	if err := result.Decode(receiver); err != nil {
		return nil, mapMongoError(err)
	}

	return receiver, nil
}

func (repository *MongoRepository[T]) UpdateById(ctx context.Context, id any, update any) error {
	normalized, err := normalizeId(id)
	if err != nil {
		return err
	}

	if update == nil {
		return odmerrors.NewError(odmerrors.MONGO_UPDATE_CANNOT_BE_NIL, "update cannot be nil")
	}

	result, err := repository.collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: normalized}}, update)
	if err != nil {
		return mapMongoError(err)
	}
	if result.MatchedCount == 0 {
		return odmerrors.NewError(odmerrors.MONGO_NO_DOCUMENTS_FOUND, "document not found")
	}

	return nil
}

func (repository *MongoRepository[T]) UpdateMany(ctx context.Context, filter bson.D, update any) (int64, error) {
	if update == nil {
		return 0, odmerrors.NewError(odmerrors.MONGO_UPDATE_CANNOT_BE_NIL, "update cannot be nil")
	}

	if filter == nil {
		filter = bson.D{}
	}

	result, err := repository.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, mapMongoError(err)
	}

	return result.ModifiedCount, nil
}

func (repository *MongoRepository[T]) Count(ctx context.Context, filter bson.D) (int64, error) {
	if filter == nil {
		filter = bson.D{}
	}

	count, err := repository.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, mapMongoError(err)
	}
	return count, nil
}

func (repository *MongoRepository[T]) Exists(ctx context.Context, id any) (bool, error) {
	normalized, err := normalizeId(id)
	if err != nil {
		return false, err
	}

	count, err := repository.Count(ctx, bson.D{{Key: "_id", Value: normalized}})
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (repository *MongoRepository[T]) DeleteById(ctx context.Context, id any) error {
	normalized, err := normalizeId(id)
	if err != nil {
		return err
	}

	result, err := repository.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: normalized}})
	if err != nil {
		return mapMongoError(err)
	}
	if result.DeletedCount == 0 {
		return odmerrors.NewError(odmerrors.MONGO_NO_DOCUMENTS_FOUND, "document not found")
	}

	return nil
}

func (repository *MongoRepository[T]) DeleteMany(ctx context.Context, filter bson.D) (int64, error) {
	if filter == nil {
		filter = bson.D{}
	}

	result, err := repository.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, mapMongoError(err)
	}

	return result.DeletedCount, nil
}

func (repository *MongoRepository[T]) validate(doc T) error {
	if !repository.Options.Validate {
		return nil
	}

	if err := modelValidator.Struct(doc); err != nil {
		return odmerrors.NewError(odmerrors.MODEL_VALIDATION_FAILED, "model validation failed: "+err.Error(), err)
	}
	return nil
}
