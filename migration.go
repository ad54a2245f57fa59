package odm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/simplereach/timeutils"
	"github.com/xompass/vsaas-odm/odmerrors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Migration is one schema migration declared on a model. Implementations
// must be idempotent: the executor keeps no ledger of applied migrations, so
// the same migration runs again on every boot until it expires or its filter
// stops matching.
type Migration interface {
	MigrationName() string
	Execute(ctx context.Context, collection *mongo.Collection) error
}

// IntervalMigration is a time-windowed, filter + set/unset document update.
//
// Every instance of a deployed service re-executes it at boot until the
// threshold date passes, which lets writes from not-yet-upgraded instances be
// caught by whichever instance boots next. After the threshold the migration
// is permanently inert, so thresholds should be chosen generously. Safety
// relies on the filter excluding documents that already carry the effect;
// that is the caller's responsibility.
type IntervalMigration struct {
	// Name identifies the migration in logs and errors. Unique per collection.
	Name string

	// Threshold is the instant after which the migration no longer executes.
	Threshold time.Time

	// Filter selects the documents to update.
	Filter bson.D

	// Set is the $set document of the update. Optional.
	Set bson.M

	// Unset is the $unset document of the update. Optional.
	Unset bson.M
}

func (m *IntervalMigration) MigrationName() string {
	return m.Name
}

// Execute runs the migration against the collection. Past the threshold it
// is a no-op success and issues no write at all. The update runs as a single
// updateMany so the reported matched/modified counts are trustworthy under
// the collection's majority write concern.
func (m *IntervalMigration) Execute(ctx context.Context, collection *mongo.Collection) error {
	if time.Now().After(m.Threshold) {
		log.Infof("migration '%s' is past its threshold (%s), skipping", m.Name, m.Threshold.Format(time.RFC3339))
		return nil
	}

	update, err := m.updateDocument()
	if err != nil {
		return err
	}

	filter := m.Filter
	if filter == nil {
		filter = bson.D{}
	}

	result, err := collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return odmerrors.MigrationWriteFailed("migration '"+m.Name+"' failed: "+err.Error(), err)
	}

	log.Infof("migration '%s': %d matched, %d modified", m.Name, result.MatchedCount, result.ModifiedCount)
	return nil
}

// updateDocument builds the {$set, $unset} update, including only the
// operators actually declared. A migration with neither is a declaration
// error, detected here rather than at construction time so already-expired
// migrations in the same list are unaffected.
func (m *IntervalMigration) updateDocument() (bson.D, error) {
	if m.Set == nil && m.Unset == nil {
		return nil, odmerrors.MigrationDeclarationInvalid("migration '" + m.Name + "' declares neither $set nor $unset")
	}

	update := bson.D{}
	if m.Set != nil {
		update = append(update, bson.E{Key: "$set", Value: m.Set})
	}
	if m.Unset != nil {
		update = append(update, bson.E{Key: "$unset", Value: m.Unset})
	}
	return update, nil
}

// ParseThreshold parses a human-readable date string into a migration
// threshold. RFC3339 is parsed directly; other inputs fall through to the
// fuzzy formats timeutils understands (common date layouts, unix timestamps).
// timeutils mangles the year of strict RFC3339 strings, so it is only the
// fallback.
func ParseThreshold(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return timeutils.ParseDateString(value)
}

// MustParseThreshold is ParseThreshold for static migration declarations;
// panics on a malformed date.
func MustParseThreshold(value string) time.Time {
	t, err := ParseThreshold(value)
	if err != nil {
		panic("invalid migration threshold '" + value + "': " + err.Error())
	}
	return t
}

// MigrationExecutor runs the migrations declared on a model, in declaration
// order, against the model's collection.
type MigrationExecutor struct {
	connector *MongoConnector
}

func NewMigrationExecutor(connector *MongoConnector) *MigrationExecutor {
	return &MigrationExecutor{connector: connector}
}

// Run executes the model's declared migrations. A failure aborts the
// remaining list; earlier migrations are not rolled back, which is safe to
// retry because each migration is independently idempotent by convention.
func (e *MigrationExecutor) Run(ctx context.Context, model IModel) error {
	migrated, ok := model.(MigratedModel)
	if !ok {
		return nil
	}

	migrations := migrated.DeclaredMigrations()
	if len(migrations) == 0 {
		return nil
	}

	collection := e.connector.MigrationCollection(model.GetTableName())
	return runMigrations(ctx, collection, model.GetModelName(), migrations)
}

// runMigrations applies the migrations in order, fail-fast.
func runMigrations(ctx context.Context, collection *mongo.Collection, modelName string, migrations []Migration) error {
	runID := uuid.NewString()
	log.Infof("starting %d migration(s) for '%s' (run %s)", len(migrations), modelName, runID)

	for _, migration := range migrations {
		if err := migration.Execute(ctx, collection); err != nil {
			log.Errorf("migration '%s' for '%s' failed (run %s): %v", migration.MigrationName(), modelName, runID, err)
			return err
		}
	}

	log.Infof("finished migrations for '%s' (run %s)", modelName, runID)
	return nil
}
