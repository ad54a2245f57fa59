package odm

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type IModel interface {
	GetTableName() string
	GetModelName() string
	GetConnectorName() string
	GetId() any
}

// IndexedModel is implemented by models that declare indexes explicitly, in
// addition to any indexes derived from struct tags by the schema.
type IndexedModel interface {
	DeclaredIndexes() []IndexDefinition
}

// MigratedModel is implemented by models that carry schema migrations. The
// declarations are executed in order at boot time by the migration executor.
type MigratedModel interface {
	DeclaredMigrations() []Migration
}

type BeforeCreateHook interface {
	BeforeCreate() error
}

type BeforeUpdateHook interface {
	BeforeUpdate() error
}

type BeforeDeleteHook interface {
	BeforeDelete() error
}

// DateTime wraps time.Time with tolerant BSON decoding. Legacy documents
// sometimes carry dates stored as raw int64 milliseconds or int32 seconds
// instead of a proper BSON DateTime; all three decode transparently.
type DateTime struct {
	time.Time
}

var dateTimeJSONFormat = "2006-01-02T15:04:05.000Z"

func NewDateTime(t time.Time) DateTime {
	return DateTime{t}
}

func (date *DateTime) UnmarshalBSONValue(t bson.Type, data []byte) error {
	switch t {
	case bson.TypeDateTime, bson.TypeInt64:
		if len(data) < 8 {
			return fmt.Errorf("invalid %v data length", t)
		}

		// Read the 8 bytes as int64 milliseconds (little-endian)
		milliseconds := int64(data[0]) | int64(data[1])<<8 | int64(data[2])<<16 | int64(data[3])<<24 |
			int64(data[4])<<32 | int64(data[5])<<40 | int64(data[6])<<48 | int64(data[7])<<56

		*date = DateTime{time.Unix(0, milliseconds*int64(time.Millisecond))}
		return nil

	case bson.TypeInt32:
		if len(data) < 4 {
			return fmt.Errorf("invalid Int32 data length")
		}

		// Seconds since epoch, little-endian
		seconds := int32(data[0]) | int32(data[1])<<8 | int32(data[2])<<16 | int32(data[3])<<24

		*date = DateTime{time.Unix(int64(seconds), 0)}
		return nil

	default:
		return fmt.Errorf("cannot unmarshal %v into DateTime", t)
	}
}

func (date DateTime) MarshalBSONValue() (bson.Type, []byte, error) {
	milliseconds := date.Time.UnixNano() / int64(time.Millisecond)

	data := make([]byte, 8)
	data[0] = byte(milliseconds)
	data[1] = byte(milliseconds >> 8)
	data[2] = byte(milliseconds >> 16)
	data[3] = byte(milliseconds >> 24)
	data[4] = byte(milliseconds >> 32)
	data[5] = byte(milliseconds >> 40)
	data[6] = byte(milliseconds >> 48)
	data[7] = byte(milliseconds >> 56)

	return bson.TypeDateTime, data, nil
}

func (date DateTime) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(date.Time.UTC().Format(dateTimeJSONFormat))
}
