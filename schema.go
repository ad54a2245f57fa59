package odm

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/labstack/gommon/log"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// FieldIndexTags is the parsed `odm` struct tag of one field. It declares a
// single-field index on the field's bson path.
//
//	ID      bson.ObjectID `bson:"_id,omitempty"`
//	Email   string        `bson:"email" odm:"index,unique"`
//	Region  string        `bson:"region" odm:"index,desc,sparse"`
//	Bio     string        `bson:"bio" odm:"index=text"`
//	Token   string        `bson:"token" odm:"index,ttl=3600"`
type FieldIndexTags struct {
	Declared bool
	Unique   bool
	Sparse   bool
	Desc     bool
	Kind     string // "", or a special index type: text, hashed, 2dsphere, 2d
	TTL      *int32
	Name     string
}

type Field struct {
	FieldName   string
	BsonName    string
	JsonName    string
	DataType    string
	IsPointer   bool
	StructField reflect.StructField
	IndexTags   FieldIndexTags
}

// Schema is the reflected shape of a model: its fields by bson path and the
// index declarations derived from struct tags. It is pure data; the index
// manager consumes its output during reconciliation.
type Schema struct {
	Model          IModel
	Name           string
	CollectionName string
	Fields         map[string]*Field

	fieldOrder []string
}

func NewSchema(model IModel) *Schema {
	schema := Schema{
		Model:          model,
		Name:           model.GetModelName(),
		CollectionName: model.GetTableName(),
		Fields:         map[string]*Field{},
	}

	// Walk the type, not the value: repositories register typed-nil
	// instances, whose Value has no Elem to descend into.
	modelType := reflect.TypeOf(model)
	for modelType != nil && modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}
	if modelType != nil && modelType.Kind() == reflect.Struct {
		schema.initFields(modelType, "")
	}
	return &schema
}

func (s *Schema) initFields(structType reflect.Type, bsonPrefix string) {
	for i := range structType.NumField() {
		if err := s.initField(structType.Field(i), bsonPrefix); err != nil {
			log.Warnf("schema %s: %v", s.Name, err)
		}
	}
}

func (s *Schema) initField(structField reflect.StructField, bsonPrefix string) error {
	if !structField.IsExported() {
		return nil
	}

	bsonName, inline, skip := parseBsonTag(structField)
	if skip {
		return nil
	}

	fieldType := structField.Type
	isPointer := fieldType.Kind() == reflect.Pointer
	if isPointer {
		fieldType = fieldType.Elem()
	}

	// Inline and anonymous structs contribute their fields at the parent
	// level; named sub-documents get a dotted path prefix.
	if fieldType.Kind() == reflect.Struct && fieldType != reflect.TypeOf(time.Time{}) && fieldType != reflect.TypeOf(DateTime{}) {
		if inline || structField.Anonymous {
			s.initFields(fieldType, bsonPrefix)
			return nil
		}
		s.initFields(fieldType, bsonPrefix+bsonName+".")
	}

	indexTags, err := parseIndexTags(structField)
	if err != nil {
		return err
	}

	bsonPath := bsonPrefix + bsonName
	field := &Field{
		FieldName:   structField.Name,
		BsonName:    bsonPath,
		JsonName:    parseJsonName(structField),
		DataType:    fieldType.String(),
		IsPointer:   isPointer,
		StructField: structField,
		IndexTags:   indexTags,
	}

	s.Fields[bsonPath] = field
	s.fieldOrder = append(s.fieldOrder, bsonPath)
	return nil
}

// DeclaredIndexes derives the index declarations from the schema's field
// tags, in field declaration order.
func (s *Schema) DeclaredIndexes() []IndexDefinition {
	var indexes []IndexDefinition
	for _, bsonPath := range s.fieldOrder {
		field := s.Fields[bsonPath]
		if !field.IndexTags.Declared {
			continue
		}
		indexes = append(indexes, fieldIndex(bsonPath, field.IndexTags))
	}
	return indexes
}

func fieldIndex(bsonPath string, tags FieldIndexTags) IndexDefinition {
	var key any = 1
	if tags.Desc {
		key = -1
	}
	if tags.Kind != "" {
		key = tags.Kind
	}

	idx := NewIndex(bson.D{{Key: bsonPath, Value: key}})
	if tags.Unique {
		idx.Options["unique"] = true
	}
	if tags.Sparse {
		idx.Options["sparse"] = true
	}
	if tags.TTL != nil {
		idx.Options["expireAfterSeconds"] = *tags.TTL
	}
	if tags.Name != "" {
		idx.Options["name"] = tags.Name
	}
	return idx
}

func parseBsonTag(structField reflect.StructField) (name string, inline bool, skip bool) {
	tag, ok := structField.Tag.Lookup("bson")
	if !ok || tag == "" {
		return strings.ToLower(structField.Name), false, false
	}

	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "-" {
		return "", false, true
	}
	if name == "" {
		name = strings.ToLower(structField.Name)
	}

	for _, option := range parts[1:] {
		if option == "inline" {
			inline = true
		}
	}
	return name, inline, false
}

func parseJsonName(structField reflect.StructField) string {
	tag := structField.Tag.Get("json")
	name := strings.Split(tag, ",")[0]
	if name == "" || name == "-" {
		return structField.Name
	}
	return name
}

func parseIndexTags(structField reflect.StructField) (FieldIndexTags, error) {
	tags := FieldIndexTags{}

	tag, ok := structField.Tag.Lookup("odm")
	if !ok || tag == "" || tag == "-" {
		return tags, nil
	}

	for _, part := range strings.Split(tag, ",") {
		key, value, _ := strings.Cut(part, "=")
		switch key {
		case "index":
			tags.Declared = true
			if value != "" {
				tags.Kind = value
			}
		case "unique":
			tags.Unique = true
		case "sparse":
			tags.Sparse = true
		case "desc":
			tags.Desc = true
		case "name":
			tags.Name = value
		case "ttl":
			seconds, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return FieldIndexTags{}, errors.Errorf("field %s has an invalid ttl tag %q", structField.Name, value)
			}
			ttl := int32(seconds)
			tags.TTL = &ttl
		default:
			return FieldIndexTags{}, errors.Errorf("field %s has an unknown odm tag option %q", structField.Name, part)
		}
	}

	if !tags.Declared && (tags.Unique || tags.Sparse || tags.Desc || tags.TTL != nil || tags.Name != "") {
		return FieldIndexTags{}, errors.Errorf("field %s declares index options without 'index'", structField.Name)
	}

	return tags, nil
}
