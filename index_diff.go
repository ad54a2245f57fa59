package odm

import (
	"reflect"
	"sort"

	"github.com/xompass/vsaas-odm/odmerrors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// IndexPlan is the transient result of diffing declared indexes against the
// current catalog. It is recomputed on every sync and never persisted.
// A changed index appears in both sets: the wire protocol has no alter
// operation, so replace-in-place is drop-then-create.
type IndexPlan struct {
	ToCreate map[string]IndexDefinition // index name -> definition to create
	ToDrop   map[string]bool            // index names to drop
}

// Empty reports whether the plan requires no server operations.
func (plan IndexPlan) Empty() bool {
	return len(plan.ToCreate) == 0 && len(plan.ToDrop) == 0
}

// CreateNames returns the names of the indexes to create, sorted.
func (plan IndexPlan) CreateNames() []string {
	names := make([]string, 0, len(plan.ToCreate))
	for name := range plan.ToCreate {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DropNames returns the names of the indexes to drop, sorted.
func (plan IndexPlan) DropNames() []string {
	names := make([]string, 0, len(plan.ToDrop))
	for name := range plan.ToDrop {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// declaredIndexMap keys the declared indexes by the canonical name of their
// keys, the same identity used for catalog entries. Declarations without an
// explicit name get the canonical name injected into their option set, so the
// later option comparison is name-aware.
func declaredIndexMap(declared []IndexDefinition) (map[string]IndexDefinition, error) {
	indexes := make(map[string]IndexDefinition, len(declared))
	for _, definition := range declared {
		if len(definition.Keys) == 0 {
			return nil, odmerrors.DeclaredIndexInvalid("a declared index must have at least one key")
		}

		canonical := CanonicalIndexName(definition.Keys)
		if _, exists := indexes[canonical]; exists {
			return nil, odmerrors.DeclaredIndexInvalid("duplicate index declaration for keys '" + canonical + "'")
		}

		options := definition.cloneOptions()
		if name, ok := options["name"].(string); !ok || name == "" {
			options["name"] = canonical
		}

		indexes[canonical] = IndexDefinition{Keys: definition.Keys, Options: options}
	}
	return indexes, nil
}

// diffIndexes computes the minimal create/drop plan that turns the current
// catalog into the declared index set. Both maps are keyed by canonical name.
//
// Comparison is one-directional on declared options: options the server
// reports but the caller never declared do not trigger a diff, so
// server-assigned fields never cause churn.
func diffIndexes(declared map[string]IndexDefinition, current map[string]IndexDefinition) IndexPlan {
	plan := IndexPlan{
		ToCreate: map[string]IndexDefinition{},
		ToDrop:   map[string]bool{},
	}

	// Indexes present on the server but no longer declared.
	for canonical, entry := range current {
		if _, ok := declared[canonical]; !ok {
			plan.ToDrop[serverIndexName(entry)] = true
		}
	}

	for canonical, definition := range declared {
		entry, ok := current[canonical]
		if !ok {
			plan.ToCreate[definition.Name()] = definition
			continue
		}

		if !declaredOptionsMatch(definition.Options, entry.Options) {
			plan.ToDrop[serverIndexName(entry)] = true
			plan.ToCreate[definition.Name()] = definition
		}
	}

	return plan
}

// serverIndexName returns the name the server reported for a catalog entry.
// Catalog parsing guarantees the option is present.
func serverIndexName(entry IndexDefinition) string {
	name, _ := entry.Options["name"].(string)
	return name
}

// declaredOptionsMatch reports whether every declared option is present on
// the current entry with a structurally equal value.
func declaredOptionsMatch(declared bson.M, current bson.M) bool {
	for option, declaredValue := range declared {
		currentValue, ok := current[option]
		if !ok {
			return false
		}
		if !optionValuesEqual(declaredValue, currentValue) {
			return false
		}
	}
	return true
}

// optionValuesEqual compares two option values structurally. Numeric values
// are normalized before comparison: the server reports int32/int64 where the
// caller usually declares plain ints, and treating those as different would
// break reconciliation idempotence. Sub-documents compare as unordered maps,
// since the server reports them as bson.D while callers declare bson.M.
func optionValuesEqual(a any, b any) bool {
	if aNum, ok := numericValue(a); ok {
		bNum, ok := numericValue(b)
		return ok && aNum == bNum
	}

	if aMap, ok := documentAsMap(a); ok {
		bMap, ok := documentAsMap(b)
		if !ok || len(aMap) != len(bMap) {
			return false
		}
		for key, aValue := range aMap {
			bValue, ok := bMap[key]
			if !ok || !optionValuesEqual(aValue, bValue) {
				return false
			}
		}
		return true
	}

	if aArray, ok := arrayValue(a); ok {
		bArray, ok := arrayValue(b)
		if !ok || len(aArray) != len(bArray) {
			return false
		}
		for i, aValue := range aArray {
			if !optionValuesEqual(aValue, bArray[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

// arrayValue normalizes either array representation to a plain slice.
func arrayValue(value any) ([]any, bool) {
	switch typed := value.(type) {
	case bson.A:
		return typed, true
	case []any:
		return typed, true
	}
	return nil, false
}

// documentAsMap converts either document representation to bson.M.
func documentAsMap(value any) (bson.M, bool) {
	switch typed := value.(type) {
	case bson.M:
		return typed, true
	case bson.D:
		document := make(bson.M, len(typed))
		for _, element := range typed {
			document[element.Key] = element.Value
		}
		return document, true
	case map[string]any:
		return bson.M(typed), true
	}
	return nil, false
}

// numericValue normalizes any numeric BSON value to float64.
func numericValue(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	}
	return 0, false
}
