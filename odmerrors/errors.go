package odmerrors

import "errors"

// Error codes for index reconciliation
const (
	CATALOG_UNAVAILABLE     = "CATALOG_UNAVAILABLE"
	MALFORMED_CATALOG_ENTRY = "MALFORMED_CATALOG_ENTRY"
	INDEX_OPERATION_FAILED  = "INDEX_OPERATION_FAILED"
	DECLARED_INDEX_INVALID  = "DECLARED_INDEX_INVALID"
)

// Error codes for migrations
const (
	MIGRATION_DECLARATION_INVALID = "MIGRATION_DECLARATION_INVALID"
	MIGRATION_WRITE_FAILED        = "MIGRATION_WRITE_FAILED"
)

// Error codes for repository operations
const (
	MONGO_NO_DOCUMENTS_FOUND     = "MONGO_NO_DOCUMENTS_FOUND"
	MONGO_DUPLICATE_KEY          = "MONGO_DUPLICATE_KEY"
	MONGO_OPERATION_FAILED       = "MONGO_OPERATION_FAILED"
	MONGO_CONNECTION_ERROR       = "MONGO_CONNECTION_ERROR"
	MONGO_VALIDATION_ERROR       = "MONGO_VALIDATION_ERROR"
	MONGO_ID_CANNOT_BE_NIL       = "MONGO_ID_CANNOT_BE_NIL"
	MONGO_UPDATE_CANNOT_BE_NIL   = "MONGO_UPDATE_CANNOT_BE_NIL"
	MODEL_VALIDATION_FAILED      = "MODEL_VALIDATION_FAILED"
	MONGO_CLIENT_NOT_INITIALIZED = "MONGO_CLIENT_NOT_INITIALIZED"
	MONGO_DATABASE_NAME_REQUIRED = "MONGO_DATABASE_NAME_REQUIRED"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"` // Optional field for additional error details
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func NewError(code string, message string, details ...any) *Error {
	if len(details) > 0 {
		return &Error{
			Code:    code,
			Message: message,
			Details: details[0], // Take the first detail if provided
		}
	}

	return &Error{
		Code:    code,
		Message: message,
	}
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code string) bool {
	var odmErr *Error
	if errors.As(err, &odmErr) {
		return odmErr.Code == code
	}
	return false
}

func CatalogUnavailable(message string, details ...any) *Error {
	return NewError(CATALOG_UNAVAILABLE, message, details...)
}

func MalformedCatalogEntry(message string, details ...any) *Error {
	return NewError(MALFORMED_CATALOG_ENTRY, message, details...)
}

func IndexOperationFailed(message string, details ...any) *Error {
	return NewError(INDEX_OPERATION_FAILED, message, details...)
}

func DeclaredIndexInvalid(message string, details ...any) *Error {
	return NewError(DECLARED_INDEX_INVALID, message, details...)
}

func MigrationDeclarationInvalid(message string, details ...any) *Error {
	return NewError(MIGRATION_DECLARATION_INVALID, message, details...)
}

func MigrationWriteFailed(message string, details ...any) *Error {
	return NewError(MIGRATION_WRITE_FAILED, message, details...)
}
