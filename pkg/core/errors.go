package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorClass represents the classification of a solver core error.
type ErrorClass string

const (
	// ErrorClassConfiguration indicates an invalid descriptor table or core configuration.
	// Raised while descriptors are built, before any solving begins. Never recovered.
	ErrorClassConfiguration ErrorClass = "configuration"

	// ErrorClassUsage indicates a bug in the calling move or listener code.
	// Examples: unpaired notifications, reading the score while mutating.
	ErrorClassUsage ErrorClass = "usage"

	// ErrorClassLookupMiss indicates that an external object has no registered working counterpart.
	ErrorClassLookupMiss ErrorClass = "lookup_miss"
)

// SolverError represents a classified error with entity and variable context.
// nolint:revive // SolverError is intentionally named to distinguish from standard errors
type SolverError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Entity describes the entity or object involved, if applicable.
	Entity string `json:"entity,omitempty"`

	// Variable is the planning variable involved, if applicable.
	Variable string `json:"variable,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *SolverError) Error() string {
	var context []string
	if e.Operation != "" {
		context = append(context, "operation="+e.Operation)
	}
	if e.Entity != "" {
		context = append(context, "entity="+e.Entity)
	}
	if e.Variable != "" {
		context = append(context, "variable="+e.Variable)
	}

	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if len(context) > 0 {
		msg += " (" + strings.Join(context, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *SolverError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *SolverError) Is(target error) bool {
	t, ok := target.(*SolverError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(message string, err error) *SolverError {
	return &SolverError{
		Class:   ErrorClassConfiguration,
		Message: message,
		Err:     err,
	}
}

// NewUsageError creates a new usage error.
func NewUsageError(message string, err error) *SolverError {
	return &SolverError{
		Class:   ErrorClassUsage,
		Message: message,
		Err:     err,
	}
}

// NewLookupMissError creates a new lookup miss error.
func NewLookupMissError(message string, err error) *SolverError {
	return &SolverError{
		Class:   ErrorClassLookupMiss,
		Message: message,
		Err:     err,
		Code:    ErrCodeNoMatch,
	}
}

// WithEntity adds entity context to an error.
func (e *SolverError) WithEntity(entity string) *SolverError {
	e.Entity = entity
	return e
}

// WithVariable adds planning variable context to an error.
func (e *SolverError) WithVariable(variable string) *SolverError {
	e.Variable = variable
	return e
}

// WithOperation adds operation context to an error.
func (e *SolverError) WithOperation(operation string) *SolverError {
	e.Operation = operation
	return e
}

// WithCode adds an error code to an error.
func (e *SolverError) WithCode(code string) *SolverError {
	e.Code = code
	return e
}

// WithDetail adds a detail field to the error context.
func (e *SolverError) WithDetail(key string, value interface{}) *SolverError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsConfigurationError returns true if the error is classified as a configuration error.
func IsConfigurationError(err error) bool {
	return classOf(err) == ErrorClassConfiguration
}

// IsUsageError returns true if the error is classified as a usage error.
func IsUsageError(err error) bool {
	return classOf(err) == ErrorClassUsage
}

// IsLookupMiss returns true if the error is classified as a lookup miss.
func IsLookupMiss(err error) bool {
	return classOf(err) == ErrorClassLookupMiss
}

// CodeOf returns the error code of the first SolverError in the chain, or "".
func CodeOf(err error) string {
	var e *SolverError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func classOf(err error) ErrorClass {
	var e *SolverError
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}

// Configuration error codes.
const (
	ErrCodeInvalidConfig         = "INVALID_CONFIG"
	ErrCodeNoVariables           = "NO_PLANNING_VARIABLES"
	ErrCodeDifficultyConflict    = "DIFFICULTY_CONFLICT"
	ErrCodeUnresolvedValueRange  = "UNRESOLVED_VALUE_RANGE"
	ErrCodeMissingPlanningID     = "MISSING_PLANNING_ID"
	ErrCodeDuplicateName         = "DUPLICATE_NAME"
	ErrCodeUnboundProperty       = "UNBOUND_PROPERTY"
	ErrCodeUnknownReference      = "UNKNOWN_REFERENCE"
	ErrCodeInvalidAccessorKind   = "INVALID_ACCESSOR_KIND"
	ErrCodeInvalidShadowVariable = "INVALID_SHADOW_VARIABLE"
)

// Usage error codes.
const (
	ErrCodeTypeMismatch         = "TYPE_MISMATCH"
	ErrCodeReadOnly             = "READ_ONLY"
	ErrCodeNotAttached          = "NOT_ATTACHED"
	ErrCodeUnpairedNotification = "UNPAIRED_NOTIFICATION"
	ErrCodeNestedNotification   = "NESTED_NOTIFICATION"
	ErrCodeScoreWhileMutating   = "SCORE_WHILE_MUTATING"
	ErrCodeScoreWhilePending    = "SCORE_WHILE_PENDING"
	ErrCodeUnknownEntityType    = "UNKNOWN_ENTITY_TYPE"
	ErrCodeUnknownVariable      = "UNKNOWN_VARIABLE"
	ErrCodeVariableKind         = "VARIABLE_KIND"
	ErrCodeInvalidRange         = "INVALID_RANGE"
	ErrCodeLookupDisabled       = "LOOKUP_DISABLED"
	ErrCodeLookupUnsupported    = "LOOKUP_UNSUPPORTED"
	ErrCodeNilPlanningID        = "NIL_PLANNING_ID"
	ErrCodeDuplicateKey         = "DUPLICATE_KEY"
	ErrCodeNotRegistered        = "NOT_REGISTERED"
	ErrCodeNonComparable        = "NON_COMPARABLE"
	ErrCodeClosed               = "CLOSED"
)

// Lookup miss error codes.
const (
	ErrCodeNoMatch = "NO_MATCH"
)
