package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes for the levelup engine.
const (
	// Lookup errors
	ErrCodeItemNotFound  = "ITEM_NOT_FOUND"
	ErrCodeScoreNotFound = "SCORE_NOT_FOUND"
	ErrCodeWorldNotFound = "WORLD_NOT_FOUND"

	// Resource errors
	ErrCodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	ErrCodePurchaseFailed     = "PURCHASE_FAILED"
	ErrCodeSocialActionFailed = "SOCIAL_ACTION_FAILED"

	// Malformed data errors
	ErrCodeUnknownJSONType = "UNKNOWN_JSON_TYPE"
	ErrCodeMissingField    = "MISSING_FIELD"
	ErrCodeMalformedValue  = "MALFORMED_VALUE"

	// Storage errors
	ErrCodeStoreFailure = "STORE_FAILURE"

	// Lifecycle errors
	ErrCodeLevelNotStartable = "LEVEL_NOT_STARTABLE"

	// Config errors
	ErrCodeConfigInvalid    = "CONFIG_INVALID"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
)

// LevelUpError represents an error raised inside the levelup engine.
// None of these cross the engine's public boundary as panics; they are
// logged or returned from collaborator-facing helpers.
type LevelUpError struct {
	Code    string
	Message string
	Err     error
}

func (e *LevelUpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LevelUpError) Unwrap() error {
	return e.Err
}

// NewLevelUpError creates a new LevelUpError.
func NewLevelUpError(code, message string, err error) *LevelUpError {
	return &LevelUpError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HasCode reports whether err, or anything it wraps, is a LevelUpError with
// the given code.
func HasCode(err error, code string) bool {
	var lerr *LevelUpError
	for err != nil {
		if stderrors.As(err, &lerr) {
			if lerr.Code == code {
				return true
			}
			err = lerr.Err
			continue
		}
		return false
	}
	return false
}

// Code returns the code of the outermost LevelUpError in err's chain, or the
// empty string.
func Code(err error) string {
	var lerr *LevelUpError
	if stderrors.As(err, &lerr) {
		return lerr.Code
	}
	return ""
}

// ErrItemNotFound returns an error when a virtual item is unknown to the economy.
func ErrItemNotFound(itemID string) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodeItemNotFound,
		Message: fmt.Sprintf("virtual item not found: %s", itemID),
	}
}

// ErrScoreNotFound returns an error when no score with the id exists in the hierarchy.
func ErrScoreNotFound(scoreID string) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodeScoreNotFound,
		Message: fmt.Sprintf("score not found: %s", scoreID),
	}
}

// ErrWorldNotFound returns an error when no world with the id exists in the hierarchy.
func ErrWorldNotFound(worldID string) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodeWorldNotFound,
		Message: fmt.Sprintf("world not found: %s", worldID),
	}
}

// ErrInsufficientFunds returns an error when a balance cannot cover a debit.
func ErrInsufficientFunds(itemID string, balance, required int) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodeInsufficientFunds,
		Message: fmt.Sprintf("insufficient balance of %s: have %d, need %d", itemID, balance, required),
	}
}

// ErrPurchaseFailed wraps a failed purchase of itemID.
func ErrPurchaseFailed(itemID string, err error) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodePurchaseFailed,
		Message: fmt.Sprintf("failed to purchase %s", itemID),
		Err:     err,
	}
}

// ErrSocialActionFailed wraps a failed social action.
func ErrSocialActionFailed(action string, err error) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodeSocialActionFailed,
		Message: fmt.Sprintf("social action %s failed", action),
		Err:     err,
	}
}

// ErrUnknownJSONType returns an error for an unrecognized jsonType discriminator.
func ErrUnknownJSONType(family, jsonType string) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodeUnknownJSONType,
		Message: fmt.Sprintf("unknown %s jsonType: %q", family, jsonType),
	}
}

// ErrMissingField returns an error when a required document field is absent.
func ErrMissingField(jsonType, field string) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodeMissingField,
		Message: fmt.Sprintf("%s is missing required field %q", jsonType, field),
	}
}

// ErrMalformedValue wraps a persisted or serialized value that could not be parsed.
func ErrMalformedValue(key string, err error) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodeMalformedValue,
		Message: fmt.Sprintf("malformed value at %s", key),
		Err:     err,
	}
}

// ErrStoreFailure wraps flag store errors.
func ErrStoreFailure(operation string, err error) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodeStoreFailure,
		Message: fmt.Sprintf("flag store error during %s", operation),
		Err:     err,
	}
}

// ErrLevelNotStartable returns an error when a level's gate is still closed.
func ErrLevelNotStartable(levelID string) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodeLevelNotStartable,
		Message: fmt.Sprintf("level cannot be started: %s", levelID),
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(reason string) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodeConfigInvalid,
		Message: fmt.Sprintf("invalid configuration: %s", reason),
	}
}

// ErrValidationFailed returns a validation error.
func ErrValidationFailed(field, reason string) *LevelUpError {
	return &LevelUpError{
		Code:    ErrCodeValidationFailed,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
	}
}
