package store

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// CodeNotFound indicates a referenced collection/list/table/item/tag
	// does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeValidation indicates an empty required field, invalid coordinate
	// or invalid content kind. Detected before any write.
	CodeValidation ErrorCode = "VALIDATION"

	// CodeConflict indicates a duplicate name or coordinate violating a
	// uniqueness invariant.
	CodeConflict ErrorCode = "CONFLICT"

	// CodeCorruptContent indicates a sensitive payload whose ciphertext can
	// no longer be decrypted. Read paths recover with a sentinel; write
	// paths that depend on the plaintext fail with this code.
	CodeCorruptContent ErrorCode = "CORRUPT_CONTENT"

	// CodeStorageFailure indicates the underlying engine rejected an
	// operation or commit. No partial mutation persists.
	CodeStorageFailure ErrorCode = "STORAGE_FAILURE"
)

// StoreError is the structured error for all store operations.
type StoreError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Entity names the affected entity kind ("item", "list", "table",
	// "tag", "collection", "cell"), when known.
	Entity string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := e.Message
	if e.Entity != "" {
		msg = fmt.Sprintf("%s: %s", e.Entity, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NOT_FOUND store error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsValidation reports whether err is a VALIDATION store error.
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsConflict reports whether err is a CONFLICT store error.
func IsConflict(err error) bool { return hasCode(err, CodeConflict) }

// IsCorruptContent reports whether err is a CORRUPT_CONTENT store error.
func IsCorruptContent(err error) bool { return hasCode(err, CodeCorruptContent) }

// IsStorageFailure reports whether err is a STORAGE_FAILURE store error.
func IsStorageFailure(err error) bool { return hasCode(err, CodeStorageFailure) }

func hasCode(err error, code ErrorCode) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func notFoundErr(entity string, id any) *StoreError {
	return &StoreError{
		Code:    CodeNotFound,
		Entity:  entity,
		Message: fmt.Sprintf("%v not found", id),
	}
}

func validationErr(format string, args ...any) *StoreError {
	return &StoreError{
		Code:    CodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

func conflictErr(entity, format string, args ...any) *StoreError {
	return &StoreError{
		Code:    CodeConflict,
		Entity:  entity,
		Message: fmt.Sprintf(format, args...),
	}
}

func corruptErr(entity string, id any, err error) *StoreError {
	return &StoreError{
		Code:    CodeCorruptContent,
		Entity:  entity,
		Message: fmt.Sprintf("%v has undecryptable content", id),
		Err:     err,
	}
}

func storageErr(op string, err error) *StoreError {
	return &StoreError{
		Code:    CodeStorageFailure,
		Message: op,
		Err:     err,
	}
}
