// errors.go: structured error taxonomy for cerberus cache operations
//
// This file provides structured error types using the go-errors library,
// enabling rich error context, categorization, and standardized error codes
// for all cache operations.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cerberus

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// CacheErrorType is the taxonomy of kinds (not Go types) of failure the
// core classifies, per spec §3/§7.
type CacheErrorType int

const (
	ErrTypeL1Error CacheErrorType = iota
	ErrTypeL2Connection
	ErrTypeL2Timeout
	ErrTypeDataSource
	ErrTypeLockTimeout
	ErrTypeSerialization
)

func (t CacheErrorType) String() string {
	switch t {
	case ErrTypeL1Error:
		return "L1_ERROR"
	case ErrTypeL2Connection:
		return "L2_CONNECTION"
	case ErrTypeL2Timeout:
		return "L2_TIMEOUT"
	case ErrTypeDataSource:
		return "DATASOURCE"
	case ErrTypeLockTimeout:
		return "LOCK_TIMEOUT"
	case ErrTypeSerialization:
		return "SERIALIZATION"
	default:
		return "UNKNOWN"
	}
}

// Error codes for cerberus cache operations, grouped by category.
const (
	// Near-cache errors
	ErrCodeL1Error errors.ErrorCode = "CERBERUS_L1_ERROR"

	// Far-cache errors
	ErrCodeL2Connection errors.ErrorCode = "CERBERUS_L2_CONNECTION"
	ErrCodeL2Timeout    errors.ErrorCode = "CERBERUS_L2_TIMEOUT"

	// Data-source errors
	ErrCodeDataSource errors.ErrorCode = "CERBERUS_DATASOURCE"

	// Lock errors
	ErrCodeLockTimeout errors.ErrorCode = "CERBERUS_LOCK_TIMEOUT"

	// Serialization / internal errors
	ErrCodeSerialization  errors.ErrorCode = "CERBERUS_SERIALIZATION"
	ErrCodeEmptyKey       errors.ErrorCode = "CERBERUS_EMPTY_KEY"
	ErrCodeInternalError  errors.ErrorCode = "CERBERUS_INTERNAL_ERROR"
	ErrCodePanicRecovered errors.ErrorCode = "CERBERUS_PANIC_RECOVERED"
)

var typeToCode = map[CacheErrorType]errors.ErrorCode{
	ErrTypeL1Error:       ErrCodeL1Error,
	ErrTypeL2Connection:  ErrCodeL2Connection,
	ErrTypeL2Timeout:     ErrCodeL2Timeout,
	ErrTypeDataSource:    ErrCodeDataSource,
	ErrTypeLockTimeout:   ErrCodeLockTimeout,
	ErrTypeSerialization: ErrCodeSerialization,
}

// defaultRetryableTypes is the default retryable set named in spec §4.10.
var defaultRetryableTypes = map[CacheErrorType]bool{
	ErrTypeL2Connection: true,
	ErrTypeL2Timeout:    true,
	ErrTypeDataSource:   true,
}

// NewTypedError builds a go-errors error tagged with kind via its error
// code, so ErrorType/IsRetryable can classify it without a parallel
// wrapper type.
func NewTypedError(kind CacheErrorType, op string, cause error) error {
	code := typeToCode[kind]
	msg := fmt.Sprintf("%s: %s", op, kind.String())

	var e *errors.Error
	if cause != nil {
		e = errors.Wrap(cause, code, msg).WithContext("operation", op)
	} else {
		e = errors.NewWithField(code, msg, "operation", op)
	}
	if defaultRetryableTypes[kind] {
		e = e.AsRetryable()
	}
	return e
}

// ErrorType recovers the CacheErrorType that produced err, if any.
func ErrorType(err error) (CacheErrorType, bool) {
	code := GetErrorCode(err)
	for kind, c := range typeToCode {
		if c == code {
			return kind, true
		}
	}
	return 0, false
}

// IsRetryable reports whether err is classified retryable by go-errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the go-errors code carried by err, if any.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// NewErrEmptyKey signals an empty key was passed to a public method.
func NewErrEmptyKey(op string) error {
	return errors.NewWithField(ErrCodeEmptyKey, "key cannot be empty", "operation", op)
}

// NewErrInternal wraps an unexpected internal failure (e.g. a type
// assertion that should be impossible if the API is used correctly).
func NewErrInternal(op string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternalError, "internal cache error").
			WithContext("operation", op).
			WithSeverity("warning")
	}
	return errors.NewWithField(ErrCodeInternalError, "internal cache error", "operation", op).
		WithSeverity("warning")
}

// NewErrPanicRecovered reports a loader panic recovered by the facade.
func NewErrPanicRecovered(op string, recovered interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, "panic recovered in cache operation", map[string]interface{}{
		"operation":   op,
		"panic_value": fmt.Sprintf("%v", recovered),
	}).WithSeverity("critical")
}
