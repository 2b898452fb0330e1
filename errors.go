// errors.go: structured error taxonomy for cachevane coordination failures
//
// This file provides structured error types using the go-errors library,
// enabling rich error context, categorization, and standardized error codes
// for all engine operations.
//
// Copyright (c) 2025 Cachevane contributors
// Series: an AGILira-style library
// SPDX-License-Identifier: MPL-2.0
package cachevane

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for cachevane engine operations, grouped by the failure
// behavior they represent rather than by call site.
const (
	// InvalidArgument (1xxx)
	ErrCodeInvalidArgument errors.ErrorCode = "CACHEVANE_INVALID_ARGUMENT"
	ErrCodeEmptyKey        errors.ErrorCode = "CACHEVANE_EMPTY_KEY"
	ErrCodeNilBackend      errors.ErrorCode = "CACHEVANE_NIL_BACKEND"
	ErrCodeNilCompute      errors.ErrorCode = "CACHEVANE_NIL_COMPUTE"
	ErrCodeInvalidConfig   errors.ErrorCode = "CACHEVANE_INVALID_CONFIG"

	// Corruption (2xxx)
	ErrCodeCorruptedData errors.ErrorCode = "CACHEVANE_CORRUPTED_DATA"

	// BackendTransient (3xxx)
	ErrCodeBackendGetFailed    errors.ErrorCode = "CACHEVANE_BACKEND_GET_FAILED"
	ErrCodeBackendSetFailed    errors.ErrorCode = "CACHEVANE_BACKEND_SET_FAILED"
	ErrCodeBackendRemoveFailed errors.ErrorCode = "CACHEVANE_BACKEND_REMOVE_FAILED"

	// ComputeFailure (4xxx)
	ErrCodeComputeFailed    errors.ErrorCode = "CACHEVANE_COMPUTE_FAILED"
	ErrCodePanicRecovered   errors.ErrorCode = "CACHEVANE_PANIC_RECOVERED"
	ErrCodePayloadTooLarge  errors.ErrorCode = "CACHEVANE_PAYLOAD_TOO_LARGE"

	// Internal (5xxx)
	ErrCodeInternalError errors.ErrorCode = "CACHEVANE_INTERNAL_ERROR"
)

// Common error messages
const (
	msgEmptyKey        = "cache key cannot be empty"
	msgNilBackend      = "backend cannot be nil"
	msgNilCompute      = "compute function cannot be nil"
	msgInvalidConfig   = "invalid global configuration"
	msgCorruptedData   = "cached payload could not be decoded as envelope or plain value"
	msgBackendGet      = "backend Get failed"
	msgBackendSet      = "backend Set failed"
	msgBackendRemove   = "backend Remove failed"
	msgComputeFailed   = "compute function returned an error"
	msgPanicRecovered  = "panic recovered from compute function"
	msgPayloadTooLarge = "serialized payload exceeds MaxPayloadBytes"
	msgInternalError   = "internal engine error"
)

// =============================================================================
// INVALID ARGUMENT ERRORS
// =============================================================================

// NewErrEmptyKey reports an empty or whitespace-only key at the named operation.
func NewErrEmptyKey(operation string) error {
	return errors.NewWithField(ErrCodeEmptyKey, msgEmptyKey, "operation", operation)
}

// NewErrNilBackend reports a nil Backend passed to NewEngine.
func NewErrNilBackend() error {
	return errors.New(ErrCodeNilBackend, msgNilBackend)
}

// NewErrNilCompute reports a nil compute function passed to GetOrCreate.
func NewErrNilCompute(key string) error {
	return errors.NewWithField(ErrCodeNilCompute, msgNilCompute, "key", key)
}

// NewErrInvalidConfig reports a GlobalConfig that failed validation.
func NewErrInvalidConfig(reason string) error {
	return errors.NewWithField(ErrCodeInvalidConfig, msgInvalidConfig, "reason", reason)
}

// =============================================================================
// CORRUPTION
// =============================================================================

// NewErrCorruptedData reports a cache hit whose payload could not be
// decoded either as an envelope or as a plain value.
func NewErrCorruptedData(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeCorruptedData, msgCorruptedData).
		WithContext("key", key)
}

// =============================================================================
// BACKEND TRANSIENT ERRORS
// =============================================================================

// NewErrBackendGetFailed wraps a Backend.Get failure. Retryable: a
// transient store hiccup does not imply the key is gone.
func NewErrBackendGetFailed(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeBackendGetFailed, msgBackendGet).
		WithContext("key", key).
		AsRetryable()
}

// NewErrBackendSetFailed wraps a Backend.Set failure.
func NewErrBackendSetFailed(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeBackendSetFailed, msgBackendSet).
		WithContext("key", key).
		AsRetryable()
}

// NewErrBackendRemoveFailed wraps a Backend.Remove failure.
func NewErrBackendRemoveFailed(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeBackendRemoveFailed, msgBackendRemove).
		WithContext("key", key).
		AsRetryable()
}

// =============================================================================
// COMPUTE ERRORS
// =============================================================================

// NewErrComputeFailed wraps an error returned by the caller's compute function.
func NewErrComputeFailed(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeComputeFailed, msgComputeFailed).
		WithContext("key", key)
}

// NewErrPanicRecovered reports a panic recovered while running compute.
func NewErrPanicRecovered(key string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"key":         key,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// NewErrPayloadTooLarge reports a compute result whose serialized form
// exceeds Policy/GlobalConfig MaxPayloadBytes. Not an error surfaced to
// the caller; the engine treats it as "return without writing".
func NewErrPayloadTooLarge(key string, size, limit int) error {
	return errors.NewWithContext(ErrCodePayloadTooLarge, msgPayloadTooLarge, map[string]interface{}{
		"key":   key,
		"size":  size,
		"limit": limit,
	})
}

// =============================================================================
// INTERNAL ERRORS
// =============================================================================

// NewErrInternal creates a generic internal error.
func NewErrInternal(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternalError, msgInternalError).
			WithContext("operation", operation).
			WithSeverity("warning")
	}
	return errors.NewWithField(ErrCodeInternalError, msgInternalError, "operation", operation).
		WithSeverity("warning")
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsCorrupted reports whether err is a corrupted-payload error.
func IsCorrupted(err error) bool {
	return errors.HasCode(err, ErrCodeCorruptedData)
}

// IsBackendError reports whether err originated from the Backend collaborator.
func IsBackendError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeBackendGetFailed || code == ErrCodeBackendSetFailed || code == ErrCodeBackendRemoveFailed
	}
	return false
}

// IsComputeError reports whether err originated from the caller's compute function.
func IsComputeError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeComputeFailed || code == ErrCodePanicRecovered
	}
	return false
}

// IsInvalidArgument reports whether err is an invalid-argument error.
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeEmptyKey || code == ErrCodeNilBackend || code == ErrCodeNilCompute || code == ErrCodeInvalidConfig
	}
	return false
}

// IsRetryable reports whether err is marked retryable.
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

// GetErrorCode extracts the error code from err, or "" if none is present.
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

// GetErrorContext extracts structured context from err, or nil if none is present.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var cvErr *errors.Error
	if goerrors.As(err, &cvErr) {
		return cvErr.Context
	}
	return nil
}
