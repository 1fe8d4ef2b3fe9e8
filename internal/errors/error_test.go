package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredError_Error(t *testing.T) {
	err := New(ErrorTypeValidation, "read_manifest", "identity is not an integer")
	assert.Equal(t, "[validation] read_manifest: identity is not an integer", err.Error())

	cause := errors.New("disk full")
	err = Wrap(cause, ErrorTypeStorage, "write_report", "failed to write parquet")
	assert.Contains(t, err.Error(), "[storage] write_report: failed to write parquet")
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, cause, err.Unwrap())
}

func TestStructuredError_WithContext(t *testing.T) {
	err := NewStorageError("load_model", "short read").
		WithContext("path", "model.bin").
		WithContext("bytes", 12)

	assert.Equal(t, "model.bin", err.Context["path"])
	assert.Equal(t, 12, err.Context["bytes"])
}

func TestErrorConstructors(t *testing.T) {
	assert.Equal(t, ErrorTypeValidation, NewValidationError("op", "msg").Type)
	assert.Equal(t, ErrorTypeStorage, NewStorageError("op", "msg").Type)
	assert.Equal(t, ErrorTypeConfiguration, NewConfigurationError("op", "msg").Type)
}

func TestErrorWrapping(t *testing.T) {
	originalErr := errors.New("original error")

	wrapped := WrapValidationError(originalErr, "align", "duplicate identity")
	assert.Equal(t, ErrorTypeValidation, wrapped.Type)
	assert.Equal(t, "align", wrapped.Operation)
	assert.Equal(t, originalErr, wrapped.Unwrap())
	assert.Equal(t, ErrorTypeStorage, WrapStorageError(originalErr, "op", "msg").Type)
	assert.Equal(t, ErrorTypeConfiguration, WrapConfigurationError(originalErr, "op", "msg").Type)

	assert.Nil(t, Wrap(nil, ErrorTypeStorage, "op", "msg"))
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("run: %w", NewStorageError("open", "missing file"))
	assert.True(t, IsType(err, ErrorTypeStorage))
	assert.False(t, IsType(err, ErrorTypeValidation))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeStorage))
	assert.False(t, IsType(nil, ErrorTypeStorage))
}

func TestStackTraceCapture(t *testing.T) {
	err := New(ErrorTypeValidation, "test", "message")
	assert.Greater(t, len(err.Stack), 0)
}
