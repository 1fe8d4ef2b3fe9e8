package core

import (
	"errors"
	"fmt"
)

// Sentinels matched through errors.Is by every typed error below.
var (
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrInvalidSample    = errors.New("invalid sample")
	ErrMisalignedMatrix = errors.New("misaligned matrix")
	ErrEmptyInput       = errors.New("empty input")
)

// InvalidDimensionError indicates a component count outside [1, Max].
type InvalidDimensionError struct {
	K   int
	Max int
}

func (e *InvalidDimensionError) Error() string {
	return fmt.Sprintf("invalid dimension: k=%d outside [1, %d]", e.K, e.Max)
}

func (e *InvalidDimensionError) Is(target error) bool { return target == ErrInvalidDimension }

// NewInvalidDimensionError creates an invalid dimension error.
func NewInvalidDimensionError(k, maxK int) error {
	return &InvalidDimensionError{K: k, Max: maxK}
}

// InvalidSampleError indicates a sample with the wrong length or a non-finite value.
type InvalidSampleError struct {
	Set    SetName
	Index  int
	Reason string
}

func (e *InvalidSampleError) Error() string {
	return fmt.Sprintf("invalid sample: %s[%d]: %s", e.Set, e.Index, e.Reason)
}

func (e *InvalidSampleError) Is(target error) bool { return target == ErrInvalidSample }

// NewInvalidSampleError creates an invalid sample error.
func NewInvalidSampleError(set SetName, index int, reason string) error {
	return &InvalidSampleError{Set: set, Index: index, Reason: reason}
}

// MisalignedMatrixError indicates a score matrix with fewer rows than columns.
type MisalignedMatrixError struct {
	Rows int
	Cols int
}

func (e *MisalignedMatrixError) Error() string {
	return fmt.Sprintf("misaligned matrix: %d rows < %d cols", e.Rows, e.Cols)
}

func (e *MisalignedMatrixError) Is(target error) bool { return target == ErrMisalignedMatrix }

func NewMisalignedMatrixError(rows, cols int) error {
	return &MisalignedMatrixError{Rows: rows, Cols: cols}
}

// EmptyInputError indicates an empty gallery or probe set.
type EmptyInputError struct {
	Set SetName
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("empty input: %s set has no samples", e.Set)
}

func (e *EmptyInputError) Is(target error) bool { return target == ErrEmptyInput }

func NewEmptyInputError(set SetName) error {
	return &EmptyInputError{Set: set}
}
