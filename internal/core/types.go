package core

import (
	"fmt"
	"math"
)

// SampleVector is a flattened sample. Its length is fixed for a whole run.
type SampleVector = []float64

// CheckSample verifies length and finiteness of one sample.
func CheckSample(set SetName, index int, sample []float64, dim int) error {
	if len(sample) != dim {
		return NewInvalidSampleError(set, index, fmt.Sprintf("length %d, want %d", len(sample), dim))
	}
	for i, v := range sample {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewInvalidSampleError(set, index, fmt.Sprintf("non-finite value at %d", i))
		}
	}
	return nil
}

// CheckSet verifies that a set is non-empty and that every sample is valid.
func CheckSet(set SetName, samples [][]float64, dim int) error {
	if len(samples) == 0 {
		return NewEmptyInputError(set)
	}
	for i, s := range samples {
		if err := CheckSample(set, i, s, dim); err != nil {
			return err
		}
	}
	return nil
}
