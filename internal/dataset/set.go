// Package dataset loads identity-labelled gallery and probe sample sets and
// puts them into the index-aligned order the evaluator expects.
package dataset

import (
	"fmt"

	"github.com/23skdu/eigencmc/internal/core"
	cerrors "github.com/23skdu/eigencmc/internal/errors"
)

// DefaultTags are the FERET-style capture tags: fa is the gallery, the rest
// are probe sets.
var DefaultTags = []string{"fa", "fb", "ql", "qr"}

// Set is an ordered collection of samples with one identity label per sample.
type Set struct {
	Name    core.SetName
	IDs     []int
	Samples [][]float64
}

// Len returns the number of samples.
func (s *Set) Len() int { return len(s.Samples) }

// Dim returns the common sample length, or 0 for an empty set.
func (s *Set) Dim() int {
	if len(s.Samples) == 0 {
		return 0
	}
	return len(s.Samples[0])
}

// Validate checks label count and a uniform, finite sample length.
func (s *Set) Validate() error {
	if len(s.IDs) != len(s.Samples) {
		return cerrors.NewValidationError("validate_set", fmt.Sprintf("%d labels for %d samples", len(s.IDs), len(s.Samples))).
			WithContext("set", s.Name)
	}
	return core.CheckSet(s.Name, s.Samples, s.Dim())
}

// Align reorders both sets so that gallery row j and probe column j carry
// the same identity for every probe j. Gallery identities without a probe
// are moved after the matched ones. Every probe identity must appear exactly
// once in the gallery.
func Align(gallery, probe *Set) (*Set, *Set, error) {
	gIndex := make(map[int]int, gallery.Len())
	for i, id := range gallery.IDs {
		if _, dup := gIndex[id]; dup {
			return nil, nil, cerrors.NewValidationError("align", fmt.Sprintf("duplicate gallery identity %d", id))
		}
		gIndex[id] = i
	}

	seen := make(map[int]struct{}, probe.Len())
	alignedG := &Set{Name: gallery.Name}
	for j, id := range probe.IDs {
		if _, dup := seen[id]; dup {
			return nil, nil, cerrors.NewValidationError("align", fmt.Sprintf("duplicate probe identity %d", id))
		}
		seen[id] = struct{}{}
		gi, ok := gIndex[id]
		if !ok {
			return nil, nil, cerrors.NewValidationError("align", fmt.Sprintf("probe identity %d has no gallery sample", id)).
				WithContext("probe_index", j)
		}
		alignedG.IDs = append(alignedG.IDs, id)
		alignedG.Samples = append(alignedG.Samples, gallery.Samples[gi])
	}
	for i, id := range gallery.IDs {
		if _, matched := seen[id]; !matched {
			alignedG.IDs = append(alignedG.IDs, id)
			alignedG.Samples = append(alignedG.Samples, gallery.Samples[i])
		}
	}

	alignedP := &Set{
		Name:    probe.Name,
		IDs:     append([]int(nil), probe.IDs...),
		Samples: append([][]float64(nil), probe.Samples...),
	}
	return alignedG, alignedP, nil
}
