// Package subspace holds a trained linear subspace (mean + ordered basis) and
// projects samples onto its leading components.
package subspace

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/23skdu/eigencmc/internal/core"
	"github.com/23skdu/eigencmc/internal/metrics"
)

// Subspace is an immutable mean vector plus basis vectors ordered by
// decreasing explained variance. The ordering is trusted, not verified.
type Subspace struct {
	mean  []float64
	basis *mat.Dense // MaxComponents x Dim, one basis vector per row
}

// New validates and copies mean and basis into a Subspace.
func New(mean []float64, basis [][]float64) (*Subspace, error) {
	dim := len(mean)
	if dim == 0 {
		return nil, core.NewEmptyInputError(core.SetModel)
	}
	if len(basis) == 0 {
		return nil, core.NewInvalidDimensionError(0, 0)
	}
	if err := core.CheckSample(core.SetModel, -1, mean, dim); err != nil {
		return nil, err
	}

	data := make([]float64, 0, len(basis)*dim)
	for c, b := range basis {
		if err := core.CheckSample(core.SetModel, c, b, dim); err != nil {
			return nil, err
		}
		data = append(data, b...)
	}

	m := make([]float64, dim)
	copy(m, mean)
	return &Subspace{
		mean:  m,
		basis: mat.NewDense(len(basis), dim, data),
	}, nil
}

// Dim returns the sample vector length D.
func (s *Subspace) Dim() int { return len(s.mean) }

// MaxComponents returns the number of basis vectors available.
func (s *Subspace) MaxComponents() int {
	r, _ := s.basis.Dims()
	return r
}

// Mean returns a copy of the mean vector.
func (s *Subspace) Mean() []float64 {
	out := make([]float64, len(s.mean))
	copy(out, s.mean)
	return out
}

// Basis returns a copy of basis vector c.
func (s *Subspace) Basis(c int) []float64 {
	return mat.Row(nil, c, s.basis)
}

// Truncate returns a view restricted to the first k basis vectors.
func (s *Subspace) Truncate(k int) (*Truncated, error) {
	if k < 1 || k > s.MaxComponents() {
		return nil, core.NewInvalidDimensionError(k, s.MaxComponents())
	}
	return &Truncated{
		s:    s,
		k:    k,
		view: s.basis.Slice(0, k, 0, s.Dim()),
	}, nil
}

// Project maps sample onto the first k components of s.
func Project(s *Subspace, k int, sample []float64) ([]float64, error) {
	t, err := s.Truncate(k)
	if err != nil {
		return nil, err
	}
	return t.Project(sample)
}

// Truncated is a Subspace restricted to its leading K components.
type Truncated struct {
	s    *Subspace
	k    int
	view mat.Matrix // k x Dim
}

// K returns the number of components kept.
func (t *Truncated) K() int { return t.k }

// Subspace returns the parent subspace.
func (t *Truncated) Subspace() *Subspace { return t.s }

// Project returns coef[c] = dot(sample - mean, basis[c]) for c < K.
func (t *Truncated) Project(sample []float64) ([]float64, error) {
	if err := core.CheckSample(core.SetSample, 0, sample, t.s.Dim()); err != nil {
		return nil, err
	}
	centered := make([]float64, len(sample))
	floats.SubTo(centered, sample, t.s.mean)

	coef := make([]float64, t.k)
	for c := 0; c < t.k; c++ {
		coef[c] = floats.Dot(centered, t.s.basis.RawRowView(c))
	}
	metrics.ProjectionsTotal.WithLabelValues(string(core.SetSample)).Inc()
	return coef, nil
}

// ProjectAll projects every sample of a set into an N x K matrix.
// Row i holds the coefficients of samples[i].
func (t *Truncated) ProjectAll(set core.SetName, samples [][]float64) (*mat.Dense, error) {
	dim := t.s.Dim()
	if err := core.CheckSet(set, samples, dim); err != nil {
		return nil, err
	}

	centered := mat.NewDense(len(samples), dim, nil)
	for i, x := range samples {
		floats.SubTo(centered.RawRowView(i), x, t.s.mean)
	}

	out := mat.NewDense(len(samples), t.k, nil)
	out.Mul(centered, t.view.T())
	metrics.ProjectionsTotal.WithLabelValues(string(set)).Add(float64(len(samples)))
	return out, nil
}

func (t *Truncated) String() string {
	return fmt.Sprintf("subspace(k=%d of %d, dim=%d)", t.k, t.s.MaxComponents(), t.s.Dim())
}
