package similarity

import (
	"gonum.org/v1/gonum/mat"
)

// Matrix is an immutable gallery x probe score matrix. Entry (i, j) is the
// negated distance between gallery sample i and probe sample j, so a higher
// score means a closer match.
type Matrix struct {
	data *mat.Dense
}

// NewMatrix copies rows into a Matrix. All rows must share the same length.
func NewMatrix(rows [][]float64) *Matrix {
	if len(rows) == 0 {
		return &Matrix{}
	}
	d := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		d.SetRow(i, r)
	}
	return &Matrix{data: d}
}

// Rows returns the gallery size G.
func (m *Matrix) Rows() int {
	if m.data == nil {
		return 0
	}
	r, _ := m.data.Dims()
	return r
}

// Cols returns the probe size P.
func (m *Matrix) Cols() int {
	if m.data == nil {
		return 0
	}
	_, c := m.data.Dims()
	return c
}

// At returns the score of gallery i against probe j.
func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

// Row returns a copy of gallery row i.
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.data)
}

// T returns the transposed matrix (probe x gallery) as an independent copy.
func (m *Matrix) T() *Matrix {
	if m.data == nil {
		return &Matrix{}
	}
	var t mat.Dense
	t.CloneFrom(m.data.T())
	return &Matrix{data: &t}
}
