// Package rank turns identity-aligned score matrices into Cumulative Match
// Characteristic curves.
package rank

import (
	"github.com/23skdu/eigencmc/internal/core"
)

// DefaultMaxRank is the rank cutoff used when none is configured.
const DefaultMaxRank = 100

// Scores is a gallery x probe score matrix where higher means more similar.
// The genuine match of probe j is gallery row j.
type Scores interface {
	Rows() int
	Cols() int
	At(i, j int) float64
}

// Point is the recognition rate, in percent, at one rank.
type Point struct {
	Rank int
	Rate float64
}

// Curve is a CMC curve for ranks 1..len(Curve).
type Curve []Point

// Len returns the number of ranks covered.
func (c Curve) Len() int { return len(c) }

// RateAt returns the recognition rate at rank r.
func (c Curve) RateAt(r int) (float64, bool) {
	if r < 1 || r > len(c) {
		return 0, false
	}
	return c[r-1].Rate, true
}

// Ranks returns, for every probe column j, the number of gallery rows scoring
// at least as well as the genuine match sim[j][j]. Ties count in favour of the
// genuine match.
func Ranks(sim Scores) ([]int, error) {
	rows, cols := sim.Rows(), sim.Cols()
	if cols == 0 {
		return nil, core.NewEmptyInputError(core.SetProbe)
	}
	if rows < cols {
		return nil, core.NewMisalignedMatrixError(rows, cols)
	}

	ranks := make([]int, cols)
	for j := 0; j < cols; j++ {
		s := sim.At(j, j)
		n := 0
		for k := 0; k < rows; k++ {
			if sim.At(k, j) >= s {
				n++
			}
		}
		ranks[j] = n
	}
	return ranks, nil
}

// ComputeCMC returns the percentage of probes whose genuine match ranks within
// the top r, for r = 1..min(maxRank, rows).
func ComputeCMC(sim Scores, maxRank int) (Curve, error) {
	if maxRank < 1 {
		return nil, core.NewInvalidDimensionError(maxRank, sim.Rows())
	}
	ranks, err := Ranks(sim)
	if err != nil {
		return nil, err
	}
	return FromRanks(ranks, sim.Rows(), maxRank), nil
}

// FromRanks builds a curve from per-probe ranks in [1, galleryRows].
func FromRanks(ranks []int, galleryRows, maxRank int) Curve {
	limit := min(maxRank, galleryRows)

	hist := make([]int, galleryRows+1)
	for _, r := range ranks {
		hist[r]++
	}

	curve := make(Curve, limit)
	total := float64(len(ranks))
	hit := 0
	for r := 1; r <= limit; r++ {
		hit += hist[r]
		curve[r-1] = Point{Rank: r, Rate: float64(hit) * 100 / total}
	}
	return curve
}
