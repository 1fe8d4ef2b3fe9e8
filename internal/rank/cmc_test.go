package rank

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/eigencmc/internal/core"
	"github.com/23skdu/eigencmc/internal/similarity"
)

// bruteForceCMC recounts every probe for every threshold.
func bruteForceCMC(sim Scores, maxRank int) Curve {
	limit := min(maxRank, sim.Rows())
	out := make(Curve, 0, limit)
	for r := 1; r <= limit; r++ {
		cnt := 0
		for j := 0; j < sim.Cols(); j++ {
			s := sim.At(j, j)
			rank := 0
			for k := 0; k < sim.Rows(); k++ {
				if sim.At(k, j) >= s {
					rank++
				}
			}
			if rank <= r {
				cnt++
			}
		}
		out = append(out, Point{Rank: r, Rate: float64(cnt) * 100 / float64(sim.Cols())})
	}
	return out
}

func randomScores(seed int64, rows, cols int, levels int) *similarity.Matrix {
	rng := rand.New(rand.NewSource(seed))
	data := make([][]float64, rows)
	for i := range data {
		data[i] = make([]float64, cols)
		for j := range data[i] {
			// few distinct levels so ties are common
			data[i][j] = -float64(rng.Intn(levels))
		}
	}
	return similarity.NewMatrix(data)
}

func TestComputeCMC_Degenerate(t *testing.T) {
	curve, err := ComputeCMC(similarity.NewMatrix([][]float64{{5.0}}), DefaultMaxRank)
	require.NoError(t, err)
	assert.Equal(t, Curve{{Rank: 1, Rate: 100}}, curve)
}

func TestComputeCMC_TwoIdentities(t *testing.T) {
	sim := similarity.NewMatrix([][]float64{
		{-0.1, -5.0},
		{-4.0, -0.2},
	})

	ranks, err := Ranks(sim)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, ranks)

	curve, err := ComputeCMC(sim, DefaultMaxRank)
	require.NoError(t, err)
	assert.Equal(t, Curve{{Rank: 1, Rate: 100}, {Rank: 2, Rate: 100}}, curve)
}

func TestComputeCMC_TiesFavourGenuineMatch(t *testing.T) {
	// probe 0 ties with gallery 1; probe 1 is beaten by gallery 0
	sim := similarity.NewMatrix([][]float64{
		{-1, -1},
		{-1, -3},
	})

	ranks, err := Ranks(sim)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, ranks)

	curve, err := ComputeCMC(sim, 10)
	require.NoError(t, err)
	assert.Equal(t, Curve{{Rank: 1, Rate: 0}, {Rank: 2, Rate: 100}}, curve)
}

func TestComputeCMC_MoreGalleryThanProbes(t *testing.T) {
	sim := similarity.NewMatrix([][]float64{
		{-1, -9},
		{-5, -1},
		{-0.5, -2},
	})

	ranks, err := Ranks(sim)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, ranks)

	curve, err := ComputeCMC(sim, 2)
	require.NoError(t, err)
	assert.Equal(t, Curve{{Rank: 1, Rate: 50}, {Rank: 2, Rate: 100}}, curve)

	rate, ok := curve.RateAt(1)
	assert.True(t, ok)
	assert.Equal(t, 50.0, rate)
	_, ok = curve.RateAt(3)
	assert.False(t, ok)
	_, ok = curve.RateAt(0)
	assert.False(t, ok)
}

func TestComputeCMC_CappedAtGallerySize(t *testing.T) {
	curve, err := ComputeCMC(randomScores(1, 5, 5, 3), 100)
	require.NoError(t, err)
	assert.Equal(t, 5, curve.Len())
	assert.Equal(t, 100.0, curve[4].Rate)
}

func TestComputeCMC_Errors(t *testing.T) {
	_, err := ComputeCMC(similarity.NewMatrix([][]float64{{1, 2}}), 10)
	var me *core.MisalignedMatrixError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 1, me.Rows)
	assert.Equal(t, 2, me.Cols)

	_, err = ComputeCMC(similarity.NewMatrix(nil), 10)
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	_, err = ComputeCMC(similarity.NewMatrix([][]float64{{1}}), 0)
	assert.ErrorIs(t, err, core.ErrInvalidDimension)
}

func TestComputeCMC_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("matches brute-force recount", prop.ForAll(
		func(seed int64, cols, extra, levels, maxRank int) bool {
			sim := randomScores(seed, cols+extra, cols, levels)
			curve, err := ComputeCMC(sim, maxRank)
			if err != nil {
				return false
			}
			want := bruteForceCMC(sim, maxRank)
			if len(curve) != len(want) {
				return false
			}
			for i := range want {
				if curve[i] != want[i] {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(1, 12),
		gen.IntRange(0, 5),
		gen.IntRange(1, 6),
		gen.IntRange(1, 20),
	))

	properties.Property("monotone and 100 at full gallery", prop.ForAll(
		func(seed int64, cols, extra, levels int) bool {
			sim := randomScores(seed, cols+extra, cols, levels)
			curve, err := ComputeCMC(sim, sim.Rows())
			if err != nil || curve.Len() != sim.Rows() {
				return false
			}
			for r := 1; r < curve.Len(); r++ {
				if curve[r].Rate < curve[r-1].Rate {
					return false
				}
			}
			return curve[curve.Len()-1].Rate == 100
		},
		gen.Int64(),
		gen.IntRange(1, 12),
		gen.IntRange(0, 5),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}
