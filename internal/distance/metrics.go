package distance

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/23skdu/eigencmc/internal/core"
)

// Euclidean is the L2 norm of a - b.
type Euclidean struct{}

func (Euclidean) Name() core.DistanceMetric { return core.MetricEuclidean }

func (Euclidean) Distance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// Cosine is 1 - cos(a, b). A zero vector is at distance 1 from everything.
type Cosine struct{}

func (Cosine) Name() core.DistanceMetric { return core.MetricCosine }

func (Cosine) Distance(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 1
	}
	sim := floats.Dot(a, b) / (na * nb)
	return 1 - math.Max(-1, math.Min(1, sim))
}
