// Package distance provides the pluggable distance strategies used to score
// projected samples against each other.
package distance

import (
	"fmt"
	"sort"
	"sync"

	"github.com/23skdu/eigencmc/internal/core"
)

// Metric computes a dissimilarity between two equal-length coefficient vectors.
// Lower is closer. Implementations must be safe for concurrent use.
type Metric interface {
	Name() core.DistanceMetric
	Distance(a, b []float64) float64
}

var (
	registryMu sync.RWMutex
	registry   = map[core.DistanceMetric]Metric{}
)

func init() {
	Register(Euclidean{})
	Register(Cosine{})
}

// Register adds or replaces a metric under its name.
func Register(m Metric) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[m.Name()] = m
}

// Lookup returns the metric registered under name.
func Lookup(name core.DistanceMetric) (Metric, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("distance: unknown metric %q", name)
	}
	return m, nil
}

// Names lists registered metrics in lexical order.
func Names() []core.DistanceMetric {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]core.DistanceMetric, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
