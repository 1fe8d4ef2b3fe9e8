// Package similarity computes gallery x probe score matrices inside a
// truncated subspace.
package similarity

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/23skdu/eigencmc/internal/core"
	"github.com/23skdu/eigencmc/internal/distance"
	"github.com/23skdu/eigencmc/internal/metrics"
	"github.com/23skdu/eigencmc/internal/subspace"
)

// Engine computes similarity matrices with a fixed distance metric.
type Engine struct {
	metric  distance.Metric
	workers int
	logger  zerolog.Logger
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	metric  core.DistanceMetric
	workers int
	logger  zerolog.Logger
}

// WithMetric selects the distance metric by name.
func WithMetric(name core.DistanceMetric) Option {
	return func(c *engineConfig) { c.metric = name }
}

// WithWorkers bounds the number of goroutines filling matrix rows.
func WithWorkers(n int) Option {
	return func(c *engineConfig) { c.workers = n }
}

// WithLogger sets the engine logger.
//
//nolint:gocritic // Logger passed by value for constructor simplicity
func WithLogger(logger zerolog.Logger) Option {
	return func(c *engineConfig) { c.logger = logger }
}

// NewEngine creates an Engine. The default metric is Euclidean.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := engineConfig{
		metric:  core.MetricEuclidean,
		workers: runtime.GOMAXPROCS(0),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	m, err := distance.Lookup(cfg.metric)
	if err != nil {
		return nil, err
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	return &Engine{
		metric:  m,
		workers: cfg.workers,
		logger:  cfg.logger.With().Str("component", "similarity").Logger(),
	}, nil
}

// Metric returns the name of the engine's distance metric.
func (e *Engine) Metric() core.DistanceMetric { return e.metric.Name() }

// Compute scores every gallery sample against every probe sample in the
// subspace truncated to k components. The returned duration is the wall-clock
// time of the computation. On error no matrix is returned.
func (e *Engine) Compute(ctx context.Context, s *subspace.Subspace, k int, gallery, probe [][]float64) (*Matrix, time.Duration, error) {
	start := time.Now()
	m, err := e.compute(ctx, s, k, gallery, probe)
	elapsed := time.Since(start)
	if err != nil {
		metrics.SimilarityErrorsTotal.WithLabelValues(errorKind(err)).Inc()
		return nil, elapsed, err
	}
	metrics.SimilarityDurationSeconds.WithLabelValues(string(e.metric.Name())).Observe(elapsed.Seconds())
	e.logger.Debug().
		Int("k", k).
		Int("gallery", len(gallery)).
		Int("probe", len(probe)).
		Dur("elapsed", elapsed).
		Msg("similarity matrix computed")
	return m, elapsed, nil
}

func (e *Engine) compute(ctx context.Context, s *subspace.Subspace, k int, gallery, probe [][]float64) (*Matrix, error) {
	if len(gallery) == 0 {
		return nil, core.NewEmptyInputError(core.SetGallery)
	}
	if len(probe) == 0 {
		return nil, core.NewEmptyInputError(core.SetProbe)
	}
	t, err := s.Truncate(k)
	if err != nil {
		return nil, err
	}

	// Each sample is projected exactly once. A gallery failure is reported
	// ahead of a probe failure.
	var (
		projG, projP *mat.Dense
		errG, errP   error
		wg           sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		projG, errG = t.ProjectAll(core.SetGallery, gallery)
	}()
	go func() {
		defer wg.Done()
		projP, errP = t.ProjectAll(core.SetProbe, probe)
	}()
	wg.Wait()
	if errG != nil {
		return nil, errG
	}
	if errP != nil {
		return nil, errP
	}

	out := mat.NewDense(len(gallery), len(probe), nil)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < len(gallery); i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			gi := projG.RawRowView(i)
			row := out.RawRowView(i)
			for j := range row {
				d := e.metric.Distance(gi, projP.RawRowView(j))
				if math.IsNaN(d) || math.IsInf(d, 0) {
					return core.NewInvalidSampleError(core.SetGallery, i, "non-finite distance")
				}
				row[j] = -d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Matrix{data: out}, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDimension):
		return "invalid_dimension"
	case errors.Is(err, core.ErrInvalidSample):
		return "invalid_sample"
	case errors.Is(err, core.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
