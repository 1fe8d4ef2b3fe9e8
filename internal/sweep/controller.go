// Package sweep evaluates a subspace at several dimensionalities and collects
// one CMC curve per dimension.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/23skdu/eigencmc/internal/core"
	cerrors "github.com/23skdu/eigencmc/internal/errors"
	"github.com/23skdu/eigencmc/internal/metrics"
	"github.com/23skdu/eigencmc/internal/rank"
	"github.com/23skdu/eigencmc/internal/similarity"
	"github.com/23skdu/eigencmc/internal/subspace"
)

// Policy decides what happens to the rest of a sweep when one dimension fails.
type Policy string

const (
	// AbortOnError cancels outstanding dimensions on the first failure and
	// returns that failure from Run.
	AbortOnError Policy = "abort"
	// ContinueOnError records each failure in its Result and keeps going.
	ContinueOnError Policy = "continue"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case AbortOnError, ContinueOnError:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("sweep: unknown policy %q", s)
	}
}

// Config controls a Controller. Policy has no default and must be set.
type Config struct {
	MaxRank int
	Policy  Policy
	Workers int
}

// Job is one gallery/probe pairing evaluated over a list of dimensions.
type Job struct {
	Name     string
	Subspace *subspace.Subspace
	Gallery  [][]float64
	Probe    [][]float64
	Dims     []int
}

// Result is the outcome of one task. Elapsed covers the similarity step only.
// Exactly one of Curve and Err is set once the task ran.
type Result struct {
	Task
	Curve   rank.Curve
	Elapsed time.Duration
	Err     error
}

// Sink receives finished results in input order.
type Sink interface {
	Write(ctx context.Context, r Result) error
}

// Controller drives the similarity engine and rank evaluator over a sweep.
type Controller struct {
	engine *similarity.Engine
	cfg    Config
	logger zerolog.Logger
}

// New creates a Controller.
//
//nolint:gocritic // Logger passed by value for constructor simplicity
func New(engine *similarity.Engine, cfg Config, logger zerolog.Logger) (*Controller, error) {
	if engine == nil {
		return nil, cerrors.NewConfigurationError("new_sweep", "similarity engine is nil")
	}
	if _, err := ParsePolicy(string(cfg.Policy)); err != nil {
		return nil, cerrors.WrapConfigurationError(err, "new_sweep", "failure policy must be explicit")
	}
	if cfg.MaxRank < 1 {
		return nil, cerrors.NewConfigurationError("new_sweep", "max rank must be positive").WithContext("max_rank", cfg.MaxRank)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Controller{
		engine: engine,
		cfg:    cfg,
		logger: logger.With().Str("component", "sweep").Logger(),
	}, nil
}

// Run evaluates every dimension of job and returns results in input order.
//
// Under ContinueOnError the returned error is nil and failures live in
// Result.Err. Under AbortOnError the first failure is returned; results of
// tasks that never ran carry context.Canceled.
func (c *Controller) Run(ctx context.Context, job Job) ([]Result, error) {
	if job.Subspace == nil {
		return nil, cerrors.NewValidationError("run_sweep", "subspace is nil").WithContext("job", job.Name)
	}
	tasks := Plan(job.Name, job.Dims)
	results := make([]Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[task.Index] = Result{Task: task, Err: err}
				return nil
			}
			res := c.runTask(gctx, job, task)
			results[task.Index] = res
			if res.Err != nil && c.cfg.Policy == AbortOnError {
				return fmt.Errorf("sweep %s: dimension %d: %w", job.Name, task.Dimension, res.Err)
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		// an external cancellation is not a task failure
		err = ctx.Err()
	}
	return results, err
}

// RunTo runs job and hands every result to sink in input order. A sink
// failure stops delivery and is returned.
func (c *Controller) RunTo(ctx context.Context, job Job, sink Sink) ([]Result, error) {
	results, runErr := c.Run(ctx, job)
	for _, r := range results {
		if r.Err != nil && errors.Is(r.Err, context.Canceled) && runErr != nil {
			continue
		}
		if err := sink.Write(ctx, r); err != nil {
			return results, cerrors.WrapStorageError(err, "write_result", "report sink failed").
				WithContext("job", job.Name).
				WithContext("dimension", r.Dimension)
		}
	}
	return results, runErr
}

func (c *Controller) runTask(ctx context.Context, job Job, task Task) Result {
	res := Result{Task: task}
	log := c.logger.With().Str("job", job.Name).Int("dimension", task.Dimension).Logger()

	if task.Dimension < 1 || task.Dimension > job.Subspace.MaxComponents() {
		res.Err = core.NewInvalidDimensionError(task.Dimension, job.Subspace.MaxComponents())
		c.finish(log, job, res)
		return res
	}

	sim, elapsed, err := c.engine.Compute(ctx, job.Subspace, task.Dimension, job.Gallery, job.Probe)
	res.Elapsed = elapsed
	if err != nil {
		res.Err = err
		c.finish(log, job, res)
		return res
	}

	curve, err := rank.ComputeCMC(sim, c.cfg.MaxRank)
	if err != nil {
		res.Err = err
	} else {
		res.Curve = curve
	}
	c.finish(log, job, res)
	return res
}

//nolint:gocritic // Logger passed by value
func (c *Controller) finish(log zerolog.Logger, job Job, res Result) {
	if res.Err != nil {
		metrics.SweepTasksTotal.WithLabelValues("error").Inc()
		log.Warn().Err(res.Err).Msg("dimension failed")
		return
	}
	metrics.SweepTasksTotal.WithLabelValues("ok").Inc()
	rank1, _ := res.Curve.RateAt(1)
	metrics.CMCRank1Rate.WithLabelValues(job.Name, strconv.Itoa(res.Dimension)).Set(rank1)
	log.Info().
		Dur("elapsed", res.Elapsed).
		Float64("rank1", rank1).
		Int("ranks", res.Curve.Len()).
		Msg("dimension evaluated")
}
