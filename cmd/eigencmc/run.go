package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/23skdu/eigencmc/internal/core"
	cerrors "github.com/23skdu/eigencmc/internal/errors"
	"github.com/23skdu/eigencmc/internal/dataset"
	"github.com/23skdu/eigencmc/internal/similarity"
	"github.com/23skdu/eigencmc/internal/storage"
	"github.com/23skdu/eigencmc/internal/subspace"
	"github.com/23skdu/eigencmc/internal/sweep"
)

type runOptions struct {
	model      string
	manifest   string
	images     string
	gallery    string
	probes     []string
	galleryIPC string
	probeIPC   []string

	dims    string
	policy  string
	workers int
	output  string
}

// taggedSet is a loaded set plus the tag used to name its jobs.
type taggedSet struct {
	tag string
	set *dataset.Set
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate a subspace model over a dimension sweep",
		Example: `  eigencmc run --model eigen.bin --manifest id_list.csv --images ./images
  eigencmc run --model eigen.bin --gallery-ipc fa.arrow --probe-ipc fb.arrow --dims 10:50:10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyOverrides(cmd, &a.cfg, opts)
			if err := ValidateConfig(&a.cfg); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.model, "model", "", "subspace model file")
	f.StringVar(&opts.manifest, "manifest", "", "identity list, one id per line")
	f.StringVar(&opts.images, "images", "", "image root holding one directory per tag")
	f.StringVar(&opts.gallery, "gallery", dataset.DefaultTags[0], "gallery tag")
	f.StringSliceVar(&opts.probes, "probes", append([]string(nil), dataset.DefaultTags[1:]...), "probe tags")
	f.StringVar(&opts.galleryIPC, "gallery-ipc", "", "gallery set as an Arrow IPC stream")
	f.StringSliceVar(&opts.probeIPC, "probe-ipc", nil, "probe sets as Arrow IPC streams")
	f.StringVar(&opts.dims, "dims", "", "dimensions, e.g. 10,20 or 10:100:10 (overrides EIGENCMC_DIMENSIONS)")
	f.StringVar(&opts.policy, "policy", "", "failure policy: abort or continue (overrides EIGENCMC_POLICY)")
	f.IntVar(&opts.workers, "workers", 0, "dimensions evaluated concurrently (overrides EIGENCMC_WORKERS)")
	f.StringVar(&opts.output, "output", "", "report directory (overrides EIGENCMC_OUTPUT_DIR)")
	_ = cmd.MarkFlagRequired("model")
	cmd.MarkFlagsRequiredTogether("manifest", "images")
	cmd.MarkFlagsRequiredTogether("gallery-ipc", "probe-ipc")
	cmd.MarkFlagsMutuallyExclusive("images", "gallery-ipc")
	cmd.MarkFlagsOneRequired("images", "gallery-ipc")
	return cmd
}

func applyOverrides(cmd *cobra.Command, cfg *Config, opts *runOptions) {
	if cmd.Flags().Changed("dims") {
		cfg.Dimensions = opts.dims
	}
	if cmd.Flags().Changed("policy") {
		cfg.Policy = opts.policy
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = opts.workers
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = opts.output
	}
}

func (a *app) run(ctx context.Context, opts *runOptions) (err error) {
	runID := uuid.NewString()
	log := a.logger.With().Str("run_id", runID).Logger()

	stopMetrics := startMetricsServer(a.cfg.MetricsAddr, log)
	defer stopMetrics()

	model, err := subspace.Load(opts.model)
	if err != nil {
		return err
	}
	gallery, probes, err := a.loadSets(ctx, opts)
	if err != nil {
		return err
	}
	for _, ts := range append([]taggedSet{gallery}, probes...) {
		if ts.set.Dim() != model.Dim() {
			return cerrors.NewValidationError("run", "sample length does not match model").
				WithContext("tag", ts.tag).
				WithContext("sample_dim", ts.set.Dim()).
				WithContext("model_dim", model.Dim())
		}
	}

	engineOpts := []similarity.Option{
		similarity.WithMetric(core.DistanceMetric(a.cfg.DistanceMetric)),
		similarity.WithLogger(log),
	}
	if a.cfg.EngineWorkers > 0 {
		engineOpts = append(engineOpts, similarity.WithWorkers(a.cfg.EngineWorkers))
	}
	engine, err := similarity.NewEngine(engineOpts...)
	if err != nil {
		return err
	}
	ctrl, err := sweep.New(engine, sweep.Config{
		MaxRank: a.cfg.MaxRank,
		Policy:  sweep.Policy(a.cfg.Policy),
		Workers: a.cfg.Workers,
	}, log)
	if err != nil {
		return err
	}

	sinks, err := a.openSinks(runID)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sinks.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	log.Info().
		Str("model", opts.model).
		Int("model_dim", model.Dim()).
		Int("components", model.MaxComponents()).
		Ints("dims", a.cfg.Dims()).
		Msg("Starting evaluation")

	failed := 0
	for _, probe := range probes {
		g, p, err := dataset.Align(gallery.set, probe.set)
		if err != nil {
			return err
		}
		job := sweep.Job{
			Name:     gallery.tag + "_" + probe.tag,
			Subspace: model,
			Gallery:  g.Samples,
			Probe:    p.Samples,
			Dims:     a.cfg.Dims(),
		}
		results, err := ctrl.RunTo(ctx, job, sinks)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
	}

	log.Info().Int("jobs", len(probes)).Int("failed_dimensions", failed).Str("output", a.cfg.OutputDir).Msg("Evaluation finished")
	return nil
}

func (a *app) openSinks(runID string) (storage.MultiSink, error) {
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return nil, cerrors.WrapStorageError(err, "run", "failed to create output directory").WithContext("path", a.cfg.OutputDir)
	}
	sinks := storage.MultiSink{storage.NewCSVSink(a.cfg.OutputDir)}
	if a.cfg.Parquet {
		sinks = append(sinks, storage.NewParquetSink(filepath.Join(a.cfg.OutputDir, "cmc_"+runID+".parquet"), runID))
	}
	return sinks, nil
}

func (a *app) loadSets(ctx context.Context, opts *runOptions) (taggedSet, []taggedSet, error) {
	if opts.galleryIPC != "" {
		return loadIPCSets(opts.galleryIPC, opts.probeIPC)
	}

	ids, err := dataset.ReadManifestFile(opts.manifest)
	if err != nil {
		return taggedSet{}, nil, err
	}
	if len(opts.probes) == 0 {
		return taggedSet{}, nil, errors.New("at least one probe tag is required")
	}
	loader := dataset.NewImageLoader(opts.images, a.logger)
	gallery, err := loader.Load(ctx, core.SetGallery, opts.gallery, ids)
	if err != nil {
		return taggedSet{}, nil, err
	}
	probes := make([]taggedSet, 0, len(opts.probes))
	for _, tag := range opts.probes {
		set, err := loader.Load(ctx, core.SetProbe, tag, ids)
		if err != nil {
			return taggedSet{}, nil, err
		}
		probes = append(probes, taggedSet{tag: tag, set: set})
	}
	return taggedSet{tag: opts.gallery, set: gallery}, probes, nil
}

func loadIPCSets(galleryPath string, probePaths []string) (taggedSet, []taggedSet, error) {
	gallery, err := dataset.ReadIPCFile(galleryPath, core.SetGallery)
	if err != nil {
		return taggedSet{}, nil, err
	}
	probes := make([]taggedSet, 0, len(probePaths))
	for _, path := range probePaths {
		set, err := dataset.ReadIPCFile(path, core.SetProbe)
		if err != nil {
			return taggedSet{}, nil, err
		}
		probes = append(probes, taggedSet{tag: fileTag(path), set: set})
	}
	return taggedSet{tag: fileTag(galleryPath), set: gallery}, probes, nil
}

// fileTag turns "data/fb.arrow" into "fb".
func fileTag(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
