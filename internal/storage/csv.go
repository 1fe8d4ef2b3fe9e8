// Package storage writes evaluated CMC curves to report files and reads them
// back for analysis.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	cerrors "github.com/23skdu/eigencmc/internal/errors"
	"github.com/23skdu/eigencmc/internal/metrics"
	"github.com/23skdu/eigencmc/internal/pool"
	"github.com/23skdu/eigencmc/internal/sweep"
)

const timingFileName = "time.txt"

var csvBuffers = pool.NewBufferPool("csv")

// CSVSink writes one directory per job under Dir holding a
// cmc_<job>_<dimension>.csv file per dimension and a time.txt log.
// The timing log of a job is truncated the first time the sink sees that job.
type CSVSink struct {
	Dir string

	mu      sync.Mutex
	started map[string]struct{}
}

// NewCSVSink creates a sink rooted at dir.
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{Dir: dir}
}

// CurvePath returns the file a curve for job and dimension is written to.
func (s *CSVSink) CurvePath(job string, dimension int) string {
	return filepath.Join(s.Dir, job, fmt.Sprintf("cmc_%s_%d.csv", job, dimension))
}

// TimingPath returns the timing log for job.
func (s *CSVSink) TimingPath(job string) string {
	return filepath.Join(s.Dir, job, timingFileName)
}

// Write stores a finished curve. Failed results are skipped.
func (s *CSVSink) Write(ctx context.Context, r sweep.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.startJob(r.Name); err != nil {
		return err
	}
	if r.Err != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(s.Dir, r.Name), 0o755); err != nil {
		return cerrors.WrapStorageError(err, "csv_write", "failed to create job directory").WithContext("job", r.Name)
	}

	b := csvBuffers.Get()
	defer csvBuffers.Put(b)
	for _, p := range r.Curve {
		b.WriteString(strconv.Itoa(p.Rank))
		b.WriteByte(',')
		b.WriteString(FormatRate(p.Rate))
		b.WriteByte('\n')
	}
	path := s.CurvePath(r.Name, r.Dimension)
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		return cerrors.WrapStorageError(err, "csv_write", "failed to write curve").WithContext("path", path)
	}

	if err := s.appendTiming(r); err != nil {
		return err
	}
	metrics.ReportRowsWritten.WithLabelValues("csv").Add(float64(r.Curve.Len()))
	return nil
}

// startJob clears a timing log left by an earlier run.
func (s *CSVSink) startJob(job string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.started[job]; ok {
		return nil
	}
	if s.started == nil {
		s.started = make(map[string]struct{})
	}
	path := s.TimingPath(job)
	if err := os.Truncate(path, 0); err != nil && !os.IsNotExist(err) {
		return cerrors.WrapStorageError(err, "csv_write", "failed to reset timing log").WithContext("path", path)
	}
	s.started[job] = struct{}{}
	return nil
}

func (s *CSVSink) appendTiming(r sweep.Result) error {
	path := s.TimingPath(r.Name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return cerrors.WrapStorageError(err, "csv_write", "failed to open timing log").WithContext("path", path)
	}
	if _, err := f.WriteString(TimingLine(r.Dimension, r.Elapsed.Minutes())); err != nil {
		_ = f.Close()
		return cerrors.WrapStorageError(err, "csv_write", "failed to append timing").WithContext("path", path)
	}
	if err := f.Close(); err != nil {
		return cerrors.WrapStorageError(err, "csv_write", "failed to close timing log").WithContext("path", path)
	}
	return nil
}

// FormatRate renders a rate with up to six significant digits, e.g. 100 or
// 33.3333.
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'g', 6, 64)
}

// TimingLine formats one time.txt entry.
func TimingLine(dimension int, minutes float64) string {
	return fmt.Sprintf("dims(%d): Takes: %.2f mins.\n", dimension, minutes)
}
