package storage

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	cerrors "github.com/23skdu/eigencmc/internal/errors"
	"github.com/23skdu/eigencmc/internal/metrics"
	"github.com/23skdu/eigencmc/internal/sweep"
)

// CMCRecord is one (dimension, rank) point of a run.
type CMCRecord struct {
	RunID     string  `parquet:"run_id"`
	Job       string  `parquet:"job"`
	Dimension int32   `parquet:"dimension"`
	Rank      int32   `parquet:"rank"`
	Rate      float64 `parquet:"rate"`
	ElapsedMS int64   `parquet:"elapsed_ms"`
}

// ParquetSink buffers CMC points and writes them to a single zstd compressed
// Parquet file on Close.
type ParquetSink struct {
	path  string
	runID string

	mu     sync.Mutex
	rows   []CMCRecord
	closed bool
}

// NewParquetSink creates a sink that writes to path on Close.
func NewParquetSink(path, runID string) *ParquetSink {
	return &ParquetSink{path: path, runID: runID}
}

// Path returns the output file.
func (s *ParquetSink) Path() string { return s.path }

// Write buffers every point of a finished curve. Failed results are skipped.
func (s *ParquetSink) Write(_ context.Context, r sweep.Result) error {
	if r.Err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return cerrors.NewStorageError("parquet_write", "sink is closed").WithContext("path", s.path)
	}
	for _, p := range r.Curve {
		s.rows = append(s.rows, CMCRecord{
			RunID:     s.runID,
			Job:       r.Name,
			Dimension: int32(r.Dimension),
			Rank:      int32(p.Rank),
			Rate:      p.Rate,
			ElapsedMS: r.Elapsed.Milliseconds(),
		})
	}
	return nil
}

// Close flushes the buffered rows. Closing twice is a no-op.
func (s *ParquetSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	f, err := os.Create(s.path)
	if err != nil {
		return cerrors.WrapStorageError(err, "parquet_write", "failed to create report").WithContext("path", s.path)
	}
	if err := writeRecords(f, s.rows); err != nil {
		_ = f.Close()
		return cerrors.WrapStorageError(err, "parquet_write", "failed to write report").WithContext("path", s.path)
	}
	if err := f.Close(); err != nil {
		return cerrors.WrapStorageError(err, "parquet_write", "failed to close report").WithContext("path", s.path)
	}
	metrics.ReportRowsWritten.WithLabelValues("parquet").Add(float64(len(s.rows)))
	return nil
}

// recordsPerRowGroup bounds the rows buffered before a row group is flushed.
const recordsPerRowGroup = 4096

func writeRecords(w io.Writer, rows []CMCRecord) error {
	return writeRecordGroups(w, rows, recordsPerRowGroup)
}

func writeRecordGroups(w io.Writer, rows []CMCRecord, groupSize int) error {
	pw := parquet.NewGenericWriter[CMCRecord](w, parquet.Compression(&parquet.Zstd))
	for start := 0; start < len(rows); start += groupSize {
		end := min(start+groupSize, len(rows))
		if _, err := pw.Write(rows[start:end]); err != nil {
			_ = pw.Close()
			return err
		}
		if err := pw.Flush(); err != nil {
			_ = pw.Close()
			return err
		}
	}
	return pw.Close()
}

// ReadParquet loads every record of a report file.
func ReadParquet(path string) ([]CMCRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cerrors.WrapStorageError(err, "parquet_read", "failed to open report").WithContext("path", path)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, cerrors.WrapStorageError(err, "parquet_read", "failed to stat report").WithContext("path", path)
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, cerrors.WrapStorageError(err, "parquet_read", "invalid parquet file").WithContext("path", path)
	}

	pr := parquet.NewGenericReader[CMCRecord](pf)
	defer func() { _ = pr.Close() }()
	rows := make([]CMCRecord, pr.NumRows())
	n := 0
	for n < len(rows) {
		got, err := pr.Read(rows[n:])
		n += got
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, cerrors.WrapStorageError(err, "parquet_read", "failed to read rows").WithContext("path", path)
		}
		if got == 0 {
			break
		}
	}
	return rows[:n], nil
}

// Elapsed converts a record's elapsed field back to a duration.
func (r CMCRecord) Elapsed() time.Duration {
	return time.Duration(r.ElapsedMS) * time.Millisecond
}
