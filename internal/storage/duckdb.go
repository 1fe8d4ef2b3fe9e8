package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // registers the duckdb driver

	cerrors "github.com/23skdu/eigencmc/internal/errors"
)

// SummaryRow is the rank-1 rate and timing of one evaluated dimension.
type SummaryRow struct {
	RunID     string
	Job       string
	Dimension int
	Rank1Rate float64
	ElapsedMS int64
}

// DuckDBAdapter runs analytical queries over Parquet reports.
type DuckDBAdapter struct{}

// NewDuckDBAdapter creates an adapter backed by in-memory DuckDB databases.
func NewDuckDBAdapter() *DuckDBAdapter {
	return &DuckDBAdapter{}
}

const summaryQuery = `SELECT run_id, job, dimension,
	max(CASE WHEN "rank" = 1 THEN rate END) AS rank1,
	max(elapsed_ms) AS elapsed_ms
FROM reports
GROUP BY run_id, job, dimension
ORDER BY run_id, job, dimension`

// Summary reads the report at path (a file or glob) and returns one row per
// run, job and dimension.
func (d *DuckDBAdapter) Summary(ctx context.Context, path string) ([]SummaryRow, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, cerrors.WrapStorageError(err, "summary", "failed to open duckdb")
	}
	defer func() { _ = db.Close() }()

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, cerrors.WrapStorageError(err, "summary", "failed to open conn")
	}
	defer func() { _ = conn.Close() }()

	createView := fmt.Sprintf("CREATE VIEW reports AS SELECT * FROM read_parquet('%s')", quoteLiteral(path))
	if _, err := conn.ExecContext(ctx, createView); err != nil {
		return nil, cerrors.WrapStorageError(err, "summary", "failed to create view for report").WithContext("path", path)
	}

	rows, err := conn.QueryContext(ctx, summaryQuery)
	if err != nil {
		return nil, cerrors.WrapStorageError(err, "summary", "query execution failed").WithContext("path", path)
	}
	defer func() { _ = rows.Close() }()

	var out []SummaryRow
	for rows.Next() {
		var (
			r     SummaryRow
			rank1 sql.NullFloat64
		)
		if err := rows.Scan(&r.RunID, &r.Job, &r.Dimension, &rank1, &r.ElapsedMS); err != nil {
			return nil, cerrors.WrapStorageError(err, "summary", "failed to scan row")
		}
		r.Rank1Rate = rank1.Float64
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.WrapStorageError(err, "summary", "failed to iterate rows")
	}
	return out, nil
}

func quoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
