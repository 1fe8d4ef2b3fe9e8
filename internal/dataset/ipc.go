package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/eigencmc/internal/core"
	cerrors "github.com/23skdu/eigencmc/internal/errors"
	"github.com/23skdu/eigencmc/internal/vectorize"
)

const (
	idColumn     = "id"
	sampleColumn = "sample"
)

func setSchema(dim int) *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: idColumn, Type: arrow.PrimitiveTypes.Int32},
			{Name: sampleColumn, Type: arrow.FixedSizeListOf(int32(dim), arrow.PrimitiveTypes.Float64)},
		},
		nil,
	)
}

// WriteIPC writes set as a single-record Arrow IPC stream.
func WriteIPC(w io.Writer, set *Set) error {
	if err := set.Validate(); err != nil {
		return err
	}
	mem := memory.NewGoAllocator()
	schema := setSchema(set.Dim())

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	idBuilder := b.Field(0).(*array.Int32Builder)
	listBuilder := b.Field(1).(*array.FixedSizeListBuilder)
	valBuilder := listBuilder.ValueBuilder().(*array.Float64Builder)
	for i, sample := range set.Samples {
		idBuilder.Append(int32(set.IDs[i]))
		listBuilder.Append(true)
		valBuilder.AppendValues(sample, nil)
	}

	rec := b.NewRecord()
	defer rec.Release()

	wr := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := wr.Write(rec); err != nil {
		_ = wr.Close()
		return cerrors.WrapStorageError(err, "write_ipc", "failed to write record")
	}
	if err := wr.Close(); err != nil {
		return cerrors.WrapStorageError(err, "write_ipc", "failed to close writer")
	}
	return nil
}

// ReadIPC reads every record of an Arrow IPC stream into one Set. The sample
// column may hold float32 or float64 values, or fixed size lists of them for
// 2-D samples.
func ReadIPC(r io.Reader, name core.SetName) (*Set, error) {
	mem := memory.NewGoAllocator()
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, cerrors.WrapStorageError(err, "read_ipc", "failed to open stream")
	}
	defer rdr.Release()

	set := &Set{Name: name}
	for rdr.Next() {
		if err := appendRecord(set, rdr.Record()); err != nil {
			return nil, err
		}
	}
	if err := rdr.Err(); err != nil && err != io.EOF {
		return nil, cerrors.WrapStorageError(err, "read_ipc", "failed to read record")
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// ReadIPCFile opens path and reads it with ReadIPC.
func ReadIPCFile(path string, name core.SetName) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cerrors.WrapStorageError(err, "read_ipc", "failed to open file").WithContext("path", path)
	}
	defer func() { _ = f.Close() }()
	return ReadIPC(f, name)
}

func appendRecord(set *Set, rec arrow.Record) error {
	idIdx := rec.Schema().FieldIndices(idColumn)
	sampleIdx := rec.Schema().FieldIndices(sampleColumn)
	if len(idIdx) == 0 || len(sampleIdx) == 0 {
		return cerrors.NewValidationError("read_ipc", "schema must have id and sample columns")
	}

	ids, ok := rec.Column(idIdx[0]).(*array.Int32)
	if !ok {
		return cerrors.NewValidationError("read_ipc", fmt.Sprintf("id column has type %s, want int32", rec.Column(idIdx[0]).DataType()))
	}
	list, ok := rec.Column(sampleIdx[0]).(*array.FixedSizeList)
	if !ok {
		return cerrors.NewValidationError("read_ipc", fmt.Sprintf("sample column has type %s, want fixed_size_list", rec.Column(sampleIdx[0]).DataType()))
	}

	for i := 0; i < int(rec.NumRows()); i++ {
		if ids.IsNull(i) || list.IsNull(i) {
			return core.NewInvalidSampleError(set.Name, set.Len(), "null row")
		}
		start, end := list.ValueOffsets(i)
		sample, err := sampleValues(list.ListValues(), start, end)
		if err != nil {
			return core.NewInvalidSampleError(set.Name, set.Len(), err.Error())
		}
		set.IDs = append(set.IDs, int(ids.Value(i)))
		set.Samples = append(set.Samples, sample)
	}
	return nil
}

// sampleValues reads elements [start, end) of a sample column. Elements are
// float64 or float32 values, or fixed size lists of them holding the rows of
// a 2-D sample, which are flattened row by row.
func sampleValues(values arrow.Array, start, end int64) ([]float64, error) {
	switch v := values.(type) {
	case *array.Float64:
		return append([]float64(nil), v.Float64Values()[start:end]...), nil
	case *array.Float32:
		out := make([]float64, 0, end-start)
		for _, f := range v.Float32Values()[start:end] {
			out = append(out, float64(f))
		}
		return out, nil
	case *array.FixedSizeList:
		rows := make([][]float64, 0, end-start)
		for r := start; r < end; r++ {
			if v.IsNull(int(r)) {
				return nil, fmt.Errorf("null row %d", r-start)
			}
			rs, re := v.ValueOffsets(int(r))
			row, err := sampleValues(v.ListValues(), rs, re)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		return vectorize.FlattenGrid(rows)
	default:
		return nil, fmt.Errorf("unsupported sample element type %s", values.DataType())
	}
}
