package subspace

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	cerrors "github.com/23skdu/eigencmc/internal/errors"
)

const (
	magic         = "ESUB"
	formatVersion = 1
	headerSize    = 16
)

// Serialize converts the subspace into a byte slice for persistence.
// Format:
// [4 bytes] magic "ESUB"
// [4 bytes] version
// [4 bytes] Dim
// [4 bytes] MaxComponents
// [Dim * 8 bytes] mean (float64)
// [MaxComponents * Dim * 8 bytes] basis rows (float64)
func (s *Subspace) Serialize() []byte {
	dim, m := s.Dim(), s.MaxComponents()
	data := make([]byte, headerSize+(dim+m*dim)*8)

	copy(data[0:], magic)
	binary.LittleEndian.PutUint32(data[4:], formatVersion)
	binary.LittleEndian.PutUint32(data[8:], uint32(dim))
	binary.LittleEndian.PutUint32(data[12:], uint32(m))

	offset := headerSize
	for _, v := range s.mean {
		binary.LittleEndian.PutUint64(data[offset:], math.Float64bits(v))
		offset += 8
	}
	for c := 0; c < m; c++ {
		for _, v := range s.basis.RawRowView(c) {
			binary.LittleEndian.PutUint64(data[offset:], math.Float64bits(v))
			offset += 8
		}
	}
	return data
}

// Deserialize reconstructs a subspace from a byte slice.
func Deserialize(data []byte) (*Subspace, error) {
	if len(data) < headerSize {
		return nil, cerrors.NewStorageError("deserialize_subspace", "invalid subspace data: too short")
	}
	if string(data[0:4]) != magic {
		return nil, cerrors.NewStorageError("deserialize_subspace", "invalid subspace data: bad magic")
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != formatVersion {
		return nil, cerrors.NewStorageError("deserialize_subspace", fmt.Sprintf("unsupported format version %d", v))
	}

	dim := int(binary.LittleEndian.Uint32(data[8:]))
	m := int(binary.LittleEndian.Uint32(data[12:]))
	if dim == 0 || m == 0 {
		return nil, cerrors.NewStorageError("deserialize_subspace", "invalid subspace parameters in serialized data")
	}
	if uint64(dim)*(uint64(m)+1) > uint64(len(data)-headerSize)/8 {
		return nil, cerrors.NewStorageError("deserialize_subspace", "invalid subspace data: header exceeds payload").
			WithContext("dim", dim).
			WithContext("components", m).
			WithContext("actual", len(data))
	}
	expected := headerSize + (dim+m*dim)*8
	if len(data) != expected {
		return nil, cerrors.NewStorageError("deserialize_subspace", "invalid subspace data: size mismatch").
			WithContext("expected", expected).
			WithContext("actual", len(data))
	}

	offset := headerSize
	read := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[offset:]))
			offset += 8
		}
		return out
	}

	mean := read(dim)
	basis := make([][]float64, m)
	for c := range basis {
		basis[c] = read(dim)
	}

	s, err := New(mean, basis)
	if err != nil {
		return nil, cerrors.WrapStorageError(err, "deserialize_subspace", "serialized subspace is invalid")
	}
	return s, nil
}

// Save writes the serialized subspace to path.
func (s *Subspace) Save(path string) error {
	if err := os.WriteFile(path, s.Serialize(), 0o644); err != nil {
		return cerrors.WrapStorageError(err, "save_subspace", "failed to write model file").WithContext("path", path)
	}
	return nil
}

// Load reads a subspace written by Save.
func Load(path string) (*Subspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.WrapStorageError(err, "load_subspace", "failed to read model file").WithContext("path", path)
	}
	return Deserialize(data)
}
