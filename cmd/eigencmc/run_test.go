package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/eigencmc/internal/core"
	cerrors "github.com/23skdu/eigencmc/internal/errors"
	"github.com/23skdu/eigencmc/internal/dataset"
	"github.com/23skdu/eigencmc/internal/storage"
	"github.com/23skdu/eigencmc/internal/subspace"
)

type fixture struct {
	model, gallery, probe, out string
}

func writeFixture(t *testing.T, dim int) fixture {
	t.Helper()
	dir := t.TempDir()
	basis := make([][]float64, dim)
	for c := range basis {
		basis[c] = make([]float64, dim)
		basis[c][c] = 1
	}
	model, err := subspace.New(make([]float64, dim), basis)
	require.NoError(t, err)
	fx := fixture{
		model:   filepath.Join(dir, "eigen.bin"),
		gallery: filepath.Join(dir, "fa.arrow"),
		probe:   filepath.Join(dir, "fb.arrow"),
		out:     filepath.Join(dir, "outputs"),
	}
	require.NoError(t, model.Save(fx.model))

	writeSet := func(path string, set *dataset.Set) {
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, dataset.WriteIPC(f, set))
		require.NoError(t, f.Close())
	}
	writeSet(fx.gallery, &dataset.Set{
		Name:    core.SetGallery,
		IDs:     []int{1, 2, 3},
		Samples: [][]float64{{10, 0, 0, 0}, {0, 10, 0, 0}, {0, 0, 10, 0}},
	})
	writeSet(fx.probe, &dataset.Set{
		Name:    core.SetProbe,
		IDs:     []int{3, 1},
		Samples: [][]float64{{0, 0, 9, 1}, {9, 1, 0, 0}},
	})
	return fx
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("EIGENCMC_LOG_LEVEL", "error")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand_IPC(t *testing.T) {
	fx := writeFixture(t, 4)

	_, err := execute(t, "run",
		"--model", fx.model,
		"--gallery-ipc", fx.gallery,
		"--probe-ipc", fx.probe,
		"--dims", "1,2",
		"--output", fx.out,
	)
	require.NoError(t, err)

	k1, err := os.ReadFile(filepath.Join(fx.out, "fa_fb", "cmc_fa_fb_1.csv"))
	require.NoError(t, err)
	assert.Equal(t, "1,50\n2,100\n3,100\n", string(k1))

	k2, err := os.ReadFile(filepath.Join(fx.out, "fa_fb", "cmc_fa_fb_2.csv"))
	require.NoError(t, err)
	assert.Equal(t, "1,100\n2,100\n3,100\n", string(k2))

	timing, err := os.ReadFile(filepath.Join(fx.out, "fa_fb", "time.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(timing), "dims(1): Takes: ")
	assert.Contains(t, string(timing), "dims(2): Takes: ")

	reports, err := filepath.Glob(filepath.Join(fx.out, "cmc_*.parquet"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	rows, err := storage.ReadParquet(reports[0])
	require.NoError(t, err)
	assert.Len(t, rows, 6)

	summary, err := execute(t, "summarize", "--report", reports[0])
	require.NoError(t, err)
	assert.Contains(t, summary, "fa_fb")
	assert.Contains(t, summary, "RANK1")
}

func TestRunCommand_ContinuesPastInvalidDimension(t *testing.T) {
	fx := writeFixture(t, 4)

	_, err := execute(t, "run",
		"--model", fx.model,
		"--gallery-ipc", fx.gallery,
		"--probe-ipc", fx.probe,
		"--dims", "9,1",
		"--policy", "continue",
		"--output", fx.out,
	)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(fx.out, "fa_fb", "cmc_fa_fb_9.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(fx.out, "fa_fb", "cmc_fa_fb_1.csv"))
	assert.NoError(t, err)
}

func TestRunCommand_AbortsOnInvalidDimension(t *testing.T) {
	fx := writeFixture(t, 4)

	_, err := execute(t, "run",
		"--model", fx.model,
		"--gallery-ipc", fx.gallery,
		"--probe-ipc", fx.probe,
		"--dims", "9",
		"--policy", "abort",
		"--output", fx.out,
	)
	assert.ErrorIs(t, err, core.ErrInvalidDimension)
}

func TestRunCommand_ModelMismatch(t *testing.T) {
	fx := writeFixture(t, 4)
	basis := [][]float64{{1, 0, 0}}
	small, err := subspace.New([]float64{0, 0, 0}, basis)
	require.NoError(t, err)
	require.NoError(t, small.Save(fx.model))

	_, err = execute(t, "run",
		"--model", fx.model,
		"--gallery-ipc", fx.gallery,
		"--probe-ipc", fx.probe,
		"--dims", "1",
		"--output", fx.out,
	)
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeValidation))
}

func TestRunCommand_InvalidOverrides(t *testing.T) {
	fx := writeFixture(t, 4)
	_, err := execute(t, "run",
		"--model", fx.model,
		"--gallery-ipc", fx.gallery,
		"--probe-ipc", fx.probe,
		"--policy", "sometimes",
	)
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	_, err = execute(t, "run", "--model", fx.model)
	assert.Error(t, err)
}

func TestFileTag(t *testing.T) {
	assert.Equal(t, "fb", fileTag("/data/sets/fb.arrow"))
	assert.Equal(t, "ql", fileTag("ql"))
}

func TestRunCommand_DefaultTags(t *testing.T) {
	cmd := newRunCmd(&app{})
	assert.Equal(t, "fa", cmd.Flags().Lookup("gallery").DefValue)
	assert.Equal(t, "[fb,ql,qr]", cmd.Flags().Lookup("probes").DefValue)
}
