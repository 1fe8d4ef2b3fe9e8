package dataset

import (
	"bufio"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/23skdu/eigencmc/internal/core"
	cerrors "github.com/23skdu/eigencmc/internal/errors"
	"github.com/23skdu/eigencmc/internal/vectorize"
)

// ReadManifest reads one identity per line. Blank lines are skipped and every
// identity must be an integer; the original spelling is kept for file names.
func ReadManifest(r io.Reader) ([]string, error) {
	var ids []string
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		id := strings.TrimSpace(sc.Text())
		if id == "" {
			continue
		}
		if _, err := strconv.Atoi(id); err != nil {
			return nil, cerrors.WrapValidationError(err, "read_manifest", "identity is not an integer").
				WithContext("line", line)
		}
		ids = append(ids, id)
	}
	if err := sc.Err(); err != nil {
		return nil, cerrors.WrapStorageError(err, "read_manifest", "failed to read manifest")
	}
	if len(ids) == 0 {
		return nil, core.NewEmptyInputError(core.SetGallery)
	}
	return ids, nil
}

// ReadManifestFile opens path and reads it with ReadManifest.
func ReadManifestFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cerrors.WrapStorageError(err, "read_manifest", "failed to open manifest").WithContext("path", path)
	}
	defer func() { _ = f.Close() }()
	return ReadManifest(f)
}

// ImageLoader reads <Root>/<tag>/<id>_<tag>.<ext> images.
type ImageLoader struct {
	Root       string
	Extensions []string
	Logger     zerolog.Logger
}

// NewImageLoader creates a loader trying .jpg then .png.
//
//nolint:gocritic // Logger passed by value for constructor simplicity
func NewImageLoader(root string, logger zerolog.Logger) *ImageLoader {
	return &ImageLoader{
		Root:       root,
		Extensions: []string{".jpg", ".png"},
		Logger:     logger.With().Str("component", "dataset").Logger(),
	}
}

// Load reads one image per identity for tag and flattens it to grayscale.
func (l *ImageLoader) Load(ctx context.Context, name core.SetName, tag string, ids []string) (*Set, error) {
	set := &Set{Name: name}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label, err := strconv.Atoi(id)
		if err != nil {
			return nil, cerrors.WrapValidationError(err, "load_images", "identity is not an integer").WithContext("id", id)
		}
		img, path, err := l.open(tag, id)
		if err != nil {
			return nil, err
		}
		sample := vectorize.FlattenGray(img)
		if set.Len() > 0 && len(sample) != set.Dim() {
			return nil, core.NewInvalidSampleError(name, set.Len(),
				fmt.Sprintf("%s has %d pixels, want %d", path, len(sample), set.Dim()))
		}
		set.IDs = append(set.IDs, label)
		set.Samples = append(set.Samples, sample)
	}
	if set.Len() == 0 {
		return nil, core.NewEmptyInputError(name)
	}
	l.Logger.Debug().Str("tag", tag).Int("samples", set.Len()).Int("dim", set.Dim()).Msg("image set loaded")
	return set, nil
}

func (l *ImageLoader) open(tag, id string) (image.Image, string, error) {
	var lastErr error
	for _, ext := range l.Extensions {
		path := filepath.Join(l.Root, tag, id+"_"+tag+ext)
		f, err := os.Open(path)
		if err != nil {
			lastErr = err
			continue
		}
		img, _, err := image.Decode(f)
		_ = f.Close()
		if err != nil {
			return nil, path, cerrors.WrapValidationError(err, "load_images", "failed to decode image").WithContext("path", path)
		}
		return img, path, nil
	}
	return nil, "", cerrors.WrapStorageError(lastErr, "load_images", "image not found").
		WithContext("tag", tag).
		WithContext("id", id)
}
