// Package vectorize flattens two-dimensional samples into fixed-length vectors.
package vectorize

import (
	"fmt"
	"image"
	"image/color"

	"github.com/23skdu/eigencmc/internal/core"
)

// FlattenGray flattens an image row by row into its 8-bit luminance values.
// The result has Bounds().Dx()*Bounds().Dy() entries in [0, 255].
func FlattenGray(img image.Image) []float64 {
	b := img.Bounds()
	out := make([]float64, 0, b.Dx()*b.Dy())

	if g, ok := img.(*image.Gray); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := g.Pix[g.PixOffset(b.Min.X, y):g.PixOffset(b.Max.X, y)]
			for _, p := range row {
				out = append(out, float64(p))
			}
		}
		return out
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			out = append(out, float64(g.Y))
		}
	}
	return out
}

// FlattenGrid flattens a rectangular grid row by row.
func FlattenGrid(rows [][]float64) ([]float64, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, core.NewInvalidSampleError(core.SetSample, 0, "empty grid")
	}
	width := len(rows[0])
	out := make([]float64, 0, len(rows)*width)
	for i, r := range rows {
		if len(r) != width {
			return nil, core.NewInvalidSampleError(core.SetSample, i, fmt.Sprintf("ragged row: width %d, want %d", len(r), width))
		}
		out = append(out, r...)
	}
	return out, nil
}
