package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"os"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/ecadlab/boardsnap/pkg/errors"
)

// Rasterization bounds. An SVG with no usable intrinsic size gets the
// default dimensions; anything larger than the maximum is clamped so a
// board with a huge bounding box cannot allocate an unbounded bitmap.
const (
	DefaultRasterWidth  = 1400
	DefaultRasterHeight = 1000
	MinRasterDim        = 1
	MaxRasterDim        = 2000
)

// RasterizeSVGFile rasterizes the SVG document at path.
// See [RasterizeSVG] for sizing and background semantics.
func RasterizeSVGFile(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "read svg %s", path)
	}
	return RasterizeSVG(data)
}

// RasterizeSVG rasterizes an SVG document into an opaque bitmap. Output
// dimensions are the document's intrinsic size clamped to
// [MinRasterDim, MaxRasterDim] per axis, or the defaults when the document
// declares no size. The canvas is filled white before drawing so exported
// line art stays legible regardless of the document background.
func RasterizeSVG(data []byte) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "parse svg")
	}

	w := clampDim(int(icon.ViewBox.W), DefaultRasterWidth)
	h := clampDim(int(icon.ViewBox.H), DefaultRasterHeight)
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return img, nil
}

// clampDim maps a declared dimension into the allowed range, substituting
// def when the document declares nothing useful.
func clampDim(v, def int) int {
	if v <= 0 {
		v = def
	}
	if v < MinRasterDim {
		return MinRasterDim
	}
	if v > MaxRasterDim {
		return MaxRasterDim
	}
	return v
}
