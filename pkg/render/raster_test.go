package render

import (
	"image/color"
	"testing"

	"github.com/ecadlab/boardsnap/pkg/errors"
)

func TestRasterizeSVGIntrinsicSize(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="120" height="80">
  <rect x="10" y="10" width="100" height="60" fill="#000000"/>
</svg>`
	img, err := RasterizeSVG([]byte(svg))
	if err != nil {
		t.Fatalf("RasterizeSVG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 120 || bounds.Dy() != 80 {
		t.Errorf("dimensions = %dx%d, want 120x80", bounds.Dx(), bounds.Dy())
	}

	// Background outside the shape is opaque white; the shape darkened it.
	if got := img.At(2, 2); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("background pixel = %v, want opaque white", got)
	}
	r, g, b, _ := img.At(60, 40).RGBA()
	if r == 0xffff && g == 0xffff && b == 0xffff {
		t.Error("shape pixel is still white; nothing was drawn")
	}
}

func TestRasterizeSVGClampsOversize(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="5000" height="3000"></svg>`
	img, err := RasterizeSVG([]byte(svg))
	if err != nil {
		t.Fatalf("RasterizeSVG: %v", err)
	}
	if img.Bounds().Dx() != MaxRasterDim || img.Bounds().Dy() != MaxRasterDim {
		t.Errorf("dimensions = %v, want clamped to %d", img.Bounds(), MaxRasterDim)
	}
}

func TestRasterizeSVGDefaultsWhenSizeless(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg"></svg>`
	img, err := RasterizeSVG([]byte(svg))
	if err != nil {
		t.Fatalf("RasterizeSVG: %v", err)
	}
	if img.Bounds().Dx() != DefaultRasterWidth || img.Bounds().Dy() != DefaultRasterHeight {
		t.Errorf("dimensions = %v, want defaults %dx%d", img.Bounds(), DefaultRasterWidth, DefaultRasterHeight)
	}
}

func TestRasterizeSVGRejectsGarbage(t *testing.T) {
	if _, err := RasterizeSVG([]byte("not an svg document")); err == nil {
		t.Fatal("expected error for non-SVG input")
	} else if !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("error code = %v, want INVALID_IMAGE", errors.GetCode(err))
	}
}

func TestRasterizeSVGFileMissing(t *testing.T) {
	if _, err := RasterizeSVGFile("/nonexistent/doc.svg"); !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("error code = %v, want INVALID_IMAGE", errors.GetCode(err))
	}
}

func TestClampDim(t *testing.T) {
	tests := []struct {
		v, def, want int
	}{
		{0, 1400, 1400},
		{-5, 1000, 1000},
		{1, 1400, 1},
		{2000, 1400, 2000},
		{2001, 1400, 2000},
		{640, 1400, 640},
	}
	for _, tt := range tests {
		if got := clampDim(tt.v, tt.def); got != tt.want {
			t.Errorf("clampDim(%d, %d) = %d, want %d", tt.v, tt.def, got, tt.want)
		}
	}
}
