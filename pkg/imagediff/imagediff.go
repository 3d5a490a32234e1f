// Package imagediff compares rendered bitmaps pixel by pixel.
//
// Comparison never rescales: two renders of different dimensions are padded
// onto white canvases of their elementwise-maximum size so every pixel lines
// up with its counterpart, then compared exactly. The diff image repeats the
// "after" render with differing pixels replaced by a highlight color.
package imagediff

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Highlight is the color marking differing pixels in a diff image.
var Highlight = color.NRGBA{R: 255, G: 64, B: 64, A: 255}

// Pad returns img composited at the origin of an opaque white canvas of at
// least width x height. The image is never scaled or cropped; a canvas
// dimension smaller than the image grows to fit, so padding to an image's own
// size is the identity (modulo pixel format).
func Pad(img image.Image, width, height int) *image.NRGBA {
	bounds := img.Bounds()
	if bounds.Dx() > width {
		width = bounds.Dx()
	}
	if bounds.Dy() > height {
		height = bounds.Dy()
	}
	canvas := imaging.New(width, height, color.White)
	return imaging.Paste(canvas, img, image.Pt(0, 0))
}

// Normalize pads both images onto white canvases of their elementwise-maximum
// dimensions, returning two images of identical size.
func Normalize(a, b image.Image) (*image.NRGBA, *image.NRGBA) {
	width := a.Bounds().Dx()
	if w := b.Bounds().Dx(); w > width {
		width = w
	}
	height := a.Bounds().Dy()
	if h := b.Bounds().Dy(); h > height {
		height = h
	}
	return Pad(a, width, height), Pad(b, width, height)
}

// BlankLike returns an opaque white image with the dimensions of ref, used as
// the stand-in when one side of a comparison has no document to render.
func BlankLike(ref image.Image) *image.NRGBA {
	return imaging.New(ref.Bounds().Dx(), ref.Bounds().Dy(), color.White)
}

// Diff builds the highlight image for two same-sized renders: each pixel is
// the after pixel where the sides agree and [Highlight] where they differ.
// Both inputs must have identical bounds, as produced by [Normalize].
func Diff(before, after *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(after)
	if !before.Rect.Eq(after.Rect) {
		return out
	}
	for y := 0; y < after.Rect.Dy(); y++ {
		bi := before.PixOffset(before.Rect.Min.X, before.Rect.Min.Y+y)
		ai := after.PixOffset(after.Rect.Min.X, after.Rect.Min.Y+y)
		oi := out.PixOffset(out.Rect.Min.X, out.Rect.Min.Y+y)
		for x := 0; x < after.Rect.Dx(); x++ {
			if !bytes.Equal(before.Pix[bi:bi+4], after.Pix[ai:ai+4]) {
				out.Pix[oi+0] = Highlight.R
				out.Pix[oi+1] = Highlight.G
				out.Pix[oi+2] = Highlight.B
				out.Pix[oi+3] = Highlight.A
			}
			bi += 4
			ai += 4
			oi += 4
		}
	}
	return out
}

// Differs reports whether two same-sized renders differ in any pixel. It
// short-circuits on the first mismatch and allocates nothing, so verdicts can
// be recomputed from cached images without building a diff bitmap.
func Differs(before, after *image.NRGBA) bool {
	if !before.Rect.Eq(after.Rect) {
		return true
	}
	for y := 0; y < after.Rect.Dy(); y++ {
		bi := before.PixOffset(before.Rect.Min.X, before.Rect.Min.Y+y)
		ai := after.PixOffset(after.Rect.Min.X, after.Rect.Min.Y+y)
		n := after.Rect.Dx() * 4
		if !bytes.Equal(before.Pix[bi:bi+n], after.Pix[ai:ai+n]) {
			return true
		}
	}
	return false
}
