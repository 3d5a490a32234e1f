package imagediff

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func fill(w, h int, c color.Color) *image.NRGBA {
	return imaging.New(w, h, c)
}

func TestPadGrowsOntoWhiteCanvas(t *testing.T) {
	img := fill(4, 4, color.NRGBA{0, 0, 0, 255})
	padded := Pad(img, 8, 6)

	if padded.Bounds().Dx() != 8 || padded.Bounds().Dy() != 6 {
		t.Fatalf("padded size = %v, want 8x6", padded.Bounds())
	}
	if got := padded.NRGBAAt(0, 0); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("origin pixel = %v, want original black", got)
	}
	if got := padded.NRGBAAt(7, 5); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("padding pixel = %v, want opaque white", got)
	}
}

func TestPadNeverShrinks(t *testing.T) {
	img := fill(10, 10, color.NRGBA{1, 2, 3, 255})
	padded := Pad(img, 4, 4)
	if padded.Bounds().Dx() != 10 || padded.Bounds().Dy() != 10 {
		t.Errorf("padded size = %v, want unchanged 10x10", padded.Bounds())
	}
}

func TestPadIdempotent(t *testing.T) {
	img := fill(5, 7, color.NRGBA{9, 9, 9, 255})
	once := Pad(img, 12, 12)
	twice := Pad(once, 12, 12)
	if Differs(once, twice) {
		t.Error("padding an already-padded image changed pixels")
	}
}

func TestNormalizeElementwiseMax(t *testing.T) {
	a := fill(10, 3, color.White)
	b := fill(4, 8, color.White)
	na, nb := Normalize(a, b)

	if na.Bounds().Dx() != 10 || na.Bounds().Dy() != 8 {
		t.Errorf("normalized a = %v, want 10x8", na.Bounds())
	}
	if !na.Rect.Eq(nb.Rect) {
		t.Errorf("normalized sizes differ: %v vs %v", na.Rect, nb.Rect)
	}
}

func TestDiffHighlightsChangedPixels(t *testing.T) {
	before := fill(4, 4, color.NRGBA{255, 255, 255, 255})
	after := fill(4, 4, color.NRGBA{255, 255, 255, 255})
	after.SetNRGBA(2, 1, color.NRGBA{0, 0, 0, 255})

	diff := Diff(before, after)
	if got := diff.NRGBAAt(2, 1); got != Highlight {
		t.Errorf("changed pixel = %v, want highlight %v", got, Highlight)
	}
	if got := diff.NRGBAAt(0, 0); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("unchanged pixel = %v, want after pixel", got)
	}
}

func TestDiffIdenticalHasNoHighlight(t *testing.T) {
	img := fill(6, 6, color.NRGBA{10, 20, 30, 255})
	diff := Diff(img, imaging.Clone(img))
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			if diff.NRGBAAt(x, y) == Highlight {
				t.Fatalf("highlight at (%d,%d) for identical inputs", x, y)
			}
		}
	}
}

func TestDiffersMatchesDiff(t *testing.T) {
	a := fill(8, 8, color.NRGBA{255, 255, 255, 255})
	b := imaging.Clone(a)
	if Differs(a, b) {
		t.Error("identical images reported as differing")
	}

	b.SetNRGBA(7, 7, color.NRGBA{0, 0, 0, 255})
	if !Differs(a, b) {
		t.Error("differing images reported as identical")
	}
	if got := Diff(a, b).NRGBAAt(7, 7); got != Highlight {
		t.Errorf("Diff disagrees with Differs at (7,7): %v", got)
	}
}

func TestBlankLike(t *testing.T) {
	ref := fill(13, 9, color.NRGBA{0, 0, 0, 255})
	blank := BlankLike(ref)
	if !blank.Rect.Eq(image.Rect(0, 0, 13, 9)) {
		t.Errorf("blank size = %v, want 13x9", blank.Rect)
	}
	if got := blank.NRGBAAt(6, 4); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("blank pixel = %v, want opaque white", got)
	}
}
