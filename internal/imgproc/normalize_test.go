package imgproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNormalizeDownsamplesWideImages(t *testing.T) {
	img := solidImage(1600, 400, color.NRGBA{200, 100, 50, 255})

	out := Normalize(img, 1200)

	assert.Equal(t, 1200, out.Bounds().Dx())
	assert.Equal(t, 300, out.Bounds().Dy())
}

func TestNormalizeRoundsTargetHeight(t *testing.T) {
	// 1300x333 at maxWidth 1200: 333*1200/1300 = 307.38..., rounds to 307.
	img := solidImage(1300, 333, color.NRGBA{128, 128, 128, 255})

	out := Normalize(img, 1200)

	assert.Equal(t, 1200, out.Bounds().Dx())
	assert.Equal(t, 307, out.Bounds().Dy())
}

func TestNormalizeKeepsNarrowImages(t *testing.T) {
	img := solidImage(640, 480, color.NRGBA{90, 90, 90, 255})

	out := Normalize(img, 1200)

	assert.Equal(t, 640, out.Bounds().Dx())
	assert.Equal(t, 480, out.Bounds().Dy())
}

func TestNormalizeProducesGreyscale(t *testing.T) {
	img := solidImage(100, 50, color.NRGBA{220, 40, 130, 255})

	out := Normalize(img, 1200)

	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += 7 {
		for x := b.Min.X; x < b.Max.X; x += 7 {
			c := out.NRGBAAt(x, y)
			require.Equal(t, c.R, c.G, "pixel (%d,%d)", x, y)
			require.Equal(t, c.G, c.B, "pixel (%d,%d)", x, y)
		}
	}
}

func TestNormalizeDegenerateHeightSkipsResize(t *testing.T) {
	// 100000x1 at maxWidth 1200 computes a target height of 0.
	img := solidImage(100000, 1, color.NRGBA{128, 128, 128, 255})

	out := Normalize(img, 1200)

	assert.Equal(t, 100000, out.Bounds().Dx())
	assert.Equal(t, 1, out.Bounds().Dy())
}

func TestStretchHistogramExpandsRange(t *testing.T) {
	// Two grey levels squeezed into [100, 150].
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			v := uint8(100)
			if x >= 2 {
				v = 150
			}
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}

	stretchHistogram(img)

	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(255), img.NRGBAAt(3, 1).R)
	// Alpha untouched.
	assert.Equal(t, uint8(255), img.NRGBAAt(0, 0).A)
}

func TestStretchHistogramFlatImageUnchanged(t *testing.T) {
	img := solidImage(4, 4, color.NRGBA{77, 77, 77, 255})

	stretchHistogram(img)

	assert.Equal(t, uint8(77), img.NRGBAAt(2, 2).R)
}

func TestEnhanceDoesNotMutateInput(t *testing.T) {
	img := solidImage(10, 10, color.NRGBA{100, 100, 100, 255})

	out := Enhance(img)

	assert.Equal(t, uint8(100), img.NRGBAAt(5, 5).R)
	assert.NotNil(t, out)
	assert.Equal(t, img.Bounds(), out.Bounds())
}
