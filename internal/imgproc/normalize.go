package imgproc

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultMaxWidth bounds the raster width before binarization so decode cost
// stays proportional to a fixed pixel budget.
const DefaultMaxWidth = 1200

const (
	// Contrast boost applied to every raster, on imaging's [-100,100] scale.
	// Equivalent to a 0.3 factor on a [-1,1] scale.
	normalizeContrast = 30

	// Stronger adjustment used for the decoder's second attempt:
	// contrast 0.5, brightness +0.1 on the [-1,1] scale.
	enhanceContrast   = 50
	enhanceBrightness = 10
)

// Normalize prepares a raster for barcode detection: downsample to maxWidth
// when wider (aspect preserved), then greyscale, contrast boost and histogram
// stretch. The resize step is best-effort; when the computed target is
// degenerate the original raster is carried forward unchanged.
func Normalize(img *image.NRGBA, maxWidth int) *image.NRGBA {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width > maxWidth {
		newHeight := int(math.Round(float64(height) * float64(maxWidth) / float64(width)))
		if newHeight > 0 {
			img = imaging.Resize(img, maxWidth, newHeight, imaging.Lanczos)
		}
	}

	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, normalizeContrast)
	stretchHistogram(img)
	return img
}

// Enhance applies the stronger contrast/brightness adjustment used between
// the decoder's first and second attempt. The input raster is not modified.
func Enhance(img *image.NRGBA) *image.NRGBA {
	out := imaging.AdjustContrast(img, enhanceContrast)
	return imaging.AdjustBrightness(out, enhanceBrightness)
}

// stretchHistogram remaps pixel intensities so the darkest pixel becomes 0
// and the brightest 255, in place. Operates on the greyscale raster where
// R == G == B, so only the red channel is sampled for the range.
func stretchHistogram(img *image.NRGBA) {
	b := img.Bounds()
	if b.Empty() {
		return
	}

	lo, hi := uint8(255), uint8(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			v := row[x]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if lo == 0 && hi == 255 {
		return // already spans the full range
	}
	if hi <= lo {
		return // flat image, nothing to stretch
	}

	scale := 255.0 / float64(hi-lo)
	var lut [256]uint8
	for i := range lut {
		if i <= int(lo) {
			lut[i] = 0
			continue
		}
		v := math.Round(float64(i-int(lo)) * scale)
		if v > 255 {
			v = 255
		}
		lut[i] = uint8(v)
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			v := lut[row[x]]
			row[x] = v
			row[x+1] = v
			row[x+2] = v
		}
	}
}
