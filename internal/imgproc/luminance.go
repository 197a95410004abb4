package imgproc

import (
	"image"
	"math"

	"github.com/tcx-health/scanbar/internal/mempool"
)

// LuminanceBuffer is a row-major single-channel 8-bit view of a raster,
// derived once per decode attempt. Immutable once built.
type LuminanceBuffer struct {
	Pix    []byte
	Width  int
	Height int
}

// Len reports the number of samples, always Width*Height.
func (l *LuminanceBuffer) Len() int { return len(l.Pix) }

// Luminance projects an RGBA raster onto a luminance buffer using the
// standard luma formula round(0.299R + 0.587G + 0.114B), clamped to [0,255].
// Alpha is discarded. Sample order matches the raster's scan order.
func Luminance(img *image.NRGBA) *LuminanceBuffer {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	buf := mempool.GetBytes(width * height)
	for y := range height {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := range width {
			r := float64(row[x*4])
			g := float64(row[x*4+1])
			bl := float64(row[x*4+2])
			v := math.Round(0.299*r + 0.587*g + 0.114*bl)
			if v > 255 {
				v = 255
			}
			if v < 0 {
				v = 0
			}
			buf[y*width+x] = byte(v)
		}
	}

	return &LuminanceBuffer{Pix: buf, Width: width, Height: height}
}

// Release returns the buffer's storage to the pool. The buffer must not be
// used afterwards.
func (l *LuminanceBuffer) Release() {
	mempool.PutBytes(l.Pix)
	l.Pix = nil
}
