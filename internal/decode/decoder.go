package decode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/tcx-health/scanbar/internal/imgproc"
)

// ErrNoBarcodeFound is returned when both decode attempts fail to locate a
// recognizable symbol. Non-retryable within a request; the caller should
// submit a clearer image.
var ErrNoBarcodeFound = errors.New("no barcode found in image")

// Format identifies a 1-D barcode symbology.
type Format int

const (
	FormatEAN13 Format = iota
	FormatEAN8
	FormatUPCA
	FormatUPCE
	FormatCode128
	FormatCode39
	FormatITF
)

var formatNames = map[Format]string{
	FormatEAN13:   "ean13",
	FormatEAN8:    "ean8",
	FormatUPCA:    "upca",
	FormatUPCE:    "upce",
	FormatCode128: "code128",
	FormatCode39:  "code39",
	FormatITF:     "itf",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return "unknown"
}

// ParseFormat maps a configuration name to a Format.
func ParseFormat(s string) (Format, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == s {
			return f, true
		}
	}
	return 0, false
}

// Hints configures a decode request: the accepted symbologies and whether
// the reader should trade latency for a more exhaustive scan. Built once per
// request, never mutated afterwards.
type Hints struct {
	Formats   []Format
	TryHarder bool
}

// DefaultHints returns the retail scanning hint set: every supported 1-D
// symbology with the exhaustive-scan flag on.
func DefaultHints() Hints {
	return Hints{
		Formats: []Format{
			FormatEAN13, FormatEAN8, FormatUPCA, FormatUPCE,
			FormatCode128, FormatCode39, FormatITF,
		},
		TryHarder: true,
	}
}

// BitmapReader performs a single decode attempt against a luminance buffer.
// Implementations binarize the buffer and run a multi-format reader over it.
type BitmapReader interface {
	Read(lum *imgproc.LuminanceBuffer, hints Hints) (string, error)
}

// Decoder locates a barcode in a normalized raster using a bounded
// two-attempt policy: one pass over the raster as-is, and on failure one
// more pass after a stronger contrast/brightness adjustment. There is no
// third attempt, no hint variation, no rotation and no cropping.
type Decoder struct {
	reader BitmapReader
}

// NewDecoder returns a Decoder backed by the zxing reader.
func NewDecoder() *Decoder {
	return &Decoder{reader: newZXingReader()}
}

// NewDecoderWithReader returns a Decoder using the provided reader.
func NewDecoderWithReader(r BitmapReader) *Decoder {
	return &Decoder{reader: r}
}

// Decode attempts to read a single symbol from the raster. The raster is
// expected to already be normalized (greyscale, bounded width). The first
// successful attempt wins; multiple symbols in one image yield whichever the
// underlying reader prioritizes.
func (d *Decoder) Decode(ctx context.Context, raster *image.NRGBA, hints Hints) (string, error) {
	lum := imgproc.Luminance(raster)
	value, err := d.reader.Read(lum, hints)
	lum.Release()
	if err == nil && value != "" {
		return value, nil
	}
	if cerr := ctx.Err(); cerr != nil {
		return "", cerr
	}

	// Second and final attempt on an enhanced copy of the raster.
	enhanced := imgproc.Enhance(raster)
	lum = imgproc.Luminance(enhanced)
	value, err = d.reader.Read(lum, hints)
	lum.Release()
	if err == nil && value != "" {
		return value, nil
	}
	if err == nil {
		err = errors.New("reader returned empty payload")
	}
	return "", fmt.Errorf("%w: %s", ErrNoBarcodeFound, err.Error())
}
