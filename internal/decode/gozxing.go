package decode

import (
	"fmt"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/common"
	"github.com/makiuchi-d/gozxing/oned"

	"github.com/tcx-health/scanbar/internal/imgproc"
)

// zxingReader adapts the gozxing multi-format 1-D reader to BitmapReader.
// Each Read builds a hybrid-binarized bitmap (per-region adaptive threshold)
// over the luminance buffer and runs one decode pass.
type zxingReader struct{}

func newZXingReader() *zxingReader { return &zxingReader{} }

func (z *zxingReader) Read(lum *imgproc.LuminanceBuffer, hints Hints) (string, error) {
	source := newLuminanceSource(lum)
	bitmap, err := gozxing.NewBinaryBitmap(common.NewHybridBinarizer(source))
	if err != nil {
		return "", fmt.Errorf("building binary bitmap: %w", err)
	}

	hintMap := buildHintMap(hints)
	reader := oned.NewMultiFormatOneDReader(hintMap)
	result, err := reader.Decode(bitmap, hintMap)
	if err != nil {
		return "", err
	}
	return result.GetText(), nil
}

func buildHintMap(hints Hints) map[gozxing.DecodeHintType]interface{} {
	m := make(map[gozxing.DecodeHintType]interface{})
	if len(hints.Formats) > 0 {
		formats := make([]gozxing.BarcodeFormat, 0, len(hints.Formats))
		for _, f := range hints.Formats {
			if bf, ok := mapFormat(f); ok {
				formats = append(formats, bf)
			}
		}
		if len(formats) > 0 {
			m[gozxing.DecodeHintType_POSSIBLE_FORMATS] = formats
		}
	}
	if hints.TryHarder {
		m[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	return m
}

func mapFormat(f Format) (gozxing.BarcodeFormat, bool) {
	switch f {
	case FormatEAN13:
		return gozxing.BarcodeFormat_EAN_13, true
	case FormatEAN8:
		return gozxing.BarcodeFormat_EAN_8, true
	case FormatUPCA:
		return gozxing.BarcodeFormat_UPC_A, true
	case FormatUPCE:
		return gozxing.BarcodeFormat_UPC_E, true
	case FormatCode128:
		return gozxing.BarcodeFormat_CODE_128, true
	case FormatCode39:
		return gozxing.BarcodeFormat_CODE_39, true
	case FormatITF:
		return gozxing.BarcodeFormat_ITF, true
	default:
		return 0, false
	}
}

// luminanceSource exposes a LuminanceBuffer to gozxing without copying the
// underlying samples.
type luminanceSource struct {
	gozxing.LuminanceSourceBase
	lum *imgproc.LuminanceBuffer
}

func newLuminanceSource(lum *imgproc.LuminanceBuffer) *luminanceSource {
	return &luminanceSource{
		LuminanceSourceBase: gozxing.LuminanceSourceBase{Width: lum.Width, Height: lum.Height},
		lum:                 lum,
	}
}

func (s *luminanceSource) GetRow(y int, row []byte) ([]byte, error) {
	if y < 0 || y >= s.lum.Height {
		return nil, fmt.Errorf("requested row is outside the image: %d", y)
	}
	w := s.lum.Width
	if len(row) < w {
		row = make([]byte, w)
	}
	copy(row, s.lum.Pix[y*w:(y+1)*w])
	return row[:w], nil
}

func (s *luminanceSource) GetMatrix() []byte {
	return s.lum.Pix
}

func (s *luminanceSource) Invert() gozxing.LuminanceSource {
	return gozxing.LuminanceSourceInvert(s)
}

func (s *luminanceSource) String() string {
	return gozxing.LuminanceSourceString(s)
}
