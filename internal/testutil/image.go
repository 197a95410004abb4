package testutil

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// EncodePNG serializes an image to PNG bytes.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// EncodeJPEG serializes an image to JPEG bytes at the given quality.
func EncodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

// BarcodePNG renders an EAN-13 code and returns it PNG-encoded.
func BarcodePNG(t *testing.T, code string, moduleWidth, height int) []byte {
	t.Helper()
	img, err := EAN13Image(code, moduleWidth, height)
	require.NoError(t, err)
	return EncodePNG(t, img)
}
