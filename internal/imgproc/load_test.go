package imgproc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			src.SetNRGBA(x, y, color.NRGBA{uint8(x * 30), uint8(y * 40), 128, 255})
		}
	}

	data := encodePNG(t, src)
	img, meta, err := Decode(data, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, len(data), meta.SizeBytes)
	assert.Equal(t, 8, meta.Width)
	assert.Equal(t, 6, meta.Height)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())
}

func TestDecodeEmptyBuffer(t *testing.T) {
	_, _, err := Decode(nil, "image/png")

	var invalid *InvalidImageError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, CategoryEmptyBuffer, invalid.Category)
	assert.NotEmpty(t, invalid.Hint)
}

func TestDecodeCorruptPNG(t *testing.T) {
	data := encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	// Valid PNG signature, truncated body.
	data = data[:20]

	_, _, err := Decode(data, "image/png")

	var invalid *InvalidImageError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, CategoryCorruptData, invalid.Category)
}

func TestDecodeNonImageWithDeclaredType(t *testing.T) {
	_, _, err := Decode([]byte("%PDF-1.4 not an image"), "application/pdf")

	var invalid *InvalidImageError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, CategoryUnsupportedFormat, invalid.Category)
	assert.Contains(t, invalid.Hint, "application/pdf")
}

func TestDecodeUnknownBytes(t *testing.T) {
	_, _, err := Decode([]byte("certainly not pixels"), "")

	var invalid *InvalidImageError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, CategoryUnknownFormat, invalid.Category)
}

func TestDecodeErrorUnwraps(t *testing.T) {
	_, _, err := Decode([]byte("junk"), "")
	var invalid *InvalidImageError
	require.ErrorAs(t, err, &invalid)
	assert.Error(t, errors.Unwrap(invalid))
}

func TestSniffSignature(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg jfif", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"jpeg exif", []byte{0xFF, 0xD8, 0xFF, 0xE1}, "jpeg"},
		{"jpeg raw", []byte{0xFF, 0xD8, 0xFF, 0xDB}, "jpeg"},
		{"jpeg odd marker", []byte{0xFF, 0xD8, 0xFF, 0xC0}, ""},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47}, "png"},
		{"gif", []byte("GIF89a"), "gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBP"), "webp"},
		{"riff but not webp", []byte("RIFF\x00\x00\x00\x00WAVE"), ""},
		{"short", []byte{0xFF, 0xD8}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sniffSignature(tc.data))
		})
	}
}
