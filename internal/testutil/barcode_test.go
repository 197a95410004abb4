package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEAN13CheckDigit(t *testing.T) {
	cases := []struct {
		digits string
		want   byte
	}{
		{"544900000099", '6'},
		{"400638133393", '1'},
		{"012345678901", '2'},
	}
	for _, tc := range cases {
		got, err := EAN13CheckDigit(tc.digits)
		require.NoError(t, err)
		assert.Equal(t, string(tc.want), string(got), "digits %s", tc.digits)
	}
}

func TestEAN13CheckDigitRejectsBadInput(t *testing.T) {
	_, err := EAN13CheckDigit("12345")
	assert.Error(t, err)

	_, err = EAN13CheckDigit("12345678901X")
	assert.Error(t, err)
}

func TestEAN13Modules(t *testing.T) {
	modules, err := EAN13Modules("5449000000996")
	require.NoError(t, err)

	assert.Len(t, modules, 95)
	assert.True(t, strings.HasPrefix(modules, "101"))
	assert.True(t, strings.HasSuffix(modules, "101"))
	assert.Equal(t, "01010", modules[45:50])

	assert.Equal(t, "", strings.Trim(modules, "01"), "pattern must contain only modules")
}

func TestEAN13ModulesRejectsWrongCheckDigit(t *testing.T) {
	_, err := EAN13Modules("5449000000990")
	assert.Error(t, err)
}

func TestEAN13Image(t *testing.T) {
	img, err := EAN13Image("5449000000996", 4, 120)
	require.NoError(t, err)

	// 95 modules at 4px plus a 40px quiet zone on each side.
	assert.Equal(t, 95*4+2*40, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())

	// Quiet zone stays white, the left guard starts black.
	r, g, b, _ := img.At(0, 60).RGBA()
	assert.True(t, r == 0xffff && g == 0xffff && b == 0xffff)
	r, g, b, _ = img.At(40, 60).RGBA()
	assert.True(t, r == 0 && g == 0 && b == 0)
}
