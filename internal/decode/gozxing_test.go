package decode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcx-health/scanbar/internal/imgproc"
	"github.com/tcx-health/scanbar/internal/testutil"
)

func TestZXingReaderDecodesCleanSymbol(t *testing.T) {
	img, err := testutil.EAN13Image("5449000000996", 4, 120)
	require.NoError(t, err)

	dec := NewDecoder()
	value, err := dec.Decode(context.Background(), img, DefaultHints())

	require.NoError(t, err)
	assert.Equal(t, "5449000000996", value)
}

func TestZXingReaderDecodesNormalizedSymbol(t *testing.T) {
	img, err := testutil.EAN13Image("4006381333931", 16, 400)
	require.NoError(t, err)
	// 95*16 + 2*160 = 1840px wide, so normalization downsamples it.
	normalized := imgproc.Normalize(img, imgproc.DefaultMaxWidth)
	require.Equal(t, imgproc.DefaultMaxWidth, normalized.Bounds().Dx())

	dec := NewDecoder()
	value, err := dec.Decode(context.Background(), normalized, DefaultHints())

	require.NoError(t, err)
	assert.Equal(t, "4006381333931", value)
}

func TestZXingReaderRestrictedFormats(t *testing.T) {
	img, err := testutil.EAN13Image("5449000000996", 4, 120)
	require.NoError(t, err)

	dec := NewDecoder()
	_, err = dec.Decode(context.Background(), img, Hints{
		Formats:   []Format{FormatITF},
		TryHarder: true,
	})

	assert.ErrorIs(t, err, ErrNoBarcodeFound)
}

func TestZXingReaderBlankImage(t *testing.T) {
	img, err := testutil.EAN13Image("5449000000996", 1, 1)
	require.NoError(t, err)
	// Wipe the bars; a blank strip has no symbol.
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}

	dec := NewDecoder()
	_, err = dec.Decode(context.Background(), img, DefaultHints())

	assert.ErrorIs(t, err, ErrNoBarcodeFound)
}
