package decode

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcx-health/scanbar/internal/imgproc"
)

// scriptedReader plays back one result per attempt.
type scriptedReader struct {
	results []scriptedResult
	calls   int
}

type scriptedResult struct {
	value string
	err   error
}

func (r *scriptedReader) Read(_ *imgproc.LuminanceBuffer, _ Hints) (string, error) {
	i := r.calls
	r.calls++
	if i >= len(r.results) {
		return "", errors.New("no symbol")
	}
	return r.results[i].value, r.results[i].err
}

func testRaster() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			v := uint8(255)
			if x%4 < 2 {
				v = 0
			}
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return img
}

func TestDecodeFirstAttemptSucceeds(t *testing.T) {
	reader := &scriptedReader{results: []scriptedResult{{value: "5449000000996"}}}
	dec := NewDecoderWithReader(reader)

	value, err := dec.Decode(context.Background(), testRaster(), DefaultHints())

	require.NoError(t, err)
	assert.Equal(t, "5449000000996", value)
	assert.Equal(t, 1, reader.calls, "a successful first attempt must not retry")
}

func TestDecodeSecondAttemptSucceeds(t *testing.T) {
	reader := &scriptedReader{results: []scriptedResult{
		{err: errors.New("no symbol")},
		{value: "4006381333931"},
	}}
	dec := NewDecoderWithReader(reader)

	value, err := dec.Decode(context.Background(), testRaster(), DefaultHints())

	require.NoError(t, err)
	assert.Equal(t, "4006381333931", value)
	assert.Equal(t, 2, reader.calls)
}

func TestDecodeBothAttemptsFail(t *testing.T) {
	reader := &scriptedReader{}
	dec := NewDecoderWithReader(reader)

	_, err := dec.Decode(context.Background(), testRaster(), DefaultHints())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoBarcodeFound)
	assert.Equal(t, 2, reader.calls, "exactly two attempts, never a third")
}

func TestDecodeEmptyPayloadIsFailure(t *testing.T) {
	reader := &scriptedReader{results: []scriptedResult{
		{value: ""},
		{value: ""},
	}}
	dec := NewDecoderWithReader(reader)

	_, err := dec.Decode(context.Background(), testRaster(), DefaultHints())

	assert.ErrorIs(t, err, ErrNoBarcodeFound)
	assert.Equal(t, 2, reader.calls)
}

func TestDecodeCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &scriptedReader{}
	dec := NewDecoderWithReader(reader)

	_, err := dec.Decode(ctx, testRaster(), DefaultHints())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, reader.calls, "cancellation must stop the retry")
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"ean13", FormatEAN13, true},
		{" EAN13 ", FormatEAN13, true},
		{"code128", FormatCode128, true},
		{"itf", FormatITF, true},
		{"qr", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseFormat(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestDefaultHints(t *testing.T) {
	h := DefaultHints()
	assert.Len(t, h.Formats, 7)
	assert.True(t, h.TryHarder)
}
