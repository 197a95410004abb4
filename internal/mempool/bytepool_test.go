package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBytes_LengthAndCapacity(t *testing.T) {
	buf := GetBytes(100)
	require.Len(t, buf, 100)
	assert.GreaterOrEqual(t, cap(buf), 1024)
	PutBytes(buf)
}

func TestGetBytes_LargeSizeClass(t *testing.T) {
	n := 1200 * 300 // typical normalized raster
	buf := GetBytes(n)
	require.Len(t, buf, n)
	assert.Equal(t, 0, cap(buf)%1024)
	PutBytes(buf)
}

func TestPutBytes_NilIsSafe(t *testing.T) {
	PutBytes(nil)
}

func TestGetBytes_ReuseAfterPut(t *testing.T) {
	buf := GetBytes(2048)
	for i := range buf {
		buf[i] = 0xAB
	}
	PutBytes(buf)

	// A second buffer of the same class must come back with the right length
	// regardless of whether the pool handed the same storage back.
	again := GetBytes(2048)
	require.Len(t, again, 2048)
	PutBytes(again)
}

func TestSizeClass_Buckets(t *testing.T) {
	assert.Equal(t, 1024, sizeClass(1))
	assert.Equal(t, 1024, sizeClass(1024))
	assert.Equal(t, 2048, sizeClass(1025))
	assert.Equal(t, 360448, sizeClass(360000))
}
