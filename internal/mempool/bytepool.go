package mempool

import (
	"sync"
)

// A simple sized pool for []byte buffers to reduce allocations on the
// luminance projection hot path, where every request (and every decode
// retry) needs a width*height scratch buffer.

var bytePools sync.Map // key: size class (int), value: *sync.Pool

// sizeClass rounds n up to the next KiB bucket to reduce churn.
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	r := (n + step - 1) / step
	return r * step
}

// GetBytes retrieves a []byte buffer of at least n elements from the pool.
// The returned slice has length n but may have larger capacity. The caller
// must return it via PutBytes when done.
func GetBytes(n int) []byte {
	cls := sizeClass(n)
	pAny, _ := bytePools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]byte, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		buf := make([]byte, cls)
		return buf[:n]
	}
	bufAny := p.Get()
	buf, ok := bufAny.([]byte)
	if !ok || cap(buf) < cls {
		buf = make([]byte, cls)
	} else {
		buf = buf[:cap(buf)]
	}
	return buf[:n]
}

// PutBytes returns a buffer to the pool. It is safe to pass a nil slice.
func PutBytes(buf []byte) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := bytePools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]byte, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return
	}
	// Reset length to full cap to avoid keeping len from caller; contents
	// need not be zeroed since callers overwrite every sample.
	p.Put(buf[:cap(buf)]) //nolint:staticcheck
}
