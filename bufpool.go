package jonx

import "sync"

// bufPool recycles scratch buffers that hold a frame's compressed payload
// while it is read and decompressed.
// Grounded on bsm/sntable's reader.go fetchBuffer/releaseBuffer pool.
var bufPool sync.Pool

func fetchBuffer(sz int) []byte {
	if v := bufPool.Get(); v != nil {
		if p := v.([]byte); sz <= cap(p) {
			return p[:sz]
		}
	}
	return make([]byte, sz)
}

func releaseBuffer(p []byte) {
	if cap(p) != 0 {
		bufPool.Put(p) //nolint:staticcheck
	}
}
