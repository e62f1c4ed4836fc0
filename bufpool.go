package nbor

import (
	"bytes"
	"sync"
)

// bufPool reuses encode buffers across Marshal calls. This reduces GC
// pressure by avoiding a fresh allocation per call. We pool *bytes.Buffer
// because they are easily reset and resized.
var bufPool = sync.Pool{
	New: func() any {
		// A 4KB default is chosen to avoid re-allocations for common value sizes.
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}
