package pool

import (
	"sync"
)

// CopyBufferSize is the size of the buffers used to stream object bodies
// to disk.
const CopyBufferSize = 1024 * 1024

// BufferPool manages reusable byte buffers of a single size.
type BufferPool struct {
	size int
	pool *sync.Pool
}

// NewBufferPool creates a pool handing out buffers of size bytes.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		size: size,
		pool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		},
	}
}

// Size returns the length of the buffers handed out by the pool.
func (bp *BufferPool) Size() int {
	return bp.size
}

// Get returns a full-length buffer from the pool.
// The caller is responsible for calling Put to return it.
func (bp *BufferPool) Get() []byte {
	bufPtr := bp.pool.Get().(*[]byte)
	return (*bufPtr)[:bp.size]
}

// Put returns a buffer to the pool. Buffers of a different capacity are
// dropped. The buffer must not be used after calling Put.
func (bp *BufferPool) Put(buf []byte) {
	if cap(buf) != bp.size {
		return
	}
	buf = buf[:bp.size]
	bp.pool.Put(&buf)
}

var copyBuffers = NewBufferPool(CopyBufferSize)

// GetCopyBuffer returns a streaming buffer from the global pool.
func GetCopyBuffer() []byte {
	return copyBuffers.Get()
}

// PutCopyBuffer returns a streaming buffer to the global pool.
func PutCopyBuffer(buf []byte) {
	copyBuffers.Put(buf)
}
