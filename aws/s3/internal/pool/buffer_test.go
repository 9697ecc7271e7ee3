package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBufferPool(t *testing.T) {
	bp := NewBufferPool(512)
	require.NotNil(t, bp)
	assert.Equal(t, 512, bp.Size())
}

func TestBufferPool_GetPut(t *testing.T) {
	bp := NewBufferPool(1024)

	buf := bp.Get()
	require.NotNil(t, buf)
	assert.Len(t, buf, 1024)
	assert.Equal(t, 1024, cap(buf))

	copy(buf, "test data")
	bp.Put(buf[:4])

	again := bp.Get()
	assert.Len(t, again, 1024)
}

func TestBufferPool_PutForeignBuffer(t *testing.T) {
	bp := NewBufferPool(1024)

	// Buffers of another capacity are dropped rather than pooled.
	bp.Put(make([]byte, 10))

	buf := bp.Get()
	assert.Equal(t, 1024, cap(buf))
}

func TestCopyBuffers(t *testing.T) {
	buf := GetCopyBuffer()
	assert.Len(t, buf, CopyBufferSize)
	PutCopyBuffer(buf)
}

func TestBufferPool_Concurrent(t *testing.T) {
	bp := NewBufferPool(256)
	done := make(chan struct{})

	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				buf := bp.Get()
				buf[0] = byte(j)
				bp.Put(buf)
			}
		}()
	}

	for i := 0; i < 8; i++ {
		<-done
	}
}

func BenchmarkCopyBuffer(b *testing.B) {
	for i := 0; i < b.N; i++ {
		buf := GetCopyBuffer()
		PutCopyBuffer(buf)
	}
}
