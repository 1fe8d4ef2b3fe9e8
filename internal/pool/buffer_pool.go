// Package pool recycles the buffers report sinks format their files into.
package pool

import (
	"bytes"
	"sync"

	"github.com/23skdu/eigencmc/internal/metrics"
)

// MaxRetainedBytes is the largest buffer capacity kept for reuse.
const MaxRetainedBytes = 1 << 20

// BufferPool hands out empty buffers to one report sink.
type BufferPool struct {
	sink string
	pool sync.Pool
}

// NewBufferPool creates a pool whose operations are counted under sink.
func NewBufferPool(sink string) *BufferPool {
	return &BufferPool{
		sink: sink,
		pool: sync.Pool{New: func() any { return new(bytes.Buffer) }},
	}
}

// Get returns an empty buffer.
func (p *BufferPool) Get() *bytes.Buffer {
	metrics.BufferPoolOperations.WithLabelValues(p.sink, "get").Inc()
	return p.pool.Get().(*bytes.Buffer)
}

// Put recycles buf. Buffers grown past MaxRetainedBytes are dropped.
func (p *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	if buf.Cap() > MaxRetainedBytes {
		metrics.BufferPoolOperations.WithLabelValues(p.sink, "drop").Inc()
		return
	}
	metrics.BufferPoolOperations.WithLabelValues(p.sink, "put").Inc()
	buf.Reset()
	p.pool.Put(buf)
}
