package pool

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/23skdu/eigencmc/internal/metrics"
)

func count(sink, op string) float64 {
	return testutil.ToFloat64(metrics.BufferPoolOperations.WithLabelValues(sink, op))
}

func TestBufferPool_RecyclesEmptyBuffers(t *testing.T) {
	p := NewBufferPool("test")
	gets, puts := count("test", "get"), count("test", "put")

	buf := p.Get()
	assert.Equal(t, 0, buf.Len())
	buf.WriteString("1,100\n")
	p.Put(buf)

	buf = p.Get()
	assert.Equal(t, 0, buf.Len())
	p.Put(buf)
	p.Put(nil)

	assert.Equal(t, gets+2, count("test", "get"))
	assert.Equal(t, puts+2, count("test", "put"))
}

func TestBufferPool_DropsOversizedBuffers(t *testing.T) {
	p := NewBufferPool("oversized")
	drops, puts := count("oversized", "drop"), count("oversized", "put")

	p.Put(bytes.NewBuffer(make([]byte, 0, MaxRetainedBytes+1)))

	assert.Equal(t, drops+1, count("oversized", "drop"))
	assert.Equal(t, puts, count("oversized", "put"))
}

func BenchmarkBufferPool(b *testing.B) {
	p := NewBufferPool("bench")
	for i := 0; i < b.N; i++ {
		buf := p.Get()
		buf.WriteString("1,100\n")
		p.Put(buf)
	}
}
