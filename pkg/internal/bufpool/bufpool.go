// Package bufpool provides a pool of reusable byte buffers.
package bufpool

import (
	"bytes"
	"sync"
)

// Pool is a pool of *bytes.Buffer. The zero value is ready for use.
type Pool struct {
	p sync.Pool
}

// Get returns an empty buffer from the pool, allocating one if needed.
func (p *Pool) Get() *bytes.Buffer {
	b, ok := p.p.Get().(*bytes.Buffer)
	if !ok {
		return new(bytes.Buffer)
	}
	return b
}

// Put resets b and returns it to the pool.
func (p *Pool) Put(b *bytes.Buffer) {
	b.Reset()
	p.p.Put(b)
}
