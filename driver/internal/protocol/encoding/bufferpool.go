// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package encoding

import (
	"sync"
)

// debugPool enables double-release and foreign-release panics. Kept off
// in production builds; flipped by tests.
var debugPool = false

// pooledBuffer couples a buffer with a reusable Encoder/Decoder pair so
// checkouts do not allocate fresh codec state.
type pooledBuffer struct {
	buf  *Buffer
	enc  *Encoder
	dec  *Decoder
	free bool // guarded by Pool.mu
}

// Pool is a free list of buffers. A buffer is either owned by exactly
// one in-flight request or present in the free list; releasing twice or
// releasing a foreign buffer is a programming error (a panic when
// debugPool is on, ignored otherwise). The pool is unbounded and grows
// on demand but only retains buffers that have been released.
type Pool struct {
	mu   sync.Mutex
	free []*pooledBuffer
	all  map[*Buffer]*pooledBuffer
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{all: map[*Buffer]*pooledBuffer{}}
}

// Acquire returns an empty buffer together with its attached Encoder
// and Decoder. The codec pair is reset to the buffer start.
func (p *Pool) Acquire() (*Buffer, *Encoder, *Decoder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var pb *pooledBuffer
	if n := len(p.free); n > 0 {
		pb = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		buf := NewBuffer()
		pb = &pooledBuffer{buf: buf, enc: NewEncoder(buf), dec: NewDecoder(buf)}
		p.all[buf] = pb
	}
	pb.free = false
	pb.buf.Clear()
	pb.enc.Reset()
	pb.dec.Reset()
	return pb.buf, pb.enc, pb.dec
}

// Release returns a buffer to the free list.
func (p *Pool) Release(buf *Buffer) {
	if buf == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	pb, ok := p.all[buf]
	if !ok {
		if debugPool {
			panic("encoding: release of buffer not owned by pool")
		}
		return
	}
	if pb.free {
		if debugPool {
			panic("encoding: double release of pooled buffer")
		}
		return
	}
	pb.free = true
	p.free = append(p.free, pb)
}
