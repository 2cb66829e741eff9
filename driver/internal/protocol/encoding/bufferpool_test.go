// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package encoding

import (
	"testing"
)

func TestPoolReuse(t *testing.T) {
	p := NewPool()
	buf1, enc, dec := p.Acquire()
	if enc == nil || dec == nil {
		t.Fatal("nil codec pair")
	}
	enc.String("hello")
	p.Release(buf1)

	buf2, enc2, dec2 := p.Acquire()
	if buf2 != buf1 {
		t.Fatal("released buffer not reused")
	}
	if buf2.Len() != 0 {
		t.Fatalf("reused buffer not cleared: len %d", buf2.Len())
	}
	if enc2.Pos() != 0 || dec2.Pos() != 0 {
		t.Fatalf("codec positions not reset: enc %d dec %d", enc2.Pos(), dec2.Pos())
	}
}

func TestPoolDistinctCheckouts(t *testing.T) {
	p := NewPool()
	buf1, _, _ := p.Acquire()
	buf2, _, _ := p.Acquire()
	if buf1 == buf2 {
		t.Fatal("two live checkouts share a buffer")
	}
	p.Release(buf1)
	p.Release(buf2)
}

func TestPoolDoubleRelease(t *testing.T) {
	debugPool = true
	defer func() { debugPool = false }()

	p := NewPool()
	buf, _, _ := p.Acquire()
	p.Release(buf)

	defer func() {
		if recover() == nil {
			t.Fatal("double release did not panic")
		}
	}()
	p.Release(buf)
}

func TestPoolForeignRelease(t *testing.T) {
	debugPool = true
	defer func() { debugPool = false }()

	p := NewPool()
	defer func() {
		if recover() == nil {
			t.Fatal("foreign release did not panic")
		}
	}()
	p.Release(NewBuffer())
}

func TestPoolNilRelease(t *testing.T) {
	p := NewPool()
	p.Release(nil) // must not panic
}
