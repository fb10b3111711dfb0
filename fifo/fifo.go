// Kinetis KL25Z support for bare metal Go
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package fifo implements a fixed capacity byte queue for single
// producer/single consumer use across execution contexts, such as hand-off
// between an interrupt service routine and an application idle loop.
//
// Each index is written by exactly one side and published with an atomic
// store, the buffer byte is written before the index store that exposes it.
// No operation blocks or allocates.
package fifo

import (
	"sync/atomic"
)

// FIFO represents a single producer/single consumer byte queue over caller
// supplied storage.
//
// Indices advance modulo twice the capacity so that a completely full queue
// remains distinguishable from an empty one, the storage slot is the index
// reduced modulo the capacity.
type FIFO struct {
	buf []byte

	// read is advanced only by the consumer
	read uint32
	// write is advanced only by the producer
	write uint32
}

// Init initializes the queue over the passed storage, its capacity is the
// storage length.
func (f *FIFO) Init(buf []byte) {
	f.buf = buf
	atomic.StoreUint32(&f.read, 0)
	atomic.StoreUint32(&f.write, 0)
}

// Cap returns the queue capacity.
func (f *FIFO) Cap() int {
	return len(f.buf)
}

// Len returns the number of queued bytes.
func (f *FIFO) Len() int {
	c := uint32(len(f.buf))

	if c == 0 {
		return 0
	}

	w := atomic.LoadUint32(&f.write)
	r := atomic.LoadUint32(&f.read)

	s := int(w) - int(r)

	if s < 0 {
		s += int(2 * c)
	}

	return s
}

// Push appends a byte to the queue, it returns false, leaving the queue
// unchanged, when the queue is full.
func (f *FIFO) Push(b byte) bool {
	c := uint32(len(f.buf))

	if uint32(f.Len()) == c {
		return false
	}

	i := f.write
	f.buf[slot(i, c)] = b

	i++
	if i == 2*c {
		i = 0
	}

	atomic.StoreUint32(&f.write, i)

	return true
}

// Pop removes and returns the oldest queued byte, it returns false when the
// queue is empty.
func (f *FIFO) Pop() (b byte, ok bool) {
	if f.Len() == 0 {
		return 0, false
	}

	c := uint32(len(f.buf))

	i := f.read
	b = f.buf[slot(i, c)]

	i++
	if i == 2*c {
		i = 0
	}

	atomic.StoreUint32(&f.read, i)

	return b, true
}

func slot(i uint32, c uint32) uint32 {
	if i >= c {
		return i - c
	}

	return i
}
