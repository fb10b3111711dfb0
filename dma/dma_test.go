// Kinetis KL25Z support for bare metal Go
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dma

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegion(t *testing.T, size int) *Region {
	t.Helper()

	mem := make([]uint64, size/8)

	r := &Region{
		start: uint(uintptr(unsafe.Pointer(&mem[0]))),
		size:  uint(size),
	}
	r.Init()

	t.Cleanup(func() {
		runtime.KeepAlive(mem)
	})

	return r
}

func TestAllocReadWrite(t *testing.T) {
	r := newTestRegion(t, 4096)

	buf := []byte{0xde, 0xad, 0xbe, 0xef}
	addr := r.Alloc(buf, 0)
	require.NotZero(t, addr)

	out := make([]byte, 4)
	r.Read(addr, 0, out)
	assert.Equal(t, buf, out)

	r.Write(addr, 2, []byte{0x55})
	r.Read(addr, 0, out)
	assert.Equal(t, []byte{0xde, 0xad, 0x55, 0xef}, out)

	r.Free(addr)
}

func TestReserveAlignment(t *testing.T) {
	r := newTestRegion(t, 4096)

	// the USB buffer descriptor table must sit on a 512 byte boundary
	addr, buf := r.Reserve(64, 512)

	require.NotZero(t, addr)
	assert.Zero(t, addr%512)
	assert.Len(t, buf, 64)
}

func TestReserveIsView(t *testing.T) {
	r := newTestRegion(t, 4096)

	addr, buf := r.Reserve(8, 0)

	// reserved buffers are direct views of the region
	r.Write(addr, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf)

	res, ptr := r.Reserved(buf)
	assert.True(t, res)
	assert.Equal(t, addr, ptr)

	r.Release(addr)
}

func TestAllocFreeReuse(t *testing.T) {
	r := newTestRegion(t, 256)

	a := r.Alloc(make([]byte, 128), 0)
	b := r.Alloc(make([]byte, 64), 0)

	r.Free(a)
	r.Free(b)

	// freed blocks coalesce, the full region is allocatable again
	c := r.Alloc(make([]byte, 256), 0)
	assert.NotZero(t, c)
	r.Free(c)
}

func TestOutOfMemory(t *testing.T) {
	r := newTestRegion(t, 64)

	assert.Panics(t, func() {
		r.Alloc(make([]byte, 128), 0)
	})
}

func TestZeroSize(t *testing.T) {
	r := newTestRegion(t, 64)

	assert.Zero(t, r.Alloc(nil, 0))

	addr, buf := r.Reserve(0, 0)
	assert.Zero(t, addr)
	assert.Nil(t, buf)
}

func TestGlobalRegion(t *testing.T) {
	mem := make([]uint64, 512)

	Init(uint(uintptr(unsafe.Pointer(&mem[0]))), len(mem)*8)
	require.NotNil(t, Default())

	addr, _ := Reserve(64, 512)
	assert.Zero(t, addr%512)

	Write(addr, 0, []byte{0xaa})

	out := make([]byte, 1)
	Read(addr, 0, out)
	assert.Equal(t, byte(0xaa), out[0])

	Release(addr)
}
