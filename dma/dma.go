// Kinetis KL25Z support for bare metal Go
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package dma provides primitives for direct memory allocation and
// alignment, it is primarily used in bare metal device driver operation to
// avoid passing Go pointers for DMA purposes.
//
// On the KL25Z the USB-FS controller scans the Buffer Descriptor Table and
// the endpoint buffers autonomously, both are therefore placed in a region
// carved out of SRAM through this package. The application must guarantee
// that the region is never used by the Go runtime.
package dma

// Init initializes the global memory region for DMA buffer allocation.
//
// The global region is used throughout this module for all DMA allocations.
func Init(start uint, size int) {
	dma = &Region{
		start: start,
		size:  uint(size),
	}

	dma.Init()
}

// Default returns the global DMA region instance.
func Default() *Region {
	return dma
}

// Reserve is the equivalent of Region.Reserve() on the global DMA region.
func Reserve(size int, align int) (addr uint, buf []byte) {
	return dma.Reserve(size, align)
}

// Alloc is the equivalent of Region.Alloc() on the global DMA region.
func Alloc(buf []byte, align int) (addr uint) {
	return dma.Alloc(buf, align)
}

// Read is the equivalent of Region.Read() on the global DMA region.
func Read(addr uint, off int, buf []byte) {
	dma.Read(addr, off, buf)
}

// Write is the equivalent of Region.Write() on the global DMA region.
func Write(addr uint, off int, buf []byte) {
	dma.Write(addr, off, buf)
}

// Free is the equivalent of Region.Free() on the global DMA region.
func Free(addr uint) {
	dma.Free(addr)
}

// Release is the equivalent of Region.Release() on the global DMA region.
func Release(addr uint) {
	dma.Release(addr)
}
