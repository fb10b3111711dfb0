// Kinetis KL25Z USB-FS device controller driver
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import (
	"testing"
	"unsafe"

	"github.com/hidstream/kl25z/dma"
	"github.com/hidstream/kl25z/internal/reg"
)

// The tests drive the controller against a memory backed register file and
// DMA region, emulating the host/SIE side by completing buffer descriptors
// and raising interrupt flags the way the hardware does.

type testBus struct {
	hw *USB

	// register file backing (word aligned)
	regs []uint32
	// DMA region backing
	mem []uint64
}

func newTestBus(t *testing.T) *testBus {
	t.Helper()

	b := &testBus{
		regs: make([]uint32, 0x200/4),
		mem:  make([]uint64, 0x4000/8),
	}

	dma.Init(uint(uintptr(unsafe.Pointer(&b.mem[0]))), len(b.mem)*8)

	b.hw = &USB{
		Base:        uint(uintptr(unsafe.Pointer(&b.regs[0]))),
		EnableClock: func() error { return nil },
	}

	b.hw.Init()

	return b
}

func (b *testBus) read8(off uint) uint8 {
	return reg.Read8(b.hw.Base + off)
}

func (b *testBus) write8(off uint, val uint8) {
	reg.Write8(b.hw.Base+off, val)
}

// reset drives a bus reset through the interrupt handler.
func (b *testBus) reset() {
	b.write8(USBx_ISTAT, 1<<ISTAT_USBRST)
	b.hw.ServiceInterrupts()
	b.write8(USBx_ISTAT, 0)
}

// irq raises an interrupt flag and services it.
func (b *testBus) irq(flag int) {
	b.write8(USBx_ISTAT, 1<<flag)
	b.hw.ServiceInterrupts()
	b.write8(USBx_ISTAT, 0)
}

// tokdne completes the transaction recorded in a buffer descriptor and
// services the resulting TOKDNE event.
func (b *testBus) tokdne(n int, dir int, bank int) {
	b.write8(USBx_STAT, uint8(n<<STAT_ENDP|dir<<STAT_TX|bank<<STAT_ODD))
	b.irq(ISTAT_TOKDNE)
}

// rxComplete emulates reception of a packet on an OUT endpoint: the packet
// is placed in the endpoint bank buffer and its descriptor is returned to
// software with the token pid and byte count filled in.
func (b *testBus) rxComplete(n int, bank int, tok uint32, pkt []byte) {
	if len(pkt) > 0 {
		dma.Write(b.hw.rxBuf[n][bank], 0, pkt)
	}

	bd := b.hw.bd(n, RX, bank)
	data1 := reg.Get(bd, BD_DATA1, 1)

	reg.Write(bd, uint32(len(pkt))<<BD_BC|data1<<BD_DATA1|tok<<BD_TOK)

	b.tokdne(n, RX, bank)
}

// txComplete emulates transmission of the packet armed on an IN endpoint
// bank, returning its descriptor with the IN token pid.
func (b *testBus) txComplete(n int, bank int) {
	bd := b.hw.bd(n, TX, bank)
	desc := reg.Read(bd)

	desc &^= 1 << BD_OWN
	desc &^= 0xf << BD_TOK
	desc |= TOK_IN << BD_TOK

	reg.Write(bd, desc)

	b.tokdne(n, TX, bank)
}

// setup emulates a SETUP transaction on the control endpoint.
func (b *testBus) setup(bank int, s SetupData) {
	pkt := []byte{
		s.RequestType,
		s.Request,
		byte(s.Value), byte(s.Value >> 8),
		byte(s.Index), byte(s.Index >> 8),
		byte(s.Length), byte(s.Length >> 8),
	}

	b.rxComplete(CONTROL_ENDPOINT, bank, TOK_SETUP, pkt)
}

// sof raises a start-of-frame event.
func (b *testBus) sof() {
	b.irq(ISTAT_SOFTOK)
}

// armed returns the descriptor control word and transmitted bytes of an
// armed IN endpoint bank.
func (b *testBus) armed(n int, bank int) (desc uint32, data []byte) {
	desc = reg.Read(b.hw.bd(n, TX, bank))
	data = make([]byte, int(desc>>BD_BC))

	if len(data) > 0 {
		dma.Read(b.hw.txArmed[n][bank], 0, data)
	}

	return
}
