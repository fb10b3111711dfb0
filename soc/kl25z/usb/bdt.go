// Kinetis KL25Z USB-FS device controller driver
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import (
	"github.com/hidstream/kl25z/bits"
	"github.com/hidstream/kl25z/dma"
	"github.com/hidstream/kl25z/internal/reg"
)

// Buffer descriptor constants
// (35.3.3, Buffer Descriptor Table, KL25RM)
//
// The controller scans a table of 64-bit buffer descriptors, two banks
// (EVEN/ODD) per direction per endpoint, each holding a 32-bit control
// word followed by the buffer address. The OWN bit selects whether
// software or the controller may access a descriptor, the token pid
// field within the control word is valid only while software owns it.
const (
	// Transfer direction
	RX = 0
	TX = 1

	// Ping-pong bank
	EVEN = 0
	ODD  = 1

	// Data toggle
	DATA0 = 0
	DATA1 = 1

	// byte count, bits 31..16
	BD_BC = 16
	// descriptor ownership
	BD_OWN = 7
	// data toggle of the transaction
	BD_DATA1 = 6
	// token pid of the completed transaction, bits 5..2
	BD_TOK = 2
	// data toggle synchronization enable
	BD_DTS = 3
	// issue a STALL handshake
	BD_STALL = 2

	// The table must be aligned to a 512 byte boundary as its address
	// bits 8..0 are not programmable.
	BDT_ALIGN = 512

	// 8 bytes per descriptor, RX/TX times EVEN/ODD per endpoint
	BDT_SIZE = USB_NUM_ENDPOINTS * 4 * 8
)

// endpointState tracks the bank and data toggle of the next transmission on
// an endpoint. Receive banks need no tracking as their toggle is fixed at
// initialization (EVEN:DATA0, ODD:DATA1) and preserved on release.
type endpointState struct {
	txBank  int
	txData1 int
}

// bd returns the buffer descriptor address for the given endpoint,
// direction and bank.
func (hw *USB) bd(n int, dir int, bank int) uint {
	return hw.bdt + uint(((n<<2)|(dir<<1)|bank)*8)
}

// bdOwned composes a control word handing a descriptor to the controller
// with the given byte count and data toggle.
func bdOwned(count int, data1 int) (desc uint32) {
	bits.SetN(&desc, BD_BC, 0xffff, uint32(count))
	bits.Set(&desc, BD_OWN)
	bits.Set(&desc, BD_DTS)
	bits.SetTo(&desc, BD_DATA1, data1 == DATA1)

	return
}

// initBDT carves the buffer descriptor table, the endpoint bank buffers and
// the message slot out of the DMA region.
func (hw *USB) initBDT() {
	hw.bdt, _ = dma.Reserve(BDT_SIZE, BDT_ALIGN)

	for i := 0; i < BDT_SIZE/4; i++ {
		reg.Write(hw.bdt+uint(i*4), 0)
	}

	for n := 0; n < USB_NUM_ENDPOINTS; n++ {
		for _, bank := range []int{EVEN, ODD} {
			hw.rxBuf[n][bank], _ = dma.Reserve(ENDPOINT_BUF_SIZE, 0)
			hw.txBuf[n][bank], _ = dma.Reserve(ENDPOINT_BUF_SIZE, 0)
		}
	}

	hw.msg, _ = dma.Reserve(ENDPOINT_BUF_SIZE, 0)
}

// armTX hands the next transmit descriptor of an endpoint to the controller,
// then advances the software bank and data toggle tracking.
//
// The descriptor must be software owned (see txFree). The buffer address is
// published before the control word, which carries the byte count, data
// toggle and OWN bit in a single final store acting as the ownership
// hand-off.
func (hw *USB) armTX(n int, addr uint, size int) {
	s := &hw.ep[n]
	bd := hw.bd(n, TX, s.txBank)

	hw.txArmed[n][s.txBank] = addr

	reg.Write(bd+4, uint32(addr))
	reg.Write(bd, bdOwned(size, s.txData1))

	s.txData1 ^= 1
	s.txBank ^= 1
}

// releaseRX returns a completed receive descriptor to the controller for a
// full size reception, preserving its data toggle so that EVEN banks keep
// receiving DATA0 and ODD banks DATA1 as set at endpoint initialization.
func (hw *USB) releaseRX(bd uint) {
	data1 := int(reg.Get(bd, BD_DATA1, 1))
	reg.Write(bd, bdOwned(ENDPOINT_BUF_SIZE, data1))
}

// txFree returns whether the descriptor for the next transmission on an
// endpoint is software owned.
func (hw *USB) txFree(n int) bool {
	return reg.Get(hw.bd(n, TX, hw.ep[n].txBank), BD_OWN, 1) == 0
}

// initEndpoint arms both receive banks of an endpoint, clears its transmit
// descriptors, resets the software transmit tracking and enables the
// endpoint for transfers with handshaking.
func (hw *USB) initEndpoint(n int) {
	s := &hw.ep[n]
	s.txBank = EVEN
	s.txData1 = DATA0

	even := hw.bd(n, RX, EVEN)
	reg.Write(even+4, uint32(hw.rxBuf[n][EVEN]))
	reg.Write(even, bdOwned(ENDPOINT_BUF_SIZE, DATA0))

	odd := hw.bd(n, RX, ODD)
	reg.Write(odd+4, uint32(hw.rxBuf[n][ODD]))
	reg.Write(odd, bdOwned(ENDPOINT_BUF_SIZE, DATA1))

	reg.Write(hw.bd(n, TX, EVEN), 0)
	reg.Write(hw.bd(n, TX, ODD), 0)

	var c uint8
	bits.Set8(&c, ENDPT_EPRXEN)
	bits.Set8(&c, ENDPT_EPTXEN)
	bits.Set8(&c, ENDPT_EPHSHK)

	reg.Write8(hw.endpt(n), c)
}

// stall forces the endpoint to return a STALL handshake to the host, the
// condition is recovered by the next SETUP token.
func (hw *USB) stall(n int) {
	var c uint8
	bits.Set8(&c, ENDPT_EPSTALL)
	bits.Set8(&c, ENDPT_EPRXEN)
	bits.Set8(&c, ENDPT_EPTXEN)
	bits.Set8(&c, ENDPT_EPHSHK)

	reg.Write8(hw.endpt(n), c)
}
