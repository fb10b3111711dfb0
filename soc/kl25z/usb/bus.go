// Kinetis KL25Z USB-FS device controller driver
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package usb implements a driver for the USB-FS OTG controller included in
// NXP Kinetis KL25Z SoCs, used in device mode to tunnel a full duplex byte
// stream through two fixed size HID reports, adopting the following
// specifications:
//   - KL25RM  - KL25 Sub-Family Reference Manual - Rev 3 09/2012
//   - USB2.0  - USB Specification Revision 2.0
//   - HID1.11 - Device Class Definition for Human Interface Devices
//
// The device enumerates as a generic HID so that no vendor driver is
// required on the host, the byte stream and an out-of-band message channel
// are carried in the report payloads (see stream.go).
//
// This package is only meant to be used with `GOOS=tamago` as supported by
// the TamaGo framework for bare metal Go, see
// https://github.com/usbarmory/tamago.
package usb

import (
	"sync"

	"github.com/hidstream/kl25z/dma"
	"github.com/hidstream/kl25z/fifo"
	"github.com/hidstream/kl25z/internal/reg"
)

// USB-FS registers
// (Chapter 35, USB OTG Controller, KL25RM)
const (
	USBx_OTGISTAT = 0x10

	USBx_ISTAT   = 0x80
	ISTAT_STALL  = 7
	ISTAT_ATTACH = 6
	ISTAT_RESUME = 5
	ISTAT_SLEEP  = 4
	ISTAT_TOKDNE = 3
	ISTAT_SOFTOK = 2
	ISTAT_ERROR  = 1
	ISTAT_USBRST = 0

	USBx_INTEN   = 0x84
	USBx_ERRSTAT = 0x88
	USBx_ERREN   = 0x8c

	USBx_STAT = 0x90
	STAT_ENDP = 4
	STAT_TX   = 3
	STAT_ODD  = 2

	USBx_CTL       = 0x94
	CTL_SE0        = 6
	CTL_ODDRST     = 1
	CTL_USBENSOFEN = 0

	USBx_ADDR = 0x98

	USBx_BDTPAGE1 = 0x9c
	USBx_BDTPAGE2 = 0xb0
	USBx_BDTPAGE3 = 0xb4

	USBx_ENDPT    = 0xc0
	ENDPT_EPRXEN  = 3
	ENDPT_EPTXEN  = 2
	ENDPT_EPSTALL = 1
	ENDPT_EPHSHK  = 0

	USBx_USBCTRL = 0x100
	USBCTRL_SUSP = 7
	USBCTRL_PDE  = 6

	USBx_CONTROL           = 0x108
	CONTROL_DPPULLUPNONOTG = 4

	USBx_USBTRC0     = 0x10c
	USBTRC0_USBRESET = 7
)

// Driver constants
const (
	// CONTROL_ENDPOINT is the default control pipe.
	CONTROL_ENDPOINT = 0
	// STREAM_ENDPOINT carries the stream-over-HID reports.
	STREAM_ENDPOINT = 1

	// ENDPOINT_BUF_SIZE is the size of each endpoint bank buffer as well
	// as wMaxPacketSize of both interrupt endpoints.
	ENDPOINT_BUF_SIZE = 64
	// USB_NUM_ENDPOINTS is the number of endpoints scanned by the
	// controller through the BDT.
	USB_NUM_ENDPOINTS = 2

	// FIFO_CAPACITY is the default stream queue capacity per direction.
	FIFO_CAPACITY = 512
)

// USB represents a USB-FS controller instance in device mode.
type USB struct {
	sync.Mutex

	// Base register
	Base uint
	// Interrupt ID
	IRQ int
	// Clock source selection and gating function
	EnableClock func() error

	// Descriptors is the table answering GET_DESCRIPTOR requests, it
	// defaults to the stream-over-HID set (see descriptor_hid.go).
	Descriptors *DescriptorTable

	// RX is the stream of bytes received from the host, consumed by the
	// application.
	RX *fifo.FIFO
	// TX is the stream of bytes to transmit to the host, filled by the
	// application.
	TX *fifo.FIFO

	// RxActivity, when set, is invoked on receive activity (e.g. LED
	// control), with a false argument at each start-of-frame.
	RxActivity func(on bool)
	// TxActivity, when set, is invoked on transmit activity (e.g. LED
	// control), with a false argument at each start-of-frame.
	TxActivity func(on bool)
	// HandleMessage, when set, receives the 63-byte payload of each
	// incoming out-of-band message packet.
	HandleMessage func(msg []byte)

	// control registers
	otgistat uint
	istat    uint
	inten    uint
	errstat  uint
	erren    uint
	stat     uint
	ctl      uint
	addr     uint
	page1    uint
	page2    uint
	page3    uint
	usbctrl  uint
	control  uint
	trc0     uint

	// buffer descriptor table
	bdt uint
	// endpoint bank buffers
	rxBuf [USB_NUM_ENDPOINTS][2]uint
	txBuf [USB_NUM_ENDPOINTS][2]uint
	// buffer armed on each transmit bank
	txArmed [USB_NUM_ENDPOINTS][2]uint
	// software transmit bank/toggle tracking
	ep [USB_NUM_ENDPOINTS]endpointState

	// control transfer carry-over (see ep0.go)
	setup   SetupData
	pending []byte
	sending bool

	// out-of-band message slot (see stream.go)
	msg      uint
	msgState uint32
}

// endpt returns the endpoint control register address for endpoint n.
func (hw *USB) endpt(n int) uint {
	return hw.Base + USBx_ENDPT + uint(4*n)
}

// Init initializes the USB controller in device mode, allocating the buffer
// descriptor table and all endpoint buffers within the DMA region, which
// must have been initialized beforehand (see dma.Init).
//
// Enumeration is interrupt driven, the application must invoke
// ServiceInterrupts() on each controller interrupt (or poll it).
func (hw *USB) Init() {
	hw.Lock()
	defer hw.Unlock()

	if hw.Base == 0 || hw.EnableClock == nil {
		panic("invalid USB controller instance")
	}

	if dma.Default() == nil {
		panic("DMA region not initialized")
	}

	hw.otgistat = hw.Base + USBx_OTGISTAT
	hw.istat = hw.Base + USBx_ISTAT
	hw.inten = hw.Base + USBx_INTEN
	hw.errstat = hw.Base + USBx_ERRSTAT
	hw.erren = hw.Base + USBx_ERREN
	hw.stat = hw.Base + USBx_STAT
	hw.ctl = hw.Base + USBx_CTL
	hw.addr = hw.Base + USBx_ADDR
	hw.page1 = hw.Base + USBx_BDTPAGE1
	hw.page2 = hw.Base + USBx_BDTPAGE2
	hw.page3 = hw.Base + USBx_BDTPAGE3
	hw.usbctrl = hw.Base + USBx_USBCTRL
	hw.control = hw.Base + USBx_CONTROL
	hw.trc0 = hw.Base + USBx_USBTRC0

	hw.initBDT()

	// select clock source and gate the module clock
	if err := hw.EnableClock(); err != nil {
		panic(err)
	}

	// assert and release the module soft reset
	reg.Set8(hw.trc0, USBTRC0_USBRESET)
	reg.Clear8(hw.trc0, USBTRC0_USBRESET)

	// program the BDT base
	// (35.4.24-26, BDT Page register 1/2/3, KL25RM)
	reg.Write8(hw.page1, uint8(hw.bdt>>8))
	reg.Write8(hw.page2, uint8(hw.bdt>>16))
	reg.Write8(hw.page3, uint8(hw.bdt>>24))

	// clear all pending flags
	reg.Write8(hw.istat, 0xff)
	reg.Write8(hw.errstat, 0xff)
	reg.Write8(hw.otgistat, 0xff)

	// undocumented bit, must be set for proper operation
	reg.Or8(hw.trc0, 0x40)

	// enable SOF generation, take the transceiver out of suspend
	reg.Write8(hw.ctl, 1<<CTL_USBENSOFEN)
	reg.Write8(hw.usbctrl, 0)

	// the bus reset interrupt starts enumeration handling
	reg.Set8(hw.inten, ISTAT_USBRST)

	// enable the D+ pull-up resistor (full speed, 12 Mbit/s)
	reg.Write8(hw.control, 1<<CONTROL_DPPULLUPNONOTG)

	if hw.RX == nil {
		hw.RX = &fifo.FIFO{}
		hw.RX.Init(make([]byte, FIFO_CAPACITY))
	}

	if hw.TX == nil {
		hw.TX = &fifo.FIFO{}
		hw.TX.Init(make([]byte, FIFO_CAPACITY))
	}

	if hw.Descriptors == nil {
		hw.Descriptors = StreamDescriptors()
	}
}

// DeviceAddress returns the current function address assigned by the host.
func (hw *USB) DeviceAddress() uint8 {
	return reg.Read8(hw.addr)
}

func (hw *USB) rxActive(on bool) {
	if hw.RxActivity != nil {
		hw.RxActivity(on)
	}
}

func (hw *USB) txActive(on bool) {
	if hw.TxActivity != nil {
		hw.TxActivity(on)
	}
}
