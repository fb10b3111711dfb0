// Kinetis KL25Z USB-FS device controller driver
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import (
	"log"

	"github.com/hidstream/kl25z/dma"
	"github.com/hidstream/kl25z/internal/reg"
)

// Control transfer state is carried between tokens by three variables on
// the controller instance:
//
//	setup   - the most recent SETUP packet, copied by value
//	pending - response bytes not yet handed to a transmit descriptor
//	sending - a data stage is open
//
// An open data stage with no pending bytes means the last armed chunk
// filled a whole packet and the transfer terminates with a zero length
// packet on the next IN token.

// controlHandler services a completed transaction on the control endpoint.
func (hw *USB) controlHandler(tok uint8, bank int) {
	switch tok {
	case TOK_SETUP:
		hw.controlSETUP(bank)
	case TOK_IN:
		hw.controlIN()
	case TOK_OUT, TOK_SOF:
		// handshake only, these terminate the status stage of OUT
		// type control transfers
	}
}

// controlSETUP decodes a SETUP packet and starts the response, stalling the
// endpoint on unsupported requests.
func (hw *USB) controlSETUP(bank int) {
	var raw [8]byte

	// The packet contents outlive the receive buffer, which is handed
	// back to the controller right after this handler returns.
	dma.Read(hw.rxBuf[CONTROL_ENDPOINT][bank], 0, raw[:])
	hw.setup = parseSetup(raw[:])

	hw.rxActive(true)

	// A SETUP token voids any pending IN data and the data stage always
	// starts at DATA1, reclaim both transmit descriptors unconditionally.
	reg.Write(hw.bd(CONTROL_ENDPOINT, TX, EVEN), 0)
	reg.Write(hw.bd(CONTROL_ENDPOINT, TX, ODD), 0)
	hw.ep[CONTROL_ENDPOINT].txData1 = DATA1
	hw.pending = nil
	hw.sending = false

	var data []byte
	var stall bool

	switch hw.setup.requestAndType() {
	case SET_ADDRESS_DEVICE:
		// the address is latched once the status IN completes (see
		// controlIN), answering from the old address until then
	case SET_CONFIGURATION_DEVICE:
		// a single configuration exists, acknowledge
	case GET_DESCRIPTOR_DEVICE, GET_DESCRIPTOR_INTERFACE:
		if d, ok := hw.Descriptors.Lookup(hw.setup.Value, hw.setup.Index); ok {
			data = d
			hw.txActive(true)
		} else {
			stall = true
		}
	default:
		stall = true
	}

	if stall {
		hw.stall(CONTROL_ENDPOINT)
		log.Printf("usb: stalling request %#04x", hw.setup.requestAndType())
	} else {
		// Truncate to the host requested length, requests without a
		// data stage yield a zero length packet.
		hw.pending = trim(data, hw.setup.Length)
		hw.sending = true

		// Both descriptors were reclaimed above, up to two chunks can
		// be armed immediately, the rest is carried over to IN tokens.
		hw.armControlIN()

		if hw.sending {
			hw.armControlIN()
		}
	}

	// the controller freezes token processing on every SETUP
	reg.Write8(hw.ctl, 1<<CTL_USBENSOFEN)
}

// controlIN continues an open data stage and performs the deferred address
// assignment once a SET_ADDRESS status stage completes.
func (hw *USB) controlIN() {
	if hw.sending {
		hw.armControlIN()
	}

	if hw.setup.requestAndType() == SET_ADDRESS_DEVICE {
		// (35.4.7, Address register, KL25RM)
		reg.Write8(hw.addr, uint8(hw.setup.Value))
	}
}

// armControlIN stages the next response chunk in the bank buffer of the
// current transmit descriptor and arms it.
func (hw *USB) armControlIN() {
	size := len(hw.pending)

	if size > ENDPOINT_BUF_SIZE {
		size = ENDPOINT_BUF_SIZE
	}

	buf := hw.txBuf[CONTROL_ENDPOINT][hw.ep[CONTROL_ENDPOINT].txBank]

	if size > 0 {
		dma.Write(buf, 0, hw.pending[:size])
	}

	hw.armTX(CONTROL_ENDPOINT, buf, size)
	hw.pending = hw.pending[size:]

	// a trailing chunk of full packet size keeps the stage open so that
	// the next IN token carries the terminating zero length packet
	if len(hw.pending) == 0 && size < ENDPOINT_BUF_SIZE {
		hw.pending = nil
		hw.sending = false
	}
}
