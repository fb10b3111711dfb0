// Kinetis KL25Z USB-FS device controller driver
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import (
	"sync/atomic"

	"github.com/hidstream/kl25z/internal/reg"
)

// Token pids reported in completed buffer descriptors
// (p195, Table 8-1, USB2.0)
const (
	TOK_OUT   = 0x1
	TOK_IN    = 0x9
	TOK_SOF   = 0x5
	TOK_SETUP = 0xd
)

// ServiceInterrupts handles the pending controller events, it must be
// invoked by the application on each controller interrupt, or polled.
//
// A completed transaction raises TOKDNE only after its handshake: once the
// transmit descriptors run dry the controller NAKs IN tokens without
// raising any event, which is why the start-of-frame handler re-arms the
// stream endpoint (see checkTX).
func (hw *USB) ServiceInterrupts() {
	status := reg.Read8(hw.istat)

	if status&(1<<ISTAT_USBRST) != 0 {
		hw.busReset()
		return
	}

	if status&(1<<ISTAT_ERROR) != 0 {
		// transient, log to the error status register and clear
		reg.WriteBack8(hw.errstat)
		reg.Write8(hw.istat, 1<<ISTAT_ERROR)
	}

	if status&(1<<ISTAT_SOFTOK) != 0 {
		hw.rxActive(false)
		hw.txActive(false)

		hw.checkTX(STREAM_ENDPOINT)

		reg.Write8(hw.istat, 1<<ISTAT_SOFTOK)
	}

	if status&(1<<ISTAT_TOKDNE) != 0 {
		// (35.4.9, Status register, KL25RM)
		stat := reg.Read8(hw.stat)

		n := int(stat >> STAT_ENDP)
		tx := int(stat>>STAT_TX) & 1
		bank := int(stat>>STAT_ODD) & 1

		bd := hw.bd(n, tx, bank)
		tok := uint8(reg.Get(bd, BD_TOK, 0xf))

		switch n {
		case CONTROL_ENDPOINT:
			hw.controlHandler(tok, bank)
		case STREAM_ENDPOINT:
			hw.streamHandler(tok, bd, bank)
		}

		if tx == RX {
			hw.releaseRX(bd)
		}

		reg.Write8(hw.istat, 1<<ISTAT_TOKDNE)
	}

	if status&(1<<ISTAT_SLEEP) != 0 {
		reg.Write8(hw.istat, 1<<ISTAT_SLEEP)
	}

	if status&(1<<ISTAT_STALL) != 0 {
		reg.Write8(hw.istat, 1<<ISTAT_STALL)
	}
}

// busReset services a host driven bus reset, discarding all in-flight
// transfer state and restarting enumeration at address zero. The stream
// queues are left as they are, surviving bytes may be observed by the
// application.
func (hw *USB) busReset() {
	// realign the controller ping-pong tracking to the EVEN banks
	reg.Set8(hw.ctl, CTL_ODDRST)

	hw.initEndpoint(CONTROL_ENDPOINT)
	hw.initEndpoint(STREAM_ENDPOINT)

	// drop control transfer carry-over
	hw.pending = nil
	hw.sending = false

	// an in-flight message will never complete, reclaim its slot
	if atomic.LoadUint32(&hw.msgState) == msgTransmitting {
		atomic.StoreUint32(&hw.msgState, msgFree)
	}

	reg.Write8(hw.errstat, 0xff)
	reg.Write8(hw.istat, 0xff)

	// after reset the device answers on address 0, per USB spec
	reg.Write8(hw.addr, 0)

	reg.Write8(hw.erren, 0xff)
	reg.Write8(hw.inten, 1<<ISTAT_USBRST|1<<ISTAT_ERROR|1<<ISTAT_SOFTOK|
		1<<ISTAT_TOKDNE|1<<ISTAT_SLEEP|1<<ISTAT_STALL)
}
