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

	"github.com/hidstream/kl25z/dma"
	"github.com/hidstream/kl25z/internal/reg"
)

// Stream-over-HID report layout, 64 bytes total: one payload size byte
// followed by 63 payload bytes.
//
// A payload size of 0..62 marks a stream report carrying that many bytes,
// the magic value marks an out-of-band message packet with all 63 payload
// bytes defined, anything else is reserved and discarded. The generic HID
// host drivers misbehave on short reports, transmissions therefore always
// carry the full report size and the effective length travels inside the
// payload.
const (
	PACKET_HEADER_SIZE = 1

	// maximum stream payload per report
	STREAM_PAYLOAD_SIZE = 62
	// out-of-band message payload size
	MESSAGE_PAYLOAD_SIZE = ENDPOINT_BUF_SIZE - PACKET_HEADER_SIZE

	// payload size marker of out-of-band message packets
	MESSAGE_MAGIC = 0xff
)

// Out-of-band message slot states. The slot cycles strictly
// free -> queued -> transmitting -> free, the state word is shared between
// the application (enqueue) and the interrupt handler (transitions).
const (
	msgFree uint32 = iota
	msgQueued
	msgTransmitting
)

// SendMessage enqueues up to 63 bytes as an out-of-band message packet,
// transmitted with priority over queued stream data through the next
// available IN transaction.
//
// It returns false, leaving the slot untouched, when a previous message is
// still queued or in flight, the application must retry later.
func (hw *USB) SendMessage(data []byte) bool {
	if atomic.LoadUint32(&hw.msgState) != msgFree {
		return false
	}

	size := len(data)

	if size > MESSAGE_PAYLOAD_SIZE {
		size = MESSAGE_PAYLOAD_SIZE
	}

	var pkt [ENDPOINT_BUF_SIZE]byte

	pkt[0] = MESSAGE_MAGIC
	copy(pkt[PACKET_HEADER_SIZE:], data[:size])

	dma.Write(hw.msg, 0, pkt[:])
	atomic.StoreUint32(&hw.msgState, msgQueued)

	return true
}

// checkTX arms the next stream endpoint transmission whenever its
// descriptor is software owned, giving a queued out-of-band message
// priority over stream data.
//
// Besides running on IN completions this is invoked once per start-of-frame
// (see ServiceInterrupts): once the transmit queue runs dry the controller
// NAKs IN tokens autonomously and no completion interrupt would ever re-arm
// the endpoint.
func (hw *USB) checkTX(n int) {
	if !hw.txFree(n) {
		return
	}

	if atomic.LoadUint32(&hw.msgState) == msgQueued {
		hw.armTX(n, hw.msg, ENDPOINT_BUF_SIZE)
		atomic.StoreUint32(&hw.msgState, msgTransmitting)
		return
	}

	if hw.TX.Len() == 0 {
		return
	}

	hw.txActive(true)

	var pkt [ENDPOINT_BUF_SIZE]byte
	size := 0

	for size < STREAM_PAYLOAD_SIZE {
		b, ok := hw.TX.Pop()

		if !ok {
			break
		}

		pkt[PACKET_HEADER_SIZE+size] = b
		size++
	}

	pkt[0] = byte(size)

	buf := hw.txBuf[n][hw.ep[n].txBank]
	dma.Write(buf, 0, pkt[:])

	hw.armTX(n, buf, ENDPOINT_BUF_SIZE)
}

// streamHandler services a completed transaction on the stream endpoint.
func (hw *USB) streamHandler(tok uint8, bd uint, bank int) {
	switch tok {
	case TOK_IN:
		// A returned transmission out of the message slot itself marks
		// completion of an out-of-band message, freeing the slot for
		// the next enqueue.
		if atomic.LoadUint32(&hw.msgState) == msgTransmitting &&
			hw.txArmed[STREAM_ENDPOINT][bank] == hw.msg {
			var hdr [PACKET_HEADER_SIZE]byte
			dma.Read(hw.msg, 0, hdr[:])

			if hdr[0] == MESSAGE_MAGIC {
				atomic.StoreUint32(&hw.msgState, msgFree)
			}
		}

		// more data may be waiting for the freed descriptor
		hw.checkTX(STREAM_ENDPOINT)
	case TOK_OUT:
		hw.rxActive(true)

		size := int(reg.Get(bd, BD_BC, 0xffff))

		if size <= PACKET_HEADER_SIZE {
			return
		}

		var pkt [ENDPOINT_BUF_SIZE]byte
		dma.Read(hw.rxBuf[STREAM_ENDPOINT][bank], 0, pkt[:])

		switch payload := int(pkt[0]); {
		case payload <= size-PACKET_HEADER_SIZE && payload <= STREAM_PAYLOAD_SIZE:
			// stream data, bytes overflowing the queue are dropped
			for i := 0; i < payload; i++ {
				hw.RX.Push(pkt[PACKET_HEADER_SIZE+i])
			}
		case pkt[0] == MESSAGE_MAGIC:
			if hw.HandleMessage != nil {
				hw.HandleMessage(pkt[PACKET_HEADER_SIZE:])
			}
		default:
			// reserved payload size, discard
		}
	}
}
