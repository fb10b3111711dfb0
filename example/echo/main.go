// Stream-over-HID echo example
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// The echo example enumerates as a generic HID device and pumps every
// received stream byte straight back to the host, inserting a letter of
// the alphabet every 250ms. Incoming out-of-band messages drive the blue
// LED and are acknowledged over the stream.
package main

import (
	"time"

	"github.com/hidstream/kl25z/board/frdmkl25z"
	"github.com/hidstream/kl25z/dma"
	"github.com/hidstream/kl25z/soc/kl25z"
	"github.com/hidstream/kl25z/soc/kl25z/usb"
)

// SRAM region reserved for the USB DMA plane, kept out of the Go runtime
// through the memory layout of the linked image.
const (
	dmaStart = 0x1ffff000
	dmaSize  = 0x1000
)

func send(hw *usb.USB, s string) {
	for i := 0; i < len(s); i++ {
		hw.TX.Push(s[i])
	}
}

func main() {
	dma.Init(dmaStart, dmaSize)

	hw := kl25z.USB0

	hw.RxActivity = func(on bool) {
		frdmkl25z.LED("red", on)
	}

	hw.TxActivity = func(on bool) {
		frdmkl25z.LED("green", on)
	}

	hw.HandleMessage = func(msg []byte) {
		if msg[0] == 1 {
			frdmkl25z.LED("blue", true)
			send(hw, "blue led has been turned on!\n")
		} else {
			frdmkl25z.LED("blue", false)
			send(hw, "blue led has been turned off!\n")
		}
	}

	hw.Init()

	letter := time.NewTicker(250 * time.Millisecond)
	count := byte(0)

	for {
		hw.ServiceInterrupts()

		// pump everything from RX straight back into TX...
		for {
			c, ok := hw.RX.Pop()

			if !ok {
				break
			}

			hw.TX.Push(c)
		}

		// ...and insert a funny letter from time to time
		select {
		case <-letter.C:
			hw.TX.Push('A' + count)

			if count++; count == 26 {
				count = 0
			}
		default:
		}
	}
}
