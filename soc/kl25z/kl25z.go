// Kinetis KL25Z support for bare metal Go
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package kl25z provides support for the NXP Kinetis KL25Z family of SoCs,
// exposing its peripheral instances along with clock gating control through
// the System Integration Module (SIM).
//
// This package is only meant to be used with `GOOS=tamago` as supported by
// the TamaGo framework for bare metal Go, see
// https://github.com/usbarmory/tamago.
package kl25z

import (
	"github.com/hidstream/kl25z/internal/reg"
	"github.com/hidstream/kl25z/soc/kl25z/gpio"
	"github.com/hidstream/kl25z/soc/kl25z/usb"
)

// Peripheral registers
const (
	// System Integration Module
	// (Chapter 12, SIM, KL25RM)
	SIM_BASE = 0x40047000

	SIM_SOPT2       = SIM_BASE + 0x1004
	SOPT2_USBSRC    = 18
	SOPT2_PLLFLLSEL = 16

	SIM_SCGC4    = SIM_BASE + 0x1034
	SCGC4_USBOTG = 18

	SIM_SCGC5 = SIM_BASE + 0x1038

	// Port control (PCR) bases
	// (Chapter 11, Port control and interrupts, KL25RM)
	PORTA_BASE = 0x40049000
	PORTB_BASE = 0x4004a000
	PORTC_BASE = 0x4004b000
	PORTD_BASE = 0x4004c000
	PORTE_BASE = 0x4004d000

	// Single cycle GPIO (FGPIO) bases
	// (Chapter 41, General-Purpose Input/Output, KL25RM)
	FGPIOA_BASE = 0xf8000000
	FGPIOB_BASE = 0xf8000040
	FGPIOC_BASE = 0xf8000080
	FGPIOD_BASE = 0xf80000c0
	FGPIOE_BASE = 0xf8000100

	// USB-FS OTG controller
	USB0_BASE = 0x40072000
)

// Peripheral interrupt IDs
// (3.2.2.1, Interrupt channel assignments, KL25RM)
const (
	USB0_IRQ = 24
)

// Peripheral instances
var (
	// USB-FS device controller
	USB0 = &usb.USB{
		Base:        USB0_BASE,
		IRQ:         USB0_IRQ,
		EnableClock: EnableUSBClock,
	}

	// GPIO controllers
	GPIOA = &gpio.GPIO{Index: 0, Base: FGPIOA_BASE, Port: PORTA_BASE}
	GPIOB = &gpio.GPIO{Index: 1, Base: FGPIOB_BASE, Port: PORTB_BASE}
	GPIOC = &gpio.GPIO{Index: 2, Base: FGPIOC_BASE, Port: PORTC_BASE}
	GPIOD = &gpio.GPIO{Index: 3, Base: FGPIOD_BASE, Port: PORTD_BASE}
	GPIOE = &gpio.GPIO{Index: 4, Base: FGPIOE_BASE, Port: PORTE_BASE}
)

// EnableUSBClock selects the 48 MHz PLL/FLL output as the USB clock source
// and gates the USB-FS module clock on.
func EnableUSBClock() error {
	reg.Set(SIM_SOPT2, SOPT2_USBSRC)
	reg.Set(SIM_SOPT2, SOPT2_PLLFLLSEL)
	reg.Set(SIM_SCGC4, SCGC4_USBOTG)

	return nil
}

// EnablePortClock gates on the port control clock of a GPIO controller,
// required before any of its pins can be configured.
func EnablePortClock(g *gpio.GPIO) {
	// PORTA..PORTE gates sit at bits 9..13
	// (12.2.9, System Clock Gating Control Register 5, KL25RM)
	reg.Set(SIM_SCGC5, 9+g.Index)
}
