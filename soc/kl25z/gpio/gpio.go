// Kinetis KL25Z GPIO support
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package gpio implements helpers for GPIO configuration on NXP Kinetis
// KL25Z SoCs, through the single cycle FGPIO interface.
//
// This package is only meant to be used with `GOOS=tamago` as supported by
// the TamaGo framework for bare metal Go, see
// https://github.com/usbarmory/tamago.
package gpio

import (
	"errors"
	"fmt"

	"github.com/hidstream/kl25z/internal/reg"
)

// GPIO registers
// (Chapter 41, General-Purpose Input/Output, KL25RM)
const (
	GPIO_PDOR = 0x00
	GPIO_PSOR = 0x04
	GPIO_PCOR = 0x08
	GPIO_PTOR = 0x0c
	GPIO_PDIR = 0x10
	GPIO_PDDR = 0x14

	// (11.5.1, Pin Control Register n, KL25RM)
	PCR_MUX  = 8
	MUX_GPIO = 0b001
)

// GPIO controller instance
type GPIO struct {
	// Controller index
	Index int
	// FGPIO base register
	Base uint
	// Port control base register
	Port uint
}

// Pin instance
type Pin struct {
	num int

	set    uint
	clear  uint
	toggle uint
	data   uint
	dir    uint
}

// Init initializes a pin for GPIO mode.
func (hw *GPIO) Init(num int) (pin *Pin, err error) {
	if hw.Base == 0 || hw.Port == 0 {
		return nil, errors.New("invalid GPIO controller instance")
	}

	if num > 31 {
		return nil, fmt.Errorf("invalid GPIO number %d", num)
	}

	pin = &Pin{
		num:    num,
		set:    hw.Base + GPIO_PSOR,
		clear:  hw.Base + GPIO_PCOR,
		toggle: hw.Base + GPIO_PTOR,
		data:   hw.Base + GPIO_PDIR,
		dir:    hw.Base + GPIO_PDDR,
	}

	// route the pad to its GPIO function
	reg.SetN(hw.Port+uint(4*num), PCR_MUX, 0b111, MUX_GPIO)

	return
}

// Out configures the pin as output.
func (pin *Pin) Out() {
	reg.Set(pin.dir, pin.num)
}

// In configures the pin as input.
func (pin *Pin) In() {
	reg.Clear(pin.dir, pin.num)
}

// High configures the pin signal as high.
func (pin *Pin) High() {
	reg.Write(pin.set, 1<<pin.num)
}

// Low configures the pin signal as low.
func (pin *Pin) Low() {
	reg.Write(pin.clear, 1<<pin.num)
}

// Toggle inverts the pin signal.
func (pin *Pin) Toggle() {
	reg.Write(pin.toggle, 1<<pin.num)
}

// Value returns the pin signal level.
func (pin *Pin) Value() (high bool) {
	return reg.Get(pin.data, pin.num, 1) == 1
}
