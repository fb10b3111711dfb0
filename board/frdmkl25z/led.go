// FRDM-KL25Z freedom board support
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package frdmkl25z provides support for the NXP FRDM-KL25Z freedom board.
//
// This package is only meant to be used with `GOOS=tamago` as supported by
// the TamaGo framework for bare metal Go, see
// https://github.com/usbarmory/tamago.
package frdmkl25z

import (
	"errors"
	"strings"

	"github.com/hidstream/kl25z/soc/kl25z"
	"github.com/hidstream/kl25z/soc/kl25z/gpio"
)

// On the FRDM-KL25Z the RGB LED is connected as follows, all active low:
//   - PTB18: red
//   - PTB19: green
//   - PTD1:  blue
const (
	RED   = 18
	GREEN = 19
	BLUE  = 1
)

var (
	red   *gpio.Pin
	green *gpio.Pin
	blue  *gpio.Pin
)

func init() {
	var err error

	kl25z.EnablePortClock(kl25z.GPIOB)
	kl25z.EnablePortClock(kl25z.GPIOD)

	if red, err = kl25z.GPIOB.Init(RED); err != nil {
		panic(err)
	}

	if green, err = kl25z.GPIOB.Init(GREEN); err != nil {
		panic(err)
	}

	if blue, err = kl25z.GPIOD.Init(BLUE); err != nil {
		panic(err)
	}

	for _, pin := range []*gpio.Pin{red, green, blue} {
		pin.High()
		pin.Out()
	}
}

// LED turns on/off an LED by name.
func LED(name string, on bool) (err error) {
	var led *gpio.Pin

	switch {
	case strings.EqualFold(name, "red"):
		led = red
	case strings.EqualFold(name, "green"):
		led = green
	case strings.EqualFold(name, "blue"):
		led = blue
	default:
		return errors.New("invalid LED")
	}

	if on {
		led.Low()
	} else {
		led.High()
	}

	return
}
