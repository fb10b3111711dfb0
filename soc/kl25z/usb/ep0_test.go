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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidstream/kl25z/internal/reg"
)

func TestGetDeviceDescriptor(t *testing.T) {
	b := newTestBus(t)
	b.reset()

	b.setup(EVEN, SetupData{
		RequestType: 0x80,
		Request:     GET_DESCRIPTOR,
		Value:       uint16(DEVICE) << 8,
		Length:      0x0040,
	})

	desc, data := b.armed(CONTROL_ENDPOINT, EVEN)

	// a single 18 byte chunk, DATA1, controller owned
	assert.Equal(t, uint32(1), desc>>BD_OWN&1)
	assert.Equal(t, uint32(1), desc>>BD_DATA1&1)
	assert.Equal(t, deviceDescriptor, data)

	// no continuation
	assert.Zero(t, reg.Read(b.hw.bd(CONTROL_ENDPOINT, TX, ODD)))
	assert.False(t, b.hw.sending)
}

func TestGetConfigurationDescriptor(t *testing.T) {
	b := newTestBus(t)
	b.reset()

	b.setup(EVEN, SetupData{
		RequestType: 0x80,
		Request:     GET_DESCRIPTOR,
		Value:       uint16(CONFIGURATION) << 8,
		Length:      0x00ff,
	})

	_, data := b.armed(CONTROL_ENDPOINT, EVEN)
	assert.Equal(t, configurationDescriptor, data)
}

func TestGetDescriptorTruncation(t *testing.T) {
	b := newTestBus(t)
	b.reset()

	// a host first probes the device descriptor with an 8 byte read
	b.setup(EVEN, SetupData{
		RequestType: 0x80,
		Request:     GET_DESCRIPTOR,
		Value:       uint16(DEVICE) << 8,
		Length:      8,
	})

	_, data := b.armed(CONTROL_ENDPOINT, EVEN)
	assert.Equal(t, deviceDescriptor[:8], data)
}

func TestSetAddress(t *testing.T) {
	b := newTestBus(t)
	b.reset()

	b.setup(EVEN, SetupData{
		Request: SET_ADDRESS,
		Value:   0x0007,
	})

	// status stage: a zero length packet, DATA1
	desc, data := b.armed(CONTROL_ENDPOINT, EVEN)
	assert.Equal(t, uint32(1), desc>>BD_OWN&1)
	assert.Equal(t, uint32(1), desc>>BD_DATA1&1)
	assert.Empty(t, data)

	// the address is latched only after the status IN completes
	require.Zero(t, b.read8(USBx_ADDR))

	b.txComplete(CONTROL_ENDPOINT, EVEN)

	assert.Equal(t, uint8(7), b.read8(USBx_ADDR))
}

func TestSetConfiguration(t *testing.T) {
	b := newTestBus(t)
	b.reset()

	b.setup(EVEN, SetupData{
		Request: SET_CONFIGURATION,
		Value:   0x0001,
	})

	desc, data := b.armed(CONTROL_ENDPOINT, EVEN)
	assert.Equal(t, uint32(1), desc>>BD_OWN&1)
	assert.Empty(t, data)

	// no stall
	assert.Zero(t, b.read8(USBx_ENDPT)>>ENDPT_EPSTALL&1)
}

func TestUnsupportedRequestStalls(t *testing.T) {
	b := newTestBus(t)
	b.reset()

	// HID SET_IDLE, not handled by the stream device
	b.setup(EVEN, SetupData{
		RequestType: 0x21,
		Request:     0x0a,
	})

	assert.Equal(t, uint8(1), b.read8(USBx_ENDPT)>>ENDPT_EPSTALL&1)

	// no data armed
	assert.Zero(t, reg.Read(b.hw.bd(CONTROL_ENDPOINT, TX, EVEN)))
	assert.Zero(t, reg.Read(b.hw.bd(CONTROL_ENDPOINT, TX, ODD)))
}

func TestUnknownDescriptorStalls(t *testing.T) {
	b := newTestBus(t)
	b.reset()

	b.setup(EVEN, SetupData{
		RequestType: 0x80,
		Request:     GET_DESCRIPTOR,
		Value:       0x0600, // device qualifier, absent on full speed only devices
		Length:      0x000a,
	})

	assert.Equal(t, uint8(1), b.read8(USBx_ENDPT)>>ENDPT_EPSTALL&1)
}

func TestControlContinuation(t *testing.T) {
	b := newTestBus(t)
	b.reset()

	// a 150 byte descriptor spans three chunks: 64+64+22
	blob := make([]byte, 150)
	for i := range blob {
		blob[i] = byte(i)
	}

	b.hw.Descriptors.Register(0x0400, 0x0000, blob)

	b.setup(EVEN, SetupData{
		RequestType: 0x80,
		Request:     GET_DESCRIPTOR,
		Value:       0x0400,
		Length:      150,
	})

	// the first two chunks are armed immediately on both banks
	desc, data := b.armed(CONTROL_ENDPOINT, EVEN)
	assert.Equal(t, uint32(1), desc>>BD_DATA1&1)
	assert.Equal(t, blob[0:64], data)

	desc, data = b.armed(CONTROL_ENDPOINT, ODD)
	assert.Equal(t, uint32(0), desc>>BD_DATA1&1)
	assert.Equal(t, blob[64:128], data)

	require.True(t, b.hw.sending)

	// the trailing chunk follows the first IN completion
	b.txComplete(CONTROL_ENDPOINT, EVEN)

	desc, data = b.armed(CONTROL_ENDPOINT, EVEN)
	assert.Equal(t, uint32(1), desc>>BD_DATA1&1)
	assert.Equal(t, blob[128:150], data)
	assert.False(t, b.hw.sending)

	b.txComplete(CONTROL_ENDPOINT, ODD)
	b.txComplete(CONTROL_ENDPOINT, EVEN)

	// nothing further is armed
	assert.Zero(t, reg.Read(b.hw.bd(CONTROL_ENDPOINT, TX, ODD))>>BD_OWN&1)
}

func TestControlZLPTermination(t *testing.T) {
	b := newTestBus(t)
	b.reset()

	// an exact multiple of the packet size must be terminated by a zero
	// length packet
	blob := make([]byte, 128)
	for i := range blob {
		blob[i] = byte(i)
	}

	b.hw.Descriptors.Register(0x0400, 0x0000, blob)

	b.setup(EVEN, SetupData{
		RequestType: 0x80,
		Request:     GET_DESCRIPTOR,
		Value:       0x0400,
		Length:      128,
	})

	_, data := b.armed(CONTROL_ENDPOINT, EVEN)
	assert.Equal(t, blob[0:64], data)

	_, data = b.armed(CONTROL_ENDPOINT, ODD)
	assert.Equal(t, blob[64:128], data)

	// all bytes delivered, yet the transfer stays open
	require.True(t, b.hw.sending)

	b.txComplete(CONTROL_ENDPOINT, EVEN)

	desc, data := b.armed(CONTROL_ENDPOINT, EVEN)
	assert.Equal(t, uint32(1), desc>>BD_OWN&1)
	assert.Empty(t, data)
	assert.False(t, b.hw.sending)
}

func TestSetupDiscardsPendingIN(t *testing.T) {
	b := newTestBus(t)
	b.reset()

	blob := make([]byte, 300)
	b.hw.Descriptors.Register(0x0400, 0x0000, blob)

	b.setup(EVEN, SetupData{
		RequestType: 0x80,
		Request:     GET_DESCRIPTOR,
		Value:       0x0400,
		Length:      300,
	})

	require.True(t, b.hw.sending)

	// a new SETUP voids the open transfer, the response restarts at DATA1
	b.setup(ODD, SetupData{
		RequestType: 0x80,
		Request:     GET_DESCRIPTOR,
		Value:       uint16(DEVICE) << 8,
		Length:      18,
	})

	desc, data := b.armed(CONTROL_ENDPOINT, EVEN)
	assert.Equal(t, uint32(1), desc>>BD_DATA1&1)
	assert.Equal(t, deviceDescriptor, data)
	assert.False(t, b.hw.sending)
}

func TestSetupUnfreezesSIE(t *testing.T) {
	b := newTestBus(t)
	b.reset()

	b.write8(USBx_CTL, 1<<CTL_USBENSOFEN|1<<CTL_ODDRST)

	b.setup(EVEN, SetupData{
		Request: SET_CONFIGURATION,
		Value:   0x0001,
	})

	// token processing resumes after every SETUP
	assert.Equal(t, uint8(1<<CTL_USBENSOFEN), b.read8(USBx_CTL))
}
