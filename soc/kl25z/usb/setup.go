// Kinetis KL25Z USB-FS device controller driver
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import (
	"encoding/binary"
)

// Standard request codes (p279, Table 9-4, USB2.0)
const (
	GET_STATUS        = 0
	CLEAR_FEATURE     = 1
	SET_FEATURE       = 3
	SET_ADDRESS       = 5
	GET_DESCRIPTOR    = 6
	SET_DESCRIPTOR    = 7
	GET_CONFIGURATION = 8
	SET_CONFIGURATION = 9
	GET_INTERFACE     = 10
	SET_INTERFACE     = 11
	SYNCH_FRAME       = 12
)

// Descriptor types (p279, Table 9-5, USB2.0 - p49, 7.1, HID1.11)
const (
	DEVICE        = 1
	CONFIGURATION = 2
	STRING        = 3
	INTERFACE     = 4
	ENDPOINT      = 5

	HID        = 0x21
	HID_REPORT = 0x22
)

// Requests handled on the control endpoint, keyed on the concatenation of
// bRequest and bmRequestType as laid out in memory by the controller.
const (
	// no data stage, the address is latched after the status IN
	SET_ADDRESS_DEVICE = 0x0500
	// acknowledged with a zero length packet, a single configuration exists
	SET_CONFIGURATION_DEVICE = 0x0900
	// device-targeted descriptor read
	GET_DESCRIPTOR_DEVICE = 0x0680
	// interface-targeted descriptor read (HID report descriptor)
	GET_DESCRIPTOR_INTERFACE = 0x0681
)

// SetupData implements
// p276, Table 9-2. Format of Setup Data, USB2.0.
type SetupData struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
}

// requestAndType returns the dispatch key for a setup packet, bRequest in
// the upper byte and bmRequestType in the lower one.
func (s *SetupData) requestAndType() uint16 {
	return uint16(s.Request)<<8 | uint16(s.RequestType)
}

// parseSetup decodes the 8 byte little-endian setup packet layout written
// to the endpoint buffer by the controller.
func parseSetup(buf []byte) (s SetupData) {
	s.RequestType = buf[0]
	s.Request = buf[1]
	s.Value = binary.LittleEndian.Uint16(buf[2:])
	s.Index = binary.LittleEndian.Uint16(buf[4:])
	s.Length = binary.LittleEndian.Uint16(buf[6:])

	return
}

// trim truncates a control transfer response to the host requested length.
func trim(buf []byte, wLength uint16) []byte {
	if int(wLength) < len(buf) {
		buf = buf[0:wLength]
	}

	return buf
}
