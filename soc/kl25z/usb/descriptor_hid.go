// Kinetis KL25Z USB-FS device controller driver
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

import (
	"unicode/utf16"
)

// US English language ID used by all string descriptors.
const LANGUAGE_ENGLISH_US = 0x0409

// deviceDescriptor is a full speed vendor-less device with a single
// configuration (p262, Table 9-8, USB2.0).
var deviceDescriptor = []byte{
	0x12, // bLength
	0x01, // bDescriptorType
	0x01, // bcdUSB (lo)
	0x01, // bcdUSB (hi)
	0x00, // bDeviceClass
	0x00, // bDeviceSubClass
	0x00, // bDeviceProtocol
	0x40, // bMaxPacketSize
	0xad, // idVendor (lo)
	0xde, // idVendor (hi)
	0xef, // idProduct (lo)
	0xbe, // idProduct (hi)
	0x00, // bcdDevice (lo)
	0x00, // bcdDevice (hi)
	0x01, // iManufacturer
	0x02, // iProduct
	0x03, // iSerial
	0x01, // bNumConfigurations
}

// configurationDescriptor bundles the configuration, interface, HID and
// endpoint descriptors of the single HID interface: two interrupt
// endpoints (0x81 IN, 0x01 OUT), wMaxPacketSize 64, bInterval 1.
var configurationDescriptor = []byte{
	0x09, // bLength (** configuration **)
	0x02, // bDescriptorType
	0x29, // wTotalLength (lo)
	0x00, // wTotalLength (hi)
	0x01, // bNumInterfaces
	0x01, // bConfigurationValue
	0x05, // iConfiguration
	0x80, // bmAttributes
	0xfa, // bMaxPower

	0x09, // bLength (** interface **)
	0x04, // bDescriptorType
	0x00, // bInterfaceNumber
	0x00, // bAlternateSetting
	0x02, // bNumEndpoints
	0x03, // bInterfaceClass (HID)
	0x00, // bInterfaceSubClass
	0x00, // bInterfaceProtocol
	0x04, // iInterface

	0x09, // bLength (** HID **)
	0x21, // bDescriptorType
	0x01, // bcdHID (lo)
	0x01, // bcdHID (hi)
	0x00, // bCountryCode
	0x01, // bNumDescriptors
	0x22, // bDescriptorType (report)
	0x20, // wDescriptorLength (lo)
	0x00, // wDescriptorLength (hi)

	0x07, // bLength (** endpoint **)
	0x05, // bDescriptorType
	0x81, // bEndpointAddress (1 IN)
	0x03, // bmAttributes (interrupt)
	0x40, // wMaxPacketSize (lo)
	0x00, // wMaxPacketSize (hi)
	0x01, // bInterval

	0x07, // bLength (** endpoint **)
	0x05, // bDescriptorType
	0x01, // bEndpointAddress (1 OUT)
	0x03, // bmAttributes (interrupt)
	0x40, // wMaxPacketSize (lo)
	0x00, // wMaxPacketSize (hi)
	0x01, // bInterval
}

// reportDescriptor declares two vendor style reports of 63 opaque bytes
// each (IDs 1 and 2), the driver itself never dispatches on report IDs and
// treats the whole 64 byte packet uniformly.
var reportDescriptor = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x00, // Usage (Undefined)
	0xa1, 0x01, // Collection (Application)
	0x15, 0x00, //   Logical Minimum (0)
	0x26, 0xff, 0x00, //   Logical Maximum (255)
	0x85, 0x01, //   Report ID (1)
	0x75, 0x08, //   Report Size (8)
	0x95, 0x3f, //   Report Count (63)
	0x09, 0x00, //   Usage (Undefined)
	0x81, 0x82, //   Input (Data, Variable, Absolute, Volatile)
	0x85, 0x02, //   Report ID (2)
	0x75, 0x08, //   Report Size (8)
	0x95, 0x3f, //   Report Count (63)
	0x09, 0x00, //   Usage (Undefined)
	0x91, 0x82, //   Output (Data, Variable, Absolute, Volatile)
	0xc0, // End Collection
}

// languageDescriptor reports US English as the only supported language.
var languageDescriptor = []byte{
	0x04, // bLength
	0x03, // bDescriptorType
	0x09, // wLANGID (lo)
	0x04, // wLANGID (hi)
}

// stringDescriptor encodes a UTF-16-LE string descriptor
// (p273, Table 9-16, USB2.0).
func stringDescriptor(s string) []byte {
	r := utf16.Encode([]rune(s))
	d := make([]byte, 2+2*len(r))

	d[0] = byte(len(d))
	d[1] = STRING

	for i, c := range r {
		d[2+2*i] = byte(c)
		d[3+2*i] = byte(c >> 8)
	}

	return d
}

// StreamDescriptors returns the descriptor table of the stream-over-HID
// device, the set answered during enumeration unless the application
// installs its own table before Init.
func StreamDescriptors() *DescriptorTable {
	t := &DescriptorTable{}

	t.Register(uint16(STRING)<<8, 0x0000, languageDescriptor)
	t.Register(uint16(STRING)<<8|1, LANGUAGE_ENGLISH_US, stringDescriptor("ACME Inc."))
	t.Register(uint16(STRING)<<8|2, LANGUAGE_ENGLISH_US, stringDescriptor("Demo Device"))
	t.Register(uint16(STRING)<<8|3, LANGUAGE_ENGLISH_US, stringDescriptor("00000000"))
	t.Register(uint16(STRING)<<8|4, LANGUAGE_ENGLISH_US, stringDescriptor("Stream over HID"))
	t.Register(uint16(STRING)<<8|5, LANGUAGE_ENGLISH_US, stringDescriptor("Default Configuration"))
	t.Register(uint16(DEVICE)<<8, 0x0000, deviceDescriptor)
	t.Register(uint16(CONFIGURATION)<<8, 0x0000, configurationDescriptor)
	t.Register(uint16(HID_REPORT)<<8, 0x0000, reportDescriptor)

	return t
}
