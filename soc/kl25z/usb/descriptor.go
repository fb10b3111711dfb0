// Kinetis KL25Z USB-FS device controller driver
// https://github.com/hidstream/kl25z
//
// Copyright (c) The hidstream authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usb

// DescriptorEntry associates a GET_DESCRIPTOR selector with an opaque
// descriptor blob, the driver never parses descriptor contents.
type DescriptorEntry struct {
	// wValue, descriptor type in the upper byte and index in the lower
	Value uint16
	// wIndex, zero or the language ID for string descriptors
	Index uint16
	// raw descriptor bytes
	Data []byte
}

// DescriptorTable is an ordered list of descriptor entries matched against
// GET_DESCRIPTOR requests.
type DescriptorTable struct {
	entries []DescriptorEntry
}

// Register appends a descriptor entry to the table.
func (t *DescriptorTable) Register(value uint16, index uint16, data []byte) {
	t.entries = append(t.entries, DescriptorEntry{
		Value: value,
		Index: index,
		Data:  data,
	})
}

// Lookup returns the first entry matching the passed wValue and wIndex
// selectors.
func (t *DescriptorTable) Lookup(value uint16, index uint16) ([]byte, bool) {
	for _, e := range t.entries {
		if e.Value == value && e.Index == index {
			return e.Data, true
		}
	}

	return nil, false
}
