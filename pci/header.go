// Copyright 2026 DigitalOcean.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pci

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the size of the standard configuration header.
	HeaderSize = 64

	// InvalidVendorID is read back from functions that are not present.
	InvalidVendorID = 0xffff

	// HeaderTypeMultiFunction is set in the header type of function 0 of
	// a device implementing more than one function.
	HeaderTypeMultiFunction = 0x80
)

// A Header is a type 0 configuration header.
type Header struct {
	VendorID          uint16
	DeviceID          uint16
	Command           uint16
	Status            uint16
	RevisionID        uint8
	ClassCode         [3]uint8
	CacheLineSize     uint8
	LatencyTimer      uint8
	HeaderType        uint8
	BIST              uint8
	BARs              [6]uint32
	CardBusCIS        uint32
	SubsystemVendorID uint16
	SubsystemID       uint16
	ExpansionROM      uint32
	CapabilityPtr     uint8
	InterruptLine     uint8
	InterruptPin      uint8
	MinGnt            uint8
	MaxLat            uint8
}

// MultiFunction reports whether the device implements more than one
// function.  Only meaningful on function 0.
func (h Header) MultiFunction() bool {
	return h.HeaderType&HeaderTypeMultiFunction != 0
}

// ParseHeader decodes a configuration header from the first HeaderSize
// bytes of b.
func ParseHeader(b []byte) (Header, error) {
	if l := len(b); l < HeaderSize {
		return Header{}, fmt.Errorf("pci: configuration header too short: %d bytes", l)
	}

	h := Header{
		VendorID:          binary.LittleEndian.Uint16(b[0x00:0x02]),
		DeviceID:          binary.LittleEndian.Uint16(b[0x02:0x04]),
		Command:           binary.LittleEndian.Uint16(b[0x04:0x06]),
		Status:            binary.LittleEndian.Uint16(b[0x06:0x08]),
		RevisionID:        b[0x08],
		CacheLineSize:     b[0x0c],
		LatencyTimer:      b[0x0d],
		HeaderType:        b[0x0e],
		BIST:              b[0x0f],
		CardBusCIS:        binary.LittleEndian.Uint32(b[0x28:0x2c]),
		SubsystemVendorID: binary.LittleEndian.Uint16(b[0x2c:0x2e]),
		SubsystemID:       binary.LittleEndian.Uint16(b[0x2e:0x30]),
		ExpansionROM:      binary.LittleEndian.Uint32(b[0x30:0x34]),
		CapabilityPtr:     b[0x34],
		InterruptLine:     b[0x3c],
		InterruptPin:      b[0x3d],
		MinGnt:            b[0x3e],
		MaxLat:            b[0x3f],
	}

	copy(h.ClassCode[:], b[0x09:0x0c])
	for i := range h.BARs {
		off := 0x10 + 4*i
		h.BARs[i] = binary.LittleEndian.Uint32(b[off : off+4])
	}

	return h, nil
}

// MarshalBinary encodes h as a configuration header.
func (h Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)

	binary.LittleEndian.PutUint16(b[0x00:0x02], h.VendorID)
	binary.LittleEndian.PutUint16(b[0x02:0x04], h.DeviceID)
	binary.LittleEndian.PutUint16(b[0x04:0x06], h.Command)
	binary.LittleEndian.PutUint16(b[0x06:0x08], h.Status)
	b[0x08] = h.RevisionID
	copy(b[0x09:0x0c], h.ClassCode[:])
	b[0x0c] = h.CacheLineSize
	b[0x0d] = h.LatencyTimer
	b[0x0e] = h.HeaderType
	b[0x0f] = h.BIST
	for i, bar := range h.BARs {
		off := 0x10 + 4*i
		binary.LittleEndian.PutUint32(b[off:off+4], bar)
	}
	binary.LittleEndian.PutUint32(b[0x28:0x2c], h.CardBusCIS)
	binary.LittleEndian.PutUint16(b[0x2c:0x2e], h.SubsystemVendorID)
	binary.LittleEndian.PutUint16(b[0x2e:0x30], h.SubsystemID)
	binary.LittleEndian.PutUint32(b[0x30:0x34], h.ExpansionROM)
	b[0x34] = h.CapabilityPtr
	b[0x3c] = h.InterruptLine
	b[0x3d] = h.InterruptPin
	b[0x3e] = h.MinGnt
	b[0x3f] = h.MaxLat

	return b, nil
}
