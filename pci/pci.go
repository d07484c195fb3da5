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

// Package pci enumerates PCI functions behind one or more root bridges by
// walking each bridge's bus ranges and reading configuration headers.
package pci

import (
	"errors"
	"fmt"
)

// Bounds of the bus/device/function address space.
const (
	MaxBus      = 255
	MaxDevice   = 31
	MaxFunction = 7
)

// ErrNotFound is returned when no root bridges are present.
var ErrNotFound = errors.New("pci: no root bridges found")

// An Address identifies one PCI function.
type Address struct {
	Segment  uint16
	Bus      uint8
	Device   uint8
	Function uint8
}

// String returns the address in the canonical SSSS:BB:DD.F form.
func (a Address) String() string {
	return fmt.Sprintf("%04x:%02x:%02x.%1x", a.Segment, a.Bus, a.Device, a.Function)
}

// ConfigAddress encodes a and register offset reg as a root bridge
// configuration address.
func (a Address) ConfigAddress(reg uint8) uint64 {
	return uint64(a.Bus)<<24 | uint64(a.Device)<<16 | uint64(a.Function)<<8 | uint64(reg)
}

// ParseConfigAddress decodes a root bridge configuration address on the
// given segment.
func ParseConfigAddress(segment uint16, addr uint64) (Address, uint8) {
	return Address{
		Segment:  segment,
		Bus:      uint8(addr >> 24),
		Device:   uint8(addr>>16) & MaxDevice,
		Function: uint8(addr>>8) & MaxFunction,
	}, uint8(addr)
}

// A Width is the access width of a configuration read.
type Width int

// Supported access widths, in bytes.
const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
)

// A RootBridge provides access to the configuration space of one PCI
// host bridge.
type RootBridge interface {
	// Segment reports the PCI segment the bridge decodes.
	Segment() uint16

	// Configuration returns the bridge's ACPI resource descriptor list.
	// A nil list with a nil error means the bridge does not report its
	// resources.
	Configuration() ([]byte, error)

	// Read reads count values of width w starting at configuration address
	// addr into buf, which must hold at least count*w bytes.  Values are
	// stored little-endian.
	Read(w Width, addr uint64, count int, buf []byte) error
}

// A ReadError reports a failed configuration space read.
type ReadError struct {
	Address Address
	Offset  uint8
	Err     error
}

// Error implements error.
func (e *ReadError) Error() string {
	return fmt.Sprintf("pci: failed to read configuration of %s at offset %#02x: %v", e.Address, e.Offset, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReadError) Unwrap() error { return e.Err }

// read issues one configuration read and wraps any failure.
func read(rb RootBridge, a Address, reg uint8, w Width, count int, buf []byte) error {
	if err := rb.Read(w, a.ConfigAddress(reg), count, buf); err != nil {
		return &ReadError{Address: a, Offset: reg, Err: err}
	}

	return nil
}
