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

// ColumnHeading is printed above the functions of each bus range.
const ColumnHeading = "Bus    Vendor   Device  Subvendor SVDevice"

// A Function is a present PCI function and its configuration header.
type Function struct {
	Address Address
	Header  Header
}

// FormatRow formats f as a single listing row.
func FormatRow(f Function) string {
	return fmt.Sprintf(" %02d     %04x     %04x     %04x     %04x",
		f.Address.Bus, f.Header.VendorID, f.Header.DeviceID,
		f.Header.SubsystemVendorID, f.Header.SubsystemID)
}

// Scan probes every device and function on buses min through max of rb
// and calls fn for each function that is present.  A function reading
// back InvalidVendorID ends the probe of its device, as does function 0
// of a single-function device.  The first read error or error returned
// by fn stops the scan.
func Scan(rb RootBridge, min, max uint16, fn func(Function) error) error {
	seg := rb.Segment()

	var vid [2]byte
	hdr := make([]byte, HeaderSize)

	for bus := int(min); bus <= int(max) && bus <= MaxBus; bus++ {
		for dev := 0; dev <= MaxDevice; dev++ {
			for fun := 0; fun <= MaxFunction; fun++ {
				a := Address{
					Segment:  seg,
					Bus:      uint8(bus),
					Device:   uint8(dev),
					Function: uint8(fun),
				}

				if err := read(rb, a, 0, Width16, 1, vid[:]); err != nil {
					return err
				}
				if binary.LittleEndian.Uint16(vid[:]) == InvalidVendorID {
					break
				}

				if err := read(rb, a, 0, Width32, HeaderSize/int(Width32), hdr); err != nil {
					return err
				}

				h, err := ParseHeader(hdr)
				if err != nil {
					return err
				}

				if err := fn(Function{Address: a, Header: h}); err != nil {
					return err
				}

				if fun == 0 && !h.MultiFunction() {
					break
				}
			}
		}
	}

	return nil
}

// Walk scans every bus range rb reports.  onRange, if not nil, is called
// before each range is scanned.
func Walk(rb RootBridge, onRange func(min, max uint16) error, fn func(Function) error) error {
	desc, err := rb.Configuration()
	if err != nil {
		return fmt.Errorf("failed to get resources of segment %04x: %w", rb.Segment(), err)
	}

	r := NewBusRanges(desc)
	for {
		min, max, end, err := r.Next()
		if err != nil {
			return fmt.Errorf("failed to retrieve bus range: %w", err)
		}
		if end {
			return nil
		}

		if onRange != nil {
			if err := onRange(min, max); err != nil {
				return err
			}
		}

		if err := Scan(rb, min, max, fn); err != nil {
			return err
		}
	}
}
