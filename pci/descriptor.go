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
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ACPI resource descriptor tags.
const (
	TagDWordAddressSpace = 0x87
	TagWordAddressSpace  = 0x88
	TagQWordAddressSpace = 0x8a
	TagEnd               = 0x79
)

// Address space resource types.
const (
	ResTypeMemory = 0
	ResTypeIO     = 1
	ResTypeBus    = 2
)

const (
	// QWordDescriptorSize is the encoded size of a QWORD address space
	// descriptor, tag and length field included.
	QWordDescriptorSize = 46

	// EndDescriptorSize is the encoded size of the end tag and its checksum.
	EndDescriptorSize = 2

	largeTag = 0x80
)

var (
	// ErrTruncated is returned when a descriptor list ends before its end
	// tag, or a descriptor is shorter than its encoded length.
	ErrTruncated = errors.New("pci: truncated resource descriptor list")

	errShortAddressSpace = errors.New("pci: address space descriptor too short")
)

// A Descriptor is a decoded WORD, DWORD or QWORD address space descriptor.
// Narrower encodings are widened to 64 bits.
type Descriptor struct {
	Tag               uint8
	ResType           uint8
	GeneralFlags      uint8
	SpecificFlags     uint8
	Granularity       uint64
	Min               uint64
	Max               uint64
	TranslationOffset uint64
	Length            uint64
}

// IsBus reports whether d describes a bus number range.
func (d Descriptor) IsBus() bool { return d.ResType == ResTypeBus }

// descriptorSize returns the total encoded size of the descriptor starting
// at b[0].
func descriptorSize(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, ErrTruncated
	}

	tag := b[0]
	if tag&largeTag == 0 {
		return 1 + int(tag&0x07), nil
	}

	if len(b) < 3 {
		return 0, ErrTruncated
	}

	return 3 + int(binary.LittleEndian.Uint16(b[1:3])), nil
}

// isAddressSpace reports whether tag is one of the address space descriptors.
func isAddressSpace(tag uint8) bool {
	switch tag {
	case TagWordAddressSpace, TagDWordAddressSpace, TagQWordAddressSpace:
		return true
	default:
		return false
	}
}

// parseDescriptor decodes one address space descriptor from b, which holds
// exactly the descriptor's encoded bytes.
func parseDescriptor(b []byte) (Descriptor, error) {
	d := Descriptor{Tag: b[0]}

	var width int
	switch d.Tag {
	case TagWordAddressSpace:
		width = 2
	case TagDWordAddressSpace:
		width = 4
	case TagQWordAddressSpace:
		width = 8
	default:
		return Descriptor{}, fmt.Errorf("pci: tag %#02x is not an address space descriptor", d.Tag)
	}

	// Tag, length, three flag bytes and five fields of the given width.
	if len(b) < 6+5*width {
		return Descriptor{}, errShortAddressSpace
	}

	d.ResType = b[3]
	d.GeneralFlags = b[4]
	d.SpecificFlags = b[5]

	field := func(i int) uint64 {
		off := 6 + i*width
		switch width {
		case 2:
			return uint64(binary.LittleEndian.Uint16(b[off:]))
		case 4:
			return uint64(binary.LittleEndian.Uint32(b[off:]))
		default:
			return binary.LittleEndian.Uint64(b[off:])
		}
	}

	d.Granularity = field(0)
	d.Min = field(1)
	d.Max = field(2)
	d.TranslationOffset = field(3)
	d.Length = field(4)

	return d, nil
}

// ParseDescriptors decodes every address space descriptor in desc up to
// the end tag.  Other descriptor kinds are skipped.
func ParseDescriptors(desc []byte) ([]Descriptor, error) {
	var ds []Descriptor
	for off := 0; ; {
		if off >= len(desc) {
			return nil, ErrTruncated
		}
		if desc[off] == TagEnd {
			return ds, nil
		}

		n, err := descriptorSize(desc[off:])
		if err != nil {
			return nil, err
		}
		if off+n > len(desc) {
			return nil, ErrTruncated
		}

		if isAddressSpace(desc[off]) {
			d, err := parseDescriptor(desc[off : off+n])
			if err != nil {
				return nil, fmt.Errorf("descriptor at offset %d: %w", off, err)
			}
			ds = append(ds, d)
		}

		off += n
	}
}

// ValidateBusRanges checks the bus number descriptors in ds for sanity:
// each range must be ordered and fit in the bus number space, and ranges
// must not overlap.
func ValidateBusRanges(ds []Descriptor) error {
	var result *multierror.Error

	var prev []Descriptor
	for i, d := range ds {
		if !d.IsBus() {
			continue
		}

		if d.Min > d.Max {
			result = multierror.Append(result, fmt.Errorf("bus range %d: minimum %d above maximum %d", i, d.Min, d.Max))
		}
		if d.Max > MaxBus {
			result = multierror.Append(result, fmt.Errorf("bus range %d: maximum %d beyond bus %d", i, d.Max, MaxBus))
		}
		for _, p := range prev {
			if d.Min <= p.Max && p.Min <= d.Max {
				result = multierror.Append(result, fmt.Errorf("bus range %d: [%d, %d] overlaps [%d, %d]", i, d.Min, d.Max, p.Min, p.Max))
			}
		}

		prev = append(prev, d)
	}

	return result.ErrorOrNil()
}

// MarshalDescriptors encodes ds as QWORD address space descriptors followed
// by an end tag with a valid checksum.
func MarshalDescriptors(ds []Descriptor) []byte {
	b := make([]byte, 0, len(ds)*QWordDescriptorSize+EndDescriptorSize)

	for _, d := range ds {
		e := make([]byte, QWordDescriptorSize)
		e[0] = TagQWordAddressSpace
		binary.LittleEndian.PutUint16(e[1:3], QWordDescriptorSize-3)
		e[3] = d.ResType
		e[4] = d.GeneralFlags
		e[5] = d.SpecificFlags
		binary.LittleEndian.PutUint64(e[6:14], d.Granularity)
		binary.LittleEndian.PutUint64(e[14:22], d.Min)
		binary.LittleEndian.PutUint64(e[22:30], d.Max)
		binary.LittleEndian.PutUint64(e[30:38], d.TranslationOffset)
		binary.LittleEndian.PutUint64(e[38:46], d.Length)

		b = append(b, e...)
	}

	var sum uint8
	for _, c := range b {
		sum += c
	}
	sum += TagEnd

	return append(b, TagEnd, -sum)
}

// BusRanges iterates over the bus number ranges of a root bridge's resource
// descriptor list.  The cursor only ever moves forward.
type BusRanges struct {
	desc []byte
	off  int
	end  bool
}

// NewBusRanges returns an iterator over desc.  A nil desc stands for a
// bridge that does not report its resources; the iterator then yields the
// whole bus number space once.
func NewBusRanges(desc []byte) *BusRanges {
	return &BusRanges{desc: desc}
}

// Default reports whether the iterator yields the default range because
// no descriptor list was supplied.
func (r *BusRanges) Default() bool { return r.desc == nil }

// Next returns the next bus number range.  end is true once the end tag
// has been reached, after which Next keeps reporting end.
func (r *BusRanges) Next() (min, max uint16, end bool, err error) {
	if r.end {
		return 0, 0, true, nil
	}

	if r.desc == nil {
		r.end = true
		return 0, MaxBus, false, nil
	}

	for {
		if r.off >= len(r.desc) {
			return 0, 0, false, ErrTruncated
		}
		if r.desc[r.off] == TagEnd {
			r.end = true
			return 0, 0, true, nil
		}

		n, err := descriptorSize(r.desc[r.off:])
		if err != nil {
			return 0, 0, false, err
		}
		if r.off+n > len(r.desc) {
			return 0, 0, false, ErrTruncated
		}

		b := r.desc[r.off : r.off+n]
		r.off += n

		if !isAddressSpace(b[0]) {
			continue
		}

		d, err := parseDescriptor(b)
		if err != nil {
			return 0, 0, false, err
		}
		if d.IsBus() {
			return uint16(d.Min), uint16(d.Max), false, nil
		}
	}
}
