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

package acpi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Anchor string used to detect the RSDP.
var magicRSDP = []byte("RSD PTR ")

const (
	// Length of the ACPI 1.0 RSDP and of the ACPI 2.0+ extended RSDP.
	rsdpLenV1 = 20
	rsdpLenV2 = 36

	// MinXSDTRevision is the first RSDP revision which carries the 64-bit
	// XSDT address.
	MinXSDTRevision = 2
)

// Legacy BIOS area searched for the RSDP on machines without EFI.
const (
	BIOSAreaStart = 0x000e0000
	BIOSAreaEnd   = 0x00100000
)

// EFI configuration table GUIDs under which firmware publishes the RSDP.
var (
	ACPI20TableGUID = uuid.MustParse("8868e871-e4f1-11d3-bc22-0080c73c8881")
	ACPI10TableGUID = uuid.MustParse("eb9d2d30-2d88-11d3-9a16-0090273fc14d")
)

// A ConfigTable is one entry of the EFI configuration table directory.
type ConfigTable struct {
	GUID    uuid.UUID
	Address uint64
}

// An RSDP is the ACPI Root System Description Pointer.  Fields after
// RSDTAddress are only populated when Revision is MinXSDTRevision or later.
type RSDP struct {
	Signature        string
	Checksum         uint8
	OEMID            string
	Revision         uint8
	RSDTAddress      uint32
	Length           uint32
	XSDTAddress      uint64
	ExtendedChecksum uint8
}

// ParseRSDP parses an RSDP from b.  Checksums are not verified; firmware
// handing out the pointer is trusted the same way the tables it points to
// are.
func ParseRSDP(b []byte) (*RSDP, error) {
	l := len(b)
	if l < rsdpLenV1 {
		return nil, fmt.Errorf("expected RSDP length of at least %d, but got: %d", rsdpLenV1, l)
	}

	if !bytes.HasPrefix(b, magicRSDP) {
		return nil, fmt.Errorf("%w: unrecognized RSDP magic: %q", ErrInvalidSignature, b[0:8])
	}

	r := &RSDP{
		Signature:   string(b[0:8]),
		Checksum:    b[8],
		OEMID:       cstring(b[9:15]),
		Revision:    b[15],
		RSDTAddress: binary.LittleEndian.Uint32(b[16:20]),
	}

	if r.Revision < MinXSDTRevision {
		return r, nil
	}

	if l < rsdpLenV2 {
		return nil, fmt.Errorf("expected revision %d RSDP length of at least %d, but got: %d", r.Revision, rsdpLenV2, l)
	}

	r.Length = binary.LittleEndian.Uint32(b[20:24])
	r.XSDTAddress = binary.LittleEndian.Uint64(b[24:32])
	r.ExtendedChecksum = b[32]

	return r, nil
}

// Locate searches the EFI configuration table directory for the RSDP.  The
// first entry published under an ACPI GUID whose memory begins with the
// "RSD PTR " anchor wins.  ErrNotFound is returned when no entry matches.
func Locate(tables []ConfigTable, mem io.ReaderAt) (*RSDP, *ConfigTable, error) {
	for i := range tables {
		t := &tables[i]
		if t.GUID != ACPI20TableGUID && t.GUID != ACPI10TableGUID {
			continue
		}

		b, err := read(mem, t.Address, rsdpLenV2)
		if err != nil {
			// An ACPI 1.0 pointer may sit right at the end of mapped memory.
			b, err = read(mem, t.Address, rsdpLenV1)
			if err != nil {
				return nil, nil, err
			}
		}

		if !bytes.HasPrefix(b, magicRSDP) {
			continue
		}

		r, err := ParseRSDP(b)
		if err != nil {
			return nil, nil, err
		}

		return r, t, nil
	}

	return nil, nil, ErrNotFound
}

// ScanRSDP searches memory in [start, end) for the RSDP anchor on 16-byte
// boundaries, as firmware without EFI publishes it.  Unlike Locate, a
// checksum over the ACPI 1.0 portion is required to accept a candidate since
// the anchor may appear by chance.  The address of the RSDP is returned.
func ScanRSDP(mem io.ReaderAt, start, end uint64) (*RSDP, uint64, error) {
	if end <= start {
		return nil, 0, ErrNotFound
	}

	b, err := read(mem, start, int(end-start))
	if err != nil {
		return nil, 0, err
	}

	for off := 0; off+rsdpLenV1 <= len(b); off += 16 {
		if !bytes.HasPrefix(b[off:], magicRSDP) {
			continue
		}
		if err := checksum(b[off : off+rsdpLenV1]); err != nil {
			continue
		}

		hi := off + rsdpLenV2
		if hi > len(b) {
			hi = len(b)
		}

		r, err := ParseRSDP(b[off:hi])
		if err != nil {
			continue
		}

		return r, start + uint64(off), nil
	}

	return nil, 0, ErrNotFound
}
