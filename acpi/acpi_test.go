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
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// Physical addresses used by the memory images built in tests.
const (
	memSize   = 0x10000
	rsdpAddr  = 0x0100
	xsdtAddr  = 0x0200
	tableAddr = 0x1000
)

func TestParseRSDP(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
		r    *RSDP
		ok   bool
	}{
		{
			name: "short",
			b:    []byte("RSD PTR "),
		},
		{
			name: "bad magic",
			b:    mustMarshalRSDP(&RSDP{Signature: "RSD PTX ", Revision: 2}),
		},
		{
			name: "revision 2, short",
			b:    mustMarshalRSDP(&RSDP{Revision: 2})[:rsdpLenV1],
		},
		{
			name: "revision 0, OK",
			b: mustMarshalRSDP(&RSDP{
				OEMID:       "BOCHS",
				RSDTAddress: 0x7ffe1234,
			}),
			r: &RSDP{
				Signature:   "RSD PTR ",
				Checksum:    0x00,
				OEMID:       "BOCHS",
				RSDTAddress: 0x7ffe1234,
			},
			ok: true,
		},
		{
			name: "revision 2, OK",
			b: mustMarshalRSDP(&RSDP{
				OEMID:       "DOCEAN",
				Revision:    2,
				RSDTAddress: 0x7ffe1234,
				XSDTAddress: 0x7ffe5678,
			}),
			r: &RSDP{
				Signature:   "RSD PTR ",
				OEMID:       "DOCEAN",
				Revision:    2,
				RSDTAddress: 0x7ffe1234,
				Length:      rsdpLenV2,
				XSDTAddress: 0x7ffe5678,
			},
			ok: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRSDP(tt.b)

			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("expected an error, but none occurred: %v", err)
			}

			if !tt.ok {
				t.Logf("OK error: %v", err)
				return
			}

			// Checksums are computed by the marshaler; ignore them.
			r.Checksum, r.ExtendedChecksum = 0, 0
			if diff := cmp.Diff(tt.r, r); diff != "" {
				t.Fatalf("unexpected RSDP (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocate(t *testing.T) {
	smbiosGUID := uuid.MustParse("eb9d2d31-2d88-11d3-9a16-0090273fc14d")

	mem := makeMemory(t, 2, nil)

	// A second pointer with a different revision to tell the two apart.
	second := mustMarshalRSDP(&RSDP{Revision: 0, RSDTAddress: 0xdead})
	copy(mem[0x0800:], second)

	tests := []struct {
		name   string
		tables []ConfigTable
		rev    uint8
		err    error
	}{
		{
			name: "no tables",
			err:  ErrNotFound,
		},
		{
			name: "only unrelated GUIDs",
			tables: []ConfigTable{
				{GUID: smbiosGUID, Address: rsdpAddr},
			},
			err: ErrNotFound,
		},
		{
			name: "ACPI GUID without anchor",
			tables: []ConfigTable{
				{GUID: ACPI20TableGUID, Address: xsdtAddr},
			},
			err: ErrNotFound,
		},
		{
			name: "skip missing anchor",
			tables: []ConfigTable{
				{GUID: ACPI20TableGUID, Address: tableAddr},
				{GUID: ACPI10TableGUID, Address: rsdpAddr},
			},
			rev: 2,
		},
		{
			name: "first match wins",
			tables: []ConfigTable{
				{GUID: smbiosGUID, Address: rsdpAddr},
				{GUID: ACPI10TableGUID, Address: 0x0800},
				{GUID: ACPI20TableGUID, Address: rsdpAddr},
			},
			rev: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ct, err := Locate(tt.tables, bytes.NewReader(mem))
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected error %v, but got: %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to locate RSDP: %v", err)
			}

			if r.Revision != tt.rev {
				t.Fatalf("unexpected RSDP revision: %d", r.Revision)
			}
			if ct.GUID != ACPI10TableGUID && ct.GUID != ACPI20TableGUID {
				t.Fatalf("matched non-ACPI configuration table: %v", ct.GUID)
			}
		})
	}
}

func TestLocateReadError(t *testing.T) {
	tables := []ConfigTable{{GUID: ACPI20TableGUID, Address: memSize + 0x1000}}

	_, _, err := Locate(tables, bytes.NewReader(make([]byte, memSize)))

	var rerr *ReadError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected a read error, but got: %v", err)
	}
	if rerr.Addr != memSize+0x1000 {
		t.Fatalf("unexpected read error address: %#x", rerr.Addr)
	}
}

func TestScanRSDP(t *testing.T) {
	const (
		start = 0x0000
		end   = 0x1000
	)

	good := mustMarshalRSDP(&RSDP{Revision: 2, XSDTAddress: xsdtAddr})
	bad := append([]byte(nil), good...)
	bad[8]++

	tests := []struct {
		name string
		put  map[int][]byte
		addr uint64
		ok   bool
	}{
		{
			name: "empty",
		},
		{
			name: "bad checksum",
			put:  map[int][]byte{0x0100: bad},
		},
		{
			name: "not paragraph aligned",
			put:  map[int][]byte{0x0104: good},
		},
		{
			name: "outside range",
			put:  map[int][]byte{end: good},
		},
		{
			name: "skip bad checksum",
			put: map[int][]byte{
				0x0100: bad,
				0x0200: good,
			},
			addr: 0x0200,
			ok:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := make([]byte, memSize)
			for off, v := range tt.put {
				copy(b[off:], v)
			}

			r, addr, err := ScanRSDP(bytes.NewReader(b), start, end)
			if !tt.ok {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("expected not found, but got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to scan for RSDP: %v", err)
			}

			if addr != tt.addr {
				t.Fatalf("unexpected RSDP address: %#x", addr)
			}
			if r.XSDTAddress != xsdtAddr {
				t.Fatalf("unexpected XSDT address: %#x", r.XSDTAddress)
			}
		})
	}
}

func TestParseSystab(t *testing.T) {
	in := strings.Join([]string{
		"MPS=0xfc9e0",
		"ACPI20=0x7ffe014",
		"ACPI=0x7ffe000",
		"SMBIOS=0x7f91f000",
		"BOGUS",
		"",
	}, "\n")

	tables, err := ParseSystab(strings.NewReader(in))
	if err != nil {
		t.Fatalf("failed to parse systab: %v", err)
	}

	want := []ConfigTable{
		{GUID: ACPI20TableGUID, Address: 0x7ffe014},
		{GUID: ACPI10TableGUID, Address: 0x7ffe000},
		{GUID: uuid.MustParse("eb9d2d31-2d88-11d3-9a16-0090273fc14d"), Address: 0x7f91f000},
	}

	if diff := cmp.Diff(want, tables); diff != "" {
		t.Fatalf("unexpected tables (-want +got):\n%s", diff)
	}

	if _, err := ParseSystab(strings.NewReader("ACPI20=zzz\n")); err == nil {
		t.Fatal("expected an error for a malformed address, but none occurred")
	}
}

func TestFirmwareRSDPScansBIOSArea(t *testing.T) {
	b := make([]byte, BIOSAreaEnd)
	copy(b[0x000f5a40:], mustMarshalRSDP(&RSDP{Revision: 2, XSDTAddress: xsdtAddr}))

	f := NewFirmware(bytes.NewReader(b), nil)
	defer f.Close()

	r, ct, err := f.RSDP()
	if err != nil {
		t.Fatalf("failed to find RSDP: %v", err)
	}

	if ct.Address != 0x000f5a40 {
		t.Fatalf("unexpected RSDP address: %#x", ct.Address)
	}
	if r.XSDTAddress != xsdtAddr {
		t.Fatalf("unexpected XSDT address: %#x", r.XSDTAddress)
	}
}

// makeMemory builds a physical memory image holding an RSDP of revision rev
// at rsdpAddr, an XSDT at xsdtAddr, and one table per header starting at
// tableAddr.
func makeMemory(t *testing.T, rev uint8, hs []Header) []byte {
	t.Helper()

	b := make([]byte, memSize)
	copy(b[rsdpAddr:], mustMarshalRSDP(&RSDP{
		OEMID:       "DOCEAN",
		Revision:    rev,
		XSDTAddress: xsdtAddr,
	}))

	entries := make([]uint64, 0, len(hs))
	for i, h := range hs {
		addr := uint64(tableAddr + i*0x100)
		entries = append(entries, addr)
		copy(b[addr:], marshalHeader(h))
	}

	copy(b[xsdtAddr:], marshalXSDT(Header{
		Signature: signatureXSDT,
		Revision:  1,
		OEMID:     "DOCEAN",
	}, entries))

	return b
}

func mustMarshalRSDP(r *RSDP) []byte {
	sig := r.Signature
	if sig == "" {
		sig = string(magicRSDP)
	}

	b := make([]byte, rsdpLenV1)
	if r.Revision >= MinXSDTRevision {
		b = make([]byte, rsdpLenV2)
	}

	copy(b[0:8], sig)
	copy(b[9:15], r.OEMID)
	b[15] = r.Revision
	binary.LittleEndian.PutUint32(b[16:20], r.RSDTAddress)

	b[8] = checksumByte(b[:rsdpLenV1])

	if r.Revision >= MinXSDTRevision {
		binary.LittleEndian.PutUint32(b[20:24], rsdpLenV2)
		binary.LittleEndian.PutUint64(b[24:32], r.XSDTAddress)
		b[32] = checksumByte(b)
	}

	return b
}

func marshalHeader(h Header) []byte {
	b := make([]byte, HeaderSize)

	copy(b[0:4], h.Signature)
	l := h.Length
	if l == 0 {
		l = HeaderSize
	}
	binary.LittleEndian.PutUint32(b[4:8], l)
	b[8] = h.Revision
	b[9] = h.Checksum
	copy(b[10:16], h.OEMID)
	copy(b[16:24], h.OEMTableID)
	binary.LittleEndian.PutUint32(b[24:28], h.OEMRevision)
	copy(b[28:32], h.CreatorID)
	binary.LittleEndian.PutUint32(b[32:36], h.CreatorRevision)

	return b
}

// marshalXSDT builds an XSDT holding entries.  A zero h.Length is replaced
// by the length implied by the entries.
func marshalXSDT(h Header, entries []uint64) []byte {
	if h.Length == 0 {
		h.Length = uint32(HeaderSize + len(entries)*entrySize)
	}

	b := marshalHeader(h)
	for _, e := range entries {
		b = binary.LittleEndian.AppendUint64(b, e)
	}

	return b
}

// checksumByte returns the value that makes the bytes of b sum to zero.
// The checksum position in b must still be zero.
func checksumByte(b []byte) uint8 {
	var chk uint8
	for i := range b {
		chk += b[i]
	}

	return uint8(256 - int(chk))
}
