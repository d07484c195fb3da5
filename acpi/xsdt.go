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
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// HeaderSize is the length of the common System Description Table
	// header.
	HeaderSize = 36

	// entrySize is the width of one XSDT entry.
	entrySize = 8

	// maxXSDTLength bounds the entry array read from firmware memory.  Real
	// tables hold a few dozen entries.
	maxXSDTLength = 1 << 20

	signatureXSDT = "XSDT"
)

// A Header is the common header shared by every System Description Table.
type Header struct {
	Signature       string
	Length          uint32
	Revision        uint8
	Checksum        uint8
	OEMID           string
	OEMTableID      string
	OEMRevision     uint32
	CreatorID       string
	CreatorRevision uint32
}

// ParseHeader parses a Header from b.  The signature is kept as its four raw
// bytes; the remaining identifier strings end at their first NUL.
func ParseHeader(b []byte) (Header, error) {
	if l := len(b); l < HeaderSize {
		return Header{}, fmt.Errorf("expected table header length of at least %d, but got: %d", HeaderSize, l)
	}

	return Header{
		Signature:       string(b[0:4]),
		Length:          binary.LittleEndian.Uint32(b[4:8]),
		Revision:        b[8],
		Checksum:        b[9],
		OEMID:           cstring(b[10:16]),
		OEMTableID:      cstring(b[16:24]),
		OEMRevision:     binary.LittleEndian.Uint32(b[24:28]),
		CreatorID:       cstring(b[28:32]),
		CreatorRevision: binary.LittleEndian.Uint32(b[32:36]),
	}, nil
}

// An XSDT is the Extended System Description Table: a header followed by
// the physical addresses of every other table.
type XSDT struct {
	Header
	Address uint64
	Entries []uint64
}

// EntryCount returns the number of 64-bit entries held by an XSDT whose
// header declares the given length.  A length shorter than the header is a
// malformed table.
func EntryCount(length uint32) (int, error) {
	if length < HeaderSize {
		return 0, fmt.Errorf("%w: table length %d is shorter than its header", ErrInvalidSignature, length)
	}

	return int((length - HeaderSize) / entrySize), nil
}

// ParseXSDT reads the XSDT referenced by r from memory.
func ParseXSDT(mem io.ReaderAt, r *RSDP) (*XSDT, error) {
	if r.Revision < MinXSDTRevision {
		return nil, fmt.Errorf("%w: revision %d has no XSDT", ErrUnsupportedRevision, r.Revision)
	}

	hb, err := read(mem, r.XSDTAddress, HeaderSize)
	if err != nil {
		return nil, err
	}

	h, err := ParseHeader(hb)
	if err != nil {
		return nil, err
	}

	if h.Signature != signatureXSDT {
		return nil, fmt.Errorf("%w: expected %q at %#x, but got: %q", ErrInvalidSignature, signatureXSDT, r.XSDTAddress, h.Signature)
	}
	if h.Length > maxXSDTLength {
		return nil, fmt.Errorf("%w: implausible XSDT length %d", ErrInvalidSignature, h.Length)
	}

	n, err := EntryCount(h.Length)
	if err != nil {
		return nil, err
	}

	x := &XSDT{
		Header:  h,
		Address: r.XSDTAddress,
	}
	if n == 0 {
		return x, nil
	}

	eb, err := read(mem, r.XSDTAddress+HeaderSize, n*entrySize)
	if err != nil {
		return nil, err
	}

	x.Entries = make([]uint64, n)
	for i := range x.Entries {
		x.Entries[i] = binary.LittleEndian.Uint64(eb[i*entrySize : (i+1)*entrySize])
	}

	return x, nil
}

// Walk reads the header of every table listed in the XSDT, in order, and
// calls fn with each.  Entry signatures are not validated.  Walk stops at
// the first read failure or the first error returned by fn.
func (x *XSDT) Walk(mem io.ReaderAt, fn func(Header) error) error {
	for _, addr := range x.Entries {
		b, err := read(mem, addr, HeaderSize)
		if err != nil {
			return err
		}

		h, err := ParseHeader(b)
		if err != nil {
			return err
		}

		if err := fn(h); err != nil {
			return err
		}
	}

	return nil
}

// Tables returns the headers of every table listed in the XSDT.
func (x *XSDT) Tables(mem io.ReaderAt) ([]Header, error) {
	hs := make([]Header, 0, len(x.Entries))
	err := x.Walk(mem, func(h Header) error {
		hs = append(hs, h)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return hs, nil
}
