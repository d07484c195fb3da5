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

// Package acpi locates the ACPI Root System Description Pointer and walks
// the Extended System Description Table it refers to.
//
// All firmware memory is accessed through an io.ReaderAt whose offsets are
// physical addresses, such as /dev/mem on Linux.  Structures are copied out
// of that memory and decoded; nothing in this package reinterprets memory in
// place.
package acpi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrNotFound is returned when no Root System Description Pointer can
	// be located.
	ErrNotFound = errors.New("acpi: root system description pointer not found")

	// ErrInvalidSignature is returned when a table does not carry the
	// signature it is expected to, or when its header is malformed.
	ErrInvalidSignature = errors.New("acpi: invalid table signature")

	// ErrUnsupportedRevision is returned when the RSDP predates ACPI 2.0 and
	// therefore carries no XSDT address.
	ErrUnsupportedRevision = errors.New("acpi: unsupported RSDP revision")
)

// A ReadError reports a failed read of firmware memory.
type ReadError struct {
	Addr uint64
	Len  int
	Err  error
}

// Error implements error.
func (e *ReadError) Error() string {
	return fmt.Sprintf("acpi: failed to read %d bytes at %#x: %v", e.Len, e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReadError) Unwrap() error { return e.Err }

// read copies n bytes of firmware memory starting at addr.
func read(mem io.ReaderAt, addr uint64, n int) ([]byte, error) {
	if addr > math.MaxInt64 || n < 0 {
		return nil, &ReadError{Addr: addr, Len: n, Err: errors.New("address out of range")}
	}

	b := make([]byte, n)
	got, err := mem.ReadAt(b, int64(addr))
	if got == n {
		// A full read may legitimately report io.EOF at the end of memory.
		return b, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}

	return nil, &ReadError{Addr: addr, Len: n, Err: err}
}

// cstring returns the bytes of b up to the first NUL as a string.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0x00); i >= 0 {
		b = b[:i]
	}

	return string(b)
}

// checksum verifies that the bytes of b sum to zero.
//
// checksum assumes that b has already had its bounds checked.
func checksum(b []byte) error {
	var chk uint8
	for i := range b {
		chk += b[i]
	}

	if chk != 0 {
		return fmt.Errorf("invalid checksum %#02x over %d bytes", chk, len(b))
	}

	return nil
}
