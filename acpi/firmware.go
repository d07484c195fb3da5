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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Paths names the operating system locations used to reach firmware
// tables.
type Paths struct {
	// Systab is the text rendering of the EFI configuration table
	// directory.
	Systab string

	// Memory is a device exposing physical memory at its file offsets.
	Memory string
}

// systabGUIDs maps the names used by the Linux EFI systab file to the
// configuration table GUIDs they stand for.
var systabGUIDs = map[string]uuid.UUID{
	"ACPI20":  ACPI20TableGUID,
	"ACPI":    ACPI10TableGUID,
	"SMBIOS":  uuid.MustParse("eb9d2d31-2d88-11d3-9a16-0090273fc14d"),
	"SMBIOS3": uuid.MustParse("f2fd1544-9794-4a2c-992e-e5bbcf20e394"),
}

// ParseSystab parses the EFI configuration table directory from its Linux
// text form, one NAME=0xADDRESS pair per line.  Names without a known GUID
// are skipped.
func ParseSystab(r io.Reader) ([]ConfigTable, error) {
	var tables []ConfigTable

	s := bufio.NewScanner(r)
	for s.Scan() {
		name, value, ok := strings.Cut(strings.TrimSpace(s.Text()), "=")
		if !ok {
			continue
		}

		guid, ok := systabGUIDs[name]
		if !ok {
			continue
		}

		addr, err := strconv.ParseUint(value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid systab address for %s: %w", name, err)
		}

		tables = append(tables, ConfigTable{GUID: guid, Address: addr})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	return tables, nil
}

// A Firmware is an open view of firmware memory together with the EFI
// configuration table directory, if the platform has one.
type Firmware struct {
	Tables []ConfigTable

	mem io.ReaderAt
	c   io.Closer
}

// Open opens firmware memory and the configuration table directory from an
// operating system-specific location.  The Firmware must be closed after use.
func Open(p Paths) (*Firmware, error) {
	return open(p)
}

// NewFirmware creates a Firmware over an existing memory accessor.
func NewFirmware(mem io.ReaderAt, tables []ConfigTable) *Firmware {
	return &Firmware{
		Tables: tables,
		mem:    mem,
	}
}

// Memory returns the accessor for physical memory.
func (f *Firmware) Memory() io.ReaderAt { return f.mem }

// RSDP locates the Root System Description Pointer.  Without a
// configuration table directory the legacy BIOS area is searched instead.
func (f *Firmware) RSDP() (*RSDP, *ConfigTable, error) {
	if len(f.Tables) > 0 {
		return Locate(f.Tables, f.mem)
	}

	r, addr, err := ScanRSDP(f.mem, BIOSAreaStart, BIOSAreaEnd)
	if err != nil {
		return nil, nil, err
	}

	return r, &ConfigTable{Address: addr}, nil
}

// Close releases the underlying memory device.
func (f *Firmware) Close() error {
	if f.c == nil {
		return nil
	}

	return f.c.Close()
}
