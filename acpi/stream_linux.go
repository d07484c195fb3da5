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

//go:build linux
// +build linux

package acpi

import (
	"errors"
	"os"
)

// DefaultPaths are the sysfs and device locations used on Linux.
var DefaultPaths = Paths{
	Systab: "/sys/firmware/efi/systab",
	Memory: "/dev/mem",
}

// open reads the EFI systab, when present, and opens physical memory.
func open(p Paths) (*Firmware, error) {
	var tables []ConfigTable

	sf, err := os.Open(p.Systab)
	switch {
	case err == nil:
		defer sf.Close()

		tables, err = ParseSystab(sf)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
		// Booted without EFI; RSDP is found by scanning the BIOS area.
	default:
		return nil, err
	}

	mf, err := os.Open(p.Memory)
	if err != nil {
		return nil, err
	}

	return &Firmware{
		Tables: tables,
		mem:    mf,
		c:      mf,
	}, nil
}
