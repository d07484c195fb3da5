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

// Package pciids resolves PCI vendor and device IDs to names using the
// pci.ids text database.
package pciids

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// MaxLineSize is the longest database line accepted.
	MaxLineSize = 1 << 20

	initialLineSize = 1024
)

var (
	// ErrNotFound is returned when no database file is present on the
	// search path.
	ErrNotFound = errors.New("pciids: database not found")

	// ErrLineTooLong is returned when a database line exceeds MaxLineSize.
	ErrLineTooLong = errors.New("pciids: database line too long")
)

// DefaultFile is the database file name.
const DefaultFile = "pci.ids"

// DefaultPaths is the search path used to locate the database.
var DefaultPaths = []string{
	DefaultFile,
	"/usr/share/hwdata/pci.ids",
	"/usr/share/misc/pci.ids",
	"/usr/share/pci.ids",
}

// Find returns the first regular file in paths.
func Find(paths []string) (string, error) {
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil || fi.IsDir() {
			continue
		}

		return p, nil
	}

	return "", ErrNotFound
}

// An Entry holds the names found for a vendor and device ID pair.
type Entry struct {
	Vendor string
	Device string
}

// A Database is an open pci.ids database.  It is not safe for concurrent
// use.
type Database struct {
	r io.ReadSeeker
	c io.Closer
}

// Open opens the database file at path.
func Open(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return &Database{r: f, c: f}, nil
}

// New returns a Database reading from r.
func New(r io.ReadSeeker) *Database {
	return &Database{r: r}
}

// Close releases the database file, if any.
func (db *Database) Close() error {
	if db.c == nil {
		return nil
	}

	return db.c.Close()
}

// Lookup states.
const (
	scanning = iota
	vendorMatched
)

// Lookup scans the database from the start for vendor and then for device
// within that vendor's section.  ok reports whether the device was found;
// the vendor name is filled in whenever the vendor was, even if its
// section holds no such device.
func (db *Database) Lookup(vendor, device uint16) (e Entry, ok bool, err error) {
	if _, err := db.r.Seek(0, io.SeekStart); err != nil {
		return Entry{}, false, fmt.Errorf("failed to rewind database: %w", err)
	}

	v := fmt.Sprintf("%04x", vendor)
	d := fmt.Sprintf("%04x", device)

	s := bufio.NewScanner(db.r)
	s.Buffer(make([]byte, initialLineSize), MaxLineSize)

	state := scanning
	for s.Scan() {
		line := s.Text()
		if line == "" || line[0] == '#' || line[0] == ' ' {
			continue
		}

		switch state {
		case scanning:
			if strings.HasPrefix(line, v) {
				e.Vendor = description(line)
				state = vendorMatched
			}
		case vendorMatched:
			if line[0] != '\t' {
				// Next vendor or class section.
				return e, false, nil
			}
			if strings.HasPrefix(line[1:], d) {
				e.Device = description(line[1:])
				return e, true, nil
			}
		}
	}

	if err := s.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return e, false, ErrLineTooLong
		}
		return e, false, fmt.Errorf("failed to read database: %w", err)
	}

	return e, false, nil
}

// description returns the text following the leading ID of an entry.
func description(s string) string {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return ""
	}

	return strings.TrimLeft(s[i:], " \t")
}
