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

import "fmt"

// ConfigSpaceSize is the size of a function's conventional configuration
// space.
const ConfigSpaceSize = 256

var _ RootBridge = &MemoryBridge{}

// A MemoryBridge is a RootBridge backed by in-memory configuration spaces.
// Functions without a configuration space read back as all ones.
type MemoryBridge struct {
	segment uint16
	desc    []byte
	spaces  map[Address][]byte
	errs    map[Address]error

	// Reads records the configuration address of every Read call.
	Reads []uint64
}

// NewMemoryBridge returns a bridge on segment decoding the resource
// descriptor list desc, which may be nil.
func NewMemoryBridge(segment uint16, desc []byte) *MemoryBridge {
	return &MemoryBridge{
		segment: segment,
		desc:    desc,
		spaces:  make(map[Address][]byte),
		errs:    make(map[Address]error),
	}
}

// key normalises a to this bridge's segment.
func (m *MemoryBridge) key(a Address) Address {
	a.Segment = m.segment
	return a
}

// SetConfig installs raw configuration space contents for a, padded to
// ConfigSpaceSize with ones.
func (m *MemoryBridge) SetConfig(a Address, b []byte) {
	space := make([]byte, ConfigSpaceSize)
	for i := range space {
		space[i] = 0xff
	}
	copy(space, b)

	m.spaces[m.key(a)] = space
}

// AddFunction installs h as the configuration header of a.
func (m *MemoryBridge) AddFunction(a Address, h Header) {
	b, _ := h.MarshalBinary()
	m.SetConfig(a, b)
}

// FailAt makes every read of a fail with err.
func (m *MemoryBridge) FailAt(a Address, err error) {
	m.errs[m.key(a)] = err
}

// Segment implements RootBridge.
func (m *MemoryBridge) Segment() uint16 { return m.segment }

// Configuration implements RootBridge.
func (m *MemoryBridge) Configuration() ([]byte, error) { return m.desc, nil }

// Read implements RootBridge.
func (m *MemoryBridge) Read(w Width, addr uint64, count int, buf []byte) error {
	m.Reads = append(m.Reads, addr)

	a, reg := ParseConfigAddress(m.segment, addr)
	if err := m.errs[a]; err != nil {
		return err
	}

	return readSpace(m.spaces[a], w, reg, count, buf)
}

// readSpace copies count values of width w at offset reg of space into
// buf.  A nil space reads as all ones.
func readSpace(space []byte, w Width, reg uint8, count int, buf []byte) error {
	switch w {
	case Width8, Width16, Width32:
	default:
		return fmt.Errorf("unsupported access width %d", w)
	}

	n := int(w) * count
	if len(buf) < n {
		return fmt.Errorf("buffer of %d bytes too small for %d bytes", len(buf), n)
	}
	if int(reg)+n > ConfigSpaceSize {
		return fmt.Errorf("read of %d bytes at offset %#02x beyond configuration space", n, reg)
	}

	if space == nil {
		for i := range buf[:n] {
			buf[i] = 0xff
		}
		return nil
	}

	copy(buf[:n], space[int(reg):int(reg)+n])
	return nil
}
