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

package pci

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/prometheus/procfs/sysfs"
)

const devicesPath = "bus/pci/devices"

// RootBridges discovers the PCI host bridges of the system through the
// sysfs tree mounted at mount, one bridge per PCI segment.  The bus ranges
// of each bridge are derived from the buses populated below it.
func RootBridges(mount string) ([]RootBridge, error) {
	fs, err := sysfs.NewFS(mount)
	if err != nil {
		return nil, err
	}

	devs, err := fs.PciDevices()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to list PCI devices: %w", err)
	}
	if len(devs) == 0 {
		return nil, ErrNotFound
	}

	type segment struct {
		roots map[int]bool
		buses map[int]bool
	}

	segs := make(map[int]*segment)
	for _, d := range devs {
		s, ok := segs[d.Location.Segment]
		if !ok {
			s = &segment{roots: make(map[int]bool), buses: make(map[int]bool)}
			segs[d.Location.Segment] = s
		}

		s.buses[d.Location.Bus] = true
		if d.ParentLocation == nil {
			s.roots[d.Location.Bus] = true
		}
	}

	ids := make([]int, 0, len(segs))
	for id := range segs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	dir := filepath.Join(mount, devicesPath)

	rbs := make([]RootBridge, 0, len(ids))
	for _, id := range ids {
		s := segs[id]
		rbs = append(rbs, &sysfsBridge{
			segment: uint16(id),
			desc:    busDescriptors(s.roots, s.buses),
			dir:     dir,
		})
	}

	return rbs, nil
}

// busDescriptors builds a descriptor list with one bus range per root bus,
// each ending at the highest populated bus before the next root bus.  No
// root buses yields a nil list.
func busDescriptors(roots, buses map[int]bool) []byte {
	if len(roots) == 0 {
		return nil
	}

	starts := make([]int, 0, len(roots))
	for b := range roots {
		starts = append(starts, b)
	}
	sort.Ints(starts)

	ds := make([]Descriptor, 0, len(starts))
	for i, start := range starts {
		limit := MaxBus
		if i+1 < len(starts) {
			limit = starts[i+1] - 1
		}

		end := start
		for b := range buses {
			if b > end && b <= limit {
				end = b
			}
		}

		ds = append(ds, Descriptor{
			ResType: ResTypeBus,
			Min:     uint64(start),
			Max:     uint64(end),
			Length:  uint64(end - start + 1),
		})
	}

	return MarshalDescriptors(ds)
}

var _ RootBridge = &sysfsBridge{}

// A sysfsBridge reads configuration space from the per-function config
// files under /sys/bus/pci/devices.
type sysfsBridge struct {
	segment uint16
	desc    []byte
	dir     string
}

func (s *sysfsBridge) Segment() uint16 { return s.segment }

func (s *sysfsBridge) Configuration() ([]byte, error) { return s.desc, nil }

func (s *sysfsBridge) Read(w Width, addr uint64, count int, buf []byte) error {
	a, reg := ParseConfigAddress(s.segment, addr)

	b, err := os.ReadFile(filepath.Join(s.dir, a.String(), "config"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return readSpace(nil, w, reg, count, buf)
		}
		return err
	}

	// Unprivileged readers only see the first 64 bytes.
	space := make([]byte, ConfigSpaceSize)
	for i := range space {
		space[i] = 0xff
	}
	copy(space, b)

	return readSpace(space, w, reg, count, buf)
}
