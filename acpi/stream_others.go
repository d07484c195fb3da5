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

//go:build !linux
// +build !linux

package acpi

import (
	"errors"
	"fmt"
	"runtime"
)

// DefaultPaths is empty on platforms without a physical memory device.
var DefaultPaths = Paths{}

func open(_ Paths) (*Firmware, error) {
	return nil, fmt.Errorf("opening firmware memory on %s: %w", runtime.GOOS, errors.ErrUnsupported)
}
