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

// Package status maps errors onto process exit codes numbered after the
// EFI status codes of the firmware shell tools.
package status

import (
	"errors"
	"io/fs"

	"github.com/yywing/go-fwinfo/acpi"
	"github.com/yywing/go-fwinfo/pci"
	"github.com/yywing/go-fwinfo/pciids"
)

// Exit codes.
const (
	Success        = 0
	LoadError      = 1
	Unsupported    = 3
	DeviceError    = 7
	OutOfResources = 9
	NotFound       = 14
)

// Code returns the exit code for err.
func Code(err error) int {
	var (
		aerr *acpi.ReadError
		perr *pci.ReadError
	)

	switch {
	case err == nil:
		return Success
	case errors.Is(err, pciids.ErrLineTooLong):
		return OutOfResources
	case errors.As(err, &aerr), errors.As(err, &perr):
		return DeviceError
	case errors.Is(err, acpi.ErrNotFound),
		errors.Is(err, pci.ErrNotFound),
		errors.Is(err, pciids.ErrNotFound),
		errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, errors.ErrUnsupported):
		return Unsupported
	default:
		return LoadError
	}
}
