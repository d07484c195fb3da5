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

package status

import (
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/yywing/go-fwinfo/acpi"
	"github.com/yywing/go-fwinfo/pci"
	"github.com/yywing/go-fwinfo/pciids"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{
			name: "success",
			code: Success,
		},
		{
			name: "no RSDP",
			err:  fmt.Errorf("failed to locate RSDP: %w", acpi.ErrNotFound),
			code: NotFound,
		},
		{
			name: "no root bridges",
			err:  pci.ErrNotFound,
			code: NotFound,
		},
		{
			name: "no database",
			err:  pciids.ErrNotFound,
			code: NotFound,
		},
		{
			name: "missing memory device",
			err:  &os.PathError{Op: "open", Path: "/dev/mem", Err: os.ErrNotExist},
			code: NotFound,
		},
		{
			name: "line too long",
			err:  pciids.ErrLineTooLong,
			code: OutOfResources,
		},
		{
			name: "memory read",
			err:  &acpi.ReadError{Addr: 0x1000, Len: 36, Err: io.ErrUnexpectedEOF},
			code: DeviceError,
		},
		{
			name: "aggregated configuration read",
			err: multierror.Append(nil,
				fmt.Errorf("segment 0000: %w", &pci.ReadError{Err: errors.New("bus fault")}),
			),
			code: DeviceError,
		},
		{
			name: "unsupported platform",
			err:  fmt.Errorf("opening firmware memory on plan9: %w", errors.ErrUnsupported),
			code: Unsupported,
		},
		{
			name: "other",
			err:  errors.New("permission denied"),
			code: LoadError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := Code(tt.err); code != tt.code {
				t.Fatalf("unexpected exit code: %d, want: %d", code, tt.code)
			}
		})
	}
}
