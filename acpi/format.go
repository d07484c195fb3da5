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
	"fmt"
	"strings"
)

// ColumnHeading labels the columns of verbose Format output.
const ColumnHeading = " Table Revision CreatorID  CreatorRev"

// Format renders one line describing the table with header h.
//
// The FACP entry also implies the FACS and DSDT, which the XSDT never lists
// on their own, so it is annotated in either mode.
func Format(h Header, verbose bool) string {
	var sb strings.Builder

	if verbose {
		fmt.Fprintf(&sb, "  %s   0x%02x     %s     0x%08x",
			h.Signature, h.Revision, h.CreatorID, h.CreatorRevision)
		if h.Signature == "SSDT" {
			fmt.Fprintf(&sb, "   \"%s\"", h.OEMTableID)
		}
	} else {
		fmt.Fprintf(&sb, "  %s", h.Signature)
	}

	if h.Signature == "FACP" {
		sb.WriteString("  (inc. FACS, DSDT)")
	}

	return sb.String()
}

// FormatRSDP summarizes r for verbose listings.
func FormatRSDP(r *RSDP) string {
	return fmt.Sprintf("RSDP Revision: %d  OEM ID: %s", r.Revision, r.OEMID)
}

// FormatXSDT summarizes x for verbose listings.
func FormatXSDT(x *XSDT) string {
	return fmt.Sprintf("XSDT Revision: %d  OEM ID: %s  Entry Count: %d",
		x.Revision, x.OEMID, len(x.Entries))
}
