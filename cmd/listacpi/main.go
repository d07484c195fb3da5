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

// Command listacpi lists the ACPI tables referenced by the XSDT.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/yywing/go-fwinfo/acpi"
	"github.com/yywing/go-fwinfo/internal/config"
	"github.com/yywing/go-fwinfo/internal/log"
	"github.com/yywing/go-fwinfo/internal/status"
)

const version = "20180306"

type options struct {
	verbose bool
	version bool
	help    bool
	config  string
}

// parseFlags reports false when args do not form a valid invocation.
// At most one of the listing, version and help modes may be chosen.
func parseFlags(args []string) (options, bool) {
	fs := flag.NewFlagSet("listacpi", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	var o options
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "list table revisions and creators")
	fs.BoolVarP(&o.version, "version", "V", false, "print the version")
	fs.BoolVarP(&o.help, "help", "h", false, "print usage")
	fs.StringVar(&o.config, "config", "", "YAML configuration file")

	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return o, false
	}

	var modes int
	for _, m := range []bool{o.verbose, o.version, o.help} {
		if m {
			modes++
		}
	}

	return o, modes <= 1
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: listacpi [-v | --verbose] [--config FILE]")
	fmt.Fprintln(w, "       listacpi [-V | --version]")
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	open   func(acpi.Paths) (*acpi.Firmware, error)
}

func main() {
	a := &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		open:   acpi.Open,
	}

	os.Exit(a.run(os.Args[1:]))
}

// run executes one invocation and returns the exit code.
func (a *app) run(args []string) int {
	o, ok := parseFlags(args)
	if !ok || o.help {
		usage(a.stdout)
		return status.Success
	}
	if o.version {
		fmt.Fprintf(a.stdout, "Version: %s\n", version)
		return status.Success
	}

	cfg, err := config.Load(o.config)
	if err != nil {
		fmt.Fprintf(a.stdout, "ERROR: %v\n", err)
		return status.Code(err)
	}

	ll, err := log.New(a.stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(a.stdout, "ERROR: invalid log level: %v\n", err)
		return status.LoadError
	}

	fw, err := a.open(cfg.ACPIPaths())
	if err != nil {
		fmt.Fprintf(a.stdout, "ERROR: Could not open firmware memory: %v\n", err)
		return status.Code(err)
	}
	defer fw.Close()

	r, ct, err := fw.RSDP()
	if err != nil {
		if errors.Is(err, acpi.ErrNotFound) {
			fmt.Fprintln(a.stdout, "ERROR: Could not find an ACPI RSDP table.")
		} else {
			fmt.Fprintf(a.stdout, "ERROR: %v\n", err)
		}
		return status.Code(err)
	}

	ll.Debugf("ACPI GUID: %s, RSDP at %#x", ct.GUID, ct.Address)

	return list(a.stdout, ll, fw.Memory(), r, o.verbose)
}

// list prints every table of the XSDT r points to.  Malformed root tables
// are reported but do not fail the invocation.
func list(w io.Writer, ll log.Logger, mem io.ReaderAt, r *acpi.RSDP, verbose bool) int {
	if r.Revision < acpi.MinXSDTRevision {
		fmt.Fprintln(w, "ERROR: RSDP table < revision ACPI 2.0 found.")
		return status.Success
	}

	if verbose {
		fmt.Fprintf(w, "\n%s\n", acpi.FormatRSDP(r))
	}

	x, err := acpi.ParseXSDT(mem, r)
	if err != nil {
		if errors.Is(err, acpi.ErrInvalidSignature) {
			ll.Debugf("rejecting XSDT at %#x: %v", r.XSDTAddress, err)
			fmt.Fprintln(w, "ERROR: Invalid ACPI XSDT table found.")
			return status.Success
		}

		fmt.Fprintf(w, "ERROR: %v\n", err)
		return status.Code(err)
	}

	if verbose {
		fmt.Fprintf(w, "%s\n\n", acpi.FormatXSDT(x))
		fmt.Fprintln(w, acpi.ColumnHeading)
	}

	err = x.Walk(mem, func(h acpi.Header) error {
		fmt.Fprintln(w, acpi.Format(h, verbose))
		return nil
	})
	if err != nil {
		fmt.Fprintf(w, "ERROR: %v\n", err)
		return status.Code(err)
	}

	return status.Success
}
