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

// Command showpci lists the PCI functions behind every root bridge,
// optionally naming them from the pci.ids database.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	flag "github.com/spf13/pflag"
	"github.com/yywing/go-fwinfo/internal/config"
	"github.com/yywing/go-fwinfo/internal/log"
	"github.com/yywing/go-fwinfo/internal/status"
	"github.com/yywing/go-fwinfo/pci"
	"github.com/yywing/go-fwinfo/pciids"
)

const version = "20180327"

type options struct {
	verbose bool
	version bool
	help    bool
	config  string
}

// parseFlags reports false when args do not form a valid invocation.
// At most one of the listing, version and help modes may be chosen.
func parseFlags(args []string) (options, bool) {
	fs := flag.NewFlagSet("showpci", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	var o options
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "name vendors and devices from pci.ids")
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

func usage(w io.Writer, unknown bool) {
	if unknown {
		fmt.Fprintln(w, "ERROR: Unknown option(s).")
	}

	fmt.Fprintln(w, "Usage: showpci [ -v | --verbose ] [ --config FILE ]")
	fmt.Fprintln(w, "       showpci [ -V | --version ]")
}

type app struct {
	stdout  io.Writer
	stderr  io.Writer
	bridges func(sysfs string) ([]pci.RootBridge, error)
}

func main() {
	a := &app{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		bridges: pci.RootBridges,
	}

	os.Exit(a.run(os.Args[1:]))
}

// run executes one invocation and returns the exit code.
func (a *app) run(args []string) int {
	o, ok := parseFlags(args)
	if !ok || o.help {
		usage(a.stdout, !ok)
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

	rbs, err := a.bridges(cfg.Sysfs)
	if err == nil && len(rbs) == 0 {
		err = pci.ErrNotFound
	}
	if err != nil {
		ll.Debugf("failed to enumerate root bridges: %v", err)
		fmt.Fprintln(a.stdout, "ERROR: Failed to find any PCI handles")
		return status.Code(err)
	}

	var db *pciids.Database
	if o.verbose {
		path, err := pciids.Find(cfg.PCIIDs)
		if err != nil {
			fmt.Fprintf(a.stdout, "ERROR: Could not find %s\n", pciids.DefaultFile)
			return status.Code(err)
		}

		db, err = pciids.Open(path)
		if err != nil {
			fmt.Fprintf(a.stdout, "ERROR: Could not open %s\n", path)
			return status.Code(err)
		}
		defer db.Close()

		ll.Debugf("using PCI ID database %s", path)
	}

	return status.Code(list(a.stdout, ll, rbs, db))
}

// list prints the functions of every root bridge.  A failing bridge is
// reported and skipped; the errors of all bridges are returned together.
func list(w io.Writer, ll log.Logger, rbs []pci.RootBridge, db *pciids.Database) error {
	var result *multierror.Error

	for _, rb := range rbs {
		checkBusRanges(ll, rb)

		err := pci.Walk(rb,
			func(min, max uint16) error {
				ll.Debugf("scanning segment %04x buses %d-%d", rb.Segment(), min, max)
				fmt.Fprintf(w, "\n%s\n\n", pci.ColumnHeading)
				return nil
			},
			func(f pci.Function) error {
				row := pci.FormatRow(f)
				if db != nil {
					e, _, err := db.Lookup(f.Header.VendorID, f.Header.DeviceID)
					if err != nil {
						return fmt.Errorf("failed to look up %04x:%04x: %w", f.Header.VendorID, f.Header.DeviceID, err)
					}
					row += describe(e)
				}

				fmt.Fprintln(w, row)
				return nil
			},
		)
		if err != nil {
			fmt.Fprintf(w, "ERROR: segment %04x: %v\n", rb.Segment(), err)
			result = multierror.Append(result, fmt.Errorf("segment %04x: %w", rb.Segment(), err))

			// Every later lookup would hit the same line.
			if errors.Is(err, pciids.ErrLineTooLong) {
				break
			}
		}
	}

	fmt.Fprintln(w)

	return result.ErrorOrNil()
}

// checkBusRanges warns about implausible bus ranges reported by rb.
func checkBusRanges(ll log.Logger, rb pci.RootBridge) {
	desc, err := rb.Configuration()
	if err != nil || desc == nil {
		return
	}

	ds, err := pci.ParseDescriptors(desc)
	if err != nil {
		ll.Warnf("segment %04x: malformed resource descriptors: %v", rb.Segment(), err)
		return
	}

	if err := pci.ValidateBusRanges(ds); err != nil {
		ll.Warnf("segment %04x: %v", rb.Segment(), err)
	}
}

// describe formats the names found for a function.
func describe(e pciids.Entry) string {
	var s string
	if e.Vendor != "" {
		s += "     " + e.Vendor
	}
	if e.Device != "" {
		s += ", " + e.Device
	}

	return s
}
