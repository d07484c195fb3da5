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

// Package config loads the optional YAML configuration file of the
// commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/yywing/go-fwinfo/acpi"
	"github.com/yywing/go-fwinfo/internal/log"
	"github.com/yywing/go-fwinfo/pciids"
	"gopkg.in/yaml.v3"
)

// DefaultSysfs is the sysfs mount point.
const DefaultSysfs = "/sys"

// Config holds the command settings.  Unset fields keep their defaults.
type Config struct {
	LogLevel  string   `yaml:"log_level"`
	PCIIDs    []string `yaml:"pci_ids"`
	Sysfs     string   `yaml:"sysfs"`
	Memory    string   `yaml:"memory"`
	EFISystab string   `yaml:"efi_systab"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:  log.DefaultLevel,
		PCIIDs:    append([]string(nil), pciids.DefaultPaths...),
		Sysfs:     DefaultSysfs,
		Memory:    acpi.DefaultPaths.Memory,
		EFISystab: acpi.DefaultPaths.Systab,
	}
}

// Load reads the configuration file at path over the defaults.  An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return c, nil
}

// ACPIPaths returns the firmware paths to open.
func (c *Config) ACPIPaths() acpi.Paths {
	return acpi.Paths{
		Systab: c.EFISystab,
		Memory: c.Memory,
	}
}
