// SPDX-License-Identifier: MPL-2.0

// Package manifest stamps a prime directory with packaging metadata.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the manifest's name inside the prime directory and the archive.
const FileName = "manifest.yaml"

// TimestampLayout renders timestamps as <DATE>T<TIME>Z, always in UTC.
const TimestampLayout = "2006-01-02T15:04:05Z"

type (
	// Base is one run-on target recorded for a charm.
	Base struct {
		Name          string   `yaml:"name"`
		Channel       string   `yaml:"channel"`
		Architectures []string `yaml:"architectures"`
	}

	// Attribute is a named linting result carried into the manifest.
	Attribute struct {
		Name   string `yaml:"name"`
		Result string `yaml:"result"`
	}

	// Options carries the optional parts of the manifest.
	Options struct {
		// Version is the packer version; "dev" when empty.
		Version string
		// Bases is set by the charm path; bundles leave it empty.
		Bases []Base
		// Attributes are recorded under analysis.attributes when present.
		Attributes []Attribute
	}

	// Manifest is the serialized document.
	Manifest struct {
		Version   string    `yaml:"charmcraft-version"`
		StartedAt string    `yaml:"charmcraft-started-at"`
		Bases     []Base    `yaml:"bases,omitempty"`
		Analysis  *Analysis `yaml:"analysis,omitempty"`
	}

	// Analysis groups linting results.
	Analysis struct {
		Attributes []Attribute `yaml:"attributes"`
	}
)

// FormatTimestamp converts t to UTC and renders it with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Write creates FileName in primeDir and returns its path. Only the manifest
// file itself is ever written; an existing manifest is replaced.
func Write(primeDir string, startedAt time.Time, opts Options) (string, error) {
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	m := Manifest{
		Version:   version,
		StartedAt: FormatTimestamp(startedAt),
		Bases:     opts.Bases,
	}
	if len(opts.Attributes) > 0 {
		m.Analysis = &Analysis{Attributes: opts.Attributes}
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	path := filepath.Join(primeDir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}
