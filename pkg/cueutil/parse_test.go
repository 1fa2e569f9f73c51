// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#TestConfig: {
	name:         string
	count:        int
	enabled:      bool
	description?: string
}
`

type TestConfig struct {
	Name        string `json:"name"`
	Count       int    `json:"count"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Run("valid CUE parses successfully", func(t *testing.T) {
		data := []byte(`
name: "test"
count: 42
enabled: true
`)
		result, err := ParseAndDecode[TestConfig]([]byte(testSchema), data, "#TestConfig")
		if err != nil {
			t.Fatalf("ParseAndDecode failed: %v", err)
		}
		if result.Value.Name != "test" || result.Value.Count != 42 || !result.Value.Enabled {
			t.Errorf("unexpected value: %+v", result.Value)
		}
	})

	t.Run("type mismatch reports the field path", func(t *testing.T) {
		data := []byte(`
name: "test"
count: "many"
enabled: true
`)
		_, err := ParseAndDecode[TestConfig]([]byte(testSchema), data, "#TestConfig", WithFilename("config.cue"))
		if err == nil {
			t.Fatal("expected error for type mismatch")
		}
		if !strings.Contains(err.Error(), "config.cue") || !strings.Contains(err.Error(), "count") {
			t.Errorf("error should mention file and field, got: %v", err)
		}
	})

	t.Run("oversized input is rejected", func(t *testing.T) {
		data := []byte(`name: "a very long name that exceeds the limit"`)
		_, err := ParseAndDecode[TestConfig]([]byte(testSchema), data, "#TestConfig", WithMaxFileSize(10))
		if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
			t.Errorf("expected size error, got: %v", err)
		}
	})

	t.Run("missing schema definition is an internal error", func(t *testing.T) {
		data := []byte(`name: "x", count: 1, enabled: true`)
		_, err := ParseAndDecode[TestConfig]([]byte(testSchema), data, "#Nope")
		if err == nil || !strings.Contains(err.Error(), "internal error") {
			t.Errorf("expected internal error, got: %v", err)
		}
	})
}

func TestParseYAMLAndDecode(t *testing.T) {
	t.Run("valid YAML parses successfully", func(t *testing.T) {
		data := []byte("name: test\ncount: 3\nenabled: false\ndescription: from yaml\n")
		result, err := ParseYAMLAndDecode[TestConfig]([]byte(testSchema), data, "#TestConfig")
		if err != nil {
			t.Fatalf("ParseYAMLAndDecode failed: %v", err)
		}
		if result.Value.Description != "from yaml" || result.Value.Count != 3 {
			t.Errorf("unexpected value: %+v", result.Value)
		}
	})

	t.Run("malformed YAML is reported with the filename", func(t *testing.T) {
		data := []byte("name: [unclosed\n")
		_, err := ParseYAMLAndDecode[TestConfig]([]byte(testSchema), data, "#TestConfig", WithFilename("charmcraft.yaml"))
		if err == nil || !strings.Contains(err.Error(), "charmcraft.yaml") {
			t.Errorf("expected YAML error mentioning filename, got: %v", err)
		}
	})

	t.Run("schema violation in YAML", func(t *testing.T) {
		data := []byte("name: test\ncount: 1\nenabled: sometimes\n")
		_, err := ParseYAMLAndDecode[TestConfig]([]byte(testSchema), data, "#TestConfig", WithFilename("charmcraft.yaml"))
		if err == nil || !strings.Contains(err.Error(), "enabled") {
			t.Errorf("expected schema error on enabled, got: %v", err)
		}
	})
}
