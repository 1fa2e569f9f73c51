// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmpack/charmpack/pkg/platform"
	"github.com/charmpack/charmpack/pkg/types"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultBuildDir is the default work directory name under the project root.
	DefaultBuildDir = "build"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidBuildDir is returned when a build directory is not a plain directory name.
	ErrInvalidBuildDir = errors.New("invalid build directory")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidLoadOptions is the sentinel error wrapped by InvalidLoadOptionsError.
	ErrInvalidLoadOptions = errors.New("invalid load options")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// BuildDirName is the name of the work directory created under the project root.
	BuildDirName string

	// InvalidBuildDirError is returned for a BuildDirName that is empty or not
	// a single path element.
	InvalidBuildDirError struct {
		Value BuildDirName
	}

	// InvalidConfigError collects field-level validation errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// InvalidLoadOptionsError collects field-level validation errors of LoadOptions.
	InvalidLoadOptionsError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Pack configures the pack command
		Pack PackConfig `json:"pack" mapstructure:"pack"`
		// Managed configures behavior inside a managed build environment
		Managed ManagedConfig `json:"managed" mapstructure:"managed"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}

	// PackConfig configures packing.
	PackConfig struct {
		// BuildDir is the work directory name under the project root.
		BuildDir BuildDirName `json:"build_dir" mapstructure:"build_dir"`
		// Shell is the debug shell program; empty uses $SHELL then /bin/sh.
		Shell string `json:"shell" mapstructure:"shell"`
	}

	// ManagedConfig configures managed build environments.
	ManagedConfig struct {
		// Home is the work directory when CHARMCRAFT_MANAGED_HOME is unset.
		Home string `json:"home" mapstructure:"home"`
	}

	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath types.FilesystemPath
		// ConfigDirPath overrides the config directory lookup when set.
		ConfigDirPath types.FilesystemPath
	}
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
		Pack: PackConfig{
			BuildDir: DefaultBuildDir,
		},
		Managed: ManagedConfig{
			Home: platform.DefaultManagedHome,
		},
	}
}

// Validate checks every field of the configuration.
func (c Config) Validate() error {
	var errs []error
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Pack.BuildDir.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Validate checks that both paths, when set, are not whitespace-only.
func (o LoadOptions) Validate() error {
	var errs []error
	for _, p := range []types.FilesystemPath{o.ConfigFilePath, o.ConfigDirPath} {
		if p == "" {
			continue
		}
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &InvalidLoadOptionsError{FieldErrors: errs}
	}
	return nil
}

func (cs ColorScheme) String() string { return string(cs) }

// Validate returns an error if the color scheme is not recognized.
func (cs ColorScheme) Validate() error {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: cs}
	}
}

func (b BuildDirName) String() string { return string(b) }

// Validate returns an error unless b is a single, non-special path element.
func (b BuildDirName) Validate() error {
	s := string(b)
	if strings.TrimSpace(s) == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) || filepath.Base(s) != s {
		return &InvalidBuildDirError{Value: b}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Error implements the error interface.
func (e *InvalidBuildDirError) Error() string {
	return fmt.Sprintf("invalid build directory %q: must be a single directory name", e.Value)
}

// Unwrap returns ErrInvalidBuildDir for errors.Is() compatibility.
func (e *InvalidBuildDirError) Unwrap() error { return ErrInvalidBuildDir }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface.
func (e *InvalidLoadOptionsError) Error() string {
	return fmt.Sprintf("invalid load options: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidLoadOptions for errors.Is() compatibility.
func (e *InvalidLoadOptionsError) Unwrap() error { return ErrInvalidLoadOptions }
