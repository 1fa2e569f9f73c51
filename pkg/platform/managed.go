// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"strings"
	"sync"
)

const (
	// ManagedModeEnv is set to a truthy value inside a managed build environment.
	ManagedModeEnv = "CHARMCRAFT_MANAGED_MODE"
	// ManagedHomeEnv overrides the home directory used inside a managed build environment.
	ManagedHomeEnv = "CHARMCRAFT_MANAGED_HOME"
	// DefaultManagedHome is the home directory of the build user inside managed instances.
	DefaultManagedHome = "/root"
)

// detectOnce caches managed-mode detection for the lifetime of the process.
// The environment of a managed instance does not change while we run.
var detectOnce = sync.OnceValue(func() Environment {
	return detectEnvironmentFrom(os.Getenv)
})

type (
	// Environment describes where the packer is executing.
	Environment struct {
		// Managed is true inside an isolated build environment.
		Managed bool
		// Home is the managed environment's home path. Empty when not managed
		// and no override was exported.
		Home string
	}
)

// DetectEnvironment returns the cached execution environment.
func DetectEnvironment() Environment {
	return detectOnce()
}

// ManagedHome returns the home path to use for build work in managed mode:
// the exported home, then fallback, then DefaultManagedHome.
func (e Environment) ManagedHome(fallback string) string {
	if e.Home != "" {
		return e.Home
	}
	if fallback != "" {
		return fallback
	}
	return DefaultManagedHome
}

// detectEnvironmentFrom performs detection using the provided lookup function
// so tests can inject values without mutating process-wide state.
func detectEnvironmentFrom(lookupEnv func(string) string) Environment {
	return Environment{
		Managed: isTruthy(lookupEnv(ManagedModeEnv)),
		Home:    strings.TrimSpace(lookupEnv(ManagedHomeEnv)),
	}
}

// isTruthy interprets the usual spellings of a boolean environment flag.
func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "y", "yes", "true", "on":
		return true
	default:
		return false
	}
}
