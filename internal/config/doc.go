// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/charmpack/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/charmpack/config.cue on macOS, %APPDATA%\charmpack\config.cue
// on Windows), validated against the embedded config_schema.cue, and overridden by
// CHARMPACK_* environment variables (CHARMPACK_PACK_BUILD_DIR for pack.build_dir).
package config
