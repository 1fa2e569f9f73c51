// SPDX-License-Identifier: MPL-2.0

// Package shell launches the interactive debug shell used by --debug, --shell
// and --shell-after. On a terminal the shell runs on a pseudo-terminal with
// the caller's terminal in raw mode; otherwise it inherits the standard
// streams directly.
package shell
