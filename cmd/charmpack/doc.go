// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the charmpack command-line interface.
//
// The root command carries the global flags (--verbose, --config and
// --project-dir). The pack command turns a charm or bundle project into its
// distributable archive(s). The config command inspects the application
// configuration. Commands delegate to an App, which owns the injected
// collaborators and the output streams, so tests can run the whole command
// tree in-process.
package cmd
