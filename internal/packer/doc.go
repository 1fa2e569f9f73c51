// SPDX-License-Identifier: MPL-2.0

// Package packer turns a project directory into distributable archives.
//
// Pack resolves the artifact type once, then either delegates to the charm
// collaborators or runs the bundle pipeline:
//
//	descriptor -> mandatory files -> parts plan -> lifecycle -> manifest -> zip
//
// Every validation happens before the lifecycle runs, so a failed pack never
// leaves an archive behind.
package packer
