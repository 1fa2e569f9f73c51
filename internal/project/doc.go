// SPDX-License-Identifier: MPL-2.0

// Package project loads the per-invocation project context from
// charmcraft.yaml at the project root.
package project
