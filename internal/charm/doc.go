// SPDX-License-Identifier: MPL-2.0

// Package charm validates charm pack arguments and builds .charm archives,
// one per selected base.
package charm
