// SPDX-License-Identifier: MPL-2.0

// Package platform provides host-environment utilities.
//
// It answers two questions the packer needs before it touches the filesystem:
// which operating system it runs on, and whether the process is executing
// inside a managed build environment (an isolated instance prepared by an
// outer invocation), in which case build work goes to the environment's home
// directory instead of the project tree.
package platform
