// SPDX-License-Identifier: MPL-2.0

// Package parts models the build parts of a project and the lifecycle that
// turns them into a prime directory.
//
// A Plan is an immutable mapping from part name to Part. Plans are computed by
// pure builders (BundlePlan, CharmPlan) from the parts a project declares and
// are then handed unchanged to a Runner, which executes the lifecycle steps up
// to a target step and reports where the primed files are.
//
// LocalRunner is a small in-process Runner that understands the nil, dump,
// bundle and charm plugins, stage/prime filters and override-build scriptlets.
// Anything richer is expected to come from a Runner supplied by the caller.
package parts
