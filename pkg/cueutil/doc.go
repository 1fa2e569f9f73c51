// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE validation utilities.
//
// Every user-facing file the packer reads is checked against an embedded CUE
// schema before it is decoded into Go values:
//
//  1. Compile the embedded schema
//  2. Compile (CUE) or extract (YAML) user data and unify with the schema
//  3. Validate and decode to a Go value
//
// # Usage
//
//	//go:embed project_schema.cue
//	var schema []byte
//
//	result, err := cueutil.ParseYAMLAndDecode[Project](
//	    schema,
//	    charmcraftYAML,
//	    "#Project",
//	    cueutil.WithFilename("charmcraft.yaml"),
//	)
//	if err != nil {
//	    return nil, err  // Error includes the field path for debugging
//	}
//	return result.Value, nil
package cueutil
