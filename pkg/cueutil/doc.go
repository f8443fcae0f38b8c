// SPDX-License-Identifier: MPL-2.0

// Package cueutil compiles a CUE document against an embedded schema and
// decodes the result, reporting failures with JSON-path style locations.
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	res, err := cueutil.Decode[map[string]any](schema, data, "#Config",
//	    cueutil.WithFilename(path),
//	    cueutil.WithConcrete(false),
//	)
package cueutil
