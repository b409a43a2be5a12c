package sample

import _ "embed"

// Source is this package's own source, printed verbatim by
// `mqttwarn funcs sample` (SPEC_FULL.md §10.6) as a starting point for
// a user's own hook module.
//
//go:embed sample.go
var Source string
