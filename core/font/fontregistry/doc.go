/*
Package fontregistry manages a registry for loaded fonts. Fonts are keyed by
their normalized name or file path.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package fontregistry

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'assets.fonts'
func tracer() tracing.Trace {
	return tracing.Select("assets.fonts")
}
