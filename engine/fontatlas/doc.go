/*
Package fontatlas rasterizes a range of code-points of a scalable font and
packs the glyphs into a single texture, the font sheet.

Every glyph gets a cell of the same size, the size of the largest glyph
bitmap. Cells are laid out in row groups, left to right and top to bottom,
with rows counted from the top of the sheet. Each glyph is registered in
the sheet's atlas under its literal character, so a text renderer finds
the glyph for 'A' as region "A".

All metrics are scaled with the single vertical scale factor which maps the
font's ascent-to-descent span to the requested pixel height. No horizontal
scale is computed.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package fontatlas

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'assets.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("assets.fonts")
}
