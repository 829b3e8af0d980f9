/*
Package asset holds the data model of loaded assets and the catalog of
registries an asset-loading session fills.

Every asset category has its own registry (package core/registry), keyed by
asset name. Registries hold pointers, so cross references between assets
(an animation referring to its atlas, a font referring to its glyph sheet)
stay valid when a growable registry rehashes. Those references are
non-owning: assets are owned by the catalog.

Coordinates of sub-textures are in atlas pixel space with a bottom-left
origin, as renderers expect it. Descriptor files give rectangles with a
top-left origin; they are converted with FlipY on ingestion.

Decoding of audio payloads is not done here; a session may hand in an
AudioDecoder which fills in the stream information of audio clips.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package asset

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'assets.catalog'.
func tracer() tracing.Trace {
	return tracing.Select("assets.catalog")
}
