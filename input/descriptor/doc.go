/*
Package descriptor interprets asset descriptor documents and fills a
catalog with the assets they declare.

Recognized elements are

    TextureAtlas imagePath       an atlas bound to a decoded image,
      SubTexture name x y width height
                                 with named rectangles (top-left origin)
    Animation name atlas [duration] [prefix]
      Frame name                 a frame sequence of an atlas
    Shader name vertex fragment  a shader program slot
    Sound name path              an audio slot
    Font name [path] size [first] [last]
                                 a bitmap font generated from a scalable font
    Assets                       groups any of the above

Element and attribute names are resolved once into a closed set of kinds;
unknown elements are reported, unknown attributes are ignored.

Ingestion is forgiving. Malformed attribute values, duplicate names and
elements in the wrong place are recorded as problems in a Report and the
offending asset is skipped. Failures to read or decode a file abort the
asset concerned and are returned as the error of Ingest, while other
assets of the document are still ingested.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package descriptor

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'assets.descriptor'.
func tracer() tracing.Trace {
	return tracing.Select("assets.descriptor")
}
