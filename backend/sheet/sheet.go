/*
Package sheet writes textures and atlases back to files: textures as PNG
images, atlases as inventories of their regions, either as plain text or as
descriptor markup which package descriptor reads again.

Inventories are sorted by region name.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package sheet

import (
	"bufio"
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/assetpipe/engine/asset"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'assets.catalog'.
func tracer() tracing.Trace {
	return tracing.Select("assets.catalog")
}

// EncodePNG writes a texture as a PNG image.
func EncodePNG(w io.Writer, tex *asset.Texture) error {
	if tex == nil || tex.Width <= 0 || tex.Height <= 0 {
		return core.Error(core.EINVALID, "no texture to encode")
	}
	if len(tex.Pix) < tex.Width*tex.Height*tex.Channels {
		return core.Error(core.EINVALID, "texture %s: pixel buffer too short", tex.Name)
	}
	if err := png.Encode(w, tex.Image().RGBA()); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot encode texture %s as PNG", tex.Name)
	}
	return nil
}

// SavePNG writes a texture to a PNG file.
func SavePNG(filename string, tex *asset.Texture) error {
	f, err := os.Create(filename)
	if err != nil {
		return core.WrapError(err, core.EMISSING, "cannot create %s", filename)
	}
	if err = EncodePNG(f, tex); err != nil {
		f.Close()
		return err
	}
	tracer().Infof("texture %s written to %s", tex.Name, filename)
	return f.Close()
}

// Inventory returns the regions of an atlas as a map from name to
// asset.SubTexture, sorted by name.
func Inventory(atlas *asset.TexAtlas) *treemap.Map {
	m := treemap.NewWithStringComparator()
	atlas.Regions.Each(func(key string, st *asset.SubTexture) bool {
		m.Put(key, *st)
		return true
	})
	return m
}

// WriteInventory writes one line per region: name, origin and size, with a
// bottom-left origin.
func WriteInventory(w io.Writer, atlas *asset.TexAtlas) error {
	bw := bufio.NewWriter(w)
	it := Inventory(atlas).Iterator()
	for it.Next() {
		st := it.Value().(asset.SubTexture)
		fmt.Fprintf(bw, "%-24s %5d %5d %5d %5d\n", it.Key(), st.Origin.X, st.Origin.Y, st.Size.X, st.Size.Y)
	}
	return bw.Flush()
}

// WriteDescriptor writes an atlas as descriptor markup, rectangles with a
// top-left origin.
func WriteDescriptor(w io.Writer, atlas *asset.TexAtlas) error {
	if atlas.Texture == nil {
		return core.Error(core.EINVALID, "atlas %s has no texture", atlas.Name)
	}
	texH := atlas.Texture.Height
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "<TextureAtlas imagePath=\"%s\">\n", atlas.Name)
	it := Inventory(atlas).Iterator()
	for it.Next() {
		st := it.Value().(asset.SubTexture)
		fmt.Fprintf(bw, "    <SubTexture name=\"%s\" x=\"%d\" y=\"%d\" width=\"%d\" height=\"%d\"/>\n",
			st.Name, st.Origin.X, asset.FlipY(texH, st.Origin.Y, st.Size.Y), st.Size.X, st.Size.Y)
	}
	fmt.Fprintln(bw, "</TextureAtlas>")
	return bw.Flush()
}

// Catalog returns the names of all assets of a catalog, sorted, as a map
// from category to a sorted *treemap.Map of the category's asset names.
func Catalog(cat *asset.Catalog) *treemap.Map {
	m := treemap.NewWithStringComparator()
	add := func(category string, keys []string) {
		names := treemap.NewWithStringComparator()
		for _, k := range keys {
			names.Put(k, true)
		}
		m.Put(category, names)
	}
	add("animations", cat.Animations.Keys())
	add("atlases", cat.Atlases.Keys())
	add("audio", cat.Audio.Keys())
	add("fonts", cat.Fonts.Keys())
	add("shaders", cat.Shaders.Keys())
	add("textures", cat.Textures.Keys())
	return m
}

// WriteCatalog writes the asset names of a catalog grouped by category.
func WriteCatalog(w io.Writer, cat *asset.Catalog) error {
	bw := bufio.NewWriter(w)
	it := Catalog(cat).Iterator()
	for it.Next() {
		names := it.Value().(*treemap.Map)
		fmt.Fprintf(bw, "%s (%d)\n", it.Key(), names.Size())
		for _, k := range names.Keys() {
			fmt.Fprintf(bw, "    %s\n", k)
		}
	}
	return bw.Flush()
}
