package fontatlas

import (
	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/assetpipe/core/font"
	"github.com/npillmayer/assetpipe/engine/asset"
)

// BuildInto builds a font as Build does, configured by the catalog, and
// registers its sheet texture, its atlas and the font itself under name.
// Nothing is registered if any of the three names is taken.
func BuildInto(cat *asset.Catalog, name string, r font.Rasterizer, lo, hi rune, px float64,
	opts ...Option) (*asset.Font, error) {
	//
	if cat.Textures.Contains(name) || cat.Atlases.Contains(name) || cat.Fonts.Contains(name) {
		return nil, core.Error(core.ECOLLISION, "font %q: name already in use", name)
	}
	opts = append([]Option{FromConfig(cat.Config), WithName(name), WithTracer(cat.Trace())}, opts...)
	f, err := Build(r, lo, hi, px, opts...)
	if err != nil {
		return nil, err
	}
	if err = cat.Textures.Put(name, f.Atlas.Texture); err != nil {
		return nil, err
	}
	if err = cat.Atlases.Put(name, f.Atlas); err != nil {
		cat.Textures.Remove(name)
		return nil, err
	}
	if err = cat.Fonts.Put(name, f); err != nil {
		cat.Textures.Remove(name)
		cat.Atlases.Remove(name)
		return nil, err
	}
	cat.Trace().Infof("font %s registered: [%U,%U) at %gpx", name, lo, hi, px)
	return f, nil
}

// BuildFromFont rasterizes a scalable font with the SFNT rasterizer of
// package font and registers the result as BuildInto does.
func BuildFromFont(cat *asset.Catalog, name string, sf *font.ScalableFont, lo, hi rune, px float64,
	opts ...Option) (*asset.Font, error) {
	//
	r, err := font.NewRasterizer(sf)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return BuildInto(cat, name, r, lo, hi, px, opts...)
}
