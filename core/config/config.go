/*
Package config holds the settings of an asset-loading session.

Settings are read from a global configuration with keys prefixed by
"assets.", e.g.

    assets.seed                    hash seed for all registries
    assets.capacity.textures       bucket count of the texture registry
    assets.capacity.atlases        … of the atlas registry
    assets.capacity.subtextures    … of every atlas' sub-texture registry
    assets.capacity.animations     … of the animation registry
    assets.capacity.shaders        … of the shader registry
    assets.capacity.audio          … of the audio registry
    assets.capacity.fonts          … of the font registry
    assets.registry.growable       registries grow instead of failing when full
    assets.font.sheet              width and height of font sheets in pixels
    assets.font.slack              tolerated excess of glyph cell over pixel height
    assets.strict                  treat reported markup problems as errors

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package config

import (
	"strconv"
	"strings"

	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'assets.catalog'.
func tracer() tracing.Trace {
	return tracing.Select("assets.catalog")
}

// Source is the part of a configuration we need. Both schuko.Configuration
// implementations and the schuko test configurations satisfy it.
type Source interface {
	GetString(key string) string
}

// Config is the set of parameters for an asset-loading session.
type Config struct {
	Seed               uint32
	TextureCapacity    int
	AtlasCapacity      int
	SubTextureCapacity int
	AnimationCapacity  int
	ShaderCapacity     int
	AudioCapacity      int
	FontCapacity       int
	Growable           bool
	FontSheetWidth     int
	FontSheetHeight    int
	PackingSlack       int
	Strict             bool
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Seed:               0x9747b28c,
		TextureCapacity:    64,
		AtlasCapacity:      32,
		SubTextureCapacity: 128,
		AnimationCapacity:  64,
		ShaderCapacity:     16,
		AudioCapacity:      64,
		FontCapacity:       8,
		Growable:           false,
		FontSheetWidth:     512,
		FontSheetHeight:    512,
		PackingSlack:       4,
		Strict:             false,
	}
}

// From reads a configuration from conf, starting from the default values.
// Keys which are not set keep their default. Malformed values are traced and
// ignored.
func From(conf Source) Config {
	c := Default()
	if conf == nil {
		return c
	}
	if s, ok := lookup(conf, "assets.seed"); ok {
		if n, err := strconv.ParseUint(s, 0, 32); err == nil {
			c.Seed = uint32(n)
		} else {
			tracer().Errorf("config: assets.seed is not a 32-bit number: %q", s)
		}
	}
	readInt(conf, "assets.capacity.textures", &c.TextureCapacity)
	readInt(conf, "assets.capacity.atlases", &c.AtlasCapacity)
	readInt(conf, "assets.capacity.subtextures", &c.SubTextureCapacity)
	readInt(conf, "assets.capacity.animations", &c.AnimationCapacity)
	readInt(conf, "assets.capacity.shaders", &c.ShaderCapacity)
	readInt(conf, "assets.capacity.audio", &c.AudioCapacity)
	readInt(conf, "assets.capacity.fonts", &c.FontCapacity)
	readBool(conf, "assets.registry.growable", &c.Growable)
	var sheet int
	if readInt(conf, "assets.font.sheet", &sheet) {
		c.FontSheetWidth, c.FontSheetHeight = sheet, sheet
	}
	readInt(conf, "assets.font.slack", &c.PackingSlack)
	readBool(conf, "assets.strict", &c.Strict)
	return c
}

// FromGlobal reads a configuration from the application-wide schuko
// configuration (gconf), which has to be initialized by the application.
func FromGlobal() Config {
	return From(globalSource{})
}

type globalSource struct{}

func (globalSource) GetString(key string) string {
	return gconf.GetString(key)
}

// Validate checks that all capacities and sizes are usable.
func (c Config) Validate() error {
	for _, p := range []struct {
		key string
		n   int
	}{
		{"capacity.textures", c.TextureCapacity},
		{"capacity.atlases", c.AtlasCapacity},
		{"capacity.subtextures", c.SubTextureCapacity},
		{"capacity.animations", c.AnimationCapacity},
		{"capacity.shaders", c.ShaderCapacity},
		{"capacity.audio", c.AudioCapacity},
		{"capacity.fonts", c.FontCapacity},
		{"font.sheet", c.FontSheetWidth},
		{"font.sheet", c.FontSheetHeight},
	} {
		if p.n <= 0 {
			return core.Error(core.ECONFIG, "assets.%s must be positive, is %d", p.key, p.n)
		}
	}
	if c.PackingSlack < 0 {
		return core.Error(core.ECONFIG, "assets.font.slack must not be negative, is %d", c.PackingSlack)
	}
	return nil
}

func lookup(conf Source, key string) (string, bool) {
	s := strings.TrimSpace(conf.GetString(key))
	return s, s != ""
}

func readInt(conf Source, key string, n *int) bool {
	s, ok := lookup(conf, key)
	if !ok {
		return false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		tracer().Errorf("config: %s is not a number: %q", key, s)
		return false
	}
	*n = v
	return true
}

func readBool(conf Source, key string, b *bool) bool {
	s, ok := lookup(conf, key)
	if !ok {
		return false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		tracer().Errorf("config: %s is not a boolean: %q", key, s)
		return false
	}
	*b = v
	return true
}
