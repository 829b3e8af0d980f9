package asset

import (
	"fmt"
	"io"
	"sort"

	"github.com/npillmayer/assetpipe/core/config"
	"github.com/npillmayer/assetpipe/core/registry"
	"github.com/npillmayer/schuko/tracing"
)

// Catalog owns the assets of a loading session, one registry per category.
type Catalog struct {
	Config     config.Config
	Textures   *registry.Registry[*Texture]
	Atlases    *registry.Registry[*TexAtlas]
	Animations *registry.Registry[*Animation]
	Shaders    *registry.Registry[*Shader]
	Audio      *registry.Registry[*AudioClip]
	Fonts      *registry.Registry[*Font]
	Decoder    AudioDecoder // may be nil
	trace      tracing.Trace
}

// CatalogOption configures a catalog.
type CatalogOption func(*Catalog)

// WithAudioDecoder sets the decoder used to open audio clips.
func WithAudioDecoder(dec AudioDecoder) CatalogOption {
	return func(c *Catalog) {
		c.Decoder = dec
	}
}

// WithTracer routes the trace output of the catalog and its registries to t.
func WithTracer(t tracing.Trace) CatalogOption {
	return func(c *Catalog) {
		c.trace = t
	}
}

// NewCatalog creates an empty catalog with registries sized by conf.
// An invalid configuration is rejected with error code ECONFIG.
func NewCatalog(conf config.Config, opts ...CatalogOption) (*Catalog, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	c := &Catalog{Config: conf}
	for _, opt := range opts {
		opt(c)
	}
	if c.trace == nil {
		c.trace = tracer()
	}
	c.Textures = registry.New[*Texture](conf.TextureCapacity, c.registryOptions("textures")...)
	c.Atlases = registry.New[*TexAtlas](conf.AtlasCapacity, c.registryOptions("atlases")...)
	c.Animations = registry.New[*Animation](conf.AnimationCapacity, c.registryOptions("animations")...)
	c.Shaders = registry.New[*Shader](conf.ShaderCapacity, c.registryOptions("shaders")...)
	c.Audio = registry.New[*AudioClip](conf.AudioCapacity, c.registryOptions("audio")...)
	c.Fonts = registry.New[*Font](conf.FontCapacity, c.registryOptions("fonts")...)
	c.trace.Debugf("catalog created, seed = %#x, growable = %v", conf.Seed, conf.Growable)
	return c, nil
}

func (c *Catalog) registryOptions(name string) []registry.Option {
	return []registry.Option{
		registry.Named(name),
		registry.WithSeed(c.Config.Seed),
		registry.Growable(c.Config.Growable),
		registry.WithTracer(c.trace),
	}
}

// Trace returns the catalog's tracer.
func (c *Catalog) Trace() tracing.Trace {
	return c.trace
}

// NewAtlas creates an atlas sized and seeded like the catalog's registries.
// It is not registered.
func (c *Catalog) NewAtlas(name string, tex *Texture) *TexAtlas {
	return NewTexAtlas(name, tex, c.Config.SubTextureCapacity,
		registry.WithSeed(c.Config.Seed),
		registry.Growable(c.Config.Growable),
		registry.WithTracer(c.trace))
}

// Texture returns the texture registered under name.
func (c *Catalog) Texture(name string) (*Texture, bool) {
	return c.Textures.Get(name)
}

// Atlas returns the atlas registered under name.
func (c *Catalog) Atlas(name string) (*TexAtlas, bool) {
	return c.Atlases.Get(name)
}

// Animation returns the animation registered under name.
func (c *Catalog) Animation(name string) (*Animation, bool) {
	return c.Animations.Get(name)
}

// Shader returns the shader registered under name.
func (c *Catalog) Shader(name string) (*Shader, bool) {
	return c.Shaders.Get(name)
}

// Sound returns the audio clip registered under name.
func (c *Catalog) Sound(name string) (*AudioClip, bool) {
	return c.Audio.Get(name)
}

// Font returns the font registered under name.
func (c *Catalog) Font(name string) (*Font, bool) {
	return c.Fonts.Get(name)
}

// OpenAudio opens a clip with the catalog's decoder. Without a decoder the
// clip is left unopened.
func (c *Catalog) OpenAudio(clip *AudioClip) error {
	if c.Decoder == nil {
		return nil
	}
	s, err := c.Decoder.Open(clip.Data)
	if err != nil {
		return err
	}
	clip.Attach(s)
	c.trace.Debugf("audio %s: %d channels, %d Hz, %.2fs", clip.Name, clip.Channels,
		clip.SampleRate, clip.Seconds)
	return nil
}

// Counts returns the number of assets per category.
func (c *Catalog) Counts() map[string]int {
	return map[string]int{
		"textures":   c.Textures.Len(),
		"atlases":    c.Atlases.Len(),
		"animations": c.Animations.Len(),
		"shaders":    c.Shaders.Len(),
		"audio":      c.Audio.Len(),
		"fonts":      c.Fonts.Len(),
	}
}

// Summary writes the asset counts per category, in alphabetical order.
func (c *Catalog) Summary(w io.Writer) error {
	counts := c.Counts()
	cats := make([]string, 0, len(counts))
	for k := range counts {
		cats = append(cats, k)
	}
	sort.Strings(cats)
	for _, k := range cats {
		if _, err := fmt.Fprintf(w, "%-11s %4d\n", k, counts[k]); err != nil {
			return err
		}
	}
	return nil
}

// Reset drops all assets.
func (c *Catalog) Reset() {
	c.Textures.Reset()
	c.Atlases.Reset()
	c.Animations.Reset()
	c.Shaders.Reset()
	c.Audio.Reset()
	c.Fonts.Reset()
}
