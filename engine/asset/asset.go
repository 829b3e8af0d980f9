package asset

import (
	"fmt"
	"image"
	"path"
	"strings"
	"time"

	"github.com/npillmayer/assetpipe/core/imaging"
)

// Texture is a decoded image, ready to be uploaded by a renderer.
type Texture struct {
	Name          string
	Width, Height int
	Channels      int    // 1 gray, 2 gray+alpha, 3 RGB, 4 RGBA
	Format        string // e.g. "png"; empty for generated textures
	Pix           []byte // Height rows of Width*Channels bytes, top row first
}

// NewTexture wraps a decoded image as a texture.
func NewTexture(name string, img imaging.Image) *Texture {
	return &Texture{
		Name:     name,
		Width:    img.Width,
		Height:   img.Height,
		Channels: img.Channels,
		Format:   img.Format,
		Pix:      img.Pix,
	}
}

// Image returns the texture as an imaging.Image.
func (t *Texture) Image() imaging.Image {
	return imaging.Image{
		Width:    t.Width,
		Height:   t.Height,
		Channels: t.Channels,
		Format:   t.Format,
		Pix:      t.Pix,
	}
}

func (t *Texture) String() string {
	return fmt.Sprintf("texture %q %dx%d/%d", t.Name, t.Width, t.Height, t.Channels)
}

// SubTexture is a named rectangle of an atlas. Origin is the bottom-left
// corner in atlas pixel space.
type SubTexture struct {
	Name   string
	Origin image.Point
	Size   image.Point
}

// Rect returns the rectangle covered by the sub-texture.
func (st SubTexture) Rect() image.Rectangle {
	return image.Rectangle{Min: st.Origin, Max: st.Origin.Add(st.Size)}
}

func (st SubTexture) String() string {
	return fmt.Sprintf("%s@(%d,%d)+(%d,%d)", st.Name, st.Origin.X, st.Origin.Y, st.Size.X, st.Size.Y)
}

// FlipY converts the y coordinate of a rectangle of the given height from a
// top-left origin to a bottom-left origin (and back) within a texture of
// height texHeight.
func FlipY(texHeight, y, height int) int {
	return texHeight - y - height
}

// Animation is a sequence of frames taken from one atlas.
type Animation struct {
	Name          string
	Atlas         *TexAtlas // not owned
	Frames        []string  // keys of sub-textures of Atlas
	FrameDuration time.Duration
}

// FrameCount returns the number of frames.
func (a *Animation) FrameCount() int {
	return len(a.Frames)
}

// Duration returns the length of one cycle of the animation.
func (a *Animation) Duration() time.Duration {
	return time.Duration(len(a.Frames)) * a.FrameDuration
}

// Frame returns frame i.
func (a *Animation) Frame(i int) (SubTexture, bool) {
	if i < 0 || i >= len(a.Frames) || a.Atlas == nil {
		return SubTexture{}, false
	}
	return a.Atlas.Region(a.Frames[i])
}

// FrameAt returns the index of the frame shown at time t after the start,
// with the animation looping.
func (a *Animation) FrameAt(t time.Duration) int {
	if len(a.Frames) == 0 {
		return -1
	}
	if a.FrameDuration <= 0 || t < 0 {
		return 0
	}
	return int(t/a.FrameDuration) % len(a.Frames)
}

// Shader is a shader program slot. Program stays 0 until a renderer has
// compiled and linked the sources.
type Shader struct {
	Name     string
	Vertex   []byte
	Fragment []byte
	Program  uint32
}

// Linked is true if a renderer has set a program handle.
func (sh *Shader) Linked() bool {
	return sh.Program != 0
}

// --- Audio -----------------------------------------------------------------

// AudioType is the container format of an audio clip.
type AudioType int8

// Audio types
const (
	AudioUnknown AudioType = iota
	AudioWAV
	AudioOGG
	AudioMP3
	AudioFLAC
)

func (t AudioType) String() string {
	switch t {
	case AudioWAV:
		return "wav"
	case AudioOGG:
		return "ogg"
	case AudioMP3:
		return "mp3"
	case AudioFLAC:
		return "flac"
	}
	return "unknown"
}

// AudioTypeOf derives an audio type from a file name's extension.
func AudioTypeOf(filename string) AudioType {
	switch strings.ToLower(path.Ext(filename)) {
	case ".wav", ".wave":
		return AudioWAV
	case ".ogg", ".oga":
		return AudioOGG
	case ".mp3":
		return AudioMP3
	case ".flac":
		return AudioFLAC
	}
	return AudioUnknown
}

// StreamInfo describes a decoded audio stream.
type StreamInfo struct {
	Channels   int
	SampleRate int   // samples per second
	Samples    int64 // per channel
}

// AudioStream is an opened audio payload.
type AudioStream interface {
	Info() StreamInfo
	// Decode fills buf with interleaved samples and returns the number of
	// samples written; io.EOF signals the end of the stream.
	Decode(buf []int16) (int, error)
}

// AudioDecoder opens audio payloads. No decoder is part of this module,
// applications hand one in.
type AudioDecoder interface {
	Open(data []byte) (AudioStream, error)
}

// AudioClip is an audio slot. It owns the raw bytes of the audio file;
// stream information is filled in if a decoder has opened it.
type AudioClip struct {
	Name       string
	Type       AudioType
	Data       []byte
	Stream     AudioStream // nil if not opened
	Channels   int
	SampleRate int
	Samples    int64
	Seconds    float64
}

// Attach sets the clip's stream and copies its stream information.
func (c *AudioClip) Attach(s AudioStream) {
	c.Stream = s
	if s == nil {
		return
	}
	info := s.Info()
	c.Channels, c.SampleRate, c.Samples = info.Channels, info.SampleRate, info.Samples
	if info.SampleRate > 0 {
		c.Seconds = float64(info.Samples) / float64(info.SampleRate)
	}
}

// --- Fonts -----------------------------------------------------------------

// CharMetrics are the metrics of a glyph in pixels at the font's scale.
type CharMetrics struct {
	Advance         float64
	LeftSideBearing float64
	Offset          image.Point // top-left of the glyph bitmap relative to the pen on the baseline
	Size            image.Point // glyph bitmap size
}

// Font is a bitmap font generated for a range of code-points, with its
// glyphs packed into the sheet of Atlas.
type Font struct {
	Name        string
	Lo, Hi      rune          // code-point range [Lo, Hi)
	Metrics     []CharMetrics // indexed by code-point - Lo
	Ascent      float64       // in pixels
	Descent     float64       // in pixels, negative
	LineGap     float64       // in pixels
	Cell        image.Point   // maximum glyph size
	Scale       float64       // font units to pixels
	PixelHeight float64
	Atlas       *TexAtlas // sheet of glyphs, keyed by character
}

// Covers is true if r is in the font's code-point range.
func (f *Font) Covers(r rune) bool {
	return r >= f.Lo && r < f.Hi
}

// Metric returns the metrics of code-point r.
func (f *Font) Metric(r rune) (CharMetrics, bool) {
	if !f.Covers(r) || int(r-f.Lo) >= len(f.Metrics) {
		return CharMetrics{}, false
	}
	return f.Metrics[r-f.Lo], true
}

// Glyph returns the sheet region of code-point r.
func (f *Font) Glyph(r rune) (SubTexture, bool) {
	if !f.Covers(r) || f.Atlas == nil {
		return SubTexture{}, false
	}
	return f.Atlas.Region(string(r))
}

// LineHeight returns the distance between two baselines in pixels.
func (f *Font) LineHeight() float64 {
	return f.Ascent - f.Descent + f.LineGap
}

// Advance returns the advance width of a string in pixels. Characters not
// covered by the font do not advance.
func (f *Font) Advance(s string) float64 {
	w := 0.0
	for _, r := range s {
		if m, ok := f.Metric(r); ok {
			w += m.Advance
		}
	}
	return w
}
