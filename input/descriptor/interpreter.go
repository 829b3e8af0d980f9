package descriptor

import (
	"errors"
	"fmt"
	"image"
	"path"
	"strings"
	"time"

	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/assetpipe/core/font"
	"github.com/npillmayer/assetpipe/core/font/fontregistry"
	"github.com/npillmayer/assetpipe/core/imaging"
	"github.com/npillmayer/assetpipe/core/locate/resources"
	"github.com/npillmayer/assetpipe/engine/asset"
	"github.com/npillmayer/assetpipe/engine/fontatlas"
	"github.com/npillmayer/assetpipe/input/markup"
	"github.com/npillmayer/schuko/tracing"
)

// DefaultFrameDuration is used for animations without a duration attribute.
const DefaultFrameDuration = 100 * time.Millisecond

// Default code-point range of fonts, first and last inclusive.
const (
	DefaultFirstCodepoint = 32
	DefaultLastCodepoint  = 126
)

// Interpreter ingests descriptor documents into a catalog.
type Interpreter struct {
	cat     *asset.Catalog
	reader  resources.Reader
	decoder imaging.Decoder
	fonts   *fontregistry.Registry
	strict  bool
	trace   tracing.Trace
}

// Option configures an interpreter.
type Option func(*Interpreter)

// WithReader sets the reader for image, shader, sound and font files.
// The default reads from the current directory.
func WithReader(r resources.Reader) Option {
	return func(ip *Interpreter) {
		ip.reader = r
	}
}

// WithImageDecoder sets the image decoder. The default is imaging.Default.
func WithImageDecoder(dec imaging.Decoder) Option {
	return func(ip *Interpreter) {
		ip.decoder = dec
	}
}

// Strict makes Ingest return an error if any problem has been reported.
// The default is taken from the catalog's configuration.
func Strict(strict bool) Option {
	return func(ip *Interpreter) {
		ip.strict = strict
	}
}

// WithFontRegistry sets the registry which caches parsed font files. The
// default is fontregistry.GlobalRegistry().
func WithFontRegistry(fr *fontregistry.Registry) Option {
	return func(ip *Interpreter) {
		ip.fonts = fr
	}
}

// WithTracer routes trace output to t.
func WithTracer(t tracing.Trace) Option {
	return func(ip *Interpreter) {
		ip.trace = t
	}
}

// New creates an interpreter filling cat.
func New(cat *asset.Catalog, opts ...Option) *Interpreter {
	ip := &Interpreter{
		cat:     cat,
		reader:  resources.DirReader{Base: "."},
		decoder: imaging.Default,
		strict:  cat.Config.Strict,
	}
	for _, opt := range opts {
		opt(ip)
	}
	if ip.trace == nil {
		ip.trace = tracer()
	}
	if ip.fonts == nil {
		ip.fonts = fontregistry.GlobalRegistry()
	}
	return ip
}

// Report lists what an ingestion has added to the catalog and the problems
// found on the way.
type Report struct {
	Atlases     []string
	SubTextures int
	Animations  []string
	Shaders     []string
	Sounds      []string
	Fonts       []string
	Problems    []error
}

// OK is true if no problem has been reported.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

func (r *Report) String() string {
	return fmt.Sprintf("%d atlases, %d sub-textures, %d animations, %d shaders, %d sounds, %d fonts, %d problems",
		len(r.Atlases), r.SubTextures, len(r.Animations), len(r.Shaders), len(r.Sounds),
		len(r.Fonts), len(r.Problems))
}

// session is the state of one ingestion.
type session struct {
	*Interpreter
	doc    *markup.Document
	base   string // directory of the descriptor file, for relative paths
	report *Report
	failed []error
}

// IngestFile reads a descriptor file with the interpreter's reader, parses
// and ingests it. Files referenced by the descriptor are resolved relative
// to the descriptor's directory. The parse tree is freed afterwards.
func (ip *Interpreter) IngestFile(name string) (*Report, error) {
	data, err := ip.reader.Read(name)
	if err != nil {
		return nil, err
	}
	doc, err := markup.Parse(data, markup.WithTracer(ip.trace))
	if err != nil {
		return nil, err
	}
	defer doc.Free()
	dir := path.Dir(strings.ReplaceAll(name, "\\", "/"))
	if dir == "." {
		dir = ""
	}
	return ip.ingest(doc, dir)
}

// Ingest interprets a document. Structural problems of the document are
// part of the report.
//
// The returned error joins the read and decode failures, each of which has
// aborted one asset. In strict mode reported problems are returned as an
// error as well.
func (ip *Interpreter) Ingest(doc *markup.Document) (*Report, error) {
	return ip.ingest(doc, "")
}

func (ip *Interpreter) ingest(doc *markup.Document, base string) (*Report, error) {
	s := &session{Interpreter: ip, doc: doc, base: base, report: &Report{}}
	s.report.Problems = append(s.report.Problems, doc.Problems()...)
	var deferred []*element
	var collect func(id markup.NodeID)
	collect = func(id markup.NodeID) {
		for c := doc.FirstChild(id); c != markup.InvalidNode; c = doc.NextSibling(c) {
			e := s.resolve(c)
			switch e.kind {
			case elemAssets:
				collect(c)
			case elemAnimation: // after all atlases are known
				deferred = append(deferred, e)
			default:
				s.topLevel(e)
			}
		}
	}
	collect(markup.RootID)
	for _, e := range deferred {
		s.animation(e)
	}
	ip.trace.Infof("ingested: %s", s.report)
	err := errors.Join(s.failed...)
	if ip.strict && !s.report.OK() {
		err = errors.Join(err, core.WrapError(s.report.Problems[0], core.EINVALID,
			"descriptor has %d problems", len(s.report.Problems)))
	}
	return s.report, err
}

// problem reports a recoverable problem. err carries the error code; if it
// is nil, EINVALID is used.
func (s *session) problem(e *element, err error, format string, v ...interface{}) {
	msg := fmt.Sprintf("<%s> at offset %d: %s", e.name, e.pos, fmt.Sprintf(format, v...))
	code := core.EINVALID
	if err != nil {
		code = core.Code(err)
	}
	p := core.WrapError(err, code, "%s", msg)
	s.trace.Infof("descriptor: %v", p)
	s.report.Problems = append(s.report.Problems, p)
}

// fail records a failure which aborts an asset.
func (s *session) fail(e *element, err error) {
	s.trace.Errorf("descriptor: <%s> at offset %d: %v", e.name, e.pos, err)
	s.failed = append(s.failed, err)
}

func (s *session) path(p string) string {
	if s.base == "" || path.IsAbs(p) {
		return p
	}
	return path.Join(s.base, p)
}

func (s *session) require(e *element, kinds ...attrKind) bool {
	ok := true
	for _, k := range kinds {
		if v, has := e.attr(k); !has || v == "" {
			s.problem(e, nil, "missing attribute %s", k)
			ok = false
		}
	}
	return ok
}

func (s *session) integer(e *element, k attrKind) (int, bool) {
	v, has := e.attr(k)
	if !has {
		s.problem(e, nil, "missing attribute %s", k)
		return BadInt, false
	}
	n, ok := parseInt(v)
	if !ok {
		s.problem(e, nil, "attribute %s: %q is not an integer", k, v)
	}
	return n, ok
}

// resolve resolves an element, tracing the attributes which do not apply
// to any element.
func (s *session) resolve(id markup.NodeID) *element {
	e := resolve(s.doc, id)
	for _, a := range e.other {
		s.trace.Debugf("descriptor: <%s> at offset %d: attribute %s ignored", e.name, e.pos, a.Name)
	}
	return e
}

func (s *session) topLevel(e *element) {
	switch e.kind {
	case elemTextureAtlas:
		s.textureAtlas(e)
	case elemShader:
		s.shader(e)
	case elemSound:
		s.sound(e)
	case elemFont:
		s.font(e)
	case elemSubTexture, elemFrame:
		s.problem(e, nil, "element outside of its parent")
	default:
		s.problem(e, nil, "unknown element")
	}
}

// --- Atlases ---------------------------------------------------------------

func (s *session) textureAtlas(e *element) {
	if !s.require(e, attrImagePath) {
		return
	}
	key, _ := e.attr(attrImagePath)
	if s.cat.Atlases.Contains(key) {
		s.problem(e, core.ErrorWithCode(nil, core.ECOLLISION), "atlas %q already present", key)
		return
	}
	tex, shared := s.cat.Texture(key)
	if !shared {
		data, err := s.reader.Read(s.path(key))
		if err != nil {
			s.fail(e, err)
			return
		}
		img, err := s.decoder.Decode(data)
		if err != nil {
			s.fail(e, core.WrapError(err, core.EDECODE, "image %s: %v", key, err))
			return
		}
		tex = asset.NewTexture(key, img)
		if err = s.cat.Textures.Put(key, tex); err != nil {
			s.problem(e, err, "cannot register texture %q", key)
			return
		}
	}
	atlas := s.cat.NewAtlas(key, tex)
	if err := s.cat.Atlases.Put(key, atlas); err != nil {
		if !shared {
			s.cat.Textures.Remove(key)
		}
		s.problem(e, err, "cannot register atlas %q", key)
		return
	}
	s.report.Atlases = append(s.report.Atlases, key)
	for c := s.doc.FirstChild(e.id); c != markup.InvalidNode; c = s.doc.NextSibling(c) {
		child := s.resolve(c)
		if child.kind != elemSubTexture {
			s.problem(child, nil, "not allowed in <%s>", e.name)
			continue
		}
		s.subTexture(child, atlas)
	}
	s.trace.Debugf("atlas %s: %d sub-textures", key, atlas.Len())
}

func (s *session) subTexture(e *element, atlas *asset.TexAtlas) {
	ok := s.require(e, attrName)
	name, _ := e.attr(attrName)
	var r [4]int
	for i, k := range []attrKind{attrX, attrY, attrWidth, attrHeight} {
		n, good := s.integer(e, k)
		r[i], ok = n, ok && good
	}
	if !ok {
		return
	}
	x, y, w, h := r[0], r[1], r[2], r[3]
	tex := atlas.Texture
	if w <= 0 || h <= 0 || x < 0 || y < 0 || x+w > tex.Width || y+h > tex.Height {
		s.problem(e, nil, "rectangle (%d,%d)+(%d,%d) outside of %dx%d texture", x, y, w, h,
			tex.Width, tex.Height)
		return
	}
	st := asset.SubTexture{
		Name:   name,
		Origin: image.Pt(x, asset.FlipY(tex.Height, y, h)),
		Size:   image.Pt(w, h),
	}
	if err := atlas.Add(st); err != nil {
		s.problem(e, err, "cannot register sub-texture %q", name)
		return
	}
	s.report.SubTextures++
}

// --- Animations ------------------------------------------------------------

func (s *session) animation(e *element) {
	if !s.require(e, attrName, attrAtlas) {
		return
	}
	name, _ := e.attr(attrName)
	atlasKey, _ := e.attr(attrAtlas)
	atlas, ok := s.cat.Atlas(atlasKey)
	if !ok {
		s.problem(e, core.ErrorWithCode(nil, core.EMISSING), "no atlas %q", atlasKey)
		return
	}
	frameDuration := DefaultFrameDuration
	if _, has := e.attr(attrDuration); has {
		ms, good := s.integer(e, attrDuration)
		if !good {
			return
		}
		if ms < 0 {
			s.problem(e, nil, "negative duration %d", ms)
			return
		}
		frameDuration = time.Duration(ms) * time.Millisecond
	}
	var frames []string
	for c := s.doc.FirstChild(e.id); c != markup.InvalidNode; c = s.doc.NextSibling(c) {
		child := s.resolve(c)
		if child.kind != elemFrame {
			s.problem(child, nil, "not allowed in <%s>", e.name)
			continue
		}
		if !s.require(child, attrName) {
			continue
		}
		key, _ := child.attr(attrName)
		if _, ok := atlas.Region(key); !ok {
			s.problem(child, core.ErrorWithCode(nil, core.EMISSING), "atlas %q has no frame %q", atlasKey, key)
			continue
		}
		frames = append(frames, key)
	}
	if s.doc.FirstChild(e.id) == markup.InvalidNode {
		prefix, has := e.attr(attrPrefix)
		if !has {
			prefix = name
		}
		frames = atlas.WithPrefix(prefix)
	}
	if len(frames) == 0 {
		s.problem(e, nil, "animation %q has no frames", name)
		return
	}
	anim := &asset.Animation{Name: name, Atlas: atlas, Frames: frames, FrameDuration: frameDuration}
	if err := s.cat.Animations.Put(name, anim); err != nil {
		s.problem(e, err, "cannot register animation %q", name)
		return
	}
	s.report.Animations = append(s.report.Animations, name)
}

// --- Shaders and sounds ----------------------------------------------------

func (s *session) shader(e *element) {
	if !s.require(e, attrName, attrVertex, attrFragment) {
		return
	}
	name, _ := e.attr(attrName)
	if s.cat.Shaders.Contains(name) {
		s.problem(e, core.ErrorWithCode(nil, core.ECOLLISION), "shader %q already present", name)
		return
	}
	vpath, _ := e.attr(attrVertex)
	fpath, _ := e.attr(attrFragment)
	vsrc, err := s.reader.Read(s.path(vpath))
	if err != nil {
		s.fail(e, err)
		return
	}
	fsrc, err := s.reader.Read(s.path(fpath))
	if err != nil {
		s.fail(e, err)
		return
	}
	if err = s.cat.Shaders.Put(name, &asset.Shader{Name: name, Vertex: vsrc, Fragment: fsrc}); err != nil {
		s.problem(e, err, "cannot register shader %q", name)
		return
	}
	s.report.Shaders = append(s.report.Shaders, name)
}

func (s *session) sound(e *element) {
	if !s.require(e, attrName, attrPath) {
		return
	}
	name, _ := e.attr(attrName)
	if s.cat.Audio.Contains(name) {
		s.problem(e, core.ErrorWithCode(nil, core.ECOLLISION), "sound %q already present", name)
		return
	}
	p, _ := e.attr(attrPath)
	data, err := s.reader.Read(s.path(p))
	if err != nil {
		s.fail(e, err)
		return
	}
	clip := &asset.AudioClip{Name: name, Type: asset.AudioTypeOf(p), Data: data}
	if err = s.cat.OpenAudio(clip); err != nil {
		s.fail(e, core.WrapError(err, core.EDECODE, "sound %s: %v", name, err))
		return
	}
	if err = s.cat.Audio.Put(name, clip); err != nil {
		s.problem(e, err, "cannot register sound %q", name)
		return
	}
	s.report.Sounds = append(s.report.Sounds, name)
}

// --- Fonts -----------------------------------------------------------------

func (s *session) font(e *element) {
	if !s.require(e, attrName) {
		return
	}
	name, _ := e.attr(attrName)
	px, ok := s.integer(e, attrSize)
	if !ok {
		return
	}
	first, last := DefaultFirstCodepoint, DefaultLastCodepoint
	if _, has := e.attr(attrFirst); has {
		if first, ok = s.integer(e, attrFirst); !ok {
			return
		}
	}
	if _, has := e.attr(attrLast); has {
		if last, ok = s.integer(e, attrLast); !ok {
			return
		}
	}
	if px <= 0 || first < 0 || last < first {
		s.problem(e, nil, "size %d with code-points %d…%d is not usable", px, first, last)
		return
	}
	sf, err := s.scalableFont(e)
	if err != nil {
		s.fail(e, err)
		return
	}
	_, err = fontatlas.BuildFromFont(s.cat, name, sf, rune(first), rune(last+1), float64(px))
	switch core.Code(err) {
	case core.NOERROR:
		s.report.Fonts = append(s.report.Fonts, name)
	case core.ECOLLISION, core.ECAPACITY:
		s.problem(e, err, "cannot register font %q", name)
	default:
		s.fail(e, err)
	}
}

// scalableFont loads the font file given by attribute path with the reader.
// Paths which cannot be read are looked up as system fonts. Without a path
// the fallback font is used.
func (s *session) scalableFont(e *element) (*font.ScalableFont, error) {
	p, has := e.attr(attrPath)
	if !has || p == "" || p == resources.FallbackFontName {
		return font.FallbackFont(), nil
	}
	fontfile := s.path(p)
	return s.fonts.Load(fontfile, func() (*font.ScalableFont, error) {
		data, err := s.reader.Read(fontfile)
		if err != nil {
			s.trace.Debugf("font %s not readable, looking for a system font", p)
			return resources.FindFont(p)
		}
		sf, err := font.ParseOpenTypeFont(data)
		if err != nil {
			return nil, err
		}
		sf.Fontname = path.Base(p)
		sf.Filepath = fontfile
		return sf, nil
	})
}
