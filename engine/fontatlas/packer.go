package fontatlas

import (
	"errors"
	"image"

	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/assetpipe/core/config"
	"github.com/npillmayer/assetpipe/core/font"
	"github.com/npillmayer/assetpipe/core/registry"
	"github.com/npillmayer/assetpipe/engine/asset"
	"github.com/npillmayer/schuko/tracing"
)

// ErrSheetTooSmall is returned if the glyphs of a code-point range do not
// fit onto the font sheet.
var ErrSheetTooSmall = errors.New("font sheet too small")

// DefaultAtlasName is the name of the sheet texture and atlas if no name
// is given.
const DefaultAtlasName = "font"

// Option configures packing.
type Option func(*options)

type options struct {
	name          string
	width, height int
	slack         int
	regOpts       []registry.Option
	trace         tracing.Trace
}

// WithSheetSize sets the size of the font sheet in pixels.
func WithSheetSize(width, height int) Option {
	return func(o *options) {
		o.width, o.height = width, height
	}
}

// WithSlack sets the number of pixels the cell height may exceed the
// requested pixel height before a packing inefficiency is traced.
func WithSlack(slack int) Option {
	return func(o *options) {
		o.slack = slack
	}
}

// WithName sets the name of the sheet texture and atlas.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithTracer routes trace output to t.
func WithTracer(t tracing.Trace) Option {
	return func(o *options) {
		o.trace = t
	}
}

// FromConfig takes sheet size, slack, hash seed and registry growth from conf.
func FromConfig(conf config.Config) Option {
	return func(o *options) {
		o.width, o.height = conf.FontSheetWidth, conf.FontSheetHeight
		o.slack = conf.PackingSlack
		o.regOpts = []registry.Option{
			registry.WithSeed(conf.Seed),
			registry.Growable(conf.Growable),
		}
	}
}

func collect(opts []Option) options {
	d := config.Default()
	o := options{
		name:   DefaultAtlasName,
		width:  d.FontSheetWidth,
		height: d.FontSheetHeight,
		slack:  d.PackingSlack,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.trace == nil {
		o.trace = tracer()
	}
	return o
}

// glyph is a transient RGBA glyph bitmap.
type glyph struct {
	pix  []byte
	w, h int
}

// PackingInefficient is true if a cell of height cellHeight wastes more than
// slack pixels for a font rendered at px pixels.
func PackingInefficient(cellHeight int, px float64, slack int) bool {
	return float64(cellHeight)-px > float64(slack)
}

// Build rasterizes the code-points [lo, hi) at a pixel height of px and
// packs them into a font sheet. The result holds the sheet as the texture of
// the font's atlas.
//
// If the glyphs do not fit onto the sheet, ErrSheetTooSmall is returned with
// error code ECONFIG. This is checked before the sheet is allocated.
func Build(r font.Rasterizer, lo, hi rune, px float64, opts ...Option) (*asset.Font, error) {
	o := collect(opts)
	if r == nil {
		return nil, core.Error(core.EINVALID, "font atlas needs a rasterizer")
	}
	if hi <= lo || lo < 0 {
		return nil, core.Error(core.EINVALID, "empty code-point range [%d,%d)", lo, hi)
	}
	if px <= 0 {
		return nil, core.Error(core.EINVALID, "pixel height must be positive, is %g", px)
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, core.Error(core.ECONFIG, "font sheet size %dx%d is not usable", o.width, o.height)
	}
	scale := r.ScaleForPixelHeight(px)
	ascent, descent, lineGap := r.VMetrics()
	n := int(hi - lo)
	f := &asset.Font{
		Name:        o.name,
		Lo:          lo,
		Hi:          hi,
		Metrics:     make([]asset.CharMetrics, n),
		Ascent:      float64(ascent) * scale,
		Descent:     float64(descent) * scale,
		LineGap:     float64(lineGap) * scale,
		Scale:       scale,
		PixelHeight: px,
	}
	glyphs := make([]glyph, n)
	cellW, cellH := 0, 0
	for i := 0; i < n; i++ {
		cp := lo + rune(i)
		bm, err := r.CodepointBitmap(scale, cp)
		if err != nil {
			return nil, core.WrapError(err, core.EDECODE, "cannot rasterize code-point %U", cp)
		}
		adv, lsb := r.HMetrics(cp)
		f.Metrics[i] = asset.CharMetrics{
			Advance:         float64(adv) * scale,
			LeftSideBearing: float64(lsb) * scale,
			Offset:          image.Pt(bm.XOff, bm.YOff),
			Size:            image.Pt(bm.Width, bm.Height),
		}
		glyphs[i] = expand(bm)
		if bm.Width > cellW {
			cellW = bm.Width
		}
		if bm.Height > cellH {
			cellH = bm.Height
		}
	}
	if cellW == 0 { // only blank glyphs
		cellW = 1
	}
	if cellH == 0 {
		cellH = 1
	}
	f.Cell = image.Pt(cellW, cellH)
	if PackingInefficient(cellH, px, o.slack) {
		o.trace.Infof("packing inefficiency: cell height %d exceeds pixel height %g by more than %d",
			cellH, px, o.slack)
	}
	perRow, perCol := o.width/cellW, o.height/cellH
	if n > perRow*perCol {
		o.trace.Errorf("%d glyphs with cell %dx%d do not fit onto a %dx%d sheet",
			n, cellW, cellH, o.width, o.height)
		return nil, core.WrapError(ErrSheetTooSmall, core.ECONFIG,
			"%d glyphs of %dx%d px do not fit onto a %dx%d font sheet (%d max)",
			n, cellW, cellH, o.width, o.height, perRow*perCol)
	}
	sheet := make([]byte, o.width*o.height*4)
	tex := &asset.Texture{Name: o.name, Width: o.width, Height: o.height, Channels: 4, Pix: sheet}
	f.Atlas = asset.NewTexAtlas(o.name, tex, n, o.regOpts...)
	stride := o.width * 4
	for group := 0; group*perRow < n; group++ {
		groupRow := group * cellH
		for line := 0; line < cellH; line++ {
			dst := (groupRow + line) * stride
			for col := 0; col < perRow; col++ {
				gi := group*perRow + col
				if gi >= n {
					break
				}
				if line == 0 {
					st := asset.SubTexture{
						Name:   string(lo + rune(gi)),
						Origin: image.Pt(col*cellW, groupRow),
						Size:   image.Pt(cellW, cellH),
					}
					if err := f.Atlas.Add(st); err != nil {
						return nil, err
					}
				}
				g := glyphs[gi]
				if line < g.h {
					copy(sheet[dst+col*cellW*4:], g.pix[line*g.w*4:(line+1)*g.w*4])
				}
			}
		}
	}
	o.trace.Debugf("packed %d glyphs at %gpx into %dx%d sheet, cell %dx%d, %d per row",
		n, px, o.width, o.height, cellW, cellH, perRow)
	return f, nil
}

// expand replicates the coverage of each pixel into all four channels.
func expand(bm font.Bitmap) glyph {
	g := glyph{w: bm.Width, h: bm.Height, pix: make([]byte, 4*bm.Width*bm.Height)}
	for i, c := range bm.Pix[:bm.Width*bm.Height] {
		g.pix[4*i], g.pix[4*i+1], g.pix[4*i+2], g.pix[4*i+3] = c, c, c, c
	}
	return g
}
