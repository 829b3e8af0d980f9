package font

import (
	"image"

	"github.com/npillmayer/assetpipe/core"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Bitmap is a single-channel coverage bitmap of a glyph. XOff and YOff
// locate the bitmap's top left corner relative to the pen position on the
// baseline (y grows downwards, so YOff is negative for glyphs above the
// baseline).
type Bitmap struct {
	Pix           []byte // Height rows of Width bytes
	Width, Height int
	XOff, YOff    int
}

// Rasterizer renders glyphs of one scalable font.
type Rasterizer interface {
	// ScaleForPixelHeight returns the factor mapping font units to pixels
	// such that ascent-descent spans px pixels.
	ScaleForPixelHeight(px float64) float64
	// VMetrics returns ascent, descent (negative) and line gap in font units.
	VMetrics() (ascent, descent, lineGap int)
	// HMetrics returns the advance width and left side bearing of a
	// code-point in font units.
	HMetrics(cp rune) (advance, leftSideBearing int)
	// CodepointBitmap renders a code-point at a given scale.
	CodepointBitmap(scale float64, cp rune) (Bitmap, error)
}

// SFNTRasterizer is a Rasterizer for TrueType/OpenType fonts, based on
// golang.org/x/image/font/sfnt and opentype.
type SFNTRasterizer struct {
	font  *ScalableFont
	buf   sfnt.Buffer
	upem  int
	faces map[float64]xfont.Face // faces per scale
}

var _ Rasterizer = &SFNTRasterizer{}

// NewRasterizer creates a rasterizer for f.
func NewRasterizer(f *ScalableFont) (*SFNTRasterizer, error) {
	if f == nil || f.SFNT == nil {
		return nil, core.Error(core.EINVALID, "rasterizer needs a parsed font")
	}
	return &SFNTRasterizer{
		font:  f,
		upem:  int(f.SFNT.UnitsPerEm()),
		faces: make(map[float64]xfont.Face),
	}, nil
}

// Font returns the font the rasterizer renders.
func (r *SFNTRasterizer) Font() *ScalableFont {
	return r.font
}

// UnitsPerEm returns the font's design units per em.
func (r *SFNTRasterizer) UnitsPerEm() int {
	return r.upem
}

// unitsPPEM is the ppem at which sfnt reports values in font units.
func (r *SFNTRasterizer) unitsPPEM() fixed.Int26_6 {
	return fixed.I(r.upem)
}

// VMetrics returns ascent, descent and line gap in font units. Descent is
// negative.
func (r *SFNTRasterizer) VMetrics() (ascent, descent, lineGap int) {
	m, err := r.font.SFNT.Metrics(&r.buf, r.unitsPPEM(), xfont.HintingNone)
	if err != nil {
		tracer().Errorf("cannot read vertical metrics of %s: %v", r.font.Fontname, err)
		return 0, 0, 0
	}
	ascent = m.Ascent.Round()
	descent = -m.Descent.Round()
	lineGap = m.Height.Round() - ascent + descent
	return
}

// ScaleForPixelHeight returns px / (ascent - descent).
func (r *SFNTRasterizer) ScaleForPixelHeight(px float64) float64 {
	ascent, descent, _ := r.VMetrics()
	if ascent-descent == 0 {
		return 0
	}
	return px / float64(ascent-descent)
}

// HMetrics returns advance and left side bearing of cp in font units.
func (r *SFNTRasterizer) HMetrics(cp rune) (advance, leftSideBearing int) {
	gid, err := r.font.SFNT.GlyphIndex(&r.buf, cp)
	if err != nil {
		tracer().Errorf("no glyph index for %q: %v", cp, err)
		return 0, 0
	}
	bounds, adv, err := r.font.SFNT.GlyphBounds(&r.buf, gid, r.unitsPPEM(), xfont.HintingNone)
	if err != nil {
		tracer().Errorf("no glyph bounds for %q: %v", cp, err)
		return 0, 0
	}
	return adv.Round(), bounds.Min.X.Round()
}

// CodepointBitmap renders cp at scale. Code-points without outline (e.g.,
// space) produce an empty bitmap.
func (r *SFNTRasterizer) CodepointBitmap(scale float64, cp rune) (Bitmap, error) {
	face, err := r.face(scale)
	if err != nil {
		return Bitmap{}, err
	}
	dr, mask, maskp, _, ok := face.Glyph(fixed.Point26_6{}, cp)
	if !ok {
		tracer().Infof("font %s cannot render code-point %q", r.font.Fontname, cp)
		return Bitmap{}, nil
	}
	bm := Bitmap{
		Width:  dr.Dx(),
		Height: dr.Dy(),
		XOff:   dr.Min.X,
		YOff:   dr.Min.Y,
	}
	if bm.Width <= 0 || bm.Height <= 0 {
		return Bitmap{XOff: dr.Min.X, YOff: dr.Min.Y}, nil
	}
	bm.Pix = make([]byte, bm.Width*bm.Height)
	if alpha, isAlpha := mask.(*image.Alpha); isAlpha {
		for y := 0; y < bm.Height; y++ {
			off := alpha.PixOffset(maskp.X, maskp.Y+y)
			copy(bm.Pix[y*bm.Width:(y+1)*bm.Width], alpha.Pix[off:off+bm.Width])
		}
		return bm, nil
	}
	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			_, _, _, a := mask.At(maskp.X+x, maskp.Y+y).RGBA()
			bm.Pix[y*bm.Width+x] = byte(a >> 8)
		}
	}
	return bm, nil
}

func (r *SFNTRasterizer) face(scale float64) (xfont.Face, error) {
	if face, ok := r.faces[scale]; ok {
		return face, nil
	}
	ppem := scale * float64(r.upem)
	face, err := opentype.NewFace(r.font.SFNT, &opentype.FaceOptions{
		Size:    ppem, // at 72 DPI points are pixels
		DPI:     72,
		Hinting: xfont.HintingNone,
	})
	if err != nil {
		return nil, core.WrapError(err, core.EDECODE, "cannot create face for %s at %.2f px/em",
			r.font.Fontname, ppem)
	}
	tracer().Debugf("created face for %s at %.2f px/em", r.font.Fontname, ppem)
	r.faces[scale] = face
	return face, nil
}

// Close releases the faces created by the rasterizer.
func (r *SFNTRasterizer) Close() error {
	for k, face := range r.faces {
		face.Close()
		delete(r.faces, k)
	}
	return nil
}
