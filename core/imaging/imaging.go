/*
Package imaging decodes image files into plain pixel buffers.

Decoding is delegated to the standard image decoders and to the decoders of
golang.org/x/image (BMP, TIFF, WebP), which register themselves with package
image. Callers get an Image with a channel count telling its pixel format:

    1  gray
    2  gray + alpha
    3  RGB
    4  RGBA (non-premultiplied)

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/schuko/tracing"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// tracer traces with key 'assets.resources'.
func tracer() tracing.Trace {
	return tracing.Select("assets.resources")
}

// Image is a decoded image. Pix holds Height rows of Width*Channels bytes,
// top row first.
type Image struct {
	Width, Height int
	Channels      int
	Format        string // name of the decoder which accepted the payload
	Pix           []byte
}

// Decoder decodes an encoded image.
type Decoder interface {
	Decode(data []byte) (Image, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) (Image, error)

// Decode calls f(data).
func (f DecoderFunc) Decode(data []byte) (Image, error) {
	return f(data)
}

// Default is the decoder backed by the registered image formats.
var Default Decoder = DecoderFunc(Decode)

// Decode decodes data with any registered image format. Errors carry code
// EDECODE and the decoder's message.
func Decode(data []byte) (Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		tracer().Errorf("image decoding failed: %v", err)
		return Image{}, core.WrapError(err, core.EDECODE, "cannot decode image: %v", err)
	}
	decoded := FromImage(img)
	decoded.Format = format
	tracer().Debugf("decoded %s image %dx%d, %d channels", format,
		decoded.Width, decoded.Height, decoded.Channels)
	return decoded, nil
}

// FromImage converts an image.Image into a pixel buffer. 8-bit gray images
// keep one channel, JPEG (YCbCr) images get 3 channels, everything else is
// converted to non-premultiplied RGBA.
func FromImage(img image.Image) Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch m := img.(type) {
	case *image.Gray:
		pix := make([]byte, 0, w*h)
		for y := 0; y < h; y++ {
			off := m.PixOffset(b.Min.X, b.Min.Y+y)
			pix = append(pix, m.Pix[off:off+w]...)
		}
		return Image{Width: w, Height: h, Channels: 1, Pix: pix}
	case *image.YCbCr:
		pix := make([]byte, 0, w*h*3)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.RGBAModel.Convert(m.At(x, y)).(color.RGBA)
				pix = append(pix, c.R, c.G, c.B)
			}
		}
		return Image{Width: w, Height: h, Channels: 3, Pix: pix}
	}
	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	return Image{Width: w, Height: h, Channels: 4, Pix: nrgba.Pix}
}

// RGBA returns the image expanded to 4 channels.
func (img Image) RGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	n := img.Width * img.Height
	for i := 0; i < n; i++ {
		d := out.Pix[4*i : 4*i+4]
		switch img.Channels {
		case 1:
			v := img.Pix[i]
			d[0], d[1], d[2], d[3] = v, v, v, 0xff
		case 2:
			v := img.Pix[2*i]
			d[0], d[1], d[2], d[3] = v, v, v, img.Pix[2*i+1]
		case 3:
			copy(d, img.Pix[3*i:3*i+3])
			d[3] = 0xff
		case 4:
			copy(d, img.Pix[4*i:4*i+4])
		}
	}
	return out
}
