package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePNG(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.resources")
	defer teardown()
	//
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 3, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, 4, img.Channels)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, []byte{10, 20, 30, 40}, img.Pix[4:8])
}

func TestDecodeGray(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.resources")
	defer teardown()
	//
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.SetGray(1, 1, color.Gray{Y: 200})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	img, err := Default.Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, img.Channels)
	assert.Equal(t, []byte{0, 0, 0, 200}, img.Pix)
	rgba := img.RGBA()
	assert.Equal(t, color.NRGBA{200, 200, 200, 255}, rgba.NRGBAAt(1, 1))
}

func TestDecodeGarbage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.resources")
	defer teardown()
	//
	_, err := Decode([]byte("definitely not an image"))
	assert.Error(t, err)
	assert.Equal(t, core.EDECODE, core.Code(err))
}
