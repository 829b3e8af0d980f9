package sheet

import (
	"bytes"
	"image"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/assetpipe/core/config"
	"github.com/npillmayer/assetpipe/core/imaging"
	"github.com/npillmayer/assetpipe/core/locate/resources"
	"github.com/npillmayer/assetpipe/engine/asset"
	"github.com/npillmayer/assetpipe/input/descriptor"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayTexture(name string, w, h int) *asset.Texture {
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = byte(i)
	}
	return &asset.Texture{Name: name, Width: w, Height: h, Channels: 1, Pix: pix}
}

func testAtlas(t *testing.T) *asset.TexAtlas {
	atlas := asset.NewTexAtlas("sheet.png", grayTexture("sheet.png", 32, 32), 8)
	require.NoError(t, atlas.Add(asset.SubTexture{Name: "coin", Origin: image.Pt(8, 24), Size: image.Pt(8, 8)}))
	require.NoError(t, atlas.Add(asset.SubTexture{Name: "bomb", Origin: image.Pt(0, 0), Size: image.Pt(16, 16)}))
	require.NoError(t, atlas.Add(asset.SubTexture{Name: "arrow", Origin: image.Pt(16, 0), Size: image.Pt(4, 12)}))
	return atlas
}

func TestEncodePNG(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.catalog")
	defer teardown()
	//
	tex := grayTexture("g", 16, 8)
	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, tex))
	img, err := imaging.Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 16, img.Width)
	assert.Equal(t, 8, img.Height)
	rgba := img.RGBA()
	assert.Equal(t, uint8(17), rgba.NRGBAAt(1, 1).R)
	//
	err = EncodePNG(&buf, &asset.Texture{Name: "short", Width: 4, Height: 4, Channels: 4})
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestSavePNG(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.catalog")
	defer teardown()
	//
	out := filepath.Join(t.TempDir(), "g.png")
	require.NoError(t, SavePNG(out, grayTexture("g", 4, 4)))
	data, err := resources.DirReader{}.Read(out)
	require.NoError(t, err)
	img, err := imaging.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width)
}

func TestInventoryIsSorted(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.catalog")
	defer teardown()
	//
	atlas := testAtlas(t)
	assert.Equal(t, []interface{}{"arrow", "bomb", "coin"}, Inventory(atlas).Keys())
	var buf bytes.Buffer
	require.NoError(t, WriteInventory(&buf, atlas))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "arrow"))
	assert.Equal(t, []string{"coin", "8", "24", "8", "8"}, strings.Fields(lines[2]))
}

func TestDescriptorRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.catalog")
	defer teardown()
	//
	atlas := testAtlas(t)
	var desc, img bytes.Buffer
	require.NoError(t, WriteDescriptor(&desc, atlas))
	assert.Contains(t, desc.String(), `<SubTexture name="coin" x="8" y="0" width="8" height="8"/>`)
	require.NoError(t, EncodePNG(&img, atlas.Texture))
	fsys := fstest.MapFS{
		"sheet.xml": &fstest.MapFile{Data: desc.Bytes()},
		"sheet.png": &fstest.MapFile{Data: img.Bytes()},
	}
	cat, err := asset.NewCatalog(config.Default())
	require.NoError(t, err)
	ip := descriptor.New(cat, descriptor.WithReader(resources.FSReader{FS: fsys}))
	rep, err := ip.IngestFile("sheet.xml")
	require.NoError(t, err)
	assert.True(t, rep.OK(), rep.Problems)
	loaded, ok := cat.Atlas("sheet.png")
	require.True(t, ok)
	for _, name := range []string{"arrow", "bomb", "coin"} {
		want, _ := atlas.Region(name)
		got, ok := loaded.Region(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got)
	}
}

func TestCatalogListing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.catalog")
	defer teardown()
	//
	cat, err := asset.NewCatalog(config.Default())
	require.NoError(t, err)
	require.NoError(t, cat.Shaders.Put("water", &asset.Shader{Name: "water"}))
	require.NoError(t, cat.Shaders.Put("blur", &asset.Shader{Name: "blur"}))
	require.NoError(t, cat.Atlases.Put("sheet.png", testAtlas(t)))
	var buf bytes.Buffer
	require.NoError(t, WriteCatalog(&buf, cat))
	out := buf.String()
	assert.Contains(t, out, "shaders (2)\n    blur\n    water\n")
	assert.Contains(t, out, "atlases (1)\n    sheet.png\n")
	assert.True(t, strings.HasPrefix(out, "animations (0)"))
}
