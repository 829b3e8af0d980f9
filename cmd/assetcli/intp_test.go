package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/assetpipe/backend/sheet"
	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/assetpipe/core/config"
	"github.com/npillmayer/assetpipe/engine/asset"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.cli")
	defer teardown()
	//
	cmd, err := parseCommand("  XPath  //SubTexture[@name = 'coin'] ")
	require.NoError(t, err)
	assert.Equal(t, XPATH, cmd.code)
	assert.Equal(t, []string{"//SubTexture[@name = 'coin']"}, cmd.args)
	cmd, err = parseCommand("export sheet.png  out.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"sheet.png", "out.png"}, cmd.args)
	_, err = parseCommand("export sheet.png")
	assert.Error(t, err)
	_, err = parseCommand("frobnicate")
	assert.Error(t, err)
	cmd, err = parseCommand("quit")
	require.NoError(t, err)
	quit, err := NewIntp(nil, &bytes.Buffer{}).execute(cmd)
	assert.NoError(t, err)
	assert.True(t, quit)
}

const sprites = `<TextureAtlas imagePath="sheet.png">
    <SubTexture name="coin" x="0" y="0" width="8" height="8"/>
    <SubTexture name="crate" x="8" y="0" width="8" height="8"/>
</TextureAtlas>
`

func loadedIntp(t *testing.T) (*Intp, *bytes.Buffer) {
	dir := t.TempDir()
	tex := &asset.Texture{Name: "sheet.png", Width: 16, Height: 16, Channels: 1, Pix: make([]byte, 256)}
	f, err := os.Create(filepath.Join(dir, "sheet.png"))
	require.NoError(t, err)
	require.NoError(t, sheet.EncodePNG(f, tex))
	require.NoError(t, f.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sprites.xml"), []byte(sprites), 0644))
	cat, err := asset.NewCatalog(config.Default())
	require.NoError(t, err)
	out := &bytes.Buffer{}
	intp := NewIntp(cat, out)
	require.NoError(t, intp.load(filepath.Join(dir, "sprites.xml")))
	return intp, out
}

func run(t *testing.T, intp *Intp, line string) error {
	cmd, err := parseCommand(line)
	require.NoError(t, err)
	_, err = intp.execute(cmd)
	return err
}

func TestLoadAndQuery(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.cli")
	defer teardown()
	//
	intp, out := loadedIntp(t)
	defer intp.free()
	atlas, ok := intp.cat.Atlas("sheet.png")
	require.True(t, ok)
	assert.Equal(t, 2, atlas.Len())
	//
	require.NoError(t, run(t, intp, "xpath //SubTexture[@name='crate']"))
	assert.Contains(t, out.String(), `<SubTexture name="crate"`)
	assert.Contains(t, out.String(), "1 node(s)")
	out.Reset()
	require.NoError(t, run(t, intp, "select textureatlas > subtexture"))
	assert.Contains(t, out.String(), "2 node(s)")
	out.Reset()
	require.NoError(t, run(t, intp, "eval count(//SubTexture)"))
	assert.Equal(t, "2\n", out.String())
	out.Reset()
	require.NoError(t, run(t, intp, "atlas sheet.png c"))
	assert.Equal(t, "coin@(0,8)+(8,8)\ncrate@(8,8)+(8,8)\n", out.String())
}

func TestCatalogCommands(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.cli")
	defer teardown()
	//
	intp, out := loadedIntp(t)
	require.NoError(t, run(t, intp, "list"))
	assert.Contains(t, out.String(), "atlases (1)\n    sheet.png\n")
	out.Reset()
	require.NoError(t, run(t, intp, "describe sheet.png"))
	assert.Contains(t, out.String(), `<SubTexture name="coin" x="0" y="0" width="8" height="8"/>`)
	err := run(t, intp, "atlas nosuch.png")
	assert.Equal(t, core.EMISSING, core.Code(err))
	//
	png := filepath.Join(t.TempDir(), "export.png")
	require.NoError(t, run(t, intp, "export sheet.png "+png))
	_, err = os.Stat(png)
	assert.NoError(t, err)
	//
	require.NoError(t, run(t, intp, "reset"))
	assert.Nil(t, intp.doc)
	assert.Equal(t, 0, intp.cat.Atlases.Len())
	assert.Error(t, run(t, intp, "render"))
}

func TestFontCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.cli")
	defer teardown()
	//
	cat, err := asset.NewCatalog(config.Default())
	require.NoError(t, err)
	intp := NewIntp(cat, &bytes.Buffer{})
	require.NoError(t, run(t, intp, "font digits 16 fallback 48 57"))
	f, ok := cat.Font("digits")
	require.True(t, ok)
	assert.True(t, f.Covers('0'))
	assert.True(t, f.Covers('9'))
	assert.False(t, f.Covers('A'))
	err = run(t, intp, "font digits -2")
	assert.Equal(t, core.EINVALID, core.Code(err))
}
