package markup

import (
	"bytes"
	"testing"

	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/assetpipe/core/arena"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const sheet = `<?xml version="1.0" encoding="UTF-8"?>
<!-- Created with an atlas packer -->
<TextureAtlas imagePath="sheet.png" width="64" height="64">
    <SubTexture name="A" x="0" y="0" width="16" height="16"/>
    <SubTexture name="B" x="16" y="0" width="16" height="16"/>
</TextureAtlas>
`

func kinds(ts *TokenStream) []Kind {
	var k []Kind
	for _, t := range ts.Tokens() {
		k = append(k, t.Kind)
	}
	return k
}

func TestTokenize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	ts := Tokenize([]byte(`<Shader name="blur" vertex="v.glsl"/>`))
	defer ts.Free()
	assert.Equal(t, []Kind{OpenMarker, Name, Name, Equals, Value, Name, Equals, Value,
		SelfCloseMarker, CloseMarker}, kinds(ts))
	assert.Equal(t, "Shader", string(ts.At(1).Text))
	assert.Equal(t, "blur", string(ts.At(4).Text))
	assert.Equal(t, "v.glsl", string(ts.At(7).Text))
	assert.Equal(t, 1, ts.At(1).Pos)
	assert.Empty(t, ts.Problems())
}

func TestTokenizeSkipsSpecials(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	ts := Tokenize([]byte(`<?xml version="1.0"?><!DOCTYPE x><!-- <a/> --><b/>`))
	defer ts.Free()
	assert.Equal(t, []Kind{OpenMarker, Name, SelfCloseMarker, CloseMarker}, kinds(ts))
	assert.Equal(t, "b", string(ts.At(1).Text))
}

func TestTokenizeValues(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	ts := Tokenize([]byte(`<a empty="" 4711 name="x`))
	defer ts.Free()
	assert.Equal(t, []Kind{OpenMarker, Name, Name, Equals, Value, Name, Equals, Value}, kinds(ts))
	assert.NotNil(t, ts.At(4).Text)
	assert.Equal(t, "", string(ts.At(4).Text))
	assert.Equal(t, "x", string(ts.At(7).Text))
	require.Len(t, ts.Problems(), 1)
	assert.Equal(t, core.ESTRUCTURE, core.Code(ts.Problems()[0]))
}

func TestBuildAtlas(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	doc, err := Parse([]byte(sheet))
	require.NoError(t, err)
	defer doc.Free()
	assert.Empty(t, doc.Problems())
	assert.NoError(t, doc.Err())
	top := doc.Children(doc.Root())
	require.Len(t, top, 1)
	atlas := top[0]
	assert.Equal(t, "TextureAtlas", doc.Name(atlas))
	path, ok := doc.Attr(atlas, "imagePath")
	assert.True(t, ok)
	assert.Equal(t, "sheet.png", path)
	_, ok = doc.Attr(atlas, "imagepath")
	assert.False(t, ok, "attribute names are case-sensitive")
	subs := doc.Children(atlas)
	require.Len(t, subs, 2)
	assert.Equal(t, subs[1], doc.NextSibling(subs[0]))
	assert.Equal(t, InvalidNode, doc.NextSibling(subs[1]))
	assert.Equal(t, subs[0], doc.PrevSibling(subs[1]))
	assert.Equal(t, atlas, doc.Parent(subs[1]))
	assert.Equal(t, []Attr{
		{"name", "B"}, {"x", "16"}, {"y", "0"}, {"width", "16"}, {"height", "16"},
	}, doc.Attrs(subs[1]))
	assert.Equal(t, 5, doc.NumAttrs(subs[0]))
}

func TestTagBalance(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	doc, err := Parse([]byte(sheet))
	require.NoError(t, err)
	defer doc.Free()
	count := 0
	doc.Walk(func(id NodeID, depth int) bool {
		count++
		assert.True(t, doc.IsClosed(id), "element %s closed", doc.Name(id))
		return true
	})
	assert.Equal(t, 3, count)
	assert.True(t, doc.IsClosed(doc.Root()))
}

func TestMismatchedClose(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	doc, err := Parse([]byte(`<a><b><c/></a><d/>`))
	require.NoError(t, err)
	defer doc.Free()
	require.Len(t, doc.Problems(), 1)
	assert.Equal(t, core.ESTRUCTURE, core.Code(doc.Problems()[0]))
	top := doc.Children(RootID)
	require.Len(t, top, 2, "</a> returns to the root")
	a, d := top[0], top[1]
	assert.True(t, doc.IsClosed(a))
	assert.Equal(t, "d", doc.Name(d))
	b := doc.FirstChild(a)
	assert.Equal(t, "b", doc.Name(b))
	assert.False(t, doc.IsClosed(b))
	assert.True(t, doc.IsClosed(doc.FirstChild(b)))
}

func TestUnmatchedClose(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	doc, err := Parse([]byte(`<a></x><b/></a>`))
	require.NoError(t, err)
	defer doc.Free()
	require.Len(t, doc.Problems(), 1)
	a := doc.FirstChild(RootID)
	assert.True(t, doc.IsClosed(a))
	assert.Len(t, doc.Children(a), 1, "</x> is ignored")
}

func TestUnclosedAtEnd(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	doc, err := Parse([]byte(`<a><b>`))
	require.NoError(t, err)
	defer doc.Free()
	assert.Len(t, doc.Problems(), 2)
	assert.False(t, doc.IsClosed(RootID))
	assert.Equal(t, core.ESTRUCTURE, core.Code(doc.Err()))
}

func TestMissingAttributeValue(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	doc, err := Parse([]byte(`<a x y= z="1"/>`))
	require.NoError(t, err)
	defer doc.Free()
	assert.Len(t, doc.Problems(), 2)
	a := doc.FirstChild(RootID)
	assert.True(t, doc.IsClosed(a))
	assert.Equal(t, []Attr{{"z", "1"}}, doc.Attrs(a))
}

func TestDuplicateAttribute(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	doc, err := Parse([]byte(`<a x="1" x="2"/>`))
	require.NoError(t, err)
	defer doc.Free()
	assert.Len(t, doc.Problems(), 1)
	v, _ := doc.Attr(doc.FirstChild(RootID), "x")
	assert.Equal(t, "1", v)
}

func TestCharacterDataIsSkipped(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	doc, err := Parse([]byte(`<a>some text here<b/>more</a>`))
	require.NoError(t, err)
	defer doc.Free()
	assert.Empty(t, doc.Problems())
	a := doc.FirstChild(RootID)
	require.Len(t, doc.Children(a), 1)
	assert.Equal(t, "b", doc.Name(doc.FirstChild(a)))
}

func TestArenaIsReleased(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	a := arena.New(256)
	before := a.Used()
	doc, err := Parse([]byte(sheet), WithArena(a))
	require.NoError(t, err)
	assert.Greater(t, a.Used(), before)
	doc.Free()
	assert.Equal(t, before, a.Used())
	assert.Equal(t, 0, doc.Len())
	doc.Free() // freeing twice is harmless
	assert.Equal(t, before, a.Used())
}

func TestRenderRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	doc, err := Parse([]byte(sheet))
	require.NoError(t, err)
	defer doc.Free()
	var out bytes.Buffer
	require.NoError(t, doc.Render(&out))
	doc2, err := Parse(out.Bytes())
	require.NoError(t, err)
	defer doc2.Free()
	assert.Empty(t, doc2.Problems())
	var out2 bytes.Buffer
	require.NoError(t, doc2.Render(&out2))
	assert.Equal(t, out.String(), out2.String())
	assert.Contains(t, out.String(), `  <SubTexture name="A" x="0" y="0" width="16" height="16"/>`)
}

func TestDecodeUTF16(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	u16, err := enc.Bytes([]byte(`<Sound name="ping" path="ping.wav"/>`))
	require.NoError(t, err)
	doc, err := Parse(u16)
	require.NoError(t, err)
	defer doc.Free()
	s := doc.FirstChild(RootID)
	assert.Equal(t, "Sound", doc.Name(s))
	p, _ := doc.Attr(s, "path")
	assert.Equal(t, "ping.wav", p)
	//
	plain, err := Decode(append([]byte{0xef, 0xbb, 0xbf}, "<a/>"...))
	require.NoError(t, err)
	assert.Equal(t, "<a/>", string(plain))
}

func TestXPath(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	doc, err := Parse([]byte(sheet))
	require.NoError(t, err)
	defer doc.Free()
	ids, err := XPath(doc, "//SubTexture[@name='B']")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	x, _ := doc.Attr(ids[0], "x")
	assert.Equal(t, "16", x)
	ids, err = XPath(doc, "/TextureAtlas/SubTexture")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	n, err := Evaluate(doc, "count(//SubTexture)")
	require.NoError(t, err)
	assert.Equal(t, 2.0, n)
	names, err := Evaluate(doc, "//SubTexture/@name")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)
	_, err = XPath(doc, "//[")
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestSelect(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.markup")
	defer teardown()
	//
	doc, err := Parse([]byte(sheet))
	require.NoError(t, err)
	defer doc.Free()
	ids, err := Select(doc, `textureatlas > subtexture[name="A"]`)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, "A", func() string { v, _ := doc.Attr(ids[0], "name"); return v }())
	ids, err = Select(doc, "subtexture")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}
