package asset

import (
	"bytes"
	"errors"
	"image"
	"io"
	"testing"
	"time"

	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/assetpipe/core/config"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestFlipY(t *testing.T) {
	assert.Equal(t, 964, FlipY(1024, 20, 40))
	assert.Equal(t, 48, FlipY(64, 0, 16))
	assert.Equal(t, 20, FlipY(1024, FlipY(1024, 20, 40), 40), "flipping is an involution")
}

func TestSubTextureRect(t *testing.T) {
	st := SubTexture{Name: "A", Origin: image.Pt(0, 48), Size: image.Pt(16, 16)}
	assert.Equal(t, image.Rect(0, 48, 16, 64), st.Rect())
	assert.Equal(t, "A@(0,48)+(16,16)", st.String())
}

func TestAtlasPrefix(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.catalog")
	defer teardown()
	//
	a := NewTexAtlas("sheet.png", nil, 8)
	for _, n := range []string{"walk_2", "walk_10", "walk_1", "jump_1", "idle"} {
		require.NoError(t, a.Add(SubTexture{Name: n, Size: image.Pt(8, 8)}))
	}
	assert.Equal(t, []string{"walk_1", "walk_10", "walk_2"}, a.WithPrefix("walk_"))
	assert.Empty(t, a.WithPrefix("run"))
	assert.Len(t, a.WithPrefix(""), 5)
	err := a.Add(SubTexture{Name: "idle"})
	assert.Equal(t, core.ECOLLISION, core.Code(err))
	assert.True(t, a.Remove("walk_10"))
	assert.False(t, a.Remove("walk_10"))
	assert.Equal(t, []string{"walk_1", "walk_2"}, a.WithPrefix("walk"))
	assert.Equal(t, 4, a.Len())
}

func TestAnimationFrames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.catalog")
	defer teardown()
	//
	atlas := NewTexAtlas("hero", nil, 4)
	require.NoError(t, atlas.Add(SubTexture{Name: "f1", Origin: image.Pt(0, 0), Size: image.Pt(4, 4)}))
	require.NoError(t, atlas.Add(SubTexture{Name: "f2", Origin: image.Pt(4, 0), Size: image.Pt(4, 4)}))
	anim := &Animation{Name: "run", Atlas: atlas, Frames: []string{"f1", "f2"},
		FrameDuration: 100 * time.Millisecond}
	assert.Equal(t, 2, anim.FrameCount())
	assert.Equal(t, 200*time.Millisecond, anim.Duration())
	assert.Equal(t, 0, anim.FrameAt(50*time.Millisecond))
	assert.Equal(t, 1, anim.FrameAt(150*time.Millisecond))
	assert.Equal(t, 0, anim.FrameAt(210*time.Millisecond))
	f, ok := anim.Frame(1)
	require.True(t, ok)
	assert.Equal(t, image.Pt(4, 0), f.Origin)
	_, ok = anim.Frame(2)
	assert.False(t, ok)
}

func TestAudioType(t *testing.T) {
	assert.Equal(t, AudioWAV, AudioTypeOf("sfx/ping.WAV"))
	assert.Equal(t, AudioOGG, AudioTypeOf("music.ogg"))
	assert.Equal(t, AudioUnknown, AudioTypeOf("readme"))
	assert.Equal(t, "flac", AudioFLAC.String())
}

func TestFontAccess(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.catalog")
	defer teardown()
	//
	atlas := NewTexAtlas("font", nil, 4)
	require.NoError(t, atlas.Add(SubTexture{Name: "a", Size: image.Pt(10, 12)}))
	f := &Font{
		Lo: 'a', Hi: 'c',
		Metrics: []CharMetrics{{Advance: 7}, {Advance: 8}},
		Ascent:  10, Descent: -3, LineGap: 1,
		Atlas: atlas,
	}
	assert.True(t, f.Covers('b'))
	assert.False(t, f.Covers('c'))
	m, ok := f.Metric('b')
	require.True(t, ok)
	assert.Equal(t, 8.0, m.Advance)
	_, ok = f.Metric('z')
	assert.False(t, ok)
	g, ok := f.Glyph('a')
	require.True(t, ok)
	assert.Equal(t, image.Pt(10, 12), g.Size)
	assert.Equal(t, 14.0, f.LineHeight())
	assert.Equal(t, 23.0, f.Advance("abzb"))
}

// --- Catalog ---------------------------------------------------------------

type fakeStream struct {
	info StreamInfo
}

func (s fakeStream) Info() StreamInfo { return s.info }

func (s fakeStream) Decode(buf []int16) (int, error) { return 0, io.EOF }

type fakeDecoder struct{}

func (fakeDecoder) Open(data []byte) (AudioStream, error) {
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		return nil, errors.New("not a RIFF file")
	}
	return fakeStream{StreamInfo{Channels: 2, SampleRate: 44100, Samples: 88200}}, nil
}

type CatalogSuite struct {
	suite.Suite
	teardown func()
	cat      *Catalog
}

func TestCatalog(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) SetupTest() {
	s.teardown = gotestingadapter.QuickConfig(s.T(), "assets.catalog")
	conf := config.Default()
	conf.AtlasCapacity = 2
	cat, err := NewCatalog(conf, WithAudioDecoder(fakeDecoder{}))
	s.Require().NoError(err)
	s.cat = cat
}

func (s *CatalogSuite) TearDownTest() {
	s.teardown()
}

func (s *CatalogSuite) TestRegistriesFollowConfig() {
	s.Equal(2, s.cat.Atlases.Capacity())
	s.Equal(config.Default().TextureCapacity, s.cat.Textures.Capacity())
	s.Equal("atlases", s.cat.Atlases.Name())
	s.Equal(config.Default().Seed, s.cat.Shaders.Seed())
	a := s.cat.NewAtlas("x", nil)
	s.Equal(config.Default().SubTextureCapacity, a.Regions.Capacity())
}

func (s *CatalogSuite) TestAtlasCapacity() {
	s.NoError(s.cat.Atlases.Put("a", s.cat.NewAtlas("a", nil)))
	s.NoError(s.cat.Atlases.Put("b", s.cat.NewAtlas("b", nil)))
	err := s.cat.Atlases.Put("c", s.cat.NewAtlas("c", nil))
	s.Equal(core.ECAPACITY, core.Code(err))
	a, ok := s.cat.Atlas("b")
	s.True(ok)
	s.Equal("b", a.Name)
}

func (s *CatalogSuite) TestOpenAudio() {
	clip := &AudioClip{Name: "ping", Type: AudioWAV, Data: []byte("RIFF....WAVE")}
	s.NoError(s.cat.OpenAudio(clip))
	s.Equal(2, clip.Channels)
	s.Equal(44100, clip.SampleRate)
	s.InDelta(2.0, clip.Seconds, 1e-9)
	s.NotNil(clip.Stream)
	s.Error(s.cat.OpenAudio(&AudioClip{Name: "bad", Data: []byte("garbage")}))
}

func (s *CatalogSuite) TestSummaryAndReset() {
	s.NoError(s.cat.Shaders.Put("blur", &Shader{Name: "blur"}))
	var buf bytes.Buffer
	s.NoError(s.cat.Summary(&buf))
	s.Contains(buf.String(), "shaders        1")
	s.Equal(1, s.cat.Counts()["shaders"])
	s.cat.Reset()
	s.Equal(0, s.cat.Counts()["shaders"])
}

func TestCatalogRejectsInvalidConfig(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.catalog")
	defer teardown()
	//
	conf := config.Default()
	conf.FontSheetWidth = 0
	_, err := NewCatalog(conf)
	assert.Equal(t, core.ECONFIG, core.Code(err))
}
