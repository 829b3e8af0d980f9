package arena

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

func TestAllocAndReset(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.arena")
	defer teardown()
	//
	a := New(64)
	b := a.Alloc(10)
	assert.Equal(t, 10, len(b))
	assert.Equal(t, 10, a.Used())
	big := a.Alloc(100) // larger than a chunk
	assert.Equal(t, 100, len(big))
	assert.Equal(t, 110, a.Used())
	assert.Equal(t, 2, a.Chunks())
	a.Reset()
	assert.Equal(t, 0, a.Used())
	assert.Equal(t, 110, a.Peak())
	assert.Equal(t, 2, a.Chunks(), "chunks are retained after reset")
}

func TestAllocZeroesReusedSpace(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.arena")
	defer teardown()
	//
	a := New(32)
	copy(a.Alloc(4), []byte("abcd"))
	a.Reset()
	b := a.Alloc(4)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
}

func TestMarkRelease(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.arena")
	defer teardown()
	//
	a := New(16)
	a.Alloc(8)
	m := a.Mark()
	for i := 0; i < 10; i++ {
		a.Copy([]byte("hello"))
	}
	assert.Equal(t, 58, a.Used())
	a.Release(m)
	assert.Equal(t, 8, a.Used())
	b := a.Copy([]byte("xy"))
	assert.Equal(t, "xy", string(b))
	assert.Equal(t, 10, a.Used())
}

func TestBlocksDoNotOverlap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.arena")
	defer teardown()
	//
	a := New(8)
	x := a.Copy([]byte("12345"))
	y := a.Copy([]byte("67890"))
	x = append(x, 'z') // capacity is clipped, append must not clobber y
	assert.Equal(t, "67890", string(y))
	assert.Equal(t, "12345z", string(x))
}

func TestTableMetering(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "assets.arena")
	defer teardown()
	//
	a := New(0)
	before := a.Used()
	tab := NewTable[int64](a, 4)
	assert.Equal(t, before+32, a.Used())
	for i := 0; i < 100; i++ {
		assert.Equal(t, i, tab.Add(int64(i)))
	}
	assert.Equal(t, 100, tab.Len())
	assert.Equal(t, int64(42), *tab.At(42))
	assert.Greater(t, a.Used(), before+800-1)
	tab.Free()
	assert.Equal(t, before, a.Used())
	assert.Equal(t, 0, tab.Len())
}
