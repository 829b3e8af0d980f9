/*
Package arena implements a bump allocator for short-lived parse data.

An arena hands out byte blocks carved sequentially from larger chunks.
There is no way to free a single block: space is returned either by
releasing everything allocated after a Mark, or by resetting the whole
arena. Chunks are kept for reuse after a reset.

Tables (see Table) are growable node tables whose storage is metered
against an arena, so that a whole parse (tokens, elements, attributes)
can be accounted for and released as one unit.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package arena

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'assets.arena'.
func tracer() tracing.Trace {
	return tracing.Select("assets.arena")
}

// DefaultChunkSize is the chunk size used by arenas created with a
// non-positive chunk size.
const DefaultChunkSize = 16 * 1024

// Arena is a bump allocator. The zero value is not usable, create arenas
// with New.
type Arena struct {
	chunkSize int
	chunks    [][]byte
	cur       int // index of current chunk
	off       int // offset into current chunk
	blocks    int // bytes handed out from chunks
	tables    int // bytes metered by tables
	peak      int
}

// Mark is a position in an arena, see Arena.Mark.
type Mark struct {
	chunk  int
	off    int
	blocks int
}

// New creates an arena which allocates chunks of chunkSize bytes.
func New(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Arena{chunkSize: chunkSize}
}

// Alloc returns a zeroed block of n bytes. Blocks larger than the chunk size
// get a chunk of their own.
func (a *Arena) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	if len(a.chunks) == 0 || a.off+n > len(a.chunks[a.cur]) {
		a.nextChunk(n)
	}
	c := a.chunks[a.cur]
	b := c[a.off : a.off+n : a.off+n]
	for i := range b { // chunks are reused after Release or Reset
		b[i] = 0
	}
	a.off += n
	a.blocks += n
	a.updatePeak()
	return b
}

// Copy allocates a block of len(p) bytes and copies p into it.
func (a *Arena) Copy(p []byte) []byte {
	b := a.Alloc(len(p))
	copy(b, p)
	return b
}

func (a *Arena) nextChunk(n int) {
	size := a.chunkSize
	if n > size {
		size = n
	}
	if len(a.chunks) > 0 {
		// look for a retained chunk after the current one
		for i := a.cur + 1; i < len(a.chunks); i++ {
			if len(a.chunks[i]) >= n {
				a.chunks[a.cur+1], a.chunks[i] = a.chunks[i], a.chunks[a.cur+1]
				a.cur++
				a.off = 0
				return
			}
		}
		a.chunks = append(a.chunks[:a.cur+1], append([][]byte{make([]byte, size)}, a.chunks[a.cur+1:]...)...)
		a.cur++
		a.off = 0
		tracer().Debugf("arena grows to %d chunks", len(a.chunks))
		return
	}
	a.chunks = append(a.chunks, make([]byte, size))
	a.cur, a.off = 0, 0
}

// meter accounts for n bytes of table storage; n may be negative.
func (a *Arena) meter(n int) {
	a.tables += n
	if a.tables < 0 {
		tracer().Errorf("arena: table storage metered below zero")
		a.tables = 0
	}
	a.updatePeak()
}

func (a *Arena) updatePeak() {
	if u := a.Used(); u > a.peak {
		a.peak = u
	}
}

// Used returns the number of bytes currently handed out, including the
// storage of tables metered against the arena.
func (a *Arena) Used() int {
	return a.blocks + a.tables
}

// Peak returns the maximum number of bytes handed out at any time.
func (a *Arena) Peak() int {
	return a.peak
}

// Chunks returns the number of chunks held by the arena.
func (a *Arena) Chunks() int {
	return len(a.chunks)
}

// Mark returns the current allocation position.
func (a *Arena) Mark() Mark {
	return Mark{chunk: a.cur, off: a.off, blocks: a.blocks}
}

// Release returns every block allocated after m. Marks have to be released
// in reverse order of their creation. Table storage is not affected.
func (a *Arena) Release(m Mark) {
	if m.blocks > a.blocks {
		tracer().Errorf("arena: release of stale mark (%d > %d bytes)", m.blocks, a.blocks)
		return
	}
	a.cur, a.off = m.chunk, m.off
	a.blocks = m.blocks
}

// Reset returns all blocks. Chunks are retained for further allocations.
// Tables keep their metered storage until they are freed.
func (a *Arena) Reset() {
	a.cur, a.off = 0, 0
	a.blocks = 0
}
