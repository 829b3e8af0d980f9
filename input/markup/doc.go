/*
Package markup reads asset descriptor files written in a minimal XML-like
markup:

    <TextureAtlas imagePath="sheet.png">
        <SubTexture name="hero" x="0" y="0" width="16" height="16"/>
    </TextureAtlas>

Elements carry attributes with double-quoted values and are either closed
explicitly or self-closed. Character data between elements is ignored, as
are processing instructions (<?xml …?>), comments and DOCTYPE declarations.
Entities and escaped quotes are not supported.

Reading is done in two steps. Tokenize scans a byte buffer into a stream of
tokens, Build turns the token stream into a Document, a tree of elements.
Parse does both. Structural problems (mismatched closing tags, missing
attribute values, stray tokens) never stop the build: they are collected
and may be inspected with Document.Problems.

Tokens, elements and attributes live in an arena (package core/arena) and
are released as a unit with Document.Free. Elements are addressed by
NodeID, an index into the document's node table; the parent of an element
is kept as a NodeID as well and is for navigation only.

Documents may be queried with XPath expressions (antchfx/xpath) or CSS
selectors (cascadia).

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package markup

import (
	"github.com/npillmayer/assetpipe/core/arena"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'assets.markup'.
func tracer() tracing.Trace {
	return tracing.Select("assets.markup")
}

// Option configures tokenizing and building.
type Option func(*options)

type options struct {
	arena *arena.Arena
	trace tracing.Trace
}

// WithArena lets tokens and elements be allocated from a.
func WithArena(a *arena.Arena) Option {
	return func(o *options) {
		o.arena = a
	}
}

// WithTracer routes trace output to t.
func WithTracer(t tracing.Trace) Option {
	return func(o *options) {
		o.trace = t
	}
}

func collect(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.arena == nil {
		o.arena = arena.New(0)
	}
	if o.trace == nil {
		o.trace = tracer()
	}
	return o
}
