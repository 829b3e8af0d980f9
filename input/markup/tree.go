package markup

import (
	"bytes"
	"fmt"
	"io"

	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/assetpipe/core/arena"
	"github.com/npillmayer/schuko/tracing"
)

// NodeID addresses an element of a document.
type NodeID int32

// InvalidNode is returned by navigation methods if there is no such node.
const InvalidNode NodeID = -1

// RootID is the synthetic root of every document. Top-level elements of the
// markup are its children.
const RootID NodeID = 0

type attribute struct {
	name  []byte
	value []byte
	next  int // index into the attribute table, or -1
}

type node struct {
	name        []byte
	parent      NodeID
	firstChild  NodeID
	lastChild   NodeID
	nextSibling NodeID
	attr        attribute // first attribute, inline
	nattr       int
	lastAttr    int // chained attribute last appended, or -1
	closed      bool
	pos         int
}

// Attr is a name/value pair of an element.
type Attr struct {
	Name  string
	Value string
}

// Document is a tree of elements, built by Build or Parse.
type Document struct {
	tokens   *TokenStream
	nodes    *arena.Table[node]
	attrs    *arena.Table[attribute]
	problems []error
	freed    bool
}

// --- Building --------------------------------------------------------------

// Parse decodes buf (see Decode), tokenizes it and builds a document.
// A decoding error is returned; structural problems are not, they are
// available from Document.Problems.
func Parse(buf []byte, opts ...Option) (*Document, error) {
	data, err := Decode(buf)
	if err != nil {
		return nil, err
	}
	ts := Tokenize(data, opts...)
	return Build(ts, opts...), nil
}

type builder struct {
	doc   *Document
	toks  []Token
	cur   NodeID
	trace tracing.Trace
}

// Build builds a document from a token stream. The document takes over ts;
// both are released with Document.Free.
//
// Building never fails. Unbalanced tags, missing attribute values and
// stray tokens are recorded as problems with error code ESTRUCTURE.
func Build(ts *TokenStream, opts ...Option) *Document {
	o := collect(append([]Option{WithArena(ts.arena)}, opts...))
	doc := &Document{
		tokens: ts,
		nodes:  arena.NewTable[node](ts.arena, ts.Len()/8+1),
		attrs:  arena.NewTable[attribute](ts.arena, ts.Len()/8+1),
	}
	doc.problems = append(doc.problems, ts.problems...)
	doc.nodes.Add(node{
		parent:      InvalidNode,
		firstChild:  InvalidNode,
		lastChild:   InvalidNode,
		nextSibling: InvalidNode,
		lastAttr:    -1,
	})
	b := &builder{doc: doc, toks: ts.Tokens(), cur: RootID, trace: o.trace}
	b.run()
	o.trace.Debugf("built document with %d elements, %d problems", doc.nodes.Len()-1, len(doc.problems))
	return doc
}

func (b *builder) peek(i int) Token {
	if i < len(b.toks) {
		return b.toks[i]
	}
	return Token{Pos: -1}
}

func (b *builder) report(pos int, format string, v ...interface{}) {
	err := problem(pos, format, v...)
	b.trace.Infof("markup: %v", err)
	b.doc.problems = append(b.doc.problems, err)
}

func (b *builder) run() {
	inTag := false // inside the start tag of b.cur
	for i := 0; i < len(b.toks); i++ {
		tok := b.toks[i]
		switch tok.Kind {
		case OpenMarker:
			if inTag {
				b.report(tok.Pos, "start tag of <%s> not terminated", b.node(b.cur).name)
				inTag = false
			}
			next := b.peek(i + 1)
			switch next.Kind {
			case SelfCloseMarker:
				name := b.peek(i + 2)
				if name.Kind != Name {
					b.report(tok.Pos, "closing tag without name")
					i++
					continue
				}
				i += 2
				if b.peek(i+1).Kind == CloseMarker {
					i++
				} else {
					b.report(name.Pos, "closing tag </%s> not terminated", name.Text)
				}
				b.closeTag(name)
			case Name:
				b.cur = b.openElement(next)
				inTag = true
				i++
			default:
				b.report(tok.Pos, "'<' not followed by an element name")
			}
		case Name:
			if !inTag {
				b.trace.Debugf("markup: skipping character data %q", tok.Text)
				continue
			}
			if b.peek(i+1).Kind == Equals && b.peek(i+2).Kind == Value {
				b.addAttr(tok, b.toks[i+2])
				i += 2
				continue
			}
			b.report(tok.Pos, "missing attribute value for %s", tok.Text)
			if b.peek(i+1).Kind == Equals {
				i++
			}
		case SelfCloseMarker:
			if inTag && b.peek(i+1).Kind == CloseMarker {
				b.close(b.cur)
				b.cur = b.node(b.cur).parent
				inTag = false
				i++
				continue
			}
			b.report(tok.Pos, "stray '/'")
		case CloseMarker:
			if inTag {
				inTag = false
				continue
			}
			b.report(tok.Pos, "stray '>'")
		case Equals, Value:
			b.report(tok.Pos, "stray %s", tok.Kind)
		}
	}
	if inTag {
		b.report(b.node(b.cur).pos, "start tag of <%s> not terminated", b.node(b.cur).name)
	}
	if b.cur == RootID {
		b.close(RootID)
		return
	}
	for n := b.cur; n != RootID; n = b.node(n).parent {
		b.report(b.node(n).pos, "element <%s> not closed", b.node(n).name)
	}
}

func (b *builder) node(id NodeID) *node {
	return b.doc.nodes.At(int(id))
}

func (b *builder) close(id NodeID) {
	b.node(id).closed = true
}

func (b *builder) openElement(name Token) NodeID {
	id := NodeID(b.doc.nodes.Add(node{
		name:        name.Text,
		parent:      b.cur,
		firstChild:  InvalidNode,
		lastChild:   InvalidNode,
		nextSibling: InvalidNode,
		lastAttr:    -1,
		pos:         name.Pos,
	}))
	parent := b.node(b.cur)
	if parent.firstChild == InvalidNode {
		parent.firstChild = id
	} else {
		b.node(parent.lastChild).nextSibling = id
	}
	parent.lastChild = id
	return id
}

func (b *builder) closeTag(name Token) {
	if b.cur != RootID && bytes.Equal(b.node(b.cur).name, name.Text) {
		b.close(b.cur)
		b.cur = b.node(b.cur).parent
		return
	}
	anc := InvalidNode
	if b.cur != RootID {
		for n := b.node(b.cur).parent; n != RootID; n = b.node(n).parent {
			if bytes.Equal(b.node(n).name, name.Text) {
				anc = n
				break
			}
		}
	}
	if anc == InvalidNode {
		b.report(name.Pos, "closing tag </%s> does not match an open element", name.Text)
		return
	}
	for n := b.cur; n != anc; n = b.node(n).parent {
		b.report(name.Pos, "element <%s> not closed before </%s>", b.node(n).name, name.Text)
	}
	b.close(anc)
	b.cur = b.node(anc).parent
}

func (b *builder) addAttr(name, value Token) {
	e := b.node(b.cur)
	if e.nattr > 0 && b.doc.findAttr(b.cur, name.Text) != nil {
		b.report(name.Pos, "duplicate attribute %s on <%s>", name.Text, e.name)
		return
	}
	a := attribute{name: name.Text, value: value.Text, next: -1}
	if e.nattr == 0 {
		e.attr = a
		e.nattr = 1
		return
	}
	inx := b.doc.attrs.Add(a)
	if e.lastAttr < 0 {
		e.attr.next = inx
	} else {
		b.doc.attrs.At(e.lastAttr).next = inx
	}
	e.lastAttr = inx
	e.nattr++
}

// --- Access ----------------------------------------------------------------

func (doc *Document) node(id NodeID) *node {
	if doc.freed || id < 0 || int(id) >= doc.nodes.Len() {
		return nil
	}
	return doc.nodes.At(int(id))
}

// Root returns the synthetic root element.
func (doc *Document) Root() NodeID {
	return RootID
}

// Len returns the number of elements, the root included.
func (doc *Document) Len() int {
	if doc.freed {
		return 0
	}
	return doc.nodes.Len()
}

// Name returns the name of an element. The root has an empty name.
func (doc *Document) Name(id NodeID) string {
	if n := doc.node(id); n != nil {
		return string(n.name)
	}
	return ""
}

// Pos returns the byte offset of an element's name in the input.
func (doc *Document) Pos(id NodeID) int {
	if n := doc.node(id); n != nil {
		return n.pos
	}
	return -1
}

// Parent returns the parent of an element, or InvalidNode for the root.
func (doc *Document) Parent(id NodeID) NodeID {
	if n := doc.node(id); n != nil {
		return n.parent
	}
	return InvalidNode
}

// FirstChild returns the first child of an element, or InvalidNode.
func (doc *Document) FirstChild(id NodeID) NodeID {
	if n := doc.node(id); n != nil {
		return n.firstChild
	}
	return InvalidNode
}

// NextSibling returns the next sibling of an element, or InvalidNode.
func (doc *Document) NextSibling(id NodeID) NodeID {
	if n := doc.node(id); n != nil {
		return n.nextSibling
	}
	return InvalidNode
}

// PrevSibling returns the previous sibling of an element, or InvalidNode.
func (doc *Document) PrevSibling(id NodeID) NodeID {
	p := doc.Parent(id)
	if p == InvalidNode {
		return InvalidNode
	}
	prev := InvalidNode
	for c := doc.FirstChild(p); c != InvalidNode && c != id; c = doc.NextSibling(c) {
		prev = c
	}
	return prev
}

// Children returns the children of an element in document order.
func (doc *Document) Children(id NodeID) []NodeID {
	var ch []NodeID
	for c := doc.FirstChild(id); c != InvalidNode; c = doc.NextSibling(c) {
		ch = append(ch, c)
	}
	return ch
}

// IsClosed is true if an element has been closed by a matching closing tag
// or is self-closing. The root is closed if all tags are balanced.
func (doc *Document) IsClosed(id NodeID) bool {
	if n := doc.node(id); n != nil {
		return n.closed
	}
	return false
}

func (doc *Document) findAttr(id NodeID, name []byte) *attribute {
	n := doc.node(id)
	if n == nil || n.nattr == 0 {
		return nil
	}
	for a := &n.attr; ; a = doc.attrs.At(a.next) {
		if bytes.Equal(a.name, name) {
			return a
		}
		if a.next < 0 {
			return nil
		}
	}
}

// Attr returns the value of attribute name of an element.
func (doc *Document) Attr(id NodeID, name string) (string, bool) {
	if a := doc.findAttr(id, []byte(name)); a != nil {
		return string(a.value), true
	}
	return "", false
}

// NumAttrs returns the number of attributes of an element.
func (doc *Document) NumAttrs(id NodeID) int {
	if n := doc.node(id); n != nil {
		return n.nattr
	}
	return 0
}

// attrAt returns the attribute at position i of an element.
func (doc *Document) attrAt(id NodeID, i int) *attribute {
	n := doc.node(id)
	if n == nil || i < 0 || i >= n.nattr {
		return nil
	}
	a := &n.attr
	for ; i > 0; i-- {
		a = doc.attrs.At(a.next)
	}
	return a
}

// Attrs returns the attributes of an element in document order.
func (doc *Document) Attrs(id NodeID) []Attr {
	n := doc.node(id)
	if n == nil || n.nattr == 0 {
		return nil
	}
	attrs := make([]Attr, 0, n.nattr)
	for a := &n.attr; ; a = doc.attrs.At(a.next) {
		attrs = append(attrs, Attr{Name: string(a.name), Value: string(a.value)})
		if a.next < 0 {
			break
		}
	}
	return attrs
}

// Walk visits the elements below the root depth-first in document order.
// Top-level elements have depth 1. If fn returns false, the children of the
// element are skipped.
func (doc *Document) Walk(fn func(id NodeID, depth int) bool) {
	var walk func(id NodeID, depth int)
	walk = func(id NodeID, depth int) {
		for c := doc.FirstChild(id); c != InvalidNode; c = doc.NextSibling(c) {
			if fn(c, depth) {
				walk(c, depth+1)
			}
		}
	}
	walk(RootID, 1)
}

// Problems returns the structural problems found while tokenizing and
// building. Every problem carries error code ESTRUCTURE.
func (doc *Document) Problems() []error {
	return doc.problems
}

// Err returns nil for a well-formed document, otherwise an error with code
// ESTRUCTURE summarizing the problems.
func (doc *Document) Err() error {
	switch len(doc.problems) {
	case 0:
		return nil
	case 1:
		return doc.problems[0]
	}
	return core.WrapError(doc.problems[0], core.ESTRUCTURE, "%d markup problems", len(doc.problems))
}

// Free releases the element and attribute tables and the token stream.
// The document must not be used afterwards.
func (doc *Document) Free() {
	if doc.freed {
		return
	}
	doc.nodes.Free()
	doc.attrs.Free()
	doc.tokens.Free()
	doc.freed = true
}

// Render writes the document as markup, one element per line, indented by
// depth. Elements without children are written self-closing.
func (doc *Document) Render(w io.Writer) error {
	var err error
	var render func(id NodeID, depth int)
	render = func(id NodeID, depth int) {
		for c := doc.FirstChild(id); c != InvalidNode && err == nil; c = doc.NextSibling(c) {
			var buf bytes.Buffer
			for i := 0; i < depth; i++ {
				buf.WriteString("  ")
			}
			buf.WriteByte('<')
			buf.WriteString(doc.Name(c))
			for _, a := range doc.Attrs(c) {
				fmt.Fprintf(&buf, " %s=\"%s\"", a.Name, a.Value)
			}
			if doc.FirstChild(c) == InvalidNode {
				buf.WriteString("/>\n")
				_, err = w.Write(buf.Bytes())
				continue
			}
			buf.WriteString(">\n")
			if _, err = w.Write(buf.Bytes()); err != nil {
				return
			}
			render(c, depth+1)
			if err != nil {
				return
			}
			buf.Reset()
			for i := 0; i < depth; i++ {
				buf.WriteString("  ")
			}
			fmt.Fprintf(&buf, "</%s>\n", doc.Name(c))
			_, err = w.Write(buf.Bytes())
		}
	}
	render(RootID, 0)
	return err
}
