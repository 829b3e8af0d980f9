package markup

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
	"github.com/npillmayer/assetpipe/core"
	"golang.org/x/net/html"
)

// NodeNavigator implements xpath.NodeNavigator for a document.
//
// For a description of the various methods of interface xpath.NodeNavigator
// please refer to the documentation of antchfx/xpath. It is not replicated here.
type NodeNavigator struct {
	doc     *Document
	current NodeID
	attr    int // attributes index
}

// NewNavigator creates a new xpath.NodeNavigator positioned at the root of doc.
func NewNavigator(doc *Document) *NodeNavigator {
	return &NodeNavigator{
		doc:     doc,
		current: RootID,
		attr:    -1,
	}
}

// Current returns the element the navigator is positioned at. For
// attributes, this is the owning element.
func (nav *NodeNavigator) Current() NodeID {
	return nav.current
}

func (nav *NodeNavigator) NodeType() xpath.NodeType {
	if nav.attr != -1 {
		return xpath.AttributeNode
	}
	if nav.current == RootID {
		return xpath.RootNode
	}
	return xpath.ElementNode
}

func (nav *NodeNavigator) LocalName() string {
	if nav.attr != -1 {
		if a := nav.doc.attrAt(nav.current, nav.attr); a != nil {
			return string(a.name)
		}
		return ""
	}
	return nav.doc.Name(nav.current)
}

func (*NodeNavigator) Prefix() string {
	return ""
}

// Value returns the value of an attribute. Elements have no text content.
func (nav *NodeNavigator) Value() string {
	if nav.attr != -1 {
		if a := nav.doc.attrAt(nav.current, nav.attr); a != nil {
			return string(a.value)
		}
	}
	return ""
}

func (nav *NodeNavigator) Copy() xpath.NodeNavigator {
	n := *nav
	return &n
}

func (nav *NodeNavigator) MoveToRoot() {
	nav.current = RootID
	nav.attr = -1
}

func (nav *NodeNavigator) MoveToParent() bool {
	if nav.attr != -1 {
		nav.attr = -1 // move from attributes to element
		return true
	}
	p := nav.doc.Parent(nav.current)
	if p == InvalidNode {
		return false
	}
	nav.current = p
	return true
}

func (nav *NodeNavigator) MoveToNextAttribute() bool {
	if nav.attr >= nav.doc.NumAttrs(nav.current)-1 {
		return false
	}
	nav.attr++
	return true
}

func (nav *NodeNavigator) MoveToChild() bool {
	if nav.attr != -1 {
		return false
	}
	c := nav.doc.FirstChild(nav.current)
	if c == InvalidNode {
		return false
	}
	nav.current = c
	return true
}

func (nav *NodeNavigator) MoveToFirst() bool {
	if nav.attr != -1 {
		return false
	}
	p := nav.doc.Parent(nav.current)
	if p == InvalidNode {
		return false
	}
	first := nav.doc.FirstChild(p)
	if first == nav.current {
		return false
	}
	nav.current = first
	return true
}

func (nav *NodeNavigator) String() string {
	return nav.Value()
}

func (nav *NodeNavigator) MoveToNext() bool {
	if nav.attr != -1 {
		return false
	}
	next := nav.doc.NextSibling(nav.current)
	if next == InvalidNode {
		return false
	}
	nav.current = next
	return true
}

func (nav *NodeNavigator) MoveToPrevious() bool {
	if nav.attr != -1 {
		return false
	}
	prev := nav.doc.PrevSibling(nav.current)
	if prev == InvalidNode {
		return false
	}
	nav.current = prev
	return true
}

func (nav *NodeNavigator) MoveTo(other xpath.NodeNavigator) bool {
	n, ok := other.(*NodeNavigator)
	if !ok || n.doc != nav.doc {
		return false
	}
	nav.current = n.current
	nav.attr = n.attr
	return true
}

var _ xpath.NodeNavigator = &NodeNavigator{}

// XPath selects elements of doc with an XPath expression. Attribute results
// are reported as their owning elements.
func XPath(doc *Document, expr string) ([]NodeID, error) {
	x, err := xpath.Compile(expr)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "invalid XPath expression %q", expr)
	}
	var ids []NodeID
	seen := make(map[NodeID]bool)
	iter := x.Select(NewNavigator(doc))
	for iter.MoveNext() {
		nav, ok := iter.Current().(*NodeNavigator)
		if !ok || seen[nav.current] {
			continue
		}
		seen[nav.current] = true
		ids = append(ids, nav.current)
	}
	tracer().Debugf("XPath %q selected %d elements", expr, len(ids))
	return ids, nil
}

// Evaluate evaluates an XPath expression on doc and returns its value,
// e.g. a float64 for count(…) or a string for string(…).
func Evaluate(doc *Document, expr string) (interface{}, error) {
	x, err := xpath.Compile(expr)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "invalid XPath expression %q", expr)
	}
	v := x.Evaluate(NewNavigator(doc))
	if iter, ok := v.(*xpath.NodeIterator); ok {
		var vals []string
		for iter.MoveNext() {
			vals = append(vals, iter.Current().Value())
		}
		return vals, nil
	}
	return v, nil
}

// --- CSS selectors ---------------------------------------------------------

// Select selects elements of doc with a CSS selector. Matching is done on
// an HTML mirror of the document, element and attribute names are
// therefore matched case-insensitively.
func Select(doc *Document, selector string) ([]NodeID, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "invalid selector %q", selector)
	}
	root, ids := mirror(doc)
	var result []NodeID
	for _, n := range sel.MatchAll(root) {
		result = append(result, ids[n])
	}
	tracer().Debugf("selector %q matched %d elements", selector, len(result))
	return result, nil
}

// mirror creates an x/net/html tree for doc.
func mirror(doc *Document) (*html.Node, map[*html.Node]NodeID) {
	ids := make(map[*html.Node]NodeID, doc.Len())
	root := &html.Node{Type: html.DocumentNode}
	ids[root] = RootID
	var build func(parent *html.Node, id NodeID)
	build = func(parent *html.Node, id NodeID) {
		for c := doc.FirstChild(id); c != InvalidNode; c = doc.NextSibling(c) {
			h := &html.Node{
				Type: html.ElementNode,
				Data: strings.ToLower(doc.Name(c)),
			}
			for _, a := range doc.Attrs(c) {
				h.Attr = append(h.Attr, html.Attribute{Key: strings.ToLower(a.Name), Val: a.Value})
			}
			parent.AppendChild(h)
			ids[h] = c
			build(h, c)
		}
	}
	build(root, RootID)
	return root, ids
}
