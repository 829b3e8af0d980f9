package descriptor

import (
	"math"

	"github.com/npillmayer/assetpipe/input/markup"
)

type elementKind uint8

const (
	elemUnknown elementKind = iota
	elemAssets
	elemTextureAtlas
	elemSubTexture
	elemAnimation
	elemFrame
	elemShader
	elemSound
	elemFont
)

var elementKinds = map[string]elementKind{
	"Assets":       elemAssets,
	"TextureAtlas": elemTextureAtlas,
	"SubTexture":   elemSubTexture,
	"Animation":    elemAnimation,
	"Frame":        elemFrame,
	"Shader":       elemShader,
	"Sound":        elemSound,
	"Font":         elemFont,
}

func (k elementKind) String() string {
	for name, kind := range elementKinds {
		if kind == k {
			return name
		}
	}
	return "unknown element"
}

type attrKind uint8

const (
	attrName attrKind = iota
	attrImagePath
	attrX
	attrY
	attrWidth
	attrHeight
	attrAtlas
	attrDuration
	attrPrefix
	attrVertex
	attrFragment
	attrPath
	attrSize
	attrFirst
	attrLast
	numAttrKinds
)

var attrKinds = map[string]attrKind{
	"name":      attrName,
	"imagePath": attrImagePath,
	"x":         attrX,
	"y":         attrY,
	"width":     attrWidth,
	"height":    attrHeight,
	"atlas":     attrAtlas,
	"duration":  attrDuration,
	"prefix":    attrPrefix,
	"vertex":    attrVertex,
	"fragment":  attrFragment,
	"path":      attrPath,
	"size":      attrSize,
	"first":     attrFirst,
	"last":      attrLast,
}

func (k attrKind) String() string {
	for name, kind := range attrKinds {
		if kind == k {
			return name
		}
	}
	return "?"
}

// element is a markup element with its kind and attributes resolved.
type element struct {
	id    markup.NodeID
	kind  elementKind
	name  string // element name as written
	pos   int
	vals  [numAttrKinds]string
	has   [numAttrKinds]bool
	other []markup.Attr // unrecognized attributes
}

func resolve(doc *markup.Document, id markup.NodeID) *element {
	e := &element{id: id, name: doc.Name(id), pos: doc.Pos(id)}
	e.kind = elementKinds[e.name]
	for _, a := range doc.Attrs(id) {
		if k, ok := attrKinds[a.Name]; ok {
			e.vals[k], e.has[k] = a.Value, true
			continue
		}
		e.other = append(e.other, a)
	}
	return e
}

func (e *element) attr(k attrKind) (string, bool) {
	return e.vals[k], e.has[k]
}

// BadInt is the value of an integer attribute which cannot be parsed.
const BadInt = math.MinInt32

// parseInt reads an optional sign followed by decimal digits. Reading stops
// at the first non-digit. Without any digit, or if the number does not fit
// into 32 bits, BadInt and false are returned.
func parseInt(s string) (int, bool) {
	i, neg := 0, false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start, n := i, 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		if n > math.MaxInt32 {
			return BadInt, false
		}
	}
	if i == start {
		return BadInt, false
	}
	if neg {
		n = -n
	}
	return n, true
}
