package markup

import (
	"bytes"
	"fmt"

	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/assetpipe/core/arena"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Kind is the category of a token.
type Kind uint8

// Token kinds
const (
	OpenMarker      Kind = iota + 1 // '<'
	CloseMarker                     // '>'
	Equals                          // '='
	SelfCloseMarker                 // '/'
	Name                            // element or attribute name
	Value                           // quoted attribute value, without quotes
)

func (k Kind) String() string {
	switch k {
	case OpenMarker:
		return "'<'"
	case CloseMarker:
		return "'>'"
	case Equals:
		return "'='"
	case SelfCloseMarker:
		return "'/'"
	case Name:
		return "Name"
	case Value:
		return "Value"
	}
	return "<no token>"
}

// Token is a lexical unit of markup. Text is set for names and values and
// is allocated from the token stream's arena. Pos is the byte offset of the
// token in the input.
type Token struct {
	Kind Kind
	Text []byte
	Pos  int
}

func (t Token) String() string {
	if t.Kind == Name || t.Kind == Value {
		return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Pos)
	}
	return fmt.Sprintf("%s@%d", t.Kind, t.Pos)
}

// TokenStream is the result of Tokenize.
type TokenStream struct {
	arena    *arena.Arena
	mark     arena.Mark
	tokens   *arena.Table[Token]
	problems []error
	freed    bool
}

// Len returns the number of tokens.
func (ts *TokenStream) Len() int {
	return ts.tokens.Len()
}

// At returns token i.
func (ts *TokenStream) At(i int) Token {
	return *ts.tokens.At(i)
}

// Tokens returns all tokens. The slice must not be modified.
func (ts *TokenStream) Tokens() []Token {
	return ts.tokens.Items()
}

// Problems returns the problems found while scanning.
func (ts *TokenStream) Problems() []error {
	return ts.problems
}

// Arena returns the arena the tokens are allocated from.
func (ts *TokenStream) Arena() *arena.Arena {
	return ts.arena
}

// Free returns the space of the token stream to its arena. Token text must
// not be used afterwards.
func (ts *TokenStream) Free() {
	if ts.freed {
		return
	}
	ts.tokens.Free()
	ts.arena.Release(ts.mark)
	ts.freed = true
}

// Tokenize scans buf into a stream of tokens: the markers '<', '>', '=' and
// '/', names and quoted values. A name starts with a letter and runs up to
// whitespace or one of the characters = < > / ". Everything else, including
// processing instructions, comments and declarations, is skipped.
//
// An unterminated value is recorded as a problem and ends at end of input.
func Tokenize(buf []byte, opts ...Option) *TokenStream {
	o := collect(opts)
	ts := &TokenStream{
		arena:  o.arena,
		mark:   o.arena.Mark(),
		tokens: arena.NewTable[Token](o.arena, len(buf)/4+1),
	}
	add := func(k Kind, pos int, text []byte) {
		var t []byte
		if text != nil {
			if t = ts.arena.Copy(text); t == nil {
				t = []byte{} // empty value
			}
		}
		ts.tokens.Add(Token{Kind: k, Text: t, Pos: pos})
	}
	i := 0
	for i < len(buf) {
		c := buf[i]
		switch {
		case c == '<':
			if n := skipSpecial(buf, i); n > 0 {
				i = n
				continue
			}
			add(OpenMarker, i, nil)
			i++
		case c == '>':
			add(CloseMarker, i, nil)
			i++
		case c == '=':
			add(Equals, i, nil)
			i++
		case c == '/':
			add(SelfCloseMarker, i, nil)
			i++
		case c == '"':
			end := bytes.IndexByte(buf[i+1:], '"')
			if end < 0 {
				ts.problems = append(ts.problems, problem(i, "unterminated attribute value"))
				add(Value, i, buf[i+1:])
				i = len(buf)
				continue
			}
			add(Value, i, buf[i+1:i+1+end])
			i += end + 2
		case isLetter(c):
			start := i
			for i < len(buf) && !isNameEnd(buf[i]) {
				i++
			}
			add(Name, start, buf[start:i])
		default:
			i++
		}
	}
	o.trace.Debugf("tokenized %d bytes into %d tokens", len(buf), ts.tokens.Len())
	return ts
}

var (
	piStart      = []byte("<?")
	piEnd        = []byte("?>")
	commentStart = []byte("<!--")
	commentEnd   = []byte("-->")
	declStart    = []byte("<!")
)

// skipSpecial returns the position after a processing instruction, comment
// or declaration starting at i, or 0 if there is none.
func skipSpecial(buf []byte, i int) int {
	rest := buf[i:]
	var end []byte
	switch {
	case bytes.HasPrefix(rest, piStart):
		end = piEnd
	case bytes.HasPrefix(rest, commentStart):
		end = commentEnd
	case bytes.HasPrefix(rest, declStart):
		end = []byte(">")
	default:
		return 0
	}
	n := bytes.Index(rest[2:], end)
	if n < 0 {
		return len(buf)
	}
	return i + 2 + n + len(end)
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func isNameEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v', '=', '<', '>', '/', '"':
		return true
	}
	return false
}

func problem(pos int, format string, v ...interface{}) error {
	return core.Error(core.ESTRUCTURE, "offset %d: %s", pos, fmt.Sprintf(format, v...))
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Decode prepares a descriptor file for Tokenize. A UTF-8 byte order mark
// is stripped, UTF-16 input (recognized by its BOM) is converted to UTF-8.
// Any other input is returned as is.
func Decode(buf []byte) ([]byte, error) {
	if bytes.HasPrefix(buf, utf8BOM) {
		return buf[len(utf8BOM):], nil
	}
	if len(buf) >= 2 && (buf[0] == 0xff && buf[1] == 0xfe || buf[0] == 0xfe && buf[1] == 0xff) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, buf)
		if err != nil {
			return nil, core.WrapError(err, core.EDECODE, "cannot convert UTF-16 markup")
		}
		tracer().Debugf("converted UTF-16 markup to UTF-8")
		return out, nil
	}
	return buf, nil
}
