package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/assetpipe/backend/sheet"
	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/assetpipe/core/font"
	"github.com/npillmayer/assetpipe/core/locate/resources"
	"github.com/npillmayer/assetpipe/engine/asset"
	"github.com/npillmayer/assetpipe/engine/fontatlas"
	"github.com/npillmayer/assetpipe/input/descriptor"
	"github.com/npillmayer/assetpipe/input/markup"
	"github.com/pterm/pterm"
)

// Intp is our interpreter object
type Intp struct {
	cat  *asset.Catalog
	doc  *markup.Document // last descriptor loaded
	repl *readline.Instance
	out  io.Writer
}

// NewIntp creates an interpreter working on a catalog. Listings go to out.
func NewIntp(cat *asset.Catalog, out io.Writer) *Intp {
	return &Intp{cat: cat, out: out}
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		quit, err := intp.execute(cmd)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	intp.free()
	pterm.Info.Println("Good bye!")
}

// Op codes of commands.
const (
	QUIT int = iota
	HELP
	LOAD
	LIST
	SUMMARY
	ATLAS
	DESCRIBE
	EXPORT
	XPATH
	SELECT
	EVAL
	RENDER
	FONT
	RESET
)

var verbs = map[string]int{
	"quit":     QUIT,
	"exit":     QUIT,
	"help":     HELP,
	"load":     LOAD,
	"list":     LIST,
	"ls":       LIST,
	"summary":  SUMMARY,
	"atlas":    ATLAS,
	"describe": DESCRIBE,
	"export":   EXPORT,
	"xpath":    XPATH,
	"select":   SELECT,
	"eval":     EVAL,
	"render":   RENDER,
	"font":     FONT,
	"reset":    RESET,
}

// minimum number of arguments per op code
var arity = map[int]int{
	LOAD:     1,
	ATLAS:    1,
	DESCRIBE: 1,
	EXPORT:   2,
	XPATH:    1,
	SELECT:   1,
	EVAL:     1,
	FONT:     2,
}

// Command is a parsed input line. Queries take the remainder of the line
// as their single argument, other commands split it at white space.
type Command struct {
	code int
	verb string
	args []string
}

func parseCommand(line string) (*Command, error) {
	line = strings.TrimSpace(line)
	verb, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		verb, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	verb = strings.ToLower(verb)
	code, ok := verbs[verb]
	if !ok {
		return nil, fmt.Errorf("unknown command %q, try 'help'", verb)
	}
	cmd := &Command{code: code, verb: verb}
	switch code {
	case XPATH, SELECT, EVAL:
		if rest != "" {
			cmd.args = []string{rest}
		}
	default:
		cmd.args = strings.Fields(rest)
	}
	if len(cmd.args) < arity[code] {
		return nil, fmt.Errorf("%s needs %d argument(s)", verb, arity[code])
	}
	tracer().Debugf("parse command = %s %v", verb, cmd.args)
	return cmd, nil
}

func (intp *Intp) execute(cmd *Command) (bool, error) {
	switch cmd.code {
	case QUIT:
		return true, nil
	case HELP:
		help(intp.out, optArg(cmd.args, 0))
	case LOAD:
		return false, intp.load(cmd.args[0])
	case LIST:
		return false, sheet.WriteCatalog(intp.out, intp.cat)
	case SUMMARY:
		return false, intp.cat.Summary(intp.out)
	case ATLAS:
		atlas, err := intp.atlas(cmd.args[0])
		if err != nil {
			return false, err
		}
		if len(cmd.args) > 1 {
			for _, name := range atlas.WithPrefix(cmd.args[1]) {
				st, _ := atlas.Region(name)
				fmt.Fprintln(intp.out, st.String())
			}
			return false, nil
		}
		return false, sheet.WriteInventory(intp.out, atlas)
	case DESCRIBE:
		atlas, err := intp.atlas(cmd.args[0])
		if err != nil {
			return false, err
		}
		return false, sheet.WriteDescriptor(intp.out, atlas)
	case EXPORT:
		atlas, err := intp.atlas(cmd.args[0])
		if err != nil {
			return false, err
		}
		if err = sheet.SavePNG(cmd.args[1], atlas.Texture); err == nil {
			pterm.Success.Printfln("texture of %s written to %s", atlas.Name, cmd.args[1])
		}
		return false, err
	case XPATH, SELECT:
		if intp.doc == nil {
			return false, errors.New("no descriptor loaded")
		}
		var ids []markup.NodeID
		var err error
		if cmd.code == XPATH {
			ids, err = markup.XPath(intp.doc, cmd.args[0])
		} else {
			ids, err = markup.Select(intp.doc, cmd.args[0])
		}
		if err != nil {
			return false, err
		}
		intp.printNodes(ids)
	case EVAL:
		if intp.doc == nil {
			return false, errors.New("no descriptor loaded")
		}
		v, err := markup.Evaluate(intp.doc, cmd.args[0])
		if err != nil {
			return false, err
		}
		fmt.Fprintf(intp.out, "%v\n", v)
	case RENDER:
		if intp.doc == nil {
			return false, errors.New("no descriptor loaded")
		}
		return false, intp.doc.Render(intp.out)
	case FONT:
		return false, intp.buildFont(cmd.args)
	case RESET:
		intp.cat.Reset()
		intp.free()
		pterm.Info.Println("catalog cleared")
	}
	return false, nil
}

// load parses a descriptor file, keeps its parse tree for queries and
// ingests it into the catalog.
func (intp *Intp) load(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return core.WrapError(err, core.EMISSING, "cannot read descriptor %s", filename)
	}
	doc, err := markup.Parse(data)
	if err != nil {
		return err
	}
	intp.free()
	intp.doc = doc
	reader := resources.DirReader{Base: filepath.Dir(filename)}
	ip := descriptor.New(intp.cat, descriptor.WithReader(reader))
	report, err := ip.Ingest(doc)
	if report != nil {
		for _, p := range report.Problems {
			pterm.Warning.Println(p.Error())
		}
		pterm.Info.Printfln("%s: %s", filename, report)
	}
	return err
}

func (intp *Intp) free() {
	if intp.doc != nil {
		intp.doc.Free()
		intp.doc = nil
	}
}

func (intp *Intp) atlas(name string) (*asset.TexAtlas, error) {
	atlas, ok := intp.cat.Atlas(name)
	if !ok {
		return nil, core.Error(core.EMISSING, "no atlas %q in catalog", name)
	}
	return atlas, nil
}

func (intp *Intp) printNodes(ids []markup.NodeID) {
	for _, id := range ids {
		var attrs []string
		for _, a := range intp.doc.Attrs(id) {
			attrs = append(attrs, fmt.Sprintf("%s=%q", a.Name, a.Value))
		}
		fmt.Fprintf(intp.out, "%5d  <%s %s>\n", intp.doc.Pos(id), intp.doc.Name(id), strings.Join(attrs, " "))
	}
	fmt.Fprintf(intp.out, "%d node(s)\n", len(ids))
}

// buildFont handles 'font <name> <pixel-height> [file [first last]]'.
func (intp *Intp) buildFont(args []string) error {
	px, err := strconv.ParseFloat(args[1], 64)
	if err != nil || px <= 0 {
		return core.Error(core.EINVALID, "pixel height not a positive number: %s", args[1])
	}
	fontfile := optArg(args, 2)
	var sf *font.ScalableFont
	if fontfile == "" || fontfile == resources.FallbackFontName {
		sf = font.FallbackFont()
	} else if sf, err = resources.FindFont(fontfile); err != nil {
		return err
	}
	lo, hi := rune(descriptor.DefaultFirstCodepoint), rune(descriptor.DefaultLastCodepoint)
	if len(args) > 4 {
		first, err1 := strconv.Atoi(args[3])
		last, err2 := strconv.Atoi(args[4])
		if err1 != nil || err2 != nil {
			return core.Error(core.EINVALID, "code-point range not numeric: %s..%s", args[3], args[4])
		}
		lo, hi = rune(first), rune(last)
	}
	f, err := fontatlas.BuildFromFont(intp.cat, args[0], sf, lo, hi+1, px)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("font %s: %d glyphs, cell %v, line height %.1f", f.Name,
		len(f.Metrics), f.Cell, f.LineHeight())
	return nil
}

func help(w io.Writer, topic string) {
	switch strings.ToLower(topic) {
	case "xpath", "select", "eval":
		fmt.Fprintln(w, `
	Queries work on the parse tree of the last descriptor loaded.

	xpath  //SubTexture[@width>16]     XPath, lists matching elements
	eval   count(//SubTexture)         XPath expressions with a value
	select TextureAtlas > subtexture   CSS selectors, names in lower case`)
	case "font":
		fmt.Fprintln(w, `
	font <name> <pixel-height> [file [first last]]

	Rasterizes code points first..last (inclusive, default 32..126) of a font
	file or a system font into a new font atlas. Without a file the fallback
	font is used.`)
	default:
		fmt.Fprintln(w, `
	load <descriptor>             ingest a descriptor file
	list | summary                list the catalog
	atlas <name> [prefix]         list sub-textures of an atlas
	describe <atlas>              print an atlas as descriptor markup
	export <atlas> <file.png>     write the texture of an atlas
	xpath | select | eval <query> query the last descriptor, see 'help xpath'
	render                        print the last descriptor
	font <name> <px> ...          build a font atlas, see 'help font'
	reset                         clear the catalog
	quit`)
	}
}

func optArg(s []string, inx int) string {
	if len(s) > inx {
		return s[inx]
	}
	return ""
}
