package resources

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/assetpipe/core/font"
)

type resourceType int

// resource types
const (
	unknownResourceType resourceType = iota
	fontResourceType
	fileResourceType
)

// NotFound returns an application error for a missing resource.
func NotFound(res string, rtype resourceType, cause error) error {
	if cause == nil {
		cause = fmt.Errorf("resource missing: %v", res)
	}
	var s string
	switch rtype {
	case fileResourceType:
		s = fmt.Sprintf("file not found: %s", res)
	case fontResourceType:
		s = fmt.Sprintf("font not found: %s", res)
	default:
		s = fmt.Sprintf("resource not found: %s", res)
	}
	return core.WrapError(cause, core.EMISSING, "%s", s)
}

// --- Files -----------------------------------------------------------------

// Reader reads asset files.
type Reader interface {
	Read(name string) ([]byte, error)
}

// DirReader reads files relative to a base directory of the OS file system.
// Absolute names are read as they are.
type DirReader struct {
	Base string
}

// Read reads a file. Errors carry code EMISSING.
func (r DirReader) Read(name string) ([]byte, error) {
	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.Base, filepath.FromSlash(name))
	}
	tracer().Debugf("reading file %s", p)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, NotFound(p, fileResourceType, err)
	}
	return data, nil
}

// FSReader reads files from a file system abstraction, e.g. an embed.FS.
// Names are slash-separated and relative to Root within FS.
type FSReader struct {
	FS   fs.FS
	Root string
}

// Read reads a file. Errors carry code EMISSING.
func (r FSReader) Read(name string) ([]byte, error) {
	p := path.Clean(path.Join(r.Root, strings.TrimPrefix(name, "/")))
	tracer().Debugf("reading %s from file system", p)
	data, err := fs.ReadFile(r.FS, p)
	if err != nil {
		return nil, NotFound(p, fileResourceType, err)
	}
	return data, nil
}

// --- Fonts -----------------------------------------------------------------

// FallbackFontName is the name under which FindFont returns the fallback font.
const FallbackFontName = "fallback"

// FindFont resolves a font by name. The name may be a font file path, a font
// file name or base name searched for in the system's font directories, or
// FallbackFontName.
func FindFont(name string) (*font.ScalableFont, error) {
	if name == "" || name == FallbackFontName {
		return font.FallbackFont(), nil
	}
	if _, err := os.Stat(name); err == nil {
		return font.LoadOpenTypeFont(name)
	}
	fpath, err := findfont.Find(name) // try to find as system font
	if err != nil || fpath == "" {
		if err == nil {
			err = errors.New("no matching font file")
		}
		tracer().Infof("font %s is not a system font", name)
		return nil, NotFound(name, fontResourceType, err)
	}
	tracer().Debugf("%s is a system font at %s", name, fpath)
	return font.LoadOpenTypeFont(fpath)
}
