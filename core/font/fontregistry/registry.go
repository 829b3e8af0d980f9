package fontregistry

import (
	"sort"
	"sync"

	"github.com/npillmayer/assetpipe/core/font"
	"github.com/npillmayer/schuko/tracing"
)

// Registry is a type for holding fonts which have been loaded, so that
// descriptors referencing the same font file parse it only once.
type Registry struct {
	sync.Mutex
	fonts map[string]*font.ScalableFont
}

var globalFontRegistry *Registry

var globalRegistryCreation sync.Once

// GlobalRegistry is an application-wide singleton to hold loaded fonts.
func GlobalRegistry() *Registry {
	globalRegistryCreation.Do(func() {
		globalFontRegistry = NewRegistry()
	})
	return globalFontRegistry
}

// NewRegistry creates an empty font registry.
func NewRegistry() *Registry {
	return &Registry{
		fonts: make(map[string]*font.ScalableFont),
	}
}

// Key is the registry key for a font name or font file path.
func Key(name string) string {
	return font.NormalizeFontname(name)
}

// StoreFont pushes a font into the registry if it isn't contained yet.
//
// The font will be stored using the normalized font name as a key. If this
// key is already associated with a font, that font will not be overridden.
func (fr *Registry) StoreFont(name string, f *font.ScalableFont) {
	if f == nil {
		tracer().Errorf("registry cannot store null font")
		return
	}
	key := Key(name)
	fr.Lock()
	defer fr.Unlock()
	if _, ok := fr.fonts[key]; !ok {
		tracer().Debugf("registry stores font %s as %s", f.Fontname, key)
		fr.fonts[key] = f
	}
}

// Font returns the font stored for name, if any.
func (fr *Registry) Font(name string) (*font.ScalableFont, bool) {
	fr.Lock()
	defer fr.Unlock()
	f, ok := fr.fonts[Key(name)]
	return f, ok
}

// Load returns the font stored for name. If there is none, load is called
// and a font it returns is stored. The registry is not locked while load
// runs.
func (fr *Registry) Load(name string, load func() (*font.ScalableFont, error)) (*font.ScalableFont, error) {
	if f, ok := fr.Font(name); ok {
		tracer().Debugf("registry found font %s", name)
		return f, nil
	}
	f, err := load()
	if err != nil {
		return nil, err
	}
	fr.StoreFont(name, f)
	f, _ = fr.Font(name) // another loader may have won
	return f, nil
}

// Len returns the number of fonts in the registry.
func (fr *Registry) Len() int {
	fr.Lock()
	defer fr.Unlock()
	return len(fr.fonts)
}

// LogFontList is a helper function to dump the list of known fonts in a
// registry to the trace-file (log-level Info).
func (fr *Registry) LogFontList() {
	fr.Lock()
	defer fr.Unlock()
	level := tracer().GetTraceLevel()
	tracer().SetTraceLevel(tracing.LevelInfo)
	tracer().Infof("--- registered fonts ---")
	keys := make([]string, 0, len(fr.fonts))
	for k := range fr.fonts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tracer().Infof("font [%s] = %v", k, fr.fonts[k].Fontname)
	}
	tracer().Infof("------------------------")
	tracer().SetTraceLevel(level)
}
