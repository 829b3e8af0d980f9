package asset

import (
	"sort"

	"github.com/derekparker/trie"
	"github.com/npillmayer/assetpipe/core/registry"
)

// DefaultSubTextureCapacity is the number of buckets of an atlas' region
// registry if no capacity is given.
const DefaultSubTextureCapacity = 128

// TexAtlas is a texture together with named rectangular regions of it.
type TexAtlas struct {
	Name    string
	Texture *Texture
	Regions *registry.Registry[SubTexture]
	names   *trie.Trie // prefix index of region names
}

// NewTexAtlas creates an atlas for a texture. Options are passed to the
// region registry.
func NewTexAtlas(name string, tex *Texture, capacity int, opts ...registry.Option) *TexAtlas {
	if capacity <= 0 {
		capacity = DefaultSubTextureCapacity
	}
	opts = append([]registry.Option{registry.Named("atlas " + name)}, opts...)
	return &TexAtlas{
		Name:    name,
		Texture: tex,
		Regions: registry.New[SubTexture](capacity, opts...),
		names:   trie.New(),
	}
}

// Add registers a region under its name. Errors are those of
// registry.Insert.
func (a *TexAtlas) Add(st SubTexture) error {
	if err := a.Regions.Put(st.Name, st); err != nil {
		return err
	}
	a.names.Add(st.Name, nil)
	return nil
}

// Region returns the region registered under name.
func (a *TexAtlas) Region(name string) (SubTexture, bool) {
	return a.Regions.Get(name)
}

// Remove drops a region.
func (a *TexAtlas) Remove(name string) bool {
	if !a.Regions.Remove(name) {
		return false
	}
	a.names.Remove(name)
	return true
}

// Len returns the number of regions.
func (a *TexAtlas) Len() int {
	return a.Regions.Len()
}

// WithPrefix returns the names of all regions starting with prefix, sorted.
// An empty prefix selects all regions.
func (a *TexAtlas) WithPrefix(prefix string) []string {
	var names []string
	if prefix == "" {
		names = a.Regions.Keys()
	} else if a.names.HasKeysWithPrefix(prefix) {
		names = a.names.PrefixSearch(prefix)
	}
	sort.Strings(names)
	return names
}
