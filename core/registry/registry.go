package registry

import (
	"errors"

	"github.com/npillmayer/assetpipe/core"
	"github.com/npillmayer/schuko/tracing"
	"github.com/spaolacci/murmur3"
)

// Errors returned by registry operations. They are wrapped into core errors
// carrying codes ECOLLISION and ECAPACITY.
var (
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrCapacityExceeded = errors.New("registry capacity exceeded")
	ErrEmptyKey         = errors.New("empty key")
)

// Hash returns the 32-bit murmur3 hash of key for a given seed.
func Hash(key string, seed uint32) uint32 {
	return murmur3.Sum32WithSeed([]byte(key), seed)
}

type entry[V any] struct {
	key   string
	value V
	used  bool
	next  *entry[V]
}

// Registry is a hash-chained store of values of type V. Create registries
// with New. A registry is not safe for concurrent mutation.
type Registry[V any] struct {
	name     string
	buckets  []entry[V]
	seed     uint32
	count    int
	growable bool
	trace    tracing.Trace
}

// Option configures a registry.
type Option func(*options)

type options struct {
	name     string
	seed     uint32
	growable bool
	trace    tracing.Trace
}

// WithSeed sets the hash seed.
func WithSeed(seed uint32) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// Growable lets the registry double its buckets when it is full, instead of
// rejecting inserts.
func Growable(grow bool) Option {
	return func(o *options) {
		o.growable = grow
	}
}

// Named sets a name used in trace output and error messages.
func Named(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithTracer routes the registry's trace output to t.
func WithTracer(t tracing.Trace) Option {
	return func(o *options) {
		o.trace = t
	}
}

// New creates a registry with capacity buckets. A capacity below 1 is set to 1.
func New[V any](capacity int, opts ...Option) *Registry[V] {
	o := options{name: "registry"}
	for _, opt := range opts {
		opt(&o)
	}
	if capacity < 1 {
		capacity = 1
	}
	if o.trace == nil {
		o.trace = tracer()
	}
	return &Registry[V]{
		name:     o.name,
		buckets:  make([]entry[V], capacity),
		seed:     o.seed,
		growable: o.growable,
		trace:    o.trace,
	}
}

// Name returns the registry's name.
func (r *Registry[V]) Name() string {
	return r.name
}

// Capacity returns the number of buckets.
func (r *Registry[V]) Capacity() int {
	return len(r.buckets)
}

// Len returns the number of entries.
func (r *Registry[V]) Len() int {
	return r.count
}

// Seed returns the hash seed.
func (r *Registry[V]) Seed() uint32 {
	return r.seed
}

// BucketIndex returns the bucket a key is placed into.
func (r *Registry[V]) BucketIndex(key string) int {
	return int(Hash(key, r.seed) % uint32(len(r.buckets)))
}

// BucketLen returns the number of entries chained in bucket i.
func (r *Registry[V]) BucketLen(i int) int {
	if i < 0 || i >= len(r.buckets) {
		return 0
	}
	n := 0
	for e := &r.buckets[i]; e != nil; e = e.next {
		if e.used {
			n++
		}
	}
	return n
}

// Lookup returns the entry for key. The pointer stays valid until the
// registry grows or the entry is removed.
func (r *Registry[V]) Lookup(key string) (*V, bool) {
	if e := r.find(key); e != nil {
		return &e.value, true
	}
	return nil, false
}

// Get returns a copy of the entry for key.
func (r *Registry[V]) Get(key string) (v V, ok bool) {
	if e := r.find(key); e != nil {
		return e.value, true
	}
	return
}

// Contains returns true if key is present.
func (r *Registry[V]) Contains(key string) bool {
	return r.find(key) != nil
}

func (r *Registry[V]) find(key string) *entry[V] {
	for e := &r.buckets[r.BucketIndex(key)]; e != nil; e = e.next {
		if e.used && e.key == key {
			return e
		}
	}
	return nil
}

// Insert creates the entry for key and returns it for the caller to populate.
// If the head slot of key's bucket is unused, it is filled in place;
// otherwise a new link is appended to the bucket's chain.
//
// Inserting a key which is already present is an error (ErrDuplicateKey),
// the present entry is left untouched. A full registry returns
// ErrCapacityExceeded, unless it is growable.
func (r *Registry[V]) Insert(key string) (*V, error) {
	if key == "" {
		return nil, core.WrapError(ErrEmptyKey, core.EINVALID, "%s: cannot insert empty key", r.name)
	}
	if r.find(key) != nil {
		r.trace.Errorf("%s: duplicate key %q", r.name, key)
		return nil, core.WrapError(ErrDuplicateKey, core.ECOLLISION,
			"%s: key %q is already present", r.name, key)
	}
	if r.count >= len(r.buckets) {
		if !r.growable {
			r.trace.Errorf("%s: capacity %d exhausted, cannot insert %q", r.name, len(r.buckets), key)
			return nil, core.WrapError(ErrCapacityExceeded, core.ECAPACITY,
				"%s: capacity of %d entries exhausted", r.name, len(r.buckets))
		}
		r.grow()
	}
	e := r.place(key)
	r.count++
	return &e.value, nil
}

// Put inserts key with value v.
func (r *Registry[V]) Put(key string, v V) error {
	slot, err := r.Insert(key)
	if err != nil {
		return err
	}
	*slot = v
	return nil
}

func (r *Registry[V]) place(key string) *entry[V] {
	i := r.BucketIndex(key)
	head := &r.buckets[i]
	if !head.used {
		head.key, head.used = key, true
		return head
	}
	e := head
	for e.next != nil {
		e = e.next
	}
	e.next = &entry[V]{key: key, used: true}
	r.trace.Debugf("%s: key %q chained in bucket %d", r.name, key, i)
	return e.next
}

func (r *Registry[V]) grow() {
	old := r.buckets
	r.buckets = make([]entry[V], 2*len(old))
	r.trace.Infof("%s: growing from %d to %d buckets", r.name, len(old), len(r.buckets))
	for i := range old {
		for e := &old[i]; e != nil; e = e.next {
			if e.used {
				n := r.place(e.key)
				n.value = e.value
			}
		}
	}
}

// Remove deletes the entry for key and reports whether it was present.
// A removed head entry leaves its slot free for reuse by the next insert
// into that bucket; its chain stays in place, so entries of other keys
// do not move.
func (r *Registry[V]) Remove(key string) bool {
	head := &r.buckets[r.BucketIndex(key)]
	var zero V
	if head.used && head.key == key {
		head.key, head.value, head.used = "", zero, false
		r.count--
		return true
	}
	for prev, e := head, head.next; e != nil; prev, e = e, e.next {
		if e.key == key {
			prev.next = e.next
			r.count--
			return true
		}
	}
	return false
}

// Keys returns all keys in bucket order, a bucket's head first, then its
// chain in insertion order.
func (r *Registry[V]) Keys() []string {
	keys := make([]string, 0, r.count)
	r.Each(func(key string, _ *V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Each calls fn for every entry in bucket order, until fn returns false.
func (r *Registry[V]) Each(fn func(key string, v *V) bool) {
	for i := range r.buckets {
		for e := &r.buckets[i]; e != nil; e = e.next {
			if e.used && !fn(e.key, &e.value) {
				return
			}
		}
	}
}

// Reset drops all entries, keeping the bucket count.
func (r *Registry[V]) Reset() {
	for i := range r.buckets {
		r.buckets[i] = entry[V]{}
	}
	r.count = 0
}
