/*
Package registry implements a hash-chained store for assets, keyed by name.

A registry has a fixed number of buckets, chosen at construction. A key is
placed into bucket

    Hash(key, seed) mod capacity

where Hash is the 32-bit murmur3 hash (x86 variant). The hash is stable
across runs, so bucket placement can be relied upon in tests. Each bucket
holds its first entry in place; further entries hashing to the same bucket
are chained in insertion order.

Keys are unique within a registry. Inserting a present key is an error
rather than an update. A fixed registry holding as many entries as it has
buckets rejects further inserts; a growable registry doubles its bucket
count and rehashes instead.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package registry

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'assets.registry'.
func tracer() tracing.Trace {
	return tracing.Select("assets.registry")
}
