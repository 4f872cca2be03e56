// Package snapshot flattens a resolved descriptor graph into a plain
// record list: one entry per class, constructor and member with its
// rendered signature and the entries it overrides.
//
// Snapshots are cached on disk with msgpack, keyed by a digest of the
// inputs, and can be exported as CBOR, msgpack or YAML.
package snapshot
