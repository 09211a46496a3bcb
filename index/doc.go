// Package index provides the secondary index of the identity cache.
//
// The index maps an identity key (an ordered sequence of string tokens derived from a
// cached value) to the primary keys the value is cached under. It is split into buckets
// guarded by their own locks, so writers for unrelated identities do not contend.
//
// Entries are immutable once published: Add and Remove replace the entry for an
// identity key instead of modifying it, which lets Lookup and Scan hand out data
// read under a bucket read lock without copying the whole index.
//
// Scan is a linear pass over every entry and is meant for eviction by token,
// not for hot read paths.
package index
