// Package emaildb provides a single-file embedded block store for email
// corpora: a self-describing, checksummed append-only container (package
// blockfile) plus an email batching and deduplication layer on top of it
// (package emailstore).
//
// # Basic usage
//
//	bf, err := blockfile.Open("mail.edb", blockfile.WithCreateIfMissing(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bf.Close()
//
//	store, err := emaildb.NewStore(bf, envelopeIdx, contentIdx, messageIdx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cid, err := store.Store(msg, rawBytes)
//
// envelopeIdx, contentIdx, and messageIdx are caller-supplied
// emailstore.ExternalIndex implementations; this package does not assume
// any particular backing (see emailstore.MemoryIndex for a trivial one).
//
// # Package structure
//
// This file is a thin convenience layer. block defines the on-disk unit,
// blockio frames and scans it, blockfile owns the file and its in-memory
// index, and emailstore is the only package that understands what a
// payload actually contains. Reach into those packages directly for
// anything this wrapper doesn't expose.
package emaildb

import (
	"github.com/emaildb/emaildb/blockfile"
	"github.com/emaildb/emaildb/emailstore"
)

// Option configures a BlockFile opened through this package; it is an
// alias for blockfile.Option so callers don't need two import paths for
// one Open call.
type Option = blockfile.Option

// WithCreateIfMissing creates the underlying file if it doesn't exist.
func WithCreateIfMissing(create bool) Option {
	return blockfile.WithCreateIfMissing(create)
}

// WithLockTimeout bounds how long Open waits to acquire the file's
// advisory lock, in milliseconds. Zero means try once and fail
// immediately.
func WithLockTimeout(ms int) Option {
	return blockfile.WithLockTimeout(ms)
}

// Open opens (or creates, with WithCreateIfMissing) the block file at
// path and returns it ready for direct use with NewStore, or for any
// lower-level blockfile operation.
func Open(path string, opts ...Option) (*blockfile.BlockFile, error) {
	return blockfile.Open(path, opts...)
}

// NewStore wraps an already-open BlockFile with an EmailStore, using the
// three given external indexes for envelope-hash, content-hash, and
// message-id lookups. Only the envelope-hash index decides deduplication;
// the other two are written on every flush.
func NewStore(bf *blockfile.BlockFile, envelopeIdx, contentIdx, messageIdx emailstore.ExternalIndex, opts ...emailstore.Option) (*emailstore.EmailStore, error) {
	return emailstore.NewEmailStore(bf, envelopeIdx, contentIdx, messageIdx, opts...)
}
