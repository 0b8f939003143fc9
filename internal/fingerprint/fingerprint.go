// Package fingerprint provides a cheap, non-cryptographic content
// fingerprint computed alongside the SHA-256 hashes in package emailstore.
// It is bookkeeping only: emailstore counts repeated fingerprints within a
// pending batch for its Stats, and a fingerprint collision never causes
// incorrect deduplication because that decision goes through the SHA-256
// envelope hash.
package fingerprint

import "github.com/cespare/xxhash/v2"

// Sum64 returns a fast 64-bit fingerprint of data, suitable for grouping
// likely-duplicate entries within a single pending batch.
func Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}
