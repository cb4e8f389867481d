// Package da implements blob ingest, dual-root commitments, attestation
// quorum certificates, sampling, fault evidence, and the fee flow over a
// data-availability namespace, per spec.md 4.J. Key layout is grounded on
// the teacher's internal/store/availability.go makeAvailabilityKey: a
// single-byte prefix followed by the namespace/hash/index path,
// concatenated rather than joined with separators, stored in the
// pkg/db/pebble KV store rather than literal filesystem paths.
package da

import (
	"encoding/binary"
)

// Key prefixes, one byte each, mirroring the teacher's iota-based prefix
// block in internal/store/common.go.
const (
	prefixShare byte = iota + 1
	prefixCommitment
	prefixQC
	prefixFee
)

// shareKey builds prefix || namespace || hash || u16_le(index).
func shareKey(namespace string, hash [32]byte, index uint16) []byte {
	ns := []byte(namespace)
	key := make([]byte, 1+len(ns)+32+2)
	key[0] = prefixShare
	copy(key[1:], ns)
	copy(key[1+len(ns):], hash[:])
	binary.LittleEndian.PutUint16(key[1+len(ns)+32:], index)
	return key
}

// commitmentKey builds prefix || namespace || hash.
func commitmentKey(namespace string, hash [32]byte) []byte {
	ns := []byte(namespace)
	key := make([]byte, 1+len(ns)+32)
	key[0] = prefixCommitment
	copy(key[1:], ns)
	copy(key[1+len(ns):], hash[:])
	return key
}

// qcKey builds prefix || namespace || hash.
func qcKey(namespace string, hash [32]byte) []byte {
	ns := []byte(namespace)
	key := make([]byte, 1+len(ns)+32)
	key[0] = prefixQC
	copy(key[1:], ns)
	copy(key[1+len(ns):], hash[:])
	return key
}
