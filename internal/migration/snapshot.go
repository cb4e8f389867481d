// Package migration implements the registry snapshot, claim Merkle tree,
// and burn-intent executor used to wind a network down into claims on
// another chain, per spec.md 4.K. Grounded on the teacher's
// crypto.KeccakData (already the teacher's own Ethereum-claim-style hash
// wrapper) for leaf hashing, and on internal/ledger's JSON-then-hash
// discipline for the snapshot commitment.
package migration

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jrocnet/ledger/internal/crypto"
	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/policy"
)

// RegistryEntry is one account's snapshot row: balance, bonded stake,
// and slash status at the snapshot height.
type RegistryEntry struct {
	PublicKey ed25519.PublicKey `json:"public_key"`
	Balance   uint64            `json:"balance"`
	Stake     uint64            `json:"stake"`
	Slashed   bool              `json:"slashed"`
}

// Snapshot is the sorted, canonical registry state at a given height.
type Snapshot struct {
	Height  uint64          `json:"height"`
	Entries []RegistryEntry `json:"entries"`
}

// BuildSnapshot reads every entry out of stake and sorts the result
// lexicographically by public key, per spec.md 4.K.
func BuildSnapshot(height uint64, stake *policy.Stake, keys []ed25519.PublicKey) Snapshot {
	entries := make([]RegistryEntry, 0, len(keys))
	for _, pk := range keys {
		e, ok := stake.Entry(pk)
		if !ok {
			continue
		}
		entries = append(entries, RegistryEntry{
			PublicKey: append([]byte(nil), pk...),
			Balance:   e.Balance,
			Stake:     e.Bonded,
			Slashed:   e.Slashed,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return lexLess(entries[i].PublicKey, entries[j].PublicKey)
	})
	return Snapshot{Height: height, Entries: entries}
}

func lexLess(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// CanonicalJSON renders the snapshot with sorted map keys (none here)
// and stable field order, so re-running on the same registry state
// produces byte-identical output, per spec.md 4.K / invariant 10.
func (s Snapshot) CanonicalJSON() ([]byte, error) {
	out, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("migration: marshal snapshot: %w", err)
	}
	return out, nil
}

// Commitment hashes the snapshot's canonical JSON with the teacher's
// keccak wrapper, suitable for appending to the ledger as a new entry's
// digest.
func (s Snapshot) Commitment() (crypto.Hash, error) {
	encoded, err := s.CanonicalJSON()
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.KeccakData(encoded), nil
}
