// Package quorum implements the validity and finality predicates over
// anchors submitted by distinct authorized identities. Grounded on
// internal/disputing's verdict-counting shape: tally distinct
// contributions against a threshold, and report the first point of
// disagreement rather than merely failing, per spec.md 4.H.
package quorum

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/ledger"
	"github.com/jrocnet/ledger/internal/policy"
)

// ErrInvalid is returned by Valid when an anchor fails the validity
// predicate.
var ErrInvalid = errors.New("quorum: anchor-invalid")

// TranscriptSource reports whether digest is reproducible from the
// transcript that produced it. Callers back this with their own
// transcript store (KV-backed or file-backed); quorum has no storage
// opinion of its own.
type TranscriptSource func(digest [32]byte) (ok bool, err error)

// Valid implements the validity predicate: every entry's every digest
// must equal the digest recomputed from the transcript that produced it,
// and the first entry must be genesis.
func Valid(entries []ledger.Entry, source TranscriptSource) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: empty anchor", ErrInvalid)
	}
	if entries[0].Statement != ledger.GenesisStatement {
		return fmt.Errorf("%w: first entry is not genesis", ErrInvalid)
	}
	for ei, e := range entries {
		for _, d := range e.Hashes {
			ok, err := source(d)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: entry %d digest %x is not reproducible", ErrInvalid, ei, d)
			}
		}
	}
	return nil
}

// DAQuorumSource reports whether the DA commitment namespace/hash
// referenced by a "da:<namespace>:<hash-hex>" statement has a persisted
// attestation quorum certificate. Callers back this with
// internal/da.Store.HasQC.
type DAQuorumSource func(namespace string, hash [32]byte) bool

// ValidWithDA wraps Valid with spec.md 4.J's additional gate: any entry
// whose statement encodes a da:<namespace>:<hash> reference is rejected
// unless its commitment's quorum certificate is persisted. da may be
// nil, in which case this behaves exactly like Valid.
func ValidWithDA(entries []ledger.Entry, source TranscriptSource, da DAQuorumSource) error {
	if err := Valid(entries, source); err != nil {
		return err
	}
	if da == nil {
		return nil
	}
	for ei, e := range entries {
		namespace, hash, ok := parseDAStatement(e.Statement)
		if !ok {
			continue
		}
		if !da(namespace, hash) {
			return fmt.Errorf("%w: entry %d references da %s/%x without a persisted quorum certificate", ErrInvalid, ei, namespace, hash)
		}
	}
	return nil
}

// parseDAStatement recognizes the da:<namespace>:<hash-hex> statement
// convention; any other statement is simply not DA-gated.
func parseDAStatement(statement string) (namespace string, hash [32]byte, ok bool) {
	const prefix = "da:"
	if !strings.HasPrefix(statement, prefix) {
		return "", hash, false
	}
	rest := statement[len(prefix):]
	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return "", hash, false
	}
	raw, err := hex.DecodeString(rest[idx+1:])
	if err != nil || len(raw) != 32 {
		return "", hash, false
	}
	copy(hash[:], raw)
	return rest[:idx], hash, true
}

// Submission pairs an identity with the anchor entries it reports.
type Submission struct {
	Identity ed25519.PublicKey
	Entries  []ledger.Entry
}

// Divergence names the first entry at which the best-supported anchor
// disagrees with a competing one.
type Divergence struct {
	EntryIndex int
	Statement  string
}

type group struct {
	entries    []ledger.Entry
	identities map[string]struct{}
}

// Final implements the finality predicate: among submissions from
// distinct authorized identities, group byte-equal entry sequences and
// pick the group with the largest distinct-identity count. Finality
// holds if that count is >= q. Duplicate identities within a group count
// once; anchors from an unauthorized identity are ignored entirely.
func Final(submissions []Submission, authz policy.Policy, q int) (bool, *Divergence) {
	var groups []group
	stake, autoSlash := authz.(*policy.Stake)

	for _, s := range submissions {
		if !authz.IsAuthorized(s.Identity) {
			continue
		}
		if autoSlash {
			stake.ObserveAnchor(s.Identity, uint64(len(s.Entries)), ledger.FoldDigest(s.Entries))
		}
		id := string(s.Identity)

		matched := -1
		for gi := range groups {
			if entriesEqual(groups[gi].entries, s.Entries) {
				matched = gi
				break
			}
		}
		if matched == -1 {
			groups = append(groups, group{
				entries:    s.Entries,
				identities: map[string]struct{}{id: {}},
			})
		} else {
			groups[matched].identities[id] = struct{}{}
		}
	}

	if len(groups) == 0 {
		return false, nil
	}

	best := 0
	for i := 1; i < len(groups); i++ {
		if len(groups[i].identities) > len(groups[best].identities) {
			best = i
		}
	}

	if len(groups[best].identities) >= q {
		return true, nil
	}

	return false, firstDivergence(groups, best)
}

func firstDivergence(groups []group, best int) *Divergence {
	var div *Divergence
	for i, g := range groups {
		if i == best {
			continue
		}
		idx, stmt, diverges := compareEntries(groups[best].entries, g.entries)
		if !diverges {
			continue
		}
		if div == nil || idx < div.EntryIndex {
			div = &Divergence{EntryIndex: idx, Statement: stmt}
		}
	}
	return div
}

func compareEntries(a, b []ledger.Entry) (int, string, bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].Statement != b[i].Statement || a[i].MerkleRoot != b[i].MerkleRoot || !hashesEqual(a[i].Hashes, b[i].Hashes) {
			return i, a[i].Statement, true
		}
	}
	if len(a) != len(b) {
		stmt := ""
		if n < len(a) {
			stmt = a[n].Statement
		} else if n < len(b) {
			stmt = b[n].Statement
		}
		return n, stmt, true
	}
	return 0, "", false
}

func entriesEqual(a, b []ledger.Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Statement != b[i].Statement || a[i].MerkleRoot != b[i].MerkleRoot || !hashesEqual(a[i].Hashes, b[i].Hashes) {
			return false
		}
	}
	return true
}

func hashesEqual(a, b [][32]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
