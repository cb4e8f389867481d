// Package ledger implements the append-only statement+digest log and its
// anchor serialization. Grounded on spec.md 4.G/4.H/9's explicit
// recommendation: the ledger is single-writer via a task (goroutine) that
// owns the log, fed by a request channel, with readers taking an
// immutable snapshot rather than contending on a mutex.
package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jrocnet/ledger/internal/merkle"
)

// GenesisStatement and GenesisDigestHex are fixed per spec.md 6: every
// ledger is created with this entry before any user-submitted one.
const (
	GenesisStatement = "JULIAN::GENESIS"
	GenesisDigestHex = "139f1985df5b36dae23fa509fb53a006ba58e28e6dbb41d6d71cc1e91a82d84a"
	anchorDomainTag  = "JROC_ANCHOR"
	SchemaAnchorV1   = "jrocnet.anchor.v1"
)

// ErrDuplicateDigest is returned by Push when the digest being appended
// already exists within the target entry.
var ErrDuplicateDigest = errors.New("ledger: duplicate digest within entry")

// Entry is one EntryAnchor: a statement plus its insertion-ordered list
// of transcript digests and the Merkle root over them.
type Entry struct {
	Statement  string
	Hashes     [][32]byte
	MerkleRoot [32]byte
}

func genesisDigest() [32]byte {
	b, err := hex.DecodeString(GenesisDigestHex)
	if err != nil {
		panic(fmt.Sprintf("ledger: invalid genesis digest constant: %v", err))
	}
	var out [32]byte
	copy(out[:], b)
	return out
}

func newGenesisEntry() Entry {
	d := genesisDigest()
	return Entry{
		Statement:  GenesisStatement,
		Hashes:     [][32]byte{d},
		MerkleRoot: merkle.Build(leafPayloads([][32]byte{d})).Root(),
	}
}

func leafPayloads(digests [][32]byte) [][]byte {
	out := make([][]byte, len(digests))
	for i, d := range digests {
		dd := d
		out[i] = dd[:]
	}
	return out
}

// request is a single mutation or read sent to the owning goroutine.
type request struct {
	kind  requestKind
	entry entryPush
	reply chan response
}

type requestKind int

const (
	reqPush requestKind = iota
	reqSnapshot
)

type entryPush struct {
	statement string
	digest    [32]byte
}

type response struct {
	err      error
	snapshot []Entry
}

// Ledger owns its entries exclusively through a single background
// goroutine; all other access goes through channel requests, per the
// teacher's preference (seen across its disputing/assuring pipelines) for
// sequential validation over shared-mutable-state locking.
type Ledger struct {
	requests chan request
	done     chan struct{}
}

// New creates a ledger seeded with the fixed genesis entry and starts its
// owning goroutine.
func New() *Ledger {
	return Restore([]Entry{newGenesisEntry()})
}

// Restore starts a Ledger's owning goroutine over an already-built entry
// sequence, for CLI invocations that reload a previously saved ledger
// rather than beginning at genesis.
func Restore(entries []Entry) *Ledger {
	l := &Ledger{
		requests: make(chan request),
		done:     make(chan struct{}),
	}
	go l.run(entries)
	return l
}

func (l *Ledger) run(entries []Entry) {
	for req := range l.requests {
		switch req.kind {
		case reqPush:
			err := pushLocked(&entries, req.entry.statement, req.entry.digest)
			req.reply <- response{err: err}
		case reqSnapshot:
			snap := make([]Entry, len(entries))
			copy(snap, entries)
			req.reply <- response{snapshot: snap}
		}
	}
	close(l.done)
}

// pushLocked implements push(statement, digest) per spec.md 4.G: append
// to the last entry if its statement matches, else open a new entry;
// recompute that entry's merkle_root; reject a digest already present in
// the target entry.
func pushLocked(entries *[]Entry, statement string, digest [32]byte) error {
	es := *entries
	if len(es) > 0 && es[len(es)-1].Statement == statement {
		last := &es[len(es)-1]
		for _, h := range last.Hashes {
			if h == digest {
				return ErrDuplicateDigest
			}
		}
		last.Hashes = append(last.Hashes, digest)
		last.MerkleRoot = merkle.Build(leafPayloads(last.Hashes)).Root()
		return nil
	}

	entry := Entry{
		Statement: statement,
		Hashes:    [][32]byte{digest},
	}
	entry.MerkleRoot = merkle.Build(leafPayloads(entry.Hashes)).Root()
	*entries = append(es, entry)
	return nil
}

// Push appends digest under statement, per the semantics of pushLocked.
func (l *Ledger) Push(statement string, digest [32]byte) error {
	reply := make(chan response, 1)
	l.requests <- request{kind: reqPush, entry: entryPush{statement: statement, digest: digest}, reply: reply}
	return (<-reply).err
}

// Snapshot returns an immutable copy of the current entries.
func (l *Ledger) Snapshot() []Entry {
	reply := make(chan response, 1)
	l.requests <- request{kind: reqSnapshot, reply: reply}
	return (<-reply).snapshot
}

// Close stops the owning goroutine. No further calls to Push or Snapshot
// are valid afterward.
func (l *Ledger) Close() {
	close(l.requests)
	<-l.done
}

// FoldDigest computes H("JROC_ANCHOR" || d_0 || d_1 || ...) over every
// transcript digest across every entry, in insertion order, per
// spec.md 3.
func FoldDigest(entries []Entry) [32]byte {
	return foldDigestTagged(entries, anchorDomainTag)
}

// FieldReductionHint returns u64_be(fold[0..8]) mod p, an informational
// value for human verification rituals, not consensus, per spec.md 4.G.
func FieldReductionHint(fold [32]byte, p uint64) uint64 {
	var v uint64
	for _, b := range fold[:8] {
		v = v<<8 | uint64(b)
	}
	return v % p
}
