package da

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
)

const prefixEvidence byte = prefixFee + 1

// EvidenceKind names the fault categories the DA layer can observe, per
// spec.md 4.K.
type EvidenceKind string

const (
	EvidenceBlobMissing  EvidenceKind = "blob-missing"
	EvidenceBlobMismatch EvidenceKind = "blob-mismatch"
	EvidenceRollupFault  EvidenceKind = "rollup-fault"
)

// EvidenceRecord is one line of the append-only fault outbox.
type EvidenceRecord struct {
	Kind      EvidenceKind      `json:"kind"`
	Namespace string            `json:"namespace"`
	Hash      [32]byte          `json:"hash"`
	ShareIdx  int               `json:"share_idx,omitempty"`
	Publisher ed25519.PublicKey `json:"publisher,omitempty"`
	Detail    string            `json:"detail,omitempty"`
}

// recordBlobMissing appends a blob-missing record identifying the
// commitment's publisher, per spec.md 4.J: no reward is debited, and
// stake-policy slashing (if any) happens on the next anchor cycle, not
// here.
func (s *Store) recordBlobMissing(c Commitment, shareIdx int) error {
	return s.appendEvidence(EvidenceRecord{
		Kind:      EvidenceBlobMissing,
		Namespace: c.Namespace,
		Hash:      c.Hash,
		ShareIdx:  shareIdx,
		Publisher: c.Publisher,
	})
}

// RecordEvidence appends an arbitrary fault record to the outbox.
// Exposed for the rollup-settle and blob-mismatch paths that originate
// outside this package.
func (s *Store) RecordEvidence(r EvidenceRecord) error {
	return s.appendEvidence(r)
}

func (s *Store) appendEvidence(r EvidenceRecord) error {
	encoded, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("da: marshal evidence: %w", err)
	}

	key := make([]byte, 1+8)
	key[0] = prefixEvidence
	for {
		binary.BigEndian.PutUint64(key[1:], s.nextEvidenceSeq())
		if _, err := s.kv.Get(key); err != nil {
			break
		}
	}
	return s.kv.Put(key, encoded)
}

// nextEvidenceSeq hands out a monotonically increasing sequence number
// for outbox entries, tracked in-memory per Store instance and starting
// at zero. appendEvidence skips sequence numbers whose key is already
// present, so a restarted node appends after the existing records
// instead of overwriting them.
func (s *Store) nextEvidenceSeq() uint64 {
	seq := s.evidenceSeq
	s.evidenceSeq++
	return seq
}

// ListEvidence returns every persisted evidence record, in insertion
// order, for operator inspection or the burn-intent executor.
func (s *Store) ListEvidence() ([]EvidenceRecord, error) {
	start := []byte{prefixEvidence}
	end := []byte{prefixEvidence + 1}
	it, err := s.kv.NewIterator(start, end)
	if err != nil {
		return nil, fmt.Errorf("da: evidence iterator: %w", err)
	}
	defer it.Close()

	var out []EvidenceRecord
	for it.Next() {
		raw, err := it.Value()
		if err != nil {
			return nil, fmt.Errorf("da: evidence value: %w", err)
		}
		var r EvidenceRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("da: unmarshal evidence: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
