package da

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/da/pedersen"
	"github.com/jrocnet/ledger/internal/merkle"
	"github.com/jrocnet/ledger/pkg/db"

	"golang.org/x/crypto/blake2b"
)

const blobHashTag = "JROC_BLOB"

var (
	// ErrFrozen is returned by Ingest when migration_mode is frozen.
	ErrFrozen = errors.New("da: ingest rejected, migration mode is frozen")
	// ErrCommitmentNotFound is returned when a namespace/hash pair has no
	// persisted commitment.
	ErrCommitmentNotFound = errors.New("da: commitment not found")
	// ErrShareMissing is returned by Sample/ProveStorage when a requested
	// share is absent from the store.
	ErrShareMissing = errors.New("da: share missing")
)

// Attestation is an attestor's ed25519 signature over a commitment's
// namespace, blob hash and share_root (see attestationMessage), not over
// the bare share_root.
type Attestation struct {
	Signer    ed25519.PublicKey `json:"signer"`
	Signature []byte            `json:"signature"`
}

// Commitment is the persisted record of one ingested blob, per spec.md
// 4.J.
type Commitment struct {
	Namespace    string            `json:"namespace"`
	Hash         [32]byte          `json:"hash"`
	ShareRoot    [32]byte          `json:"share_root"`
	PedersenRoot [32]byte          `json:"pedersen_root"`
	ShareCount   int               `json:"share_count"`
	ShardSize    int               `json:"shard_size"`
	PayloadSize  int               `json:"payload_size"`
	Publisher    ed25519.PublicKey `json:"publisher"`
	Fee          uint64            `json:"fee"`
	Attestations []Attestation     `json:"attestations"`
}

// Store owns the KV-backed share/commitment/QC tables for one node.
type Store struct {
	kv                db.KVStore
	attestationQuorum int
	frozen            bool
	evidenceSeq       uint64
}

// NewStore wraps kv with the DA key layout, gated by the given
// attestation quorum threshold.
func NewStore(kv db.KVStore, attestationQuorum int) *Store {
	return &Store{kv: kv, attestationQuorum: attestationQuorum}
}

// SetFrozen toggles migration_mode=freeze, per spec.md 4.K: a frozen
// store rejects all ingest but continues serving reads (anchor gossip
// continues per spec.md).
func (s *Store) SetFrozen(frozen bool) { s.frozen = frozen }

func blobHash(payload []byte) [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("da: blake2b init: %v", err))
	}
	h.Write([]byte(blobHashTag))
	h.Write(payload)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// splitShares breaks payload into fixed-size shares of shardSize bytes,
// zero-padding the final share. Contiguous (not column-striped) since
// this domain has no erasure-coding recovery requirement — only
// splitting for dual-commitment and sampling purposes.
func splitShares(payload []byte, shardSize int) [][]byte {
	if shardSize <= 0 {
		shardSize = len(payload)
		if shardSize == 0 {
			shardSize = 1
		}
	}
	count := (len(payload) + shardSize - 1) / shardSize
	if count == 0 {
		count = 1
	}
	shares := make([][]byte, count)
	for i := 0; i < count; i++ {
		share := make([]byte, shardSize)
		start := i * shardSize
		end := start + shardSize
		if end > len(payload) {
			end = len(payload)
		}
		copy(share, payload[start:end])
		shares[i] = share
	}
	return shares
}

// Ingest splits payload into shares, computes the dual commitment, and
// persists both the shares and the commitment record. The fee flow
// itself is handled by SettleIngestFee, called separately so Ingest has
// no opinion on the publisher's balance ledger.
func (s *Store) Ingest(namespace string, payload []byte, shardSize int, publisher ed25519.PublicKey, fee uint64) (Commitment, error) {
	if s.frozen {
		return Commitment{}, ErrFrozen
	}
	if len(payload) == 0 {
		return Commitment{}, errors.New("da: empty payload")
	}

	shares := splitShares(payload, shardSize)
	shareRoot := merkle.Build(shares).Root()
	pedersenRoot := pedersen.Build(shares).Root()
	hash := blobHash(payload)

	commitment := Commitment{
		Namespace:    namespace,
		Hash:         hash,
		ShareRoot:    shareRoot,
		PedersenRoot: pedersenRoot,
		ShareCount:   len(shares),
		ShardSize:    shardSize,
		PayloadSize:  len(payload),
		Publisher:    publisher,
		Fee:          fee,
	}

	batch := s.kv.NewBatch()
	defer batch.Close()

	for i, share := range shares {
		if err := batch.Put(shareKey(namespace, hash, uint16(i)), share); err != nil {
			return Commitment{}, fmt.Errorf("da: put share %d: %w", i, err)
		}
	}

	encoded, err := json.Marshal(commitment)
	if err != nil {
		return Commitment{}, fmt.Errorf("da: marshal commitment: %w", err)
	}
	if err := batch.Put(commitmentKey(namespace, hash), encoded); err != nil {
		return Commitment{}, fmt.Errorf("da: put commitment: %w", err)
	}

	if err := batch.Commit(); err != nil {
		return Commitment{}, fmt.Errorf("da: commit ingest batch: %w", err)
	}

	return commitment, nil
}

// GetCommitment loads the persisted commitment for namespace/hash.
func (s *Store) GetCommitment(namespace string, hash [32]byte) (Commitment, error) {
	raw, err := s.kv.Get(commitmentKey(namespace, hash))
	if err != nil {
		return Commitment{}, ErrCommitmentNotFound
	}
	var c Commitment
	if err := json.Unmarshal(raw, &c); err != nil {
		return Commitment{}, fmt.Errorf("da: unmarshal commitment: %w", err)
	}
	return c, nil
}

func (s *Store) putCommitment(c Commitment) error {
	encoded, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("da: marshal commitment: %w", err)
	}
	return s.kv.Put(commitmentKey(c.Namespace, c.Hash), encoded)
}

// GetShare loads share index idx of namespace/hash, returning
// ErrShareMissing if absent.
func (s *Store) GetShare(namespace string, hash [32]byte, idx int) ([]byte, error) {
	raw, err := s.kv.Get(shareKey(namespace, hash, uint16(idx)))
	if err != nil {
		return nil, ErrShareMissing
	}
	return raw, nil
}
