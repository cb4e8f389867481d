package migration

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/jrocnet/ledger/internal/crypto"
	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/policy"
	"github.com/jrocnet/ledger/pkg/db"
)

// Key prefixes start well above internal/da's range (share/commitment/
// qc/fee/evidence) so the two packages can safely share one underlying
// KV store.
const (
	prefixBurnIntent byte = iota + 16
	prefixExecutorState
)

var executorStateKey = []byte{prefixExecutorState}

// BurnIntent is one external event retiring an account's stake, per
// spec.md 4.K: {token_contract, pubkey_b64, reason}.
type BurnIntent struct {
	TokenContract string `json:"token_contract"`
	PubKeyB64     string `json:"pubkey_b64"`
	Reason        string `json:"reason"`
}

// Journal is the append-only burn-intent outbox, keyed by sequential
// position so the executor can resume from a persisted cursor. Laid out
// like internal/da's evidence outbox: a fixed prefix followed by a
// big-endian sequence number.
type Journal struct {
	kv  db.KVStore
	seq uint64
}

// NewJournal builds a Journal over kv, continuing the sequence after
// whatever has already been appended.
func NewJournal(kv db.KVStore) (*Journal, error) {
	j := &Journal{kv: kv}
	it, err := kv.NewIterator([]byte{prefixBurnIntent}, []byte{prefixBurnIntent + 1})
	if err != nil {
		return nil, fmt.Errorf("migration: journal iterator: %w", err)
	}
	defer it.Close()
	for it.Next() {
		seq := binary.BigEndian.Uint64(it.Key()[1:])
		if seq+1 > j.seq {
			j.seq = seq + 1
		}
	}
	return j, nil
}

// Append writes intent as the next journal entry.
func (j *Journal) Append(intent BurnIntent) error {
	encoded, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("migration: marshal burn intent: %w", err)
	}
	key := burnIntentKey(j.seq)
	j.seq++
	return j.kv.Put(key, encoded)
}

func burnIntentKey(seq uint64) []byte {
	key := make([]byte, 1+8)
	key[0] = prefixBurnIntent
	binary.BigEndian.PutUint64(key[1:], seq)
	return key
}

// ExecutorState is the persisted {cursor, processed_hash} pair that
// makes replaying the journal idempotent, per spec.md 4.K.
type ExecutorState struct {
	Cursor        uint64 `json:"cursor"`
	ProcessedHash string `json:"processed_hash"`
}

// Executor consumes the burn-intent journal in order, debiting the
// corresponding stake entry for each record, and persists its progress
// so a re-run never double-debits an already-processed intent.
type Executor struct {
	kv    db.KVStore
	stake *policy.Stake
}

// NewExecutor builds an Executor over kv (shared with the Journal it
// drains) and stake (the registry it debits).
func NewExecutor(kv db.KVStore, stake *policy.Stake) *Executor {
	return &Executor{kv: kv, stake: stake}
}

func (e *Executor) loadState() (ExecutorState, error) {
	raw, err := e.kv.Get(executorStateKey)
	if err != nil {
		return ExecutorState{}, nil
	}
	if raw == nil {
		return ExecutorState{}, nil
	}
	var state ExecutorState
	if err := json.Unmarshal(raw, &state); err != nil {
		return ExecutorState{}, fmt.Errorf("migration: unmarshal executor state: %w", err)
	}
	return state, nil
}

func (e *Executor) saveState(state ExecutorState) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("migration: marshal executor state: %w", err)
	}
	return e.kv.Put(executorStateKey, encoded)
}

// Run processes every journal entry at or after the persisted cursor,
// debiting the named account's entire balance and bonded stake (the
// account is being retired) and advancing the cursor and rolling
// processed_hash after each record. It returns the number of intents
// processed. Calling Run again with no new entries processes zero
// intents and leaves state unchanged, since iteration starts at the
// persisted cursor rather than at the journal's beginning.
func (e *Executor) Run() (int, error) {
	state, err := e.loadState()
	if err != nil {
		return 0, err
	}

	it, err := e.kv.NewIterator(burnIntentKey(state.Cursor), []byte{prefixBurnIntent + 1})
	if err != nil {
		return 0, fmt.Errorf("migration: executor iterator: %w", err)
	}
	defer it.Close()

	processed := 0
	chain := state.ProcessedHash
	cursor := state.Cursor
	for it.Next() {
		raw, err := it.Value()
		if err != nil {
			return processed, fmt.Errorf("migration: executor read: %w", err)
		}
		var intent BurnIntent
		if err := json.Unmarshal(raw, &intent); err != nil {
			return processed, fmt.Errorf("migration: unmarshal burn intent: %w", err)
		}

		if err := e.debit(intent); err != nil {
			return processed, err
		}

		chain = nextProcessedHash(chain, raw)
		cursor = binary.BigEndian.Uint64(it.Key()[1:]) + 1
		processed++

		if err := e.saveState(ExecutorState{Cursor: cursor, ProcessedHash: chain}); err != nil {
			return processed, err
		}
	}
	return processed, nil
}

func (e *Executor) debit(intent BurnIntent) error {
	pk, err := base64.StdEncoding.DecodeString(intent.PubKeyB64)
	if err != nil {
		return fmt.Errorf("migration: decode pubkey_b64: %w", err)
	}
	entry, ok := e.stake.Entry(ed25519.PublicKey(pk))
	if !ok {
		return nil
	}
	entry.Balance = 0
	entry.Bonded = 0
	e.stake.SetEntry(ed25519.PublicKey(pk), entry)
	return nil
}

// nextProcessedHash folds raw into the rolling processed_hash chain, so
// the persisted hash commits to the exact sequence of records consumed
// so far, not just their count.
func nextProcessedHash(prevHex string, raw []byte) string {
	buf := make([]byte, 0, len(prevHex)/2+len(raw))
	if prevHex != "" {
		prev, err := hex.DecodeString(prevHex)
		if err == nil {
			buf = append(buf, prev...)
		}
	}
	buf = append(buf, raw...)
	next := crypto.HashData(buf)
	return hex.EncodeToString(next[:])
}
