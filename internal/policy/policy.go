// Package policy implements the membership-set variants that govern
// which identities count toward quorum. Grounded on the teacher's
// crypto.PublicKeySet for the closed-set case, generalized into a small
// tagged-variant capability set per spec.md 4.I rather than an
// inheritance hierarchy.
package policy

import (
	"errors"

	"github.com/jrocnet/ledger/internal/crypto"
	"github.com/jrocnet/ledger/internal/crypto/ed25519"
)

// ErrThresholdNotMet is returned by a multisig update when fewer than K
// signers endorse the rotation payload.
var ErrThresholdNotMet = errors.New("policy: signer threshold not met")

// ErrBondingFrozen is returned by Bond when the process-wide migration
// freeze is active.
var ErrBondingFrozen = errors.New("policy: bonding frozen for migration")

// Policy is the common capability set across static, multisig, and
// stake-backed membership variants.
type Policy interface {
	IsAuthorized(pk ed25519.PublicKey) bool
	Snapshot() crypto.PublicKeySet
}

// Static is a closed, fixed set of authorized keys.
type Static struct {
	members crypto.PublicKeySet
}

// NewStatic builds a Static policy over the given keys.
func NewStatic(keys ...ed25519.PublicKey) *Static {
	members := make(crypto.PublicKeySet, len(keys))
	for _, k := range keys {
		members.Add(k)
	}
	return &Static{members: members}
}

func (s *Static) IsAuthorized(pk ed25519.PublicKey) bool {
	return s.members.Has(pk)
}

func (s *Static) Snapshot() crypto.PublicKeySet {
	out := make(crypto.PublicKeySet, len(s.members))
	for k := range s.members {
		out[k] = struct{}{}
	}
	return out
}

// Multisig requires at least Threshold signer endorsements (ed25519
// signatures over the update payload, by keys already in Signers) to
// accept a membership rotation, per spec.md 4.I.
type Multisig struct {
	Threshold int
	Signers   crypto.PublicKeySet
	members   crypto.PublicKeySet
}

// NewMultisig builds a Multisig policy with the given signer set,
// threshold, and initial membership.
func NewMultisig(threshold int, signers []ed25519.PublicKey, members []ed25519.PublicKey) *Multisig {
	signerSet := make(crypto.PublicKeySet, len(signers))
	for _, k := range signers {
		signerSet.Add(k)
	}
	memberSet := make(crypto.PublicKeySet, len(members))
	for _, k := range members {
		memberSet.Add(k)
	}
	return &Multisig{Threshold: threshold, Signers: signerSet, members: memberSet}
}

func (m *Multisig) IsAuthorized(pk ed25519.PublicKey) bool {
	return m.members.Has(pk)
}

func (m *Multisig) Snapshot() crypto.PublicKeySet {
	out := make(crypto.PublicKeySet, len(m.members))
	for k := range m.members {
		out[k] = struct{}{}
	}
	return out
}

// Endorsement pairs a signer's public key with its signature over an
// update payload.
type Endorsement struct {
	Signer    ed25519.PublicKey
	Signature []byte
}

// Rotate replaces the membership set with newMembers if at least
// Threshold distinct, authorized signers endorse payload.
func (m *Multisig) Rotate(payload []byte, newMembers []ed25519.PublicKey, endorsements []Endorsement) error {
	seen := make(crypto.PublicKeySet)
	count := 0
	for _, e := range endorsements {
		if !m.Signers.Has(e.Signer) {
			continue
		}
		if seen.Has(e.Signer) {
			continue
		}
		if !ed25519.Verify(e.Signer, payload, e.Signature) {
			continue
		}
		seen.Add(e.Signer)
		count++
	}
	if count < m.Threshold {
		return ErrThresholdNotMet
	}

	members := make(crypto.PublicKeySet, len(newMembers))
	for _, k := range newMembers {
		members.Add(k)
	}
	m.members = members
	return nil
}

// StakeEntry tracks one identity's bonding state under the stake
// variant.
type StakeEntry struct {
	Balance uint64
	Bonded  uint64
	Slashed bool
}

// Stake authorizes a pk iff its bonded amount meets BondThreshold and it
// has not been slashed, per spec.md 4.I. ObserveAnchor implements
// auto-slashing: an authorized pk seen signing two distinct anchors at
// the same logical position is marked slashed.
type Stake struct {
	BondThreshold uint64
	entries       map[[crypto.Ed25519PublicSize]byte]*StakeEntry
	seenAt        map[stakeObservationKey][32]byte
	frozen        bool
}

type stakeObservationKey struct {
	pk       [crypto.Ed25519PublicSize]byte
	position uint64
}

// NewStake builds a Stake policy with the given bond threshold and
// initial entries.
func NewStake(bondThreshold uint64, initial map[[crypto.Ed25519PublicSize]byte]StakeEntry) *Stake {
	entries := make(map[[crypto.Ed25519PublicSize]byte]*StakeEntry, len(initial))
	for k, v := range initial {
		vv := v
		entries[k] = &vv
	}
	return &Stake{
		BondThreshold: bondThreshold,
		entries:       entries,
		seenAt:        make(map[stakeObservationKey][32]byte),
	}
}

func (s *Stake) IsAuthorized(pk ed25519.PublicKey) bool {
	e, ok := s.entries[[crypto.Ed25519PublicSize]byte(pk)]
	if !ok {
		return false
	}
	return e.Bonded >= s.BondThreshold && !e.Slashed
}

func (s *Stake) Snapshot() crypto.PublicKeySet {
	out := make(crypto.PublicKeySet)
	for k, e := range s.entries {
		if e.Bonded >= s.BondThreshold && !e.Slashed {
			out[k] = struct{}{}
		}
	}
	return out
}

// Entry returns a copy of pk's stake entry, if present.
func (s *Stake) Entry(pk ed25519.PublicKey) (StakeEntry, bool) {
	e, ok := s.entries[[crypto.Ed25519PublicSize]byte(pk)]
	if !ok {
		return StakeEntry{}, false
	}
	return *e, true
}

// SetEntry replaces pk's stake entry, creating it if absent. Used by the
// fee flow to debit/credit balances outside of the bonding lifecycle.
func (s *Stake) SetEntry(pk ed25519.PublicKey, entry StakeEntry) {
	key := [crypto.Ed25519PublicSize]byte(pk)
	e, ok := s.entries[key]
	if !ok {
		e = &StakeEntry{}
		s.entries[key] = e
	}
	*e = entry
}

// SetFrozen toggles the process-wide migration freeze. While frozen,
// Bond rejects every stake-bonding transition; existing entries and
// IsAuthorized are unaffected, per spec.md 4.K's ingress freeze.
func (s *Stake) SetFrozen(frozen bool) {
	s.frozen = frozen
}

// Bond increases pk's bonded amount by delta, creating the entry if
// absent. It is the only mutating entry point subject to the migration
// freeze; SetEntry remains available for fee settlement, which spec.md
// 4.K's freeze does not name.
func (s *Stake) Bond(pk ed25519.PublicKey, delta uint64) error {
	if s.frozen {
		return ErrBondingFrozen
	}
	key := [crypto.Ed25519PublicSize]byte(pk)
	e, ok := s.entries[key]
	if !ok {
		e = &StakeEntry{}
		s.entries[key] = e
	}
	e.Bonded += delta
	return nil
}

// ObserveAnchor records that pk signed digest at the given logical
// position. If pk was already observed at that position with a
// different digest, pk is slashed and true is returned (the caller
// should emit fault evidence). Positions are caller-defined (typically
// an entry index) and only meaningful within a single observation
// stream.
func (s *Stake) ObserveAnchor(pk ed25519.PublicKey, position uint64, digest [32]byte) bool {
	key := stakeObservationKey{pk: [crypto.Ed25519PublicSize]byte(pk), position: position}
	prior, seen := s.seenAt[key]
	s.seenAt[key] = digest
	if !seen || prior == digest {
		return false
	}
	if e, ok := s.entries[key.pk]; ok {
		e.Slashed = true
		return true
	}
	return false
}
