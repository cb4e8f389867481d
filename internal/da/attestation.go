package da

import (
	"errors"

	"github.com/jrocnet/ledger/internal/crypto"
	"github.com/jrocnet/ledger/internal/crypto/ed25519"
)

// ErrSignatureInvalid is returned by Attest when the submitted
// signature does not verify against the commitment's attestation message
// (namespace, blob hash and share_root).
var ErrSignatureInvalid = errors.New("da: attestation signature invalid")

// attestationMessage is the domain-separated message attestors sign,
// binding the signature to this namespace/hash pair rather than just
// the bare share_root (which by itself says nothing about which blob it
// commits to).
func attestationMessage(namespace string, hash, shareRoot [32]byte) []byte {
	msg := make([]byte, 0, len(namespace)+64)
	msg = append(msg, []byte(namespace)...)
	msg = append(msg, hash[:]...)
	msg = append(msg, shareRoot[:]...)
	return msg
}

// Attest fetches the commitment, verifies sig over its attestation
// message under signer's key, records the attestation (once per distinct
// signer), and persists a quorum certificate once attestationQuorum
// distinct signers have been collected. Signers are counted without
// checking any bond or stake entry.
func (s *Store) Attest(namespace string, hash [32]byte, signer ed25519.PublicKey, sig []byte) (Commitment, bool, error) {
	c, err := s.GetCommitment(namespace, hash)
	if err != nil {
		return Commitment{}, false, err
	}

	msg := attestationMessage(namespace, c.Hash, c.ShareRoot)
	if !ed25519.Verify(signer, msg, sig) {
		return Commitment{}, false, ErrSignatureInvalid
	}

	seen := make(crypto.PublicKeySet, len(c.Attestations))
	for _, a := range c.Attestations {
		seen.Add(a.Signer)
	}
	if !seen.Has(signer) {
		c.Attestations = append(c.Attestations, Attestation{Signer: signer, Signature: sig})
	}

	if err := s.putCommitment(c); err != nil {
		return Commitment{}, false, err
	}

	qcFormed := len(c.Attestations) >= s.attestationQuorum
	if qcFormed {
		if err := s.persistQC(c); err != nil {
			return Commitment{}, false, err
		}
	}

	return c, qcFormed, nil
}

func (s *Store) persistQC(c Commitment) error {
	return s.kv.Put(qcKey(c.Namespace, c.Hash), c.ShareRoot[:])
}

// HasQC reports whether a quorum certificate has been persisted for
// namespace/hash. Anchors referencing a namespace/hash without a
// persisted QC are rejected by the Valid gate, per spec.md 4.J.
func (s *Store) HasQC(namespace string, hash [32]byte) bool {
	_, err := s.kv.Get(qcKey(namespace, hash))
	return err == nil
}

// VerifyAttestationSignature is exposed standalone so callers (e.g. the
// quorum validity gate) can check a signature without constructing a
// full Store round trip.
func VerifyAttestationSignature(namespace string, hash, shareRoot [32]byte, signer ed25519.PublicKey, sig []byte) bool {
	return ed25519.Verify(signer, attestationMessage(namespace, hash, shareRoot), sig)
}
