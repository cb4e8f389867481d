package policy

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
)

func genKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func TestStaticAuthorizesOnlyMembers(t *testing.T) {
	pk1, _ := genKey(t)
	pk2, _ := genKey(t)
	s := NewStatic(pk1)

	assert.True(t, s.IsAuthorized(pk1))
	assert.False(t, s.IsAuthorized(pk2))
	assert.Len(t, s.Snapshot(), 1)
}

func TestMultisigRotateRequiresThreshold(t *testing.T) {
	signer1Pub, signer1Priv := genKey(t)
	signer2Pub, _ := genKey(t)
	memberPub, _ := genKey(t)
	newMemberPub, _ := genKey(t)

	m := NewMultisig(2, []ed25519.PublicKey{signer1Pub, signer2Pub}, []ed25519.PublicKey{memberPub})
	assert.True(t, m.IsAuthorized(memberPub))

	payload := []byte("rotate-to-v2")
	sig := ed25519.Sign(signer1Priv, payload)

	err := m.Rotate(payload, []ed25519.PublicKey{newMemberPub}, []Endorsement{
		{Signer: signer1Pub, Signature: sig},
	})
	assert.ErrorIs(t, err, ErrThresholdNotMet)
	assert.True(t, m.IsAuthorized(memberPub), "membership unchanged after failed rotation")
}

func TestMultisigRotateSucceedsWithThreshold(t *testing.T) {
	signer1Pub, signer1Priv := genKey(t)
	signer2Pub, signer2Priv := genKey(t)
	memberPub, _ := genKey(t)
	newMemberPub, _ := genKey(t)

	m := NewMultisig(2, []ed25519.PublicKey{signer1Pub, signer2Pub}, []ed25519.PublicKey{memberPub})

	payload := []byte("rotate-to-v2")
	sig1 := ed25519.Sign(signer1Priv, payload)
	sig2 := ed25519.Sign(signer2Priv, payload)

	err := m.Rotate(payload, []ed25519.PublicKey{newMemberPub}, []Endorsement{
		{Signer: signer1Pub, Signature: sig1},
		{Signer: signer2Pub, Signature: sig2},
	})
	require.NoError(t, err)
	assert.True(t, m.IsAuthorized(newMemberPub))
	assert.False(t, m.IsAuthorized(memberPub))
}

func TestMultisigRotateRejectsDuplicateSignerEndorsements(t *testing.T) {
	signer1Pub, signer1Priv := genKey(t)
	signer2Pub, _ := genKey(t)
	memberPub, _ := genKey(t)
	newMemberPub, _ := genKey(t)

	m := NewMultisig(2, []ed25519.PublicKey{signer1Pub, signer2Pub}, []ed25519.PublicKey{memberPub})

	payload := []byte("rotate-to-v2")
	sig1 := ed25519.Sign(signer1Priv, payload)

	err := m.Rotate(payload, []ed25519.PublicKey{newMemberPub}, []Endorsement{
		{Signer: signer1Pub, Signature: sig1},
		{Signer: signer1Pub, Signature: sig1},
	})
	assert.ErrorIs(t, err, ErrThresholdNotMet)
}

func TestStakeAuthorizedRequiresBondAndNotSlashed(t *testing.T) {
	pk1, _ := genKey(t)
	pk2, _ := genKey(t)
	s := NewStake(100, map[[ed25519.PublicKeySize]byte]StakeEntry{
		[ed25519.PublicKeySize]byte(pk1): {Balance: 500, Bonded: 150},
		[ed25519.PublicKeySize]byte(pk2): {Balance: 500, Bonded: 50},
	})

	assert.True(t, s.IsAuthorized(pk1))
	assert.False(t, s.IsAuthorized(pk2), "bonded below threshold")
	assert.Len(t, s.Snapshot(), 1)
}

func TestStakeObserveAnchorSlashesOnDoubleSign(t *testing.T) {
	pk1, _ := genKey(t)
	s := NewStake(100, map[[ed25519.PublicKeySize]byte]StakeEntry{
		[ed25519.PublicKeySize]byte(pk1): {Balance: 500, Bonded: 150},
	})

	var digestA, digestB [32]byte
	digestA[0] = 0xAA
	digestB[0] = 0xBB

	slashed := s.ObserveAnchor(pk1, 5, digestA)
	assert.False(t, slashed)
	assert.True(t, s.IsAuthorized(pk1))

	slashed = s.ObserveAnchor(pk1, 5, digestB)
	assert.True(t, slashed)
	assert.False(t, s.IsAuthorized(pk1))

	entry, ok := s.Entry(pk1)
	require.True(t, ok)
	assert.True(t, entry.Slashed)
}

func TestStakeObserveAnchorSameDigestDoesNotSlash(t *testing.T) {
	pk1, _ := genKey(t)
	s := NewStake(100, map[[ed25519.PublicKeySize]byte]StakeEntry{
		[ed25519.PublicKeySize]byte(pk1): {Balance: 500, Bonded: 150},
	})

	var digest [32]byte
	digest[0] = 0xAA

	s.ObserveAnchor(pk1, 5, digest)
	slashed := s.ObserveAnchor(pk1, 5, digest)
	assert.False(t, slashed)
	assert.True(t, s.IsAuthorized(pk1))
}
