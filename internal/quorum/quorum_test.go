package quorum

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/ledger"
	"github.com/jrocnet/ledger/internal/policy"
)

func genIdentity(t *testing.T) ed25519.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub
}

func sampleEntries() []ledger.Entry {
	l := ledger.New()
	defer l.Close()
	var d [32]byte
	d[0] = 0xAA
	_ = l.Push("claim:alice", d)
	return l.Snapshot()
}

func TestValidAcceptsReproducibleDigests(t *testing.T) {
	entries := sampleEntries()
	err := Valid(entries, func(d [32]byte) (bool, error) { return true, nil })
	assert.NoError(t, err)
}

func TestValidRejectsNonGenesisFirstEntry(t *testing.T) {
	entries := sampleEntries()
	entries[0].Statement = "not-genesis"
	err := Valid(entries, func(d [32]byte) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidRejectsUnreproducibleDigest(t *testing.T) {
	entries := sampleEntries()
	err := Valid(entries, func(d [32]byte) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFinalHoldsWithDistinctAuthorizedQuorum(t *testing.T) {
	id1 := genIdentity(t)
	id2 := genIdentity(t)
	authz := policy.NewStatic(id1, id2)
	entries := sampleEntries()

	final, div := Final([]Submission{
		{Identity: id1, Entries: entries},
		{Identity: id2, Entries: entries},
	}, authz, 2)

	assert.True(t, final)
	assert.Nil(t, div)
}

func TestFinalIgnoresDivergentThirdAnchor(t *testing.T) {
	id1 := genIdentity(t)
	id2 := genIdentity(t)
	id3 := genIdentity(t)
	authz := policy.NewStatic(id1, id2, id3)
	entries := sampleEntries()

	tampered := make([]ledger.Entry, len(entries))
	copy(tampered, entries)
	tampered[len(tampered)-1].Hashes = append([][32]byte{}, tampered[len(tampered)-1].Hashes...)
	tampered[len(tampered)-1].Hashes[0][31] ^= 0xFF

	final, _ := Final([]Submission{
		{Identity: id1, Entries: entries},
		{Identity: id2, Entries: entries},
		{Identity: id3, Entries: tampered},
	}, authz, 2)

	assert.True(t, final, "two agreeing identities still meet q=2 despite a third divergent anchor")
}

func TestFinalDuplicateIdentityDoesNotCountTwice(t *testing.T) {
	id1 := genIdentity(t)
	authz := policy.NewStatic(id1)
	entries := sampleEntries()

	final, div := Final([]Submission{
		{Identity: id1, Entries: entries},
		{Identity: id1, Entries: entries},
	}, authz, 2)

	assert.False(t, final)
	assert.NotNil(t, div)
}

func TestFinalIgnoresUnauthorizedIdentity(t *testing.T) {
	id1 := genIdentity(t)
	unauthorized := genIdentity(t)
	authz := policy.NewStatic(id1)
	entries := sampleEntries()

	final, _ := Final([]Submission{
		{Identity: id1, Entries: entries},
		{Identity: unauthorized, Entries: entries},
	}, authz, 2)

	assert.False(t, final, "unauthorized identity cannot contribute to quorum")
}

func TestValidWithDARejectsMissingQC(t *testing.T) {
	l := ledger.New()
	defer l.Close()
	var hashDigest [32]byte
	hashDigest[0] = 1
	require.NoError(t, l.Push("da:default:"+hex.EncodeToString(hashDigest[:]), hashDigest))
	entries := l.Snapshot()

	err := ValidWithDA(entries, func(d [32]byte) (bool, error) { return true, nil },
		func(namespace string, hash [32]byte) bool { return false })
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidWithDAAcceptsPersistedQC(t *testing.T) {
	l := ledger.New()
	defer l.Close()
	var hashDigest [32]byte
	hashDigest[0] = 1
	require.NoError(t, l.Push("da:default:"+hex.EncodeToString(hashDigest[:]), hashDigest))
	entries := l.Snapshot()

	err := ValidWithDA(entries, func(d [32]byte) (bool, error) { return true, nil },
		func(namespace string, hash [32]byte) bool { return namespace == "default" })
	assert.NoError(t, err)
}

func TestValidWithDAIgnoresNonDAStatements(t *testing.T) {
	entries := sampleEntries()
	err := ValidWithDA(entries, func(d [32]byte) (bool, error) { return true, nil }, nil)
	assert.NoError(t, err)
}

func TestFinalAutoSlashesStakeOnDivergentResubmission(t *testing.T) {
	id1 := genIdentity(t)
	stake := policy.NewStake(1, map[[ed25519.PublicKeySize]byte]policy.StakeEntry{
		[ed25519.PublicKeySize]byte(id1): {Bonded: 10},
	})
	entries := sampleEntries()

	tampered := make([]ledger.Entry, len(entries))
	copy(tampered, entries)
	tampered[len(tampered)-1].Hashes = append([][32]byte{}, tampered[len(tampered)-1].Hashes...)
	tampered[len(tampered)-1].Hashes[0][31] ^= 0xFF

	Final([]Submission{{Identity: id1, Entries: entries}}, stake, 1)
	entry, ok := stake.Entry(id1)
	require.True(t, ok)
	assert.False(t, entry.Slashed)

	Final([]Submission{{Identity: id1, Entries: tampered}}, stake, 1)
	entry, ok = stake.Entry(id1)
	require.True(t, ok)
	assert.True(t, entry.Slashed, "same identity, same logical position, different anchor content must slash")
}

func TestFinalReportsFirstDivergence(t *testing.T) {
	id1 := genIdentity(t)
	id2 := genIdentity(t)
	authz := policy.NewStatic(id1, id2)
	entries := sampleEntries()

	other := make([]ledger.Entry, len(entries))
	copy(other, entries)
	other[1].Statement = "claim:mallory"

	final, div := Final([]Submission{
		{Identity: id1, Entries: entries},
		{Identity: id2, Entries: other},
	}, authz, 2)

	assert.False(t, final)
	require.NotNil(t, div)
	assert.Equal(t, 1, div.EntryIndex)
}
