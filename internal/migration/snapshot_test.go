package migration

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/policy"
)

func genKey(t *testing.T) ed25519.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub
}

func TestBuildSnapshotSortsByPublicKeyAndSkipsAbsent(t *testing.T) {
	stake := policy.NewStake(0, nil)
	alice := genKey(t)
	bob := genKey(t)
	ghost := genKey(t)

	stake.SetEntry(alice, policy.StakeEntry{Balance: 10, Bonded: 5})
	stake.SetEntry(bob, policy.StakeEntry{Balance: 20, Bonded: 1, Slashed: true})

	snap := BuildSnapshot(42, stake, []ed25519.PublicKey{bob, alice, ghost})

	require.Len(t, snap.Entries, 2)
	assert.Equal(t, uint64(42), snap.Height)
	assert.True(t, lexLess(snap.Entries[0].PublicKey, snap.Entries[1].PublicKey))
}

func TestSnapshotCommitmentIsDeterministic(t *testing.T) {
	stake := policy.NewStake(0, nil)
	alice := genKey(t)
	stake.SetEntry(alice, policy.StakeEntry{Balance: 10, Bonded: 5})

	snap := BuildSnapshot(1, stake, []ed25519.PublicKey{alice})

	c1, err := snap.Commitment()
	require.NoError(t, err)
	c2, err := snap.Commitment()
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}
