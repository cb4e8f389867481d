package migration

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrocnet/ledger/internal/crypto"
	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/policy"
)

func decodeHash(t *testing.T, s string) crypto.Hash {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	var h crypto.Hash
	copy(h[:], b)
	return h
}

func decodeProof(t *testing.T, hexes []string) []crypto.Hash {
	t.Helper()
	out := make([]crypto.Hash, len(hexes))
	for i, s := range hexes {
		out[i] = decodeHash(t, s)
	}
	return out
}

func recomputeLeafHash(t *testing.T, snap Snapshot, index int, leaf ClaimManifestLeaf, mode AmountMode) crypto.Hash {
	t.Helper()
	entry := snap.Entries[index]
	id := claimID(snap.Height, index, entry.PublicKey)
	address := identityAddress(entry.PublicKey)
	amount := amountFor(entry, mode)
	assert.Equal(t, hex.EncodeToString(id[:]), leaf.ClaimID)
	return claimLeaf(snap.Height, id, address, amount)
}

func identityAddress(pk ed25519.PublicKey) []byte {
	return append([]byte(nil), pk...)
}

func sampleSnapshot(t *testing.T, n int) Snapshot {
	t.Helper()
	stake := policy.NewStake(0, nil)
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		pk := genKey(t)
		keys[i] = pk
		stake.SetEntry(pk, policy.StakeEntry{Balance: uint64(i + 1), Bonded: uint64(i)})
	}
	return BuildSnapshot(7, stake, keys)
}

func TestBuildClaimTreeRejectsEmptySnapshot(t *testing.T) {
	_, err := BuildClaimTree(Snapshot{Height: 1}, AmountTotal, identityAddress)
	assert.Error(t, err)
}

func TestBuildClaimTreeIsDeterministic(t *testing.T) {
	snap := sampleSnapshot(t, 5)

	m1, err := BuildClaimTree(snap, AmountTotal, identityAddress)
	require.NoError(t, err)
	m2, err := BuildClaimTree(snap, AmountTotal, identityAddress)
	require.NoError(t, err)

	assert.Equal(t, m1, m2)
}

func TestBuildClaimTreeEveryLeafProves(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8} {
		snap := sampleSnapshot(t, n)
		manifest, err := BuildClaimTree(snap, AmountTotal, identityAddress)
		require.NoError(t, err)

		root := decodeHash(t, manifest.Root)
		for i, leaf := range manifest.Leaves {
			leafHash := recomputeLeafHash(t, snap, i, leaf, AmountTotal)
			proof := decodeProof(t, leaf.Proof)
			assert.True(t, VerifyClaim(leafHash, i, n, proof, root), "leaf %d/%d failed to verify", i, n)
		}
	}
}

func TestBuildClaimTreeAmountModes(t *testing.T) {
	snap := sampleSnapshot(t, 3)

	total, err := BuildClaimTree(snap, AmountTotal, identityAddress)
	require.NoError(t, err)
	balanceOnly, err := BuildClaimTree(snap, AmountBalance, identityAddress)
	require.NoError(t, err)

	assert.NotEqual(t, total.Root, balanceOnly.Root)
}
