package migration

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrocnet/ledger/internal/policy"
	"github.com/jrocnet/ledger/pkg/db/pebble"
)

func newTestKV(t *testing.T) *pebble.KVStore {
	t.Helper()
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestExecutorDebitsOnFirstRun(t *testing.T) {
	kv := newTestKV(t)
	alice := genKey(t)

	stake := policy.NewStake(0, nil)
	stake.SetEntry(alice, policy.StakeEntry{Balance: 500, Bonded: 100})

	journal, err := NewJournal(kv)
	require.NoError(t, err)
	require.NoError(t, journal.Append(BurnIntent{
		TokenContract: "0xTOKEN",
		PubKeyB64:     base64.StdEncoding.EncodeToString(alice),
		Reason:        "withdrawal",
	}))

	exec := NewExecutor(kv, stake)
	n, err := exec.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entry, ok := stake.Entry(alice)
	require.True(t, ok)
	assert.Equal(t, uint64(0), entry.Balance)
	assert.Equal(t, uint64(0), entry.Bonded)
}

func TestExecutorRunIsIdempotent(t *testing.T) {
	kv := newTestKV(t)
	alice := genKey(t)

	stake := policy.NewStake(0, nil)
	stake.SetEntry(alice, policy.StakeEntry{Balance: 500, Bonded: 100})

	journal, err := NewJournal(kv)
	require.NoError(t, err)
	require.NoError(t, journal.Append(BurnIntent{
		TokenContract: "0xTOKEN",
		PubKeyB64:     base64.StdEncoding.EncodeToString(alice),
		Reason:        "withdrawal",
	}))

	exec := NewExecutor(kv, stake)
	_, err = exec.Run()
	require.NoError(t, err)

	stake.SetEntry(alice, policy.StakeEntry{Balance: 777, Bonded: 1})

	n, err := exec.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	entry, ok := stake.Entry(alice)
	require.True(t, ok)
	assert.Equal(t, uint64(777), entry.Balance)
}

func TestExecutorProcessesOnlyNewEntriesAfterRestart(t *testing.T) {
	kv := newTestKV(t)
	alice := genKey(t)
	bob := genKey(t)

	stake := policy.NewStake(0, nil)
	stake.SetEntry(alice, policy.StakeEntry{Balance: 10, Bonded: 1})
	stake.SetEntry(bob, policy.StakeEntry{Balance: 20, Bonded: 2})

	journal, err := NewJournal(kv)
	require.NoError(t, err)
	require.NoError(t, journal.Append(BurnIntent{PubKeyB64: base64.StdEncoding.EncodeToString(alice)}))

	exec := NewExecutor(kv, stake)
	n, err := exec.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, journal.Append(BurnIntent{PubKeyB64: base64.StdEncoding.EncodeToString(bob)}))

	restarted := NewExecutor(kv, stake)
	n, err = restarted.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	bobEntry, _ := stake.Entry(bob)
	assert.Equal(t, uint64(0), bobEntry.Balance)
}

func TestBondRejectedWhileFrozen(t *testing.T) {
	stake := policy.NewStake(0, nil)
	stake.SetFrozen(true)

	err := stake.Bond(genKey(t), 10)
	assert.ErrorIs(t, err, policy.ErrBondingFrozen)
}

func TestBondSucceedsWhenNotFrozen(t *testing.T) {
	stake := policy.NewStake(0, nil)
	pk := genKey(t)

	require.NoError(t, stake.Bond(pk, 10))
	require.NoError(t, stake.Bond(pk, 5))

	entry, ok := stake.Entry(pk)
	require.True(t, ok)
	assert.Equal(t, uint64(15), entry.Bonded)
}
