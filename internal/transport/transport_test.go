package transport

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
)

func TestInMemoryDeliversToRegisteredReceiver(t *testing.T) {
	tr := NewInMemory("node-a")

	var got []byte
	tr.OnReceive("anchors", func(topic, from string, payload []byte) {
		got = payload
	})

	require.NoError(t, tr.Broadcast("anchors", []byte("hello")))
	assert.Equal(t, []byte("hello"), got)
}

func TestInMemoryBackpressureDropsOnce(t *testing.T) {
	tr := NewInMemory("node-a")
	tr.OnReceive("anchors", func(topic, from string, payload []byte) {})

	tr.DropNextBroadcast()
	assert.ErrorIs(t, tr.Broadcast("anchors", []byte("x")), ErrBackpressure)
	assert.NoError(t, tr.Broadcast("anchors", []byte("y")))
}

func TestInMemoryPeerIdentityResolvesRegisteredPeer(t *testing.T) {
	tr := NewInMemory("node-a")
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	_, ok := tr.PeerIdentity("peer-1")
	assert.False(t, ok)

	tr.RegisterPeer("peer-1", pub)
	resolved, ok := tr.PeerIdentity("peer-1")
	require.True(t, ok)
	assert.Equal(t, pub, resolved)
}
