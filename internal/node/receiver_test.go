package node

import (
	"crypto/rand"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/envelope"
	"github.com/jrocnet/ledger/internal/ledger"
)

func sampleEnvelopeBytes(t *testing.T) []byte {
	t.Helper()
	l := ledger.New()
	defer l.Close()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	doc := ledger.BuildAnchor(l.Snapshot(), "jrocnet-test", "node-1", "rejection", "0.1.0", ledger.QuorumInfo{}, 0)
	env, err := envelope.Seal("jrocnet-test", "node-1", doc, pub, priv)
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return raw
}

func TestReceiveAcceptsFreshEnvelope(t *testing.T) {
	r := NewReceiver(16, 10)
	raw := sampleEnvelopeBytes(t)

	doc, err := r.Receive("default", raw, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "jrocnet.anchor.v1", doc.Schema)
}

func TestReceiveRejectsDuplicate(t *testing.T) {
	r := NewReceiver(16, 10)
	raw := sampleEnvelopeBytes(t)

	_, err := r.Receive("default", raw, time.Now())
	require.NoError(t, err)

	_, err = r.Receive("default", raw, time.Now())
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestReceiveEnforcesNamespaceRateLimit(t *testing.T) {
	r := NewReceiver(64, 1)
	now := time.Now()

	_, err := r.Receive("default", sampleEnvelopeBytes(t), now)
	require.NoError(t, err)

	_, err = r.Receive("default", sampleEnvelopeBytes(t), now)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestReceiveRejectsBadSignature(t *testing.T) {
	r := NewReceiver(16, 10)
	raw := sampleEnvelopeBytes(t)
	raw[len(raw)-5] ^= 0xFF

	_, err := r.Receive("default", raw, time.Now())
	assert.Error(t, err)
}
