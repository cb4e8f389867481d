// Package transport defines the broadcast/receive contract consumed by
// the reconciliation engine, per spec.md 6, plus an in-memory fake used
// by tests and single-node CLI runs. No gossip/DHT/QUIC implementation
// is provided — that transport layer is a deliberate external
// collaborator excluded by spec.md 1; this package exists so
// internal/quorum and cmd/jrocnet can be exercised without a real
// network.
package transport

import (
	"errors"
	"sync"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
)

// ErrBackpressure is the fatal transport error spec.md 6 says
// broadcast must surface when it cannot keep up.
var ErrBackpressure = errors.New("transport: backpressure, broadcast dropped")

// Broadcaster sends envelope bytes to every peer subscribed to topic.
// Fire-and-forget; backpressure surfaces as ErrBackpressure rather than
// blocking the caller.
type Broadcaster interface {
	Broadcast(topic string, payload []byte) error
}

// ReceiveFunc is invoked with an already-signed, not-yet-verified
// envelope payload received from fromPeer on topic.
type ReceiveFunc func(topic string, fromPeer string, payload []byte)

// Receiver registers a ReceiveFunc invoked for every message arriving
// on topic.
type Receiver interface {
	OnReceive(topic string, fn ReceiveFunc)
}

// PeerIdentity correlates a gossip peer identifier with its ed25519
// public key, for identity hygiene per spec.md 6.
type PeerIdentity interface {
	PeerIdentity(peer string) (ed25519.PublicKey, bool)
}

// InMemory is a fake transport wiring broadcast calls directly to
// registered receivers within the same process, for tests and
// single-node CLI runs.
type InMemory struct {
	mu       sync.Mutex
	handlers map[string][]ReceiveFunc
	peers    map[string]ed25519.PublicKey
	selfPeer string
	dropNext bool
}

// NewInMemory builds an InMemory transport identifying the local node
// as selfPeer for loopback delivery.
func NewInMemory(selfPeer string) *InMemory {
	return &InMemory{
		handlers: make(map[string][]ReceiveFunc),
		peers:    make(map[string]ed25519.PublicKey),
		selfPeer: selfPeer,
	}
}

// RegisterPeer associates peer with pk, so PeerIdentity can resolve it.
func (t *InMemory) RegisterPeer(peer string, pk ed25519.PublicKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peers[peer] = pk
}

// DropNextBroadcast makes the next Broadcast call return
// ErrBackpressure instead of delivering, for exercising the fatal-error
// path in tests.
func (t *InMemory) DropNextBroadcast() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dropNext = true
}

func (t *InMemory) Broadcast(topic string, payload []byte) error {
	t.mu.Lock()
	if t.dropNext {
		t.dropNext = false
		t.mu.Unlock()
		return ErrBackpressure
	}
	handlers := append([]ReceiveFunc(nil), t.handlers[topic]...)
	t.mu.Unlock()

	for _, h := range handlers {
		h(topic, t.selfPeer, payload)
	}
	return nil
}

func (t *InMemory) OnReceive(topic string, fn ReceiveFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[topic] = append(t.handlers[topic], fn)
}

func (t *InMemory) PeerIdentity(peer string) (ed25519.PublicKey, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pk, ok := t.peers[peer]
	return pk, ok
}
