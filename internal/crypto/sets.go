package crypto

import "github.com/jrocnet/ledger/internal/crypto/ed25519"

// PublicKeySet is a set of ed25519 public keys keyed by their raw bytes.
type PublicKeySet map[[Ed25519PublicSize]byte]struct{}

func (set PublicKeySet) Add(key ed25519.PublicKey) {
	set[[Ed25519PublicSize]byte(key)] = struct{}{}
}

func (set PublicKeySet) Has(key ed25519.PublicKey) bool {
	_, ok := set[[Ed25519PublicSize]byte(key)]
	return ok
}

// Keys returns the set's members as a slice, in map-iteration order.
func (set PublicKeySet) Keys() []ed25519.PublicKey {
	out := make([]ed25519.PublicKey, 0, len(set))
	for k := range set {
		kk := k
		out = append(out, ed25519.PublicKey(kk[:]))
	}
	return out
}
