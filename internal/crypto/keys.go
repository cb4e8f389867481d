package crypto

// Ed25519Signature is a fixed-size ed25519 signature, used where a
// signature must be a comparable array value rather than a slice (map
// keys, struct fields serialized verbatim).
type Ed25519Signature [Ed25519SignatureSize]byte
