// Package envelope implements the signed gossip wrapper around an
// anchor document, per spec.md 3/6. Grounded on internal/ledger's
// AnchorDocument (the payload carried inside) and
// internal/crypto/ed25519 for the signature, mirroring the teacher's
// own pattern of hashing a canonical JSON encoding before signing it
// (internal/crypto/hash.go's HashData over marshaled structs).
package envelope

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/ledger"
)

// SchemaEnvelopeV1 is the wire schema tag, per spec.md 6.
const SchemaEnvelopeV1 = "jrocnet.envelope.v1"

// SupportedMajor is the highest schema_version this node accepts.
const SupportedMajor = 1

var (
	// ErrUnsupportedSchemaVersion is returned when schema_version exceeds
	// SupportedMajor.
	ErrUnsupportedSchemaVersion = errors.New("envelope: unsupported schema_version")
	// ErrSignatureInvalid is returned when the envelope's signature does
	// not verify over its payload.
	ErrSignatureInvalid = errors.New("envelope: signature invalid")
	// ErrTooLarge is returned when a received envelope exceeds the 64 KiB
	// cap from spec.md 5.
	ErrTooLarge = errors.New("envelope: exceeds 64 KiB cap")
	// ErrTooManyEntries is returned when the carried anchor exceeds the
	// 10,000-entry cap from spec.md 5.
	ErrTooManyEntries = errors.New("envelope: exceeds 10,000 entry cap")
)

// MaxBytes and MaxEntries are the resource caps of spec.md 5. MaxBytes
// is checked before any decoding; MaxEntries is checked only after the
// signed payload has been decoded.
const (
	MaxBytes   = 64 * 1024
	MaxEntries = 10000
)

// Envelope is the wire JSON form of a signed gossip message, per
// spec.md 6's jrocnet.envelope.v1 schema.
type Envelope struct {
	Schema        string `json:"schema"`
	SchemaVersion int    `json:"schema_version"`
	PublicKey     string `json:"public_key"`
	NodeID        string `json:"node_id"`
	Payload       string `json:"payload"`
	Signature     string `json:"signature"`
}

// Seal builds and signs an Envelope carrying anchor, signed by priv
// (whose public half is pub).
func Seal(networkID, nodeID string, anchor ledger.AnchorDocument, pub ed25519.PublicKey, priv ed25519.PrivateKey) (Envelope, error) {
	payload, err := anchor.MarshalCanonical()
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: marshal payload: %w", err)
	}
	sig := ed25519.Sign(priv, payload)
	return Envelope{
		Schema:        SchemaEnvelopeV1,
		SchemaVersion: SupportedMajor,
		PublicKey:     base64.StdEncoding.EncodeToString(pub),
		NodeID:        nodeID,
		Payload:       base64.StdEncoding.EncodeToString(payload),
		Signature:     base64.StdEncoding.EncodeToString(sig),
	}, nil
}

// ParseAndVerify decodes raw JSON into an Envelope, enforces the size
// and entry caps, verifies schema_version and the signature, and
// returns the decoded anchor document. Callers must check the returned
// error against the sentinels above before trusting the anchor.
func ParseAndVerify(raw []byte) (Envelope, ledger.AnchorDocument, error) {
	if len(raw) > MaxBytes {
		return Envelope{}, ledger.AnchorDocument{}, ErrTooLarge
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, ledger.AnchorDocument{}, fmt.Errorf("envelope: unmarshal: %w", err)
	}
	if env.SchemaVersion > SupportedMajor {
		return env, ledger.AnchorDocument{}, ErrUnsupportedSchemaVersion
	}

	pub, err := base64.StdEncoding.DecodeString(env.PublicKey)
	if err != nil {
		return env, ledger.AnchorDocument{}, fmt.Errorf("envelope: decode public_key: %w", err)
	}
	payload, err := base64.StdEncoding.DecodeString(env.Payload)
	if err != nil {
		return env, ledger.AnchorDocument{}, fmt.Errorf("envelope: decode payload: %w", err)
	}
	sig, err := base64.StdEncoding.DecodeString(env.Signature)
	if err != nil {
		return env, ledger.AnchorDocument{}, fmt.Errorf("envelope: decode signature: %w", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), payload, sig) {
		return env, ledger.AnchorDocument{}, ErrSignatureInvalid
	}

	var anchor ledger.AnchorDocument
	if err := json.Unmarshal(payload, &anchor); err != nil {
		return env, ledger.AnchorDocument{}, fmt.Errorf("envelope: unmarshal payload: %w", err)
	}
	if len(anchor.Entries) > MaxEntries {
		return env, anchor, ErrTooManyEntries
	}
	return env, anchor, nil
}

// CanonicalDigestInput renders raw bytes suitable for SHA-256-based
// duplicate-envelope detection (spec.md 5): the envelope's raw JSON
// bytes, trimmed of surrounding whitespace, so copies that differ only
// in leading or trailing whitespace dedupe. Any other byte difference,
// such as a re-encoding with different field order, is not treated as a
// duplicate.
func CanonicalDigestInput(raw []byte) []byte {
	return bytes.TrimSpace(raw)
}
