// Package transcript implements the canonical ASCII grammar for a sum-check
// proof record and the binary digest framing over its numeric sections,
// per spec.md 4.E.
package transcript

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Domain tag for the transcript digest.
const transcriptTag = "JROC_TRANSCRIPT"

var (
	// ErrLegacyDigest is returned when a transcript file carries a 16-hex
	// character digest, the historical 64-bit variant. Callers must reject
	// these outright rather than attempt conversion (spec.md 9 Open
	// Questions).
	ErrLegacyDigest  = errors.New("transcript: legacy 64-bit digest is not supported")
	ErrTab           = errors.New("transcript: tab characters are not permitted")
	ErrCR            = errors.New("transcript: CR line endings are not permitted")
	ErrBOM           = errors.New("transcript: BOM marker is not permitted")
	ErrUppercaseHash = errors.New("transcript: hash must be lowercase hex")
	ErrGrammar       = errors.New("transcript: grammar violation")
)

// Record is the in-memory form of one proof transcript.
type Record struct {
	Statement  string
	Metadata   []string // raw comment lines, without the leading '#'
	Challenges []uint64
	RoundSums  []uint64
	Final      uint64
	Digest     [32]byte
}

// ChallengeMode extracts the "challenge_mode: ..." metadata line, if
// present.
func (r Record) ChallengeMode() (string, bool) {
	for _, m := range r.Metadata {
		m = strings.TrimSpace(m)
		if v, ok := strings.CutPrefix(m, "challenge_mode:"); ok {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// Digest computes H("JROC_TRANSCRIPT" || u64_be(len(challenges)) ||
// challenges_be || u64_be(len(round_sums)) || round_sums_be ||
// u64_be(final)) over the numeric sections only, per spec.md 4.E. The two
// length prefixes are word counts, not byte counts. Statement text,
// comments, and the hash line are never part of the hash input.
func Digest(challenges, roundSums []uint64, final uint64) [32]byte {
	transcriptBytes := encodeU64s(challenges)
	roundSumBytes := encodeU64s(roundSums)

	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("transcript: blake2b init: %v", err))
	}
	h.Write([]byte(transcriptTag))
	writeU64BE(h, uint64(len(challenges)))
	h.Write(transcriptBytes)
	writeU64BE(h, uint64(len(roundSums)))
	h.Write(roundSumBytes)
	writeU64BE(h, final)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func encodeU64s(vals []uint64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint64(buf[i*8:], v)
	}
	return buf
}

func writeU64BE(w interface{ Write([]byte) (int, error) }, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.Write(b[:])
}

// Marshal renders a Record into the canonical ASCII grammar. The Digest
// field is recomputed from Challenges/RoundSums/Final rather than trusted
// from the caller, so a stale Digest never silently round-trips.
func Marshal(r Record) []byte {
	digest := Digest(r.Challenges, r.RoundSums, r.Final)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "statement: %s\n", r.Statement)
	for _, m := range r.Metadata {
		fmt.Fprintf(&buf, "#%s\n", m)
	}
	fmt.Fprintf(&buf, "transcript: %s\n", joinU64s(r.Challenges))
	fmt.Fprintf(&buf, "round_sums: %s\n", joinU64s(r.RoundSums))
	fmt.Fprintf(&buf, "final: %d\n", r.Final)
	fmt.Fprintf(&buf, "hash: %s\n", hex.EncodeToString(digest[:]))
	return buf.Bytes()
}

func joinU64s(vals []uint64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return strings.Join(parts, " ")
}

// Parse reads a transcript file into a Record, enforcing the strict
// grammar: LF-only line endings, no tabs, no BOM, lowercase hex hashes,
// and a 32-byte (64 hex character) digest. "final_eval:" is accepted as a
// back-compat alias for "final:" on read, per spec.md 4.E, but is never
// produced by Marshal.
func Parse(data []byte) (Record, error) {
	if bytes.Contains(data, []byte{'\t'}) {
		return Record{}, ErrTab
	}
	if bytes.Contains(data, []byte{'\r'}) {
		return Record{}, ErrCR
	}
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		return Record{}, ErrBOM
	}

	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return Record{}, fmt.Errorf("%w: empty file", ErrGrammar)
	}
	lines := strings.Split(text, "\n")

	var r Record
	idx := 0

	if idx >= len(lines) {
		return Record{}, fmt.Errorf("%w: missing statement line", ErrGrammar)
	}
	stmt, ok := strings.CutPrefix(lines[idx], "statement: ")
	if !ok {
		return Record{}, fmt.Errorf("%w: missing statement line", ErrGrammar)
	}
	r.Statement = stmt
	idx++

	for idx < len(lines) && strings.HasPrefix(lines[idx], "#") {
		r.Metadata = append(r.Metadata, strings.TrimPrefix(lines[idx], "#"))
		idx++
	}

	if idx >= len(lines) {
		return Record{}, fmt.Errorf("%w: missing transcript line", ErrGrammar)
	}
	transcriptLine, ok := strings.CutPrefix(lines[idx], "transcript: ")
	if !ok {
		return Record{}, fmt.Errorf("%w: missing transcript line", ErrGrammar)
	}
	challenges, err := parseU64s(transcriptLine)
	if err != nil {
		return Record{}, fmt.Errorf("%w: transcript: %v", ErrGrammar, err)
	}
	r.Challenges = challenges
	idx++

	if idx >= len(lines) {
		return Record{}, fmt.Errorf("%w: missing round_sums line", ErrGrammar)
	}
	roundSumsLine, ok := strings.CutPrefix(lines[idx], "round_sums: ")
	if !ok {
		return Record{}, fmt.Errorf("%w: missing round_sums line", ErrGrammar)
	}
	roundSums, err := parseU64s(roundSumsLine)
	if err != nil {
		return Record{}, fmt.Errorf("%w: round_sums: %v", ErrGrammar, err)
	}
	r.RoundSums = roundSums
	idx++

	if idx >= len(lines) {
		return Record{}, fmt.Errorf("%w: missing final line", ErrGrammar)
	}
	finalLine := lines[idx]
	finalStr, ok := strings.CutPrefix(finalLine, "final: ")
	if !ok {
		finalStr, ok = strings.CutPrefix(finalLine, "final_eval: ")
		if !ok {
			return Record{}, fmt.Errorf("%w: missing final line", ErrGrammar)
		}
	}
	final, err := strconv.ParseUint(strings.TrimSpace(finalStr), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: final: %v", ErrGrammar, err)
	}
	r.Final = final
	idx++

	if idx >= len(lines) {
		return Record{}, fmt.Errorf("%w: missing hash line", ErrGrammar)
	}
	hashLine, ok := strings.CutPrefix(lines[idx], "hash: ")
	if !ok {
		return Record{}, fmt.Errorf("%w: missing hash line", ErrGrammar)
	}
	if len(hashLine) == 16 {
		return Record{}, ErrLegacyDigest
	}
	if len(hashLine) != 64 {
		return Record{}, fmt.Errorf("%w: hash must be 64 hex characters", ErrGrammar)
	}
	if hashLine != strings.ToLower(hashLine) {
		return Record{}, ErrUppercaseHash
	}
	digestBytes, err := hex.DecodeString(hashLine)
	if err != nil {
		return Record{}, fmt.Errorf("%w: hash: %v", ErrGrammar, err)
	}
	copy(r.Digest[:], digestBytes)
	idx++

	if idx != len(lines) {
		return Record{}, fmt.Errorf("%w: trailing content after hash line", ErrGrammar)
	}

	want := Digest(r.Challenges, r.RoundSums, r.Final)
	if want != r.Digest {
		return Record{}, fmt.Errorf("digest-mismatch: stored %x, recomputed %x", r.Digest, want)
	}

	return r, nil
}

func parseU64s(s string) ([]uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.Fields(s)
	out := make([]uint64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
