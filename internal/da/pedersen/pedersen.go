// Package pedersen implements the Pedersen-labelled commitment tree used
// as the second, independent root over a blob's shares. No elliptic-curve
// Pedersen-hash library appears anywhere in the retrieval pack and
// spec.md names no curve, so this is a domain-tagged keyed-BLAKE2b
// commitment rather than a true elliptic-curve Pedersen hash — see
// DESIGN.md's Open Question resolution. The tree shape (leaf/pair,
// odd-node carry-up) mirrors internal/merkle.Capsule so the two roots
// diverge only in their hash function, not their topology.
package pedersen

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const pedersenKeyTag = "JROC_PEDERSEN_KEY"

func keyedHash(data ...[]byte) [32]byte {
	var key [32]byte
	copy(key[:], []byte(pedersenKeyTag))
	h, err := blake2b.New256(key[:])
	if err != nil {
		panic(fmt.Sprintf("pedersen: blake2b init: %v", err))
	}
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func leaf(d []byte) [32]byte      { return keyedHash([]byte{0x00}, d) }
func empty() [32]byte             { return keyedHash([]byte{0x01}) }
func pair(a, b [32]byte) [32]byte { return keyedHash(a[:], b[:]) }

// ProofStep records one sibling on the path from a leaf to the root,
// plus which side the sibling occupies relative to the node being
// proved.
type ProofStep struct {
	Sibling [32]byte
	Left    bool
}

// Tree is the Pedersen-keyed counterpart of merkle.Capsule.
type Tree struct {
	levels  [][][32]byte
	nLeaves int
}

// Build constructs a Tree over the given share payloads.
func Build(payloads [][]byte) *Tree {
	if len(payloads) == 0 {
		return &Tree{levels: [][][32]byte{{empty()}}, nLeaves: 0}
	}

	level := make([][32]byte, len(payloads))
	for i, p := range payloads {
		level[i] = leaf(p)
	}

	allLevels := [][][32]byte{level}
	for len(level) > 1 {
		var next [][32]byte
		i := 0
		for ; i+1 < len(level); i += 2 {
			next = append(next, pair(level[i], level[i+1]))
		}
		if i < len(level) {
			next = append(next, level[i])
		}
		allLevels = append(allLevels, next)
		level = next
	}

	return &Tree{levels: allLevels, nLeaves: len(payloads)}
}

func (t *Tree) Root() [32]byte { return t.levels[len(t.levels)-1][0] }
func (t *Tree) Len() int       { return t.nLeaves }

// Prove returns the inclusion path for leaf i.
func (t *Tree) Prove(i int) ([]ProofStep, error) {
	if i < 0 || i >= t.nLeaves {
		return nil, fmt.Errorf("pedersen: index %d out of range [0,%d)", i, t.nLeaves)
	}

	var steps []ProofStep
	idx := i
	for lvl := 0; lvl < len(t.levels)-1; lvl++ {
		level := t.levels[lvl]
		isRight := idx%2 == 1
		var sibIdx int
		if isRight {
			sibIdx = idx - 1
		} else {
			sibIdx = idx + 1
		}
		if sibIdx < len(level) {
			left := isRight
			steps = append(steps, ProofStep{Sibling: level[sibIdx], Left: left})
		}
		idx /= 2
	}
	return steps, nil
}

// VerifyProof reconstructs the root from payload and steps and compares
// it against want.
func VerifyProof(payload []byte, steps []ProofStep, want [32]byte) bool {
	cur := leaf(payload)
	for _, s := range steps {
		if s.Left {
			cur = pair(s.Sibling, cur)
		} else {
			cur = pair(cur, s.Sibling)
		}
	}
	return cur == want
}
