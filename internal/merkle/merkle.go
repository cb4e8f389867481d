// Package merkle implements the domain-tagged binary Merkle tree used for
// per-entry ledger capsules and data-availability share commitments.
// Grounded on the teacher's internal/merkle/binary_tree.ComputeNode
// recursion, generalized with explicit leaf/empty/pair domain tags and
// odd-node carry-up instead of always-bisect recursion, per spec.md 4.F.
package merkle

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const merkleTag = "JROC_MERKLE"

const (
	tagLeaf  byte = 0x00
	tagEmpty byte = 0x01
)

// leaf computes H("JROC_MERKLE" || 0x00 || d).
func leaf(d []byte) [32]byte {
	return hash2(merkleTag, []byte{tagLeaf}, d)
}

// empty computes H("JROC_MERKLE" || 0x01).
func empty() [32]byte {
	return hash1(merkleTag, []byte{tagEmpty})
}

// pair computes H("JROC_MERKLE" || a || b). Left and right are never
// sorted: the tree is order-preserving.
func pair(a, b [32]byte) [32]byte {
	return hash2(merkleTag, a[:], b[:])
}

func hash1(tag string, a []byte) [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("merkle: blake2b init: %v", err))
	}
	h.Write([]byte(tag))
	h.Write(a)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hash2(tag string, a, b []byte) [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("merkle: blake2b init: %v", err))
	}
	h.Write([]byte(tag))
	h.Write(a)
	h.Write(b)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Side records which side of a pair a sibling occupied, for proof
// reconstruction.
type Side bool

const (
	SideLeft  Side = false
	SideRight Side = true
)

// ProofStep is one sibling hash and its side, ordered from leaf to root.
type ProofStep struct {
	Sibling [32]byte
	Side    Side
}

// Capsule is a Merkle tree built over an ordered list of leaf payloads.
// Odd-length levels carry the trailing node up unchanged rather than
// duplicating it, per spec.md 4.F.
type Capsule struct {
	levels  [][][32]byte // levels[0] = leaves, levels[last] = {root}
	nLeaves int
}

// Build constructs a Capsule from ordered leaf payloads. An empty input
// yields a single-level tree whose root is empty().
func Build(payloads [][]byte) *Capsule {
	if len(payloads) == 0 {
		return &Capsule{levels: [][][32]byte{{empty()}}}
	}

	level := make([][32]byte, len(payloads))
	for i, p := range payloads {
		level[i] = leaf(p)
	}

	c := &Capsule{levels: [][][32]byte{level}, nLeaves: len(payloads)}

	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		i := 0
		for ; i+1 < len(level); i += 2 {
			next = append(next, pair(level[i], level[i+1]))
		}
		if i < len(level) {
			// odd trailing node: carry up unchanged
			next = append(next, level[i])
		}
		c.levels = append(c.levels, next)
		level = next
	}

	return c
}

// Root returns the capsule's root digest.
func (c *Capsule) Root() [32]byte {
	top := c.levels[len(c.levels)-1]
	return top[0]
}

// Len returns the number of leaves the capsule was built from.
func (c *Capsule) Len() int {
	return c.nLeaves
}

// Prove returns the inclusion proof for the leaf at index i, ordered from
// leaf to root. A carried-up odd node contributes no proof step at that
// level, since it has no sibling.
func (c *Capsule) Prove(i int) ([]ProofStep, error) {
	if i < 0 || i >= len(c.levels[0]) {
		return nil, fmt.Errorf("merkle: index %d out of range [0, %d)", i, len(c.levels[0]))
	}

	var steps []ProofStep
	idx := i
	for lvl := 0; lvl < len(c.levels)-1; lvl++ {
		level := c.levels[lvl]
		isRight := idx%2 == 1
		var siblingIdx int
		if isRight {
			siblingIdx = idx - 1
		} else {
			siblingIdx = idx + 1
		}
		if siblingIdx < len(level) {
			// Side records which side the SIBLING sits on relative to the
			// node being proved.
			side := SideRight
			if isRight {
				side = SideLeft
			}
			steps = append(steps, ProofStep{Sibling: level[siblingIdx], Side: side})
		}
		// else: this node was carried up unchanged, no step at this level.
		idx /= 2
	}
	return steps, nil
}

// VerifyProof reconstructs the root from a leaf payload and its proof, and
// reports whether it equals want.
func VerifyProof(payload []byte, steps []ProofStep, want [32]byte) bool {
	cur := leaf(payload)
	for _, s := range steps {
		if s.Side == SideLeft {
			cur = pair(s.Sibling, cur)
		} else {
			cur = pair(cur, s.Sibling)
		}
	}
	return cur == want
}
