package migration

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/jrocnet/ledger/internal/crypto"
	"github.com/jrocnet/ledger/internal/crypto/ed25519"
)

// AmountMode selects which snapshot fields compose a claim's amount.
type AmountMode int

const (
	AmountTotal AmountMode = iota
	AmountBalance
	AmountStake
)

func amountFor(e RegistryEntry, mode AmountMode) uint64 {
	switch mode {
	case AmountBalance:
		return e.Balance
	case AmountStake:
		return e.Stake
	default:
		return e.Balance + e.Stake
	}
}

// AddressFn derives a claim-chain address from a jrocnet public key.
type AddressFn func(pk ed25519.PublicKey) []byte

// Claim is one snapshot entry's claim record.
type Claim struct {
	ClaimID crypto.Hash
	Address []byte
	Amount  uint64
}

func claimID(height uint64, index int, pk ed25519.PublicKey) crypto.Hash {
	buf := make([]byte, 16+len(pk))
	binary.BigEndian.PutUint64(buf[0:8], height)
	binary.BigEndian.PutUint64(buf[8:16], uint64(index))
	copy(buf[16:], pk)
	return crypto.HashData(buf)
}

func claimLeaf(height uint64, id crypto.Hash, address []byte, amount uint64) crypto.Hash {
	buf := make([]byte, 8+len(id)+len(address)+8)
	off := 0
	binary.BigEndian.PutUint64(buf[off:], height)
	off += 8
	copy(buf[off:], id[:])
	off += len(id)
	copy(buf[off:], address)
	off += len(address)
	binary.BigEndian.PutUint64(buf[off:], amount)
	return crypto.KeccakData(buf)
}

func claimPair(a, b crypto.Hash) crypto.Hash {
	buf := make([]byte, len(a)+len(b))
	copy(buf, a[:])
	copy(buf[len(a):], b[:])
	return crypto.KeccakData(buf)
}

// ClaimManifestLeaf is one rendered claim in the canonical manifest.
type ClaimManifestLeaf struct {
	ClaimID string   `json:"claim_id"`
	Address string   `json:"address"`
	Amount  uint64    `json:"amount"`
	Proof   []string `json:"proof"`
}

// ClaimManifest is the output of BuildClaimTree, per spec.md 4.K.
type ClaimManifest struct {
	Root   string              `json:"root"`
	Leaves []ClaimManifestLeaf `json:"leaves"`
}

// BuildClaimTree computes the claim tree over snapshot's entries, in
// their sorted order, and returns the canonical manifest. Re-running on
// the same snapshot and parameters reproduces byte-identical output
// (invariant 10): every input is deterministic and no randomness is
// used anywhere in this path.
func BuildClaimTree(snapshot Snapshot, mode AmountMode, address AddressFn) (ClaimManifest, error) {
	n := len(snapshot.Entries)
	if n == 0 {
		return ClaimManifest{}, fmt.Errorf("migration: empty snapshot has no claims")
	}

	leaves := make([]crypto.Hash, n)
	claims := make([]Claim, n)
	for i, e := range snapshot.Entries {
		id := claimID(snapshot.Height, i, e.PublicKey)
		addr := address(e.PublicKey)
		amount := amountFor(e, mode)
		leaves[i] = claimLeaf(snapshot.Height, id, addr, amount)
		claims[i] = Claim{ClaimID: id, Address: addr, Amount: amount}
	}

	levels := [][]crypto.Hash{leaves}
	level := leaves
	for len(level) > 1 {
		var next []crypto.Hash
		i := 0
		for ; i+1 < len(level); i += 2 {
			next = append(next, claimPair(level[i], level[i+1]))
		}
		if i < len(level) {
			next = append(next, level[i])
		}
		levels = append(levels, next)
		level = next
	}
	root := levels[len(levels)-1][0]

	manifestLeaves := make([]ClaimManifestLeaf, n)
	for i := range claims {
		proof := proveClaim(levels, i)
		proofHex := make([]string, len(proof))
		for j, p := range proof {
			proofHex[j] = hex.EncodeToString(p[:])
		}
		manifestLeaves[i] = ClaimManifestLeaf{
			ClaimID: hex.EncodeToString(claims[i].ClaimID[:]),
			Address: hex.EncodeToString(claims[i].Address),
			Amount:  claims[i].Amount,
			Proof:   proofHex,
		}
	}

	return ClaimManifest{
		Root:   hex.EncodeToString(root[:]),
		Leaves: manifestLeaves,
	}, nil
}

// VerifyClaim reconstructs the claim tree root from a single leaf's
// computed hash, its index, the total leaf count, and its proof, and
// compares it against root. The leaf index and total count together
// determine, at each level, whether a level's width was odd and this
// node was the unpaired trailing carry (in which case no sibling was
// recorded) — the same rule proveClaim used when building the proof.
func VerifyClaim(leafHash crypto.Hash, index, totalLeaves int, proof []crypto.Hash, root crypto.Hash) bool {
	cur := leafHash
	idx := index
	width := totalLeaves
	pi := 0
	for width > 1 {
		carried := width%2 == 1 && idx == width-1
		if !carried {
			if pi >= len(proof) {
				return false
			}
			sibling := proof[pi]
			pi++
			if idx%2 == 1 {
				cur = claimPair(sibling, cur)
			} else {
				cur = claimPair(cur, sibling)
			}
		}
		idx /= 2
		width = (width + 1) / 2
	}
	return pi == len(proof) && cur == root
}

func proveClaim(levels [][]crypto.Hash, index int) []crypto.Hash {
	var proof []crypto.Hash
	idx := index
	for lvl := 0; lvl < len(levels)-1; lvl++ {
		level := levels[lvl]
		isRight := idx%2 == 1
		var sibIdx int
		if isRight {
			sibIdx = idx - 1
		} else {
			sibIdx = idx + 1
		}
		if sibIdx < len(level) {
			proof = append(proof, level[sibIdx])
		}
		idx /= 2
	}
	return proof
}
