package da

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/jrocnet/ledger/internal/da/pedersen"
	"github.com/jrocnet/ledger/internal/merkle"
)

// ShareProof bundles a single share's inclusion proof against both
// commitment roots.
type ShareProof struct {
	Index         int
	Payload       []byte
	ShareSteps    []merkle.ProofStep
	PedersenSteps []pedersen.ProofStep
}

// allShares reloads every persisted share of a commitment, in order,
// returning an error that callers turn into blob-missing evidence if any
// are absent.
func (s *Store) allShares(c Commitment) ([][]byte, []int, error) {
	shares := make([][]byte, 0, c.ShareCount)
	var missing []int
	for i := 0; i < c.ShareCount; i++ {
		share, err := s.GetShare(c.Namespace, c.Hash, i)
		if err != nil {
			missing = append(missing, i)
			shares = append(shares, nil)
			continue
		}
		shares = append(shares, share)
	}
	if len(missing) > 0 {
		return shares, missing, ErrShareMissing
	}
	return shares, nil, nil
}

// ProveStorage returns the inclusion proof for shard idx against both
// commitment roots. If the share is absent on disk, it appends a
// blob-missing evidence record naming the publisher and returns
// ErrShareMissing.
func (s *Store) ProveStorage(namespace string, hash [32]byte, idx int) (ShareProof, error) {
	c, err := s.GetCommitment(namespace, hash)
	if err != nil {
		return ShareProof{}, err
	}
	if idx < 0 || idx >= c.ShareCount {
		return ShareProof{}, fmt.Errorf("da: index %d out of range [0,%d)", idx, c.ShareCount)
	}

	shares, missing, err := s.allShares(c)
	if err != nil {
		for _, m := range missing {
			s.recordBlobMissing(c, m)
		}
		return ShareProof{}, err
	}

	shareTree := merkle.Build(shares)
	pedersenTree := pedersen.Build(shares)

	shareSteps, err := shareTree.Prove(idx)
	if err != nil {
		return ShareProof{}, err
	}
	pedersenSteps, err := pedersenTree.Prove(idx)
	if err != nil {
		return ShareProof{}, err
	}

	return ShareProof{
		Index:         idx,
		Payload:       shares[idx],
		ShareSteps:    shareSteps,
		PedersenSteps: pedersenSteps,
	}, nil
}

// Sample returns proofs for count distinct, randomly chosen share
// indices of namespace/hash.
func (s *Store) Sample(namespace string, hash [32]byte, count int) ([]ShareProof, error) {
	c, err := s.GetCommitment(namespace, hash)
	if err != nil {
		return nil, err
	}
	if count > c.ShareCount {
		count = c.ShareCount
	}

	indices, err := randomDistinctIndices(c.ShareCount, count)
	if err != nil {
		return nil, err
	}

	proofs := make([]ShareProof, 0, count)
	for _, idx := range indices {
		p, err := s.ProveStorage(namespace, hash, idx)
		if err != nil {
			continue
		}
		proofs = append(proofs, p)
	}
	return proofs, nil
}

func randomDistinctIndices(n, count int) ([]int, error) {
	if count <= 0 || n <= 0 {
		return nil, nil
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, fmt.Errorf("da: sampling randomness: %w", err)
		}
		jj := int(j.Int64())
		pool[i], pool[jj] = pool[jj], pool[i]
	}
	if count > n {
		count = n
	}
	return pool[:count], nil
}
