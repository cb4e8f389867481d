// Package sumcheck implements a non-interactive sum-check prover and
// verifier over a streaming multilinear polynomial, with challenges
// derived from a Fiat-Shamir transcript. Grounded on the sequential,
// fail-fast validation shape of the teacher's internal/disputing package:
// verify each round's consistency check in order and stop at the first
// failure, per spec.md 4.D.
package sumcheck

import (
	"errors"
	"fmt"

	"github.com/jrocnet/ledger/internal/challenge"
	"github.com/jrocnet/ledger/internal/field"
	"github.com/jrocnet/ledger/internal/streampoly"
)

// ErrProofInvalid is returned by Verify when any round's consistency
// check fails. Per spec.md 4.D this is fatal and never retried.
var ErrProofInvalid = errors.New("sumcheck: proof-invalid")

// Proof holds a completed sum-check transcript: the per-round challenges,
// the per-round (S_i(0), S_i(1)) pairs flattened in order, and the final
// single-point evaluation.
type Proof struct {
	Challenges []uint64
	RoundSums  []uint64
	Final      uint64
	Mode       challenge.Mode
}

// foldedEvaluator represents f_{i+1}(x) = (1-r)*f_i(0,x) + r*f_i(1,x),
// folding one boolean variable of inner into a field-valued challenge
// without ever materializing inner's hypercube. Recursing through n
// folds reduces to the standard multilinear-extension formula evaluated
// at (r_0, ..., r_{n-1}), at the cost of 2^k calls to the base evaluator
// for a k-times-folded point — acceptable for the dimensions this system
// targets (n <= 30), not optimized further.
type foldedEvaluator struct {
	inner streampoly.Evaluator
	r     field.FE
	p     uint64
}

func foldWith(inner streampoly.Evaluator, r field.FE, p uint64) *foldedEvaluator {
	return &foldedEvaluator{inner: inner, r: r, p: p}
}

func (f *foldedEvaluator) Dim() int { return f.inner.Dim() - 1 }

func (f *foldedEvaluator) EvalAt(i uint64) field.FE {
	d := f.Dim()
	idx0 := i
	idx1 := i | (uint64(1) << uint(d))
	v0 := reduceFE(f.inner.EvalAt(idx0), f.p)
	v1 := reduceFE(f.inner.EvalAt(idx1), f.p)
	one := field.New(1, f.p)
	return one.Sub(f.r).Mul(v0).Add(f.r.Mul(v1))
}

func reduceFE(fe field.FE, p uint64) field.FE {
	return field.New(fe.Uint64()%p, p)
}

// sumHalf sums poly over the sub-cube whose leading variable equals bit,
// i.e. S(bit) = sum over the remaining dim()-1 boolean variables.
func sumHalf(poly streampoly.Evaluator, p uint64, bit uint64) field.FE {
	d := poly.Dim()
	remaining := d - 1
	count := uint64(1) << uint(remaining)
	base := bit << uint(remaining)

	total := field.New(0, p)
	for tail := uint64(0); tail < count; tail++ {
		total = total.Add(reduceFE(poly.EvalAt(base|tail), p))
	}
	return total
}

// Prove runs the sum-check prover over poly, folding one variable per
// round with a challenge derived from the running Fiat-Shamir transcript
// of round sums and challenges seen so far.
func Prove(poly streampoly.Evaluator, p uint64) Proof {
	n := poly.Dim()
	mode := challenge.RequiredMode(p)

	var transcriptWords []uint64
	challenges := make([]uint64, 0, n)
	roundSums := make([]uint64, 0, 2*n)

	cur := poly
	for i := 0; i < n; i++ {
		s0 := sumHalf(cur, p, 0)
		s1 := sumHalf(cur, p, 1)
		roundSums = append(roundSums, s0.Uint64(), s1.Uint64())
		transcriptWords = append(transcriptWords, s0.Uint64(), s1.Uint64())

		stream := challenge.New(transcriptWords)
		r := stream.NextFE(p, mode)
		challenges = append(challenges, r.Uint64())
		transcriptWords = append(transcriptWords, r.Uint64())

		cur = foldWith(cur, r, p)
	}

	final := reduceFE(cur.EvalAt(0), p)

	return Proof{
		Challenges: challenges,
		RoundSums:  roundSums,
		Final:      final.Uint64(),
		Mode:       mode,
	}
}

// Verify recomputes the challenge stream from the same seed rule as
// Prove, checks every round's sum-check consistency equation against
// claimedSum, then folds poly with the proof's own challenges and
// compares the result against the proof's Final. Any inequality returns
// ErrProofInvalid.
func Verify(poly streampoly.Evaluator, p uint64, claimedSum uint64, proof Proof) error {
	n := poly.Dim()
	if len(proof.Challenges) != n {
		return fmt.Errorf("%w: expected %d challenges, got %d", ErrProofInvalid, n, len(proof.Challenges))
	}
	if len(proof.RoundSums) != 2*n {
		return fmt.Errorf("%w: expected %d round sums, got %d", ErrProofInvalid, 2*n, len(proof.RoundSums))
	}

	mode := challenge.RequiredMode(p)
	if mode != proof.Mode {
		return fmt.Errorf("%w: challenge mode mismatch: proof declares %q, field requires %q", ErrProofInvalid, proof.Mode, mode)
	}

	var transcriptWords []uint64
	prevS0 := field.New(0, p)
	prevS1 := field.New(0, p)

	for i := 0; i < n; i++ {
		s0 := field.New(proof.RoundSums[2*i]%p, p)
		s1 := field.New(proof.RoundSums[2*i+1]%p, p)

		if i == 0 {
			if s0.Add(s1).Uint64() != claimedSum%p {
				return fmt.Errorf("%w: round 0 sum %d+%d != claimed sum %d", ErrProofInvalid, s0.Uint64(), s1.Uint64(), claimedSum%p)
			}
		} else {
			rPrev := field.New(proof.Challenges[i-1], p)
			one := field.New(1, p)
			want := one.Sub(rPrev).Mul(prevS0).Add(rPrev.Mul(prevS1))
			if s0.Add(s1).Uint64() != want.Uint64() {
				return fmt.Errorf("%w: round %d sum %d+%d != interpolated %d", ErrProofInvalid, i, s0.Uint64(), s1.Uint64(), want.Uint64())
			}
		}

		transcriptWords = append(transcriptWords, s0.Uint64(), s1.Uint64())
		stream := challenge.New(transcriptWords)
		rExpected := stream.NextFE(p, mode)
		if rExpected.Uint64() != proof.Challenges[i] {
			return fmt.Errorf("%w: round %d challenge mismatch: expected %d, proof carries %d", ErrProofInvalid, i, rExpected.Uint64(), proof.Challenges[i])
		}
		transcriptWords = append(transcriptWords, proof.Challenges[i])

		prevS0, prevS1 = s0, s1
	}

	cur := poly
	for i := 0; i < n; i++ {
		cur = foldWith(cur, field.New(proof.Challenges[i], p), p)
	}
	final := reduceFE(cur.EvalAt(0), p)
	if final.Uint64() != proof.Final%p {
		return fmt.Errorf("%w: final value %d != recomputed %d", ErrProofInvalid, proof.Final%p, final.Uint64())
	}

	return nil
}
