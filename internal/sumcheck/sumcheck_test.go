package sumcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrocnet/ledger/internal/field"
	"github.com/jrocnet/ledger/internal/streampoly"
)

func denseFE(p uint64, vals ...uint64) []field.FE {
	out := make([]field.FE, len(vals))
	for i, v := range vals {
		out[i] = field.New(v, p)
	}
	return out
}

func TestProveVerifyGoldenS2(t *testing.T) {
	p := uint64(97)
	values := []uint64{0, 1, 4, 5, 7, 8, 11, 23}
	var claimedSum uint64
	for _, v := range values {
		claimedSum += v
	}
	require.Equal(t, uint64(59), claimedSum)

	poly := streampoly.NewDenseTable(3, denseFE(p, values...))
	proof := Prove(poly, p)

	assert.Len(t, proof.Challenges, 3)
	assert.Len(t, proof.RoundSums, 6)

	err := Verify(poly, p, claimedSum, proof)
	assert.NoError(t, err)
}

func TestVerifyRejectsWrongClaimedSum(t *testing.T) {
	p := uint64(97)
	values := []uint64{0, 1, 4, 5, 7, 8, 11, 23}
	poly := streampoly.NewDenseTable(3, denseFE(p, values...))
	proof := Prove(poly, p)

	err := Verify(poly, p, 60, proof)
	assert.ErrorIs(t, err, ErrProofInvalid)
}

func TestVerifyRejectsTamperedFinal(t *testing.T) {
	p := uint64(97)
	values := []uint64{0, 1, 4, 5, 7, 8, 11, 23}
	poly := streampoly.NewDenseTable(3, denseFE(p, values...))
	proof := Prove(poly, p)
	proof.Final = (proof.Final + 1) % p

	err := Verify(poly, p, 59, proof)
	assert.ErrorIs(t, err, ErrProofInvalid)
}

func TestVerifyRejectsTamperedChallenge(t *testing.T) {
	p := uint64(97)
	values := []uint64{0, 1, 4, 5, 7, 8, 11, 23}
	poly := streampoly.NewDenseTable(3, denseFE(p, values...))
	proof := Prove(poly, p)
	proof.Challenges[0] = (proof.Challenges[0] + 1) % p

	err := Verify(poly, p, 59, proof)
	assert.ErrorIs(t, err, ErrProofInvalid)
}

func TestVerifyRejectsTamperedRoundSum(t *testing.T) {
	p := uint64(97)
	values := []uint64{0, 1, 4, 5, 7, 8, 11, 23}
	poly := streampoly.NewDenseTable(3, denseFE(p, values...))
	proof := Prove(poly, p)
	proof.RoundSums[0] = (proof.RoundSums[0] + 1) % p

	err := Verify(poly, p, 59, proof)
	assert.ErrorIs(t, err, ErrProofInvalid)
}

func TestDeterministicAcrossRuns(t *testing.T) {
	p := uint64(97)
	values := []uint64{0, 1, 4, 5, 7, 8, 11, 23}
	poly := streampoly.NewDenseTable(3, denseFE(p, values...))

	a := Prove(poly, p)
	b := Prove(poly, p)
	assert.Equal(t, a, b)
}

func TestSingleVariablePolynomial(t *testing.T) {
	p := uint64(101)
	poly := streampoly.NewDenseTable(1, denseFE(p, 3, 7))
	proof := Prove(poly, p)
	require.NoError(t, Verify(poly, p, 10, proof))
}
