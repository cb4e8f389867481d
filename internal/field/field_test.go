package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmeticBasics(t *testing.T) {
	p := uint64(101)
	a := New(37, p)
	b := New(64, p)

	assert.Equal(t, uint64(0), a.Add(b).Uint64())
	assert.Equal(t, uint64(74), a.Add(a).Uint64())
	assert.Equal(t, uint64(0), a.Sub(a).Uint64())
	assert.Equal(t, b.Uint64(), New(0, p).Sub(a).Uint64())
}

func TestInverseGoldenS1(t *testing.T) {
	p := uint64(101)
	inv := New(37, p).Inv()
	assert.Equal(t, uint64(71), inv.Uint64())
	assert.Equal(t, uint64(1), New(37, p).Mul(inv).Uint64())
}

func TestPowGoldenS1(t *testing.T) {
	p := uint64(101)
	result := New(57, p).Pow(100)
	assert.Equal(t, uint64(1), result.Uint64())
}

func TestMixedModulusPanics(t *testing.T) {
	a := New(1, 101)
	b := New(1, 97)
	assert.Panics(t, func() { a.Add(b) })
}

func TestInverseOfZeroPanics(t *testing.T) {
	assert.Panics(t, func() { New(0, 101).Inv() })
}

func TestMulLargePrimeNoOverflow(t *testing.T) {
	p := uint64(18446744073709551557) // largest 64-bit prime
	a := New(p-1, p)
	b := New(p-1, p)
	got := a.Mul(b)
	require.Equal(t, uint64(1), got.Uint64())
}

func TestAddCarryWraparound(t *testing.T) {
	p := uint64(18446744073709551557)
	a := New(p-1, p)
	b := New(p-1, p)
	got := a.Add(b)
	assert.Equal(t, p-2, got.Uint64())
}

func TestInvLargePrimeNoOverflow(t *testing.T) {
	p := uint64(18446744073709551557) // largest 64-bit prime
	a := New(p-1, p)
	inv := a.Inv()
	assert.Equal(t, uint64(1), a.Mul(inv).Uint64())
}
