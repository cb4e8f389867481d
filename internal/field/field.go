// Package field implements exact modular arithmetic over a prime p that
// fits in a 64-bit word.
package field

import (
	"fmt"
	"math/bits"
)

// FE is a field element: a non-negative integer strictly less than a prime
// p, carried alongside the value so mismatched-modulus operations fail
// loudly instead of silently producing garbage.
type FE struct {
	v uint64
	p uint64
}

// New reduces v modulo p and returns the resulting element. p must be an
// odd prime; this is the caller's responsibility to establish, mirroring
// the teacher's convention of trusting internally-constructed invariants
// rather than re-validating primality on every element.
func New(v, p uint64) FE {
	if p == 0 {
		panic("field: modulus must be non-zero")
	}
	return FE{v: v % p, p: p}
}

// Prime returns the modulus this element is defined over.
func (a FE) Prime() uint64 { return a.p }

// Uint64 returns the element's canonical representative in [0, p).
func (a FE) Uint64() uint64 { return a.v }

func (a FE) checkSameField(b FE) {
	if a.p != b.p {
		panic(fmt.Sprintf("field: mixed modulus operation (%d vs %d)", a.p, b.p))
	}
}

// Add returns a+b mod p.
func (a FE) Add(b FE) FE {
	a.checkSameField(b)
	sum, carry := bits.Add64(a.v, b.v, 0)
	if carry != 0 || sum >= a.p {
		sum -= a.p
	}
	return FE{v: sum, p: a.p}
}

// Sub returns a-b mod p.
func (a FE) Sub(b FE) FE {
	a.checkSameField(b)
	if a.v >= b.v {
		return FE{v: a.v - b.v, p: a.p}
	}
	return FE{v: a.p - (b.v - a.v), p: a.p}
}

// Mul returns a*b mod p using a 128-bit intermediate product.
func (a FE) Mul(b FE) FE {
	a.checkSameField(b)
	hi, lo := bits.Mul64(a.v, b.v)
	if hi == 0 {
		return FE{v: lo % a.p, p: a.p}
	}
	_, rem := bits.Div64(hi, lo, a.p)
	return FE{v: rem, p: a.p}
}

// Pow returns a^e mod p via square-and-multiply.
func (a FE) Pow(e uint64) FE {
	result := FE{v: 1 % a.p, p: a.p}
	base := a
	for e > 0 {
		if e&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		e >>= 1
	}
	return result
}

// Inv returns the multiplicative inverse of a via Fermat's little
// theorem (a^(p-2) mod p), reusing Pow's 128-bit-safe Mul rather than a
// signed extended-Euclid loop that overflows int64 for any prime above
// 2^63. Panics on a zero element, matching spec.md's "division by zero
// is a fatal error" invariant.
func (a FE) Inv() FE {
	if a.v == 0 {
		panic("field: inverse of zero")
	}
	return a.Pow(a.p - 2)
}

// Equal reports whether a and b are the same element of the same field.
func (a FE) Equal(b FE) bool {
	return a.p == b.p && a.v == b.v
}

func (a FE) String() string {
	return fmt.Sprintf("%d(mod %d)", a.v, a.p)
}
