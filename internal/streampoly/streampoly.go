// Package streampoly provides a streaming multilinear polynomial
// abstraction: a capability pair (dimension, index evaluator) that never
// materializes the full hypercube. Deliberately a plain interface rather
// than a heavier framework — spec.md frames this as a capability pair an
// implementer may satisfy with a closure, a generic, or a small struct.
package streampoly

import "github.com/jrocnet/ledger/internal/field"

// Evaluator evaluates a multilinear polynomial on demand over the
// hypercube {0,1}^Dim(). Implementations own no mutable state observable
// across rounds: repeated calls to EvalAt with the same index must return
// the same value.
type Evaluator interface {
	// Dim returns n, the number of boolean variables. n <= 30 in practice.
	Dim() int
	// EvalAt returns f(i) for a hypercube index i in [0, 2^Dim()).
	EvalAt(i uint64) field.FE
}

// DenseTable is an Evaluator backed by a fully materialized evaluation
// table, useful for tests and for small polynomials where streaming
// provides no benefit.
type DenseTable struct {
	dim    int
	values []field.FE
}

// NewDenseTable builds a DenseTable from an explicit evaluation table.
// len(values) must equal 2^dim.
func NewDenseTable(dim int, values []field.FE) *DenseTable {
	if len(values) != 1<<uint(dim) {
		panic("streampoly: dense table length must equal 2^dim")
	}
	return &DenseTable{dim: dim, values: values}
}

func (d *DenseTable) Dim() int { return d.dim }

func (d *DenseTable) EvalAt(i uint64) field.FE { return d.values[i] }

// FuncEvaluator adapts an arbitrary closure to the Evaluator interface,
// for callers who want to generate evaluations on the fly instead of
// keeping them all in memory.
type FuncEvaluator struct {
	dim int
	fn  func(i uint64) field.FE
}

// NewFuncEvaluator wraps fn as an Evaluator over {0,1}^dim.
func NewFuncEvaluator(dim int, fn func(i uint64) field.FE) *FuncEvaluator {
	return &FuncEvaluator{dim: dim, fn: fn}
}

func (f *FuncEvaluator) Dim() int { return f.dim }

func (f *FuncEvaluator) EvalAt(i uint64) field.FE { return f.fn(i) }
