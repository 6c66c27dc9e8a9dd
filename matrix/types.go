// SPDX-License-Identifier: MIT

// Package matrix: the Matrix interface consumed by the solvers.
// This file intentionally contains ONLY the interface; errors and the dense
// implementation live in dedicated files (errors.go, dense.go).
package matrix

// Matrix represents a two-dimensional mutable array of float64 values.
//
// The arborescence solver accepts any Matrix as an arc-score table where
// At(h, m) is the score of token m attaching to head h. Solvers prefetch the
// values into their own dense buffers once, so implementations need not be fast.
//
// Complexity notes: all methods are expected O(1) except Clone (O(r*c)).
type Matrix interface {
	// Rows returns the number of rows in the matrix.
	Rows() int

	// Cols returns the number of columns in the matrix.
	Cols() int

	// At retrieves the element at position (i, j).
	// Returns ErrOutOfRange if i<0, i>=Rows(), j<0 or j>=Cols().
	At(i, j int) (float64, error)

	// Set assigns the value v at position (i, j).
	// Returns ErrOutOfRange if indices are invalid.
	Set(i, j int, v float64) error

	// Clone returns a deep copy of the matrix.
	Clone() Matrix
}
