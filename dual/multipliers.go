// SPDX-License-Identifier: MIT

package dual

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Multipliers holds the Lagrange multipliers shared by the two subproblems:
// Head[gp][h] couples the structure side's grandparent choice with the tree
// arc gp → h, Sib[h][m] couples its child choice with the tree arc h → m.
//
// Both are n×n gonum matrices; the raw row-major backing is read directly
// at Index(h, m) = h*n + m on the hot path.
type Multipliers struct {
	n    int
	Head *mat.Dense
	Sib  *mat.Dense
	head []float64 // Head's backing array
	sib  []float64 // Sib's backing array
}

// NewMultipliers returns zeroed multipliers for n ≥ 1 tokens.
func NewMultipliers(n int) *Multipliers {
	l := &Multipliers{
		n:    n,
		Head: mat.NewDense(n, n, nil),
		Sib:  mat.NewDense(n, n, nil),
	}
	l.head = l.Head.RawMatrix().Data
	l.sib = l.Sib.RawMatrix().Data

	return l
}

// Len returns the number of tokens.
func (l *Multipliers) Len() int { return l.n }

// HeadAt returns λ_head[h][m].
func (l *Multipliers) HeadAt(h, m int) float64 { return l.head[h*l.n+m] }

// SibAt returns λ_sib[h][m].
func (l *Multipliers) SibAt(h, m int) float64 { return l.sib[h*l.n+m] }

// AddHead adds d to λ_head[h][m].
func (l *Multipliers) AddHead(h, m int, d float64) { l.head[h*l.n+m] += d }

// AddSib adds d to λ_sib[h][m].
func (l *Multipliers) AddSib(h, m int, d float64) { l.sib[h*l.n+m] += d }

// Reset zeroes both tables.
func (l *Multipliers) Reset() {
	l.Head.Zero()
	l.Sib.Zero()
}

// Norm returns the Euclidean norm of all multipliers, for diagnostics.
func (l *Multipliers) Norm() float64 {
	return math.Hypot(floats.Norm(l.head, 2), floats.Norm(l.sib, 2))
}
