// SPDX-License-Identifier: MIT

package scoring

import (
	"fmt"
	"math"

	"github.com/katalvlaran/depdual/matrix"
)

// Table is a dense in-memory Scorer.
//
// First-order scores live in a flat buffer arc[h*n+m]; higher-order scores are
// sparse (absent terms score 0). A fresh Table allows every arc except arcs
// into the root and self arcs, all scored 0.
//
// A Table is mutable while it is being filled and must not be modified while
// a decoder reads it.
type Table struct {
	n      int
	arc    []float64 // arc[h*n+m]
	pruned []bool    // pruned[h*n+m]

	sib map[int]float64 // key ((h*n)+m)*n+s
	gpc map[int]float64 // key ((gp*n)+h)*n+m
	gsb map[int]float64 // key (((gp*n)+h)*n+m)*n+s
}

// Ensure interface compliance at compile time.
var _ Scorer = (*Table)(nil)

// NewTable allocates a Table for a sentence of n tokens (root included).
// Complexity: O(n²).
func NewTable(n int) (*Table, error) {
	if n < 1 {
		return nil, ErrBadLength
	}
	t := &Table{
		n:      n,
		arc:    make([]float64, n*n),
		pruned: make([]bool, n*n),
		sib:    make(map[int]float64),
		gpc:    make(map[int]float64),
		gsb:    make(map[int]float64),
	}
	var h int
	for h = 0; h < n; h++ {
		t.pruned[h*n+h] = true // self arcs
		t.pruned[h*n] = true   // arcs into the root
	}

	return t, nil
}

// NewTableFromMatrix builds a Table whose arc scores are copied from scores.
// Entries equal to -Inf are pruned; the root column and diagonal are ignored.
// Complexity: O(n²).
func NewTableFromMatrix(scores matrix.Matrix) (*Table, error) {
	if err := matrix.ValidateScores(scores); err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}
	t, err := NewTable(scores.Rows())
	if err != nil {
		return nil, err
	}
	var (
		h, m int
		v    float64
	)
	for h = 0; h < t.n; h++ {
		for m = 1; m < t.n; m++ {
			if h == m {
				continue
			}
			v, _ = scores.At(h, m) // shape validated above
			if math.IsInf(v, -1) {
				t.pruned[h*t.n+m] = true
				continue
			}
			t.arc[h*t.n+m] = v
		}
	}

	return t, nil
}

// Len returns the number of tokens.
func (t *Table) Len() int { return t.n }

// ArcScore returns the first-order score of h → m.
func (t *Table) ArcScore(h, m int) float64 { return t.arc[h*t.n+m] }

// IsPruned reports whether h → m is disallowed.
func (t *Table) IsPruned(h, m int) bool { return t.pruned[h*t.n+m] }

// SiblingScore returns the consecutive-sibling score of (h, m, s).
func (t *Table) SiblingScore(h, m, s int) float64 { return t.sib[(h*t.n+m)*t.n+s] }

// GrandparentScore returns the grandparent score of (gp, h, m).
func (t *Table) GrandparentScore(gp, h, m int) float64 { return t.gpc[(gp*t.n+h)*t.n+m] }

// GrandSiblingScore returns the grandparent-sibling score of (gp, h, m, s).
func (t *Table) GrandSiblingScore(gp, h, m, s int) float64 {
	return t.gsb[((gp*t.n+h)*t.n+m)*t.n+s]
}

// checkArc validates an arc h → m for writing.
func (t *Table) checkArc(h, m int) error {
	if h < 0 || h >= t.n || m < 0 || m >= t.n {
		return fmt.Errorf("arc %d→%d: %w", h, m, ErrIndexOutOfRange)
	}
	if m == 0 {
		return fmt.Errorf("arc %d→%d: %w", h, m, ErrRootArc)
	}
	if h == m {
		return fmt.Errorf("arc %d→%d: %w", h, m, ErrSelfArc)
	}

	return nil
}

// checkScore rejects NaN and ±Inf.
func checkScore(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrBadScore
	}

	return nil
}

// SetArc sets the score of h → m and marks the arc as allowed.
func (t *Table) SetArc(h, m int, v float64) error {
	if err := t.checkArc(h, m); err != nil {
		return err
	}
	if err := checkScore(v); err != nil {
		return err
	}
	t.arc[h*t.n+m] = v
	t.pruned[h*t.n+m] = false

	return nil
}

// Prune disallows h → m.
func (t *Table) Prune(h, m int) error {
	if err := t.checkArc(h, m); err != nil {
		return err
	}
	t.pruned[h*t.n+m] = true

	return nil
}

// SetSibling sets the score of m and s as consecutive children of h.
func (t *Table) SetSibling(h, m, s int, v float64) error {
	if err := t.checkArc(h, m); err != nil {
		return err
	}
	if err := t.checkArc(h, s); err != nil {
		return err
	}
	if m >= s {
		return fmt.Errorf("siblings %d,%d must be increasing: %w", m, s, ErrIndexOutOfRange)
	}
	if err := checkScore(v); err != nil {
		return err
	}
	t.sib[(h*t.n+m)*t.n+s] = v

	return nil
}

// SetGrandparent sets the score of the chain gp → h → m.
func (t *Table) SetGrandparent(gp, h, m int, v float64) error {
	if err := t.checkArc(gp, h); err != nil {
		return err
	}
	if err := t.checkArc(h, m); err != nil {
		return err
	}
	if gp == m {
		return fmt.Errorf("grandparent %d equals modifier: %w", gp, ErrSelfArc)
	}
	if err := checkScore(v); err != nil {
		return err
	}
	t.gpc[(gp*t.n+h)*t.n+m] = v

	return nil
}

// SetGrandSibling sets the score of consecutive children m < s of h under gp.
func (t *Table) SetGrandSibling(gp, h, m, s int, v float64) error {
	if err := t.checkArc(gp, h); err != nil {
		return err
	}
	if err := t.checkArc(h, m); err != nil {
		return err
	}
	if err := t.checkArc(h, s); err != nil {
		return err
	}
	if m >= s {
		return fmt.Errorf("siblings %d,%d must be increasing: %w", m, s, ErrIndexOutOfRange)
	}
	if gp == m || gp == s {
		return fmt.Errorf("grandparent %d equals a sibling: %w", gp, ErrSelfArc)
	}
	if err := checkScore(v); err != nil {
		return err
	}
	t.gsb[((gp*t.n+h)*t.n+m)*t.n+s] = v

	return nil
}

// Validate checks that every non-root token has at least one admissible head.
// It is the generic check for any Scorer (see Check).
func (t *Table) Validate() error { return Check(t) }

// Check verifies the structural preconditions of a Scorer: at least the root
// token, arcs into the root and self arcs pruned, finite unpruned arc scores,
// and an admissible head for every non-root token.
//
// Complexity: O(n²).
func Check(sc Scorer) error {
	n := sc.Len()
	if n < 1 {
		return ErrBadLength
	}
	var (
		h, m  int
		found bool
		v     float64
	)
	for h = 0; h < n; h++ {
		if !sc.IsPruned(h, 0) {
			return fmt.Errorf("arc %d→0: %w", h, ErrRootArc)
		}
		if !sc.IsPruned(h, h) {
			return fmt.Errorf("arc %d→%d: %w", h, h, ErrSelfArc)
		}
	}
	for m = 1; m < n; m++ {
		found = false
		for h = 0; h < n; h++ {
			if sc.IsPruned(h, m) {
				continue
			}
			v = sc.ArcScore(h, m)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("arc %d→%d: %w", h, m, ErrBadScore)
			}
			found = true
		}
		if !found {
			return fmt.Errorf("token %d: %w", m, ErrNoHead)
		}
	}

	return nil
}

// ArcMatrix exports the first-order scores of sc as a dense n×n matrix with
// -Inf on pruned arcs, the layout accepted by arborescence.Solve.
// Complexity: O(n²).
func ArcMatrix(sc Scorer) *matrix.Dense {
	n := sc.Len()
	m, _ := matrix.NewDense(n, n) // n ≥ 1 is a Check precondition
	var h, d int
	for h = 0; h < n; h++ {
		for d = 0; d < n; d++ {
			if sc.IsPruned(h, d) {
				_ = m.Set(h, d, math.Inf(-1))
				continue
			}
			_ = m.Set(h, d, sc.ArcScore(h, d))
		}
	}

	return m
}
