// SPDX-License-Identifier: MIT

package dual

import (
	"fmt"
	"math"

	"github.com/katalvlaran/depdual/arborescence"
	"github.com/katalvlaran/depdual/deptree"
	"github.com/katalvlaran/depdual/scoring"
)

// TreeSubproblem is the first-order side of the decomposition: a maximum
// spanning arborescence over
//
//	w(h, m) = (1−β)·arc(h, m) + λ_head[h][m] + λ_sib[h][m]
//
// with pruned arcs disallowed.
type TreeSubproblem struct {
	sc   scoring.Scorer
	beta float64
	lam  *Multipliers

	n      int
	solver *arborescence.Solver
	w      []float64 // flat adjusted scores, w[h*n+m]
	y      Arcs      // last solution
	heads  deptree.Heads
}

// NewTreeSubproblem binds a tree subproblem to a sentence and the shared
// multipliers. The multipliers are read, never written.
func NewTreeSubproblem(sc scoring.Scorer, beta float64, lam *Multipliers) *TreeSubproblem {
	n := sc.Len()

	return &TreeSubproblem{
		sc:     sc,
		beta:   beta,
		lam:    lam,
		n:      n,
		solver: arborescence.NewSolver(n),
		w:      make([]float64, n*n),
		y:      NewArcs(n),
	}
}

// weight returns the adjusted score of h → m.
func (t *TreeSubproblem) weight(h, m int) float64 {
	return (1-t.beta)*t.sc.ArcScore(h, m) + t.lam.HeadAt(h, m) + t.lam.SibAt(h, m)
}

// Solve returns the best tree under the adjusted scores as an arc indicator
// and its value. The returned Arcs is owned by the subproblem and is
// overwritten by the next call.
//
// Complexity: O(n³).
func (t *TreeSubproblem) Solve() (Arcs, float64, error) {
	var (
		n    = t.n
		h, m int
	)
	for h = 0; h < n; h++ {
		for m = 0; m < n; m++ {
			if m == 0 || h == m || t.sc.IsPruned(h, m) {
				t.w[h*n+m] = math.Inf(-1)
				continue
			}
			t.w[h*n+m] = t.weight(h, m)
		}
	}

	par, value, err := t.solver.SolveDense(n, t.w)
	if err != nil {
		return Arcs{}, 0, fmt.Errorf("dual: tree subproblem: %w", err)
	}

	t.y.Reset()
	for m = 1; m < n; m++ {
		t.y.Set(par[m], m)
	}
	t.heads = deptree.FromParents(par, n)

	return t.y, value, nil
}

// Heads returns a copy of the last solution, nil before the first Solve.
func (t *TreeSubproblem) Heads() deptree.Heads {
	return t.heads.Clone()
}

// Score returns the adjusted objective of an explicit tree without solving.
//
// Complexity: O(n).
func (t *TreeSubproblem) Score(heads deptree.Heads) float64 {
	var score float64
	for m := 1; m < len(heads); m++ {
		score += t.weight(heads[m], m)
	}

	return score
}
