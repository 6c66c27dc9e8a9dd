// SPDX-License-Identifier: MIT

package dual

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/depdual/deptree"
	"github.com/katalvlaran/depdual/scoring"
	"github.com/katalvlaran/depdual/sibling"
)

// StructureSubproblem is the higher-order side of the decomposition. Every
// head independently picks its grandparent and its child chain; the heads are
// not required to form a tree.
//
// Objective of head h with grandparent gp and children c₁ < … < c_k:
//
//	GrandSibling mode: chain(h, gp) + β·arc(gp, h) − λ_head[gp][h]
//	                   with ChildBias(c) = −λ_sib[h][c]
//	Sibling mode:      chain(h, −1) with ChildBias(c) = β·arc(h, c) − λ_sib[h][c]
//
// The root head never has a grandparent. Only dirty heads are re-solved;
// clean heads reuse their cached choice.
type StructureSubproblem struct {
	sc      scoring.Scorer
	feats   scoring.Features
	mode    scoring.Mode
	beta    float64
	lam     *Multipliers
	workers int

	n      int
	dirty  []bool
	cache  []headChoice
	pool   sync.Pool // *sibling.Solver
	zHead  Arcs
	zSib   Arcs
	solved int // heads re-solved by the last Solve
}

// headChoice is the cached optimum of one head.
type headChoice struct {
	gp    int   // deptree.NoHead for the root and in Sibling mode
	kids  []int // ascending
	score float64
}

// NewStructureSubproblem binds a structure subproblem to a sentence and the
// shared multipliers. All heads start dirty. workers ≤ 0 means one head at
// a time.
func NewStructureSubproblem(sc scoring.Scorer, feats scoring.Features, beta float64, lam *Multipliers, workers int) *StructureSubproblem {
	n := sc.Len()
	if workers < 1 {
		workers = 1
	}
	s := &StructureSubproblem{
		sc:      sc,
		feats:   feats,
		mode:    feats.Mode(),
		beta:    beta,
		lam:     lam,
		workers: workers,
		n:       n,
		dirty:   make([]bool, n),
		cache:   make([]headChoice, n),
		zHead:   NewArcs(n),
		zSib:    NewArcs(n),
	}
	s.pool.New = func() any { return sibling.NewSolver(n) }
	s.MarkAllDirty()

	return s
}

// MarkDirty schedules head h for re-solving.
func (s *StructureSubproblem) MarkDirty(h int) { s.dirty[h] = true }

// MarkAllDirty schedules every head for re-solving.
func (s *StructureSubproblem) MarkAllDirty() {
	for h := range s.dirty {
		s.dirty[h] = true
	}
}

// Dirty returns the number of heads scheduled for re-solving.
func (s *StructureSubproblem) Dirty() int {
	var c int
	for _, d := range s.dirty {
		if d {
			c++
		}
	}

	return c
}

// Solved returns the number of heads re-solved by the last Solve.
func (s *StructureSubproblem) Solved() int { return s.solved }

// problem builds the chain search of head h under grandparent gp.
func (s *StructureSubproblem) problem(h, gp int) sibling.Problem {
	p := sibling.Problem{
		Scorer:      s.sc,
		Features:    s.feats,
		Head:        h,
		Grandparent: gp,
	}
	if s.mode == scoring.Sibling {
		p.Grandparent = deptree.NoHead
		p.ChildBias = func(m int) float64 {
			return s.beta*s.sc.ArcScore(h, m) - s.lam.SibAt(h, m)
		}
	} else {
		p.ChildBias = func(m int) float64 {
			return -s.lam.SibAt(h, m)
		}
	}

	return p
}

// headTerm is the share of the arc gp → h owned by the structure side.
func (s *StructureSubproblem) headTerm(gp, h int) float64 {
	return s.beta*s.sc.ArcScore(gp, h) - s.lam.HeadAt(gp, h)
}

// usesGrandparent reports whether head h enumerates grandparents.
func (s *StructureSubproblem) usesGrandparent(h int) bool {
	return s.mode == scoring.GrandSibling && h != deptree.Root
}

// solveHead computes the optimum of head h.
func (s *StructureSubproblem) solveHead(h int, sv *sibling.Solver) (headChoice, error) {
	if !s.usesGrandparent(h) {
		ch := sv.Best(s.problem(h, deptree.NoHead))
		return headChoice{gp: deptree.NoHead, kids: ch.Children, score: ch.Score}, nil
	}

	var (
		best = headChoice{gp: deptree.NoHead, score: math.Inf(-1)}
		gp   int
		ch   sibling.Chain
		v    float64
	)
	for gp = 0; gp < s.n; gp++ {
		if gp == h || s.sc.IsPruned(gp, h) {
			continue
		}
		ch = sv.Best(s.problem(h, gp))
		v = ch.Score + s.headTerm(gp, h)
		if v > best.score {
			best = headChoice{gp: gp, kids: ch.Children, score: v}
		}
	}
	if best.gp == deptree.NoHead {
		return best, fmt.Errorf("dual: head %d: %w", h, scoring.ErrNoHead)
	}

	return best, nil
}

// Solve re-solves the dirty heads concurrently (at most workers at a time),
// clears their flags and returns the aggregated indicators and value. The
// returned Arcs are owned by the subproblem and overwritten by the next call.
//
// Complexity: O(d · n³) for d dirty heads in GrandSibling mode, O(d · n²)
// in Sibling mode.
func (s *StructureSubproblem) Solve(ctx context.Context) (zHead, zSib Arcs, value float64, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	s.solved = 0
	for h := 0; h < s.n; h++ {
		if !s.dirty[h] {
			continue
		}
		s.solved++
		h := h
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sv := s.pool.Get().(*sibling.Solver)
			defer s.pool.Put(sv)

			choice, err := s.solveHead(h, sv)
			if err != nil {
				return err
			}
			s.cache[h] = choice

			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return Arcs{}, Arcs{}, 0, err
	}

	s.zHead.Reset()
	s.zSib.Reset()
	for h := 0; h < s.n; h++ {
		s.dirty[h] = false
		c := s.cache[h]
		if c.gp >= 0 {
			s.zHead.Set(c.gp, h)
		}
		for _, m := range c.kids {
			s.zSib.Set(h, m)
		}
		value += c.score
	}

	return s.zHead, s.zSib, value, nil
}

// Score returns the structure objective of an explicit tree: each head keeps
// its tree head as grandparent and its tree children as chain.
//
// Complexity: O(n).
func (s *StructureSubproblem) Score(heads deptree.Heads) float64 {
	var (
		children = deptree.Children(heads)
		score    float64
		v        float64
		gp       int
	)
	for h := 0; h < len(heads); h++ {
		gp = deptree.NoHead
		if s.usesGrandparent(h) {
			gp = heads[h]
		}
		v = sibling.ChainScore(s.problem(h, gp), children[h])
		if gp >= 0 {
			v += s.headTerm(gp, h)
		}
		score += v
	}

	return score
}
