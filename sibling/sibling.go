// SPDX-License-Identifier: MIT

package sibling

import (
	"github.com/katalvlaran/depdual/deptree"
	"github.com/katalvlaran/depdual/scoring"
)

// Problem describes one head's chain search.
type Problem struct {
	// Scorer is the read-only scoring oracle of the sentence.
	Scorer scoring.Scorer

	// Features gates the higher-order terms.
	Features scoring.Features

	// Head is the token whose children are chosen.
	Head int

	// Grandparent is the head of Head, or deptree.NoHead when none is fixed.
	Grandparent int

	// ChildBias returns the per-child share of the objective that is not a
	// higher-order term (multipliers, a first-order share). Nil means 0.
	ChildBias func(m int) float64
}

// Chain is an ordered child list and its score.
type Chain struct {
	Children []int   // ascending token indices
	Score    float64 // objective value of the list
}

// Solver holds reusable DP buffers. Not safe for concurrent use; use one
// Solver per goroutine.
type Solver struct {
	opt  []float64 // opt[s]: best chain ending at s
	back []int     // back[s]: previous child in that chain, -1 if s is first
	cand []int     // admissible children in increasing order
}

// NewSolver allocates buffers for sentences of up to n tokens.
func NewSolver(n int) *Solver {
	s := &Solver{}
	s.grow(n)

	return s
}

func (s *Solver) grow(n int) {
	if n <= len(s.opt) {
		return
	}
	s.opt = make([]float64, n)
	s.back = make([]int, n)
	s.cand = make([]int, 0, n)
}

// terms collects the gated feature switches of a Problem.
type terms struct {
	gp, cs, gs bool
}

func gates(p Problem) terms {
	hasGP := p.Grandparent >= 0

	return terms{
		gp: p.Features.UseGrandparent && hasGP,
		cs: p.Features.UseConsecutiveSibling,
		gs: p.Features.UseGrandSibling && hasGP,
	}
}

// base returns the single-child score of c.
func (p Problem) base(t terms, c int) float64 {
	var v float64
	if p.ChildBias != nil {
		v = p.ChildBias(c)
	}
	if t.gp {
		v += p.Scorer.GrandparentScore(p.Grandparent, p.Head, c)
	}

	return v
}

// trans returns the score of m and s being adjacent children.
func (p Problem) trans(t terms, m, s int) float64 {
	var v float64
	if t.cs {
		v += p.Scorer.SiblingScore(p.Head, m, s)
	}
	if t.gs {
		v += p.Scorer.GrandSiblingScore(p.Grandparent, p.Head, m, s)
	}

	return v
}

// Admissible reports whether c may be chosen as a child in p.
func Admissible(p Problem, c int) bool {
	return c != deptree.Root && c != p.Head && c != p.Grandparent && !p.Scorer.IsPruned(p.Head, c)
}

// Best returns the highest-scoring chain of p.
//
// Complexity: O(n²).
func (s *Solver) Best(p Problem) Chain {
	var (
		n        = p.Scorer.Len()
		t        = gates(p)
		a, b     int
		c, m     int
		baseC, v float64
	)
	s.grow(n)

	cand := s.cand[:0]
	for c = 1; c < n; c++ {
		if Admissible(p, c) {
			cand = append(cand, c)
		}
	}
	s.cand = cand

	for a = 0; a < len(cand); a++ {
		c = cand[a]
		baseC = p.base(t, c)
		s.opt[c] = baseC // c is the only child
		s.back[c] = -1
		for b = 0; b < a; b++ {
			m = cand[b]
			v = s.opt[m] + baseC + p.trans(t, m, c)
			if v > s.opt[c] {
				s.opt[c] = v
				s.back[c] = m
			}
		}
	}

	var (
		best = 0.0 // empty chain
		last = -1
	)
	for _, c = range cand {
		if s.opt[c] > best {
			best = s.opt[c]
			last = c
		}
	}
	if last < 0 {
		return Chain{}
	}

	var size int
	for c = last; c >= 0; c = s.back[c] {
		size++
	}
	kids := make([]int, size)
	for c = last; c >= 0; c = s.back[c] {
		size--
		kids[size] = c
	}

	return Chain{Children: kids, Score: best}
}

// ChainScore returns the objective of an explicit ascending child list
// under p, with the same term gating as Best. Admissibility is not checked.
//
// Complexity: O(len(children)).
func ChainScore(p Problem, children []int) float64 {
	var (
		t     = gates(p)
		score float64
		i     int
	)
	for i = 0; i < len(children); i++ {
		if i == 0 {
			score = p.base(t, children[0])
			continue
		}
		score = score + p.base(t, children[i]) + p.trans(t, children[i-1], children[i])
	}

	return score
}
