// SPDX-License-Identifier: MIT

package arborescence

import (
	"fmt"
	"math"

	"github.com/katalvlaran/depdual/matrix"
)

// Solve returns the maximum spanning arborescence of the score table rooted at 0.
//
// Contract:
//   - scores must be square, non-empty, NaN-free and without +Inf.
//   - Column 0 (arcs into the root) must be -Inf off the diagonal.
//   - -Inf entries are never selected; if a node cannot be attached otherwise,
//     ErrNoArborescence is returned.
//
// Complexity: O(n³) time, O(n²) memory.
func Solve(scores matrix.Matrix) (Result, error) {
	if err := matrix.ValidateScores(scores); err != nil {
		if scores != nil && (scores.Rows() == 0 || scores.Cols() == 0) {
			return Result{}, ErrEmptyInput
		}
		return Result{}, fmt.Errorf("arborescence: %w", err)
	}

	// Dense prefetch; the diagonal is never an arc.
	var (
		n    = scores.Rows()
		w    = make([]float64, n*n)
		i, j int
		x    float64
	)
	for i = 0; i < n; i++ { // heads
		for j = 0; j < n; j++ { // modifiers
			if i == j {
				w[i*n+j] = math.Inf(-1)
				continue
			}
			x, _ = scores.At(i, j) // shape validated above
			w[i*n+j] = x
		}
	}

	s := NewSolver(n)
	par, total, err := s.SolveDense(n, w)
	if err != nil {
		return Result{}, err
	}

	return Result{Parents: par, Score: total}, nil
}

// Solver holds the working state of the contraction algorithm.
// Buffers are sized for 2n nodes and reused across calls; a Solver is not
// safe for concurrent use.
type Solver struct {
	stride int // row stride of w/oldI/oldO (= 2·capacity)

	w    []float64 // w[i*stride+j]: score of i → j at the current level
	oldI []int     // oldI[N*stride+i]: cycle node that virtual N leaves from towards i
	oldO []int     // oldO[i*stride+N]: cycle node that i enters when attaching to virtual N

	ok    []bool // node still active
	vis   []bool // cycle search: visited
	stack []bool // cycle search: on the current walk; after contraction, cycle membership

	finalPar []int // expanded parent array
}

// NewSolver allocates a Solver able to handle sentences of up to n nodes.
// Larger inputs grow the buffers on demand.
func NewSolver(n int) *Solver {
	s := &Solver{}
	s.grow(n)

	return s
}

// grow (re)allocates the buffers for n real nodes.
func (s *Solver) grow(n int) {
	m := n << 1 // at most n−1 virtual nodes are ever created
	if m < 2 {
		m = 2
	}
	if m <= s.stride {
		return
	}
	s.stride = m
	s.w = make([]float64, m*m)
	s.oldI = make([]int, m*m)
	s.oldO = make([]int, m*m)
	s.ok = make([]bool, m)
	s.vis = make([]bool, m)
	s.stack = make([]bool, m)
	s.finalPar = make([]int, m)
}

// SolveDense runs the solver on a flat n×n buffer w (w[h*n+m]).
// The buffer is not modified. Returns the parent array (par[0] == -1) and
// the total score of the selected arcs.
//
// Complexity: O(n³) time; no allocations beyond per-level parent slices once
// the buffers have grown to n.
func (s *Solver) SolveDense(n int, w []float64) ([]int, float64, error) {
	if n <= 0 {
		return nil, 0, ErrEmptyInput
	}
	if len(w) != n*n {
		return nil, 0, ErrDimensionMismatch
	}
	s.grow(n)

	var (
		i, j int
		x    float64
		M    = s.stride
	)
	for i = 0; i < n; i++ { // copy rows into the strided buffer
		for j = 0; j < n; j++ {
			x = w[i*n+j]
			if math.IsNaN(x) {
				return nil, 0, ErrNaN
			}
			if j == 0 && i != 0 && !math.IsInf(x, -1) {
				return nil, 0, fmt.Errorf("arc %d→0: %w", i, ErrRootHasHead)
			}
			s.w[i*M+j] = x
		}
	}
	for i = 0; i < M; i++ {
		s.ok[i] = true
		s.finalPar[i] = -1
	}

	s.contract(n)

	// Collect the result and score it against the caller's buffer.
	var (
		par   = make([]int, n)
		total float64
		h     int
	)
	par[0] = -1
	for i = 1; i < n; i++ {
		h = s.finalPar[i]
		if h < 0 || h >= n {
			return nil, 0, ErrNoArborescence
		}
		x = w[h*n+i]
		if math.IsInf(x, -1) {
			return nil, 0, fmt.Errorf("node %d: %w", i, ErrNoArborescence)
		}
		par[i] = h
		total += x
	}

	return par, total, nil
}

// contract solves the level with N nodes (indices ≥ the real size are
// virtual) and writes the parents of all active nodes into s.finalPar.
func (s *Solver) contract(N int) {
	var (
		M    = s.stride
		par  = make([]int, N)
		i, j int
		best float64
	)

	// Stage 1: greedy best incoming arc per active node.
	for i = 0; i < N; i++ {
		par[i] = -1
	}
	for i = 1; i < N; i++ {
		if !s.ok[i] {
			continue
		}
		par[i] = 0 // root first
		best = s.w[i]
		for j = 1; j < N; j++ {
			if i != j && s.ok[j] && best < s.w[j*M+i] {
				par[i] = j
				best = s.w[j*M+i]
			}
		}
	}

	// Stage 2: find the longest cycle of the parent graph.
	var (
		maxLen = 0
		start  = -1
		size   int
		k      int
	)
	for i = 0; i < N; i++ {
		s.vis[i] = false
		s.stack[i] = false
	}
	for i = 0; i < N; i++ {
		if s.vis[i] || !s.ok[i] {
			continue // inactive or already explored
		}
		for j = i; j != -1 && !s.vis[j]; j = par[j] { // walk towards the root
			s.vis[j] = true
			s.stack[j] = true
		}
		if j != -1 && s.stack[j] {
			// The walk closed on itself: j → ... → j.
			size = 1
			for k = par[j]; k != j; k = par[k] {
				size++
			}
			if size > maxLen {
				maxLen = size
				start = j
			}
		}
		for j = i; j != -1 && s.stack[j]; j = par[j] { // clear the walk
			s.stack[j] = false
		}
	}

	if maxLen == 0 {
		// Acyclic: the greedy graph is the optimum at this level.
		for i = 0; i < N; i++ {
			s.finalPar[i] = par[i]
		}
		return
	}

	// Stage 3: contract the cycle into the virtual node N.
	circle := s.w[par[start]*M+start]
	s.stack[start] = true
	s.ok[start] = false
	for i = par[start]; i != start; i = par[i] {
		s.stack[i] = true
		s.ok[i] = false
		circle += s.w[par[i]*M+i]
	}

	var (
		maxTo, maxFrom float64 // best score into / out of the cycle
		to, from       int     // cycle nodes realizing them
		cand           float64
	)
	for i = 0; i < N; i++ {
		if s.stack[i] || !s.ok[i] {
			continue // cycle members and inactive nodes
		}
		maxTo, maxFrom = math.Inf(-1), math.Inf(-1)
		to, from = start, start
		for j = start; ; {
			if s.w[j*M+i] > maxFrom {
				maxFrom = s.w[j*M+i]
				from = j
			}
			cand = circle + s.w[i*M+j] - s.w[par[j]*M+j]
			if cand > maxTo {
				maxTo = cand
				to = j
			}
			j = par[j]
			if j == start {
				break
			}
		}
		s.w[N*M+i] = maxFrom
		s.oldI[N*M+i] = from
		s.w[i*M+N] = maxTo
		s.oldO[i*M+N] = to
	}

	// Stage 4: recurse on the contracted graph.
	s.contract(N + 1)

	// Stage 5: expand the virtual node.
	for i = 0; i < N; i++ {
		if s.finalPar[i] == N {
			s.finalPar[i] = s.oldI[N*M+i] // leave the cycle from the remembered member
		}
	}
	s.finalPar[s.oldO[s.finalPar[N]*M+N]] = s.finalPar[N] // the arc that breaks the cycle
	for i = start; ; {
		j = par[i]
		if s.finalPar[i] == -1 {
			s.finalPar[i] = j // keep the remaining cycle arcs
		}
		i = j
		if i == start {
			break
		}
	}
}

// GreedyParents returns, for every non-root node of the flat n×n buffer w,
// the head with the highest-scoring incoming arc (root first, ascending index,
// strict improvement). par[0] == -1. The result may contain cycles.
//
// Complexity: O(n²).
func GreedyParents(n int, w []float64) []int {
	var (
		par  = make([]int, n)
		i, j int
		best float64
	)
	if n == 0 {
		return par
	}
	par[0] = -1
	for i = 1; i < n; i++ {
		par[i] = 0
		best = w[i]
		for j = 1; j < n; j++ {
			if i != j && best < w[j*n+i] {
				par[i] = j
				best = w[j*n+i]
			}
		}
	}

	return par
}
