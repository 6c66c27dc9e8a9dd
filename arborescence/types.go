// SPDX-License-Identifier: MIT

package arborescence

import "errors"

var (
	// ErrEmptyInput is returned for a score table with no rows.
	ErrEmptyInput = errors.New("arborescence: empty score table")

	// ErrDimensionMismatch is returned when a flat buffer does not hold n*n scores.
	ErrDimensionMismatch = errors.New("arborescence: dimension mismatch")

	// ErrNaN is returned when a score is NaN.
	ErrNaN = errors.New("arborescence: NaN score")

	// ErrRootHasHead is returned when an arc entering the root carries a score
	// other than -Inf.
	ErrRootHasHead = errors.New("arborescence: arc into the root")

	// ErrNoArborescence is returned when some node can only be attached through
	// disallowed (-Inf) arcs, i.e. it is not reachable from the root.
	ErrNoArborescence = errors.New("arborescence: no spanning arborescence rooted at 0")
)

// Result holds the outcome of a maximum spanning arborescence solve.
type Result struct {
	// Parents[m] is the head of node m; Parents[0] == -1.
	Parents []int

	// Score is the total score of the selected arcs.
	Score float64
}
