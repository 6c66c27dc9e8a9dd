// SPDX-License-Identifier: MIT

package arborescence_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/depdual/deptree"
	"github.com/katalvlaran/depdual/matrix"
)

const (
	seedDet = 20240917 // fixed seed for randomized tables
	epsTiny = 1e-9     // float comparison tolerance
)

var negInf = math.Inf(-1)

// mustDense builds a matrix.Dense from rows or fails the test.
func mustDense(t testing.TB, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(rows)
	require.NoError(t, err)

	return m
}

// randomFlat fills an n×n flat table with scores in [-5, 5), -Inf on the
// diagonal and in the root column.
func randomFlat(rng *rand.Rand, n int) []float64 {
	var (
		w    = make([]float64, n*n)
		h, m int
	)
	for h = 0; h < n; h++ {
		for m = 0; m < n; m++ {
			if h == m || m == 0 {
				w[h*n+m] = negInf
				continue
			}
			w[h*n+m] = rng.Float64()*10 - 5
		}
	}

	return w
}

// bruteForce enumerates every head array and returns the best tree score.
// Only usable for n ≤ 6.
func bruteForce(n int, w []float64) float64 {
	var (
		heads = make(deptree.Heads, n)
		best  = negInf
		rec   func(m int)
	)
	heads[0] = deptree.NoHead
	rec = func(m int) {
		if m == n {
			if deptree.Validate(heads) != nil {
				return
			}
			var s float64
			for k := 1; k < n; k++ {
				s += w[heads[k]*n+k]
			}
			if s > best {
				best = s
			}
			return
		}
		for h := 0; h < n; h++ {
			if h == m {
				continue
			}
			heads[m] = h
			rec(m + 1)
		}
	}
	rec(1)

	return best
}
