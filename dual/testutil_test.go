// SPDX-License-Identifier: MIT

package dual_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/depdual/deptree"
	"github.com/katalvlaran/depdual/scoring"
)

const epsTiny = 1e-9

var allFeatures = scoring.Features{UseGrandparent: true, UseGrandSibling: true, UseConsecutiveSibling: true}

// fourTokens builds "root A B C" favoring root→A, A→B, A→C; every other
// arc scores -5 and no higher-order score is set.
func fourTokens(t testing.TB) *scoring.Table {
	t.Helper()
	tb, err := scoring.NewTable(4)
	require.NoError(t, err)
	for h := 0; h < 4; h++ {
		for m := 1; m < 4; m++ {
			if h != m {
				require.NoError(t, tb.SetArc(h, m, -5))
			}
		}
	}
	require.NoError(t, tb.SetArc(0, 1, 5))
	require.NoError(t, tb.SetArc(1, 2, 5))
	require.NoError(t, tb.SetArc(1, 3, 5))

	return tb
}

// randomTable fills every score family of an n-token table from rng.
func randomTable(t testing.TB, rng *rand.Rand, n int) *scoring.Table {
	t.Helper()
	tb, err := scoring.NewTable(n)
	require.NoError(t, err)
	for h := 0; h < n; h++ {
		for m := 1; m < n; m++ {
			if h == m {
				continue
			}
			require.NoError(t, tb.SetArc(h, m, rng.Float64()*4-2))
			for s := m + 1; s < n; s++ {
				if s != h {
					_ = tb.SetSibling(h, m, s, rng.Float64()*2-1)
				}
			}
			for gp := 0; gp < n; gp++ {
				if gp == h || gp == m || h == 0 {
					continue
				}
				_ = tb.SetGrandparent(gp, h, m, rng.Float64()*2-1)
				for s := m + 1; s < n; s++ {
					if s != h && s != gp {
						_ = tb.SetGrandSibling(gp, h, m, s, rng.Float64()-0.5)
					}
				}
			}
		}
	}

	return tb
}

// bestTree enumerates every tree and returns the maximum joint objective.
func bestTree(sc scoring.Scorer, f scoring.Features) (deptree.Heads, float64) {
	var (
		n     = sc.Len()
		heads = make(deptree.Heads, n)
		best  deptree.Heads
		score float64
		rec   func(m int)
		found bool
	)
	heads[0] = deptree.NoHead
	rec = func(m int) {
		if m == n {
			if deptree.Validate(heads) != nil {
				return
			}
			v := scoring.Objective(sc, f, heads)
			if !found || v > score {
				found, score, best = true, v, heads.Clone()
			}
			return
		}
		for h := 0; h < n; h++ {
			if h == m || sc.IsPruned(h, m) {
				continue
			}
			heads[m] = h
			rec(m + 1)
		}
	}
	rec(1)

	return best, score
}
