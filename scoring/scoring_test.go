// SPDX-License-Identifier: MIT

package scoring_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/depdual/deptree"
	"github.com/katalvlaran/depdual/matrix"
	"github.com/katalvlaran/depdual/scoring"
)

// TestFeatures_Mode checks the closed mode selection.
func TestFeatures_Mode(t *testing.T) {
	assert.Equal(t, scoring.FirstOrder, scoring.Features{}.Mode())
	assert.Equal(t, scoring.Sibling, scoring.Features{UseConsecutiveSibling: true}.Mode())
	assert.Equal(t, scoring.GrandSibling, scoring.Features{UseGrandparent: true}.Mode())
	assert.Equal(t, scoring.GrandSibling, scoring.Features{UseGrandSibling: true, UseConsecutiveSibling: true}.Mode())
	assert.Equal(t, "grand-sibling", scoring.GrandSibling.String())
}

// TestNewTable_Defaults verifies root/self arcs are pruned and the rest allowed.
func TestNewTable_Defaults(t *testing.T) {
	_, err := scoring.NewTable(0)
	require.ErrorIs(t, err, scoring.ErrBadLength)

	tb, err := scoring.NewTable(3)
	require.NoError(t, err)
	assert.Equal(t, 3, tb.Len())
	assert.True(t, tb.IsPruned(1, 0))
	assert.True(t, tb.IsPruned(2, 2))
	assert.False(t, tb.IsPruned(0, 1))
	assert.False(t, tb.IsPruned(2, 1))
	assert.NoError(t, tb.Validate())
}

// TestTable_Setters covers each setter and its guards.
func TestTable_Setters(t *testing.T) {
	tb, _ := scoring.NewTable(4)

	require.NoError(t, tb.SetArc(0, 1, 2.5))
	assert.Equal(t, 2.5, tb.ArcScore(0, 1))
	assert.ErrorIs(t, tb.SetArc(1, 0, 1), scoring.ErrRootArc)
	assert.ErrorIs(t, tb.SetArc(2, 2, 1), scoring.ErrSelfArc)
	assert.ErrorIs(t, tb.SetArc(0, 9, 1), scoring.ErrIndexOutOfRange)
	assert.ErrorIs(t, tb.SetArc(0, 2, math.NaN()), scoring.ErrBadScore)

	require.NoError(t, tb.Prune(0, 2))
	assert.True(t, tb.IsPruned(0, 2))
	require.NoError(t, tb.SetArc(0, 2, 1)) // re-allowing via SetArc
	assert.False(t, tb.IsPruned(0, 2))

	require.NoError(t, tb.SetSibling(1, 2, 3, 0.5))
	assert.Equal(t, 0.5, tb.SiblingScore(1, 2, 3))
	assert.Equal(t, 0.0, tb.SiblingScore(1, 3, 2))
	assert.ErrorIs(t, tb.SetSibling(1, 3, 2, 0.5), scoring.ErrIndexOutOfRange)

	require.NoError(t, tb.SetGrandparent(0, 1, 2, 0.25))
	assert.Equal(t, 0.25, tb.GrandparentScore(0, 1, 2))
	assert.ErrorIs(t, tb.SetGrandparent(2, 1, 2, 1), scoring.ErrSelfArc)

	require.NoError(t, tb.SetGrandSibling(0, 1, 2, 3, -1))
	assert.Equal(t, -1.0, tb.GrandSiblingScore(0, 1, 2, 3))
	assert.ErrorIs(t, tb.SetGrandSibling(3, 1, 2, 3, 1), scoring.ErrSelfArc)
}

// TestCheck_NoHead reports a token whose every incoming arc is pruned.
func TestCheck_NoHead(t *testing.T) {
	tb, _ := scoring.NewTable(3)
	require.NoError(t, tb.Prune(0, 2))
	require.NoError(t, tb.Prune(1, 2))
	assert.ErrorIs(t, tb.Validate(), scoring.ErrNoHead)
}

// TestNewTableFromMatrix maps -Inf entries to pruned arcs.
func TestNewTableFromMatrix(t *testing.T) {
	inf := math.Inf(-1)
	m, err := matrix.NewDenseFrom([][]float64{
		{0, 1, inf},
		{inf, 0, 2},
		{inf, 3, 0},
	})
	require.NoError(t, err)

	tb, err := scoring.NewTableFromMatrix(m)
	require.NoError(t, err)
	assert.True(t, tb.IsPruned(0, 2))
	assert.False(t, tb.IsPruned(1, 2))
	assert.Equal(t, 3.0, tb.ArcScore(2, 1))

	back := scoring.ArcMatrix(tb)
	v, _ := back.At(0, 2)
	assert.True(t, math.IsInf(v, -1))
	v, _ = back.At(1, 2)
	assert.Equal(t, 2.0, v)
}

// TestObjective sums every enabled family over a small tree.
func TestObjective(t *testing.T) {
	tb, _ := scoring.NewTable(4)
	require.NoError(t, tb.SetArc(0, 1, 1))
	require.NoError(t, tb.SetArc(1, 2, 2))
	require.NoError(t, tb.SetArc(1, 3, 3))
	require.NoError(t, tb.SetSibling(1, 2, 3, 10))
	require.NoError(t, tb.SetGrandparent(0, 1, 2, 100))
	require.NoError(t, tb.SetGrandparent(0, 1, 3, 200))
	require.NoError(t, tb.SetGrandSibling(0, 1, 2, 3, 1000))

	heads := deptree.Heads{-1, 0, 1, 1}
	assert.Equal(t, 6.0, scoring.Objective(tb, scoring.Features{}, heads))
	assert.Equal(t, 16.0, scoring.Objective(tb, scoring.Features{UseConsecutiveSibling: true}, heads))
	assert.Equal(t, 1316.0, scoring.Objective(tb, scoring.Features{
		UseConsecutiveSibling: true,
		UseGrandparent:        true,
		UseGrandSibling:       true,
	}, heads))
}

// TestLossAugmented adds the Hamming loss off the gold tree only.
func TestLossAugmented(t *testing.T) {
	tb, _ := scoring.NewTable(3)
	la := scoring.LossAugmented{Scorer: tb, Gold: deptree.Heads{-1, 0, 1}}

	assert.Equal(t, 0.0, la.ArcScore(0, 1))
	assert.Equal(t, 1.0, la.ArcScore(2, 1))

	la.Loss = 0.5
	assert.Equal(t, 0.5, la.ArcScore(0, 2))
}
