// SPDX-License-Identifier: MIT

package dual_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/katalvlaran/depdual/deptree"
	"github.com/katalvlaran/depdual/dual"
	"github.com/katalvlaran/depdual/scoring"
)

// TestNewCoordinator_BadOptions rejects out-of-range options.
func TestNewCoordinator_BadOptions(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*dual.Options)
	}{
		{"beta above one", func(o *dual.Options) { o.Beta = 1.5 }},
		{"negative beta", func(o *dual.Options) { o.Beta = -0.1 }},
		{"zero iterations", func(o *dual.Options) { o.MaxIterations = 0 }},
		{"zero tolerance", func(o *dual.Options) { o.Tolerance = 0 }},
		{"negative step", func(o *dual.Options) { o.StepSize = -1 }},
		{"negative workers", func(o *dual.Options) { o.Workers = -2 }},
		{"negative time limit", func(o *dual.Options) { o.TimeLimit = -time.Second }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := dual.DefaultOptions()
			tc.mut(&o)
			_, err := dual.NewCoordinator(scoring.Features{}, o)
			assert.ErrorIs(t, err, dual.ErrBadOptions)
		})
	}
}

// TestDecode_FourTokens decodes root→A→B, A→C in one iteration in every mode.
func TestDecode_FourTokens(t *testing.T) {
	want := deptree.Heads{-1, 0, 1, 1}
	for _, f := range []scoring.Features{{}, {UseConsecutiveSibling: true}, allFeatures} {
		t.Run(f.Mode().String(), func(t *testing.T) {
			c, err := dual.NewCoordinator(f, dual.DefaultOptions())
			require.NoError(t, err)

			res, err := c.Decode(context.Background(), fourTokens(t), nil)
			require.NoError(t, err)
			if diff := cmp.Diff(want, res.Heads); diff != "" {
				t.Fatalf("heads mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, dual.StatusCertified, res.Status)
			assert.Equal(t, dual.Optimal, res.Class)
			assert.Equal(t, 1, res.Iterations)
			assert.InDelta(t, 15.0, res.Score, epsTiny)
			assert.InDelta(t, 15.0, res.ReferenceScore, epsTiny)
			assert.InDelta(t, 15.0, res.DualValue, epsTiny)
			assert.Equal(t, want, res.Reference)
		})
	}
}

// TestDecode_WorseReference reports NotOptimal against a beaten reference.
func TestDecode_WorseReference(t *testing.T) {
	c, err := dual.NewCoordinator(scoring.Features{}, dual.DefaultOptions())
	require.NoError(t, err)

	res, err := c.Decode(context.Background(), fourTokens(t), deptree.Heads{-1, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, dual.StatusCertified, res.Status)
	assert.Equal(t, dual.NotOptimal, res.Class)
	assert.InDelta(t, -5.0, res.ReferenceScore, epsTiny)
}

// TestDecode_MultiplierMovesMonotonically keeps disagreeing on one arc and
// watches the multiplier norm grow every iteration.
func TestDecode_MultiplierMovesMonotonically(t *testing.T) {
	tb, err := scoring.NewTable(3)
	require.NoError(t, err)
	require.NoError(t, tb.SetArc(0, 1, 4))
	require.NoError(t, tb.SetArc(0, 2, 4))
	require.NoError(t, tb.SetArc(1, 2, 3))
	require.NoError(t, tb.SetArc(2, 1, -10))

	core, logs := observer.New(zapcore.DebugLevel)
	o := dual.DefaultOptions()
	o.StepSize = 0.1
	o.MaxIterations = 4
	o.Logger = zap.New(core)
	c, err := dual.NewCoordinator(scoring.Features{UseConsecutiveSibling: true}, o)
	require.NoError(t, err)

	res, err := c.Decode(context.Background(), tb, nil)
	require.NoError(t, err)
	assert.Equal(t, dual.StatusBudgetExhausted, res.Status)
	assert.Equal(t, 4, res.Iterations)
	assert.Equal(t, deptree.Heads{-1, 0, 0}, res.Heads)
	assert.Equal(t, dual.Tie, res.Class)

	iters := logs.FilterMessage("decode iteration").All()
	require.Len(t, iters, 4)
	prev := 0.0
	for _, e := range iters {
		norm := e.ContextMap()["lambda_norm"].(float64)
		assert.Greater(t, norm, prev)
		prev = norm
	}
	assert.Len(t, logs.FilterMessage("decode finished").All(), 1)
}

// TestDecode_RandomAgainstBruteForce checks the bounds on random sentences:
// the decoded score never exceeds the optimum, the dual value never falls
// below it, and a certified tree is optimal.
func TestDecode_RandomAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	o := dual.DefaultOptions()
	o.MaxIterations = 300
	o.Workers = 2

	for _, f := range []scoring.Features{allFeatures, {UseConsecutiveSibling: true}, {UseGrandparent: true}} {
		c, err := dual.NewCoordinator(f, o)
		require.NoError(t, err)
		for trial := 0; trial < 6; trial++ {
			tb := randomTable(t, rng, 5)
			_, opt := bestTree(tb, f)

			res, err := c.Decode(context.Background(), tb, nil)
			require.NoError(t, err)
			require.NoError(t, deptree.Validate(res.Heads))
			assert.LessOrEqual(t, res.Score, opt+1e-6)
			assert.GreaterOrEqual(t, res.DualValue, opt-1e-6)
			assert.InDelta(t, scoring.Objective(tb, f, res.Heads), res.Score, 1e-6)
			if res.Status == dual.StatusCertified {
				assert.InDelta(t, opt, res.Score, 1e-5, "mode %v trial %d", f.Mode(), trial)
			}
		}
	}
}

// TestCertify_OptimalReference proves the four-token tree in one iteration.
func TestCertify_OptimalReference(t *testing.T) {
	c, err := dual.NewCoordinator(allFeatures, dual.DefaultOptions())
	require.NoError(t, err)

	res, err := c.Certify(context.Background(), fourTokens(t), deptree.Heads{-1, 0, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, dual.StatusCertified, res.Status)
	assert.Equal(t, dual.Optimal, res.Class)
	assert.Equal(t, 1, res.Iterations)
}

// TestCertify_FirstOrderWorseReference cannot certify a beaten tree.
func TestCertify_FirstOrderWorseReference(t *testing.T) {
	c, err := dual.NewCoordinator(scoring.Features{}, dual.DefaultOptions())
	require.NoError(t, err)

	res, err := c.Certify(context.Background(), fourTokens(t), deptree.Heads{-1, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, dual.StatusBudgetExhausted, res.Status)
	assert.Equal(t, dual.RelaxationBetter, res.Class)
	assert.Equal(t, deptree.Heads{-1, 0, 1, 1}, res.Heads)
	assert.InDelta(t, 20.0, res.Gap, epsTiny)
}

// TestCertify_RandomOptimum certifies the brute-force optimum or at least
// never finds a better tree than it.
func TestCertify_RandomOptimum(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	o := dual.DefaultOptions()
	o.MaxIterations = 300
	c, err := dual.NewCoordinator(allFeatures, o)
	require.NoError(t, err)

	for trial := 0; trial < 4; trial++ {
		tb := randomTable(t, rng, 5)
		best, opt := bestTree(tb, allFeatures)

		res, err := c.Certify(context.Background(), tb, best)
		require.NoError(t, err)
		assert.InDelta(t, opt, res.ReferenceScore, 1e-6)
		assert.LessOrEqual(t, res.Score, opt+1e-6)
		assert.NotEqual(t, dual.NotOptimal, res.Class)
		assert.NotEqual(t, dual.RelaxationBetter, res.Class)
	}
}

// TestDecode_Errors covers the precondition failures.
func TestDecode_Errors(t *testing.T) {
	c, err := dual.NewCoordinator(allFeatures, dual.DefaultOptions())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Decode(ctx, fourTokens(t), deptree.Heads{-1, 0, 1})
	assert.ErrorIs(t, err, dual.ErrReferenceMismatch)

	_, err = c.Decode(ctx, fourTokens(t), deptree.Heads{-1, 2, 1, 1})
	assert.ErrorIs(t, err, dual.ErrReferenceMismatch)
	assert.ErrorIs(t, err, deptree.ErrCycle)

	pruned := fourTokens(t)
	require.NoError(t, pruned.Prune(0, 2))
	_, err = c.Certify(ctx, pruned, deptree.Heads{-1, 0, 0, 1})
	assert.ErrorIs(t, err, dual.ErrReferenceMismatch)

	orphan, _ := scoring.NewTable(3)
	require.NoError(t, orphan.Prune(0, 2))
	require.NoError(t, orphan.Prune(1, 2))
	_, err = c.Decode(ctx, orphan, nil)
	assert.ErrorIs(t, err, scoring.ErrNoHead)

	_, err = c.Decode(ctx, nil, nil)
	assert.ErrorIs(t, err, dual.ErrBadOptions)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.Decode(canceled, fourTokens(t), nil)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = c.Certify(canceled, fourTokens(t), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestDecode_TimeLimit ends the loop as budget exhausted.
func TestDecode_TimeLimit(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	tb := randomTable(t, rng, 6)
	o := dual.DefaultOptions()
	o.TimeLimit = time.Nanosecond
	o.StepSize = 1e-6 // tiny steps: no certificate after one iteration
	c, err := dual.NewCoordinator(allFeatures, o)
	require.NoError(t, err)

	res, err := c.Decode(context.Background(), tb, nil)
	require.NoError(t, err)
	if res.Status == dual.StatusBudgetExhausted {
		assert.True(t, res.TimedOut)
		assert.Equal(t, 1, res.Iterations)
	}
	require.NoError(t, deptree.Validate(res.Heads))
}

// TestStatusClassStrings keeps the printable names stable.
func TestStatusClassStrings(t *testing.T) {
	assert.Equal(t, "certified", dual.StatusCertified.String())
	assert.Equal(t, "budget-exhausted", dual.StatusBudgetExhausted.String())
	assert.Equal(t, "optimal", dual.Optimal.String())
	assert.Equal(t, "not-optimal", dual.NotOptimal.String())
	assert.Equal(t, "relaxation-better", dual.RelaxationBetter.String())
	assert.Equal(t, "reference-better", dual.ReferenceBetter.String())
	assert.Equal(t, "tie", dual.Tie.String())
	assert.Equal(t, "Class(42)", dual.Class(42).String())
}
