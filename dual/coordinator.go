// SPDX-License-Identifier: MIT

package dual

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/depdual/deptree"
	"github.com/katalvlaran/depdual/scoring"
)

// Coordinator runs the subgradient loop between a TreeSubproblem and a
// StructureSubproblem. It keeps no per-sentence state between calls, so one
// Coordinator can serve many sentences, also concurrently.
type Coordinator struct {
	feats scoring.Features
	opts  Options
}

// NewCoordinator validates opts and returns a Coordinator for the given
// feature set.
func NewCoordinator(feats scoring.Features, opts Options) (*Coordinator, error) {
	o, err := opts.validate()
	if err != nil {
		return nil, err
	}

	return &Coordinator{feats: feats, opts: o}, nil
}

// Features returns the feature set the coordinator decodes with.
func (c *Coordinator) Features() scoring.Features { return c.feats }

// session is the per-sentence state of one Decode or Certify call.
type session struct {
	sc    scoring.Scorer
	feats scoring.Features
	mode  scoring.Mode
	opts  Options
	log   *zap.Logger

	n         int
	lam       *Multipliers
	tree      *TreeSubproblem
	structure *StructureSubproblem // nil in FirstOrder mode

	ref      deptree.Heads
	refScore float64

	useDeadline bool
	deadline    time.Time
}

// iterate holds the outcome of one joint solve.
type iterate struct {
	y, zHead, zSib     Arcs
	treeVal, structVal float64
	heads              deptree.Heads
	primal             float64
	treeGap, structGap float64
}

// newSession validates the sentence and the reference and sets up zeroed
// multipliers with every head dirty.
func (c *Coordinator) newSession(sc scoring.Scorer, reference deptree.Heads) (*session, error) {
	if sc == nil {
		return nil, fmt.Errorf("dual: nil scorer: %w", ErrBadOptions)
	}
	if err := scoring.Check(sc); err != nil {
		return nil, fmt.Errorf("dual: %w", err)
	}

	s := &session{
		sc:    sc,
		feats: c.feats,
		mode:  c.feats.Mode(),
		opts:  c.opts,
		n:     sc.Len(),
	}
	beta := c.opts.Beta
	if s.mode == scoring.FirstOrder {
		beta = 0
	}
	s.lam = NewMultipliers(s.n)
	s.tree = NewTreeSubproblem(sc, beta, s.lam)
	if s.mode != scoring.FirstOrder {
		s.structure = NewStructureSubproblem(sc, c.feats, beta, s.lam, c.opts.Workers)
	}

	if reference == nil {
		ref, err := baseline(sc)
		if err != nil {
			return nil, err
		}
		reference = ref
	} else if err := checkReference(sc, reference); err != nil {
		return nil, err
	}
	s.ref = reference.Clone()
	s.refScore = scoring.Objective(sc, c.feats, s.ref)

	s.log = c.opts.Logger.With(
		zap.Int("tokens", s.n),
		zap.Stringer("mode", s.mode),
	)
	if c.opts.TimeLimit > 0 {
		s.useDeadline = true
		s.deadline = time.Now().Add(c.opts.TimeLimit)
	}

	return s, nil
}

// baseline returns the first-order maximum spanning tree on raw arc scores.
func baseline(sc scoring.Scorer) (deptree.Heads, error) {
	t := NewTreeSubproblem(sc, 0, NewMultipliers(sc.Len()))
	if _, _, err := t.Solve(); err != nil {
		return nil, err
	}

	return t.Heads(), nil
}

// checkReference verifies that a caller-supplied tree fits the sentence.
func checkReference(sc scoring.Scorer, ref deptree.Heads) error {
	if len(ref) != sc.Len() {
		return fmt.Errorf("%w: %d tokens, sentence has %d", ErrReferenceMismatch, len(ref), sc.Len())
	}
	if err := deptree.Validate(ref); err != nil {
		return fmt.Errorf("%w: %w", ErrReferenceMismatch, err)
	}
	for m := 1; m < len(ref); m++ {
		if sc.IsPruned(ref[m], m) {
			return fmt.Errorf("%w: arc %d→%d is pruned", ErrReferenceMismatch, ref[m], m)
		}
	}

	return nil
}

// expired reports whether the wall-clock budget is spent.
func (s *session) expired() bool {
	return s.useDeadline && time.Now().After(s.deadline)
}

// solve runs both subproblems concurrently under the current multipliers
// and scores the tree solution.
func (s *session) solve(ctx context.Context) (iterate, error) {
	var (
		it iterate
		g  errgroup.Group
	)
	g.Go(func() error {
		var err error
		it.y, it.treeVal, err = s.tree.Solve()
		return err
	})
	if s.structure != nil {
		g.Go(func() error {
			var err error
			it.zHead, it.zSib, it.structVal, err = s.structure.Solve(ctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return it, err
	}

	it.heads = s.tree.Heads()
	it.primal = scoring.Objective(s.sc, s.feats, it.heads)

	return it, nil
}

// gaps fills treeGap and structGap against the tree t and checks that both
// subproblem maxima bound t from above.
func (s *session) gaps(it *iterate, t deptree.Heads) (float64, error) {
	tol := s.opts.Tolerance
	it.treeGap = it.treeVal - s.tree.Score(t)
	if s.structure != nil {
		it.structGap = it.structVal - s.structure.Score(t)
	}
	if it.treeGap < -tol || it.structGap < -tol {
		return 0, fmt.Errorf("%w: tree %.9g, structure %.9g", ErrInconsistentBound, it.treeGap, it.structGap)
	}

	return math.Max(it.treeGap, it.structGap), nil
}

// moveStructure pushes the structure side toward the tree indicator target:
// arcs the structure chose but target lacks get a higher multiplier, arcs
// target has but the structure lacks get a lower one.
func (s *session) moveStructure(it iterate, target Arcs, rate float64) {
	var (
		n          = s.n
		h, m       int
		inT        bool
		useHeadMul = s.mode == scoring.GrandSibling
	)
	for h = 0; h < n; h++ {
		for m = 1; m < n; m++ {
			if h == m {
				continue
			}
			inT = target.Has(h, m)
			switch sib := it.zSib.Has(h, m); {
			case sib && !inT:
				s.lam.AddSib(h, m, rate)
				s.structure.MarkDirty(h)
			case !sib && inT:
				s.lam.AddSib(h, m, -rate)
				s.structure.MarkDirty(h)
			}
			if !useHeadMul {
				continue
			}
			switch hd := it.zHead.Has(h, m); {
			case hd && !inT:
				s.lam.AddHead(h, m, rate)
				s.structure.MarkDirty(m)
			case !hd && inT:
				s.lam.AddHead(h, m, -rate)
				s.structure.MarkDirty(m)
			}
		}
	}
}

// moveTree pushes the tree side toward target: both multipliers of an arc
// the tree lacks go up, those of an arc the tree has but target lacks go
// down. The heads on both ends become dirty.
func (s *session) moveTree(it iterate, target Arcs, rate float64) {
	var (
		n          = s.n
		h, m       int
		d          float64
		useHeadMul = s.mode == scoring.GrandSibling
	)
	for h = 0; h < n; h++ {
		for m = 1; m < n; m++ {
			switch inT, inY := target.Has(h, m), it.y.Has(h, m); {
			case inT && !inY:
				d = rate
			case !inT && inY:
				d = -rate
			default:
				continue
			}
			s.lam.AddSib(h, m, d)
			if useHeadMul {
				s.lam.AddHead(h, m, d)
			}
			s.structure.MarkDirty(h)
			s.structure.MarkDirty(m)
		}
	}
}

// Decode searches for the highest-scoring tree of sc under the joint
// objective. reference is the tree the result is classified against; nil
// uses the first-order maximum spanning tree of the raw arc scores.
//
// The decoded tree is the certified tree when the subproblems agree, else the
// best tree-subproblem solution seen by joint objective.
//
// Errors: scoring.Check failures, ErrReferenceMismatch, ErrInconsistentBound,
// and ctx errors. Running out of budget is a Status, not an error.
//
// Complexity: O(MaxIterations · n⁴) worst case in GrandSibling mode.
func (c *Coordinator) Decode(ctx context.Context, sc scoring.Scorer, reference deptree.Heads) (Result, error) {
	s, err := c.newSession(sc, reference)
	if err != nil {
		return Result{}, err
	}

	var (
		tol       = s.opts.Tolerance
		status    = StatusBudgetExhausted
		best      deptree.Heads
		bestScore = math.Inf(-1)
		step0     float64
		rate      float64
		eta       int
		prevDual  = math.Inf(1)
		res       Result
		iter      int
		it        iterate
		gap       float64
		dualVal   float64
	)
	for iter = 1; iter <= s.opts.MaxIterations; iter++ {
		if err = ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("dual: decode: %w", err)
		}
		if it, err = s.solve(ctx); err != nil {
			return Result{}, err
		}
		if it.primal > bestScore {
			best, bestScore = it.heads, it.primal
		}
		if gap, err = s.gaps(&it, it.heads); err != nil {
			return Result{}, err
		}
		dualVal = it.treeVal + it.structVal
		res.Iterations, res.Gap, res.DualValue = iter, gap, dualVal

		if gap < tol {
			status = StatusCertified
			best, bestScore = it.heads, it.primal
			break
		}
		if s.structure == nil {
			break
		}

		if iter == 1 {
			step0 = s.opts.StepSize
			if step0 == 0 {
				step0 = gap
			}
		} else if dualVal >= prevDual {
			eta++
		}
		prevDual = dualVal
		rate = step0 / float64(1+eta)
		s.moveStructure(it, it.y, rate)

		s.log.Debug("decode iteration",
			zap.Int("iter", iter),
			zap.Float64("gap", gap),
			zap.Float64("rate", rate),
			zap.Float64("dual", dualVal),
			zap.Float64("primal", it.primal),
			zap.Int("solved_heads", s.structure.Solved()),
			zap.Float64("lambda_norm", s.lam.Norm()),
		)
		if s.expired() {
			res.TimedOut = true
			break
		}
	}

	return s.finish(res, status, best, bestScore, "decode"), nil
}

// Certify tries to prove that reference (nil: the first-order maximum
// spanning tree) is optimal under the joint objective: both subproblems are
// driven toward the fixed reference, and only the side(s) realizing the
// duality gap move their multipliers.
//
// A Certified result with class Optimal is a proof; other outcomes are
// diagnostics. The returned Heads is the best tree-subproblem solution seen.
func (c *Coordinator) Certify(ctx context.Context, sc scoring.Scorer, reference deptree.Heads) (Result, error) {
	s, err := c.newSession(sc, reference)
	if err != nil {
		return Result{}, err
	}

	var (
		tol       = s.opts.Tolerance
		target    = ArcsFromHeads(s.ref)
		status    = StatusBudgetExhausted
		best      deptree.Heads
		bestScore = math.Inf(-1)
		step0     float64
		rate      float64
		eta       int
		prevGap   float64
		res       Result
		iter      int
		it        iterate
		gap       float64
	)
	for iter = 1; iter <= s.opts.MaxIterations; iter++ {
		if err = ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("dual: certify: %w", err)
		}
		if it, err = s.solve(ctx); err != nil {
			return Result{}, err
		}
		if it.primal > bestScore {
			best, bestScore = it.heads, it.primal
		}
		if gap, err = s.gaps(&it, s.ref); err != nil {
			return Result{}, err
		}
		res.Iterations, res.Gap, res.DualValue = iter, gap, it.treeVal+it.structVal

		if gap < tol {
			status = StatusCertified
			break
		}
		if s.structure == nil {
			break // first-order: the tree side is exact, nothing to move
		}

		if iter == 1 {
			step0 = s.opts.StepSize
			if step0 == 0 {
				step0 = gap
			}
		} else if gap > prevGap {
			eta++
		}
		prevGap = gap
		rate = step0 / float64(1+eta)

		if math.Abs(it.treeGap-gap) < tol {
			s.moveTree(it, target, rate)
		}
		if math.Abs(it.structGap-gap) < tol {
			s.moveStructure(it, target, rate)
		}

		s.log.Debug("certify iteration",
			zap.Int("iter", iter),
			zap.Float64("gap", gap),
			zap.Float64("tree_gap", it.treeGap),
			zap.Float64("structure_gap", it.structGap),
			zap.Float64("rate", rate),
			zap.Float64("lambda_norm", s.lam.Norm()),
		)
		if s.expired() {
			res.TimedOut = true
			break
		}
	}

	return s.finish(res, status, best, bestScore, "certify"), nil
}

// finish classifies and logs a terminated run.
func (s *session) finish(res Result, status Status, best deptree.Heads, bestScore float64, op string) Result {
	res.Status = status
	res.Class = classify(status, bestScore, s.refScore, s.opts.Tolerance)
	res.Heads = best
	res.Score = round1e9(bestScore)
	res.Reference = s.ref
	res.ReferenceScore = round1e9(s.refScore)
	res.Gap = round1e9(res.Gap)
	res.DualValue = round1e9(res.DualValue)

	s.log.Info(op+" finished",
		zap.Stringer("status", res.Status),
		zap.Stringer("class", res.Class),
		zap.Int("iterations", res.Iterations),
		zap.Float64("score", res.Score),
		zap.Float64("reference_score", res.ReferenceScore),
		zap.Float64("gap", res.Gap),
		zap.Bool("timed_out", res.TimedOut),
	)

	return res
}
