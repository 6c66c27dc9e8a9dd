// SPDX-License-Identifier: MIT

package dual

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/depdual/deptree"
)

var (
	// ErrBadOptions is returned for options outside their documented ranges.
	ErrBadOptions = errors.New("dual: invalid options")

	// ErrInconsistentBound is returned when a subproblem's maximum falls below
	// the score of a feasible tree, i.e. a subproblem solver is broken.
	ErrInconsistentBound = errors.New("dual: subproblem bound below a feasible score")

	// ErrReferenceMismatch is returned when a reference tree does not fit the sentence.
	ErrReferenceMismatch = errors.New("dual: reference tree does not fit the sentence")
)

// Status is the terminal state of the coordinator.
type Status int

const (
	// StatusCertified means the two subproblems agreed: the decoded tree is
	// provably optimal for the joint objective.
	StatusCertified Status = iota

	// StatusBudgetExhausted means the iteration or time budget ran out first.
	StatusBudgetExhausted
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusCertified:
		return "certified"
	case StatusBudgetExhausted:
		return "budget-exhausted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Class compares the decoded tree with the reference tree.
type Class int

const (
	// Optimal: certified and the reference is not beaten.
	Optimal Class = iota

	// NotOptimal: certified, yet the decoded tree beats the reference by more
	// than the tolerance (the reference was not optimal, or scores are inconsistent).
	NotOptimal

	// RelaxationBetter: not certified, the decoded tree beats the reference.
	RelaxationBetter

	// ReferenceBetter: not certified, the reference beats the decoded tree.
	ReferenceBetter

	// Tie: not certified, both trees score the same within tolerance.
	Tie
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case Optimal:
		return "optimal"
	case NotOptimal:
		return "not-optimal"
	case RelaxationBetter:
		return "relaxation-better"
	case ReferenceBetter:
		return "reference-better"
	case Tie:
		return "tie"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Options controls the subgradient loop.
type Options struct {
	// Beta ∈ [0,1] is the share of the first-order score carried by the
	// structure subproblem. Ignored (0) when no higher-order feature is on.
	Beta float64

	// MaxIterations bounds the number of subgradient iterations (≥ 1).
	MaxIterations int

	// Tolerance is the certificate threshold on the duality gap (> 0).
	Tolerance float64

	// StepSize is the initial step; 0 uses the first duality gap.
	StepSize float64

	// Workers bounds concurrent per-head solves; 0 uses GOMAXPROCS.
	Workers int

	// TimeLimit is an optional wall-clock budget (0 disables checks).
	TimeLimit time.Duration

	// Logger receives per-iteration diagnostics; nil means no logging.
	Logger *zap.Logger
}

// DefaultOptions returns the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		Beta:          0.5,
		MaxIterations: 1000,
		Tolerance:     1e-6,
		StepSize:      0,
		Workers:       0,
		TimeLimit:     0,
		Logger:        nil,
	}
}

// validate checks ranges and fills the zero-value defaults.
func (o Options) validate() (Options, error) {
	if math.IsNaN(o.Beta) || o.Beta < 0 || o.Beta > 1 {
		return o, fmt.Errorf("beta %v: %w", o.Beta, ErrBadOptions)
	}
	if o.MaxIterations < 1 {
		return o, fmt.Errorf("max iterations %d: %w", o.MaxIterations, ErrBadOptions)
	}
	if math.IsNaN(o.Tolerance) || o.Tolerance <= 0 {
		return o, fmt.Errorf("tolerance %v: %w", o.Tolerance, ErrBadOptions)
	}
	if math.IsNaN(o.StepSize) || math.IsInf(o.StepSize, 0) || o.StepSize < 0 {
		return o, fmt.Errorf("step size %v: %w", o.StepSize, ErrBadOptions)
	}
	if o.Workers < 0 {
		return o, fmt.Errorf("workers %d: %w", o.Workers, ErrBadOptions)
	}
	if o.TimeLimit < 0 {
		return o, fmt.Errorf("time limit %v: %w", o.TimeLimit, ErrBadOptions)
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	return o, nil
}

// Result is the outcome of Decode or Certify.
type Result struct {
	// Heads is the decoded tree.
	Heads deptree.Heads

	// Score is the joint objective of Heads.
	Score float64

	// Reference is the tree the result is classified against.
	Reference deptree.Heads

	// ReferenceScore is the joint objective of Reference.
	ReferenceScore float64

	Status Status
	Class  Class

	// Iterations is the number of subgradient iterations run.
	Iterations int

	// Gap is the last duality gap.
	Gap float64

	// DualValue is the last upper bound (tree + structure maxima).
	DualValue float64

	// TimedOut is set when TimeLimit ended the loop.
	TimedOut bool
}

// classify maps the terminal status and the two scores onto a Class.
func classify(status Status, decoded, reference, tol float64) Class {
	if status == StatusCertified {
		if decoded > reference+tol {
			return NotOptimal
		}
		return Optimal
	}
	switch {
	case decoded > reference+tol:
		return RelaxationBetter
	case decoded < reference-tol:
		return ReferenceBetter
	default:
		return Tie
	}
}

// round1e9 stabilizes reported floats for reproducible output.
func round1e9(x float64) float64 { return math.Round(x*1e9) / 1e9 }
