// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide a single source of truth for the checks every solver runs on an
//     incoming score matrix before prefetching it.
//   - Return sentinel errors wrapped with the validator tag so call sites can
//     match with errors.Is.
//
// Determinism & Performance:
//   - All checks are pure, deterministic and allocate nothing.

package matrix

import (
	"fmt"
	"math"
)

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateNotNil ensures the matrix reference is non-nil.
// Complexity: O(1).
func ValidateNotNil(m Matrix) error {
	if m == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}

	return nil
}

// ValidateSquare checks that m is non-nil, non-empty and square.
// Complexity: O(1).
func ValidateSquare(m Matrix) error {
	if err := ValidateNotNil(m); err != nil {
		return validatorErrorf("ValidateSquare", err)
	}
	if m.Rows() <= 0 || m.Cols() <= 0 {
		return validatorErrorf("ValidateSquare", ErrInvalidDimensions)
	}
	if m.Rows() != m.Cols() {
		return validatorErrorf("ValidateSquare", ErrNonSquare)
	}

	return nil
}

// ValidateScores checks a square score table: NaN and +Inf are rejected,
// -Inf marks a disallowed entry. The diagonal is never read by the solvers
// and is skipped.
//
// Complexity: O(n²).
func ValidateScores(m Matrix) error {
	if err := ValidateSquare(m); err != nil {
		return err
	}
	var (
		n    = m.Rows()
		i, j int
		v    float64
		err  error
	)
	for i = 0; i < n; i++ { // rows = heads
		for j = 0; j < n; j++ { // cols = modifiers
			if i == j {
				continue // self-loops are never arcs
			}
			if v, err = m.At(i, j); err != nil {
				return validatorErrorf("ValidateScores", err)
			}
			if math.IsNaN(v) {
				return validatorErrorf("ValidateScores", ErrNaN)
			}
			if math.IsInf(v, 1) {
				return validatorErrorf("ValidateScores", ErrPositiveInf)
			}
		}
	}

	return nil
}
