// SPDX-License-Identifier: MIT

// Package matrix offers the dense score-table representation shared by the
// decoding packages.
//
// The matrix package provides:
//
//   - Matrix, a minimal interface (Rows/Cols/At/Set/Clone) that solvers accept
//     as arc-score input, so callers can plug their own storage.
//   - Dense, a row-major implementation with bounds-checked accessors.
//   - Validators for the numeric policy of score tables: NaN and +Inf are
//     rejected, -Inf marks an arc that may not be used.
//
// Row index = head, column index = modifier: At(h, m) is the score of the arc h → m.
package matrix
