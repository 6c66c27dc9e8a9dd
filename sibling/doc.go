// SPDX-License-Identifier: MIT

// Package sibling solves the per-head child selection problem of
// higher-order dependency decoding.
//
// For a fixed head h and an optional grandparent gp (deptree.NoHead for
// none), Best returns the ordered subset of children of h that maximizes
//
//	Σ_c base(c) + Σ_{adjacent m<s} trans(m, s)
//
// where base(c) = ChildBias(c) + GrandparentScore(gp, h, c) and
// trans(m, s) = SiblingScore(h, m, s) + GrandSiblingScore(gp, h, m, s),
// each higher-order term gated by Features (grandparent terms also need
// gp ≥ 0).
//
// Candidates are visited in increasing index order; opt[s] is the best chain
// whose last child is s. Ties keep the earliest option. The empty chain
// (score 0) is always feasible.
//
// Complexity: O(n²) time per call, O(n) memory reused by a Solver.
package sibling
