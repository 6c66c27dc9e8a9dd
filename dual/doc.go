// SPDX-License-Identifier: MIT

// Package dual decodes dependency trees under a higher-order objective by
// dual decomposition (Lagrangian relaxation).
//
// The joint objective of a tree Y is
//
//	Σ arc(h, m) + Σ grandparent(gp, h, m) + Σ sibling(h, m, s) + Σ grandSibling(gp, h, m, s)
//
// and is split between two exactly solvable subproblems sharing multipliers
// λ_head and λ_sib:
//
//   - TreeSubproblem: a maximum spanning arborescence over
//     (1−β)·arc(h, m) + λ_head[h][m] + λ_sib[h][m];
//   - StructureSubproblem: an independent per-head choice of grandparent and
//     child chain (package sibling) carrying the β share of the arcs, the
//     higher-order terms and the multipliers with opposite sign.
//
// The sum of both maxima bounds the joint optimum from above for any
// multipliers. The Coordinator lowers the bound by subgradient steps until
// both sides select the same tree (a certificate of optimality) or the
// budget is exhausted.
//
// Concurrency: within an iteration the two subproblems run concurrently and
// the structure side solves dirty heads on a bounded errgroup. Multipliers
// change only between iterations.
package dual
