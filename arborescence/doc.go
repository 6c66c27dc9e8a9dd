// SPDX-License-Identifier: MIT

// Package arborescence computes maximum-weight spanning arborescences rooted
// at node 0 (Chu–Liu–Edmonds, recursive cycle contraction).
//
// Input is a dense n×n score table w where w[h][m] is the score of the arc
// h → m. -Inf marks an arc that may not be used; arcs into the root must be
// -Inf and the diagonal is ignored.
//
// Algorithm (per recursion level with N nodes, some of them inactive):
//  1. Every active non-root node picks its best incoming arc from an active
//     node (root first, then ascending index; strict improvement only).
//  2. The parent graph is scanned for cycles; the longest cycle is kept
//     (first found on ties). No cycle ⇒ the greedy graph is optimal.
//  3. The cycle is contracted into a virtual node N:
//     score(i → N) = circle + max_j (w[i][j] − w[par(j)][j]),
//     score(N → i) = max_j w[j][i], remembering the argmax arcs.
//  4. Recurse on N+1 nodes, then expand: the arc entering N breaks the cycle
//     at its target, the rest of the cycle keeps its own arcs.
//
// Every contraction deactivates at least two nodes and adds one, so there are
// at most n−1 levels and at most 2n nodes; the working buffers are sized
// 2n × 2n once per Solver.
//
// Determinism: no maps, no RNG; ties break by scan order.
//
// Complexity: O(n³) time worst case, O(n²) memory.
package arborescence
