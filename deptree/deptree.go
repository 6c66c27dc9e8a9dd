// SPDX-License-Identifier: MIT

// Package deptree represents dependency trees as head arrays and provides the
// structural checks every decoder relies on.
//
// A tree over n tokens is a Heads slice of length n where Heads[0] == NoHead
// (token 0 is the synthetic root) and Heads[m] ∈ [0, n) is the head of token m.
// A valid tree has no self-attachments and no cycles, so every token reaches
// the root by following heads.
//
// Complexity: Validate and Children are O(n).
package deptree

import (
	"errors"
	"fmt"
)

// NoHead marks the root's (absent) head.
const NoHead = -1

// Root is the index of the synthetic root token.
const Root = 0

var (
	// ErrEmpty is returned for a head array of length zero.
	ErrEmpty = errors.New("deptree: empty head array")

	// ErrRootHead is returned when Heads[0] is not NoHead.
	ErrRootHead = errors.New("deptree: root must not have a head")

	// ErrHeadOutOfRange is returned when a head index is outside [0, n).
	ErrHeadOutOfRange = errors.New("deptree: head index out of range")

	// ErrSelfLoop is returned when a token is its own head.
	ErrSelfLoop = errors.New("deptree: token attached to itself")

	// ErrCycle is returned when following heads from some token never reaches the root.
	ErrCycle = errors.New("deptree: cycle detected")

	// ErrLengthMismatch is returned when two trees over different sentences are compared.
	ErrLengthMismatch = errors.New("deptree: length mismatch")
)

// Heads is a dependency tree stored as a head array.
type Heads []int

// visitation states for the cycle walk
const (
	white = iota // not visited yet
	gray         // on the current walk
	black        // known to reach the root
)

// FromParents builds a Heads slice of length n from a parent array whose
// entries 1..n-1 are heads (entry 0 is ignored and forced to NoHead).
// The input is copied.
func FromParents(par []int, n int) Heads {
	h := make(Heads, n)
	copy(h, par[:n])
	h[Root] = NoHead

	return h
}

// Clone returns an independent copy of h.
func (h Heads) Clone() Heads {
	if h == nil {
		return nil
	}
	cp := make(Heads, len(h))
	copy(cp, h)

	return cp
}

// Validate checks that h is a well-formed tree rooted at token 0.
//
// Errors (first failure wins, scanned left to right):
//   - ErrEmpty, ErrRootHead, ErrHeadOutOfRange, ErrSelfLoop, ErrCycle.
//
// Complexity: O(n) time, O(n) memory.
func Validate(h Heads) error {
	n := len(h)
	if n == 0 {
		return ErrEmpty
	}
	if h[Root] != NoHead {
		return ErrRootHead
	}
	var m int
	for m = 1; m < n; m++ { // range and self-loop checks first
		if h[m] < 0 || h[m] >= n {
			return fmt.Errorf("token %d: %w", m, ErrHeadOutOfRange)
		}
		if h[m] == m {
			return fmt.Errorf("token %d: %w", m, ErrSelfLoop)
		}
	}

	// Three-colour walk: each token is walked at most once, so the loop is O(n).
	state := make([]uint8, n)
	state[Root] = black
	var j int
	for m = 1; m < n; m++ {
		if state[m] != white {
			continue
		}
		// Walk up until a known-good token or a token on the current walk.
		for j = m; state[j] == white; j = h[j] {
			state[j] = gray
		}
		if state[j] == gray {
			return fmt.Errorf("token %d: %w", j, ErrCycle)
		}
		// Every token on this walk reaches the root: paint it black.
		for j = m; state[j] == gray; j = h[j] {
			state[j] = black
		}
	}

	return nil
}

// Children returns, for each head, its children in increasing index order.
// Adjacent entries of Children(h)[x] are the consecutive siblings scored by
// sibling features. The input is assumed to be valid (see Validate).
//
// Complexity: O(n).
func Children(h Heads) [][]int {
	n := len(h)
	var (
		count = make([]int, n)
		m     int
	)
	for m = 1; m < n; m++ { // count children per head
		count[h[m]]++
	}
	out := make([][]int, n)
	for m = 0; m < n; m++ {
		if count[m] > 0 {
			out[m] = make([]int, 0, count[m])
		}
	}
	for m = 1; m < n; m++ { // ascending scan keeps the lists sorted
		out[h[m]] = append(out[h[m]], m)
	}

	return out
}

// Distance returns how many tokens (excluding the root) attach to different
// heads in a and b.
func Distance(a, b Heads) (int, error) {
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}
	var d, m int
	for m = 1; m < len(a); m++ {
		if a[m] != b[m] {
			d++
		}
	}

	return d, nil
}
