// SPDX-License-Identifier: MIT

package dual

import "github.com/katalvlaran/depdual/deptree"

// Arcs is a boolean indicator over the n×n ordered token pairs of a
// sentence, stored flat at Index(h, m) = h*n + m.
type Arcs struct {
	n   int
	set []bool
}

// NewArcs returns an empty indicator for n tokens.
func NewArcs(n int) Arcs {
	return Arcs{n: n, set: make([]bool, n*n)}
}

// ArcsFromHeads marks every arc h → m of a head array.
func ArcsFromHeads(heads deptree.Heads) Arcs {
	a := NewArcs(len(heads))
	for m := 1; m < len(heads); m++ {
		if heads[m] >= 0 {
			a.set[a.Index(heads[m], m)] = true
		}
	}

	return a
}

// Len returns the number of tokens.
func (a Arcs) Len() int { return a.n }

// Index returns the flat position of h → m.
func (a Arcs) Index(h, m int) int { return h*a.n + m }

// Has reports whether h → m is set.
func (a Arcs) Has(h, m int) bool { return a.set[h*a.n+m] }

// Set marks h → m.
func (a Arcs) Set(h, m int) { a.set[h*a.n+m] = true }

// Reset clears every arc.
func (a Arcs) Reset() {
	for i := range a.set {
		a.set[i] = false
	}
}

// Count returns the number of set arcs.
func (a Arcs) Count() int {
	var c int
	for _, v := range a.set {
		if v {
			c++
		}
	}

	return c
}

// Clone returns an independent copy.
func (a Arcs) Clone() Arcs {
	b := Arcs{n: a.n, set: make([]bool, len(a.set))}
	copy(b.set, a.set)

	return b
}

// Pairs lists the set arcs as [h, m] pairs in index order.
func (a Arcs) Pairs() [][2]int {
	var out [][2]int
	for i, v := range a.set {
		if v {
			out = append(out, [2]int{i / a.n, i % a.n})
		}
	}

	return out
}
