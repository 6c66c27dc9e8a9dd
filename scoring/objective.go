// SPDX-License-Identifier: MIT

package scoring

import (
	"github.com/katalvlaran/depdual/deptree"
)

// LossAugmented wraps a Scorer and adds a Hamming loss of Loss (1.0 when
// zero) to every arc that disagrees with Gold. Decoding against it yields the
// cost-augmented tree used by margin-based training.
//
// Gold must be a valid tree over the same sentence.
type LossAugmented struct {
	Scorer
	Gold deptree.Heads
	Loss float64
}

// ArcScore returns the wrapped score plus the loss when h is not m's gold head.
func (l LossAugmented) ArcScore(h, m int) float64 {
	v := l.Scorer.ArcScore(h, m)
	if l.Gold[m] != h {
		if l.Loss == 0 {
			return v + 1.0
		}
		return v + l.Loss
	}

	return v
}

// Objective returns the joint score of heads under sc with the enabled
// higher-order features:
//
//	Σ_m arc(h_m, m)
//	+ Σ_m gp(h_{h_m}, h_m, m)                 (UseGrandparent, h_m ≠ root)
//	+ Σ consecutive m<s under h: sib(h, m, s) (UseConsecutiveSibling)
//	+ Σ consecutive m<s under h: gs(h_h, h, m, s) (UseGrandSibling, h ≠ root)
//
// heads is assumed to be a valid tree (see deptree.Validate).
// Complexity: O(n).
func Objective(sc Scorer, f Features, heads deptree.Heads) float64 {
	var (
		score    float64
		h, m, gp int
		p        int
		kids     []int
	)
	for m = 1; m < len(heads); m++ {
		score += sc.ArcScore(heads[m], m)
	}
	if f.Mode() == FirstOrder {
		return score
	}

	children := deptree.Children(heads)
	for h = 0; h < len(heads); h++ {
		kids = children[h]
		gp = heads[h] // NoHead for the root
		if f.UseGrandparent && gp >= 0 {
			for p = 0; p < len(kids); p++ {
				score += sc.GrandparentScore(gp, h, kids[p])
			}
		}
		for p = 0; p+1 < len(kids); p++ { // adjacent pairs
			if f.UseConsecutiveSibling {
				score += sc.SiblingScore(h, kids[p], kids[p+1])
			}
			if f.UseGrandSibling && gp >= 0 {
				score += sc.GrandSiblingScore(gp, h, kids[p], kids[p+1])
			}
		}
	}

	return score
}
