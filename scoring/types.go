// SPDX-License-Identifier: MIT

// Package scoring defines the scoring oracle consumed by the decoders and a
// dense in-memory implementation of it.
//
// The oracle is precomputed by an external model layer (feature extraction,
// parameter learning) and is read-only to the decoders. For a sentence of n
// tokens (token 0 is the synthetic root) it answers:
//
//   - ArcScore(h, m)                 first-order score of the arc h → m
//   - IsPruned(h, m)                 whether h → m may not be used at all
//   - SiblingScore(h, m, s)          m and s are consecutive children of h, m < s
//   - GrandparentScore(gp, h, m)     gp → h → m
//   - GrandSiblingScore(gp, h, m, s) consecutive siblings m < s of h, with h's head gp
//
// Which higher-order terms take part in decoding is selected once per run by
// Features, collapsed into a closed Mode.
package scoring

import "errors"

var (
	// ErrBadLength is returned for a sentence of fewer than one token.
	ErrBadLength = errors.New("scoring: sentence must contain the root token")

	// ErrIndexOutOfRange is returned when a token index is outside [0, n).
	ErrIndexOutOfRange = errors.New("scoring: token index out of range")

	// ErrRootArc is returned when a score is assigned to an arc entering the root.
	ErrRootArc = errors.New("scoring: arc into the root")

	// ErrSelfArc is returned when a score is assigned to an arc h → h.
	ErrSelfArc = errors.New("scoring: self arc")

	// ErrBadScore is returned for NaN or +Inf scores.
	ErrBadScore = errors.New("scoring: score must be finite")

	// ErrNoHead is returned when a non-root token has no unpruned incoming arc.
	ErrNoHead = errors.New("scoring: token has no admissible head")
)

// Scorer is the read-only scoring oracle for one sentence.
//
// ArcScore and the higher-order methods are only called on unpruned arcs.
// Implementations must be safe for concurrent readers.
type Scorer interface {
	// Len returns the number of tokens, root included.
	Len() int

	// ArcScore returns the score of token m attaching to head h.
	ArcScore(h, m int) float64

	// IsPruned reports whether the arc h → m is disallowed.
	IsPruned(h, m int) bool

	// SiblingScore scores m and s as adjacent children of h (m < s).
	SiblingScore(h, m, s int) float64

	// GrandparentScore scores the chain gp → h → m.
	GrandparentScore(gp, h, m int) float64

	// GrandSiblingScore scores adjacent children m < s of h whose head is gp.
	GrandSiblingScore(gp, h, m, s int) float64
}

// Features enables the higher-order score families.
type Features struct {
	// UseGrandparent enables GrandparentScore terms.
	UseGrandparent bool `json:"grandparent" yaml:"grandparent" toml:"grandparent"`

	// UseGrandSibling enables GrandSiblingScore terms.
	UseGrandSibling bool `json:"grand_sibling" yaml:"grand_sibling" toml:"grand_sibling"`

	// UseConsecutiveSibling enables SiblingScore terms.
	UseConsecutiveSibling bool `json:"consecutive_sibling" yaml:"consecutive_sibling" toml:"consecutive_sibling"`
}

// Mode is the decoding variant selected by a Features set.
type Mode int

const (
	// FirstOrder: no higher-order terms; one arborescence solve is exact.
	FirstOrder Mode = iota

	// Sibling: consecutive-sibling terms only; the structure side needs no grandparent.
	Sibling

	// GrandSibling: grandparent and/or grand-sibling terms; the structure side
	// enumerates a grandparent per head.
	GrandSibling
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case FirstOrder:
		return "first-order"
	case Sibling:
		return "sibling"
	case GrandSibling:
		return "grand-sibling"
	default:
		return "unknown"
	}
}

// Mode collapses the feature flags into a Mode.
//
//	any grandparent or grand-sibling term → GrandSibling
//	consecutive siblings only             → Sibling
//	nothing                               → FirstOrder
func (f Features) Mode() Mode {
	switch {
	case f.UseGrandparent || f.UseGrandSibling:
		return GrandSibling
	case f.UseConsecutiveSibling:
		return Sibling
	default:
		return FirstOrder
	}
}
