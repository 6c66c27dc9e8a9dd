// SPDX-License-Identifier: MIT

// Package instance reads scored sentences from YAML, TOML or JSON files and
// turns them into scoring tables.
//
// A file holds one sentence:
//
//	tokens: [ROOT, She, reads, books]   # optional, names only
//	features: {grandparent: true, consecutive_sibling: true}
//	arcs:                               # n×n, arcs[h][m]; column 0 and the diagonal are ignored
//	  - [0, 5, 0, 0]
//	  - ...
//	pruned: [[2, 1]]                    # disallowed h → m pairs
//	siblings: [{head: 2, mod: 1, sib: 3, score: 0.5}]
//	grandparents: [{gp: 0, head: 2, mod: 3, score: 1}]
//	grand_siblings: [{gp: 0, head: 2, mod: 1, sib: 3, score: 0.2}]
//	reference: [-1, 2, 0, 2]            # optional tree to classify against
//	gold: [-1, 2, 0, 2]                 # optional, enables loss-augmented scores
//	loss: 1.0
package instance

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/depdual/deptree"
	"github.com/katalvlaran/depdual/scoring"
)

var (
	// ErrUnknownFormat is returned for a file extension without a decoder.
	ErrUnknownFormat = errors.New("instance: unknown file format")

	// ErrMalformed is returned when the decoded sentence is inconsistent.
	ErrMalformed = errors.New("instance: malformed sentence")
)

// Format names an encoding of instance files.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
	JSON Format = "json"
)

// FormatOf maps a file name to its format by extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	case ".json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%q: %w", path, ErrUnknownFormat)
	}
}

// Sibling is a SiblingScore entry.
type Sibling struct {
	Head  int     `json:"head" yaml:"head" toml:"head"`
	Mod   int     `json:"mod" yaml:"mod" toml:"mod"`
	Sib   int     `json:"sib" yaml:"sib" toml:"sib"`
	Score float64 `json:"score" yaml:"score" toml:"score"`
}

// Grandparent is a GrandparentScore entry.
type Grandparent struct {
	GP    int     `json:"gp" yaml:"gp" toml:"gp"`
	Head  int     `json:"head" yaml:"head" toml:"head"`
	Mod   int     `json:"mod" yaml:"mod" toml:"mod"`
	Score float64 `json:"score" yaml:"score" toml:"score"`
}

// GrandSibling is a GrandSiblingScore entry.
type GrandSibling struct {
	GP    int     `json:"gp" yaml:"gp" toml:"gp"`
	Head  int     `json:"head" yaml:"head" toml:"head"`
	Mod   int     `json:"mod" yaml:"mod" toml:"mod"`
	Sib   int     `json:"sib" yaml:"sib" toml:"sib"`
	Score float64 `json:"score" yaml:"score" toml:"score"`
}

// Instance is one scored sentence as stored on disk.
type Instance struct {
	Tokens        []string         `json:"tokens,omitempty" yaml:"tokens,omitempty" toml:"tokens,omitempty"`
	Features      scoring.Features `json:"features" yaml:"features" toml:"features"`
	Arcs          [][]float64      `json:"arcs" yaml:"arcs" toml:"arcs"`
	Pruned        [][2]int         `json:"pruned,omitempty" yaml:"pruned,omitempty" toml:"pruned,omitempty"`
	Siblings      []Sibling        `json:"siblings,omitempty" yaml:"siblings,omitempty" toml:"siblings,omitempty"`
	Grandparents  []Grandparent    `json:"grandparents,omitempty" yaml:"grandparents,omitempty" toml:"grandparents,omitempty"`
	GrandSiblings []GrandSibling   `json:"grand_siblings,omitempty" yaml:"grand_siblings,omitempty" toml:"grand_siblings,omitempty"`
	Reference     []int            `json:"reference,omitempty" yaml:"reference,omitempty" toml:"reference,omitempty"`
	Gold          []int            `json:"gold,omitempty" yaml:"gold,omitempty" toml:"gold,omitempty"`
	Loss          float64          `json:"loss,omitempty" yaml:"loss,omitempty" toml:"loss,omitempty"`
}

// Load reads and decodes the instance file at path.
func Load(path string) (*Instance, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("instance: read %s: %w", path, err)
	}
	inst, err := Parse(data, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return inst, nil
}

// Parse decodes data in format f.
func Parse(data []byte, f Format) (*Instance, error) {
	var (
		inst Instance
		err  error
	)
	switch f {
	case YAML:
		err = yaml.Unmarshal(data, &inst)
	case TOML:
		err = toml.Unmarshal(data, &inst)
	case JSON:
		err = json.Unmarshal(data, &inst)
	default:
		return nil, fmt.Errorf("%q: %w", f, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("instance: decode %s: %w", f, err)
	}

	return &inst, nil
}

// Marshal encodes inst in format f.
func Marshal(inst *Instance, f Format) ([]byte, error) {
	switch f {
	case YAML:
		return yaml.Marshal(inst)
	case TOML:
		return toml.Marshal(inst)
	case JSON:
		return json.MarshalIndent(inst, "", "  ")
	default:
		return nil, fmt.Errorf("%q: %w", f, ErrUnknownFormat)
	}
}

// Len returns the number of tokens, root included.
func (inst *Instance) Len() int { return len(inst.Arcs) }

// Table builds the scoring table of the instance and validates it.
//
// Complexity: O(n² + entries).
func (inst *Instance) Table() (*scoring.Table, error) {
	n := inst.Len()
	if inst.Tokens != nil && len(inst.Tokens) != n {
		return nil, fmt.Errorf("%w: %d tokens, %d arc rows", ErrMalformed, len(inst.Tokens), n)
	}
	tb, err := scoring.NewTable(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var h, m int
	for h = 0; h < n; h++ {
		if len(inst.Arcs[h]) != n {
			return nil, fmt.Errorf("%w: arc row %d has %d columns, want %d", ErrMalformed, h, len(inst.Arcs[h]), n)
		}
		for m = 1; m < n; m++ {
			if h == m {
				continue
			}
			if err = tb.SetArc(h, m, inst.Arcs[h][m]); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
			}
		}
	}
	for _, p := range inst.Pruned {
		if err = tb.Prune(p[0], p[1]); err != nil {
			return nil, fmt.Errorf("%w: pruned %v: %w", ErrMalformed, p, err)
		}
	}
	for _, e := range inst.Siblings {
		if err = tb.SetSibling(e.Head, e.Mod, e.Sib, e.Score); err != nil {
			return nil, fmt.Errorf("%w: sibling %+v: %w", ErrMalformed, e, err)
		}
	}
	for _, e := range inst.Grandparents {
		if err = tb.SetGrandparent(e.GP, e.Head, e.Mod, e.Score); err != nil {
			return nil, fmt.Errorf("%w: grandparent %+v: %w", ErrMalformed, e, err)
		}
	}
	for _, e := range inst.GrandSiblings {
		if err = tb.SetGrandSibling(e.GP, e.Head, e.Mod, e.Sib, e.Score); err != nil {
			return nil, fmt.Errorf("%w: grand sibling %+v: %w", ErrMalformed, e, err)
		}
	}
	if err = tb.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return tb, nil
}

// Scorer returns the table of the instance, wrapped in a loss-augmented
// scorer when a gold tree is given.
func (inst *Instance) Scorer() (scoring.Scorer, error) {
	tb, err := inst.Table()
	if err != nil {
		return nil, err
	}
	if inst.Gold == nil {
		return tb, nil
	}
	gold, err := inst.tree(inst.Gold, "gold")
	if err != nil {
		return nil, err
	}

	return scoring.LossAugmented{Scorer: tb, Gold: gold, Loss: inst.Loss}, nil
}

// ReferenceHeads returns the reference tree, nil when none is given.
func (inst *Instance) ReferenceHeads() (deptree.Heads, error) {
	if inst.Reference == nil {
		return nil, nil
	}

	return inst.tree(inst.Reference, "reference")
}

// tree validates a head array of the instance.
func (inst *Instance) tree(heads []int, what string) (deptree.Heads, error) {
	h := deptree.Heads(heads).Clone()
	if len(h) != inst.Len() {
		return nil, fmt.Errorf("%w: %s has %d tokens, want %d", ErrMalformed, what, len(h), inst.Len())
	}
	if err := deptree.Validate(h); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, what, err)
	}

	return h, nil
}

// Sample returns a small annotated sentence ("She reads old books"), the
// template written by `depdual init`.
func Sample() *Instance {
	return &Instance{
		Tokens:   []string{"<root>", "She", "reads", "old", "books"},
		Features: scoring.Features{UseGrandparent: true, UseConsecutiveSibling: true},
		Arcs: [][]float64{
			{0, 1, 6, 0, 1},
			{0, 0, 1, 0, 0},
			{0, 5, 0, 1, 4},
			{0, 0, 0, 0, 0.5},
			{0, 0, 1, 3, 0},
		},
		Pruned: [][2]int{{3, 1}, {3, 2}},
		Siblings: []Sibling{
			{Head: 2, Mod: 1, Sib: 4, Score: 1.5},
		},
		Grandparents: []Grandparent{
			{GP: 2, Head: 4, Mod: 3, Score: 0.5},
		},
	}
}
