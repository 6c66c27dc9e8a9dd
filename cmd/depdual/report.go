// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/depdual/dual"
	"github.com/katalvlaran/depdual/internal/config"
)

// report is the printable outcome of one decode or certify run.
type report struct {
	RunID          string   `json:"run_id" yaml:"run_id"`
	Op             string   `json:"op" yaml:"op"`
	File           string   `json:"file" yaml:"file"`
	Mode           string   `json:"mode" yaml:"mode"`
	Tokens         []string `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	Heads          []int    `json:"heads" yaml:"heads"`
	Score          float64  `json:"score" yaml:"score"`
	Reference      []int    `json:"reference" yaml:"reference"`
	ReferenceScore float64  `json:"reference_score" yaml:"reference_score"`
	Status         string   `json:"status" yaml:"status"`
	Class          string   `json:"class" yaml:"class"`
	Iterations     int      `json:"iterations" yaml:"iterations"`
	Gap            float64  `json:"gap" yaml:"gap"`
	DualValue      float64  `json:"dual_value" yaml:"dual_value"`
	TimedOut       bool     `json:"timed_out" yaml:"timed_out"`
	Elapsed        string   `json:"elapsed" yaml:"elapsed"`
}

// newReport flattens a dual.Result.
func newReport(runID, op, file, mode string, tokens []string, res dual.Result, elapsed time.Duration) report {
	return report{
		RunID:          runID,
		Op:             op,
		File:           file,
		Mode:           mode,
		Tokens:         tokens,
		Heads:          res.Heads,
		Score:          res.Score,
		Reference:      res.Reference,
		ReferenceScore: res.ReferenceScore,
		Status:         res.Status.String(),
		Class:          res.Class.String(),
		Iterations:     res.Iterations,
		Gap:            res.Gap,
		DualValue:      res.DualValue,
		TimedOut:       res.TimedOut,
		Elapsed:        elapsed.Round(time.Microsecond).String(),
	}
}

// write prints r in the given format.
func (r report) write(w io.Writer, format string) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return r.writeText(w)
	}
}

// writeText prints one line per token followed by the summary.
func (r report) writeText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s, run %s)\n", r.Op, r.File, r.Mode, r.RunID)
	for m := 1; m < len(r.Heads); m++ {
		fmt.Fprintf(&b, "  %d\t%s\t<- %d\t%s\n", m, r.token(m), r.Heads[m], r.token(r.Heads[m]))
	}
	fmt.Fprintf(&b, "score %.6g  reference %.6g  gap %.3g  dual %.6g\n", r.Score, r.ReferenceScore, r.Gap, r.DualValue)
	fmt.Fprintf(&b, "status %s  class %s  iterations %d", r.Status, r.Class, r.Iterations)
	if r.TimedOut {
		b.WriteString("  (timed out)")
	}
	fmt.Fprintf(&b, "  elapsed %s\n", r.Elapsed)

	_, err := io.WriteString(w, b.String())
	return err
}

// token returns the name of token i, or its index when unnamed.
func (r report) token(i int) string {
	if i >= 0 && i < len(r.Tokens) {
		return r.Tokens[i]
	}

	return fmt.Sprintf("#%d", i)
}
