// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/depdual/dual"
	"github.com/katalvlaran/depdual/instance"
)

func newDecodeCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "decode FILE...",
		Short: "Decode scored sentences and classify them against a reference tree",
		Long: `Decode runs dual decomposition on every file (YAML, TOML or JSON) and
prints the decoded tree, its score and the optimality class. The reference tree
is the file's "reference" entry, or the first-order maximum spanning tree.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.runAll(cmd, opDecode, args); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchFiles(cmd.Context(), a.logger, args, func(path string) {
				if err := a.run(cmd, opDecode, path); err != nil {
					a.logger.Error("decode failed", zap.String("file", path), zap.Error(err))
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-decode a file whenever it is written")

	return cmd
}

func newCertifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "certify FILE...",
		Short: "Try to prove that each file's reference tree is optimal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAll(cmd, opCertify, args)
		},
	}
}

const (
	opDecode  = "decode"
	opCertify = "certify"
)

// runAll runs op on every file and stops at the first error.
func (a *app) runAll(cmd *cobra.Command, op string, files []string) error {
	for _, f := range files {
		if err := a.run(cmd, op, f); err != nil {
			return err
		}
	}

	return nil
}

// run loads one instance, runs op and writes the report.
func (a *app) run(cmd *cobra.Command, op, path string) error {
	runID := uuid.NewString()
	log := a.logger.With(zap.String("run_id", runID), zap.String("file", path), zap.String("op", op))

	inst, err := instance.Load(path)
	if err != nil {
		return err
	}
	sc, err := inst.Scorer()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	ref, err := inst.ReferenceHeads()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	c, err := dual.NewCoordinator(inst.Features, a.cfg.DualOptions(log))
	if err != nil {
		return err
	}

	var (
		ctx   = cmd.Context()
		start = time.Now()
		res   dual.Result
	)
	if ctx == nil {
		ctx = context.Background()
	}
	if op == opCertify {
		res, err = c.Certify(ctx, sc, ref)
	} else {
		res, err = c.Decode(ctx, sc, ref)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	r := newReport(runID, op, path, inst.Features.Mode().String(), inst.Tokens, res, time.Since(start))

	return r.write(cmd.OutOrStdout(), a.cfg.Output)
}
