// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/katalvlaran/depdual/internal/config"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	v      *viper.Viper
	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "depdual",
		Short:         "Dual-decomposition decoder for higher-order dependency parsing",
		Long:          "depdual finds the best dependency tree of a scored sentence under grandparent and sibling features, and certifies optimality when the relaxation is tight.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default .depdual.yaml)")
	pf.Float64("beta", 0, "share of the arc score carried by the structure subproblem, in [0,1]")
	pf.Int("max-iterations", 0, "subgradient iteration budget")
	pf.Float64("tolerance", 0, "duality gap accepted as a certificate")
	pf.Float64("step-size", 0, "initial subgradient step (0: first duality gap)")
	pf.Int("workers", 0, "concurrent per-head solves (0: GOMAXPROCS)")
	pf.Duration("time-limit", 0, "wall-clock budget per sentence (0: none)")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.StringP("output", "o", "", "report format: text, json or yaml")

	for key, flag := range map[string]string{
		"beta":           "beta",
		"max_iterations": "max-iterations",
		"tolerance":      "tolerance",
		"step_size":      "step-size",
		"workers":        "workers",
		"time_limit":     "time-limit",
		"log_level":      "log-level",
		"output":         "output",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newDecodeCmd(a),
		newCertifyCmd(a),
		newInitCmd(),
		newVersionCmd(),
	)

	return root
}

// init reads the config file and environment and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName(".depdual")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
	}
	a.v.SetEnvPrefix("DEPDUAL")
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && a.v.ConfigFileUsed() != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger

	return nil
}
