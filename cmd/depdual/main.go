// SPDX-License-Identifier: MIT

// Command depdual decodes scored sentences with dual decomposition.
//
//	depdual decode sentence.yaml            # decode, classify against the first-order tree
//	depdual decode --watch a.yaml b.toml    # re-decode whenever a file changes
//	depdual certify sentence.yaml           # try to certify the file's reference tree
//	depdual init sentence.yaml              # write a sample sentence
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
