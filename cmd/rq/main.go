// Package main provides the CLI entry point for rq, a streamed JSONPath
// query engine over raw JSON byte buffers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func newRootCmd() *cobra.Command {
	cfg := newCLIConfig()

	cmd := &cobra.Command{
		Use:   "rq <QUERY> [FILE]",
		Short: "Query JSON documents with a restricted JSONPath dialect",
		Long: `rq evaluates a JSONPath query directly against raw JSON bytes, without
building an in-memory document tree. It supports child and descendant
segments, wildcards, array indices, and slices; filter expressions and
function extensions are not supported.

With no FILE argument, rq reads the document from stdin.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(cfg, args)
		},
	}

	cfg.registerFlags(cmd.Flags())

	return cmd
}
