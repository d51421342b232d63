package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "thoughtsearch",
		Short: "Tree-of-thought search from the command line",
		Long: `thoughtsearch explores chains of intermediate reasoning steps with a
breadth (beam) or depth-first search and prints the outcome as JSON.`,
		SilenceUsage: true,
	}
	root.AddCommand(newSolveCmd(), newRunsCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
