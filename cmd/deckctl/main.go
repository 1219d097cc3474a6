// Package main provides deckctl, a command line client for the presentation realtime endpoint.
//
// Watch a presentation room:
//
//	deckctl watch --url ws://localhost:8080/ws --nickname alice --presentation <id>
//
// Invoke a single command and print the events it produced:
//
//	deckctl invoke --nickname alice createPresentation '"Quarterly review"'
//
// Arguments that parse as JSON are sent as-is; anything else is sent as a string.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	opts := &connectOptions{}
	root := &cobra.Command{
		Use:           "deckctl",
		Short:         "Command line client for collaborative presentations",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bind(root)
	root.AddCommand(
		buildWatchCmd(opts),
		buildInvokeCmd(opts),
	)
	return root
}
