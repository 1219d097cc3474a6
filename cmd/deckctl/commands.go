package main

import (
	"time"

	"github.com/spf13/cobra"
)

const defaultURL = "ws://localhost:8080/ws"

// connectOptions are shared by every subcommand that opens a realtime connection.
type connectOptions struct {
	url          string
	nickname     string
	ticket       string
	presentation string
	timeout      time.Duration
}

func (o *connectOptions) bind(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.url, "url", defaultURL, "Realtime endpoint URL")
	flags.StringVarP(&o.nickname, "nickname", "n", "", "Nickname to connect as")
	flags.StringVar(&o.ticket, "ticket", "", "Session ticket to resume instead of a nickname")
	flags.StringVarP(&o.presentation, "presentation", "p", "", "Presentation to join after connecting")
	flags.DurationVar(&o.timeout, "timeout", 10*time.Second, "Timeout for connecting and each command")
}

func buildWatchCmd(opts *connectOptions) *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print realtime events as JSON lines until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, duration)
		},
	}
	cmd.Flags().DurationVar(&duration, "for", 0, "Stop after this long (0 watches until interrupted)")
	return cmd
}

func buildInvokeCmd(opts *connectOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <command> [args...]",
		Short: "Invoke one command and print the events received before its acknowledgement",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(cmd, opts, args[0], args[1:])
		},
	}
}
