package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivgeniay/jointpresentation/pkg/client"
)

func runWatch(cmd *cobra.Command, opts *connectOptions, duration time.Duration) error {
	ctx := cmd.Context()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	c, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer c.Close()

	out := json.NewEncoder(cmd.OutOrStdout())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-c.Events():
			if !ok {
				return c.Err()
			}
			if err := out.Encode(ev); err != nil {
				return err
			}
		}
	}
}

func runInvoke(cmd *cobra.Command, opts *connectOptions, command string, rawArgs []string) error {
	ctx := cmd.Context()

	c, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer c.Close()

	out := cmd.OutOrStdout()
	drainEvents(out, c)

	callCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	invokeErr := c.Invoke(callCtx, command, parseArgs(rawArgs)...)
	drainEvents(out, c)

	var cmdErr *client.Error
	if errors.As(invokeErr, &cmdErr) {
		return fmt.Errorf("%s rejected: %w", command, cmdErr)
	}
	return invokeErr
}

// connect dials the endpoint and establishes identity and room membership. Without a
// nickname or ticket the connection stays anonymous.
func connect(ctx context.Context, opts *connectOptions) (*client.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	var dialOpts []client.Option
	if ticket := strings.TrimSpace(opts.ticket); ticket != "" {
		dialOpts = append(dialOpts, client.WithTicket(ticket))
	}

	c, err := client.Dial(dialCtx, opts.url, dialOpts...)
	if err != nil {
		return nil, err
	}

	if nickname := strings.TrimSpace(opts.nickname); nickname != "" && opts.ticket == "" {
		if err := c.Invoke(dialCtx, "connectUser", nickname); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("connect as %q: %w", nickname, err)
		}
	}
	if presentation := strings.TrimSpace(opts.presentation); presentation != "" {
		if err := c.Invoke(dialCtx, "joinPresentation", presentation); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("join %s: %w", presentation, err)
		}
	}
	return c, nil
}

// parseArgs sends values that are valid JSON verbatim and everything else as strings.
func parseArgs(values []string) []any {
	args := make([]any, 0, len(values))
	for _, value := range values {
		if json.Valid([]byte(value)) {
			args = append(args, json.RawMessage(value))
			continue
		}
		args = append(args, value)
	}
	return args
}

func drainEvents(w io.Writer, c *client.Client) {
	enc := json.NewEncoder(w)
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				return
			}
			_ = enc.Encode(ev)
		default:
			return
		}
	}
}
