package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// KVResult is the payload for key-value commands.
type KVResult struct {
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Found   bool   `json:"found"`
	OpID    string `json:"op_id,omitempty"`
	Version int64  `json:"version,omitempty"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <key>",
		Short:         "Read a key-value entry",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session, out *OutputFormatter) error {
				value, found := s.mgr.Snapshot().Get(args[0])
				if !found {
					if err := out.Error(fmt.Sprintf("key %q not found", args[0]), nil); err != nil {
						return err
					}
					return NewExitError(ExitFailure, "key not found")
				}
				return out.Emit(KVResult{Key: args[0], Value: value, Found: true}, func(w io.Writer) {
					fmt.Fprintln(w, value)
				})
			})
		},
	}
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "set <key> <value>",
		Short:         "Write a key-value entry",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session, out *OutputFormatter) error {
				op, err := s.mgr.SetKey(ctx, args[0], args[1])
				if err != nil {
					return WrapExitError(ExitFailure, "set", err)
				}
				return emitMutation(out, KVResult{Key: args[0], Value: args[1], Found: true, OpID: op.ID, Version: s.mgr.Snapshot().Version})
			})
		},
	}
}

// NewDelCommand creates the del command.
func NewDelCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "del <key>",
		Short:         "Delete a key-value entry",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session, out *OutputFormatter) error {
				op, err := s.mgr.DeleteKey(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "del", err)
				}
				return emitMutation(out, KVResult{Key: args[0], OpID: op.ID, Version: s.mgr.Snapshot().Version})
			})
		},
	}
}

// NewIncrCommand creates the incr command.
func NewIncrCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "incr <key>",
		Short:         "Increment a numeric key-value entry",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session, out *OutputFormatter) error {
				op, err := s.mgr.IncrementKey(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "incr", err)
				}
				value, _ := s.mgr.Snapshot().Get(args[0])
				return emitMutation(out, KVResult{Key: args[0], Value: value, Found: true, OpID: op.ID, Version: s.mgr.Snapshot().Version})
			})
		},
	}
}

// NewDecrCommand creates the decr command.
func NewDecrCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "decr <key>",
		Short:         "Decrement a numeric key-value entry",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session, out *OutputFormatter) error {
				op, err := s.mgr.DecrementKey(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "decr", err)
				}
				value, _ := s.mgr.Snapshot().Get(args[0])
				return emitMutation(out, KVResult{Key: args[0], Value: value, Found: true, OpID: op.ID, Version: s.mgr.Snapshot().Version})
			})
		},
	}
}

func emitMutation(out *OutputFormatter, res KVResult) error {
	return out.Emit(res, func(w io.Writer) {
		if res.Value != "" {
			fmt.Fprintf(w, "%s = %s (op %s, version %d)\n", res.Key, res.Value, res.OpID, res.Version)
			return
		}
		fmt.Fprintf(w, "%s (op %s, version %d)\n", res.Key, res.OpID, res.Version)
	})
}
