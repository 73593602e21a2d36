package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewCompactCommand creates the compact command.
func NewCompactCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "compact",
		Short:         "Drop log entries superseded by newer operations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session, out *OutputFormatter) error {
				removed, err := s.mgr.Compact(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "compact", err)
				}
				retained := len(s.mgr.Snapshot().Log)
				return out.Emit(map[string]int{"removed": removed, "retained": retained}, func(w io.Writer) {
					fmt.Fprintf(w, "compacted: %d removed, %d retained\n", removed, retained)
				})
			})
		},
	}
}

// NewRepairCommand creates the repair command.
func NewRepairCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "repair",
		Short:         "Validate the replica and repair what is recoverable",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session, out *OutputFormatter) error {
				issues, unrecoverable, err := s.mgr.Repair(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "repair", err)
				}

				found := make([]string, 0, len(issues))
				for _, issue := range issues {
					found = append(found, issue.String())
				}
				fatal := make([]string, 0, len(unrecoverable))
				for _, issue := range unrecoverable {
					fatal = append(fatal, issue.String())
				}

				emitErr := out.Emit(map[string]any{
					"issues":        found,
					"unrecoverable": fatal,
					"repaired":      len(issues) > 0 && len(unrecoverable) == 0,
				}, func(w io.Writer) {
					if len(found) == 0 {
						fmt.Fprintln(w, "state is healthy")
						return
					}
					fmt.Fprintf(w, "%d issue(s) found\n", len(found))
					for _, msg := range found {
						fmt.Fprintf(w, "  - %s\n", msg)
					}
					if len(fatal) > 0 {
						fmt.Fprintf(w, "%d unrecoverable, state NOT repaired\n", len(fatal))
					} else {
						fmt.Fprintln(w, "repaired")
					}
				})
				if emitErr != nil {
					return emitErr
				}
				if len(fatal) > 0 {
					return NewExitError(ExitFailure, "unrecoverable state issues")
				}
				return nil
			})
		},
	}
}
