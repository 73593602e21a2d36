package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fabn3ez/omnisyncra/internal/model"
)

// LogEntry is one operation rendered for the log command.
type LogEntry struct {
	ID        string            `json:"id"`
	Node      string            `json:"node"`
	Timestamp int64             `json:"timestamp"`
	Type      string            `json:"type"`
	Target    string            `json:"target,omitempty"`
	Clock     model.VectorClock `json:"clock"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "log",
		Short:         "Dump the operation log in canonical order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session, out *OutputFormatter) error {
				snap := s.mgr.Snapshot()
				entries := make([]LogEntry, 0, len(snap.Log))
				for _, op := range snap.Log {
					entries = append(entries, LogEntry{
						ID:        op.ID,
						Node:      string(op.Node),
						Timestamp: op.Timestamp,
						Type:      string(op.Type),
						Target:    op.TargetKey(),
						Clock:     op.Clock,
					})
				}
				return out.Emit(entries, func(w io.Writer) {
					for _, e := range entries {
						fmt.Fprintf(w, "%d  %-12s %-10s %-24s %s\n", e.Timestamp, e.Node, e.Type, e.Target, e.ID)
					}
					fmt.Fprintf(w, "%d operation(s)\n", len(entries))
				})
			})
		},
	}
}
