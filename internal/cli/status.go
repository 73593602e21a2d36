package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fabn3ez/omnisyncra/internal/model"
)

// StatusReport is the status command's output payload.
type StatusReport struct {
	Node        string            `json:"node"`
	Version     int64             `json:"version"`
	Clock       model.VectorClock `json:"clock"`
	LogLength   int               `json:"log_length"`
	LastUpdated int64             `json:"last_updated"`
	Devices     int               `json:"devices"`
	Contexts    int               `json:"contexts"`
	Documents   int               `json:"documents"`
	Keys        int               `json:"keys"`
	Conflicts   int               `json:"conflicts"`
	Issues      []string          `json:"issues,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show the local replica's state summary",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, runStatus)
		},
	}
}

func runStatus(ctx context.Context, s *session, out *OutputFormatter) error {
	snap := s.mgr.Snapshot()

	report := StatusReport{
		Node:        string(snap.Node),
		Version:     snap.Version,
		Clock:       snap.Clock,
		LogLength:   len(snap.Log),
		LastUpdated: snap.LastUpdated,
		Devices:     len(snap.Devices),
		Contexts:    len(snap.Contexts),
		Documents:   len(snap.Documents),
		Keys:        len(snap.KV),
		Conflicts:   len(s.mgr.Conflicts()),
	}
	for _, issue := range snap.Validate() {
		report.Issues = append(report.Issues, issue.String())
	}

	return out.Emit(report, func(w io.Writer) {
		fmt.Fprintf(w, "Node:         %s\n", report.Node)
		fmt.Fprintf(w, "Version:      %d\n", report.Version)
		fmt.Fprintf(w, "Clock:        %v\n", report.Clock)
		fmt.Fprintf(w, "Log length:   %d\n", report.LogLength)
		fmt.Fprintf(w, "Last updated: %d\n", report.LastUpdated)
		fmt.Fprintf(w, "Entities:     %d devices, %d contexts, %d documents, %d keys\n",
			report.Devices, report.Contexts, report.Documents, report.Keys)
		fmt.Fprintf(w, "Conflicts:    %d resolved\n", report.Conflicts)
		if len(report.Issues) > 0 {
			fmt.Fprintf(w, "Issues:\n")
			for _, issue := range report.Issues {
				fmt.Fprintf(w, "  - %s\n", issue)
			}
		}
	})
}
