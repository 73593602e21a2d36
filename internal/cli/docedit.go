package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

// NewDocCommand creates the doc command group for document edits.
func NewDocCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Edit replicated documents",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "insert <document-id> <position> <content>",
		Short:         "Insert content at a character position",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session, out *OutputFormatter) error {
				pos, err := strconv.Atoi(args[1])
				if err != nil || pos < 0 {
					return NewExitError(ExitCommandError, fmt.Sprintf("invalid position %q", args[1]))
				}
				op, err := s.mgr.InsertText(ctx, args[0], pos, args[2])
				if err != nil {
					return WrapExitError(ExitFailure, "doc insert", err)
				}
				return emitDoc(out, s, args[0], op.ID)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "delete <document-id> <position> <content>",
		Short:         "Delete a span starting at a character position",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session, out *OutputFormatter) error {
				pos, err := strconv.Atoi(args[1])
				if err != nil || pos < 0 {
					return NewExitError(ExitCommandError, fmt.Sprintf("invalid position %q", args[1]))
				}
				op, err := s.mgr.DeleteText(ctx, args[0], pos, args[2])
				if err != nil {
					return WrapExitError(ExitFailure, "doc delete", err)
				}
				return emitDoc(out, s, args[0], op.ID)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "show <document-id>",
		Short:         "Print a document's current content",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session, out *OutputFormatter) error {
				content, ok := s.mgr.Snapshot().Documents[args[0]]
				if !ok {
					if err := out.Error(fmt.Sprintf("document %q not found", args[0]), nil); err != nil {
						return err
					}
					return NewExitError(ExitFailure, "document not found")
				}
				return out.Emit(map[string]string{"document_id": args[0], "content": content}, func(w io.Writer) {
					fmt.Fprintln(w, content)
				})
			})
		},
	})

	return cmd
}

func emitDoc(out *OutputFormatter, s *session, docID, opID string) error {
	content := s.mgr.Snapshot().Documents[docID]
	return out.Emit(map[string]any{
		"document_id": docID,
		"content":     content,
		"op_id":       opID,
		"version":     s.mgr.Snapshot().Version,
	}, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %q (op %s)\n", docID, content, opID)
	})
}
