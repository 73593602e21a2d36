package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fabn3ez/omnisyncra/internal/model"
	"github.com/fabn3ez/omnisyncra/internal/replica"
)

// EntityResult is the payload for device and document mutations.
type EntityResult struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	OpID    string `json:"op_id"`
	Version int64  `json:"version"`
}

// NewDeviceCommand creates the device command group.
func NewDeviceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Manage device records",
	}

	type deviceAction struct {
		use, short string
		needsData  bool
		submit     func(ctx context.Context, m *replica.Manager, id, data string) (model.Operation, error)
	}
	actions := []deviceAction{
		{"add <device-id> <data>", "Register a device", true,
			func(ctx context.Context, m *replica.Manager, id, data string) (model.Operation, error) {
				return m.AddDevice(ctx, id, data)
			}},
		{"update <device-id> <data>", "Replace a device record", true,
			func(ctx context.Context, m *replica.Manager, id, data string) (model.Operation, error) {
				return m.UpdateDevice(ctx, id, data)
			}},
		{"remove <device-id>", "Remove a device", false,
			func(ctx context.Context, m *replica.Manager, id, _ string) (model.Operation, error) {
				return m.RemoveDevice(ctx, id)
			}},
		{"connect <device-id> <data>", "Mark a device connected", true,
			func(ctx context.Context, m *replica.Manager, id, data string) (model.Operation, error) {
				return m.ConnectDevice(ctx, id, data)
			}},
		{"disconnect <device-id>", "Mark a device disconnected", false,
			func(ctx context.Context, m *replica.Manager, id, data string) (model.Operation, error) {
				return m.DisconnectDevice(ctx, id, data)
			}},
		{"status <device-id> <status>", "Record a device status change", true,
			func(ctx context.Context, m *replica.Manager, id, data string) (model.Operation, error) {
				return m.SetDeviceStatus(ctx, id, data)
			}},
	}

	for _, action := range actions {
		nargs := 1
		if action.needsData {
			nargs = 2
		}
		submit := action.submit
		cmd.AddCommand(&cobra.Command{
			Use:           action.use,
			Short:         action.short,
			Args:          cobra.ExactArgs(nargs),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(rootOpts, cmd, func(ctx context.Context, s *session, out *OutputFormatter) error {
					data := ""
					if len(args) > 1 {
						data = args[1]
					}
					op, err := submit(ctx, s.mgr, args[0], data)
					if err != nil {
						return WrapExitError(ExitFailure, "device", err)
					}
					return emitEntity(out, EntityResult{
						ID:      args[0],
						Kind:    string(op.Device.Kind),
						OpID:    op.ID,
						Version: s.mgr.Snapshot().Version,
					})
				})
			},
		})
	}

	return cmd
}

func emitEntity(out *OutputFormatter, res EntityResult) error {
	return out.Emit(res, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s (op %s, version %d)\n", res.Kind, res.ID, res.OpID, res.Version)
	})
}
