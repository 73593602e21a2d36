package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fabn3ez/omnisyncra/internal/config"
	"github.com/fabn3ez/omnisyncra/internal/replica"
	"github.com/fabn3ez/omnisyncra/internal/store"
)

// session is one command's view of the local replica: config loaded,
// store open, manager recovered.
type session struct {
	cfg    *config.Config
	st     store.Store
	mgr    *replica.Manager
	report replica.RecoveryReport
}

// withSession opens the replica, runs fn, and tears everything down.
// The manager's final snapshot is persisted on the way out regardless of
// what fn did; a failed final persist is surfaced as the command's error
// when the command itself succeeded.
func withSession(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, s *session, out *OutputFormatter) error) (retErr error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.ConfigPath == "" {
		return NewExitError(ExitCommandError, "--config is required")
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}

	st, err := cfg.Store.Open()
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer st.Close()

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	mgr, report, err := replica.Open(ctx, cfg.NodeID(), st, replica.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "open replica", err)
	}
	defer func() { retErr = closeSession(ctx, mgr, logger, retErr) }()

	if report.Reinitialized {
		out.VerboseLog("warning: persisted state was unusable, node reinitialized")
	} else if len(report.Repaired) > 0 {
		out.VerboseLog("persisted state repaired on load (%d issues)", len(report.Repaired))
	}

	s := &session{cfg: cfg, st: st, mgr: mgr, report: report}
	return fn(ctx, s, out)
}

// sessionCloser is the slice of the manager closeSession needs.
type sessionCloser interface {
	Close(context.Context) error
}

// closeSession persists the final snapshot. A failed persist is never
// swallowed: it is logged, and when the command itself succeeded it
// becomes the command's error. A command error already in flight takes
// precedence.
func closeSession(ctx context.Context, mgr sessionCloser, logger *slog.Logger, runErr error) error {
	err := mgr.Close(ctx)
	if err == nil {
		return runErr
	}
	logger.Error("final snapshot persistence failed", "error", err)
	if runErr != nil {
		return runErr
	}
	return WrapExitError(ExitFailure, "close replica", err)
}
