package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"groupsync/internal/engine"
	"groupsync/internal/tui"

	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive TUI (also the default with no command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

// runTUI logs to groupsync.log beside the database; stderr belongs to the
// terminal while the program runs.
func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	st, err := app.openStore(ctx)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer st.Close()

	logPath := filepath.Join(filepath.Dir(app.cfg.DBPath), "groupsync.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer logFile.Close()

	e, err := engine.Open(ctx, engine.Options{
		Store:  st,
		Window: app.cfg.Debounce,
		Logger: app.logger(logFile),
	})
	if err != nil {
		return writeErr(cmd, err)
	}

	runErr := tui.Run(ctx, e)
	flushErr := flushOnExit(ctx, e)
	_ = e.Close()
	if flushErr != nil {
		flushErr = fmt.Errorf("save on exit: %w", flushErr)
	}
	if err := errors.Join(runErr, flushErr); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
