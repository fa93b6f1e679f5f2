// Package cli is the groupsync command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"groupsync/internal/config"
	"groupsync/internal/engine"
	"groupsync/internal/format"
	"groupsync/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	DBPath     string
	Debounce   string
	LogLevel   string
	Format     string
	Pretty     bool

	cfg config.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "groupsync",
		Short:        "Groups and items, saved to SQLite in the background",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  groupsync

  # Scriptable commands
  groupsync groups add Groceries
  groupsync items add Groceries Milk
  groupsync groups list --pretty

  # Direct group lookup (shortcut for: groupsync groups show <group-id>)
  groupsync 3f0c9a0e-1d1b-4c55-9b0e-0a4f3c1d2e5f
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.resolve()
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("GROUPSYNC_CONFIG", ""), "Path to config.toml (default: $GROUPSYNC_CONFIG_DIR/config.toml or ~/.groupsync/config.toml)")
	cmd.PersistentFlags().StringVar(&app.DBPath, "db", envOr("GROUPSYNC_DB", ""), "Path to the SQLite database (overrides db_path)")
	cmd.PersistentFlags().StringVar(&app.Debounce, "debounce", envOr("GROUPSYNC_DEBOUNCE", ""), "Quiet window before saving, e.g. 1s (overrides debounce)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("GROUPSYNC_LOG_LEVEL", ""), "debug|info|warn|error (overrides log_level)")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("GROUPSYNC_FORMAT", "json"), "Output format ("+strings.Join(format.Formats, "|")+")")

	cmd.AddCommand(newGroupsCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newSeedCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

// resolve layers flags over the config file.
func (app *App) resolve() error {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return err
	}
	if v := strings.TrimSpace(app.DBPath); v != "" {
		abs, err := filepath.Abs(v)
		if err != nil {
			return err
		}
		cfg.DBPath = abs
	}
	if v := strings.TrimSpace(app.Debounce); v != "" {
		if cfg.Debounce, err = config.ParseDebounce(v); err != nil {
			return err
		}
	}
	if v := strings.TrimSpace(app.LogLevel); v != "" {
		if cfg.LogLevel, err = config.ParseLevel(v); err != nil {
			return err
		}
	}
	app.cfg = cfg
	return nil
}

func (app *App) logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: app.cfg.LogLevel}))
}

func (app *App) openStore(ctx context.Context) (*store.SQLite, error) {
	return store.OpenSQLite(ctx, app.cfg.DBPath)
}

// withEngine opens the store and an engine, runs fn, saves whatever fn changed
// and only then writes fn's payload. A nil payload prints nothing.
func withEngine(cmd *cobra.Command, app *App, fn func(e *engine.Engine) (any, error)) error {
	ctx := cmd.Context()
	st, err := app.openStore(ctx)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer st.Close()

	e, err := engine.Open(ctx, engine.Options{
		Store:  st,
		Window: app.cfg.Debounce,
		Logger: app.logger(cmd.ErrOrStderr()),
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	defer e.Close()

	out, err := fn(e)
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := flushOnExit(ctx, e); err != nil {
		return writeErr(cmd, fmt.Errorf("save: %w", err))
	}
	if out == nil {
		return nil
	}
	return writeOut(cmd, app, out)
}

// flushOnExit saves pending edits even when ctx was cancelled by a signal.
func flushOnExit(ctx context.Context, e *engine.Engine) error {
	return e.Flush(context.WithoutCancel(ctx))
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.Pretty)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
