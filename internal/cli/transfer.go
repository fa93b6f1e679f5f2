package cli

import (
	"groupsync/internal/model"
	"groupsync/internal/reconcile"
	"groupsync/internal/store"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every stored group and item to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			groups, err := st.FetchAllGroups(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := store.WriteExport(args[0], groups); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": args[0], "groups": len(groups)}})
		},
	}
}

func newImportCmd(app *App) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Make the store match an export file",
		Long:  "Reconciles the store against the file: groups and items missing from the file are deleted, changed names are updated and new entries are created, in one transaction.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := store.ReadExport(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			var ops []store.Op
			if dryRun {
				persisted, err := st.FetchAllGroups(cmd.Context())
				if err != nil {
					return writeErr(cmd, err)
				}
				ops = reconcile.Diff(exp.Groups, persisted)
			} else {
				r := reconcile.New(st, app.logger(cmd.ErrOrStderr()))
				if ops, err = r.Reconcile(cmd.Context(), model.NewSnapshot(exp.Groups)); err != nil {
					return writeErr(cmd, err)
				}
			}
			if ops == nil {
				ops = []store.Op{}
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"dryRun": dryRun, "ops": ops}})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the operations without applying them")
	return cmd
}
