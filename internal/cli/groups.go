package cli

import (
	"groupsync/internal/engine"
	"groupsync/internal/model"

	"github.com/spf13/cobra"
)

type groupSummary struct {
	ID    model.GroupID `json:"id"`
	Name  string        `json:"name"`
	Items int           `json:"items"`
}

func newGroupsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "List and edit groups",
	}
	cmd.AddCommand(newGroupsListCmd(app))
	cmd.AddCommand(newGroupsShowCmd(app))
	cmd.AddCommand(newGroupsAddCmd(app))
	cmd.AddCommand(newGroupsRenameCmd(app))
	cmd.AddCommand(newGroupsRmCmd(app))
	return cmd
}

func newGroupsListCmd(app *App) *cobra.Command {
	var withItems bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List groups in display order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, app, func(e *engine.Engine) (any, error) {
				groups := e.CurrentGroups().Groups()
				if withItems {
					return map[string]any{"data": groups}, nil
				}
				out := make([]groupSummary, 0, len(groups))
				for _, g := range groups {
					out = append(out, groupSummary{ID: g.ID, Name: g.Name, Items: len(g.Items)})
				}
				return map[string]any{"data": out}, nil
			})
		},
	}
	cmd.Flags().BoolVar(&withItems, "items", false, "Include each group's items")
	return cmd
}

func newGroupsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <group>",
		Short: "Show a group and its items (by id or name)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, app, func(e *engine.Engine) (any, error) {
				g, err := resolveGroup(e.CurrentGroups().Groups(), args[0])
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": g}, nil
			})
		},
	}
}

func newGroupsAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add [name]",
		Short: "Add a group (default name G<n+1>)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, app, func(e *engine.Engine) (any, error) {
				var (
					id  model.GroupID
					err error
				)
				if len(args) == 1 {
					id, err = e.AddNamedGroup(args[0])
				} else {
					id, err = e.AddGroup()
				}
				if err != nil {
					return nil, err
				}
				g, _ := e.Group(id)
				return map[string]any{"data": g}, nil
			})
		},
	}
}

func newGroupsRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <group> <name>",
		Short: "Rename a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, app, func(e *engine.Engine) (any, error) {
				g, err := resolveGroup(e.CurrentGroups().Groups(), args[0])
				if err != nil {
					return nil, err
				}
				if err := e.Mutate(engine.RenameGroup{ID: g.ID, Name: args[1]}); err != nil {
					return nil, err
				}
				g, _ = e.Group(g.ID)
				return map[string]any{"data": g}, nil
			})
		},
	}
}

func newGroupsRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <group>...",
		Aliases: []string{"delete"},
		Short:   "Delete groups and their items",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, app, func(e *engine.Engine) (any, error) {
				groups := e.CurrentGroups().Groups()
				ids := make([]model.GroupID, 0, len(args))
				for _, ref := range args {
					g, err := resolveGroup(groups, ref)
					if err != nil {
						return nil, err
					}
					ids = append(ids, g.ID)
				}
				if err := e.Mutate(engine.DeleteGroups{IDs: ids}); err != nil {
					return nil, err
				}
				return map[string]any{"data": map[string]any{"deleted": ids}}, nil
			})
		},
	}
}
