package cli

import (
	"groupsync/internal/engine"
	"groupsync/internal/model"

	"github.com/spf13/cobra"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "List and edit the items of a group",
	}
	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsRenameCmd(app))
	cmd.AddCommand(newItemsRmCmd(app))
	return cmd
}

func newItemsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list <group>",
		Aliases: []string{"ls"},
		Short:   "List a group's items in display order",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, app, func(e *engine.Engine) (any, error) {
				g, err := resolveGroup(e.CurrentGroups().Groups(), args[0])
				if err != nil {
					return nil, err
				}
				items := g.Items
				if items == nil {
					items = []model.Item{}
				}
				return map[string]any{"data": items}, nil
			})
		},
	}
}

func newItemsAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <group> [name]",
		Short: "Add an item (default name I<n+1>)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, app, func(e *engine.Engine) (any, error) {
				g, err := resolveGroup(e.CurrentGroups().Groups(), args[0])
				if err != nil {
					return nil, err
				}
				var id model.ItemID
				if len(args) == 2 {
					id, err = e.AddNamedItem(g.ID, args[1])
				} else {
					id, err = e.AddItem(g.ID)
				}
				if err != nil {
					return nil, err
				}
				g, _ = e.Group(g.ID)
				it, err := resolveItem(g, id.String())
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": map[string]any{"groupId": g.ID, "item": it}}, nil
			})
		},
	}
}

func newItemsRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <group> <item> <name>",
		Short: "Rename an item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, app, func(e *engine.Engine) (any, error) {
				g, it, err := resolveGroupItem(e, args[0], args[1])
				if err != nil {
					return nil, err
				}
				if err := e.Mutate(engine.RenameItem{GroupID: g.ID, ItemID: it.ID, Name: args[2]}); err != nil {
					return nil, err
				}
				g, _ = e.Group(g.ID)
				it, err = resolveItem(g, it.ID.String())
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": map[string]any{"groupId": g.ID, "item": it}}, nil
			})
		},
	}
}

func newItemsRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <group> <item>",
		Aliases: []string{"delete"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, app, func(e *engine.Engine) (any, error) {
				g, it, err := resolveGroupItem(e, args[0], args[1])
				if err != nil {
					return nil, err
				}
				if err := e.Mutate(engine.DeleteItem{GroupID: g.ID, ItemID: it.ID}); err != nil {
					return nil, err
				}
				return map[string]any{"data": map[string]any{"groupId": g.ID, "deleted": it.ID}}, nil
			})
		},
	}
}

func resolveGroupItem(e *engine.Engine, groupRef, itemRef string) (model.Group, model.Item, error) {
	g, err := resolveGroup(e.CurrentGroups().Groups(), groupRef)
	if err != nil {
		return model.Group{}, model.Item{}, err
	}
	it, err := resolveItem(g, itemRef)
	if err != nil {
		return model.Group{}, model.Item{}, err
	}
	return g, it, nil
}
