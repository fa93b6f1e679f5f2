package cli

import (
	"fmt"

	"groupsync/internal/engine"

	"github.com/spf13/cobra"
)

func newSeedCmd(app *App) *cobra.Command {
	var groups, items int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add preview data: groups G0.. each holding items I0..",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if groups < 0 || items < 0 {
				return writeErr(cmd, fmt.Errorf("--groups and --items must not be negative"))
			}
			return withEngine(cmd, app, func(e *engine.Engine) (any, error) {
				for g := 0; g < groups; g++ {
					gid, err := e.AddNamedGroup(fmt.Sprintf("G%d", g))
					if err != nil {
						return nil, err
					}
					for i := 0; i < items; i++ {
						if _, err := e.AddNamedItem(gid, fmt.Sprintf("I%d", i)); err != nil {
							return nil, err
						}
					}
				}
				return map[string]any{"data": map[string]any{"groups": groups, "items": groups * items}}, nil
			})
		},
	}
	cmd.Flags().IntVar(&groups, "groups", 5, "Number of groups to add")
	cmd.Flags().IntVar(&items, "items", 100, "Number of items per group")
	return cmd
}
