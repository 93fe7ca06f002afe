package main

import (
	"fmt"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/layout"
	"github.com/spf13/cobra"
)

func newGraphCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <story.yaml>",
		Short: "Export the story graph visualization",
		Long: `Outputs a Mermaid flowchart of the story's scenes and choices. Gated choices
are dotted and labelled with their condition. With --choose, the scenes of
the resulting playthrough are highlighted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, _ := cmd.Flags().GetString("direction")
			if !layout.Direction(direction).Valid() {
				return fmt.Errorf("unknown direction %q", direction)
			}
			choices, _ := cmd.Flags().GetStringSlice("choose")

			p, err := a.open(args[0])
			if err != nil {
				return err
			}
			opts := graph.Options{Direction: layout.Direction(direction)}
			if len(choices) > 0 {
				p.Start("graph")
				for _, id := range choices {
					if _, err := p.Choose(id); err != nil {
						return err
					}
				}
				state, _ := p.Variables().Playthrough()
				opts.Overlay = graph.OverlayFromPlaythrough(state)
			}

			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(p.Story(), opts))
			return nil
		},
	}
	cmd.Flags().String("direction", string(layout.LeftToRight), "Flow direction")
	cmd.Flags().StringSlice("choose", nil, "Choice ids to play before rendering the overlay")
	return cmd
}
