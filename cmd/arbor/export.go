package main

import (
	"encoding/json"
	"errors"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [story.yaml]",
		Short: "Print the project document as JSON",
		Long: `Prints the document a variable manager imports: variables, current values,
branch conditions and scene actions. Without --project it is derived from
the story file; with --project it is read from the project store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, _ := cmd.Flags().GetString("project")

			var doc *domain.ProjectDocument
			switch {
			case projectID != "":
				mgr, closeStore, err := a.sessions()
				if err != nil {
					return err
				}
				defer closeStore()
				loaded, err := mgr.Load(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				doc = loaded
			case len(args) == 1:
				p, err := a.open(args[0])
				if err != nil {
					return err
				}
				exported := p.Variables().Export()
				doc = &exported
			default:
				return errors.New("export needs a story file or --project")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}
	cmd.Flags().String("project", "", "Persisted project id to export")
	return cmd
}
