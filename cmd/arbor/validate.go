package main

import (
	"fmt"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/condition"
	"github.com/aretw0/arbor/pkg/story"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <story.yaml>",
		Short: "Check the story for consistency",
		Long: `Checks scene and choice ids, choice targets and fallbacks, every condition
against the declared variables, and that the story imports cleanly. Dead ends
and scenes unreachable from the start are reported as warnings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strict, _ := cmd.Flags().GetBool("strict")

			s, err := story.Load(args[0])
			if err != nil {
				return err
			}
			res := s.Validate(condition.New(condition.WithLogger(a.logger)))
			tui.PrintReport(cmd.OutOrStdout(), res)

			if !res.IsValid {
				return fmt.Errorf("validation failed with %d error(s)", len(res.Errors))
			}
			if strict && len(res.Warnings) > 0 {
				return fmt.Errorf("validation failed with %d warning(s) in strict mode", len(res.Warnings))
			}
			return nil
		},
	}
	cmd.Flags().Bool("strict", false, "Treat warnings as errors")
	return cmd
}
