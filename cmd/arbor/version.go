package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of arbor",
		Run: func(cmd *cobra.Command, args []string) {
			version := strings.TrimSpace(arbor.Version)
			if banner, _ := cmd.Flags().GetBool("banner"); banner {
				tui.PrintBanner(cmd.OutOrStdout(), version)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "arbor version %s\n", version)
		},
	}
	cmd.Flags().Bool("banner", false, "Print the banner")
	return cmd
}
