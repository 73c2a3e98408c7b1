package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinidoc/actd/internal/build"
)

func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the binary version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.Version)
		},
	}
}
