package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/clinidoc/actd/internal/build"
	"github.com/clinidoc/actd/internal/cmd"
)

var rootCmd = &cobra.Command{
	Use:   build.Slug,
	Short: "Actd is the remote activation control plane for clinical documentation deployments",
	Long: `Actd is the remote activation control plane for clinical documentation
deployments.

It runs the central authority that decides whether application instances
are permitted to operate, and provides the client-side reconciliation and
admin tooling around it.
`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(cmd.Server())
	rootCmd.AddCommand(cmd.Check())
	rootCmd.AddCommand(cmd.Status())
	rootCmd.AddCommand(cmd.Activate())
	rootCmd.AddCommand(cmd.Deactivate())
	rootCmd.AddCommand(cmd.Set())
	rootCmd.AddCommand(cmd.Version())
}
