package cmd

import (
	"github.com/spf13/cobra"
)

// NewCommand wires a cobra command to the shared context setup: it
// registers the common flags and loads config and logger before the run
// function executes.
func NewCommand(cmd *cobra.Command, flags []commandLineFlag, run func(ctx *Context, args []string) error) *cobra.Command {
	initFlags(cmd, flags)
	cmd.SilenceUsage = true
	cmd.RunE = func(c *cobra.Command, args []string) error {
		ctx, err := NewContext(c, flags)
		if err != nil {
			return err
		}
		return run(ctx, args)
	}
	return cmd
}

// stringFlag returns the flag value when set, otherwise the fallback.
func stringFlag(ctx *Context, name, fallback string) string {
	if ctx.Command.Flags().Changed(name) {
		value, err := ctx.Command.Flags().GetString(name)
		if err == nil {
			return value
		}
	}
	return fallback
}
