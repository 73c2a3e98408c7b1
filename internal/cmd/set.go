package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinidoc/actd/internal/logger"
)

func Set() *cobra.Command {
	cmd := NewCommand(
		&cobra.Command{
			Use:   "set [flags]",
			Short: "Set the activation state with a custom message",
			Long: `Overwrite the authority's activation state.

Example:
  actd set --active=false --message="maintenance window" --api-key=<admin key>
`,
		}, adminFlags, runSet,
	)
	cmd.Flags().Bool("active", true, "desired activation state")
	cmd.Flags().StringP("message", "m", "", "status message shown to instances")
	return cmd
}

func runSet(ctx *Context, _ []string) error {
	client, apiKey, err := adminClient(ctx)
	if err != nil {
		return err
	}

	active, err := ctx.Command.Flags().GetBool("active")
	if err != nil {
		return fmt.Errorf("failed to get active flag: %w", err)
	}
	message, err := ctx.Command.Flags().GetString("message")
	if err != nil {
		return fmt.Errorf("failed to get message flag: %w", err)
	}

	resp, err := client.SetActivation(ctx, apiKey, active, message)
	if err != nil {
		return fmt.Errorf("failed to set activation state: %w", err)
	}

	logger.Info(ctx, "Activation state updated",
		"active", resp.Status.Active, "message", resp.Status.Message)
	fmt.Printf("success: %t\nactive:  %t\nmessage: %s\n", resp.Success, resp.Status.Active, resp.Status.Message)
	return nil
}
