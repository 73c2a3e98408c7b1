package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinidoc/actd/internal/logger"
)

func Deactivate() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "deactivate [flags]",
			Short: "Deactivate the application globally",
			Long: `Tell the authority to deactivate all application instances.

Requires an admin API key. Running instances detect the change on their
next reconciliation and terminate their interactive session cooperatively;
local data is untouched.

Example:
  actd deactivate --api-key=<admin key>
`,
		}, adminFlags, runDeactivate,
	)
}

func runDeactivate(ctx *Context, _ []string) error {
	client, apiKey, err := adminClient(ctx)
	if err != nil {
		return err
	}

	resp, err := client.Deactivate(ctx, apiKey)
	if err != nil {
		return fmt.Errorf("deactivation failed: %w", err)
	}

	logger.Info(ctx, "Application deactivated",
		"active", resp.Status.Active, "message", resp.Status.Message)
	fmt.Printf("success: %t\nactive:  %t\nmessage: %s\n", resp.Success, resp.Status.Active, resp.Status.Message)
	return nil
}
