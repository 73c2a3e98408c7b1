package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinidoc/actd/internal/logger"
	"github.com/clinidoc/actd/internal/reconciler"
)

func Activate() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "activate [flags]",
			Short: "Activate the application globally",
			Long: `Tell the authority to activate all application instances.

Requires an admin API key. Instances pick up the change on their next
reconciliation, within one TTL interval.

Example:
  actd activate --api-key=<admin key>
`,
		}, adminFlags, runActivate,
	)
}

var adminFlags = []commandLineFlag{authorityFlag, apiKeyFlag}

func runActivate(ctx *Context, _ []string) error {
	client, apiKey, err := adminClient(ctx)
	if err != nil {
		return err
	}

	resp, err := client.Activate(ctx, apiKey)
	if err != nil {
		return fmt.Errorf("activation failed: %w", err)
	}

	logger.Info(ctx, "Application activated",
		"active", resp.Status.Active, "message", resp.Status.Message)
	fmt.Printf("success: %t\nactive:  %t\nmessage: %s\n", resp.Success, resp.Status.Active, resp.Status.Message)
	return nil
}

// adminClient builds the authority client and resolves the admin API key
// from the flag. Mutations never fall back to the member default key.
func adminClient(ctx *Context) (*reconciler.Client, string, error) {
	apiKey := stringFlag(ctx, "api-key", "")
	if apiKey == "" {
		return nil, "", fmt.Errorf("an admin API key is required (--api-key)")
	}
	baseURL := stringFlag(ctx, "authority", ctx.Config.Client.AuthorityURL)
	return reconciler.NewClient(baseURL, ctx.Config.Client.RequestTimeout), apiKey, nil
}
