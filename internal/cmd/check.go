package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinidoc/actd/internal/reconciler"
	"github.com/clinidoc/actd/internal/settings"
)

func Check() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "check [flags]",
			Short: "Run a client-side activation check",
			Long: `Run one reconciliation cycle the way an application instance would and
print the combined diagnostics: local durable state, cached state, and the
authority's answer when reachable.

The command exits non-zero when the instance is not permitted to run.
`,
		}, checkFlags, runCheck,
	)
}

var checkFlags = []commandLineFlag{authorityFlag}

func runCheck(ctx *Context, _ []string) error {
	store, err := settings.Open(ctx, ctx.Config.Paths.DataFile)
	if err != nil {
		return fmt.Errorf("failed to open settings store: %w", err)
	}
	defer func() { _ = store.Close() }()

	baseURL := stringFlag(ctx, "authority", ctx.Config.Client.AuthorityURL)
	client := reconciler.NewClient(baseURL, ctx.Config.Client.RequestTimeout)
	rec := reconciler.New(client, store, reconciler.WithTTL(ctx.Config.Client.TTL))

	active := rec.IsActive(ctx)

	probeCtx, cancel := context.WithTimeout(ctx, ctx.Config.Client.ProbeTimeout)
	defer cancel()
	diag := rec.Diagnostics(probeCtx)

	out, err := json.MarshalIndent(diag, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render diagnostics: %w", err)
	}
	fmt.Println(string(out))

	if !active {
		return fmt.Errorf("instance is deactivated")
	}
	return nil
}
