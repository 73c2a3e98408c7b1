package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/clinidoc/actd/internal/auth"
	"github.com/clinidoc/actd/internal/authority"
	"github.com/clinidoc/actd/internal/logger"
	"github.com/clinidoc/actd/internal/settings"
)

func Server() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "server [flags]",
			Short: "Run the activation authority",
			Long: `Run the HTTP service holding the canonical activation decision.

Application instances poll it to decide whether they are permitted to
operate; admin tooling mutates it through the /admin endpoints.

Example:
  actd server --host=0.0.0.0 --port=5000
`,
		}, serverFlags, runServer,
	)
}

var serverFlags = []commandLineFlag{hostFlag, portFlag}

func runServer(ctx *Context, _ []string) error {
	host := stringFlag(ctx, "host", ctx.Config.Server.Host)
	port := ctx.Config.Server.Port
	if raw := stringFlag(ctx, "port", ""); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", raw, err)
		}
		port = parsed
	}

	logger.Info(ctx, "Authority initialization", "host", host, "port", port)

	store, err := settings.Open(ctx, ctx.Config.Paths.DataFile)
	if err != nil {
		return fmt.Errorf("failed to open settings store: %w", err)
	}
	defer func() { _ = store.Close() }()

	tokens := auth.NewTokenSet(ctx.Config.Auth.MemberKeys, ctx.Config.Auth.AdminKeys)
	server := authority.New(authority.Config{
		Host:      host,
		Port:      port,
		LogFormat: ctx.Config.Core.LogFormat,
	}, tokens, authority.WithSettingsStore(store))

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("failed to start authority: %w", err)
	}
	return nil
}
