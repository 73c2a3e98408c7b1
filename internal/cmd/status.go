package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinidoc/actd/internal/logger"
	"github.com/clinidoc/actd/internal/reconciler"
)

func Status() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "status [flags]",
			Short: "Probe the activation authority",
			Long: `Probe the authority's health endpoint and print its service metadata.

A failing probe distinguishes "service down" from "credential invalid":
the health endpoint requires no credential at all.
`,
		}, statusFlags, runStatus,
	)
}

var statusFlags = []commandLineFlag{authorityFlag}

func runStatus(ctx *Context, _ []string) error {
	baseURL := stringFlag(ctx, "authority", ctx.Config.Client.AuthorityURL)
	client := reconciler.NewClient(baseURL, ctx.Config.Client.ProbeTimeout)

	probeCtx, cancel := context.WithTimeout(ctx, ctx.Config.Client.ProbeTimeout)
	defer cancel()

	health, err := client.Health(probeCtx)
	if err != nil {
		return fmt.Errorf("authority is unreachable: %w", err)
	}
	logger.Info(ctx, "Authority is reachable", "status", health.Status)

	info, err := client.Info(probeCtx)
	if err != nil {
		return fmt.Errorf("failed to fetch service info: %w", err)
	}

	fmt.Printf("service: %s\nstatus:  %s\nversion: %s\n", info.Service, info.Status, info.Version)
	return nil
}
