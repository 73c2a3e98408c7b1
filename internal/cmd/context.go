package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clinidoc/actd/internal/config"
	"github.com/clinidoc/actd/internal/logger"
)

// Context holds the loaded configuration for a command invocation. It
// embeds the command's context with the logger attached.
type Context struct {
	context.Context

	Command *cobra.Command
	Config  *config.Config
	Quiet   bool
}

// NewContext loads configuration, sets up the logger context, and logs any
// warnings collected during loading.
func NewContext(cmd *cobra.Command, flags []commandLineFlag) (*Context, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bindFlags(cmd, flags...)

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	var configLoaderOpts []config.ConfigLoaderOption
	if cfgPath := viper.GetString("config"); cfgPath != "" {
		configLoaderOpts = append(configLoaderOpts, config.WithConfigFile(cfgPath))
	}

	cfg, err := config.Load(configLoaderOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var opts []logger.Option
	if cfg.Core.Debug || os.Getenv("DEBUG") != "" {
		opts = append(opts, logger.WithDebug())
	}
	if quiet || cfg.Core.Quiet {
		opts = append(opts, logger.WithQuiet())
	}
	if cfg.Core.LogFormat != "" {
		opts = append(opts, logger.WithFormat(cfg.Core.LogFormat))
	}
	ctx = logger.WithLogger(ctx, logger.NewLogger(opts...))

	for _, w := range cfg.Warnings {
		logger.Warn(ctx, w)
	}

	return &Context{
		Context: ctx,
		Command: cmd,
		Config:  cfg,
		Quiet:   quiet,
	}, nil
}
