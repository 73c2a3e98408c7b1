package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type commandLineFlag struct {
	name, shorthand, defaultValue, usage string
	required                             bool
}

var (
	configFlag = commandLineFlag{
		name:      "config",
		shorthand: "c",
		usage:     "config file (default is $ACTD_HOME/config.yaml)",
	}
	hostFlag = commandLineFlag{
		name:      "host",
		shorthand: "s",
		usage:     "authority host",
	}
	portFlag = commandLineFlag{
		name:      "port",
		shorthand: "p",
		usage:     "authority port",
	}
	authorityFlag = commandLineFlag{
		name:      "authority",
		shorthand: "a",
		usage:     "authority base URL",
	}
	apiKeyFlag = commandLineFlag{
		name:      "api-key",
		shorthand: "k",
		usage:     "admin API key for mutation endpoints",
	}
)

func initFlags(cmd *cobra.Command, flags []commandLineFlag) {
	flags = append(flags, configFlag)
	for _, flag := range flags {
		cmd.Flags().StringP(flag.name, flag.shorthand, flag.defaultValue, flag.usage)
		if flag.required {
			if err := cmd.MarkFlagRequired(flag.name); err != nil {
				fmt.Printf("failed to mark flag %s as required: %v\n", flag.name, err)
			}
		}
	}
	cmd.Flags().BoolP("quiet", "q", false, "suppress log output")
}

func bindFlags(cmd *cobra.Command, flags ...commandLineFlag) {
	flags = append(flags, configFlag)
	for _, flag := range flags {
		_ = viper.BindPFlag(flag.name, cmd.Flags().Lookup(flag.name))
	}
}
