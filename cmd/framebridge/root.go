package main

import (
	"github.com/spf13/cobra"

	"github.com/framebridge/framebridge/internal/config"
	"github.com/framebridge/framebridge/internal/logging"
)

var logger = logging.NewLogger("framebridge/cli")

type rootOptions struct {
	configPath string
	logLevel   string

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "framebridge",
		Short:         "Convert video frames to I420",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Read(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = opts.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := logging.SetLevel(cfg.LogLevel); err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (disabled, error, warn, info, debug, trace)")

	cmd.AddCommand(newConvertCmd(opts), newInspectCmd(opts))
	return cmd
}
