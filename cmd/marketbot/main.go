// Command marketbot runs the Telegram marketplace bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/m3rciful/marketbot/core/buildinfo"
	corecmd "github.com/m3rciful/marketbot/core/cmd"
	"github.com/m3rciful/marketbot/core/logger"
	"github.com/m3rciful/marketbot/market/app"
	marketconfig "github.com/m3rciful/marketbot/market/config"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "marketbot",
		Short:        "Telegram marketplace bot for sellers and buyers",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadDotEnv(".env")
		},
		RunE: func(*cobra.Command, []string) error {
			return runBot(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $CONFIG_PATH or "+defaultConfigPath+")")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Serve Telegram updates (default)",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return runBot(configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return migrate(configPath)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "marketbot "+buildinfo.String())
			},
		},
	)
	return root
}

// loadDotEnv reads KEY=VALUE pairs from path into the environment.
// Variables already set win; a missing file is ignored. The logger is not
// configured yet, so a malformed file is reported through cobra.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func runnerOptions(configPath string) corecmd.Options {
	return corecmd.Options{
		ConfigPath:        configPath,
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := marketconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			mc, ok := cfg.(*marketconfig.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", cfg)
			}
			return app.Bootstrap(ctx, mc)
		},
	}
}

func runBot(configPath string) error {
	return corecmd.Run(runnerOptions(configPath))
}

func migrate(configPath string) error {
	path, err := corecmd.ResolveConfigPath(runnerOptions(configPath))
	if err != nil {
		return err
	}
	cfg, err := marketconfig.Load(path)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Shutdown() }()
	return app.Migrate(cfg)
}
