// Package cmd defines the CLI commands for launchpad.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/launchpad/internal/config"
	"github.com/donaldgifford/launchpad/internal/launcher"
)

var (
	verbose  bool
	noColor  bool
	cfgFile  string
	serverID string
	timeout  time.Duration
)

// rootCmd is the base command for the launchpad CLI.
var rootCmd = &cobra.Command{
	Use:   "launchpad",
	Short: "Fetch and launch context servers from GitHub releases",
	Long: `Launchpad resolves the latest stable release of a context server, downloads
the archive built for this machine into a version-keyed cache, and prints or runs
the resulting command. Older cached versions are evicted on every resolve.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		initLogger()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/launchpad/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&serverID, "server", "s", "", "server id (default is the configured default server)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "timeout for resolving and downloading")
}

func initLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded config", "path", path, "servers", len(cfg.Servers))

	return cfg, nil
}

// resolveCommand loads the config and runs the launcher pipeline for the selected server.
func resolveCommand(ctx context.Context) (launcher.Command, error) {
	cfg, err := loadConfig()
	if err != nil {
		return launcher.Command{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reg := launcher.NewRegistry(cfg, slog.Default(), "launchpad/"+buildVersion)

	cmd, err := reg.ResolveCommand(ctx, serverID, launcher.Project{})
	if err != nil {
		return launcher.Command{}, fmt.Errorf("resolving command: %w", err)
	}

	return cmd, nil
}
