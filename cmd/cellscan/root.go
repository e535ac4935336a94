package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"cellscan/internal/config"
	applog "cellscan/internal/log"
	"cellscan/internal/predict"
	"cellscan/internal/tui"
)

// NewRootCmd creates the root command. Without a subcommand it starts the
// interactive UI; positional arguments prefill the path field.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cellscan [paths...]",
		Short: "Detect malaria parasites in blood cell images",
		Long: `cellscan sends blood cell images to a malaria classification service and
shows, for every image, whether the cell is Parasitized or Uninfected, how
confident the model is, and a summary chart.

Paths may be files, directories or glob patterns.

Examples:
  # Start the interactive UI
  cellscan

  # Start it with a folder already selected
  cellscan ./cells

  # Talk to a service on another host
  cellscan --server http://lab-gpu:5000`,
		Version:       getVersion(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootCmd,
	}

	pf := cmd.PersistentFlags()
	pf.StringP("server", "s", config.DefaultServerURL, "Base URL of the prediction service")
	pf.DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each request (0 disables it)")
	pf.StringP("config", "c", "", "Configuration file (default: $XDG_CONFIG_HOME/cellscan/config.yaml)")
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.IntP("max-depth", "m", config.DefaultMaxDepth, "Max depth for directory walk (-1 for unlimited)")
	pf.StringSliceP("exclude", "x", nil, "Glob pattern to exclude (can repeat). Matches full path or basename.")
	pf.BoolP("follow-symlinks", "L", false, "Follow symlinked directories")

	cmd.AddCommand(NewPredictCmd())
	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRootCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("starting", "server", cfg.ServerURL, "version", getVersion())
	if err := tui.Run(tui.Options{Config: cfg, Backend: client, Logger: logger, Inputs: args}); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// buildConfig layers defaults, the config file and explicitly set flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigFile()
	}
	if err := config.LoadFile(cfg, path); err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) || explicit {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if flags.Changed("server") {
		if cfg.ServerURL, err = flags.GetString("server"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("verbose") {
		if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-depth") {
		if cfg.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("exclude") {
		if cfg.Excludes, err = flags.GetStringSlice("exclude"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("follow-symlinks") {
		if cfg.FollowSymlink, err = flags.GetBool("follow-symlinks"); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// setupLogger opens the log file. The UI owns the terminal, so every command
// logs to the file rather than stderr.
func setupLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return applog.NewLogger(io.Discard, cfg.Verbose), func() {}, nil
	}
	f, err := applog.OpenFile(cfg.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return applog.NewLogger(f, cfg.Verbose), func() { _ = f.Close() }, nil
}

func newClient(cfg *config.Config, logger *slog.Logger) (*predict.Client, error) {
	client, err := predict.NewClient(cfg.ServerURL, predict.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return client, nil
}
