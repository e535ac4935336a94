package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cellscan/internal/export"
	"cellscan/pkg/utils"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Save the service's results CSV",
		Long: `Download fetches the CSV of past predictions kept by the service and saves it
as results.csv in the output directory. An existing file is never
overwritten; a numbered name is picked instead.`,
		Args: cobra.NoArgs,
		RunE: runDownloadCmd,
	}
	cmd.Flags().StringP("output", "o", "", "Directory to save into (default: ~/Downloads/cellscan)")
	return cmd
}

func runDownloadCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	dir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.DownloadDir
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	path, n, err := export.Save(dir, export.DownloadName, func(w io.Writer) (int64, error) {
		return client.Download(ctx, w)
	})
	if err != nil {
		logger.Error("download failed", "err", err)
		return fmt.Errorf("download failed: %w", err)
	}
	logger.Info("download saved", "path", path, "bytes", n)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", path, utils.HumanizeBytes(n))
	return nil
}
