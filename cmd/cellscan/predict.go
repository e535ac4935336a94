package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cellscan/internal/config"
	"cellscan/internal/export"
	"cellscan/internal/predict"
	"cellscan/internal/report"
	"cellscan/internal/scanner"
)

// NewPredictCmd creates the predict command.
func NewPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict [paths...]",
		Short: "Classify images without the interactive UI",
		Long: `Predict uploads every image found under the given paths in one request and
prints the classification of each cell.

Examples:
  # Classify a folder and print a table
  cellscan predict ./cells

  # Machine readable output
  cellscan predict --json 'cells/*.png'

  # Markdown report with a summary pie chart, plus a CSV copy
  cellscan predict --markdown --csv results.csv ./cells > report.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPredictCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().Bool("markdown", false, "Output Markdown (mutually exclusive with --json)")
	cmd.Flags().String("csv", "", "Also write results as CSV to this file")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

func runPredictCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	mdOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	csvPath, err := cmd.Flags().GetString("csv")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	imgs, scanErr := scanner.CollectImages(ctx, args, scanOptions(cfg))
	if scanErr != nil {
		// still classify what was found, but exit non-zero
		fmt.Fprintf(cmd.ErrOrStderr(), "selection completed with errors: %v\n", scanErr)
		logger.Warn("selection incomplete", "err", scanErr)
	}
	if len(imgs) == 0 {
		return predict.ErrNoFiles
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	started := time.Now()
	results, err := client.Predict(ctx, scanner.Paths(imgs))
	if err != nil {
		logger.Error("prediction failed", "err", err)
		return fmt.Errorf("prediction failed: %w", err)
	}
	run := report.NewRun(cfg.ServerURL, started, results)
	logger.Info("prediction done", "images", len(imgs),
		"parasitized", run.Counts.Parasitized, "uninfected", run.Counts.Uninfected)

	if err := writeReport(cmd.OutOrStdout(), run, cfg, jsonOut, mdOut); err != nil {
		return err
	}
	if csvPath != "" {
		if err := writeCSVFile(csvPath, results); err != nil {
			return err
		}
	}
	if len(results) == 0 {
		return errors.New("no images were processed")
	}
	return scanErr
}

func writeReport(w io.Writer, run *report.Run, cfg *config.Config, jsonOut, mdOut bool) error {
	switch {
	case jsonOut:
		return report.WriteJSON(w, run)
	case mdOut:
		return report.WriteMarkdown(w, run)
	default:
		return report.WriteText(w, run, cfg.MaxFilenameLength)
	}
}

func writeCSVFile(path string, results []predict.Result) error {
	f, err := os.Create(path) //nolint:gosec // user supplied output path
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := export.WriteCSV(f, results); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

func scanOptions(cfg *config.Config) scanner.Options {
	return scanner.Options{
		MaxDepth:      cfg.MaxDepth,
		FollowSymlink: cfg.FollowSymlink,
		Excludes:      cfg.Excludes,
	}
}
