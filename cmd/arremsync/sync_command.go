package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"arremsync/internal/logging"
	"arremsync/internal/preflight"
	"arremsync/internal/runlock"
	"arremsync/internal/services"
	"arremsync/internal/tagsync"
)

const maxListedErrors = 10

var errSyncFailed = errors.New("sync finished with failures")

type syncOptions struct {
	dryRun    bool
	noDryRun  bool
	batchSize int
	json      bool
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy Arr tags onto matching Emby items",
		Long: "Probe Emby and every configured Arr instance, then add each Arr item's tags\n" +
			"to the matching Emby item. Tags are only ever added, never removed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, ctx, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report changes without writing to Emby")
	cmd.Flags().BoolVar(&opts.noDryRun, "no-dry-run", false, "Write tags to Emby")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Items per batch (default from config)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output the report as JSON")
	return cmd
}

func runSync(cmd *cobra.Command, ctx *commandContext, opts syncOptions) error {
	if opts.dryRun && opts.noDryRun {
		return errors.New("--dry-run and --no-dry-run cannot be used together")
	}
	if opts.batchSize < 0 {
		return fmt.Errorf("--batch-size must be positive, got %d", opts.batchSize)
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	dryRun := cfg.Sync.DryRun
	switch {
	case opts.dryRun:
		dryRun = true
	case opts.noDryRun:
		dryRun = false
	}
	batchSize := opts.batchSize
	if batchSize == 0 {
		batchSize = cfg.Sync.BatchSize
	}

	if failed, ok := preflight.FirstFailure(preflight.RunAll(cfg)); ok {
		return fmt.Errorf("preflight %s: %s", failed.Name, failed.Detail)
	}

	lock, err := runlock.Acquire(cfg.Sync.LockPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runID := uuid.NewString()
	runCtx = services.WithRunID(runCtx, runID)

	coordinator, err := buildCoordinator(cfg, logger, dryRun)
	if err != nil {
		return err
	}

	logging.WithContext(runCtx, logger).Info("sync starting",
		logging.Bool("dry_run", dryRun),
		logging.Int("batch_size", batchSize),
		logging.Int("instances", len(cfg.Arr)),
	)
	report, err := coordinator.SyncAll(runCtx, batchSize)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("sync: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.json {
		if err := writeJSON(cmd, syncOutput{RunID: runID, Report: report}); err != nil {
			return err
		}
	} else {
		printReport(out, runID, report)
	}

	if err := runCtx.Err(); err != nil {
		return err
	}
	if report.Failed() {
		return errSyncFailed
	}
	return nil
}

type syncOutput struct {
	RunID string `json:"run_id"`
	*tagsync.Report
}

func printReport(out io.Writer, runID string, report *tagsync.Report) {
	mode := "live"
	if report.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(out, "Sync run %s (%s)\n\n", runID, mode)

	headers := []string{"#", "Instance", "Type", "Processed", "Updated", "Up to date", "No tags", "Not in Emby", "Failed", "Status"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(report.Instances))
	for _, inst := range report.Instances {
		status := "ok"
		if inst.Error != "" {
			status = "error"
		}
		row := []string{strconv.Itoa(inst.Number), inst.Name, inst.ArrType}
		if inst.Stats != nil {
			row = append(row, statCells(*inst.Stats)...)
		} else {
			row = append(row, "-", "-", "-", "-", "-", "-")
		}
		rows = append(rows, append(row, status))
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))

	totals := report.Totals
	summary := [][]string{
		{"Instances", strconv.Itoa(report.TotalInstances)},
		{"Failed instances", strconv.Itoa(report.FailedInstances)},
		{"Total items", strconv.Itoa(totals.TotalItems)},
		{"Processed", strconv.Itoa(totals.ProcessedItems)},
		{"Updated", strconv.Itoa(totals.SuccessfulSyncs)},
		{"Already synced", strconv.Itoa(totals.AlreadySynced)},
		{"No tags to sync", strconv.Itoa(totals.NoTagsToSync)},
		{"Not in Emby", strconv.Itoa(totals.NotInMediaServer)},
		{"Failed syncs", strconv.Itoa(totals.FailedSyncs)},
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"Overall", "Count"}, summary, []columnAlignment{alignLeft, alignRight}))

	printErrors(out, totals.Errors)
}

func statCells(s tagsync.Stats) []string {
	return []string{
		strconv.Itoa(s.ProcessedItems),
		strconv.Itoa(s.SuccessfulSyncs),
		strconv.Itoa(s.AlreadySynced),
		strconv.Itoa(s.NoTagsToSync),
		strconv.Itoa(s.NotInMediaServer),
		strconv.Itoa(s.FailedSyncs),
	}
}

func printErrors(out io.Writer, errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(out, "\nErrors (%d):\n", len(errs))
	for i, msg := range errs {
		if i == maxListedErrors {
			fmt.Fprintf(out, "  ... and %d more errors\n", len(errs)-maxListedErrors)
			break
		}
		fmt.Fprintf(out, "  - %s\n", msg)
	}
}
