package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mediasort/internal/ledger"
	"mediasort/internal/preflight"
	"mediasort/internal/resources"
	"mediasort/internal/services"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check dependencies, directories and the resource plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			if ctx.configPath != "" {
				lines = append(lines, renderStatusLine("Config file", statusInfo, ctx.configPath, colorize))
			}
			lines = append(lines,
				renderStatusLine("Placement mode", statusInfo, cfg.Placement.Mode, colorize),
				renderStatusLine("Month folders", statusInfo, yesNo(cfg.Layout.MonthFolders), colorize),
				renderStatusLine("Sweep pass", statusInfo, yesNo(cfg.Sweep.Enabled), colorize),
				"",
			)

			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			exif, _ := preflight.CheckExiftool(cmd.Context(), cfg.Exiftool.Binary, cfg.Exiftool.SearchPaths, cfg.ExiftoolTimeout())
			lines = append(lines, preflightStatus(exif, colorize))
			fallbackDetail := "enabled for JPEG/TIFF"
			if !cfg.Exiftool.NativeFallback {
				fallbackDetail = "disabled"
			}
			lines = append(lines, renderStatusLine("Native EXIF fallback", statusInfo, fallbackDetail, colorize), "")

			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			dirs := []struct {
				name string
				path string
				mode uint32
			}{
				{"Source directory", cfg.Paths.SourceDir, preflight.AccessRead},
				{"Destination directory", cfg.Paths.DestinationDir, preflight.AccessReadWrite},
				{"State directory", cfg.Paths.StateDir, preflight.AccessReadWrite},
			}
			for _, dir := range dirs {
				if strings.TrimSpace(dir.path) == "" {
					lines = append(lines, renderStatusLine(dir.name, statusWarn, "not configured (pass --source/--dest)", colorize))
					continue
				}
				lines = append(lines, preflightStatus(preflight.CheckDirectoryMode(dir.name, dir.path, dir.mode), colorize))
			}
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Resources", colorize)...)
			plan := resources.NewPlan(cmd.Context(), resources.HostProbe{}, resources.Overrides{
				MaxWorkers:     cfg.Workers.MaxWorkers,
				FilesPerWorker: cfg.Workers.FilesPerWorker,
			})
			memory := fmt.Sprintf("%.1f GiB", float64(plan.MemoryBytes)/(1<<30))
			memoryKind := statusInfo
			if !plan.MemoryKnown {
				memory += " (assumed; probe failed)"
				memoryKind = statusWarn
			}
			lines = append(lines,
				renderStatusLine("Physical cores", statusInfo, fmt.Sprintf("%d", plan.Cores), colorize),
				renderStatusLine("Memory", memoryKind, memory, colorize),
				renderStatusLine("Workers", statusInfo, fmt.Sprintf("%d (files per worker %d, batch multiplier x%d)",
					plan.Workers, plan.FilesPerWorker, plan.Multiplier), colorize),
				"",
			)

			lines = append(lines, renderSectionHeader("Ledger", colorize)...)
			lines = append(lines, ledgerStatus(cmd, cfg.LedgerPath(), colorize))

			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func ledgerStatus(cmd *cobra.Command, path string, colorize bool) string {
	if _, err := os.Stat(path); err != nil {
		return renderStatusLine("Last run", statusInfo, "no runs recorded yet", colorize)
	}
	store, err := ledger.OpenPath(path)
	if err != nil {
		return renderStatusLine("Last run", statusError, err.Error(), colorize)
	}
	defer store.Close()

	run, err := store.LastRun(cmd.Context())
	if errors.Is(err, services.ErrNotFound) {
		return renderStatusLine("Last run", statusInfo, "no runs recorded yet", colorize)
	}
	if err != nil {
		return renderStatusLine("Last run", statusError, err.Error(), colorize)
	}
	kind := statusOK
	if !run.Finished() || run.Failed > 0 || run.Cancelled {
		kind = statusWarn
	}
	return renderStatusLine("Last run", kind, fmt.Sprintf("%s %s at %s: %s",
		shortID(run.ID), run.Command, run.StartedAt.Local().Format("2006-01-02 15:04"), runState(run)), colorize)
}

func runState(run ledger.Run) string {
	switch {
	case !run.Finished():
		return "unfinished"
	case run.Cancelled:
		return fmt.Sprintf("cancelled after %d of %d files", run.Succeeded+run.Failed+run.Skipped, run.Total)
	default:
		return fmt.Sprintf("%d placed, %d failed, %d skipped", run.Succeeded, run.Failed, run.Skipped)
	}
}
