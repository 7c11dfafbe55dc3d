package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/logging"
	"mediasort/internal/preflight"
	"mediasort/internal/resources"
	"mediasort/internal/scan"
	"mediasort/internal/tagreport"
)

func newTagsCommand(ctx *commandContext) *cobra.Command {
	var source string
	var output string
	var format string

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Report every metadata tag found under a directory",
		Long: "Tags reads the metadata of every file below the source directory and lists " +
			"the distinct tag names per metadata group. The format follows the output " +
			"file extension unless --format is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := strings.TrimSpace(source)
			if root == "" {
				root = cfg.Paths.SourceDir
			}
			if root == "" {
				return fmt.Errorf("--source is required when paths.source_dir is not configured")
			}
			if root, err = config.ExpandPath(root); err != nil {
				return fmt.Errorf("--source: %w", err)
			}
			if dir := preflight.CheckDirectoryMode("Source directory", root, preflight.AccessRead); !dir.Passed {
				return dir.Err
			}
			reportFormat := strings.TrimSpace(format)
			if reportFormat == "" {
				reportFormat = tagreport.FormatFor(output)
			}
			if reportFormat != tagreport.FormatText && reportFormat != tagreport.FormatCSV {
				return fmt.Errorf("--format: unknown value %q (want text or csv)", format)
			}

			stderr := cmd.ErrOrStderr()
			logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Writer: stderr})
			if err != nil {
				return err
			}
			exif, exiftoolPath := preflight.CheckExiftool(cmd.Context(), cfg.Exiftool.Binary, cfg.Exiftool.SearchPaths, cfg.ExiftoolTimeout())
			if !exif.Passed {
				return exif.Err
			}

			fs := afero.NewOsFs()
			scanned, err := scan.Walk(cmd.Context(), fs, root, scan.Options{IncludeUnknown: true, Logger: logger})
			if err != nil {
				return fmt.Errorf("scan %s: %w", root, err)
			}
			if len(scanned.Files) == 0 {
				fmt.Fprintln(stderr, "No files found.")
				return nil
			}

			plan := resources.NewPlan(cmd.Context(), resources.HostProbe{}, resources.Overrides{MaxWorkers: cfg.Workers.MaxWorkers})
			opts := tagreport.Options{Workers: plan.Workers, Logger: logger}
			if isTerminal(stderr) {
				bar := progressbar.NewOptions(len(scanned.Files),
					progressbar.OptionSetWriter(stderr),
					progressbar.OptionSetDescription("Reading tags"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetItsString("files"),
					progressbar.OptionClearOnFinish(),
					progressbar.OptionThrottle(100*time.Millisecond),
				)
				opts.OnFile = func() { _ = bar.Add(1) }
			}

			report, err := tagreport.Collect(cmd.Context(), newMetadataReader(cfg, fs, exiftoolPath), scanned.Files, opts)
			if err != nil {
				return err
			}

			if err := writeTagReport(cmd.OutOrStdout(), output, report, reportFormat); err != nil {
				return err
			}
			fmt.Fprintf(stderr, "Processed %d files in %s: %d groups, %d unique tags\n",
				report.Files, report.Elapsed.Round(10*time.Millisecond), len(report.Groups), report.TagCount())
			if output != "" {
				fmt.Fprintf(stderr, "Report saved to: %s\n", output)
			}
			if n := len(report.Failures); n > 0 {
				fmt.Fprintf(stderr, "Files without readable metadata: %d\n", n)
				for i, failure := range report.Failures {
					if i == 5 {
						fmt.Fprintf(stderr, "  - ...and %d more\n", n-5)
						break
					}
					fmt.Fprintf(stderr, "  - %s: %s\n", filepath.Base(failure.Path), failure.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Directory to inventory (defaults to paths.source_dir)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().StringVar(&format, "format", "", "Report format: text or csv")
	return cmd
}

func writeTagReport(stdout io.Writer, output string, report tagreport.Report, format string) error {
	if output == "" {
		return tagreport.Write(stdout, report, format)
	}
	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := tagreport.Write(file, report, format); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
