package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/deps"
	"mediasort/internal/logging"
	"mediasort/internal/placement"
)

const inspectTimeLayout = "2006-01-02 15:04:05"

type inspectReport struct {
	Path          string `json:"path"`
	Category      string `json:"category"`
	Size          int64  `json:"size"`
	Resolved      string `json:"resolved"`
	DateSource    string `json:"date_source"`
	DateField     string `json:"date_field,omitempty"`
	Suspect       bool   `json:"suspect"`
	Rejected      string `json:"rejected,omitempty"`
	Subseconds    string `json:"subseconds,omitempty"`
	NeedsCleaning bool   `json:"subseconds_need_cleaning"`
	Extension     string `json:"extension"`
	ErrorTier     bool   `json:"error_tier"`
	Destination   string `json:"destination"`
	MetadataTags  int    `json:"metadata_tags"`
	MetadataError string `json:"metadata_error,omitempty"`
	Error         string `json:"error,omitempty"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var dest string
	var sweepMode bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Show how files would be dated and named without touching them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := strings.TrimSpace(dest)
			if root == "" {
				root = cfg.Paths.DestinationDir
			}
			if root == "" {
				root = "<destination>"
			} else if root, err = config.ExpandPath(root); err != nil {
				return fmt.Errorf("--dest: %w", err)
			}

			logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Writer: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			exiftoolPath, err := deps.ResolveExiftool(cfg.Exiftool.Binary, cfg.Exiftool.SearchPaths)
			if err != nil {
				if !cfg.Exiftool.NativeFallback {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "exiftool not found; using native EXIF decoding only")
			}

			fs := afero.NewOsFs()
			executor := newExecutor(cfg, fs, root, newMetadataReader(cfg, fs, exiftoolPath), nil, nil, logger)

			reports := make([]inspectReport, 0, len(args))
			for _, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					path = arg
				}
				plan, err := executor.Plan(cmd.Context(), path, sweepMode)
				reports = append(reports, newInspectReport(path, plan, err))
			}

			if jsonOutput {
				return writeJSON(cmd, reports)
			}
			out := cmd.OutOrStdout()
			for i, report := range reports {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, renderKeyValues(report.Path, inspectPairs(report)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "Library root used to compute destinations")
	cmd.Flags().BoolVar(&sweepMode, "sweep", false, "Plan as the sweep pass would (Error tier)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newInspectReport(path string, plan placement.Plan, err error) inspectReport {
	if err != nil {
		return inspectReport{Path: path, Error: err.Error()}
	}
	report := inspectReport{
		Path:          path,
		Category:      string(plan.File.Category),
		Size:          plan.File.Size,
		Resolved:      plan.Resolution.Time.Format(inspectTimeLayout),
		DateSource:    string(plan.Resolution.Source),
		DateField:     plan.Resolution.Field,
		Suspect:       plan.Resolution.Suspect,
		Subseconds:    plan.Subseconds.Value,
		NeedsCleaning: plan.Subseconds.NeedsCleaning,
		Extension:     plan.Extension,
		ErrorTier:     plan.ErrorTier,
		Destination:   plan.Proposed,
		MetadataTags:  plan.File.Metadata.Len(),
	}
	if rejected := plan.Resolution.Rejected; !rejected.IsZero() {
		report.Rejected = rejected.Format(inspectTimeLayout)
	}
	if plan.MetadataErr != nil {
		report.MetadataError = plan.MetadataErr.Error()
	}
	return report
}

func inspectPairs(r inspectReport) [][2]string {
	if r.Error != "" {
		return [][2]string{{"Error", r.Error}}
	}
	source := r.DateSource
	if r.DateField != "" {
		source += " (" + r.DateField + ")"
	}
	subsec := r.Subseconds
	if subsec == "" {
		subsec = "-"
	}
	if r.NeedsCleaning {
		subsec += " (corrupt tags will be cleared)"
	}
	pairs := [][2]string{
		{"Category", r.Category},
		{"Size", fmt.Sprintf("%d bytes", r.Size)},
		{"Resolved", r.Resolved},
		{"Date source", source},
		{"Suspect", yesNo(r.Suspect)},
	}
	if r.Rejected != "" {
		pairs = append(pairs, [2]string{"Rejected candidate", r.Rejected})
	}
	pairs = append(pairs,
		[2]string{"Subseconds", subsec},
		[2]string{"Metadata tags", fmt.Sprintf("%d", r.MetadataTags)},
		[2]string{"Error tier", yesNo(r.ErrorTier)},
		[2]string{"Destination", r.Destination},
	)
	if r.MetadataError != "" {
		pairs = append(pairs, [2]string{"Metadata error", r.MetadataError})
	}
	return pairs
}
