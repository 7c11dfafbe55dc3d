package main

import (
	"log/slog"

	"github.com/spf13/afero"

	"mediasort/internal/config"
	"mediasort/internal/dating"
	"mediasort/internal/media/category"
	"mediasort/internal/media/exifnative"
	"mediasort/internal/media/exiftool"
	"mediasort/internal/metadata"
	"mediasort/internal/naming"
	"mediasort/internal/placement"
)

// newMetadataReader reads through exiftool and, when enabled, falls back to
// native EXIF decoding. An empty exiftoolPath leaves only the native reader.
func newMetadataReader(cfg *config.Config, fs afero.Fs, exiftoolPath string) metadata.Reader {
	var chain metadata.Chain
	if exiftoolPath != "" {
		chain = append(chain, exiftool.New(exiftoolPath, cfg.ExiftoolTimeout()))
	}
	if cfg.Exiftool.NativeFallback {
		chain = append(chain, exifnative.New(fs))
	}
	return chain
}

func newLayout(cfg *config.Config, root string) naming.Layout {
	return naming.Layout{
		Root:               root,
		Folders:            category.NewFolders(cfg.Layout.CategoryFolders),
		MonthFolders:       cfg.Layout.MonthFolders,
		SmallFileThreshold: cfg.Layout.SmallFileThreshold,
		SmallFilesFolder:   cfg.Layout.SmallFilesFolder,
		ErrorFolder:        cfg.Layout.ErrorFolder,
	}
}

// newExecutor wires a placement executor from configuration. writer and
// history may be nil for read-only use.
func newExecutor(cfg *config.Config, fs afero.Fs, root string, reader metadata.Reader, writer metadata.Writer, history placement.History, logger *slog.Logger) *placement.Executor {
	return placement.NewExecutor(placement.Options{
		Layout:            newLayout(cfg, root),
		Move:              cfg.MoveMode(),
		VerifyCopy:        cfg.Placement.VerifyCopy,
		CorrectExtensions: cfg.Placement.CorrectExtensions,
		WriteAllDates:     cfg.Exiftool.WriteAllDates,
	}, placement.Dependencies{
		FS:       fs,
		Reader:   reader,
		Writer:   writer,
		Resolver: dating.NewResolver(cfg.DateCutoff(), cfg.FutureTolerance()),
		History:  history,
		Logger:   logger,
	})
}
