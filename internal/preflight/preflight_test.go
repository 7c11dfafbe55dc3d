package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mediasort/internal/services"
	"mediasort/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed || result.Err != nil {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "read/write ok") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryMode_ReadOnly(t *testing.T) {
	result := CheckDirectoryMode("test", t.TempDir(), AccessRead)
	if !result.Passed || !strings.Contains(result.Detail, "(read ok)") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
	if !errors.Is(result.Err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", result.Err)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
	if !strings.Contains(result.Detail, "is not a directory") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckExiftool(t *testing.T) {
	dir := t.TempDir()
	bin := testsupport.WriteScript(t, dir, "exiftool", "echo 12.76\n")

	result, resolved := CheckExiftool(context.Background(), bin, nil, time.Second)
	if !result.Passed || resolved != bin {
		t.Fatalf("expected pass, got %+v (%q)", result, resolved)
	}
	if !strings.Contains(result.Detail, "version 12.76") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}

	broken := testsupport.WriteScript(t, dir, "exiftool-broken", "exit 3\n")
	result, resolved = CheckExiftool(context.Background(), broken, nil, time.Second)
	if result.Passed || resolved != broken || !errors.Is(result.Err, services.ErrExternalTool) {
		t.Fatalf("expected external tool failure, got %+v (%q)", result, resolved)
	}
}

func TestCheckExiftool_Missing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	result, resolved := CheckExiftool(context.Background(), "exiftool", nil, time.Second)
	if result.Passed || resolved != "" {
		t.Fatalf("expected failure, got %+v", result)
	}
	if !errors.Is(result.Err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", result.Err)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	report := RunAll(context.Background(), nil)
	if len(report.Results) != 0 || report.Err() != nil {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestRunAll_Ready(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	report := RunAll(context.Background(), cfg)
	if err := report.Err(); err != nil {
		t.Fatalf("expected ready, got %v", err)
	}
	if len(report.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(report.Results))
	}
	if filepath.Base(report.Exiftool) != "exiftool" {
		t.Fatalf("unexpected exiftool path %q", report.Exiftool)
	}
}

func TestRunAll_CollectsFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Exiftool.Binary = "mediasort-no-such-exiftool"
	cfg.Exiftool.SearchPaths = nil
	cfg.Paths.SourceDir = filepath.Join(testsupport.BaseDir(cfg), "missing")

	report := RunAll(context.Background(), cfg)
	err := report.Err()
	if err == nil {
		t.Fatal("expected failures")
	}
	if !errors.Is(err, services.ErrExternalTool) || !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected joined external tool and configuration errors, got %v", err)
	}
	if report.Exiftool != "" {
		t.Fatalf("exiftool should be unresolved, got %q", report.Exiftool)
	}
}
