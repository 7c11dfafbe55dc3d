package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediasort/internal/config"
	"mediasort/internal/testsupport"
)

// exiftoolStub answers -ver, returns a dated dump for IMG_0001 files and an
// empty one for everything else. Writes succeed without touching the file.
const exiftoolStub = `case "$1" in
-ver)
  echo 12.76
  ;;
-json)
  for last; do :; done
  case "$last" in
  *IMG_0001*)
    printf '[{"SourceFile":"%s","ExifIFD":{"DateTimeOriginal":"2024:01:01 10:00:00","SubSecTimeOriginal":"500000"}}]\n' "$last"
    ;;
  *)
    printf '[{"SourceFile":"%s"}]\n' "$last"
    ;;
  esac
  ;;
esac
exit 0
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	exiftool   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("MEDIASORT_SOURCE", "")
	t.Setenv("MEDIASORT_DEST", "")
	t.Setenv("MEDIASORT_EXIFTOOL", "")

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(base, "config.toml"),
		baseDir:    base,
		exiftool:   testsupport.WriteScript(t, filepath.Join(base, "bin"), "exiftool", exiftoolStub),
	}
	writeTestConfig(t, env.configPath, cfg, env.exiftool)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config, exiftool string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
source_dir = %q
destination_dir = %q
state_dir = %q
log_dir = %q

[exiftool]
binary = %q
search_paths = []

[workers]
max_workers = 2
progress_interval_ms = 10

[logging]
level = "warn"
`,
		cfg.Paths.SourceDir,
		cfg.Paths.DestinationDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		exiftool,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
