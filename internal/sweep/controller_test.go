package sweep_test

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"mediasort/internal/media/category"
	"mediasort/internal/placement"
	"mediasort/internal/resources"
	"mediasort/internal/services"
	"mediasort/internal/sweep"
)

type call struct {
	path  string
	sweep bool
}

// stubPlacer removes placed sources the way a successful move would, and
// keeps unknown-type sources during the sweep.
type stubPlacer struct {
	fs     afero.Fs
	mu     sync.Mutex
	calls  []call
	cancel context.CancelFunc
}

func (p *stubPlacer) Place(_ context.Context, path string, sweep bool) placement.Outcome {
	p.mu.Lock()
	p.calls = append(p.calls, call{path: path, sweep: sweep})
	p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}

	cat := category.Classify(path)
	kept := sweep && cat == category.Unknown
	if !kept {
		_ = p.fs.Remove(path)
	}
	return placement.Outcome{
		Source:     path,
		Category:   cat,
		Status:     placement.StatusPlaced,
		Sweep:      sweep,
		SourceKept: kept,
	}
}

func (p *stubPlacer) paths(sweep bool) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.calls {
		if c.sweep == sweep {
			out = append(out, c.path)
		}
	}
	sort.Strings(out)
	return out
}

type memRecorder struct {
	mu      sync.Mutex
	records map[string]int
}

func (r *memRecorder) RecordOutcomes(_ context.Context, runID string, outcomes []placement.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records == nil {
		r.records = make(map[string]int)
	}
	r.records[runID] += len(outcomes)
	return nil
}

func seed(t *testing.T, fs afero.Fs, paths ...string) {
	t.Helper()
	for _, path := range paths {
		if err := afero.WriteFile(fs, path, []byte("data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

func options() sweep.Options {
	return sweep.Options{
		Source:           "/in",
		Exclude:          []string{"/in/library"},
		Plan:             resources.Plan{Workers: 2, FilesPerWorker: 15, Multiplier: 3},
		RunID:            "run-1",
		MainPass:         true,
		SweepPass:        true,
		CleanupEmptyDirs: true,
	}
}

func TestRunMainThenSweep(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs,
		"/in/2024/IMG_0001.JPG",
		"/in/2024/clip.mp4",
		"/in/misc/notes.xyz",
		"/in/library/Photos/2023/2023-01-01_00-00-00.jpg",
	)
	if err := fs.MkdirAll("/in/empty/nested", 0o755); err != nil {
		t.Fatal(err)
	}
	placer := &stubPlacer{fs: fs}
	recorder := &memRecorder{}
	opts := options()
	opts.Recorder = recorder
	discovered := map[string]int{}
	opts.Scanned = func(pass string, found int) { discovered[pass] = found }

	result, err := sweep.NewController(fs, placer, opts, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := placer.paths(false); len(got) != 2 || got[0] != "/in/2024/IMG_0001.JPG" || got[1] != "/in/2024/clip.mp4" {
		t.Fatalf("main pass placed %v", got)
	}
	if got := placer.paths(true); len(got) != 1 || got[0] != "/in/misc/notes.xyz" {
		t.Fatalf("sweep pass placed %v", got)
	}
	if !result.MainRan || !result.SweepRan || result.Unknown != 1 {
		t.Fatalf("unexpected result flags: %+v", result)
	}
	if discovered[sweep.PassMain] != 2 || discovered[sweep.PassSweep] != 1 {
		t.Fatalf("unexpected scan counts %v", discovered)
	}

	combined := result.Combined()
	if combined.Total != 3 || combined.Succeeded != 3 || combined.Failed != 0 {
		t.Fatalf("unexpected combined result %+v", combined)
	}
	if recorder.records["run-1"] != 3 {
		t.Fatalf("expected 3 recorded outcomes, got %v", recorder.records)
	}

	for _, dir := range []string{"/in/2024", "/in/empty/nested", "/in/empty"} {
		if ok, _ := afero.DirExists(fs, dir); ok {
			t.Errorf("expected %s to be removed", dir)
		}
	}
	for _, path := range []string{"/in/misc/notes.xyz", "/in/library/Photos/2023/2023-01-01_00-00-00.jpg"} {
		if ok, _ := afero.Exists(fs, path); !ok {
			t.Errorf("expected %s to survive", path)
		}
	}
	if !contains(result.RemovedDirs, filepath.Clean("/in/empty")) {
		t.Errorf("RemovedDirs = %v", result.RemovedDirs)
	}
}

func TestRunSweepOnly(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, "/in/a.jpg", "/in/b.xyz")
	placer := &stubPlacer{fs: fs}
	opts := options()
	opts.MainPass = false
	opts.CleanupEmptyDirs = false

	result, err := sweep.NewController(fs, placer, opts, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.MainRan || !result.SweepRan {
		t.Fatalf("unexpected flags %+v", result)
	}
	if got := placer.paths(true); len(got) != 2 {
		t.Fatalf("sweep pass placed %v", got)
	}
}

func TestRunCancelledMainSkipsSweep(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, "/in/a.jpg", "/in/b.jpg", "/in/c.xyz")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	placer := &stubPlacer{fs: fs, cancel: cancel}
	opts := options()
	opts.Plan = resources.Plan{Workers: 1, FilesPerWorker: 15, Multiplier: 1}

	result, err := sweep.NewController(fs, placer, opts, nil).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Main.Cancelled || result.SweepRan {
		t.Fatalf("expected cancelled main pass without sweep: %+v", result)
	}
	if len(placer.paths(false)) != 1 || len(placer.paths(true)) != 0 {
		t.Fatalf("unexpected calls %+v", placer.calls)
	}
}

func TestRunMissingSourceIsConfigurationError(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := sweep.NewController(fs, &stubPlacer{fs: fs}, options(), nil).Run(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
