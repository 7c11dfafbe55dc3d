package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mediasort/internal/logs"
	"mediasort/internal/services"
)

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mediasort-run.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	var lines []string
	if err := logs.Tail(context.Background(), path, logs.TailOptions{Lines: 2}, func(line string) {
		lines = append(lines, line)
	}); err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "nope.log"), logs.TailOptions{Lines: 5}, func(string) {})
	if err == nil {
		t.Fatal("expected error for missing log")
	}
}

func TestTailFollowPicksUpAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mediasort-run.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var (
		mu    sync.Mutex
		lines []string
		got   = make(chan struct{})
	)
	done := make(chan error, 1)
	go func() {
		done <- logs.Tail(ctx, path, logs.TailOptions{Lines: 1, Follow: true, Poll: 10 * time.Millisecond}, func(line string) {
			mu.Lock()
			defer mu.Unlock()
			lines = append(lines, line)
			if line == "later" {
				close(got)
			}
		})
	}()

	time.Sleep(50 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not see the appended line")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Tail returned %v after cancel", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 2 || lines[0] != "start" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestLatestPicksNewestRunLog(t *testing.T) {
	dir := t.TempDir()
	if _, err := logs.Latest(dir); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("empty dir: expected ErrNotFound, got %v", err)
	}
	for _, name := range []string{
		"mediasort-20240101T100000.000Z.log",
		"mediasort-20240301T090000.000Z.log",
		"mediasort-20240201T235959.999Z.log",
		"other.log",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	latest, err := logs.Latest(dir)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if filepath.Base(latest) != "mediasort-20240301T090000.000Z.log" {
		t.Fatalf("latest = %s", latest)
	}
}
