package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"mediasort/internal/metadata"
)

// Tool runs exiftool for reads and in-place writes.
type Tool struct {
	Binary  string
	Timeout time.Duration
}

// New returns a Tool for binary. A zero timeout leaves invocations bounded
// only by the caller's context.
func New(binary string, timeout time.Duration) *Tool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "exiftool"
	}
	return &Tool{Binary: binary, Timeout: timeout}
}

// Read returns the grouped tag dump for path. Any failure is reported as
// metadata.ErrUnavailable.
func (t *Tool) Read(ctx context.Context, path string) (metadata.Metadata, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return metadata.Metadata{}, fmt.Errorf("%w: exiftool read: empty path", metadata.ErrUnavailable)
	}
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.Binary, "-json", "-a", "-u", "-g1", "-api", "LargeFileSupport=1", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return metadata.Metadata{}, fmt.Errorf("%w: exiftool read: %w: %s", metadata.ErrUnavailable, err, strings.TrimSpace(stderr.String()))
	}
	md, err := Parse(stdout.Bytes())
	if err != nil {
		return metadata.Metadata{}, fmt.Errorf("%w: %w", metadata.ErrUnavailable, err)
	}
	return md, nil
}

// Write applies tags to path in place without keeping a backup copy.
func (t *Tool) Write(ctx context.Context, path string, tags []metadata.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.Binary, WriteArgs(path, tags)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("exiftool write: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Version returns the output of `exiftool -ver`.
func (t *Tool) Version(ctx context.Context) (string, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	output, err := exec.CommandContext(ctx, t.Binary, "-ver").Output()
	if err != nil {
		return "", fmt.Errorf("exiftool version: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// WriteArgs builds the argument list for a write of tags to path.
func WriteArgs(path string, tags []metadata.Tag) []string {
	args := make([]string, 0, len(tags)+2)
	args = append(args, "-overwrite_original")
	for _, tag := range tags {
		name := strings.TrimSpace(tag.Name)
		if name == "" {
			continue
		}
		args = append(args, "-"+name+"="+tag.Value)
	}
	return append(args, path)
}

func (t *Tool) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.Timeout)
}

// Parse decodes `exiftool -json -g1` output. Only the first array element is
// used. Nested group objects become sections; top-level scalars land in the
// root section. Numbers keep their textual form and deeper structures are
// stored as compact JSON.
func Parse(data []byte) (metadata.Metadata, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var entries []map[string]any
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("exiftool parse: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("exiftool parse: empty result")
	}

	md := metadata.Metadata{}
	for key, value := range entries[0] {
		if group, ok := value.(map[string]any); ok {
			for field, inner := range group {
				md.Set(key, field, stringify(inner))
			}
			continue
		}
		md.Set(metadata.Root, key, stringify(value))
	}
	return md, nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}
