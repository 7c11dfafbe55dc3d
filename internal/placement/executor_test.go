package placement_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"mediasort/internal/dating"
	"mediasort/internal/media/category"
	"mediasort/internal/metadata"
	"mediasort/internal/naming"
	"mediasort/internal/placement"
	"mediasort/internal/testsupport"
)

const largeFile = 300 * 1024

type fixture struct {
	fs     afero.Fs
	reader *testsupport.FakeReader
	writer *testsupport.FakeWriter
	opts   placement.Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		fs:     afero.NewMemMapFs(),
		reader: &testsupport.FakeReader{Data: map[string]metadata.Metadata{}},
		writer: &testsupport.FakeWriter{},
		opts: placement.Options{
			Layout: naming.Layout{
				Root:               "/lib",
				Folders:            category.NewFolders(nil),
				SmallFileThreshold: 200 * 1024,
				SmallFilesFolder:   "small_files",
				ErrorFolder:        "Error",
			},
			VerifyCopy:        true,
			CorrectExtensions: true,
		},
	}
}

func (f *fixture) executor(history placement.History) *placement.Executor {
	return placement.NewExecutor(f.opts, placement.Dependencies{
		FS:     f.fs,
		Reader: f.reader,
		Writer: f.writer,
		Resolver: &dating.Resolver{
			Cutoff:          time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC),
			FutureTolerance: 24 * time.Hour,
			Now:             time.Now,
		},
		History: history,
	})
}

func (f *fixture) write(t *testing.T, path string, size int, mtime time.Time) {
	t.Helper()
	if err := afero.WriteFile(f.fs, path, bytes.Repeat([]byte("x"), size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if !mtime.IsZero() {
		if err := f.fs.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}
}

func exists(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

func TestPlaceExifPhoto(t *testing.T) {
	f := newFixture(t)
	src := "/in/IMG_0001.JPG"
	f.write(t, src, largeFile, time.Time{})
	f.reader.Data[src] = metadata.Metadata{"ExifIFD": {
		"DateTimeOriginal":   "2024:01:01 10:00:00",
		"SubSecTimeOriginal": "500000",
	}}

	out := f.executor(nil).Place(context.Background(), src, false)
	if out.Status != placement.StatusPlaced {
		t.Fatalf("status = %s (%s)", out.Status, out.Error)
	}
	want := "/lib/Photos/2024/2024-01-01_10-00-00-ss500000.jpg"
	if out.Destination != want {
		t.Fatalf("destination = %q, want %q", out.Destination, want)
	}
	if out.Subseconds != "500000" || out.DateSource != dating.SourceMetadata {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if exists(f.fs, src) {
		t.Fatal("source should be removed after copy")
	}
	data, err := afero.ReadFile(f.fs, want)
	if err != nil || len(data) != largeFile {
		t.Fatalf("destination content: %d bytes, err=%v", len(data), err)
	}

	tags, ok := f.writer.Tags(want)
	if !ok {
		t.Fatal("expected metadata rewrite")
	}
	assertTag(t, tags, "FileModifyDate", "2024:01:01 10:00:00")
	assertTag(t, tags, "SubSecTimeOriginal", "500000")
}

func TestPlaceEmptyMetadataUsesModTime(t *testing.T) {
	f := newFixture(t)
	src := "/in/clip.mov"
	mtime := time.Date(2019, 7, 4, 18, 30, 0, 0, time.UTC)
	f.write(t, src, largeFile, mtime)

	out := f.executor(nil).Place(context.Background(), src, false)
	if out.Status != placement.StatusPlaced {
		t.Fatalf("status = %s (%s)", out.Status, out.Error)
	}
	if out.DateSource != dating.SourceModTime {
		t.Fatalf("date source = %s", out.DateSource)
	}
	if out.Destination != "/lib/Videos/2019/2019-07-04_18-30-00.mov" {
		t.Fatalf("destination = %q", out.Destination)
	}
}

func TestPlaceUnknownTypeOutsideSweepIsSkipped(t *testing.T) {
	f := newFixture(t)
	src := "/in/notes.xyz"
	f.write(t, src, 10, time.Time{})

	out := f.executor(nil).Place(context.Background(), src, false)
	if out.Status != placement.StatusSkipped || out.Failed() {
		t.Fatalf("expected skip, got %+v", out)
	}
	if !exists(f.fs, src) {
		t.Fatal("skipped source must remain")
	}
	if f.reader.Calls() != 0 {
		t.Fatal("skipped files should not be read")
	}
}

func TestPlaceSweepRoutesUnknownToErrorTier(t *testing.T) {
	f := newFixture(t)
	src := "/in/notes.xyz"
	mtime := time.Date(2023, 2, 3, 4, 5, 6, 0, time.UTC)
	f.write(t, src, 10, mtime)

	out := f.executor(nil).Place(context.Background(), src, true)
	if out.Status != placement.StatusPlaced {
		t.Fatalf("status = %s (%s)", out.Status, out.Error)
	}
	want := "/lib/Other/2023/small_files/Error/2023-02-03_04-05-06.xyz"
	if out.Destination != want {
		t.Fatalf("destination = %q, want %q", out.Destination, want)
	}
	if !out.SourceKept || !exists(f.fs, src) {
		t.Fatal("unknown-type source must be kept in sweep mode")
	}
	if _, ok := f.writer.Tags(want); ok {
		t.Fatal("unknown types should not get a metadata rewrite")
	}
}

func TestPlaceSweepRemovesKnownTypes(t *testing.T) {
	f := newFixture(t)
	src := "/in/leftover.jpg"
	f.write(t, src, largeFile, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))

	out := f.executor(nil).Place(context.Background(), src, true)
	if out.Status != placement.StatusPlaced {
		t.Fatalf("status = %s (%s)", out.Status, out.Error)
	}
	if !strings.HasPrefix(out.Destination, "/lib/Photos/2022/Error/") {
		t.Fatalf("destination = %q", out.Destination)
	}
	if exists(f.fs, src) {
		t.Fatal("known-type source should be removed in sweep mode")
	}
}

func TestPlaceCollisionsGetCounters(t *testing.T) {
	f := newFixture(t)
	md := metadata.Metadata{"ExifIFD": {"DateTimeOriginal": "2024:01:01 10:00:00"}}
	exec := f.executor(nil)

	var got []string
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		src := "/in/" + name
		f.write(t, src, largeFile, time.Time{})
		f.reader.Data[src] = md
		out := exec.Place(context.Background(), src, false)
		if out.Status != placement.StatusPlaced {
			t.Fatalf("%s: %s", name, out.Error)
		}
		got = append(got, filepath.Base(out.Destination))
	}
	want := []string{"2024-01-01_10-00-00.jpg", "2024-01-01_10-00-00_2.jpg", "2024-01-01_10-00-00_3.jpg"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}

func TestPlaceCorruptSubsecondsAreCleared(t *testing.T) {
	f := newFixture(t)
	src := "/in/DSC_1.jpg"
	f.write(t, src, largeFile, time.Time{})
	f.reader.Data[src] = metadata.Metadata{"ExifIFD": {
		"DateTimeOriginal":   "2021:06:07 08:09:10",
		"SubSecTimeOriginal": "000964",
	}}

	out := f.executor(nil).Place(context.Background(), src, false)
	if out.Status != placement.StatusPlaced {
		t.Fatalf("status = %s (%s)", out.Status, out.Error)
	}
	if !out.Cleaned || out.Subseconds != "" {
		t.Fatalf("expected cleaned outcome: %+v", out)
	}
	if filepath.Base(out.Destination) != "2021-06-07_08-09-10.jpg" {
		t.Fatalf("destination = %q", out.Destination)
	}
	tags, _ := f.writer.Tags(out.Destination)
	if len(tags) != 3 {
		t.Fatalf("expected three clearing tags, got %+v", tags)
	}
	for _, tag := range tags {
		if !strings.HasPrefix(tag.Name, "SubSecTime") || tag.Value != "" {
			t.Fatalf("unexpected tag %+v", tag)
		}
	}
}

func TestPlaceMetadataWriteFailureIsWarning(t *testing.T) {
	f := newFixture(t)
	f.writer.Err = errors.New("exiftool exited 1")
	src := "/in/song.mp3"
	f.write(t, src, largeFile, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))

	out := f.executor(nil).Place(context.Background(), src, false)
	if out.Status != placement.StatusPlaced {
		t.Fatalf("status = %s (%s)", out.Status, out.Error)
	}
	if !strings.Contains(out.Warning, "exiftool exited 1") {
		t.Fatalf("warning = %q", out.Warning)
	}
}

func TestPlaceSuspectDateGoesToErrorTier(t *testing.T) {
	f := newFixture(t)
	src := "/in/scan.jpg"
	f.write(t, src, largeFile, time.Date(2024, 4, 4, 0, 0, 0, 0, time.UTC))
	f.reader.Data[src] = metadata.Metadata{"IFD0": {"CreateDate": "1985:01:01 00:00:00"}}

	out := f.executor(nil).Place(context.Background(), src, false)
	if out.Status != placement.StatusPlaced || !out.Suspect {
		t.Fatalf("expected suspect placement: %+v", out)
	}
	if !strings.HasPrefix(out.Destination, "/lib/Photos/2024/Error/") {
		t.Fatalf("destination = %q", out.Destination)
	}
}

func TestPlaceMoveMode(t *testing.T) {
	f := newFixture(t)
	f.opts.Move = true
	src := "/in/VID_20220708_091011.mp4"
	f.write(t, src, 5, time.Time{})

	out := f.executor(nil).Place(context.Background(), src, false)
	if out.Status != placement.StatusPlaced {
		t.Fatalf("status = %s (%s)", out.Status, out.Error)
	}
	if out.Destination != "/lib/Videos/2022/small_files/2022-07-08_09-10-11.mp4" {
		t.Fatalf("destination = %q", out.Destination)
	}
	if exists(f.fs, src) {
		t.Fatal("source should be gone after move")
	}
	data, _ := afero.ReadFile(f.fs, out.Destination)
	if string(data) != "xxxxx" {
		t.Fatalf("moved content = %q", data)
	}
}

func TestPlaceCorrectsExtension(t *testing.T) {
	f := newFixture(t)
	src := "/in/really_png.jpg"
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, largeFile)...)
	if err := afero.WriteFile(f.fs, src, png, 0o644); err != nil {
		t.Fatal(err)
	}
	f.reader.Data[src] = metadata.Metadata{"ExifIFD": {"DateTimeOriginal": "2024:01:01 10:00:00"}}

	out := f.executor(nil).Place(context.Background(), src, false)
	if filepath.Ext(out.Destination) != ".png" {
		t.Fatalf("destination = %q", out.Destination)
	}
}

func TestPlaceMissingSourceFails(t *testing.T) {
	f := newFixture(t)
	out := f.executor(nil).Place(context.Background(), "/in/gone.jpg", false)
	if out.Status != placement.StatusFailed || out.Error == "" {
		t.Fatalf("expected failure, got %+v", out)
	}
	if out.FailureKind != "not_found" {
		t.Fatalf("failure kind = %q", out.FailureKind)
	}
}

type stubHistory struct{ seen bool }

func (s stubHistory) PlacedDuringSweep(context.Context, string, int64, time.Time) (bool, error) {
	return s.seen, nil
}

func TestPlaceSweepSkipsPreviouslyPlaced(t *testing.T) {
	f := newFixture(t)
	src := "/in/notes.xyz"
	f.write(t, src, 10, time.Time{})

	out := f.executor(stubHistory{seen: true}).Place(context.Background(), src, true)
	if out.Status != placement.StatusSkipped || !out.SourceKept {
		t.Fatalf("expected skip from history, got %+v", out)
	}
	if entries, _ := afero.ReadDir(f.fs, "/lib"); len(entries) != 0 {
		t.Fatalf("nothing should be written, found %d entries", len(entries))
	}
}

func TestPlanDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	src := "/in/IMG_0001.JPG"
	f.write(t, src, largeFile, time.Time{})
	f.reader.Data[src] = metadata.Metadata{"ExifIFD": {"DateTimeOriginal": "2024:01:01 10:00:00"}}

	plan, err := f.executor(nil).Plan(context.Background(), src, false)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Proposed != "/lib/Photos/2024/2024-01-01_10-00-00.jpg" {
		t.Fatalf("proposed = %q", plan.Proposed)
	}
	if exists(f.fs, "/lib") {
		t.Fatal("Plan must not create directories")
	}
}

func TestRewriteTags(t *testing.T) {
	stamp := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tags := placement.RewriteTags(stamp, dating.Subseconds{}, true)
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	if strings.Join(names, ",") != "FileModifyDate,DateTimeOriginal,CreateDate,ModifyDate" {
		t.Fatalf("tags = %v", names)
	}
}

func assertTag(t *testing.T, tags []metadata.Tag, name, value string) {
	t.Helper()
	for _, tag := range tags {
		if tag.Name == name {
			if tag.Value != value {
				t.Fatalf("%s = %q, want %q", name, tag.Value, value)
			}
			return
		}
	}
	t.Fatalf("tag %s not written in %+v", name, tags)
}

type ctxRecordingWriter struct {
	err error
}

func (w *ctxRecordingWriter) Write(ctx context.Context, _ string, _ []metadata.Tag) error {
	w.err = ctx.Err()
	return nil
}

func TestPlaceFinishesFileWhenCancelledMidway(t *testing.T) {
	f := newFixture(t)
	src := "/in/IMG_0002.JPG"
	f.write(t, src, largeFile, time.Date(2020, 5, 5, 12, 0, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	writer := &ctxRecordingWriter{}
	exec := placement.NewExecutor(f.opts, placement.Dependencies{
		FS: f.fs,
		Reader: metadata.ReaderFunc(func(ctx context.Context, path string) (metadata.Metadata, error) {
			cancel()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return metadata.Metadata{"ExifIFD": {"DateTimeOriginal": "2024:01:01 10:00:00"}}, nil
		}),
		Writer: writer,
	})

	out := exec.Place(ctx, src, false)
	if out.Status != placement.StatusPlaced {
		t.Fatalf("status = %s (%s)", out.Status, out.Error)
	}
	if out.DateSource != dating.SourceMetadata {
		t.Fatalf("date source = %s, want metadata", out.DateSource)
	}
	if out.Destination != "/lib/Photos/2024/2024-01-01_10-00-00.jpg" {
		t.Fatalf("destination = %q", out.Destination)
	}
	if writer.err != nil || out.Warning != "" {
		t.Fatalf("metadata write saw %v, warning %q", writer.err, out.Warning)
	}

	next := "/in/IMG_0003.JPG"
	f.write(t, next, largeFile, time.Time{})
	if out := exec.Place(ctx, next, false); out.Status != placement.StatusFailed || out.FailureKind != "cancelled" {
		t.Fatalf("file started after cancel: status = %s kind = %s", out.Status, out.FailureKind)
	}
	if !exists(f.fs, next) {
		t.Fatal("unstarted file should stay at source")
	}
}

func TestPlaceStampsWallClockInLocalZone(t *testing.T) {
	f := newFixture(t)
	newYork := time.FixedZone("EST", -5*60*60)
	f.opts.Location = newYork
	src := "/in/IMG_0004.JPG"
	f.write(t, src, largeFile, time.Time{})
	f.reader.Data[src] = metadata.Metadata{"ExifIFD": {"DateTimeOriginal": "2024:01:01 10:00:00"}}

	out := f.executor(nil).Place(context.Background(), src, false)
	if out.Status != placement.StatusPlaced {
		t.Fatalf("status = %s (%s)", out.Status, out.Error)
	}
	info, err := f.fs.Stat(out.Destination)
	if err != nil {
		t.Fatalf("stat destination: %v", err)
	}
	local := info.ModTime().In(newYork)
	if local.Hour() != 10 || local.Day() != 1 {
		t.Fatalf("destination mtime = %s, want 10:00 local", local)
	}
	tags, _ := f.writer.Tags(out.Destination)
	assertTag(t, tags, "FileModifyDate", "2024:01:01 10:00:00")
}

func TestPlaceModTimeDateKeepsSourceInstant(t *testing.T) {
	f := newFixture(t)
	f.opts.Location = time.FixedZone("EST", -5*60*60)
	src := "/in/clip.mov"
	mtime := time.Date(2019, 7, 4, 18, 30, 0, 0, time.UTC)
	f.write(t, src, largeFile, mtime)

	out := f.executor(nil).Place(context.Background(), src, false)
	if out.Status != placement.StatusPlaced {
		t.Fatalf("status = %s (%s)", out.Status, out.Error)
	}
	info, err := f.fs.Stat(out.Destination)
	if err != nil {
		t.Fatalf("stat destination: %v", err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Fatalf("destination mtime = %s, want %s", info.ModTime(), mtime)
	}
}

func TestPlaceRepairsEpochDateTags(t *testing.T) {
	f := newFixture(t)
	f.opts.WriteAllDates = true
	src := "/in/IMG_0005.JPG"
	f.write(t, src, largeFile, time.Time{})
	f.reader.Data[src] = metadata.Metadata{"ExifIFD": {
		"DateTimeOriginal": "1970:01:01 00:00:00",
		"CreateDate":       "2021:06:07 08:09:10",
	}}

	out := f.executor(nil).Place(context.Background(), src, false)
	if out.Status != placement.StatusPlaced || out.Suspect {
		t.Fatalf("status = %s suspect = %v (%s)", out.Status, out.Suspect, out.Error)
	}
	if out.Destination != "/lib/Photos/2021/2021-06-07_08-09-10.jpg" {
		t.Fatalf("destination = %q", out.Destination)
	}
	tags, _ := f.writer.Tags(out.Destination)
	assertTag(t, tags, "DateTimeOriginal", "2021:06:07 08:09:10")
	assertTag(t, tags, "CreateDate", "2021:06:07 08:09:10")
}
