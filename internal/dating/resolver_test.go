package dating_test

import (
	"testing"
	"time"

	"mediasort/internal/dating"
	"mediasort/internal/metadata"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newResolver() *dating.Resolver {
	return &dating.Resolver{
		Cutoff:          time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC),
		FutureTolerance: 24 * time.Hour,
		Now:             func() time.Time { return fixedNow },
	}
}

func TestResolveCascade(t *testing.T) {
	mtime := time.Date(2025, 3, 3, 3, 3, 3, 0, time.UTC)
	tests := []struct {
		name       string
		md         metadata.Metadata
		path       string
		want       time.Time
		wantSource dating.Source
		wantField  string
	}{
		{
			name:       "exif original",
			md:         metadata.Metadata{"ExifIFD": {"DateTimeOriginal": "2024:01:01 10:00:00", "SubSecTimeOriginal": "500000"}},
			path:       "/in/IMG_0001.JPG",
			want:       time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			wantSource: dating.SourceMetadata,
			wantField:  "ExifIFD:DateTimeOriginal",
		},
		{
			name:       "strict filename beats metadata",
			md:         metadata.Metadata{"ExifIFD": {"DateTimeOriginal": "2024:01:01 10:00:00"}},
			path:       "/in/2023-05-06_07-08-09.jpg",
			want:       time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC),
			wantSource: dating.SourceFilename,
		},
		{
			name:       "compact filename",
			path:       "/in/VID_20220708_091011.mp4",
			want:       time.Date(2022, 7, 8, 9, 10, 11, 0, time.UTC),
			wantSource: dating.SourceFilename,
		},
		{
			name:       "invalid calendar filename falls through",
			md:         metadata.Metadata{"IFD0": {"ModifyDate": "x", "CreateDate": "2021-04-05 06:07:08"}},
			path:       "/in/2023-02-30_10-00-00.jpg",
			want:       time.Date(2021, 4, 5, 6, 7, 8, 0, time.UTC),
			wantSource: dating.SourceMetadata,
			wantField:  "IFD0:CreateDate",
		},
		{
			name:       "section order outranks field order",
			md:         metadata.Metadata{"ExifIFD": {"FileModifyDate": "2020:01:01 00:00:00"}, "IFD0": {"DateTimeOriginal": "2019:01:01 00:00:00"}},
			path:       "/in/a.jpg",
			want:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			wantSource: dating.SourceMetadata,
			wantField:  "ExifIFD:FileModifyDate",
		},
		{
			name:       "root field with zone suffix",
			md:         metadata.Metadata{metadata.Root: {"CreateDate": "2022:03:04 05:06:07+02:00"}},
			path:       "/in/a.mov",
			want:       time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC),
			wantSource: dating.SourceMetadata,
			wantField:  "CreateDate",
		},
		{
			name:       "date only layout",
			md:         metadata.Metadata{"XMP-xmp": {"CreateDate": "2018:11:12"}},
			path:       "/in/a.png",
			want:       time.Date(2018, 11, 12, 0, 0, 0, 0, time.UTC),
			wantSource: dating.SourceMetadata,
			wantField:  "XMP-xmp:CreateDate",
		},
		{
			name: "harvest keeps earliest plausible",
			md: metadata.Metadata{"XMP-photoshop": {
				"History": "saved 2019:01:02 03:04:05 then 2018:05:06 07:08:09 and 1985:01:01 00:00:00",
			}},
			path:       "/in/a.jpg",
			want:       time.Date(2018, 5, 6, 7, 8, 9, 0, time.UTC),
			wantSource: dating.SourceEmbedded,
			wantField:  "XMP-photoshop:History",
		},
		{
			name:       "year field",
			md:         metadata.Metadata{"ID3v2_4": {"TDRC": "2015"}},
			path:       "/in/song.mp3",
			want:       time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
			wantSource: dating.SourceYearField,
			wantField:  "ID3v2_4:TDRC",
		},
		{
			name:       "year month field",
			md:         metadata.Metadata{metadata.Root: {"Year": "2014-07"}},
			path:       "/in/song.flac",
			want:       time.Date(2014, 7, 1, 0, 0, 0, 0, time.UTC),
			wantSource: dating.SourceYearField,
			wantField:  "Year",
		},
		{
			name:       "loose eight digits with trailing time",
			path:       "/in/scan 20210304 1020-30.jpg",
			want:       time.Date(2021, 3, 4, 10, 20, 30, 0, time.UTC),
			wantSource: dating.SourceLooseFilename,
		},
		{
			name:       "loose six digits",
			path:       "/in/photo_210304.jpg",
			want:       time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC),
			wantSource: dating.SourceLooseFilename,
		},
		{
			name:       "invalid eight digits fall back to six",
			path:       "/in/photo_23051799.jpg",
			want:       time.Date(2023, 5, 17, 0, 0, 0, 0, time.UTC),
			wantSource: dating.SourceLooseFilename,
		},
		{
			name:       "empty metadata uses mtime",
			md:         metadata.Metadata{},
			path:       "/in/IMG_0001.JPG",
			want:       mtime,
			wantSource: dating.SourceModTime,
		},
		{
			name:       "nil metadata uses mtime",
			path:       "/in/notes.xyz",
			want:       mtime,
			wantSource: dating.SourceModTime,
		},
	}

	resolver := newResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.Resolve(tt.md, tt.path, mtime)
			if !got.Time.Equal(tt.want) {
				t.Fatalf("time = %s, want %s", got.Time, tt.want)
			}
			if got.Source != tt.wantSource {
				t.Fatalf("source = %q, want %q", got.Source, tt.wantSource)
			}
			if got.Field != tt.wantField {
				t.Fatalf("field = %q, want %q", got.Field, tt.wantField)
			}
			if got.Suspect {
				t.Fatalf("unexpected suspect resolution: %+v", got)
			}
		})
	}
}

func TestResolveModTimeIsUTC(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*3600)
	mtime := time.Date(2024, 1, 1, 3, 0, 0, 0, zone)
	got := newResolver().Resolve(nil, "/in/file.bin", mtime)
	if got.Time.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %s", got.Time.Location())
	}
	if got.Time.Year() != 2023 || got.Time.Day() != 31 || got.Time.Hour() != 22 {
		t.Fatalf("unexpected UTC conversion: %s", got.Time)
	}
}

func TestResolveCutoffBoundary(t *testing.T) {
	mtime := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	resolver := newResolver()

	got := resolver.Resolve(metadata.Metadata{"ExifIFD": {"DateTimeOriginal": "1990:01:01 00:00:00"}}, "/in/a.jpg", mtime)
	if got.Source != dating.SourceMetadata || got.Suspect {
		t.Fatalf("first day after cutoff should be accepted: %+v", got)
	}

	got = resolver.Resolve(metadata.Metadata{"ExifIFD": {"DateTimeOriginal": "1989:12:31 23:59:59"}}, "/in/a.jpg", mtime)
	if got.Source != dating.SourceModTime {
		t.Fatalf("cutoff day should be rejected, got %+v", got)
	}
	if !got.Suspect {
		t.Fatal("rejected metadata date should mark the result suspect")
	}
	if want := time.Date(1989, 12, 31, 23, 59, 59, 0, time.UTC); !got.Rejected.Equal(want) {
		t.Fatalf("rejected = %s, want %s", got.Rejected, want)
	}
}

func TestResolveRejectsFutureDates(t *testing.T) {
	mtime := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	md := metadata.Metadata{
		"ExifIFD": {"DateTimeOriginal": "2099:01:01 00:00:00"},
		"IFD0":    {"ModifyDate": "2099:01:01 00:00:00"},
	}
	got := newResolver().Resolve(md, "/in/a.jpg", mtime)
	if got.Source != dating.SourceModTime || !got.Suspect {
		t.Fatalf("future-only metadata should fall back suspect, got %+v", got)
	}

	soon := fixedNow.Add(12 * time.Hour).Format("2006:01:02 15:04:05")
	got = newResolver().Resolve(metadata.Metadata{"ExifIFD": {"DateTimeOriginal": soon}}, "/in/a.jpg", mtime)
	if got.Source != dating.SourceMetadata {
		t.Fatalf("date inside future tolerance should be accepted, got %+v", got)
	}
}

func TestResolveEpochModTimeIsSuspect(t *testing.T) {
	got := newResolver().Resolve(nil, "/in/a.jpg", time.Unix(0, 0))
	if !got.Suspect {
		t.Fatalf("epoch mtime should be suspect: %+v", got)
	}
	if got.Source != dating.SourceModTime {
		t.Fatalf("source = %q", got.Source)
	}
}

func TestResolveYearMatchesDirectoryYear(t *testing.T) {
	// A resolution always has a usable year regardless of input.
	inputs := []metadata.Metadata{
		nil,
		{},
		{"ExifIFD": {"DateTimeOriginal": "garbage"}},
		{metadata.Root: {"Year": "not a year"}},
	}
	mtime := time.Date(2020, 8, 9, 10, 11, 12, 0, time.UTC)
	for _, md := range inputs {
		got := newResolver().Resolve(md, "/in/x.jpg", mtime)
		if got.Time.Year() != 2020 {
			t.Fatalf("year = %d for %v", got.Time.Year(), md)
		}
	}
}
