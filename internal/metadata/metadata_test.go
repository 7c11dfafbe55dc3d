package metadata_test

import (
	"context"
	"errors"
	"testing"

	"mediasort/internal/metadata"
)

func TestLookupDistinguishesMissingFromEmpty(t *testing.T) {
	md := metadata.Metadata{}
	md.Set("ExifIFD", "DateTimeOriginal", "")

	if value, ok := md.Lookup("ExifIFD", "DateTimeOriginal"); !ok || value != "" {
		t.Fatalf("expected present empty value, got %q %v", value, ok)
	}
	if _, ok := md.Lookup("ExifIFD", "CreateDate"); ok {
		t.Fatal("expected missing field")
	}
	if _, ok := md.Lookup("IFD0", "DateTimeOriginal"); ok {
		t.Fatal("expected missing section")
	}
}

func TestEachVisitsSortedOrder(t *testing.T) {
	md := metadata.Metadata{
		"IFD0":        {"Model": "X", "Make": "Y"},
		metadata.Root: {"SourceFile": "/a.jpg"},
	}
	var got []string
	md.Each(func(section, field, value string) {
		got = append(got, section+"/"+field)
	})
	want := []string{"/SourceFile", "IFD0/Make", "IFD0/Model"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if md.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", md.Len())
	}
}

func TestMergeKeepsExisting(t *testing.T) {
	md := metadata.Metadata{"ExifIFD": {"DateTimeOriginal": "2024:01:01 10:00:00"}}
	md.Merge(metadata.Metadata{"ExifIFD": {"DateTimeOriginal": "1999:01:01 00:00:00", "SubSecTimeOriginal": "12"}})
	if v, _ := md.Lookup("ExifIFD", "DateTimeOriginal"); v != "2024:01:01 10:00:00" {
		t.Fatalf("merge overwrote existing value: %q", v)
	}
	if v, ok := md.Lookup("ExifIFD", "SubSecTimeOriginal"); !ok || v != "12" {
		t.Fatalf("merge did not add missing field: %q %v", v, ok)
	}
}

func TestChainFallsThroughFailures(t *testing.T) {
	failing := metadata.ReaderFunc(func(context.Context, string) (metadata.Metadata, error) {
		return nil, errors.New("exiftool missing")
	})
	empty := metadata.ReaderFunc(func(context.Context, string) (metadata.Metadata, error) {
		return metadata.Metadata{}, nil
	})
	native := metadata.ReaderFunc(func(context.Context, string) (metadata.Metadata, error) {
		return metadata.Metadata{"ExifIFD": {"DateTimeOriginal": "2020:02:02 02:02:02"}}, nil
	})

	md, err := metadata.Chain{failing, empty, native}.Read(context.Background(), "/a.jpg")
	if err != nil {
		t.Fatalf("Chain.Read: %v", err)
	}
	if _, ok := md.Lookup("ExifIFD", "DateTimeOriginal"); !ok {
		t.Fatal("expected native result")
	}

	_, err = metadata.Chain{failing}.Read(context.Background(), "/a.jpg")
	if !errors.Is(err, metadata.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestReadOrEmpty(t *testing.T) {
	failing := metadata.ReaderFunc(func(context.Context, string) (metadata.Metadata, error) {
		return metadata.Metadata{"x": {"y": "z"}}, errors.New("parse error")
	})
	md, err := metadata.ReadOrEmpty(context.Background(), failing, "/a")
	if !errors.Is(err, metadata.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if md == nil || md.Len() != 0 {
		t.Fatalf("expected empty mapping, got %v", md)
	}

	md, err = metadata.ReadOrEmpty(context.Background(), nil, "/a")
	if err != nil || md == nil {
		t.Fatalf("nil reader should yield empty mapping, got %v %v", md, err)
	}
}
