package exifnative

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"

	"mediasort/internal/metadata"
)

var decodable = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".mpo": {}, ".tif": {}, ".tiff": {},
	".dng": {}, ".nef": {}, ".cr2": {}, ".arw": {},
}

// fieldMap places goexif fields under the section and name exiftool would
// report with -g1, so the date resolver sees the same shape either way.
var fieldMap = []struct {
	field   exif.FieldName
	section string
	name    string
}{
	{exif.DateTimeOriginal, "ExifIFD", "DateTimeOriginal"},
	{exif.DateTimeDigitized, "ExifIFD", "CreateDate"},
	{exif.SubSecTimeOriginal, "ExifIFD", "SubSecTimeOriginal"},
	{exif.SubSecTimeDigitized, "ExifIFD", "SubSecTimeDigitized"},
	{exif.SubSecTime, "ExifIFD", "SubSecTime"},
	{exif.DateTime, "IFD0", "ModifyDate"},
	{exif.Make, "IFD0", "Make"},
	{exif.Model, "IFD0", "Model"},
}

// Reader decodes EXIF directly from JPEG and TIFF-family files.
type Reader struct {
	fs afero.Fs
}

// New returns a Reader over fs.
func New(fs afero.Fs) *Reader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Reader{fs: fs}
}

// Read returns the EXIF fields goexif can decode. Files of other types yield
// an empty mapping and no error.
func (r *Reader) Read(ctx context.Context, path string) (metadata.Metadata, error) {
	if _, ok := decodable[strings.ToLower(filepath.Ext(path))]; !ok {
		return metadata.Metadata{}, nil
	}
	if err := ctx.Err(); err != nil {
		return metadata.Metadata{}, err
	}
	f, err := r.fs.Open(path)
	if err != nil {
		return metadata.Metadata{}, fmt.Errorf("%w: exif open: %w", metadata.ErrUnavailable, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return metadata.Metadata{}, fmt.Errorf("%w: exif decode: %w", metadata.ErrUnavailable, err)
	}

	md := metadata.Metadata{}
	for _, entry := range fieldMap {
		tag, err := x.Get(entry.field)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		value = strings.TrimRight(value, "\x00 ")
		if value == "" {
			continue
		}
		md.Set(entry.section, entry.name, value)
	}
	return md, nil
}
