package category

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is a coarse media classification derived from the file extension.
type Category string

const (
	Image    Category = "image"
	Video    Category = "video"
	Audio    Category = "audio"
	Document Category = "document"
	Art      Category = "art"
	Unknown  Category = "unknown"
)

// Known lists the classifiable categories in match order.
var Known = []Category{Image, Video, Audio, Document, Art}

// .pdf appears under both image and document; image is matched first.
var extensions = map[Category][]string{
	Image: {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp", ".heic", ".heif",
		".raw", ".dng", ".cr2", ".nef", ".arw", ".ptx", ".svg", ".pdf", ".mpo"},
	Video:    {".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm", ".m4v", ".mpg", ".mpeg", ".3gp"},
	Audio:    {".mp3", ".wav", ".aac", ".flac", ".m4a", ".ogg", ".aiff", ".alac", ".caf", ".amr", ".wmf"},
	Document: {".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".rtf"},
	Art:      {".psd", ".ai", ".indd", ".cdr", ".dwg", ".eps"},
}

var lookup = buildLookup()

func buildLookup() map[string]Category {
	table := make(map[string]Category)
	for _, cat := range Known {
		for _, ext := range extensions[cat] {
			if _, taken := table[ext]; !taken {
				table[ext] = cat
			}
		}
	}
	return table
}

// Classify returns the category for path based on its extension. Files with
// no recognised extension are Unknown.
func Classify(path string) Category {
	ext := strings.ToLower(filepath.Ext(path))
	if cat, ok := lookup[ext]; ok {
		return cat
	}
	return Unknown
}

// Extensions returns a copy of the extension set for c.
func Extensions(c Category) []string {
	return append([]string(nil), extensions[c]...)
}

// Parse converts a config key into a Category.
func Parse(value string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	switch c {
	case Image, Video, Audio, Document, Art, Unknown:
		return c, true
	}
	return Unknown, false
}

// Label returns the display form used in tables ("Image", "Video", ...).
func (c Category) Label() string {
	return cases.Title(language.Und).String(string(c))
}

var defaultFolders = map[Category]string{
	Image:    "Photos",
	Video:    "Videos",
	Audio:    "Audio",
	Document: "Documents",
	Art:      "Art",
	Unknown:  "Other",
}

// Folders maps categories to destination folder names.
type Folders map[Category]string

// NewFolders returns the default folder names with overrides applied. Keys
// that do not name a category are ignored; config validation rejects them.
func NewFolders(overrides map[string]string) Folders {
	folders := make(Folders, len(defaultFolders))
	for cat, name := range defaultFolders {
		folders[cat] = name
	}
	for key, name := range overrides {
		if cat, ok := Parse(key); ok && strings.TrimSpace(name) != "" {
			folders[cat] = strings.TrimSpace(name)
		}
	}
	return folders
}

// Name returns the folder for c, falling back to the unknown folder.
func (f Folders) Name(c Category) string {
	if name, ok := f[c]; ok && name != "" {
		return name
	}
	if name, ok := defaultFolders[c]; ok {
		return name
	}
	return defaultFolders[Unknown]
}
