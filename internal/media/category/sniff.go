package category

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var sniffedExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

var extensionFamily = map[string]string{
	".jpg":  ".jpg",
	".jpeg": ".jpg",
	".png":  ".png",
	".gif":  ".gif",
	".webp": ".webp",
	".bmp":  ".bmp",
}

// CorrectExtension returns the lower-cased extension the destination should
// use. For common raster images whose leading bytes identify a different
// container, the sniffed extension wins. Everything else, including camera
// raw and MPO files, keeps its own extension.
func CorrectExtension(fs afero.Fs, path string, cat Category) string {
	ext := strings.ToLower(filepath.Ext(path))
	if cat != Image {
		return ext
	}
	family, correctable := extensionFamily[ext]
	if !correctable {
		return ext
	}
	f, err := fs.Open(path)
	if err != nil {
		return ext
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return ext
	}
	sniffed, ok := sniffedExtensions[http.DetectContentType(head[:n])]
	if !ok || sniffed == family {
		return ext
	}
	return sniffed
}
