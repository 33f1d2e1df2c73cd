// Package util - Filesystem helpers for batch runs.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-overlay/images"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Format is derived from the file extension.
	Format images.ImageFormat
	// Frame is the number of a "frame-<n>" file, -1 for other names.
	Frame int
}

// LoadDirectoryImageFiles reads all JPEG, PNG and WebP files from a directory.
// Files named "frame-<n>" sort by frame number ahead of other files, which
// sort by name.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: The image files with their raw bytes.
//   - error: Error if the directory or a file cannot be read.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading directory %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		format, ok := images.FormatFromPath(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}

		files = append(files, ImageFile{
			Path:   path,
			Data:   data,
			Format: format,
			Frame:  frameNumber(entry.Name()),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		fi, fj := files[i].Frame, files[j].Frame
		switch {
		case fi >= 0 && fj >= 0 && fi != fj:
			return fi < fj
		case fi >= 0 && fj < 0:
			return true
		case fi < 0 && fj >= 0:
			return false
		}
		return files[i].Path < files[j].Path
	})

	return files, nil
}

func frameNumber(name string) int {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if !strings.HasPrefix(base, "frame-") {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimPrefix(base, "frame-"))
	if err != nil || n < 0 {
		return -1
	}
	return n
}
