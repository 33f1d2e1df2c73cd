package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
)

// ImageFormat represents supported image formats
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatWebP ImageFormat = "webp"
	FormatPNG  ImageFormat = "png"
)

// ErrUnsupportedFormat is returned for data that is not JPEG, PNG or WebP.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// DetectFormat sniffs the format from the leading bytes of data.
//
// Arguments:
//   - data: The encoded image.
//
// Returns:
//   - ImageFormat: The detected format.
//   - error: ErrUnsupportedFormat if the signature is unknown.
func DetectFormat(data []byte) (ImageFormat, error) {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG, nil
	case len(data) >= 8 && bytes.Equal(data[:8], []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG, nil
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWebP, nil
	}
	return "", ErrUnsupportedFormat
}

// FormatFromPath maps a file extension to a format.
func FormatFromPath(path string) (ImageFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, true
	case ".png":
		return FormatPNG, true
	case ".webp":
		return FormatWebP, true
	}
	return "", false
}

// Decode decodes a JPEG, PNG or WebP image.
//
// Arguments:
//   - data: The encoded image.
//
// Returns:
//   - image.Image: The decoded image.
//   - ImageFormat: The format data was encoded in.
//   - error: An error if the format is unsupported or decoding fails.
func Decode(data []byte) (image.Image, ImageFormat, error) {
	format, err := DetectFormat(data)
	if err != nil {
		return nil, "", err
	}

	var img image.Image
	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	case FormatWebP:
		img, err = webp.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, format, errors.Wrapf(err, "decoding %s", format)
	}
	return img, format, nil
}

// DecodeFile reads and decodes the image at path.
func DecodeFile(path string) (image.Image, ImageFormat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "reading %s", path)
	}
	return Decode(data)
}

// FitSize scales width x height down to fit within maxWidth x maxHeight,
// keeping the aspect ratio. A zero bound leaves that axis unconstrained.
// Sizes that already fit are returned unchanged.
func FitSize(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}

	scale := 1.0
	if maxWidth > 0 && width > maxWidth {
		scale = float64(maxWidth) / float64(width)
	}
	if maxHeight > 0 && float64(height)*scale > float64(maxHeight) {
		scale = float64(maxHeight) / float64(height)
	}
	if scale == 1.0 {
		return width, height
	}

	w := max(1, int(float64(width)*scale+0.5))
	h := max(1, int(float64(height)*scale+0.5))
	return w, h
}
