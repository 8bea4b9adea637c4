package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

// JPEGQuality is used when re-encoding JPEG images
const JPEGQuality = 92

// CanEncode reports whether Encode supports format
func CanEncode(format string) bool {
	switch format {
	case "jpeg", "png", "gif", "bmp", "tiff":
		return true
	}
	return false
}

// Encode re-encodes img in the given decoder format
func Encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return nil, fmt.Errorf("%w: no encoder for format %q", utils.ErrEncode, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", utils.ErrEncode, format, err)
	}
	return buf.Bytes(), nil
}
