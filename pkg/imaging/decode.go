package imaging

import (
	"bytes"
	"fmt"
	"image"

	// Registered decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

// DefaultExtension is used when the decoder reports no format
const DefaultExtension = "jpg"

// Decoded is a successfully decoded raster image
type Decoded struct {
	Format string // Decoder name: "jpeg", "png", "gif", "webp", "bmp", "tiff"
	Width  int
	Height int
	Image  image.Image
}

// Decode decodes raw bytes into an image, reporting its format and pixel dimensions.
// The header is read first and images over maxPixels are refused before any pixel
// buffer is allocated; maxPixels <= 0 disables the check.
func Decode(data []byte, maxPixels int64) (*Decoded, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", utils.ErrDecode)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image config: %w", utils.ErrDecode, err)
	}
	if totalPixels := int64(cfg.Width) * int64(cfg.Height); maxPixels > 0 && totalPixels > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d is %d pixels (max %d)",
			utils.ErrImageTooLarge, cfg.Width, cfg.Height, totalPixels, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrDecode, err)
	}

	bounds := img.Bounds()
	return &Decoded{
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Image:  img,
	}, nil
}

// Extension maps a decoder format name to a file extension
func Extension(format string) string {
	switch format {
	case "":
		return DefaultExtension
	case "jpeg":
		return "jpg"
	default:
		return format
	}
}
