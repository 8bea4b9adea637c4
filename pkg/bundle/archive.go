package bundle

import (
	"bytes"
	"fmt"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/Sriram-PR/image-extractor/pkg/models"
	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

// ArchiveSuffix is appended to a page name to form its archive filename
const ArchiveSuffix = "_images.zip"

// ArchiveName returns the download name of a page's archive
func ArchiveName(pageName string) string {
	return pageName + ArchiveSuffix
}

// WriteArchive packs images into an in-memory zip, one Deflate entry per image in the given order.
// No directory entries are written.
func WriteArchive(images []models.AcceptedImage) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := time.Now()

	for _, img := range images {
		header := &zip.FileHeader{
			Name:     img.Filename,
			Method:   zip.Deflate,
			Modified: modified,
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("%w: creating entry '%s': %w", utils.ErrArchive, img.Filename, err)
		}
		if _, err := w.Write(img.Bytes); err != nil {
			return nil, fmt.Errorf("%w: writing entry '%s': %w", utils.ErrArchive, img.Filename, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalizing archive: %w", utils.ErrArchive, err)
	}
	return buf.Bytes(), nil
}
