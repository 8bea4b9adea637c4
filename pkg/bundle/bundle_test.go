package bundle

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/image-extractor/pkg/config"
	"github.com/Sriram-PR/image-extractor/pkg/models"
	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := &config.AppConfig{}
	_, err := cfg.Validate()
	require.NoError(t, err)
	return cfg
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		entries[f.Name] = content
	}
	return entries
}

func TestArchiveName(t *testing.T) {
	assert.Equal(t, "Widget_images.zip", ArchiveName("Widget"))
}

func TestWriteArchive_OrderAndContent(t *testing.T) {
	images := []models.AcceptedImage{
		{Filename: "Widget_1.jpg", Bytes: []byte("first")},
		{Filename: "Widget_3.png", Bytes: bytes.Repeat([]byte("second"), 100)},
	}

	data, err := WriteArchive(images)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "Widget_1.jpg", zr.File[0].Name)
	assert.Equal(t, "Widget_3.png", zr.File[1].Name)
	assert.Equal(t, zip.Deflate, zr.File[1].Method)

	entries := readArchive(t, data)
	assert.Equal(t, []byte("first"), entries["Widget_1.jpg"])
	assert.Equal(t, bytes.Repeat([]byte("second"), 100), entries["Widget_3.png"])
}

func TestWriteArchive_Empty(t *testing.T) {
	data, err := WriteArchive(nil)
	require.NoError(t, err)
	assert.Empty(t, readArchive(t, data))
}

func testBatch() models.BatchResult {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return models.BatchResult{
		RunID:      "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		Pages: []models.PageResult{
			{
				Request:        models.PageRequest{URL: "shop.example/a", MinWidth: 300, MinHeight: 300},
				SourceURL:      "https://shop.example/a",
				PageName:       "Widget",
				Accepted:       []models.AcceptedImage{{Filename: "Widget_1.jpg", Bytes: []byte("a1"), SourceURL: "https://shop.example/1.jpg", Width: 400, Height: 400}},
				AcceptedCount:  1,
				CandidateCount: 2,
				RejectedCount:  1,
				SkipReasons:    map[models.SkipReason]int{models.SkipReasonTooSmall: 1},
			},
			{
				Request:    models.PageRequest{URL: "https://shop.example/missing"},
				SourceURL:  "https://shop.example/missing",
				PageName:   "",
				Diagnostic: "page fetch failed: 404",
				Err:        errors.Join(utils.ErrPageFetch, utils.ErrClientHTTPError),
			},
			{
				Request:       models.PageRequest{URL: "https://shop.example/b"},
				SourceURL:     "https://shop.example/b",
				PageName:      "Widget",
				Accepted:      []models.AcceptedImage{{Filename: "Widget_2.png", Bytes: []byte("b2"), Width: 500, Height: 500}},
				AcceptedCount: 1,
			},
		},
	}
}

func TestSaveBatch_ArchivesAndManifest(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	cfg := testConfig(t)

	saved, err := SaveBatch(outDir, testBatch(), cfg, testLogger())
	require.NoError(t, err)

	require.Len(t, saved.Archives, 3)
	assert.Equal(t, filepath.Join(outDir, "Widget_images.zip"), saved.Archives[0])
	assert.Equal(t, "", saved.Archives[1], "failed page has no archive")
	assert.Equal(t, filepath.Join(outDir, "Widget_2_images.zip"), saved.Archives[2], "name collision suffixed")

	data, err := os.ReadFile(saved.Archives[2])
	require.NoError(t, err)
	assert.Equal(t, []byte("b2"), readArchive(t, data)["Widget_2.png"])

	require.Equal(t, filepath.Join(outDir, config.DefaultManifestFilename), saved.ManifestPath)
	raw, err := os.ReadFile(saved.ManifestPath)
	require.NoError(t, err)

	var manifest models.BatchManifest
	require.NoError(t, yaml.Unmarshal(raw, &manifest))
	assert.Equal(t, "run-1", manifest.RunID)
	assert.Equal(t, 2, manifest.TotalImages)
	require.Len(t, manifest.Pages, 3)

	first := manifest.Pages[0]
	assert.Equal(t, "Widget_images.zip", first.Archive)
	assert.Equal(t, 1, first.Rejected)
	assert.Equal(t, map[string]int{"too_small": 1}, first.SkipReasons)
	require.Len(t, first.Images, 1)
	assert.Equal(t, utils.HashBytes([]byte("a1")), first.Images[0].SHA256)

	archiveBytes, err := os.ReadFile(saved.Archives[0])
	require.NoError(t, err)
	assert.Equal(t, utils.HashBytes(archiveBytes), first.ArchiveSHA256)

	failed := manifest.Pages[1]
	assert.Equal(t, "HTTP_4xx", failed.ErrorType)
	assert.Equal(t, "page fetch failed: 404", failed.Diagnostic)
	assert.Empty(t, failed.Archive)
	assert.Nil(t, failed.SkipReasons)
	assert.Equal(t, config.DefaultMinDimension, failed.MinWidth, "config default applied")
}

func TestSaveBatch_ManifestDisabled(t *testing.T) {
	outDir := t.TempDir()
	cfg := testConfig(t)
	disabled := false
	cfg.EnableManifest = &disabled

	saved, err := SaveBatch(outDir, testBatch(), cfg, testLogger())
	require.NoError(t, err)

	assert.Empty(t, saved.ManifestPath)
	_, statErr := os.Stat(filepath.Join(outDir, config.DefaultManifestFilename))
	assert.True(t, os.IsNotExist(statErr))
}

func TestUniqueArchiveName(t *testing.T) {
	used := make(map[string]bool)
	assert.Equal(t, "p_images.zip", uniqueArchiveName("p", used))
	assert.Equal(t, "p_2_images.zip", uniqueArchiveName("p", used))
	assert.Equal(t, "p_3_images.zip", uniqueArchiveName("p", used))
	assert.Equal(t, "q_images.zip", uniqueArchiveName("q", used))
}
