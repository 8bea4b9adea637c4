package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/image-extractor/pkg/config"
	"github.com/Sriram-PR/image-extractor/pkg/models"
	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

// SavedBatch reports where a batch was written
type SavedBatch struct {
	OutputDir    string
	Archives     []string // Per page, same index as BatchResult.Pages; "" when the page produced no archive
	ManifestPath string   // "" when the manifest is disabled
}

// SaveBatch writes one archive per page with at least one accepted image into outDir,
// plus the YAML manifest when enabled. Pages whose names collide within the batch get
// "_2", "_3", ... before the archive suffix.
func SaveBatch(outDir string, batch models.BatchResult, appCfg *config.AppConfig, log *logrus.Entry) (*SavedBatch, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating output directory '%s': %w", utils.ErrFilesystem, outDir, err)
	}

	saved := &SavedBatch{
		OutputDir: outDir,
		Archives:  make([]string, len(batch.Pages)),
	}
	manifest := models.BatchManifest{
		RunID:       batch.RunID,
		StartedAt:   batch.StartedAt,
		FinishedAt:  batch.FinishedAt,
		TotalImages: batch.TotalAccepted(),
		Pages:       make([]models.PageManifest, 0, len(batch.Pages)),
	}

	usedNames := make(map[string]bool)
	for i, page := range batch.Pages {
		pageLog := log.WithFields(logrus.Fields{"page_url": page.SourceURL, "page_name": page.PageName})
		minW, minH := appCfg.EffectiveThresholds(page.Request.MinWidth, page.Request.MinHeight)

		entry := models.PageManifest{
			SourceURL:   page.SourceURL,
			PageName:    page.PageName,
			MinWidth:    minW,
			MinHeight:   minH,
			Candidates:  page.CandidateCount,
			Accepted:    page.AcceptedCount,
			Rejected:    page.RejectedCount,
			Skipped:     page.SkippedCount,
			SkipReasons: models.ReasonCounts(page.SkipReasons),
			Diagnostic:  page.Diagnostic,
		}
		if page.Err != nil {
			entry.ErrorType = utils.CategorizeError(page.Err)
		}

		if len(page.Accepted) > 0 {
			data, err := WriteArchive(page.Accepted)
			if err != nil {
				return saved, err
			}

			archiveName := uniqueArchiveName(page.PageName, usedNames)
			archivePath := filepath.Join(outDir, archiveName)
			if err := os.WriteFile(archivePath, data, 0644); err != nil {
				return saved, fmt.Errorf("%w: writing archive '%s': %w", utils.ErrFilesystem, archivePath, err)
			}
			pageLog.Infof("Wrote %d image(s) to %s", len(page.Accepted), archivePath)

			saved.Archives[i] = archivePath
			entry.Archive = archiveName
			entry.ArchiveSHA256 = utils.HashBytes(data)
			for _, img := range page.Accepted {
				entry.Images = append(entry.Images, models.ImageManifest{
					Filename:  img.Filename,
					SourceURL: img.SourceURL,
					Width:     img.Width,
					Height:    img.Height,
					SHA256:    utils.HashBytes(img.Bytes),
				})
			}
		}

		manifest.Pages = append(manifest.Pages, entry)
	}

	if !appCfg.GetEffectiveEnableManifest() {
		log.Debug("Batch manifest is disabled.")
		return saved, nil
	}

	manifestPath := filepath.Join(outDir, appCfg.GetEffectiveManifestFilename())
	yamlData, err := yaml.Marshal(&manifest)
	if err != nil {
		return saved, fmt.Errorf("failed to marshal batch manifest to YAML: %w", err)
	}
	if err := os.WriteFile(manifestPath, yamlData, 0644); err != nil {
		return saved, fmt.Errorf("%w: writing manifest '%s': %w", utils.ErrFilesystem, manifestPath, err)
	}
	saved.ManifestPath = manifestPath

	log.Infof("Wrote batch manifest (%d pages, %d images) to %s", len(manifest.Pages), manifest.TotalImages, manifestPath)
	return saved, nil
}

// uniqueArchiveName returns the archive name for pageName, suffixed when already used in this batch
func uniqueArchiveName(pageName string, used map[string]bool) string {
	name := ArchiveName(pageName)
	for n := 2; used[name]; n++ {
		name = ArchiveName(fmt.Sprintf("%s_%d", pageName, n))
	}
	used[name] = true
	return name
}
