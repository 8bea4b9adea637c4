package process

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/image-extractor/pkg/config"
	"github.com/Sriram-PR/image-extractor/pkg/extract"
	"github.com/Sriram-PR/image-extractor/pkg/fetch"
	"github.com/Sriram-PR/image-extractor/pkg/imaging"
	"github.com/Sriram-PR/image-extractor/pkg/models"
	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

// ImageTask holds what an image worker needs to process one candidate
type ImageTask struct {
	Position  int // Index into the page's candidate list; the result slot
	Candidate models.ImageCandidate
	Log       *logrus.Entry
}

// PageImages is the re-assembled result of processing all candidates of one page
type PageImages struct {
	Outcomes []models.CandidateOutcome // One per candidate, in resolver order
	Accepted []models.AcceptedImage    // In resolver order
	Rejected int                       // Below the size thresholds
	Skipped  int                       // Fetch, decode, pixel limit, encode or internal failures
	Reasons  map[models.SkipReason]int // Every non-accepted outcome by reason
}

// ImageProcessor fetches, decodes and filters the image candidates of a page with a bounded worker pool
type ImageProcessor struct {
	fetcher *fetch.Fetcher
	appCfg  config.AppConfig
	log     *logrus.Entry
}

// NewImageProcessor creates a new ImageProcessor
func NewImageProcessor(fetcher *fetch.Fetcher, appCfg config.AppConfig, log *logrus.Entry) *ImageProcessor {
	return &ImageProcessor{
		fetcher: fetcher,
		appCfg:  appCfg,
		log:     log,
	}
}

// ProcessImages runs every candidate through fetch, decode, size filter and naming.
// Workers complete in any order; each writes only its own result slot, so the returned
// outcomes and accepted images are always in candidate order.
func (ip *ImageProcessor) ProcessImages(
	ctx context.Context,
	candidates []models.ImageCandidate,
	pageName string,
	minWidth, minHeight int,
	taskLog *logrus.Entry,
) PageImages {
	outcomes := make([]models.CandidateOutcome, len(candidates))
	if len(candidates) == 0 {
		return PageImages{Outcomes: outcomes}
	}

	numImageWorkers := ip.appCfg.NumImageWorkers
	if numImageWorkers <= 0 {
		numImageWorkers = 1
	}
	if numImageWorkers > len(candidates) {
		numImageWorkers = len(candidates)
	}

	var imgWg sync.WaitGroup
	imageTaskChan := make(chan ImageTask, numImageWorkers*2)

	taskLog.Debugf("Launching %d image workers for %d candidate(s)", numImageWorkers, len(candidates))
	for i := 1; i <= numImageWorkers; i++ {
		go ip.imageWorker(ctx, i, imageTaskChan, pageName, minWidth, minHeight, outcomes, &imgWg)
	}

	for pos, candidate := range candidates {
		imgWg.Add(1)
		imageTaskChan <- ImageTask{
			Position:  pos,
			Candidate: candidate,
			Log: taskLog.WithFields(logrus.Fields{
				"img_url":   candidate.URL,
				"tag_index": candidate.SourceTagIndex,
			}),
		}
	}
	close(imageTaskChan)
	imgWg.Wait()

	result := PageImages{Outcomes: outcomes, Reasons: make(map[models.SkipReason]int)}
	for _, outcome := range outcomes {
		switch {
		case outcome.Accepted != nil:
			result.Accepted = append(result.Accepted, *outcome.Accepted)
			continue
		case outcome.Skip.IsRejection():
			result.Rejected++
		default:
			result.Skipped++
		}
		result.Reasons[outcome.Skip]++
	}

	taskLog.WithFields(logrus.Fields{
		"accepted": len(result.Accepted),
		"rejected": result.Rejected,
		"skipped":  result.Skipped,
	}).Debug("Image processing complete for page")
	return result
}

// imageWorker processes image tasks received from a channel until it is closed
func (ip *ImageProcessor) imageWorker(
	ctx context.Context,
	id int,
	taskChan <-chan ImageTask,
	pageName string,
	minWidth, minHeight int,
	outcomes []models.CandidateOutcome,
	imgWg *sync.WaitGroup,
) {
	workerLog := ip.log.WithField("image_worker_id", id)
	workerLog.Debug("Image worker started")

	for task := range taskChan {
		outcomes[task.Position] = ip.processSingleImageTask(ctx, task, pageName, minWidth, minHeight, imgWg)
	}

	workerLog.Debug("Image worker finished (task channel closed)")
}

// processSingleImageTask handles fetch, decode, filter and optional re-encode for one candidate
func (ip *ImageProcessor) processSingleImageTask(
	ctx context.Context,
	task ImageTask,
	pageName string,
	minWidth, minHeight int,
	imgWg *sync.WaitGroup,
) (outcome models.CandidateOutcome) {
	imgLog := task.Log
	outcome.Candidate = task.Candidate

	defer func() {
		if r := recover(); r != nil {
			imgLog.WithFields(logrus.Fields{"panic_info": r, "stack_trace": string(debug.Stack())}).Error("PANIC Recovered in processSingleImageTask")
			outcome = models.CandidateOutcome{
				Candidate: task.Candidate,
				Skip:      models.SkipReasonInternal,
				Err:       fmt.Errorf("panic processing img '%s': %v", task.Candidate.URL, r),
			}
		}
		if outcome.Skip != models.SkipReasonNone {
			skipLog := imgLog.WithField("skip_reason", outcome.Skip.String())
			if outcome.Err != nil {
				skipLog = skipLog.WithField("error_type", utils.CategorizeError(outcome.Err))
			}
			skipLog.Debugf("Image skipped: %v", outcome.Err)
		}
		imgWg.Done()
	}()

	resp, err := ip.fetcher.FetchImage(ctx, task.Candidate.URL, ip.appCfg.ImageTimeout, ip.appCfg.MaxImageSizeBytes)
	if err != nil {
		outcome.Skip = models.SkipReasonFetchFailed
		outcome.Err = fmt.Errorf("%w: %w", utils.ErrCandidateFetch, err)
		return outcome
	}

	decoded, err := imaging.Decode(resp.Body, ip.appCfg.MaxImagePixels)
	if err != nil {
		outcome.Skip = models.SkipReasonDecodeError
		if errors.Is(err, utils.ErrImageTooLarge) {
			outcome.Skip = models.SkipReasonTooLarge
		}
		outcome.Err = err
		return outcome
	}

	fetched := models.FetchedImage{
		Candidate:     task.Candidate,
		Bytes:         resp.Body,
		DecodedFormat: decoded.Format,
		Width:         decoded.Width,
		Height:        decoded.Height,
	}

	if !imaging.MeetsMinimum(fetched.Width, fetched.Height, minWidth, minHeight) {
		outcome.Skip = models.SkipReasonTooSmall
		imgLog.Debugf("Image %dx%d below minimum %dx%d", fetched.Width, fetched.Height, minWidth, minHeight)
		return outcome
	}

	if ip.appCfg.ReencodeImages && imaging.CanEncode(fetched.DecodedFormat) {
		fetched.Bytes, err = imaging.Encode(decoded.Image, fetched.DecodedFormat)
		if err != nil {
			outcome.Skip = models.SkipReasonEncodeError
			outcome.Err = err
			return outcome
		}
	}

	outcome.Accepted = acceptImage(fetched, pageName)
	imgLog.WithField("filename", outcome.Accepted.Filename).Debugf("Accepted %dx%d %s image", fetched.Width, fetched.Height, fetched.DecodedFormat)
	return outcome
}

// acceptImage names a fetched image for its page bundle
func acceptImage(fetched models.FetchedImage, pageName string) *models.AcceptedImage {
	return &models.AcceptedImage{
		Filename:  extract.ImageFilename(pageName, fetched.Candidate.SourceTagIndex, imaging.Extension(fetched.DecodedFormat)),
		Bytes:     fetched.Bytes,
		SourceURL: fetched.Candidate.URL,
		Width:     fetched.Width,
		Height:    fetched.Height,
	}
}
