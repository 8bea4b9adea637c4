package models

import "time"

// PageRequest is one page to extract images from, with its minimum accepted dimensions
type PageRequest struct {
	URL       string `json:"url" yaml:"url"`
	MinWidth  int    `json:"min_width" yaml:"min_width"`
	MinHeight int    `json:"min_height" yaml:"min_height"`
}

// ImageCandidate is an absolute image reference resolved from one <img> element
type ImageCandidate struct {
	SourceTagIndex int    // Position among all <img> elements on the page, 0-based
	RawRef         string // Attribute value the reference came from, before resolution
	URL            string // Absolute URL resolved against the page URL
	Attribute      string // Which attribute supplied RawRef (src, data-src, srcset, data-srcset)
}

// FetchedImage is a candidate whose bytes were retrieved and decoded
type FetchedImage struct {
	Candidate     ImageCandidate
	Bytes         []byte
	DecodedFormat string // As reported by the decoder, e.g. "jpeg", "png", "webp"
	Width         int
	Height        int
}

// AcceptedImage is a fetched image that passed the size filter, named for its bundle
type AcceptedImage struct {
	Filename  string
	Bytes     []byte
	SourceURL string
	Width     int
	Height    int
}

// CandidateOutcome is the tagged result of processing a single candidate.
// Exactly one of Accepted (Skip == SkipReasonNone) or Skip is meaningful.
type CandidateOutcome struct {
	Candidate ImageCandidate
	Accepted  *AcceptedImage
	Skip      SkipReason
	Err       error // Underlying cause for fetch/decode skips; nil for rejections
}

// PageResult is the bundle of accepted images for one page, plus its diagnostic
type PageResult struct {
	Request        PageRequest // As supplied by the caller
	SourceURL      string      // Normalized request URL (or the raw input when it could not be normalized)
	PageName       string
	Accepted       []AcceptedImage // In resolver (tag) order
	AcceptedCount  int
	CandidateCount int
	RejectedCount  int                // Below the size thresholds
	SkippedCount   int                // Fetch, decode or pixel-limit failures
	SkipReasons    map[SkipReason]int // Every non-accepted candidate by reason, rejections included
	Diagnostic     string
	Err            error // Page-level failure cause, nil unless the page itself failed
}

// Failed reports whether the page itself could not be processed
func (r PageResult) Failed() bool {
	return r.Err != nil
}

// BatchResult holds one PageResult per request, in request order
type BatchResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      []PageResult
}

// TotalAccepted sums accepted images across all pages
func (b BatchResult) TotalAccepted() int {
	total := 0
	for _, p := range b.Pages {
		total += p.AcceptedCount
	}
	return total
}

// BatchManifest is the YAML summary written next to the archives of a batch run
type BatchManifest struct {
	RunID       string         `yaml:"run_id"`
	StartedAt   time.Time      `yaml:"started_at"`
	FinishedAt  time.Time      `yaml:"finished_at"`
	TotalImages int            `yaml:"total_images"`
	Pages       []PageManifest `yaml:"pages"`
}

// PageManifest describes one page of a batch run in the manifest
type PageManifest struct {
	SourceURL     string          `yaml:"source_url"`
	PageName      string          `yaml:"page_name"`
	MinWidth      int             `yaml:"min_width"`
	MinHeight     int             `yaml:"min_height"`
	Candidates    int             `yaml:"candidates"`
	Accepted      int             `yaml:"accepted"`
	Rejected      int             `yaml:"rejected"`
	Skipped       int             `yaml:"skipped"`
	SkipReasons   map[string]int  `yaml:"skip_reasons,omitempty"`
	Diagnostic    string          `yaml:"diagnostic,omitempty"`
	ErrorType     string          `yaml:"error_type,omitempty"`
	Archive       string          `yaml:"archive,omitempty"` // Relative to the output dir
	ArchiveSHA256 string          `yaml:"archive_sha256,omitempty"`
	Images        []ImageManifest `yaml:"images,omitempty"`
}

// ImageManifest describes one accepted image inside a page archive
type ImageManifest struct {
	Filename  string `yaml:"filename"`
	SourceURL string `yaml:"source_url"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	SHA256    string `yaml:"sha256"`
}
