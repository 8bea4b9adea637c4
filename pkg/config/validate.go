package config

import (
	"fmt"
	"time"

	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// Thresholds: negative values are a caller mistake, zero means "use default"
	if c.MinWidth < 0 || c.MinHeight < 0 {
		return nil, fmt.Errorf("%w: min_width/min_height cannot be negative (got %dx%d)",
			utils.ErrConfigValidation, c.MinWidth, c.MinHeight)
	}
	if c.MinWidth == 0 {
		c.MinWidth = DefaultMinDimension
	}
	if c.MinHeight == 0 {
		c.MinHeight = DefaultMinDimension
	}

	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}

	// Timeouts
	if c.PageTimeout < 0 {
		warnings = append(warnings, "page_timeout cannot be negative, defaulting to 15s")
		c.PageTimeout = 0
	}
	if c.PageTimeout == 0 {
		c.PageTimeout = 15 * time.Second
	}
	if c.ImageTimeout < 0 {
		warnings = append(warnings, "image_timeout cannot be negative, defaulting to 5s")
		c.ImageTimeout = 0
	}
	if c.ImageTimeout == 0 {
		c.ImageTimeout = 5 * time.Second
	}

	// NumImageWorkers
	if c.NumImageWorkers <= 0 {
		warnings = append(warnings, "num_image_workers not specified or invalid, defaulting to 4")
		c.NumImageWorkers = 4
	}

	// MaxRequests
	if c.MaxRequests <= 0 {
		c.MaxRequests = 2 * c.NumImageWorkers
	}
	if c.MaxRequests < c.NumImageWorkers {
		warnings = append(warnings, fmt.Sprintf(
			"max_requests (%d) is lower than num_image_workers (%d); workers will wait on each other",
			c.MaxRequests, c.NumImageWorkers))
	}

	// Size caps
	if c.MaxPageSizeBytes < 0 {
		warnings = append(warnings, "max_page_size_bytes cannot be negative, defaulting to 10 MiB")
		c.MaxPageSizeBytes = 0
	}
	if c.MaxPageSizeBytes == 0 {
		c.MaxPageSizeBytes = 10 << 20
	}
	if c.MaxImageSizeBytes < 0 {
		warnings = append(warnings, "max_image_size_bytes cannot be negative, defaulting to 25 MiB")
		c.MaxImageSizeBytes = 0
	}
	if c.MaxImageSizeBytes == 0 {
		c.MaxImageSizeBytes = 25 << 20
	}
	if c.MaxImagePixels < 0 {
		warnings = append(warnings, fmt.Sprintf("max_image_pixels cannot be negative, defaulting to %d", DefaultMaxImagePixels))
		c.MaxImagePixels = 0
	}
	if c.MaxImagePixels == 0 {
		c.MaxImagePixels = DefaultMaxImagePixels
	}

	// OutputDir
	if c.OutputDir == "" {
		c.OutputDir = "./extracted_images"
	}

	// Manifest filename
	if c.GetEffectiveEnableManifest() && c.ManifestFilename == "" {
		c.ManifestFilename = DefaultManifestFilename
	}

	c.validateHTTPClientSettings()

	return warnings, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 60 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = c.NumImageWorkers
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}
