package config

import "time"

const (
	DefaultUserAgent        = "Mozilla/5.0 (compatible; image-extractor/1.0)"
	DefaultManifestFilename = "manifest.yaml"
	DefaultMinDimension     = 300
	DefaultMaxImagePixels   = 50_000_000
)

// AppConfig holds the global application configuration
type AppConfig struct {
	UserAgent          string           `yaml:"user_agent" envconfig:"USER_AGENT"`
	PageTimeout        time.Duration    `yaml:"page_timeout,omitempty" envconfig:"PAGE_TIMEOUT"`   // Timeout for fetching page markup
	ImageTimeout       time.Duration    `yaml:"image_timeout,omitempty" envconfig:"IMAGE_TIMEOUT"` // Timeout for a single candidate image fetch
	NumImageWorkers    int              `yaml:"num_image_workers,omitempty" envconfig:"NUM_IMAGE_WORKERS"`
	MaxRequests        int              `yaml:"max_requests,omitempty" envconfig:"MAX_REQUESTS"` // In-flight fetches across all running batches
	MinWidth           int              `yaml:"min_width,omitempty" envconfig:"MIN_WIDTH"`
	MinHeight          int              `yaml:"min_height,omitempty" envconfig:"MIN_HEIGHT"`
	MaxPageSizeBytes   int64            `yaml:"max_page_size_bytes,omitempty" envconfig:"MAX_PAGE_SIZE_BYTES"`
	MaxImageSizeBytes  int64            `yaml:"max_image_size_bytes,omitempty" envconfig:"MAX_IMAGE_SIZE_BYTES"`
	MaxImagePixels     int64            `yaml:"max_image_pixels,omitempty" envconfig:"MAX_IMAGE_PIXELS"` // Decoded width*height cap, checked from the header
	RespectRobotsTxt   bool             `yaml:"respect_robots_txt,omitempty" envconfig:"RESPECT_ROBOTS_TXT"`
	ReencodeImages     bool             `yaml:"reencode_images,omitempty" envconfig:"REENCODE_IMAGES"`
	OutputDir          string           `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	EnableManifest     *bool            `yaml:"enable_manifest,omitempty" envconfig:"ENABLE_MANIFEST"`
	ManifestFilename   string           `yaml:"manifest_filename,omitempty" envconfig:"MANIFEST_FILENAME"`
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty" ignored:"true"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Upper bound for any request; per-request timeouts are usually shorter
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// GetEffectiveEnableManifest reports whether the YAML batch manifest should be written.
// Unset means enabled.
func (c *AppConfig) GetEffectiveEnableManifest() bool {
	if c.EnableManifest != nil {
		return *c.EnableManifest
	}
	return true
}

// GetEffectiveManifestFilename returns the manifest filename, falling back to the default
func (c *AppConfig) GetEffectiveManifestFilename() string {
	if c.ManifestFilename != "" {
		return c.ManifestFilename
	}
	return DefaultManifestFilename
}

// EffectiveThresholds fills in non-positive request thresholds from the config defaults
func (c *AppConfig) EffectiveThresholds(minWidth, minHeight int) (int, int) {
	if minWidth <= 0 {
		minWidth = c.MinWidth
	}
	if minHeight <= 0 {
		minHeight = c.MinHeight
	}
	return minWidth, minHeight
}
