package models

// SkipReason tags why a candidate did not end up in its page bundle
type SkipReason string

const (
	SkipReasonNone        SkipReason = ""               // Zero value = accepted
	SkipReasonFetchFailed SkipReason = "fetch_failed"   // Network error, non-2xx status or timeout
	SkipReasonDecodeError SkipReason = "decode_error"   // Bytes are not a recognised raster image
	SkipReasonTooSmall    SkipReason = "too_small"      // Below minimum width or height
	SkipReasonTooLarge    SkipReason = "too_large"      // Pixel count over max_image_pixels
	SkipReasonEncodeError SkipReason = "encode_error"   // Re-encoding was requested and failed
	SkipReasonInternal    SkipReason = "internal_error" // Recovered panic
)

// String implements fmt.Stringer for logging
func (s SkipReason) String() string {
	if s == "" {
		return "accepted"
	}
	return string(s)
}

// IsValid returns true if the reason is a known value (including none)
func (s SkipReason) IsValid() bool {
	switch s {
	case SkipReasonNone, SkipReasonFetchFailed, SkipReasonDecodeError, SkipReasonTooSmall, SkipReasonTooLarge, SkipReasonEncodeError, SkipReasonInternal:
		return true
	}
	return false
}

// ReasonCounts converts per-reason counts to string keys for serialisation.
// Unknown reasons are folded into internal_error. Returns nil for no entries.
func ReasonCounts(counts map[SkipReason]int) map[string]int {
	if len(counts) == 0 {
		return nil
	}
	named := make(map[string]int, len(counts))
	for reason, n := range counts {
		if !reason.IsValid() || reason == SkipReasonNone {
			reason = SkipReasonInternal
		}
		named[reason.String()] += n
	}
	return named
}

// IsRejection reports whether the candidate was a valid image filtered out by size.
// Rejections are normal outcomes, not errors.
func (s SkipReason) IsRejection() bool {
	return s == SkipReasonTooSmall
}
