package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkipReason_String(t *testing.T) {
	tests := []struct {
		reason SkipReason
		want   string
	}{
		{SkipReasonNone, "accepted"},
		{SkipReasonFetchFailed, "fetch_failed"},
		{SkipReasonDecodeError, "decode_error"},
		{SkipReasonTooSmall, "too_small"},
		{SkipReasonTooLarge, "too_large"},
		{SkipReasonEncodeError, "encode_error"},
		{SkipReasonInternal, "internal_error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.reason.String())
	}
}

func TestSkipReason_IsValid(t *testing.T) {
	tests := []struct {
		reason SkipReason
		want   bool
	}{
		{SkipReasonNone, true},
		{SkipReasonFetchFailed, true},
		{SkipReasonDecodeError, true},
		{SkipReasonTooSmall, true},
		{SkipReasonTooLarge, true},
		{SkipReasonEncodeError, true},
		{SkipReasonInternal, true},
		{SkipReason("arbitrary"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.reason.IsValid(), "SkipReason(%q).IsValid()", string(tt.reason))
	}
}

func TestSkipReason_IsRejection(t *testing.T) {
	assert.True(t, SkipReasonTooSmall.IsRejection())
	assert.False(t, SkipReasonFetchFailed.IsRejection())
	assert.False(t, SkipReasonDecodeError.IsRejection())
	assert.False(t, SkipReasonNone.IsRejection())
	assert.False(t, SkipReasonTooLarge.IsRejection())
}

func TestReasonCounts(t *testing.T) {
	assert.Nil(t, ReasonCounts(nil))
	assert.Nil(t, ReasonCounts(map[SkipReason]int{}))

	got := ReasonCounts(map[SkipReason]int{
		SkipReasonTooSmall:    3,
		SkipReasonTooLarge:    1,
		SkipReasonInternal:    1,
		SkipReason("mystery"): 2,
	})
	assert.Equal(t, map[string]int{"too_small": 3, "too_large": 1, "internal_error": 3}, got)
}
