package parse

import (
	"errors"
	"net/url"
	"testing"

	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

func TestNormalizePageURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "AlreadyHTTPS",
			input:    "https://example.com/product/1",
			expected: "https://example.com/product/1",
		},
		{
			name:     "PlainHTTPKept",
			input:    "http://example.com/a",
			expected: "http://example.com/a",
		},
		{
			name:     "MissingSchemeDefaultsToHTTPS",
			input:    "example.com/product",
			expected: "https://example.com/product",
		},
		{
			name:     "MissingSchemeWithPort",
			input:    "localhost:8080/shop",
			expected: "https://localhost:8080/shop",
		},
		{
			name:     "SchemeRelative",
			input:    "//cdn.example.com/page",
			expected: "https://cdn.example.com/page",
		},
		{
			name:     "WhitespaceTrimmed",
			input:    "  https://example.com/x \n",
			expected: "https://example.com/x",
		},
		{
			name:     "SchemeAndHostLowercased",
			input:    "HTTPS://Example.COM/Path",
			expected: "https://example.com/Path", // Path case preserved
		},
		{
			name:     "QueryAndFragmentPreserved",
			input:    "example.com/p?id=7#reviews",
			expected: "https://example.com/p?id=7#reviews",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, parsed, err := NormalizePageURL(tt.input)
			if err != nil {
				t.Fatalf("NormalizePageURL(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("NormalizePageURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			if parsed == nil || parsed.String() != got {
				t.Errorf("parsed URL %v does not match normalized string %q", parsed, got)
			}
		})
	}
}

func TestNormalizePageURL_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"WhitespaceOnly", "   "},
		{"UnsupportedScheme", "ftp://example.com/file"},
		{"NoHost", "https:///path-only"},
		{"InvalidEscape", "https://example.com/%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NormalizePageURL(tt.input)
			if err == nil {
				t.Fatalf("NormalizePageURL(%q) expected error, got nil", tt.input)
			}
			if !errors.Is(err, utils.ErrParsing) {
				t.Errorf("expected ErrParsing, got %v", err)
			}
		})
	}
}

func TestResolveReference(t *testing.T) {
	base, _ := url.Parse("https://shop.example.com/products/widget.html")

	tests := []struct {
		name     string
		ref      string
		expected string
	}{
		{"Absolute", "https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"RootRelative", "/img/a.jpg", "https://shop.example.com/img/a.jpg"},
		{"PathRelative", "a.jpg", "https://shop.example.com/products/a.jpg"},
		{"ParentRelative", "../img/b.png", "https://shop.example.com/img/b.png"},
		{"SchemeRelative", "//cdn.example.com/c.webp", "https://cdn.example.com/c.webp"},
		{"WhitespaceTrimmed", "  d.gif  ", "https://shop.example.com/products/d.gif"},
		{"QueryKept", "e.jpg?w=800", "https://shop.example.com/products/e.jpg?w=800"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveReference(base, tt.ref)
			if err != nil {
				t.Fatalf("ResolveReference(%q) unexpected error: %v", tt.ref, err)
			}
			if got != tt.expected {
				t.Errorf("ResolveReference(%q) = %q, want %q", tt.ref, got, tt.expected)
			}
		})
	}
}

func TestResolveReference_Invalid(t *testing.T) {
	base, _ := url.Parse("https://example.com/")
	if _, err := ResolveReference(base, "http://[::1"); !errors.Is(err, utils.ErrParsing) {
		t.Errorf("expected ErrParsing, got %v", err)
	}
}

func TestFirstSrcsetURL(t *testing.T) {
	tests := []struct {
		name     string
		srcset   string
		expected string
	}{
		{"SingleNoDescriptor", "a.jpg", "a.jpg"},
		{"WidthDescriptors", "small.jpg 480w, large.jpg 1080w", "small.jpg"},
		{"DensityDescriptors", "img@1x.png 1x,img@2x.png 2x", "img@1x.png"},
		{"LeadingWhitespace", "   lead.jpg   320w", "lead.jpg"},
		{"NewlineSeparated", "\n  first.webp 1x,\n  second.webp 2x", "first.webp"},
		{"Empty", "", ""},
		{"WhitespaceOnly", "   ", ""},
		{"EmptyFirstEntry", ", b.jpg 2x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstSrcsetURL(tt.srcset); got != tt.expected {
				t.Errorf("FirstSrcsetURL(%q) = %q, want %q", tt.srcset, got, tt.expected)
			}
		})
	}
}
