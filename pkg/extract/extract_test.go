package extract

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := ParseDocument([]byte(html), "text/html; charset=utf-8")
	require.NoError(t, err)
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestResolveCandidates_AttributePriority(t *testing.T) {
	tests := []struct {
		name     string
		img      string
		wantURL  string
		wantAttr string
	}{
		{"src wins", `<img src="/a.jpg" data-src="/b.jpg" srcset="/c.jpg 2x">`, "https://shop.example/a.jpg", "src"},
		{"data-src fallback", `<img data-src="b.png">`, "https://shop.example/items/b.png", "data-src"},
		{"empty src falls through", `<img src="  " data-src="/b.jpg">`, "https://shop.example/b.jpg", "data-src"},
		{"srcset first entry", `<img srcset="/small.jpg 480w, /large.jpg 1080w">`, "https://shop.example/small.jpg", "srcset"},
		{"data-srcset last resort", `<img data-srcset="  /lazy.webp 1x, /lazy@2x.webp 2x">`, "https://shop.example/lazy.webp", "data-srcset"},
		{"absolute reference kept", `<img src="https://cdn.example/x.gif">`, "https://cdn.example/x.gif", "src"},
		{"scheme-relative reference", `<img src="//cdn.example/x.gif">`, "https://cdn.example/x.gif", "src"},
		{"inline data uri wins over later attributes", `<img src="data:image/gif;base64,R0lGOD" data-src="/real.jpg">`, "data:image/gif;base64,R0lGOD", "src"},
	}

	base := mustURL(t, "https://shop.example/items/widget")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, "<html><body>"+tt.img+"</body></html>")
			candidates := ResolveCandidates(doc, base)

			require.Len(t, candidates, 1)
			assert.Equal(t, tt.wantURL, candidates[0].URL)
			assert.Equal(t, tt.wantAttr, candidates[0].Attribute)
			assert.Equal(t, 0, candidates[0].SourceTagIndex)
		})
	}
}

func TestResolveCandidates_DataSrcOnSecondElement(t *testing.T) {
	doc := mustDoc(t, `<img src="a.png"><img data-src="b.png">`)
	candidates := ResolveCandidates(doc, mustURL(t, "https://shop.example/p/"))

	require.Len(t, candidates, 2)
	assert.Equal(t, "https://shop.example/p/a.png", candidates[0].URL)
	assert.Equal(t, "https://shop.example/p/b.png", candidates[1].URL)
	assert.Equal(t, "data-src", candidates[1].Attribute)
	assert.Equal(t, 1, candidates[1].SourceTagIndex)
}

func TestResolveCandidates_SkipsEmptyElementsButCountsThem(t *testing.T) {
	doc := mustDoc(t, `<img src="/1.jpg"><img alt="no source"><img srcset=""><img src="/4.jpg">`)
	candidates := ResolveCandidates(doc, mustURL(t, "https://shop.example/"))

	require.Len(t, candidates, 2)
	assert.Equal(t, 0, candidates[0].SourceTagIndex)
	assert.Equal(t, 3, candidates[1].SourceTagIndex)
}

func TestResolveCandidates_OnePerElementInDocumentOrder(t *testing.T) {
	var html strings.Builder
	for i := 0; i < 20; i++ {
		html.WriteString(`<div><img src="/s.jpg" data-src="/d.jpg" srcset="/a.jpg 1x, /b.jpg 2x" data-srcset="/e.jpg"></div>`)
	}
	doc := mustDoc(t, html.String())
	candidates := ResolveCandidates(doc, mustURL(t, "https://shop.example/"))

	require.Len(t, candidates, 20)
	seen := make(map[int]bool)
	for i, c := range candidates {
		assert.Equal(t, i, c.SourceTagIndex, "document order")
		assert.False(t, seen[c.SourceTagIndex], "duplicate candidate for element %d", c.SourceTagIndex)
		seen[c.SourceTagIndex] = true
	}
}

func TestResolveCandidates_NoImages(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>nothing here</p></body></html>`)
	assert.Empty(t, ResolveCandidates(doc, mustURL(t, "https://shop.example/")))
}

func TestDerivePageName(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"h1 beats title", `<title>Shop</title><h1>Widget</h1>`, "Widget"},
		{"title when no h1", `<title> Shop </title>`, "Shop"},
		{"empty h1 falls through", `<title>Shop</title><h1>   </h1>`, "Shop"},
		{"og:title last", `<meta property="og:title" content=" Gadget ">`, "Gadget"},
		{"fallback", `<p>plain</p>`, FallbackPageName},
		{"sanitized", `<h1>My/Product:"Pro"</h1>`, "My_Product__Pro_"},
		{"nested heading text", `<h1><span>Deluxe</span> Lamp</h1>`, "Deluxe Lamp"},
		{"interior whitespace collapsed", "<h1>Red\n   Widget\t\tXL</h1>", "Red Widget XL"},
		{"multi-line title collapsed", "<title>\n  Oak\n  Chair\n</title>", "Oak Chair"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DerivePageName(mustDoc(t, tt.html)))
		})
	}
}

func TestDerivePageName_Truncated(t *testing.T) {
	doc := mustDoc(t, "<h1>"+strings.Repeat("x", 250)+"</h1>")
	name := DerivePageName(doc)

	assert.Len(t, name, utils.MaxPageNameLength)
}

func TestImageFilename(t *testing.T) {
	assert.Equal(t, "Widget_1.jpg", ImageFilename("Widget", 0, "jpg"))
	assert.Equal(t, "Widget_3.png", ImageFilename("Widget", 2, "png"))
}

func TestParseDocument_Latin1(t *testing.T) {
	// "Café" in ISO-8859-1
	body := []byte("<html><head><title>Caf\xe9</title></head></html>")
	doc, err := ParseDocument(body, "text/html; charset=iso-8859-1")
	require.NoError(t, err)

	assert.Equal(t, "Café", DerivePageName(doc))
}
