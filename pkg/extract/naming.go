package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

// FallbackPageName is used when the page has no usable heading, title or og:title
const FallbackPageName = "product"

// DerivePageName picks a human-readable, filesystem-safe name for a page.
// Sources in priority order: first <h1> text, <title> text, og:title meta content, FallbackPageName.
func DerivePageName(doc *goquery.Document) string {
	name := collapseSpace(doc.Find("h1").First().Text())
	if name == "" {
		name = collapseSpace(doc.Find("title").First().Text())
	}
	if name == "" {
		content, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
		name = collapseSpace(content)
	}
	if name == "" {
		name = FallbackPageName
	}
	return utils.SanitizePageName(name)
}

// collapseSpace trims s and folds interior whitespace runs (newlines, tabs, indentation) to single spaces
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ImageFilename builds the bundle filename of an accepted image.
// The index is the candidate's 0-based position among all <img> elements, so rejected
// candidates leave gaps and names stay stable across runs.
func ImageFilename(pageName string, tagIndex int, ext string) string {
	return fmt.Sprintf("%s_%d.%s", pageName, tagIndex+1, ext)
}
