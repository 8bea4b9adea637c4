package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/image-extractor/pkg/models"
	"github.com/Sriram-PR/image-extractor/pkg/parse"
)

// imageAttr is one attribute an <img> reference may come from
type imageAttr struct {
	name   string
	srcset bool // Value is a srcset list; only its first URL is used
}

// imageAttrs in lookup priority order
var imageAttrs = []imageAttr{
	{name: "src"},
	{name: "data-src"},
	{name: "srcset", srcset: true},
	{name: "data-srcset", srcset: true},
}

// ResolveCandidates returns one candidate per <img> element that carries a usable reference,
// in document order. SourceTagIndex counts every <img>, including the ones that yield nothing.
func ResolveCandidates(doc *goquery.Document, base *url.URL) []models.ImageCandidate {
	var candidates []models.ImageCandidate

	doc.Find("img").Each(func(index int, element *goquery.Selection) {
		ref, attr := firstReference(element)
		if ref == "" {
			return
		}

		absURL, err := parse.ResolveReference(base, ref)
		if err != nil {
			return
		}

		candidates = append(candidates, models.ImageCandidate{
			SourceTagIndex: index,
			RawRef:         ref,
			URL:            absURL,
			Attribute:      attr,
		})
	})

	return candidates
}

// firstReference returns the first non-empty reference of an element and the attribute it came from.
// Inline data: URIs win like any other value; they later fail to fetch and are counted as skipped.
func firstReference(element *goquery.Selection) (string, string) {
	for _, attr := range imageAttrs {
		value, exists := element.Attr(attr.name)
		if !exists {
			continue
		}
		value = strings.TrimSpace(value)
		if attr.srcset {
			value = parse.FirstSrcsetURL(value)
		}
		if value == "" {
			continue
		}
		return value, attr.name
	}
	return "", ""
}
