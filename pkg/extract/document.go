package extract

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

// ParseDocument parses page markup into a goquery document.
// Non-UTF-8 pages are transcoded using the Content-Type charset, a <meta> declaration
// or content sniffing, in that order.
func ParseDocument(body []byte, contentType string) (*goquery.Document, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: HTML charset: %w", utils.ErrParsing, err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: HTML: %w", utils.ErrParsing, err)
	}
	return doc, nil
}
