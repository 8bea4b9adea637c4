package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

const (
	acceptHTML  = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptImage = "image/avif,image/webp,image/png,image/jpeg,image/*;q=0.8,*/*;q=0.5"

	// drainLimit caps how much of a non-2xx body is read so the connection can be reused
	drainLimit = 64 << 10
)

// Response is a fully read, successful (2xx) HTTP response
type Response struct {
	StatusCode  int
	ContentType string
	FinalURL    *url.URL // After redirects
	Body        []byte
}

// Fetcher performs single-attempt GET requests with a per-request timeout.
// There is no retry: every failure is returned to the caller as an error for it to classify.
type Fetcher struct {
	client    *http.Client
	userAgent string
	inFlight  *semaphore.Weighted // Bounds concurrent requests across all callers; nil = unbounded
	log       *logrus.Entry
}

// NewFetcher creates a new Fetcher. inFlight may be nil.
func NewFetcher(client *http.Client, userAgent string, inFlight *semaphore.Weighted, log *logrus.Entry) *Fetcher {
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		inFlight:  inFlight,
		log:       log,
	}
}

// FetchPage retrieves page markup
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string, timeout time.Duration, maxBytes int64) (*Response, error) {
	return f.fetch(ctx, rawURL, acceptHTML, timeout, maxBytes)
}

// FetchImage retrieves raw image bytes
func (f *Fetcher) FetchImage(ctx context.Context, rawURL string, timeout time.Duration, maxBytes int64) (*Response, error) {
	return f.fetch(ctx, rawURL, acceptImage, timeout, maxBytes)
}

// fetch makes one GET request. The timeout covers the whole exchange including reading the body;
// waiting for an in-flight slot happens before the timeout starts.
// maxBytes <= 0 disables the size limit.
func (f *Fetcher) fetch(ctx context.Context, rawURL, accept string, timeout time.Duration, maxBytes int64) (*Response, error) {
	reqLog := f.log.WithField("url", rawURL)

	if f.inFlight != nil {
		if err := f.inFlight.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("waiting for request slot: %w", err)
		}
		defer f.inFlight.Release(1)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		// Surface the context error directly so timeouts categorize cleanly
		if ctxErr := ctx.Err(); ctxErr != nil {
			reqLog.Debugf("Request aborted: %v", ctxErr)
			return nil, ctxErr
		}
		reqLog.Debugf("Network error: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	statusCode := resp.StatusCode
	resLog := reqLog.WithFields(logrus.Fields{"status_code": statusCode})

	switch {
	case statusCode >= 200 && statusCode < 300:
		// Success
	case statusCode >= 400 && statusCode < 500:
		resLog.Debug("Client error (4xx)")
		io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
		return nil, fmt.Errorf("%w: status %s", utils.ErrClientHTTPError, resp.Status)
	case statusCode >= 500:
		resLog.Debug("Server error (5xx)")
		io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
		return nil, fmt.Errorf("%w: status %s", utils.ErrServerHTTPError, resp.Status)
	default:
		resLog.Debugf("Unexpected status: %d", statusCode)
		io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
		return nil, fmt.Errorf("%w: status %s", utils.ErrOtherHTTPError, resp.Status)
	}

	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: Content-Length %d > %d bytes", utils.ErrBodyTooLarge, resp.ContentLength, maxBytes)
	}

	var reader io.Reader = resp.Body
	if maxBytes > 0 {
		// One extra byte distinguishes "exactly at the limit" from "over it"
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", utils.ErrResponseBodyRead, ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", utils.ErrResponseBodyRead, err)
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", utils.ErrBodyTooLarge, maxBytes)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	resLog.Debugf("Fetched %d bytes", len(body))
	return &Response{
		StatusCode:  statusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    finalURL,
		Body:        body,
	}, nil
}
