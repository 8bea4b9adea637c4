package fetch

import (
	"context"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// maxRobotsBytes caps robots.txt downloads; anything larger is treated as unavailable
const maxRobotsBytes = 512 << 10

// RobotsChecker decides whether a page may be fetched according to its host's robots.txt.
// It keeps no cache: each check fetches robots.txt once, so no state outlives a page.
type RobotsChecker struct {
	fetcher   *Fetcher
	userAgent string
	timeout   time.Duration
	log       *logrus.Entry
}

// NewRobotsChecker creates a RobotsChecker
func NewRobotsChecker(fetcher *Fetcher, userAgent string, timeout time.Duration, log *logrus.Entry) *RobotsChecker {
	return &RobotsChecker{
		fetcher:   fetcher,
		userAgent: userAgent,
		timeout:   timeout,
		log:       log,
	}
}

// Allowed reports whether pageURL may be fetched. A missing, unreachable or
// unparsable robots.txt allows everything.
func (rc *RobotsChecker) Allowed(ctx context.Context, pageURL *url.URL) bool {
	robotsURL := url.URL{Scheme: pageURL.Scheme, Host: pageURL.Host, Path: "/robots.txt"}
	hostLog := rc.log.WithFields(logrus.Fields{"host": pageURL.Host, "robots_url": robotsURL.String()})

	resp, err := rc.fetcher.FetchPage(ctx, robotsURL.String(), rc.timeout, maxRobotsBytes)
	if err != nil {
		hostLog.Debugf("robots.txt unavailable, allowing: %v", err)
		return true
	}

	data, err := robotstxt.FromBytes(resp.Body)
	if err != nil {
		hostLog.Warnf("Failed to parse robots.txt, allowing: %v", err)
		return true
	}

	path := pageURL.EscapedPath()
	if path == "" {
		path = "/"
	}
	if pageURL.RawQuery != "" {
		path += "?" + pageURL.RawQuery
	}
	allowed := data.TestAgent(path, rc.userAgent)
	hostLog.WithField("allowed", allowed).Debug("robots.txt check")
	return allowed
}
