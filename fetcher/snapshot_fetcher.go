package fetcher

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	log "github.com/sirupsen/logrus"
)

// SnapshotFetcher loads a saved results page, either over HTTP or from disk
type SnapshotFetcher struct {
	userAgent string
	timeout   time.Duration
}

// NewSnapshotFetcher creates a SnapshotFetcher. An empty userAgent keeps colly's default.
func NewSnapshotFetcher(userAgent string, timeout time.Duration) *SnapshotFetcher {
	return &SnapshotFetcher{
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Fetch returns the HTML found at source, which is a http(s) URL, a file URL
// or a local path
func (sf *SnapshotFetcher) Fetch(source string) (string, error) {
	target, err := resolveSource(source)
	if err != nil {
		return "", err
	}

	c := colly.NewCollector(colly.AllowURLRevisit())
	if sf.userAgent != "" {
		c.UserAgent = sf.userAgent
	}
	if sf.timeout > 0 {
		c.SetRequestTimeout(sf.timeout)
	}

	transport := &http.Transport{}
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	c.WithTransport(transport)

	var (
		body     string
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
		log.WithFields(log.Fields{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
			"bytes":  len(r.Body),
		}).Debug("Fetched snapshot")
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("failed to fetch %s (status %d): %w", r.Request.URL, r.StatusCode, err)
	})

	if err := c.Visit(target); err != nil {
		if fetchErr != nil {
			return "", fetchErr
		}
		return "", fmt.Errorf("failed to visit %s: %w", target, err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fetchErr
	}
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("snapshot %s is empty", source)
	}
	return body, nil
}

// resolveSource turns a local path into a file URL and leaves URLs alone
func resolveSource(source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", fmt.Errorf("snapshot source is empty")
	}

	if u, err := url.Parse(source); err == nil {
		switch u.Scheme {
		case "http", "https", "file":
			return source, nil
		}
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("failed to resolve snapshot path: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
