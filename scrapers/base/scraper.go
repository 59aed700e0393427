package base

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BaseScraper fetches storefront pages, falling back to headless Chrome when enabled.
// UserAgent and Headers are sent by both fetchers.
type BaseScraper struct {
	Client    *http.Client
	Headless  bool
	UserAgent string
	Headers   map[string]string
	log       *zap.SugaredLogger
}

// NewBaseScraper creates a new BaseScraper instance
func NewBaseScraper(timeout time.Duration, headless bool, log *zap.SugaredLogger) *BaseScraper {
	return &BaseScraper{
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				ForceAttemptHTTP2:     false,
				TLSNextProto:          make(map[string]func(string, *tls.Conn) http.RoundTripper),
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		Headless:  headless,
		UserAgent: defaultUserAgent,
		Headers: map[string]string{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.9",
			"Upgrade-Insecure-Requests": "1",
		},
		log: log.With("component", "scraper"),
	}
}

// FetchDocument fetches the URL over HTTP and, if that fails or the validator rejects
// the page, retries with headless Chrome. A nil validator uses IsValidDocument.
func (b *BaseScraper) FetchDocument(ctx context.Context, url string, validator func(*goquery.Document) bool) (*goquery.Document, error) {
	if validator == nil {
		validator = IsValidDocument
	}

	// Strategy 1: HTTP Client (Fastest)
	doc, err := b.FetchDocumentHTTP(ctx, url)
	if err == nil {
		if validator(doc) {
			b.log.Debugw("HTTP fetch succeeded", "url", url)
			return doc, nil
		}
		b.log.Debugw("HTTP fetch yielded invalid content", "url", url)
		err = fmt.Errorf("page content rejected")
	} else {
		b.log.Debugw("HTTP fetch failed", "url", url, "error", err)
	}

	if !b.Headless {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	// Strategy 2: ChromeDP (Headless)
	doc, err = b.FetchDocumentChromeDP(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if !validator(doc) {
		return nil, fmt.Errorf("fetch %s: headless page content rejected", url)
	}
	b.log.Debugw("ChromeDP fetch succeeded", "url", url)
	return doc, nil
}

// IsValidDocument rejects captcha and access denied pages
func IsValidDocument(doc *goquery.Document) bool {
	title := strings.ToLower(strings.TrimSpace(doc.Find("title").Text()))
	if strings.Contains(title, "robot check") ||
		strings.Contains(title, "captcha") ||
		strings.Contains(title, "access denied") {
		return false
	}
	return doc.Find("body").Length() > 0
}

// FetchDocumentHTTP fetches the URL and returns a GoQuery document via standard HTTP
func (b *BaseScraper) FetchDocumentHTTP(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	for k, v := range b.Headers {
		req.Header.Set(k, v)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	res, err := b.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}

	return goquery.NewDocumentFromReader(res.Body)
}
