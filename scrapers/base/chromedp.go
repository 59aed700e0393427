package base

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const (
	// renderTimeout bounds one headless page load
	renderTimeout = time.Minute
	// settleDelay lets client-side rendering fill in result cards
	settleDelay = 2 * time.Second
)

// FetchDocumentChromeDP renders the URL in a fresh headless Chrome and parses the resulting HTML
func (b *BaseScraper) FetchDocumentChromeDP(ctx context.Context, url string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var html string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(b.browserHeaders()),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}
	b.log.Debugw("Rendered page", "url", url, "bytes", len(html))

	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (b *BaseScraper) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", "new"))
	if b.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.UserAgent))
	}
	return opts
}

// browserHeaders converts the scraper headers for the DevTools protocol.
// The user agent is set on the allocator instead.
func (b *BaseScraper) browserHeaders() network.Headers {
	headers := make(network.Headers, len(b.Headers))
	for k, v := range b.Headers {
		if strings.EqualFold(k, "User-Agent") {
			continue
		}
		headers[k] = v
	}
	return headers
}
