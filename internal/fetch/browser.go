package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	cdpfetch "github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// MinContentLength is the shortest extracted text accepted from a static
// fetch before falling back to browser rendering.
const MinContentLength = 500

// Renderer returns the HTML of a page after client-side rendering.
type Renderer func(ctx context.Context, url string) (string, error)

// ShouldUseBrowser reports whether extracted text is too short to be the
// real page, which usually means a JavaScript-rendered app.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// BrowserRenderer returns a Renderer backed by headless Chrome.
// Chrome or Chromium must be installed.
func BrowserRenderer(timeout time.Duration) Renderer {
	return func(ctx context.Context, url string) (string, error) {
		return WithBrowser(ctx, url, timeout)
	}
}

// browserRequestAllowed applies the address guard to one request made by
// the page. Only http(s) requests reach the network.
func browserRequestAllowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return CheckURL(ctx, rawURL) == nil
	case "data", "blob":
		return true
	}
	return false
}

// WithBrowser renders a page in a headless browser and returns its HTML.
// Every request the page makes, redirects included, is paused and checked
// against the address guard before Chrome may send it.
func WithBrowser(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if err := CheckURL(ctx, url); err != nil {
		return "", err
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	chromedp.ListenTarget(browserCtx, func(ev any) {
		paused, ok := ev.(*cdpfetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			var action chromedp.Action = cdpfetch.ContinueRequest(paused.RequestID)
			if !browserRequestAllowed(browserCtx, paused.Request.URL) {
				action = cdpfetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient)
			}
			_ = chromedp.Run(browserCtx, action)
		}()
	})

	var html string
	err := chromedp.Run(browserCtx,
		cdpfetch.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give client-side rendering time to settle
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	return html, nil
}
