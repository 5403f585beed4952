package fetch

import (
	"context"
	"log/slog"
)

// Posting is the readable text of a job posting page.
type Posting struct {
	URL      string
	Title    string
	Text     string
	Platform Platform
	Rendered bool
}

// Fetcher retrieves job postings, optionally rendering thin pages in a browser.
type Fetcher struct {
	opts   *Options
	render Renderer
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. A nil render disables the browser fallback.
func NewFetcher(opts *Options, render Renderer, logger *slog.Logger) *Fetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{opts: opts, render: render, logger: logger}
}

// Posting fetches a job posting and extracts its main text. When the static
// page yields less than MinContentLength characters and a renderer is
// configured, the page is rendered and extracted again.
func (f *Fetcher) Posting(ctx context.Context, urlStr string) (*Posting, error) {
	platform := DetectPlatform(urlStr)
	content := PlatformContentSelectors(platform)
	noise := PlatformNoiseSelectors(platform)

	res, err := URL(ctx, urlStr, f.opts)
	if err != nil {
		return nil, err
	}
	text, err := ExtractMainText(res.HTML, content, noise...)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to extract text", Cause: err}
	}
	posting := &Posting{URL: urlStr, Title: PageTitle(res.HTML), Text: text, Platform: platform}

	if !ShouldUseBrowser(text) || f.render == nil {
		return checkPosting(posting)
	}

	f.logger.InfoContext(ctx, "static page too thin, rendering in browser",
		"url", urlStr, "platform", string(platform), "text_length", len(text))
	html, err := f.render(ctx, urlStr)
	if err != nil {
		// Keep the static text when rendering is unavailable
		f.logger.WarnContext(ctx, "browser rendering failed", "url", urlStr, "error", err)
		return checkPosting(posting)
	}
	rendered, err := ExtractMainText(html, content, noise...)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to extract rendered text", Cause: err}
	}
	if len(rendered) > len(text) {
		posting.Text = rendered
		posting.Rendered = true
		if title := PageTitle(html); title != "" {
			posting.Title = title
		}
	}
	return checkPosting(posting)
}

func checkPosting(p *Posting) (*Posting, error) {
	if p.Text == "" {
		return nil, &Error{URL: p.URL, Message: "page has no readable text"}
	}
	return p, nil
}
