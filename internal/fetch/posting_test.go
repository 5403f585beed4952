package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func servePage(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func longDescription() string {
	return strings.Repeat("Build and operate Go services at scale. ", 20)
}

func TestFetcher_Posting_StaticPage(t *testing.T) {
	server := servePage(t, `<html><head><title>Backend Engineer</title></head><body>
		<div class="job-description"><p>`+longDescription()+`</p></div>
		<form>Apply now</form></body></html>`)

	rendered := false
	f := NewFetcher(localOptions(), func(context.Context, string) (string, error) {
		rendered = true
		return "", nil
	}, quietLogger())

	posting, err := f.Posting(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", posting.Title)
	assert.Contains(t, posting.Text, "Build and operate Go services")
	assert.NotContains(t, posting.Text, "Apply now")
	assert.False(t, posting.Rendered)
	assert.False(t, rendered, "a full static page must not be rendered")
}

func TestFetcher_Posting_BrowserFallback(t *testing.T) {
	server := servePage(t, `<html><body><div id="root">Loading...</div></body></html>`)

	f := NewFetcher(localOptions(), func(_ context.Context, url string) (string, error) {
		assert.Equal(t, server.URL, url)
		return `<html><head><title>Rendered Role</title></head><body><main>` + longDescription() + `</main></body></html>`, nil
	}, quietLogger())

	posting, err := f.Posting(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, posting.Rendered)
	assert.Equal(t, "Rendered Role", posting.Title)
	assert.Contains(t, posting.Text, "Build and operate Go services")
}

func TestFetcher_Posting_RenderFailureKeepsStaticText(t *testing.T) {
	server := servePage(t, `<html><body><main>Short but real</main></body></html>`)

	f := NewFetcher(localOptions(), func(context.Context, string) (string, error) {
		return "", errors.New("chrome not installed")
	}, quietLogger())

	posting, err := f.Posting(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Short but real", posting.Text)
	assert.False(t, posting.Rendered)
}

func TestFetcher_Posting_EmptyPage(t *testing.T) {
	server := servePage(t, `<html><body><script>app()</script></body></html>`)

	f := NewFetcher(localOptions(), nil, quietLogger())
	_, err := f.Posting(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "no readable text")
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("   short   "))
	assert.False(t, ShouldUseBrowser(strings.Repeat("x", MinContentLength)))
}
