// Package webfetch adapts plain HTTP page retrieval to the
// provider.Fetcher contract, extracting readable text from HTML.
package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/docent-ai/placard-pipeline/internal/provider"
)

// maxBodyBytes caps how much of a page is read. Pages feeding a prompt
// never need more.
const maxBodyBytes = 1 << 20

type Fetcher struct {
	client *http.Client
}

func New(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client}
}

// Fetch retrieves one URL and reduces its HTML to a title and paragraph
// text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (provider.Fetched, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return provider.Fetched{}, &provider.ToolError{Err: fmt.Errorf("fetch %s: %w", url, err)}
	}
	req.Header.Set("User-Agent", "placard-pipeline/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
			return provider.Fetched{}, &provider.TransientError{Err: err}
		}
		return provider.Fetched{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode/100 == 5 {
			return provider.Fetched{}, &provider.TransientError{Err: err}
		}
		return provider.Fetched{}, &provider.ToolError{Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return provider.Fetched{}, &provider.ToolError{Err: fmt.Errorf("fetch %s: parse html: %w", url, err)}
	}

	return provider.Fetched{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  extractText(doc),
	}, nil
}

// extractText collects paragraph-level text, skipping script/style noise
// that goquery would otherwise include via a blanket Text() call.
func extractText(doc *goquery.Document) string {
	var parts []string
	doc.Find("p, h1, h2, h3, li").Each(func(_ int, sel *goquery.Selection) {
		t := strings.TrimSpace(sel.Text())
		if t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return strings.TrimSpace(doc.Find("body").Text())
	}
	return strings.Join(parts, "\n")
}
