package enrich

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/docent-ai/placard-pipeline/internal/artwork"
	"github.com/docent-ai/placard-pipeline/internal/provider"
	"github.com/docent-ai/placard-pipeline/internal/resilient"
	"golang.org/x/sync/semaphore"
)

type ContentOptions struct {
	// MaxURLs bounds how many prioritized candidates are fetched.
	MaxURLs int
	// MaxConcurrent bounds simultaneous outbound fetches.
	MaxConcurrent int
	// MaxSnippets bounds how many per-source blocks feed the summary.
	MaxSnippets int
	Logger      *log.Logger
}

func (o ContentOptions) withDefaults() ContentOptions {
	if o.MaxURLs <= 0 {
		o.MaxURLs = 3
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 3
	}
	if o.MaxSnippets <= 0 {
		o.MaxSnippets = 5
	}
	return o
}

// ContentEnricher fetches page bodies for search hits and folds them
// into the enriched description. Per-URL failures are independent.
type ContentEnricher struct {
	fetcher provider.Fetcher
	gen     provider.Generator
	caller  *resilient.Caller
	opts    ContentOptions
	logger  *log.Logger
}

func NewContentEnricher(fetcher provider.Fetcher, gen provider.Generator, caller *resilient.Caller, opts ContentOptions) *ContentEnricher {
	opts = opts.withDefaults()
	return &ContentEnricher{fetcher: fetcher, gen: gen, caller: caller, opts: opts, logger: opts.Logger}
}

// EnrichContent runs only when search was actually performed and left
// candidate URLs; otherwise the stage reports itself skipped. All
// failures degrade, never propagate.
func (e *ContentEnricher) EnrichContent(ctx context.Context, ws artwork.WebSearchInfo) artwork.ContentFetchInfo {
	if !ws.Performed || len(ws.Results) == 0 {
		if e.logger != nil {
			e.logger.Printf("content: no search results to fetch, skipping")
		}
		return artwork.ContentFetchInfo{Performed: false, Timestamp: time.Now()}
	}

	urls := make([]string, 0, len(ws.Results))
	for _, r := range ws.Results {
		urls = append(urls, r.URL)
	}
	urls = prioritizeURLs(filterURLs(urls), e.opts.MaxURLs)
	if len(urls) == 0 {
		return artwork.ContentFetchInfo{Performed: false, Timestamp: time.Now()}
	}

	results := e.fetchAll(ctx, urls)

	okCount := 0
	for _, r := range results {
		if r.Success {
			okCount++
		}
	}
	if e.logger != nil {
		e.logger.Printf("content: fetched %d/%d urls", okCount, len(results))
	}
	if okCount == 0 {
		return artwork.ContentFetchInfo{
			Performed: true,
			Results:   results,
			Timestamp: time.Now(),
		}
	}

	snippets := contentSnippets(results, e.opts.MaxSnippets)
	enriched := e.summarize(ctx, ws.EnrichedDescription, snippets)

	return artwork.ContentFetchInfo{
		Performed:           true,
		Results:             results,
		EnrichedDescription: enriched,
		Timestamp:           time.Now(),
	}
}

// fetchAll issues bounded-concurrency fetches. Results are written into
// the slot matching each URL's input index, so output order is stable
// regardless of completion order.
func (e *ContentEnricher) fetchAll(ctx context.Context, urls []string) []artwork.FetchResult {
	results := make([]artwork.FetchResult, len(urls))
	sem := semaphore.NewWeighted(int64(e.opts.MaxConcurrent))

	for i, u := range urls {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = artwork.FetchResult{URL: u, Err: err.Error()}
			continue
		}
		go func(i int, u string) {
			defer sem.Release(1)
			fetched, err := resilient.Call(ctx, e.caller, "fetch", func(attemptCtx context.Context) (provider.Fetched, error) {
				return e.fetcher.Fetch(attemptCtx, u)
			})
			if err != nil {
				results[i] = artwork.FetchResult{URL: u, Err: err.Error()}
				return
			}
			results[i] = artwork.FetchResult{
				URL:     u,
				Success: true,
				Title:   fetched.Title,
				Content: fetched.Text,
			}
		}(i, u)
	}

	// Draining the full weight waits for every in-flight fetch.
	if err := sem.Acquire(context.Background(), int64(e.opts.MaxConcurrent)); err == nil {
		sem.Release(int64(e.opts.MaxConcurrent))
	}
	return results
}

const perSourceLimit = 500

// contentSnippets builds per-source text blocks from successful fetches,
// truncated so the summary prompt stays bounded.
func contentSnippets(results []artwork.FetchResult, maxSnippets int) []string {
	var snippets []string
	for _, r := range results {
		if !r.Success || r.Content == "" {
			continue
		}
		if len(snippets) >= maxSnippets {
			break
		}
		content := r.Content
		if len([]rune(content)) > perSourceLimit {
			content = string([]rune(content)[:perSourceLimit]) + "..."
		}
		var b strings.Builder
		if r.Title != "" {
			fmt.Fprintf(&b, "Title: %s\n", r.Title)
		}
		fmt.Fprintf(&b, "Content: %s\nSource: %s", content, r.URL)
		snippets = append(snippets, b.String())
	}
	return snippets
}

const maxEnrichedLen = 3000

// summarize asks the AI to fold fetched bodies into the description,
// falling back to plain concatenation when the call fails.
func (e *ContentEnricher) summarize(ctx context.Context, original string, snippets []string) string {
	if len(snippets) == 0 {
		return original
	}

	if e.gen != nil {
		prompt := fmt.Sprintf(`Below is an artwork description followed by page excerpts about the same artwork. Merge them into a single rich, visitor-friendly description. Keep it factual and under 500 characters.

Current description:
%s

Page excerpts:
%s`, original, strings.Join(snippets, "\n---\n"))
		if out, err := e.gen.Generate(ctx, prompt); err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out)
		} else if err != nil && e.logger != nil {
			e.logger.Printf("content: summary generation failed, concatenating: %v", err)
		}
	}

	joined := strings.Join(snippets, "\n---\n")
	var enriched string
	if original != "" && original != artwork.NoDescription {
		enriched = original + "\n\n[additional content]\n" + joined
	} else {
		enriched = "[page content]\n" + joined
	}
	if r := []rune(enriched); len(r) > maxEnrichedLen {
		enriched = string(r[:maxEnrichedLen-200]) + "\n... (truncated)"
	}
	return enriched
}
