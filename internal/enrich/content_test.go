package enrich_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/docent-ai/placard-pipeline/internal/artwork"
	"github.com/docent-ai/placard-pipeline/internal/enrich"
	"github.com/docent-ai/placard-pipeline/internal/provider"
)

func searchInfoWith(urls ...string) artwork.WebSearchInfo {
	info := artwork.WebSearchInfo{
		Performed:           true,
		EnrichedDescription: "A base description from search.",
		Timestamp:           time.Now(),
	}
	for _, u := range urls {
		info.Results = append(info.Results, artwork.SearchResult{URL: u})
	}
	return info
}

func TestEnrichContent_SkipsWhenSearchNotPerformed(t *testing.T) {
	t.Parallel()

	fetcher := &fnFetcher{f: func(_ context.Context, _ string) (provider.Fetched, error) {
		return provider.Fetched{}, errors.New("must not be called")
	}}
	content := enrich.NewContentEnricher(fetcher, nil, testCaller(), enrich.ContentOptions{})

	info := content.EnrichContent(context.Background(), artwork.WebSearchInfo{Performed: false})
	if info.Performed {
		t.Fatal("stage must stay skipped when search never ran")
	}
	if fetcher.calls != 0 {
		t.Fatalf("expected no fetches, got %d", fetcher.calls)
	}
}

func TestEnrichContent_PartialFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	fetcher := &fnFetcher{f: func(_ context.Context, url string) (provider.Fetched, error) {
		if strings.Contains(url, "broken") {
			return provider.Fetched{}, &provider.ToolError{Err: errors.New("404")}
		}
		return provider.Fetched{Title: "Page", Text: "Body text about the artwork from " + url}, nil
	}}
	content := enrich.NewContentEnricher(fetcher, nil, testCaller(), enrich.ContentOptions{})

	info := content.EnrichContent(context.Background(), searchInfoWith(
		"https://museum.example.org/starry-night",
		"https://broken.example.com/page",
		"https://gallery.example.net/vangogh",
	))
	if !info.Performed {
		t.Fatal("expected performed=true")
	}
	if len(info.Results) != 3 {
		t.Fatalf("expected 3 per-url results, got %d", len(info.Results))
	}

	ok := 0
	for _, r := range info.Results {
		if r.Success {
			ok++
			if r.Content == "" {
				t.Fatalf("successful result missing content: %#v", r)
			}
		} else if r.Err == "" {
			t.Fatalf("failed result missing error: %#v", r)
		}
	}
	if ok != 2 {
		t.Fatalf("expected 2 successful fetches, got %d", ok)
	}
	if !strings.Contains(info.EnrichedDescription, "Body text about the artwork") {
		t.Fatalf("successful bodies should reach the enriched description: %q", info.EnrichedDescription)
	}
}

func TestEnrichContent_ResultsKeepURLAssociation(t *testing.T) {
	t.Parallel()

	fetcher := &fnFetcher{f: func(_ context.Context, url string) (provider.Fetched, error) {
		return provider.Fetched{Text: "content for " + url}, nil
	}}
	content := enrich.NewContentEnricher(fetcher, nil, testCaller(), enrich.ContentOptions{MaxConcurrent: 2})

	urls := []string{
		"https://museum.example.org/a",
		"https://museum.example.org/b",
		"https://museum.example.org/c",
	}
	info := content.EnrichContent(context.Background(), searchInfoWith(urls...))
	if len(info.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(info.Results))
	}
	for _, r := range info.Results {
		if !strings.HasSuffix(r.Content, r.URL) {
			t.Fatalf("result content %q not re-associated with url %q", r.Content, r.URL)
		}
	}
}

func TestEnrichContent_AllFailuresIsPerformedWithoutEnrichment(t *testing.T) {
	t.Parallel()

	fetcher := &fnFetcher{f: func(_ context.Context, _ string) (provider.Fetched, error) {
		return provider.Fetched{}, &provider.ToolError{Err: errors.New("blocked")}
	}}
	content := enrich.NewContentEnricher(fetcher, nil, testCaller(), enrich.ContentOptions{})

	info := content.EnrichContent(context.Background(), searchInfoWith("https://museum.example.org/a"))
	if !info.Performed {
		t.Fatal("an attempted fetch stage is performed=true even when every url fails")
	}
	if info.EnrichedDescription != "" {
		t.Fatalf("no enrichment expected, got %q", info.EnrichedDescription)
	}
}

func TestEnrichContent_SummarizesThroughAI(t *testing.T) {
	t.Parallel()

	fetcher := &fnFetcher{f: func(_ context.Context, _ string) (provider.Fetched, error) {
		return provider.Fetched{Text: "Fetched page body."}, nil
	}}
	gen := provider.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "Fetched page body.") {
			t.Errorf("summary prompt should carry fetched content")
		}
		return "Merged summary.", nil
	})
	content := enrich.NewContentEnricher(fetcher, gen, testCaller(), enrich.ContentOptions{})

	info := content.EnrichContent(context.Background(), searchInfoWith("https://museum.example.org/a"))
	if info.EnrichedDescription != "Merged summary." {
		t.Fatalf("unexpected enriched description: %q", info.EnrichedDescription)
	}
}

func TestEnrichContent_TruncatesToMaxURLs(t *testing.T) {
	t.Parallel()

	fetcher := &fnFetcher{f: func(_ context.Context, url string) (provider.Fetched, error) {
		return provider.Fetched{Text: "x"}, nil
	}}
	content := enrich.NewContentEnricher(fetcher, nil, testCaller(), enrich.ContentOptions{MaxURLs: 2})

	info := content.EnrichContent(context.Background(), searchInfoWith(
		"https://museum.example.org/a",
		"https://museum.example.org/b",
		"https://museum.example.org/c",
		"https://museum.example.org/d",
	))
	if len(info.Results) != 2 {
		t.Fatalf("expected fetches truncated to 2, got %d", len(info.Results))
	}
}
