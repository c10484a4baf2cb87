// Package enrich conditionally supplements a validated artwork record
// with web search results and fetched page bodies. Both stages own
// their skip decision and degrade on failure instead of propagating.
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
)

type SearchOptions struct {
	// SearchCount is how many results to request per query.
	SearchCount int
	Logger      *log.Logger
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.SearchCount <= 0 {
		o.SearchCount = 5
	}
	return o
}

// SearchEnricher fills in a missing description from web search. Search
// is for missing information only: a record that already carries a real
// description gets a single clean-up pass and no search call.
type SearchEnricher struct {
	searcher provider.Searcher
	gen      provider.Generator
	content  *ContentEnricher
	caller   *resilient.Caller
	opts     SearchOptions
	logger   *log.Logger
}

func NewSearchEnricher(searcher provider.Searcher, gen provider.Generator, content *ContentEnricher, caller *resilient.Caller, opts SearchOptions) *SearchEnricher {
	opts = opts.withDefaults()
	return &SearchEnricher{
		searcher: searcher,
		gen:      gen,
		content:  content,
		caller:   caller,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Enrich returns the search stage's slice of the pipeline result.
// Performed=false covers both the skip path (description already valid)
// and a search failure; failures never escape this stage.
func (e *SearchEnricher) Enrich(ctx context.Context, rec artwork.Record, museumName string) artwork.WebSearchInfo {
	if hasValidDescription(rec.Description) {
		return e.cleanupOnly(ctx, rec.Description)
	}

	query := strings.TrimSpace(rec.Title + " " + museumName)
	if e.logger != nil {
		e.logger.Printf("search: query %q", query)
	}

	results, err := resilient.Call(ctx, e.caller, "search", func(attemptCtx context.Context) ([]artwork.SearchResult, error) {
		return e.searcher.Search(attemptCtx, query, e.opts.SearchCount)
	})
	if err != nil {
		if e.logger != nil {
			e.logger.Printf("search: failed, degrading: %v", err)
		}
		return artwork.WebSearchInfo{
			Performed:   false,
			Description: artwork.NotFoundDescription,
			Timestamp:   time.Now(),
		}
	}

	urls := make([]string, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.URL) != "" {
			urls = append(urls, r.URL)
		}
	}
	if len(urls) == 0 {
		if e.logger != nil {
			e.logger.Printf("search: no results for %q", query)
		}
		return artwork.WebSearchInfo{
			Performed:   true,
			Results:     results,
			Description: artwork.NotFoundDescription,
			Timestamp:   time.Now(),
		}
	}

	bodies := e.fetchBodies(ctx, urls)
	enriched := e.synthesizeDescription(ctx, rec.Title, bodies, results)

	return artwork.WebSearchInfo{
		Performed:           true,
		Results:             results,
		Description:         enriched,
		EnrichedDescription: enriched,
		Timestamp:           time.Now(),
	}
}

// cleanupOnly normalizes an OCR description that is already usable: one
// AI pass for typos and spacing, never a search.
func (e *SearchEnricher) cleanupOnly(ctx context.Context, description string) artwork.WebSearchInfo {
	if e.logger != nil {
		e.logger.Printf("search: description already present, cleanup only")
	}
	prompt := fmt.Sprintf(`The following artwork description came from OCR. Fix typos, spacing, punctuation and awkward phrasing. Keep the meaning unchanged.
---
%s
---
Output only the corrected description.`, description)

	cleaned, err := e.gen.Generate(ctx, prompt)
	if err != nil || strings.TrimSpace(cleaned) == "" {
		cleaned = description
	}
	cleaned = strings.TrimSpace(cleaned)
	return artwork.WebSearchInfo{
		Performed:           false,
		Description:         cleaned,
		EnrichedDescription: cleaned,
		Timestamp:           time.Now(),
	}
}

// fetchBodies reuses the content enricher's bounded fetch primitive and
// keeps only successful page texts.
func (e *SearchEnricher) fetchBodies(ctx context.Context, urls []string) []string {
	prioritized := prioritizeURLs(filterURLs(urls), e.content.opts.MaxURLs)
	fetched := e.content.fetchAll(ctx, prioritized)

	var bodies []string
	for _, r := range fetched {
		if r.Success && strings.TrimSpace(r.Content) != "" {
			bodies = append(bodies, r.Content)
		}
	}
	return bodies
}

const perBodyLimit = 1000

func (e *SearchEnricher) synthesizeDescription(ctx context.Context, title string, bodies []string, results []artwork.SearchResult) string {
	sources := bodies
	if len(sources) == 0 {
		// Fall back to the raw search snippets when no body survived.
		for _, r := range results {
			if strings.TrimSpace(r.Snippet) != "" {
				sources = append(sources, r.Snippet)
			}
		}
	}
	if len(sources) == 0 {
		return artwork.NotFoundDescription
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Below are web page texts about the artwork %q.\n", title)
	b.WriteString("Using this material, write a rich, visitor-friendly description of the artwork in at most 500 characters.\n\n")
	for i, src := range sources {
		if r := []rune(src); len(r) > perBodyLimit {
			src = string(r[:perBodyLimit])
		}
		fmt.Fprintf(&b, "[source %d]\n%s\n\n", i+1, src)
	}

	out, err := e.gen.Generate(ctx, b.String())
	if err != nil || strings.TrimSpace(out) == "" {
		if e.logger != nil && err != nil {
			e.logger.Printf("search: description synthesis failed: %v", err)
		}
		return artwork.NotFoundDescription
	}
	return strings.TrimSpace(out)
}

// meaninglessDescriptions invalidate a description when they appear
// anywhere in it, matching placeholder phrasings the extractor or the
// model may have produced.
var meaninglessDescriptions = []string{
	artwork.NoDescription, artwork.NotFoundDescription,
	"no information", "unknown", "n/a", "---", "???", "unidentified",
}

func hasValidDescription(description string) bool {
	d := strings.TrimSpace(description)
	if len([]rune(d)) < 10 {
		return false
	}
	lower := strings.ToLower(d)
	for _, phrase := range meaninglessDescriptions {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}
