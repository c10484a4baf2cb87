// Package pipeline sequences extraction, enrichment and script
// synthesis into one synchronous invocation.
package pipeline

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/docent-ai/placard-pipeline/internal/artwork"
	"github.com/docent-ai/placard-pipeline/internal/enrich"
	"github.com/docent-ai/placard-pipeline/internal/extract"
	"github.com/docent-ai/placard-pipeline/internal/script"
)

// Stats counts pipeline invocations. Safe for concurrent runs.
type Stats struct {
	Total       int
	Succeeded   int
	Failed      int
	SuccessRate float64
}

// Orchestrator owns the stage sequence and the partial-failure policy:
// every stage failure degrades in place except a missing title, which
// aborts the run before any remote enrichment happens.
type Orchestrator struct {
	extractor *extract.Extractor
	search    *enrich.SearchEnricher
	content   *enrich.ContentEnricher
	script    *script.Synthesizer
	logger    *log.Logger

	mu    sync.Mutex
	stats Stats
}

func New(extractor *extract.Extractor, search *enrich.SearchEnricher, content *enrich.ContentEnricher, synthesizer *script.Synthesizer, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		search:    search,
		content:   content,
		script:    synthesizer,
		logger:    logger,
	}
}

// Run executes the full pipeline for one scan. The only error it ever
// returns is *extract.TitleNotFoundError; the result is otherwise
// complete, possibly with degraded stages.
//
// Run blocks until the pipeline finishes; concurrency stays inside the
// stages (the bounded fetch fan-out).
func (o *Orchestrator) Run(ctx context.Context, scan artwork.RawScan) (artwork.PipelineResult, error) {
	o.mu.Lock()
	o.stats.Total++
	o.mu.Unlock()

	o.logf("pipeline start: museum=%q ocrChars=%d", scan.MuseumName, len(scan.OCRText))

	rec, meta, err := o.extractor.Extract(ctx, scan.OCRText)
	if err != nil {
		o.logf("pipeline aborted: %v", err)
		o.mu.Lock()
		o.stats.Failed++
		o.mu.Unlock()
		return artwork.PipelineResult{}, err
	}
	o.logf("extracted: title=%q method=%s confidence=%.2f", rec.Title, meta.Method, meta.Confidence)

	webInfo := o.search.Enrich(ctx, rec, scan.MuseumName)
	o.logf("search stage: performed=%t results=%d", webInfo.Performed, len(webInfo.Results))

	// The content stage owns its own skip decision too, but when search
	// never ran there is nothing to hand it.
	var contentInfo artwork.ContentFetchInfo
	if webInfo.Performed && len(webInfo.Results) > 0 {
		contentInfo = o.content.EnrichContent(ctx, webInfo)
	} else {
		contentInfo = artwork.ContentFetchInfo{Performed: false, Timestamp: time.Now()}
	}
	o.logf("content stage: performed=%t fetched=%d", contentInfo.Performed, len(contentInfo.Results))

	scriptResult := o.script.Synthesize(ctx, rec, webInfo, contentInfo)
	o.logf("script stage: method=%s seconds=%d success=%t", scriptResult.Method, scriptResult.EstimatedSeconds, scriptResult.Success)

	o.mu.Lock()
	o.stats.Succeeded++
	o.mu.Unlock()

	return artwork.PipelineResult{
		Record:       rec,
		Metadata:     meta,
		WebSearch:    webInfo,
		ContentFetch: contentInfo,
		Script:       scriptResult,
	}, nil
}

// Stats returns a snapshot of run counters.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.stats
	if s.Total > 0 {
		s.SuccessRate = float64(s.Succeeded) / float64(s.Total) * 100
	}
	return s
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.logger != nil {
		o.logger.Printf(format, args...)
	}
}
