// Package script turns an enriched artwork record into a narration
// script for video generation.
package script

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/docent-ai/placard-pipeline/internal/artwork"
	"github.com/docent-ai/placard-pipeline/internal/provider"
)

const (
	minSeconds = 10
	maxSeconds = 120
	// charsPerSecond approximates narration pace.
	charsPerSecond = 5
)

// Synthesizer always produces a playable script: the AI path first, a
// deterministic template when it fails.
type Synthesizer struct {
	gen    provider.Generator
	logger *log.Logger
}

func New(gen provider.Generator, logger *log.Logger) *Synthesizer {
	return &Synthesizer{gen: gen, logger: logger}
}

// Synthesize builds the narration from the record plus the best
// available description: content-enriched, then web-enriched, then the
// record's own.
func (s *Synthesizer) Synthesize(ctx context.Context, rec artwork.Record, web artwork.WebSearchInfo, content artwork.ContentFetchInfo) artwork.ScriptResult {
	description := bestDescription(rec, web, content)

	raw, err := s.gen.Generate(ctx, buildScriptPrompt(rec, description))
	if err != nil || strings.TrimSpace(raw) == "" {
		if s.logger != nil {
			s.logger.Printf("script: ai generation failed, using template: %v", err)
		}
		return s.fallbackScript(rec, err)
	}

	cleaned := cleanScript(raw)
	return artwork.ScriptResult{
		Content:          cleaned,
		EstimatedSeconds: estimateSeconds(cleaned),
		Method:           artwork.ScriptMethodAI,
		Success:          true,
	}
}

func bestDescription(rec artwork.Record, web artwork.WebSearchInfo, content artwork.ContentFetchInfo) string {
	if strings.TrimSpace(content.EnrichedDescription) != "" {
		return content.EnrichedDescription
	}
	if strings.TrimSpace(web.EnrichedDescription) != "" {
		return web.EnrichedDescription
	}
	return rec.Description
}

func buildScriptPrompt(rec artwork.Record, description string) string {
	return fmt.Sprintf(`Here is information about a museum artwork. Write a video narration script based on it.

Artwork:
- Title: %s
- Artist: %s
- Year: %s
- Description: %s

Requirements:
1. Natural narration, as if spoken by a professional museum docent.
2. An engaging opening that draws the viewer in.
3. Concrete details: the work's features, historical context, artistic significance.
4. An emotional, immersive tone that connects the viewer to the work.
5. A length suited to a 30-second to 2-minute video.
6. A finished script, ready to narrate as-is.

Respond with the script text only, no headings or commentary.`,
		rec.Title, rec.Artist, rec.Year, description)
}

// cleanScript strips code fences and guarantees terminal punctuation.
func cleanScript(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}
	if s != "" && !strings.ContainsAny(s[len(s)-1:], ".!?") {
		s += "."
	}
	return s
}

func estimateSeconds(script string) int {
	secs := len([]rune(script)) / charsPerSecond
	if secs < minSeconds {
		return minSeconds
	}
	if secs > maxSeconds {
		return maxSeconds
	}
	return secs
}

func (s *Synthesizer) fallbackScript(rec artwork.Record, cause error) artwork.ScriptResult {
	content := fmt.Sprintf(
		"This work is %q, created by %s in %s. It holds an important place in art history, showing the artist's distinctive technique and creative vision. Seeing it in person at the museum offers a far richer experience of the artwork.",
		rec.Title, rec.Artist, rec.Year,
	)
	res := artwork.ScriptResult{
		Content:          content,
		EstimatedSeconds: estimateSeconds(content),
		Method:           artwork.ScriptMethodFallback,
		Success:          true,
	}
	if cause != nil {
		res.Err = cause.Error()
	}
	return res
}
