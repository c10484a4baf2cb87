// Package extract turns raw OCR placard text into a validated artwork
// record. The AI path does the heavy lifting; a rule-based fallback
// keeps extraction alive when the AI call or its JSON cannot be used.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/docent-ai/placard-pipeline/internal/artwork"
	"github.com/docent-ai/placard-pipeline/internal/provider"
)

// TitleNotFoundError is the single terminal failure of the pipeline: no
// usable title could be established by any extraction path.
type TitleNotFoundError struct {
	OCRExcerpt string
}

func (e *TitleNotFoundError) Error() string {
	if e.OCRExcerpt == "" {
		return "artwork title not found: empty ocr text"
	}
	return fmt.Sprintf("artwork title not found in ocr text %q", e.OCRExcerpt)
}

// Extractor extracts one record per OCR scan.
type Extractor struct {
	gen    provider.Generator
	logger *log.Logger
}

func New(gen provider.Generator, logger *log.Logger) *Extractor {
	return &Extractor{gen: gen, logger: logger}
}

// Extract returns a record whose title passed the validity gate, or a
// *TitleNotFoundError. Records with a sentinel or junk title must never
// reach downstream stages or persistence.
func (e *Extractor) Extract(ctx context.Context, ocrText string) (artwork.Record, artwork.ExtractionMetadata, error) {
	if strings.TrimSpace(ocrText) == "" {
		return artwork.Record{}, artwork.ExtractionMetadata{}, &TitleNotFoundError{}
	}

	raw, err := e.gen.Generate(ctx, buildExtractionPrompt(ocrText))
	if err == nil {
		if fields, ok := parseExtractionResponse(raw); ok {
			rec := artwork.Record{
				Title:       fields["title"],
				Artist:      fields["artist"],
				Year:        fields["year"],
				Description: fields["description"],
			}
			meta := artwork.ExtractionMetadata{
				Confidence:         0.9,
				Method:             artwork.MethodAISuccess,
				RawResponseExcerpt: excerpt(raw, 200),
				Success:            true,
				Timestamp:          time.Now(),
			}
			if isInvalidTitle(rec.Title) {
				return artwork.Record{}, artwork.ExtractionMetadata{}, &TitleNotFoundError{OCRExcerpt: excerpt(ocrText, 50)}
			}
			return rec, meta, nil
		}
		err = fmt.Errorf("unusable extraction response")
	}

	if e.logger != nil {
		e.logger.Printf("extract: ai path failed, trying rule fallback: %v", err)
	}

	rec, meta := fallbackExtract(ocrText, err)
	if isInvalidTitle(rec.Title) {
		return artwork.Record{}, artwork.ExtractionMetadata{}, &TitleNotFoundError{OCRExcerpt: excerpt(ocrText, 50)}
	}
	return rec, meta, nil
}

func buildExtractionPrompt(ocrText string) string {
	return fmt.Sprintf(`The following is OCR text captured from an artwork placard in a museum or gallery. The OCR output may contain typos, stray symbols, or broken spacing. Clean it up and extract the artwork information.

OCR text:
"""
%s
"""

Extraction rules:
- title: the artwork's title, with OCR typos fixed and stray symbols removed. If no title is identifiable, use "unknown".
- artist: the artist's name, corrected for OCR noise. If absent, use "unknown".
- year: the creation year exactly as written ("1889", "1503-1519", "16th century"). If absent, use "unknown".
- description: the explanatory text, cleaned up into natural readable sentences. If absent, use "unknown".
- Only use what the text states; do not guess.

Respond with ONLY this JSON object, no other text:

{
  "title": "...",
  "artist": "...",
  "year": "...",
  "description": "..."
}`, ocrText)
}

// sentinelEquivalents are model outputs that mean "no value". Matched
// case-insensitively after trimming.
var sentinelEquivalents = map[string]struct{}{
	"unknown": {}, "n/a": {}, "null": {}, "none": {}, "not found": {},
	"no information": {}, "-": {}, "": {},
}

// parseExtractionResponse strips optional code fences and parses the
// four-field JSON, mapping empty or sentinel-equivalent values to the
// canonical sentinels.
func parseExtractionResponse(raw string) (map[string]string, bool) {
	jsonText := stripCodeFence(raw)

	var parsed map[string]string
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, false
	}

	defaults := map[string]string{
		"title":       artwork.TitleUnconfirmed,
		"artist":      artwork.ArtistUnknown,
		"year":        artwork.YearUnknown,
		"description": artwork.NoDescription,
	}
	out := make(map[string]string, 4)
	for field, sentinel := range defaults {
		v := strings.TrimSpace(parsed[field])
		if _, isSentinel := sentinelEquivalents[strings.ToLower(v)]; isSentinel {
			out[field] = sentinel
			continue
		}
		out[field] = v
	}
	return out, true
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
	} else {
		return s
	}
	if end := strings.Index(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

var yearRe = regexp.MustCompile(`\b(\d{4}(-\d{4})?|\d{1,2}(st|nd|rd|th) century)\b`)

// fallbackExtract applies line heuristics when the AI path is unusable:
// first short non-punctuated line as the title, a year-like token as the
// year, first long sentence-like line as the description.
func fallbackExtract(ocrText string, cause error) (artwork.Record, artwork.ExtractionMetadata) {
	rec := artwork.NewRecord()

	var lines []string
	for _, line := range strings.Split(ocrText, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) > 0 {
		first := lines[0]
		if len([]rune(first)) <= 50 && !strings.ContainsAny(first, ".!?") {
			rec.Title = first
		}
	}

	for _, line := range lines {
		if m := yearRe.FindString(line); m != "" {
			rec.Year = m
			break
		}
	}

	for _, line := range lines {
		if len([]rune(line)) > 30 && strings.ContainsAny(line, ".!?") {
			rec.Description = line
			break
		}
	}

	reason := "ai path unavailable"
	if cause != nil {
		reason = excerpt(cause.Error(), 50)
	}
	meta := artwork.ExtractionMetadata{
		Confidence:         0.3,
		Method:             artwork.MethodRuleFallback,
		RawResponseExcerpt: reason,
		Success:            false,
		Timestamp:          time.Now(),
	}
	return rec, meta
}

// meaninglessTitles are strings that look like a title slot but carry no
// information.
var meaninglessTitles = map[string]struct{}{
	"unknown": {}, "untitled": {}, "no title": {}, "none": {}, "n/a": {},
	"???": {}, "---": {}, "not available": {}, "unidentified": {},
}

func isInvalidTitle(title string) bool {
	t := strings.TrimSpace(title)
	if t == "" || t == artwork.TitleUnconfirmed {
		return true
	}
	if _, bad := meaninglessTitles[strings.ToLower(t)]; bad {
		return true
	}
	if len([]rune(t)) < 2 {
		return true
	}
	return isDigits(t)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func excerpt(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
