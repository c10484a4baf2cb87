// Package artwork defines the value types flowing through the placard
// pipeline. Every stage returns a fresh value; nothing here is mutated
// after construction.
package artwork

import (
	"strings"
	"time"
	"unicode"
)

// Sentinel field values. Fields default to these instead of "" so
// downstream stages can match on a known placeholder rather than
// null-check every field.
const (
	TitleUnconfirmed = "title unconfirmed"
	ArtistUnknown    = "artist unknown"
	YearUnknown      = "year unknown"
	NoDescription    = "no description available"
)

// NotFoundDescription is the placeholder used when enrichment could not
// establish any description.
const NotFoundDescription = "information not found"

// RawScan is the per-request input: OCR text captured in front of a
// placard, plus the museum name when the caller knows it.
type RawScan struct {
	OCRText    string
	MuseumName string
}

// Record is the structured description of one artwork.
type Record struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Year        string `json:"year"`
	Description string `json:"description"`
}

// NewRecord returns a Record with every field set to its sentinel.
func NewRecord() Record {
	return Record{
		Title:       TitleUnconfirmed,
		Artist:      ArtistUnknown,
		Year:        YearUnknown,
		Description: NoDescription,
	}
}

// HasValidTitle reports whether the title would survive the extractor's
// hard gate: non-sentinel, at least 2 characters, not purely numeric.
func (r Record) HasValidTitle() bool {
	t := strings.TrimSpace(r.Title)
	if t == "" || t == TitleUnconfirmed {
		return false
	}
	if len([]rune(t)) < 2 {
		return false
	}
	return !isAllDigits(t)
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// ExtractionMethod records which path produced a Record.
type ExtractionMethod string

const (
	MethodAISuccess    ExtractionMethod = "ai_success"
	MethodRuleFallback ExtractionMethod = "rule_fallback"
)

// ExtractionMetadata is paired 1:1 with a Record leaving the extractor.
type ExtractionMetadata struct {
	Confidence         float64          `json:"confidence"`
	Method             ExtractionMethod `json:"method"`
	RawResponseExcerpt string           `json:"raw_response_excerpt,omitempty"`
	Success            bool             `json:"success"`
	Timestamp          time.Time        `json:"timestamp"`
}

// SearchResult is one hit returned by the search collaborator.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// WebSearchInfo is the search-enrichment stage output.
// Performed=false means the stage was skipped, not that it failed.
type WebSearchInfo struct {
	Performed           bool           `json:"performed"`
	Results             []SearchResult `json:"results,omitempty"`
	Description         string         `json:"description,omitempty"`
	EnrichedDescription string         `json:"enriched_description,omitempty"`
	Timestamp           time.Time      `json:"timestamp"`
}

// FetchResult is the outcome for a single URL. Entries are independent:
// one failed URL never fails the whole fetch stage.
type FetchResult struct {
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Err     string `json:"error,omitempty"`
}

// ContentFetchInfo is the content-enrichment stage output.
type ContentFetchInfo struct {
	Performed           bool          `json:"performed"`
	Results             []FetchResult `json:"results,omitempty"`
	EnrichedDescription string        `json:"enriched_description,omitempty"`
	Timestamp           time.Time     `json:"timestamp"`
}

// ScriptMethod records which path produced a narration script.
type ScriptMethod string

const (
	ScriptMethodAI       ScriptMethod = "ai"
	ScriptMethodFallback ScriptMethod = "fallback_template"
)

// ScriptResult is the narration script handed to the video renderer.
type ScriptResult struct {
	Content          string       `json:"content"`
	EstimatedSeconds int          `json:"estimated_seconds"`
	Method           ScriptMethod `json:"method"`
	Success          bool         `json:"success"`
	Err              string       `json:"error,omitempty"`
}

// PipelineResult is the composite the orchestrator returns. Only the
// orchestrator constructs it; stages return just their own slice.
type PipelineResult struct {
	Record       Record             `json:"artwork"`
	Metadata     ExtractionMetadata `json:"extraction"`
	WebSearch    WebSearchInfo      `json:"web_search"`
	ContentFetch ContentFetchInfo   `json:"content_fetch"`
	Script       ScriptResult       `json:"script"`
}
