// Package classify decides whether an OCR text span is a usable artwork
// description. Two tiers: cheap string rules handle the vast majority of
// inputs, and only low-confidence leftovers escalate to an AI call.
package classify

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/docent-ai/placard-pipeline/internal/provider"
)

type Category string

const (
	CategoryDescription    Category = "description"
	CategoryTitle          Category = "title"
	CategoryExhibitionInfo Category = "exhibition_info"
	CategoryArtistInfo     Category = "artist_info"
	CategoryOther          Category = "other"
)

// Result is produced fresh per classification call.
type Result struct {
	Category      Category       `json:"category"`
	Confidence    float64        `json:"confidence"`
	IsDescription bool           `json:"is_description"`
	Reasoning     string         `json:"reasoning"`
	Evidence      map[string]any `json:"evidence,omitempty"`
}

type Options struct {
	// EscalationThreshold is the rule confidence below which the AI
	// path is consulted. Empirically tuned; see config defaults.
	EscalationThreshold float64
	Logger              *log.Logger
}

// Classifier runs rule-based analysis and escalates ambiguous spans to
// the generator. A nil generator disables escalation entirely.
type Classifier struct {
	gen       provider.Generator
	threshold float64
	logger    *log.Logger
}

const (
	stageAConfident = 0.8
	minTextLen      = 15
	shortTitleLen   = 30
	longTextLen     = 100
)

func New(gen provider.Generator, opts Options) *Classifier {
	threshold := opts.EscalationThreshold
	if threshold <= 0 {
		threshold = 0.75
	}
	return &Classifier{gen: gen, threshold: threshold, logger: opts.Logger}
}

var (
	descriptionKeywords = []string{
		"description", "about", "overview", "commentary", "depicts",
		"represents", "technique", "symbolizes", "composition", "meaning",
	}
	titleKeywords = []string{
		"title", "untitled",
	}
	exhibitionKeywords = []string{
		"exhibition", "gallery", "museum", "admission", "opening hours",
		"hosted by", "sponsored by", "on view",
	}
	artistKeywords = []string{
		"artist", "painter", "sculptor", "born", "biography", "profile",
		"active",
	}
)

var (
	numericOnlyRe   = regexp.MustCompile(`^[\d\-.\s/()]+$`)
	sentenceEndRe   = regexp.MustCompile(`[.!?](\s|$)`)
	datePatternRe   = regexp.MustCompile(`\b\d{4}\b|\b\d{1,2}(st|nd|rd|th)? (century|January|February|March|April|May|June|July|August|September|October|November|December)\b`)
	quotedTitleRe   = regexp.MustCompile(`"[^"]+"|'[^']+'|“[^”]+”|《[^》]+》`)
	titleIndicators = []string{"title:", `"`, "'", "“", "《"}
)

// Classify runs the two-tier analysis. The AI path is only consulted
// when the rule confidence stays below the escalation threshold.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{
			Category:   CategoryOther,
			Confidence: 1.0,
			Reasoning:  "empty text",
			Evidence:   map[string]any{"source": "rule_based", "stage": "input_validation"},
		}
	}

	rule := c.ruleAnalysis(text)
	if rule.Confidence >= c.threshold {
		rule.Evidence["source"] = "rule_based"
		return rule
	}

	if c.gen == nil {
		rule.Evidence["source"] = "rule_based_fallback"
		rule.Evidence["reason"] = "ai unavailable"
		return rule
	}
	return c.escalate(ctx, text, rule)
}

// ClassifyAll classifies each span independently.
func (c *Classifier) ClassifyAll(ctx context.Context, texts []string) []Result {
	out := make([]Result, len(texts))
	for i, t := range texts {
		out[i] = c.Classify(ctx, t)
	}
	return out
}

// FilterDescriptions keeps only spans classified as descriptions with at
// least minConfidence. Used to pre-filter OCR text before extraction.
func (c *Classifier) FilterDescriptions(ctx context.Context, texts []string, minConfidence float64) []string {
	var out []string
	for _, t := range texts {
		res := c.Classify(ctx, t)
		if res.IsDescription && res.Confidence >= minConfidence {
			out = append(out, t)
		}
	}
	return out
}

func (c *Classifier) ruleAnalysis(text string) Result {
	if quick := quickRuleFilter(text); quick.Confidence >= stageAConfident {
		return quick
	}
	return patternAnalysis(text)
}

func quickRuleFilter(text string) Result {
	if len([]rune(text)) < minTextLen {
		return Result{
			Category:   CategoryOther,
			Confidence: 0.9,
			Reasoning:  fmt.Sprintf("text too short (%d chars)", len([]rune(text))),
			Evidence:   map[string]any{"stage": "quick_rules"},
		}
	}

	if numericOnlyRe.MatchString(text) {
		return Result{
			Category:   CategoryExhibitionInfo,
			Confidence: 0.95,
			Reasoning:  "only digits, dates or symbols",
			Evidence:   map[string]any{"stage": "quick_rules"},
		}
	}

	if len([]rune(text)) <= shortTitleLen && !strings.ContainsAny(text, ".!?") {
		lower := strings.ToLower(text)
		for _, ind := range titleIndicators {
			if strings.Contains(lower, ind) {
				return Result{
					Category:   CategoryTitle,
					Confidence: 0.9,
					Reasoning:  "short title-marked text",
					Evidence:   map[string]any{"stage": "quick_rules"},
				}
			}
		}
	}

	lower := strings.ToLower(text)
	for _, kw := range descriptionKeywords {
		if strings.Contains(lower, kw) {
			return Result{
				Category:      CategoryDescription,
				Confidence:    0.95,
				IsDescription: true,
				Reasoning:     fmt.Sprintf("description keyword %q", kw),
				Evidence:      map[string]any{"stage": "quick_rules"},
			}
		}
	}

	sentences := len(sentenceEndRe.FindAllString(text, -1))
	if len([]rune(text)) > longTextLen && sentences >= 2 {
		return Result{
			Category:      CategoryDescription,
			Confidence:    0.85,
			IsDescription: true,
			Reasoning:     fmt.Sprintf("long text (%d chars) with %d sentences", len([]rune(text)), sentences),
			Evidence:      map[string]any{"stage": "quick_rules"},
		}
	}

	return Result{
		Category:   CategoryOther,
		Confidence: 0.5,
		Reasoning:  "needs pattern analysis",
		Evidence:   map[string]any{"stage": "quick_rules"},
	}
}

func patternAnalysis(text string) Result {
	lower := strings.ToLower(text)
	scores := map[Category]float64{}

	scores[CategoryDescription] += float64(countKeywords(lower, descriptionKeywords)) * 0.2
	scores[CategoryTitle] += float64(countKeywords(lower, titleKeywords)) * 0.2
	scores[CategoryExhibitionInfo] += float64(countKeywords(lower, exhibitionKeywords)) * 0.2
	scores[CategoryArtistInfo] += float64(countKeywords(lower, artistKeywords)) * 0.2

	n := len([]rune(text))
	if n > 80 {
		scores[CategoryDescription] += 0.3
	} else if n < 40 {
		scores[CategoryTitle] += 0.2
	}

	sentences := len(sentenceEndRe.FindAllString(text, -1))
	if sentences >= 2 {
		scores[CategoryDescription] += 0.3
	} else if sentences == 0 {
		scores[CategoryTitle] += 0.2
	}

	if datePatternRe.MatchString(text) {
		scores[CategoryExhibitionInfo] += 0.4
	}
	if quotedTitleRe.MatchString(text) {
		scores[CategoryTitle] += 0.3
	}

	best := CategoryOther
	max := 0.0
	for _, cat := range []Category{CategoryDescription, CategoryTitle, CategoryExhibitionInfo, CategoryArtistInfo} {
		if scores[cat] > max {
			best, max = cat, scores[cat]
		}
	}

	// Floor ambiguous results so long spans do not tie at near-zero.
	if max < 0.3 {
		if n > 50 {
			best, max = CategoryDescription, 0.6
		} else {
			best, max = CategoryOther, 0.6
		}
	}
	if max > 0.9 {
		max = 0.9
	}

	return Result{
		Category:      best,
		Confidence:    max,
		IsDescription: best == CategoryDescription,
		Reasoning:     fmt.Sprintf("pattern analysis: %s (%.2f)", best, max),
		Evidence:      map[string]any{"stage": "pattern_analysis", "scores": scores},
	}
}

func countKeywords(lower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

func (c *Classifier) escalate(ctx context.Context, text string, rule Result) Result {
	prompt := fmt.Sprintf(`Is the following text a museum artwork description (the explanatory text about an artwork, not a title, artist bio, or exhibition notice)?

Text:
"""
%s
"""

Answer with exactly one word: yes or no.`, text)

	raw, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("classify: ai escalation failed, keeping rule result: %v", err)
		}
		rule.Evidence["source"] = "rule_based_fallback"
		rule.Evidence["ai_error"] = err.Error()
		return rule
	}

	isDesc := strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "yes")
	return Result{
		Category:      rule.Category,
		Confidence:    0.95,
		IsDescription: isDesc,
		Reasoning:     fmt.Sprintf("hybrid: rule confidence %.2f, ai answered %t", rule.Confidence, isDesc),
		Evidence: map[string]any{
			"source":          "hybrid_ai",
			"rule_confidence": rule.Confidence,
			"rule_result":     rule.IsDescription,
			"ai_result":       isDesc,
			"text_length":     len([]rune(text)),
		},
	}
}
