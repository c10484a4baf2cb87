// Command placard runs the placard analysis pipeline from the command
// line: OCR text in, a structured artwork record plus narration script
// out.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/docent-ai/placard-pipeline/internal/artwork"
	"github.com/docent-ai/placard-pipeline/internal/classify"
	"github.com/docent-ai/placard-pipeline/internal/config"
	"github.com/docent-ai/placard-pipeline/internal/enrich"
	"github.com/docent-ai/placard-pipeline/internal/extract"
	"github.com/docent-ai/placard-pipeline/internal/pipeline"
	"github.com/docent-ai/placard-pipeline/internal/provider/brave"
	"github.com/docent-ai/placard-pipeline/internal/provider/gemini"
	"github.com/docent-ai/placard-pipeline/internal/provider/webfetch"
	"github.com/docent-ai/placard-pipeline/internal/resilient"
	"github.com/docent-ai/placard-pipeline/internal/script"
	"github.com/docent-ai/placard-pipeline/internal/util"
	"github.com/docent-ai/placard-pipeline/internal/version"
)

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "version", "-v", "--version":
		fmt.Println(version.Current)
		return
	case "analyze":
		os.Exit(runAnalyze(ctx, os.Args[2:]))
	case "classify":
		os.Exit(runClassify(ctx, os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, `usage: placard <command> [flags]

commands:
  analyze   run the full extraction + enrichment + script pipeline
  classify  decide whether a text span is an artwork description
  version   print the release version

analyze reads OCR text from --input (or stdin with --input -) and
prints the composed pipeline result as JSON.`)
}

func runAnalyze(ctx context.Context, args []string) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	inputPath := fs.String("input", "", "File containing OCR text, or - for stdin")
	museum := fs.String("museum", "", "Museum or gallery name for the search query")
	maxRetries := fs.Int("max-retries", cfg.Retry.MaxRetries, "Max retries per remote call for transient failures (env: MAX_RETRIES)")
	attemptTimeout := fs.Duration("attempt-timeout", cfg.Retry.AttemptTimeout, "Per-attempt timeout for remote calls (env: ATTEMPT_TIMEOUT)")
	rateLimitRPS := fs.Float64("rate-limit-rps", cfg.Retry.RateLimitRPS, "Global outbound rate limit (RPS), 0 disables (env: RATE_LIMIT_RPS)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *inputPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "analyze requires --input")
		return 2
	}

	ocrText, err := readInput(*inputPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "read input: %s\n", err)
		return 2
	}

	cfg.Retry.MaxRetries = *maxRetries
	cfg.Retry.AttemptTimeout = *attemptTimeout
	cfg.Retry.RateLimitRPS = *rateLimitRPS

	logger := log.New(os.Stderr, "", log.LstdFlags)
	orch, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "setup error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	result, err := orch.Run(ctx, artwork.RawScan{OCRText: ocrText, MuseumName: *museum})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "pipeline error: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "encode result: %s\n", err)
		return 1
	}
	return 0
}

func runClassify(ctx context.Context, args []string) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	text := fs.String("text", "", "Text span to classify")
	threshold := fs.Float64("escalation-threshold", cfg.Classifier.EscalationThreshold, "Rule confidence below which the AI path is consulted (env: CLASSIFIER_ESCALATION_THRESHOLD)")
	noAI := fs.Bool("no-ai", false, "Disable the AI escalation path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *text == "" {
		_, _ = fmt.Fprintln(os.Stderr, "classify requires --text")
		return 2
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	var gen *gemini.Generator
	if !*noAI {
		gen, err = gemini.New(ctx, gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
		})
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "gemini config error: %s\n", util.RedactSecrets(err.Error()))
			return 2
		}
	}

	classifier := newClassifier(gen, *threshold, logger)
	result := classifier.Classify(ctx, *text)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "encode result: %s\n", err)
		return 1
	}
	return 0
}

// newClassifier avoids handing a typed-nil Generator to the classifier
// when the AI path is disabled.
func newClassifier(gen *gemini.Generator, threshold float64, logger *log.Logger) *classify.Classifier {
	opts := classify.Options{EscalationThreshold: threshold, Logger: logger}
	if gen == nil {
		return classify.New(nil, opts)
	}
	return classify.New(gen, opts)
}

// buildPipeline is the dependency-assembly root: every collaborator is
// constructed once here and injected, never reached through package
// state.
func buildPipeline(ctx context.Context, cfg config.Config, logger *log.Logger) (*pipeline.Orchestrator, error) {
	gen, err := gemini.New(ctx, gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	searcher, err := brave.New(brave.Config{
		APIKey:   cfg.Brave.APIKey,
		Endpoint: cfg.Brave.Endpoint,
	}, nil)
	if err != nil {
		return nil, err
	}

	fetcher := webfetch.New(&http.Client{Timeout: cfg.Retry.AttemptTimeout})

	caller := resilient.New(resilient.Options{
		MaxRetries:        cfg.Retry.MaxRetries,
		AttemptTimeout:    cfg.Retry.AttemptTimeout,
		RateLimitRPS:      cfg.Retry.RateLimitRPS,
		BackoffInitial:    cfg.Retry.BackoffInitial,
		BackoffMax:        cfg.Retry.BackoffMax,
		BackoffJitterFrac: cfg.Retry.BackoffJitterFrac,
		Logger:            logger,
	})

	extractor := extract.New(gen, logger)
	contentEnricher := enrich.NewContentEnricher(fetcher, gen, caller, enrich.ContentOptions{
		MaxURLs:       cfg.Enrich.MaxFetchURLs,
		MaxConcurrent: cfg.Enrich.MaxConcurrentFetches,
		Logger:        logger,
	})
	searchEnricher := enrich.NewSearchEnricher(searcher, gen, contentEnricher, caller, enrich.SearchOptions{
		SearchCount: cfg.Enrich.SearchCount,
		Logger:      logger,
	})
	synthesizer := script.New(gen, logger)

	return pipeline.New(extractor, searchEnricher, contentEnricher, synthesizer, logger), nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

