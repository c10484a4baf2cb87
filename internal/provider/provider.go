// Package provider declares the remote-collaborator contracts the
// pipeline depends on, plus the error taxonomy the resilient caller
// uses to decide whether a failure is worth retrying.
package provider

import (
	"context"

	"github.com/docent-ai/placard-pipeline/internal/artwork"
)

// Generator is an AI text-generation collaborator. No structured-output
// guarantee is assumed; callers parse defensively.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher queries a web-search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]artwork.SearchResult, error)
}

// Fetched is one page body returned by a Fetcher.
type Fetched struct {
	Title string
	Text  string
}

// Fetcher retrieves a single URL's readable content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Fetched, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
