// Package brave adapts Brave's web-search REST API to the
// provider.Searcher contract.
package brave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/docent-ai/placard-pipeline/internal/artwork"
	"github.com/docent-ai/placard-pipeline/internal/provider"
)

const defaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

type Config struct {
	APIKey string

	// Endpoint overrides the search API URL. Useful for testing.
	Endpoint string
}

type Searcher struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func New(cfg Config, client *http.Client) (*Searcher, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("BRAVE_API_KEY is required")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Searcher{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		endpoint: endpoint,
		client:   client,
	}, nil
}

// searchResponse mirrors the slice of the Brave response we rely on.
// All other fields are ignored.
type searchResponse struct {
	Web struct {
		Results []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (s *Searcher) Search(ctx context.Context, query string, count int) ([]artwork.SearchResult, error) {
	if count <= 0 {
		count = 5
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyNetErr(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("brave: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode/100 == 5 {
			return nil, &provider.TransientError{Err: err}
		}
		return nil, &provider.ToolError{Err: err}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &provider.ToolError{Err: fmt.Errorf("brave: decode response: %w", err)}
	}

	out := make([]artwork.SearchResult, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		out = append(out, artwork.SearchResult{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Description,
		})
	}
	return out, nil
}

func classifyNetErr(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &provider.TransientError{Err: err}
	}
	return err
}
