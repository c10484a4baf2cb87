package brave_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docent-ai/placard-pipeline/internal/provider"
	"github.com/docent-ai/placard-pipeline/internal/provider/brave"
)

func newSearcher(t *testing.T, handler http.HandlerFunc) *brave.Searcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := brave.New(brave.Config{APIKey: "test-key", Endpoint: srv.URL}, srv.Client())
	if err != nil {
		t.Fatalf("new searcher: %v", err)
	}
	return s
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := brave.New(brave.Config{}, nil); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestSearch_ParsesResults(t *testing.T) {
	t.Parallel()

	s := newSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Subscription-Token"); got != "test-key" {
			t.Errorf("missing subscription token, got %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "starry night moma" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.URL.Query().Get("count"); got != "3" {
			t.Errorf("unexpected count %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"web": {"results": [
				{"url": "https://www.moma.org/collection/works/79802", "title": "The Starry Night", "description": "van Gogh, 1889"},
				{"url": "", "title": "dropped: empty url"},
				{"url": "https://en.wikipedia.org/wiki/The_Starry_Night", "title": "Wikipedia"}
			]}
		}`))
	})

	results, err := s.Search(context.Background(), "starry night moma", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].URL != "https://www.moma.org/collection/works/79802" || results[0].Snippet != "van Gogh, 1889" {
		t.Fatalf("unexpected first result: %#v", results[0])
	}
}

func TestSearch_StatusClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{"rate limited is transient", http.StatusTooManyRequests, true},
		{"server error is transient", http.StatusBadGateway, true},
		{"auth failure is permanent", http.StatusUnauthorized, false},
		{"bad request is permanent", http.StatusUnprocessableEntity, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := newSearcher(t, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tc.status)
			})

			_, err := s.Search(context.Background(), "q", 1)
			if err == nil {
				t.Fatal("expected error")
			}
			var transient *provider.TransientError
			if got := errors.As(err, &transient); got != tc.wantTransient {
				t.Fatalf("transient=%t, want %t (err=%v)", got, tc.wantTransient, err)
			}
			if !tc.wantTransient {
				var tool *provider.ToolError
				if !errors.As(err, &tool) {
					t.Fatalf("expected ToolError, got %v", err)
				}
			}
		})
	}
}

func TestSearch_MalformedBodyIsPermanent(t *testing.T) {
	t.Parallel()

	s := newSearcher(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := s.Search(context.Background(), "q", 1)
	var tool *provider.ToolError
	if !errors.As(err, &tool) {
		t.Fatalf("expected ToolError for undecodable body, got %v", err)
	}
}
