package webfetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docent-ai/placard-pipeline/internal/provider"
	"github.com/docent-ai/placard-pipeline/internal/provider/webfetch"
)

func serve(t *testing.T, handler http.HandlerFunc) (string, *webfetch.Fetcher) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL, webfetch.New(srv.Client())
}

func TestFetch_ExtractsTitleAndParagraphText(t *testing.T) {
	t.Parallel()

	url, f := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html>
<head><title> The Starry Night | MoMA </title><style>p{color:red}</style></head>
<body>
<script>trackVisit()</script>
<h1>The Starry Night</h1>
<p>Painted in June 1889.</p>
<ul><li>Oil on canvas</li></ul>
</body></html>`))
	})

	got, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "The Starry Night | MoMA" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	for _, want := range []string{"The Starry Night", "Painted in June 1889.", "Oil on canvas"} {
		if !strings.Contains(got.Text, want) {
			t.Fatalf("text missing %q: %q", want, got.Text)
		}
	}
	if strings.Contains(got.Text, "trackVisit") || strings.Contains(got.Text, "color:red") {
		t.Fatalf("script/style leaked into text: %q", got.Text)
	}
}

func TestFetch_FallsBackToBodyText(t *testing.T) {
	t.Parallel()

	url, f := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div>Just a div, no paragraphs.</div></body></html>`))
	})

	got, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got.Text, "Just a div, no paragraphs.") {
		t.Fatalf("body fallback missing: %q", got.Text)
	}
}

func TestFetch_StatusClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{"rate limited is transient", http.StatusTooManyRequests, true},
		{"server error is transient", http.StatusInternalServerError, true},
		{"not found is permanent", http.StatusNotFound, false},
		{"forbidden is permanent", http.StatusForbidden, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			url, f := serve(t, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tc.status)
			})

			_, err := f.Fetch(context.Background(), url)
			if err == nil {
				t.Fatal("expected error")
			}
			var transient *provider.TransientError
			if got := errors.As(err, &transient); got != tc.wantTransient {
				t.Fatalf("transient=%t, want %t (err=%v)", got, tc.wantTransient, err)
			}
		})
	}
}

func TestFetch_InvalidURLIsPermanent(t *testing.T) {
	t.Parallel()

	f := webfetch.New(nil)
	_, err := f.Fetch(context.Background(), "http://%zz invalid")
	var tool *provider.ToolError
	if !errors.As(err, &tool) {
		t.Fatalf("expected ToolError, got %v", err)
	}
}
