package enrich

import (
	"net/url"
	"sort"
	"strings"
)

// filterURLs deduplicates, normalizes and validates candidate URLs,
// preserving input order.
func filterURLs(urls []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(urls))
	for _, raw := range urls {
		u := normalizeURL(strings.TrimSpace(raw))
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// normalizeURL defaults the scheme to https and rejects anything that
// does not parse into a host. Returns "" for unusable input.
func normalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || parsed.Scheme == "" {
		return ""
	}
	return raw
}

var (
	museumDomainKeywords = []string{"museum", "gallery", "art", "heritage"}
	newsDomainKeywords   = []string{"news", "blog", "medium", "wordpress", "press"}
)

// prioritizeURLs orders candidates by how likely they are to carry real
// artwork information, then truncates to maxURLs. Official museum
// domains win; everything else falls through a fixed score ladder.
func prioritizeURLs(urls []string, maxURLs int) []string {
	if len(urls) == 0 || maxURLs <= 0 {
		return nil
	}

	type scored struct {
		url   string
		score int
	}
	entries := make([]scored, 0, len(urls))
	for _, u := range urls {
		entries = append(entries, scored{url: u, score: scoreURL(u)})
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].score > entries[b].score
	})

	if maxURLs > len(entries) {
		maxURLs = len(entries)
	}
	out := make([]string, 0, maxURLs)
	for _, e := range entries[:maxURLs] {
		out = append(out, e.url)
	}
	return out
}

func scoreURL(u string) int {
	score := 10
	parsed, err := url.Parse(u)
	if err != nil {
		return score
	}
	domain := strings.ToLower(parsed.Hostname())

	for _, kw := range museumDomainKeywords {
		if strings.Contains(domain, kw) {
			score += 100
			break
		}
	}
	if hasCountryCodeTLD(domain) {
		score += 50
	}
	if strings.HasPrefix(u, "https://") {
		score += 20
	}
	for _, kw := range newsDomainKeywords {
		if strings.Contains(domain, kw) {
			score += 30
			break
		}
	}
	return score
}

// hasCountryCodeTLD reports a two-letter top-level domain (.kr, .fr, .uk ...).
func hasCountryCodeTLD(domain string) bool {
	i := strings.LastIndex(domain, ".")
	if i < 0 {
		return false
	}
	tld := domain[i+1:]
	if len(tld) != 2 {
		return false
	}
	for _, r := range tld {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
