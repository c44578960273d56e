// Package coding resolves coding ids to code→meaning maps by querying an
// ordered chain of remote sources, backed by a persistent cache.
package coding

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout    = 20 * time.Second
	defaultCodingPath = "coding.cgi"
	defaultPlainFlag  = "nl=1"
	maxBodyBytes      = 4 << 20
)

// Page is one fetched candidate source. Plain marks pages requested with the
// structured-rendering flag, which are preferred for table extraction.
type Page struct {
	URL   string
	Body  []byte
	Plain bool
}

// Fetcher retrieves candidate coding pages from a fixed list of fallback
// endpoints with a bounded per-request timeout.
type Fetcher struct {
	client     *http.Client
	endpoints  []string
	codingPath string
	plainFlag  string
}

// NewFetcher builds a Fetcher over the given base endpoints. Zero values
// fall back to defaults.
func NewFetcher(endpoints []string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	normalized := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		if e == "" {
			continue
		}
		if !strings.HasSuffix(e, "/") {
			e += "/"
		}
		normalized = append(normalized, e)
	}
	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		endpoints:  normalized,
		codingPath: defaultCodingPath,
		plainFlag:  defaultPlainFlag,
	}
}

// WithCodingPath overrides the endpoint-relative coding resource path.
func (f *Fetcher) WithCodingPath(p string) *Fetcher {
	if p != "" {
		f.codingPath = p
	}
	return f
}

// WithPlainFlag overrides the structured-rendering query flag.
func (f *Fetcher) WithPlainFlag(flag string) *Fetcher {
	if flag != "" {
		f.plainFlag = flag
	}
	return f
}

// candidate pairs a URL with its rendering-flag marker before fetching.
type candidate struct {
	url   string
	plain bool
}

// candidates returns the ordered, deduplicated source URLs for a coding id:
// flagged endpoint URLs first, then the discovered hint, then unflagged
// endpoint URLs.
func (f *Fetcher) candidates(id int, hint string) []candidate {
	var ordered []candidate
	for _, base := range f.endpoints {
		ordered = append(ordered, candidate{
			url:   fmt.Sprintf("%s%s?id=%d&%s", base, f.codingPath, id, f.plainFlag),
			plain: true,
		})
	}
	if hint != "" {
		ordered = append(ordered, candidate{url: hint})
	}
	for _, base := range f.endpoints {
		ordered = append(ordered, candidate{url: fmt.Sprintf("%s%s?id=%d", base, f.codingPath, id)})
	}
	seen := map[string]bool{}
	out := ordered[:0]
	for _, c := range ordered {
		if seen[c.url] {
			continue
		}
		seen[c.url] = true
		out = append(out, c)
	}
	return out
}

// FetchCandidates retrieves every candidate source for id, keeping only
// responses that succeed and plausibly contain coding content.
func (f *Fetcher) FetchCandidates(ctx context.Context, id int, hint string) []Page {
	var pages []Page
	for _, c := range f.candidates(id, hint) {
		body, err := f.Get(ctx, c.url)
		if err != nil {
			continue
		}
		if !plausibleCoding(body) {
			continue
		}
		pages = append(pages, Page{URL: c.url, Body: body, Plain: c.plain})
	}
	return pages
}

// Get performs a single bounded GET, returning the body on a 2xx response.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status %d from %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// plausibleCoding filters responses that cannot contain a coding table.
func plausibleCoding(body []byte) bool {
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "<table") || strings.Contains(lower, "coding")
}
