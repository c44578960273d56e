package coding

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"

	"github.com/KaramelBytes/codeloom/internal/tabular"
)

var anchorExpr = xpath.MustCompile("//a[@href]")

// downloadedHeaderRe recognizes a delimited file's first row as a header
// rather than data.
var downloadedHeaderRe = regexp.MustCompile(`(?i)code|coding|value|meaning|description`)

// findDownloadLink returns the absolute URL of the first "download" link on
// the page, or "".
func findDownloadLink(body []byte, pageURL string) string {
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	for _, a := range htmlquery.QuerySelectorAll(doc, anchorExpr) {
		text := strings.ToLower(strings.TrimSpace(htmlquery.InnerText(a)))
		href := htmlquery.SelectAttr(a, "href")
		if href == "" || !strings.Contains(text, "download") {
			continue
		}
		return resolveAgainst(href, pageURL)
	}
	return ""
}

func resolveAgainst(href, pageURL string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return href
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// parseDelimited turns a downloaded delimited file into a code→meaning map.
// The delimiter is sampled (tab wins when nothing else appears) and the first
// row is skipped only when it looks like a header.
func parseDelimited(data []byte) map[string]string {
	rows, err := tabular.Parse(data, 0, '\t')
	if err != nil || len(rows) == 0 {
		return nil
	}
	mapping := map[string]string{}
	add := func(row []string) {
		if len(row) < 2 {
			return
		}
		code := strings.TrimSpace(row[0])
		meaning := strings.TrimSpace(row[1])
		if code == "" || meaning == "" {
			return
		}
		if _, ok := mapping[code]; !ok {
			mapping[code] = meaning
		}
	}
	first := rows[0]
	if !downloadedHeaderRe.MatchString(strings.Join(first, " ")) {
		add(first)
	}
	for _, row := range rows[1:] {
		add(row)
	}
	return mapping
}

// downloadStrategy fetches the first download link found on any candidate
// page and parses it as delimited code→meaning rows.
func downloadStrategy(f *Fetcher) strategy {
	return func(ctx context.Context, pages []Page) map[string]string {
		for _, p := range pages {
			link := findDownloadLink(p.Body, p.URL)
			if link == "" {
				continue
			}
			data, err := f.Get(ctx, link)
			if err != nil {
				continue
			}
			if m := parseDelimited(data); len(m) > 0 {
				return m
			}
		}
		return nil
	}
}
