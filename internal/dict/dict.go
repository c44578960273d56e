// Package dict parses a documentation page that lists per-column identifiers
// ("UDIs" of the form field-instance.array), their descriptions, and optional
// references to external coding tables.
package dict

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// ErrNoTable indicates the page contains no recognizable column table.
var ErrNoTable = errors.New("dictionary format not recognized: no column table found")

var (
	tableExpr = xpath.MustCompile("//table")
	thExpr    = xpath.MustCompile(".//th")
	trExpr    = xpath.MustCompile(".//tr")
	tdExpr    = xpath.MustCompile(".//td")
	linkExpr  = xpath.MustCompile(".//a[@href]")
)

var (
	udiRe          = regexp.MustCompile(`^(\d+)-(\d+)\.(\d+)$`)
	codingLinkRe   = regexp.MustCompile(`coding\.cgi\?id=(\d+)`)
	codingClauseRe = regexp.MustCompile(`(?i)\s*uses\s+data-coding\s+\d+\s*$`)
)

// minRowCells is the minimum cell count for a data row to be considered;
// the identifier sits in the second cell and the description in the fifth.
const (
	minRowCells = 5
	udiCell     = 1
	descCell    = 4
)

// Record describes one documented column. CodingID 0 means the row states no
// coding reference.
type Record struct {
	Field    string
	Instance string
	Array    string
	Desc     string
	CodingID int
}

// Key returns the canonical triple serialization, e.g. "31-0.0".
func (r Record) Key() string {
	return r.Field + "-" + r.Instance + "." + r.Array
}

// Dictionary is the parsed documentation page: exact per-identifier records
// plus first-wins field-level fallbacks and discovered coding URL hints.
type Dictionary struct {
	Records     map[string]Record
	FieldDesc   map[string]string
	FieldCoding map[string]int
	CodingURLs  map[int]string
}

// ParseFile parses the documentation page at path. baseURL absolutizes
// relative coding links found in description cells.
func ParseFile(path, baseURL string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()
	return Parse(f, baseURL)
}

// Parse parses documentation markup from r.
func Parse(r io.Reader, baseURL string) (*Dictionary, error) {
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse dictionary markup: %w", err)
	}
	table := findColumnsTable(doc)
	if table == nil {
		return nil, ErrNoTable
	}

	d := &Dictionary{
		Records:     map[string]Record{},
		FieldDesc:   map[string]string{},
		FieldCoding: map[string]int{},
		CodingURLs:  map[int]string{},
	}

	rows := htmlquery.QuerySelectorAll(table, trExpr)
	for _, row := range rows {
		cells := htmlquery.QuerySelectorAll(row, tdExpr)
		if len(cells) < minRowCells {
			continue
		}
		udiText := cellText(cells[udiCell])
		m := udiRe.FindStringSubmatch(udiText)
		if m == nil {
			// malformed identifier, skip the row
			continue
		}
		rec := Record{
			Field:    m[1],
			Instance: m[2],
			Array:    m[3],
			Desc:     codingClauseRe.ReplaceAllString(cellText(cells[descCell]), ""),
		}
		if id, href := codingLink(cells[descCell], baseURL); id > 0 {
			rec.CodingID = id
			d.CodingURLs[id] = href
		}
		d.Records[rec.Key()] = rec

		// field-level fallbacks are first-wins in row order
		if _, ok := d.FieldDesc[rec.Field]; !ok && rec.Desc != "" {
			d.FieldDesc[rec.Field] = rec.Desc
		}
		if _, ok := d.FieldCoding[rec.Field]; !ok && rec.CodingID > 0 {
			d.FieldCoding[rec.Field] = rec.CodingID
		}
	}
	return d, nil
}

// findColumnsTable locates the table whose header cells mention both an
// identifier label and a description label; failing that, the document's
// first table.
func findColumnsTable(doc *html.Node) *html.Node {
	tables := htmlquery.QuerySelectorAll(doc, tableExpr)
	for _, tbl := range tables {
		hasUDI, hasDesc := false, false
		for _, th := range htmlquery.QuerySelectorAll(tbl, thExpr) {
			h := strings.ToLower(cellText(th))
			if strings.Contains(h, "udi") {
				hasUDI = true
			}
			if strings.Contains(h, "description") {
				hasDesc = true
			}
		}
		if hasUDI && hasDesc {
			return tbl
		}
	}
	if len(tables) > 0 {
		return tables[0]
	}
	return nil
}

// codingLink extracts a coding id and an absolute URL from the first
// coding.cgi link inside the cell, if any.
func codingLink(cell *html.Node, baseURL string) (int, string) {
	for _, a := range htmlquery.QuerySelectorAll(cell, linkExpr) {
		href := htmlquery.SelectAttr(a, "href")
		m := codingLinkRe.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || id <= 0 {
			continue
		}
		return id, absolutize(href, baseURL)
	}
	return 0, ""
}

func absolutize(href, baseURL string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// cellText flattens a node's text content, collapsing internal whitespace to
// single spaces.
func cellText(n *html.Node) string {
	return strings.Join(strings.Fields(htmlquery.InnerText(n)), " ")
}
