package coding

import (
	"bytes"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

var (
	tableExpr = xpath.MustCompile("//table")
	thExpr    = xpath.MustCompile(".//th")
	trExpr    = xpath.MustCompile(".//tr")
	cellExpr  = xpath.MustCompile(".//td|.//th")
)

var (
	codeLabels    = []string{"coding", "value", "code"}
	meaningLabels = []string{"meaning", "description"}
)

// ParseTable extracts a code→meaning map from markup: the first table whose
// header cells mention both a code-like and a meaning-like label, else the
// document's first table. Returns an empty map when nothing parses.
func ParseTable(body []byte) map[string]string {
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	tables := htmlquery.QuerySelectorAll(doc, tableExpr)
	if len(tables) == 0 {
		return nil
	}
	best := tables[0]
	for _, tbl := range tables {
		if headerMentions(tbl, codeLabels) && headerMentions(tbl, meaningLabels) {
			best = tbl
			break
		}
	}

	mapping := map[string]string{}
	for _, row := range htmlquery.QuerySelectorAll(best, trExpr) {
		cells := htmlquery.QuerySelectorAll(row, cellExpr)
		if len(cells) < 2 {
			continue
		}
		if headerRow(cells) {
			continue
		}
		code := flatText(cells[0])
		meaning := flatText(cells[1])
		if code == "" || meaning == "" {
			continue
		}
		if _, ok := mapping[code]; !ok {
			mapping[code] = meaning
		}
	}
	return mapping
}

func headerMentions(tbl *html.Node, labels []string) bool {
	for _, th := range htmlquery.QuerySelectorAll(tbl, thExpr) {
		h := strings.ToLower(flatText(th))
		for _, l := range labels {
			if strings.Contains(h, l) {
				return true
			}
		}
	}
	return false
}

// headerRow reports whether every cell in the row is a th element.
func headerRow(cells []*html.Node) bool {
	for _, c := range cells {
		if c.Data != "th" {
			return false
		}
	}
	return true
}

func flatText(n *html.Node) string {
	return strings.Join(strings.Fields(htmlquery.InnerText(n)), " ")
}
