// Package decode rewrites data rows, replacing raw categorical codes with
// their resolved meanings. Cells are treated as possibly multi-valued lists.
package decode

import (
	"strings"

	"github.com/KaramelBytes/codeloom/internal/naming"
)

// outputSeparator rejoins multi-valued cells after decoding.
const outputSeparator = ";"

func isSeparator(r rune) bool {
	return r == ';' || r == ',' || r == '|'
}

// Engine applies resolved coding maps to rows of a fixed width.
type Engine struct {
	width int
	cols  map[int]map[string]string // column index → coding map
}

// NewEngine binds column plans to their resolved maps. Columns whose coding
// id has no resolved map get no entry and pass through untouched.
func NewEngine(plans []naming.ColumnPlan, maps map[int]map[string]string) *Engine {
	cols := map[int]map[string]string{}
	for i, p := range plans {
		if p.CodingID == 0 {
			continue
		}
		if m, ok := maps[p.CodingID]; ok && len(m) > 0 {
			cols[i] = m
		}
	}
	return &Engine{width: len(plans), cols: cols}
}

// Rewrite returns the decoded form of row, padded with empty cells to the
// header width. Cells beyond the planned width are preserved as-is.
func (e *Engine) Rewrite(row []string) []string {
	out := make([]string, 0, max(len(row), e.width))
	out = append(out, row...)
	for len(out) < e.width {
		out = append(out, "")
	}
	for i, m := range e.cols {
		if out[i] == "" {
			continue
		}
		out[i] = DecodeCell(out[i], m)
	}
	return out
}

// DecodeCell splits a raw value on the separator set, trims and de-quotes
// each token, maps known codes to meanings leaving unknown tokens unchanged,
// and rejoins with the canonical separator. Empty tokens are dropped.
func DecodeCell(raw string, m map[string]string) string {
	tokens := strings.FieldsFunc(raw, isSeparator)
	decoded := make([]string, 0, len(tokens))
	for _, t := range tokens {
		code := strings.Trim(strings.TrimSpace(t), `"`)
		if code == "" {
			continue
		}
		if meaning, ok := m[code]; ok {
			decoded = append(decoded, meaning)
		} else {
			decoded = append(decoded, code)
		}
	}
	return strings.Join(decoded, outputSeparator)
}
