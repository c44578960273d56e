// Package naming plans output column names: a sanitized base derived from the
// documented description, a zero-padded per-base sequence index, an optional
// instance-description suffix, and the coding id the decode stage should use.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/KaramelBytes/codeloom/internal/dict"
)

// Style selects the base-name convention.
type Style string

// StyleSnake is the only supported style: lowercase alphanumeric tokens
// joined by single underscores.
const StyleSnake Style = "snake"

// ParseStyle validates a style name.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleSnake:
		return StyleSnake, nil
	default:
		return "", fmt.Errorf("unsupported naming style: %q (use %q)", s, StyleSnake)
	}
}

// ColumnPlan is the per-column output of planning. Index is -1 for the
// subject-key column, which is never numbered. CodingID 0 means the column
// is not decoded.
type ColumnPlan struct {
	Raw      string
	Base     string
	Name     string
	Index    int
	CodingID int
}

// IsSubjectKey reports whether the plan is the literal eid column.
func (p ColumnPlan) IsSubjectKey() bool { return p.Index < 0 }

const subjectKeyName = "eid"

var (
	dotHeaderRe  = regexp.MustCompile(`^f\.(\d+)\.(\d+)\.(\d+)$`)
	dashHeaderRe = regexp.MustCompile(`^(\d+)-(\d+)\.(\d+)$`)
	sanitizeRe   = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// Sanitize lowercases text and collapses non-alphanumeric runs into single
// underscores, trimming any at the edges.
func Sanitize(text string) string {
	return strings.ToLower(strings.Trim(sanitizeRe.ReplaceAllString(text, "_"), "_"))
}

// ParseHeader recognizes the two accepted raw header forms, f.F.I.A and
// F-I.A, returning the (field, instance, array) triple.
func ParseHeader(h string) (field, instance, array string, ok bool) {
	if m := dotHeaderRe.FindStringSubmatch(h); m != nil {
		return m[1], m[2], m[3], true
	}
	if m := dashHeaderRe.FindStringSubmatch(h); m != nil {
		return m[1], m[2], m[3], true
	}
	return "", "", "", false
}

func isSubjectKey(h string) bool {
	switch strings.ToLower(h) {
	case "eid", "f.eid":
		return true
	}
	return false
}

// column carries the intermediate state between the two planning passes.
type column struct {
	raw        string
	base       string
	subjectKey bool
	field      string
	instance   string
	codingID   int
}

// Plan computes a ColumnPlan for every raw header, in order. Numbering is
// two-phase: first count columns per base, then assign each column its
// zero-based occurrence index padded to max(2, digits(total-1)).
func Plan(headers []string, d *dict.Dictionary, inst InstanceMap, style Style) ([]ColumnPlan, error) {
	if _, err := ParseStyle(string(style)); err != nil {
		return nil, err
	}

	// pass 1: resolve bases and coding ids
	cols := make([]column, 0, len(headers))
	totals := map[string]int{}
	for _, raw := range headers {
		c := column{raw: raw}
		if isSubjectKey(raw) {
			c.subjectKey = true
			c.base = subjectKeyName
			cols = append(cols, c)
			continue
		}
		if field, instance, array, ok := ParseHeader(raw); ok {
			c.field, c.instance = field, instance
			key := field + "-" + instance + "." + array
			rec, exact := d.Records[key]
			switch {
			case exact && rec.Desc != "":
				c.base = Sanitize(rec.Desc)
			case d.FieldDesc[field] != "":
				c.base = Sanitize(d.FieldDesc[field])
			default:
				c.base = Sanitize(raw)
			}
			// exact identifier coding strictly wins over the field fallback
			if exact && rec.CodingID > 0 {
				c.codingID = rec.CodingID
			} else {
				c.codingID = d.FieldCoding[field]
			}
		} else {
			c.base = Sanitize(raw)
		}
		totals[c.base]++
		cols = append(cols, c)
	}

	// pass 2: assign indexes and padded names
	pad := map[string]int{}
	for base, n := range totals {
		width := len(strconv.Itoa(n - 1))
		if width < 2 {
			width = 2
		}
		pad[base] = width
	}
	seen := map[string]int{}
	plans := make([]ColumnPlan, 0, len(cols))
	for _, c := range cols {
		if c.subjectKey {
			plans = append(plans, ColumnPlan{Raw: c.raw, Base: subjectKeyName, Name: subjectKeyName, Index: -1})
			continue
		}
		idx := seen[c.base]
		seen[c.base]++
		name := fmt.Sprintf("%s_%0*d", c.base, pad[c.base], idx)
		if desc := inst.Lookup(c.field, c.instance); desc != "" {
			name = fmt.Sprintf("%s (%s)", name, desc)
		}
		plans = append(plans, ColumnPlan{
			Raw:      c.raw,
			Base:     c.base,
			Name:     name,
			Index:    idx,
			CodingID: c.codingID,
		})
	}
	return plans, nil
}

// NeededCodings returns the distinct coding ids the plans reference, and the
// column index of every plan using each id.
func NeededCodings(plans []ColumnPlan) map[int][]int {
	out := map[int][]int{}
	for i, p := range plans {
		if p.CodingID > 0 {
			out[p.CodingID] = append(out[p.CodingID], i)
		}
	}
	return out
}
