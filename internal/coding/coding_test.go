package coding

import (
	"reflect"
	"testing"
	"time"
)

func TestCandidatesOrderAndDedup(t *testing.T) {
	f := NewFetcher([]string{
		"https://a.example.org/ukb/",
		"https://b.example.org/crystal", // trailing slash added
	}, time.Second)

	got := f.candidates(9, "https://a.example.org/ukb/coding.cgi?id=9")
	want := []candidate{
		{url: "https://a.example.org/ukb/coding.cgi?id=9&nl=1", plain: true},
		{url: "https://b.example.org/crystal/coding.cgi?id=9&nl=1", plain: true},
		{url: "https://a.example.org/ukb/coding.cgi?id=9"},
		{url: "https://b.example.org/crystal/coding.cgi?id=9"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
}

func TestCandidatesHintKeptWhenDistinct(t *testing.T) {
	f := NewFetcher([]string{"https://a.example.org/ukb/"}, time.Second)
	got := f.candidates(9, "https://hint.example.org/page?id=9")
	if len(got) != 3 || got[1].url != "https://hint.example.org/page?id=9" {
		t.Fatalf("candidates = %v, want hint second", got)
	}
	if got[1].plain {
		t.Fatal("hint must not carry the plain flag")
	}
}

func TestCandidatesCustomPathAndFlag(t *testing.T) {
	f := NewFetcher([]string{"https://a.example.org/"}, time.Second).
		WithCodingPath("lookup.cgi").
		WithPlainFlag("fmt=txt")
	got := f.candidates(7, "")
	if got[0].url != "https://a.example.org/lookup.cgi?id=7&fmt=txt" {
		t.Fatalf("flagged candidate = %q", got[0].url)
	}
	if got[1].url != "https://a.example.org/lookup.cgi?id=7" {
		t.Fatalf("unflagged candidate = %q", got[1].url)
	}
}

func TestPlausibleCoding(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{"<html><TABLE><tr></tr></TABLE></html>", true},
		{"Coding 9 lookup", true},
		{"<html><p>404 not found</p></html>", false},
	}
	for _, c := range cases {
		if got := plausibleCoding([]byte(c.body)); got != c.want {
			t.Errorf("plausibleCoding(%q) = %v, want %v", c.body, got, c.want)
		}
	}
}

const labeledTableHTML = `<html><body>
<table><tr><td>garbage</td><td>first table</td></tr></table>
<table>
<tr><th>Coding</th><th>Meaning</th></tr>
<tr><td>0</td><td>Female</td></tr>
<tr><td>1</td><td>Male</td></tr>
<tr><td>0</td><td>duplicate ignored</td></tr>
<tr><td></td><td>empty code skipped</td></tr>
</table>
</body></html>`

func TestParseTablePrefersLabeled(t *testing.T) {
	got := ParseTable([]byte(labeledTableHTML))
	want := map[string]string{"0": "Female", "1": "Male"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseTable = %v, want %v", got, want)
	}
}

func TestParseTableFirstTableFallback(t *testing.T) {
	html := `<html><body><table>
<tr><td>-1</td><td>Do not know</td></tr>
<tr><td>-3</td><td>Prefer not to answer</td></tr>
</table></body></html>`
	got := ParseTable([]byte(html))
	if got["-1"] != "Do not know" || got["-3"] != "Prefer not to answer" {
		t.Fatalf("ParseTable = %v", got)
	}
}

func TestParseTableNothing(t *testing.T) {
	if got := ParseTable([]byte("<html><p>no tables</p></html>")); len(got) != 0 {
		t.Fatalf("ParseTable = %v, want empty", got)
	}
}

func TestParseDelimitedHeaderHeuristic(t *testing.T) {
	cases := []struct {
		name string
		data string
		want map[string]string
	}{
		{
			"tab with header",
			"coding\tmeaning\n0\tFemale\n1\tMale\n",
			map[string]string{"0": "Female", "1": "Male"},
		},
		{
			"comma with header",
			"Value,Description\n10,Never\n20,Sometimes\n",
			map[string]string{"10": "Never", "20": "Sometimes"},
		},
		{
			"semicolon no header keeps first row",
			"-1;Do not know\n-3;Prefer not to answer\n",
			map[string]string{"-1": "Do not know", "-3": "Prefer not to answer"},
		},
		{
			"short rows skipped",
			"code\tmeaning\nonlyone\n5\tMapped\n",
			map[string]string{"5": "Mapped"},
		},
	}
	for _, c := range cases {
		got := parseDelimited([]byte(c.data))
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("%s: parseDelimited = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestFindDownloadLink(t *testing.T) {
	page := `<html><body>
<a href="/help">Help</a>
<a href="codown.cgi?id=9">Download</a>
</body></html>`
	got := findDownloadLink([]byte(page), "https://a.example.org/ukb/coding.cgi?id=9")
	if got != "https://a.example.org/ukb/codown.cgi?id=9" {
		t.Fatalf("link = %q", got)
	}
	if l := findDownloadLink([]byte("<html><a href='/x'>Other</a></html>"), "https://a.example.org/"); l != "" {
		t.Fatalf("link = %q, want none", l)
	}
}
