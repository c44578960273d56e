package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "github.com/KaramelBytes/codeloom/internal/config"
	"github.com/KaramelBytes/codeloom/internal/tabular"
)

const testDictHTML = `<html><body><table>
<tr><th>Column</th><th>UDI</th><th>Count</th><th>Type</th><th>Description</th></tr>
<tr><td>1</td><td>31-0.0</td><td>2</td><td>Categorical</td>
  <td>Sex <a href="coding.cgi?id=9">Uses data-coding 9</a></td></tr>
</table></body></html>`

func testConfig() *cfgpkg.Global {
	return &cfgpkg.Global{
		Endpoints:      []string{"http://127.0.0.1:0/unreachable/"},
		CodingPath:     "coding.cgi",
		PlainFlag:      "nl=1",
		HTTPTimeoutSec: 1,
		FetchDelayMs:   0,
		Style:          "snake",
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunDecodeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	dictPath := writeFile(t, dir, "dict.html", testDictHTML)
	inputPath := writeFile(t, dir, "in.csv", "eid,31-0.0\n123,0\n124,1\n125,0;9\n")
	cachePath := writeFile(t, dir, "cache.json", `{"9": {"0": "Female", "1": "Male"}}`)
	outputPath := filepath.Join(dir, "out.csv")

	err := runDecode(context.Background(), testConfig(), decodeOptions{
		DictPath:   dictPath,
		InputPath:  inputPath,
		OutputPath: outputPath,
		CachePath:  cachePath,
		Style:      "snake",
	})
	if err != nil {
		t.Fatalf("runDecode: %v", err)
	}

	got, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "eid,sex_00\n123,Female\n124,Male\n125,Female;9\n"
	if string(got) != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestRunDecodeKeepsDialect(t *testing.T) {
	dir := t.TempDir()
	dictPath := writeFile(t, dir, "dict.html", testDictHTML)
	inputPath := writeFile(t, dir, "in.tsv", "eid\t31-0.0\n123\t1\n")
	cachePath := writeFile(t, dir, "cache.json", `{"9": {"0": "Female", "1": "Male"}}`)
	outputPath := filepath.Join(dir, "out.tsv")

	err := runDecode(context.Background(), testConfig(), decodeOptions{
		DictPath:   dictPath,
		InputPath:  inputPath,
		OutputPath: outputPath,
		CachePath:  cachePath,
		Style:      "snake",
	})
	if err != nil {
		t.Fatalf("runDecode: %v", err)
	}
	got, _ := os.ReadFile(outputPath)
	if string(got) != "eid\tsex_00\n123\tMale\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestRunDecodeEmptyInputIsFatal(t *testing.T) {
	dir := t.TempDir()
	dictPath := writeFile(t, dir, "dict.html", testDictHTML)
	inputPath := writeFile(t, dir, "in.csv", "")
	outputPath := filepath.Join(dir, "out.csv")

	err := runDecode(context.Background(), testConfig(), decodeOptions{
		DictPath:   dictPath,
		InputPath:  inputPath,
		OutputPath: outputPath,
		NoCache:    true,
		Style:      "snake",
	})
	if !errors.Is(err, tabular.ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Fatal("fatal error must not leave an output file")
	}
}

func TestRunDecodeBadDictionaryIsFatal(t *testing.T) {
	dir := t.TempDir()
	dictPath := writeFile(t, dir, "dict.html", "<html><p>no tables at all</p></html>")
	inputPath := writeFile(t, dir, "in.csv", "eid,31-0.0\n123,0\n")
	outputPath := filepath.Join(dir, "out.csv")

	err := runDecode(context.Background(), testConfig(), decodeOptions{
		DictPath:   dictPath,
		InputPath:  inputPath,
		OutputPath: outputPath,
		NoCache:    true,
		Style:      "snake",
	})
	if err == nil || !strings.Contains(err.Error(), "not recognized") {
		t.Fatalf("err = %v, want dictionary format error", err)
	}
	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Fatal("fatal error must not leave an output file")
	}
}

func TestRunDecodeUnknownStyle(t *testing.T) {
	err := runDecode(context.Background(), testConfig(), decodeOptions{
		DictPath:   "irrelevant",
		InputPath:  "irrelevant",
		OutputPath: "irrelevant",
		Style:      "camel",
	})
	if err == nil || !strings.Contains(err.Error(), "style") {
		t.Fatalf("err = %v, want style error", err)
	}
}

func TestRunDecodeInstanceSuffix(t *testing.T) {
	dir := t.TempDir()
	dictPath := writeFile(t, dir, "dict.html", testDictHTML)
	inputPath := writeFile(t, dir, "in.csv", "eid,31-0.0\n123,0\n")
	cachePath := writeFile(t, dir, "cache.json", `{"9": {"0": "Female", "1": "Male"}}`)
	instPath := writeFile(t, dir, "inst.json", `{"__instances__": {"31": {"0": "Initial assessment visit"}}}`)
	outputPath := filepath.Join(dir, "out.csv")

	err := runDecode(context.Background(), testConfig(), decodeOptions{
		DictPath:     dictPath,
		InputPath:    inputPath,
		OutputPath:   outputPath,
		CachePath:    cachePath,
		InstancePath: instPath,
		Style:        "snake",
	})
	if err != nil {
		t.Fatalf("runDecode: %v", err)
	}
	got, _ := os.ReadFile(outputPath)
	if !strings.Contains(string(got), "sex_00 (Initial assessment visit)") {
		t.Fatalf("output = %q, want instance suffix in header", got)
	}
}

func TestParseDelimiterFlag(t *testing.T) {
	cases := []struct {
		in   string
		want rune
		ok   bool
	}{
		{"", 0, true},
		{",", ',', true},
		{"tab", '\t', true},
		{"\t", '\t', true},
		{";", ';', true},
		{"::", 0, false},
	}
	for _, c := range cases {
		got, err := parseDelimiterFlag(c.in)
		if (err == nil) != c.ok || got != c.want {
			t.Errorf("parseDelimiterFlag(%q) = (%q, %v)", c.in, got, err)
		}
	}
}
