package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/codeloom/internal/cache"
	"github.com/KaramelBytes/codeloom/internal/coding"
	cfgpkg "github.com/KaramelBytes/codeloom/internal/config"
	"github.com/KaramelBytes/codeloom/internal/decode"
	"github.com/KaramelBytes/codeloom/internal/dict"
	"github.com/KaramelBytes/codeloom/internal/naming"
	"github.com/KaramelBytes/codeloom/internal/tabular"
)

var (
	decDict        string
	decInput       string
	decOutput      string
	decCache       string
	decNoCache     bool
	decInstanceMap string
	decStyle       string
	decDelimiter   string
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Rename headers and decode coded cells of a delimited table",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := decodeOptions{
			DictPath:     decDict,
			InputPath:    decInput,
			OutputPath:   decOutput,
			CachePath:    decCache,
			NoCache:      decNoCache,
			InstancePath: decInstanceMap,
			Style:        decStyle,
		}
		delim, err := parseDelimiterFlag(decDelimiter)
		if err != nil {
			return err
		}
		opts.Delimiter = delim
		return runDecode(cmd.Context(), cfg, opts)
	},
}

func init() {
	decodeCmd.Flags().StringVarP(&decDict, "dict", "H", "", "documentation page describing the columns (required)")
	decodeCmd.Flags().StringVarP(&decInput, "input", "i", "", "input delimited table (required)")
	decodeCmd.Flags().StringVarP(&decOutput, "output", "o", "", "output table path (required)")
	decodeCmd.Flags().StringVar(&decCache, "cache", "", "coding-map cache file (default from config)")
	decodeCmd.Flags().BoolVar(&decNoCache, "no-cache", false, "disable the coding-map cache")
	decodeCmd.Flags().StringVar(&decInstanceMap, "instance-map", "", "instance-description JSON (field -> instance -> text)")
	decodeCmd.Flags().StringVar(&decStyle, "style", "", "naming style for base names (default from config)")
	decodeCmd.Flags().StringVar(&decDelimiter, "delimiter", "", "input delimiter: ','|'tab'|';' (default: auto-detect)")
	_ = decodeCmd.MarkFlagRequired("dict")
	_ = decodeCmd.MarkFlagRequired("input")
	_ = decodeCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(decodeCmd)
}

type decodeOptions struct {
	DictPath     string
	InputPath    string
	OutputPath   string
	CachePath    string
	NoCache      bool
	InstancePath string
	Style        string
	Delimiter    rune
}

func parseDelimiterFlag(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

// runDecode drives the full pipeline: dictionary parse, header plan, coding
// resolution, row rewrite. Fatal errors return before the output file exists.
func runDecode(ctx context.Context, cfg *cfgpkg.Global, opts decodeOptions) error {
	style := opts.Style
	if style == "" {
		style = cfg.Style
	}
	if _, err := naming.ParseStyle(style); err != nil {
		return err
	}

	d, err := dict.ParseFile(opts.DictPath, cfg.Endpoints[0])
	if err != nil {
		return err
	}
	debugf("dictionary: %d identifiers, %d coding hints", len(d.Records), len(d.CodingURLs))

	table, err := tabular.Load(opts.InputPath, opts.Delimiter)
	if err != nil {
		return err
	}

	var inst naming.InstanceMap
	if opts.InstancePath != "" {
		inst, err = naming.LoadInstanceMap(opts.InstancePath)
		if err != nil {
			warnf("instance map unusable, suffixes skipped: %v", err)
		}
	}

	plans, err := naming.Plan(table.Header, d, inst, naming.Style(style))
	if err != nil {
		return err
	}

	needed := naming.NeededCodings(plans)
	ids := make([]int, 0, len(needed))
	hints := make(map[int]string, len(needed))
	for id := range needed {
		ids = append(ids, id)
		if u, ok := d.CodingURLs[id]; ok {
			hints[id] = u
		}
	}

	store := openStore(opts.CachePath, opts.NoCache, cfg.CacheFile)
	builder := &coding.Builder{
		Fetcher: coding.NewFetcher(cfg.Endpoints, httpTimeout(cfg)).
			WithCodingPath(cfg.CodingPath).
			WithPlainFlag(cfg.PlainFlag),
		Store:  store,
		Delay:  fetchDelay(cfg),
		Warnf:  warnf,
		Debugf: debugf,
	}
	maps := builder.Build(ctx, ids, hints)

	engine := decode.NewEngine(plans, maps)
	written, err := writeOutput(opts.OutputPath, table, plans, engine)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Done: %d rows read, %d rows written → %s\n", len(table.Rows), written, opts.OutputPath)
	return nil
}

// openStore picks the cache backend: the memory store when caching is off,
// else the JSON file store with read failures degraded to warnings.
func openStore(path string, noCache bool, defaultPath string) cache.Store {
	if noCache {
		return cache.NewMemStore()
	}
	if path == "" {
		path = defaultPath
	}
	s, err := cache.OpenFile(path)
	if err != nil {
		warnf("cache unusable, starting empty: %v", err)
	}
	return s
}

// writeOutput streams the planned header and decoded rows to a unique temp
// file, renaming it into place only after every row is written.
func writeOutput(path string, table *tabular.Table, plans []naming.ColumnPlan, engine *decode.Engine) (int, error) {
	names := make([]string, len(plans))
	for i, p := range plans {
		names[i] = p.Name
	}

	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if f != nil {
			f.Close()
			_ = os.Remove(tmp)
		}
	}()

	w := tabular.NewWriter(f, table.Delim)
	if err := w.WriteRow(names); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	written := 0
	for _, row := range table.Rows {
		if err := w.WriteRow(engine.Rewrite(row)); err != nil {
			return written, fmt.Errorf("write row: %w", err)
		}
		written++
	}
	if err := w.Flush(); err != nil {
		return written, fmt.Errorf("flush output: %w", err)
	}
	if err := f.Close(); err != nil {
		f = nil
		_ = os.Remove(tmp)
		return written, fmt.Errorf("close output: %w", err)
	}
	f = nil
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return written, fmt.Errorf("rename output: %w", err)
	}
	return written, nil
}
