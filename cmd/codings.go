package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/codeloom/internal/cache"
	"github.com/KaramelBytes/codeloom/internal/coding"
)

var codingsCache string

var codingsCmd = &cobra.Command{
	Use:   "codings",
	Short: "Manage the coding-map cache",
}

var codingsFetchCmd = &cobra.Command{
	Use:   "fetch <id>...",
	Short: "Resolve coding ids ahead of a batch run and cache them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int, 0, len(args))
		for _, a := range args {
			id, err := strconv.Atoi(a)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid coding id: %s", a)
			}
			ids = append(ids, id)
		}
		store := openStore(codingsCache, false, cfg.CacheFile)
		builder := &coding.Builder{
			Fetcher: coding.NewFetcher(cfg.Endpoints, httpTimeout(cfg)).
				WithCodingPath(cfg.CodingPath).
				WithPlainFlag(cfg.PlainFlag),
			Store:  store,
			Delay:  fetchDelay(cfg),
			Warnf:  warnf,
			Debugf: debugf,
		}
		maps := builder.Build(cmd.Context(), ids, nil)
		printFetchSummary(os.Stdout, ids, maps)
		return nil
	},
}

var codingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show cached coding ids and entry counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := codingsCache
		if path == "" {
			path = cfg.CacheFile
		}
		store, err := cache.OpenFile(path)
		if err != nil {
			return err
		}
		ids := store.IDs()
		if len(ids) == 0 {
			fmt.Println("cache is empty")
			return nil
		}
		sort.Ints(ids)
		for _, id := range ids {
			m, _ := store.Get(id)
			fmt.Printf("coding %d: %d entries\n", id, len(m))
		}
		return nil
	},
}

// printFetchSummary reports a per-id resolution outcome, in request order.
func printFetchSummary(w io.Writer, ids []int, maps map[int]map[string]string) {
	for _, id := range ids {
		if m, ok := maps[id]; ok {
			fmt.Fprintf(w, "✓ coding %d: %d entries\n", id, len(m))
		} else {
			fmt.Fprintf(w, "✗ coding %d: unresolved, values will stay raw\n", id)
		}
	}
}

func init() {
	codingsCmd.PersistentFlags().StringVar(&codingsCache, "cache", "", "coding-map cache file (default from config)")
	codingsCmd.AddCommand(codingsFetchCmd)
	codingsCmd.AddCommand(codingsListCmd)
	rootCmd.AddCommand(codingsCmd)
}
