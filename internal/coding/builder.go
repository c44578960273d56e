package coding

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/KaramelBytes/codeloom/internal/cache"
)

// strategy attempts to derive a code→meaning map from fetched candidate
// pages. A nil or empty result means "try the next strategy".
type strategy func(ctx context.Context, pages []Page) map[string]string

// plainTableStrategy extracts a table only from pages fetched with the
// structured-rendering flag.
func plainTableStrategy(ctx context.Context, pages []Page) map[string]string {
	for _, p := range pages {
		if !p.Plain {
			continue
		}
		if m := ParseTable(p.Body); len(m) > 0 {
			return m
		}
	}
	return nil
}

// anyTableStrategy extracts a table from any fetched page, flag or not.
func anyTableStrategy(ctx context.Context, pages []Page) map[string]string {
	for _, p := range pages {
		if m := ParseTable(p.Body); len(m) > 0 {
			return m
		}
	}
	return nil
}

// Builder resolves coding maps through the strategy chain, consulting and
// updating a cache store. The zero Warnf/Debugf default to stderr and no-op.
type Builder struct {
	Fetcher *Fetcher
	Store   cache.Store
	Delay   time.Duration
	Warnf   func(format string, args ...any)
	Debugf  func(format string, args ...any)
}

func (b *Builder) warnf(format string, args ...any) {
	if b.Warnf != nil {
		b.Warnf(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, "⚠ Warning: "+format+"\n", args...)
}

func (b *Builder) debugf(format string, args ...any) {
	if b.Debugf != nil {
		b.Debugf(format, args...)
	}
}

// Build resolves every id in sorted order. Ids that resolve nowhere are
// absent from the result; that is a warning, never an error. Resolved maps
// are flushed to the store at the end, best-effort.
func (b *Builder) Build(ctx context.Context, ids []int, hints map[int]string) map[int]map[string]string {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	out := make(map[int]map[string]string, len(sorted))
	for _, id := range sorted {
		if b.Store != nil {
			if m, ok := b.Store.Get(id); ok {
				b.debugf("coding %d: cache hit (%d entries)", id, len(m))
				out[id] = m
				continue
			}
		}
		m := b.resolve(ctx, id, hints[id])
		if b.Delay > 0 {
			time.Sleep(b.Delay)
		}
		if len(m) == 0 {
			b.warnf("no mapping resolved for coding %d; values kept raw", id)
			continue
		}
		b.debugf("coding %d: resolved %d entries", id, len(m))
		out[id] = m
		if b.Store != nil {
			b.Store.Put(id, m)
		}
	}

	if b.Store != nil {
		if err := b.Store.Flush(); err != nil {
			b.warnf("cache write failed: %v", err)
		}
	}
	return out
}

// resolve fetches the candidate pages once and walks the strategy chain,
// returning the first non-empty mapping.
func (b *Builder) resolve(ctx context.Context, id int, hint string) map[string]string {
	pages := b.Fetcher.FetchCandidates(ctx, id, hint)
	if len(pages) == 0 {
		return nil
	}
	chain := []strategy{
		plainTableStrategy,
		downloadStrategy(b.Fetcher),
		anyTableStrategy,
	}
	for _, s := range chain {
		if m := s(ctx, pages); len(m) > 0 {
			return m
		}
	}
	return nil
}
