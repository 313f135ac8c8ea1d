// Package search resolves queries cache-first: the resident snapshot is
// scanned in memory, and the external sources are consulted only when the
// cached hit count falls below the caller's threshold.
package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"freewatch-server/internal/catalog"
	"freewatch-server/internal/model"
	"freewatch-server/internal/sources"
)

// Source tags where a result set came from.
type Source string

const (
	SourceCache  Source = "cache"
	SourceOnline Source = "online"
	SourceMixed  Source = "mixed"
)

// Result is a resolved search.
type Result struct {
	Movies      []model.Movie `json:"results"`
	Source      Source        `json:"source"`
	CacheCount  int           `json:"cache_count"`
	OnlineCount int           `json:"online_count"`
}

// Engine performs cache-first search over a catalog store.
type Engine struct {
	store *catalog.Store
	srcs  []sources.Adapter
}

func New(store *catalog.Store, srcs []sources.Adapter) *Engine {
	return &Engine{store: store, srcs: srcs}
}

// Search resolves query against the snapshot and, when forced or when the
// cache yields fewer than cacheMin matches, against the live sources.
// Online results are merged back into the resident snapshot, never into a
// fresh one. An empty query and a query matching nothing are both valid
// empty answers, not errors. The cache-only path never touches the
// network.
func (e *Engine) Search(ctx context.Context, query string, forceOnline bool, cacheMin int) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Movies: []model.Movie{}, Source: SourceCache}
	}

	if e.store.IsStale() {
		e.store.TriggerRefresh()
	}

	snap := e.store.Current()
	cacheMatches := rank(query, snap.Movies)

	if !forceOnline && len(cacheMatches) >= cacheMin {
		return Result{Movies: cacheMatches, Source: SourceCache, CacheCount: len(cacheMatches)}
	}

	online := e.fetchOnline(ctx, query)
	if len(online) == 0 {
		src := SourceMixed
		if len(cacheMatches) == 0 {
			src = SourceOnline
		}
		return Result{Movies: cacheMatches, Source: src, CacheCount: len(cacheMatches)}
	}

	merged := e.store.Augment(ctx, online)

	// Union: cache matches keep their relevance order, then online slugs in
	// first-seen order, each resolved to its merged form.
	seen := make(map[string]struct{}, len(cacheMatches)+len(online))
	out := make([]model.Movie, 0, len(cacheMatches)+len(online))
	for _, m := range cacheMatches {
		if mm, ok := merged.FindBySlug(m.Slug); ok {
			m = mm
		}
		seen[m.Slug] = struct{}{}
		out = append(out, m)
	}
	for _, m := range online {
		if _, dup := seen[m.Slug]; dup {
			continue
		}
		seen[m.Slug] = struct{}{}
		if mm, ok := merged.FindBySlug(m.Slug); ok {
			m = mm
		}
		out = append(out, m)
	}

	src := SourceMixed
	if len(cacheMatches) == 0 {
		src = SourceOnline
	}
	return Result{Movies: out, Source: src, CacheCount: len(cacheMatches), OnlineCount: len(online)}
}

// fetchOnline queries every source concurrently and folds the canonical
// results. A failing source contributes nothing; search degrades to
// whatever the cache had.
func (e *Engine) fetchOnline(ctx context.Context, query string) []model.Movie {
	records := make([][]model.RawRecord, len(e.srcs))
	var wg sync.WaitGroup
	for i, src := range e.srcs {
		wg.Add(1)
		go func(i int, src sources.Adapter) {
			defer wg.Done()
			recs, err := src.FetchQuery(ctx, query)
			if err != nil {
				log.Warn().Err(err).Str("source", src.Name()).Str("query", query).Msg("online search failed")
				return
			}
			records[i] = recs
		}(i, src)
	}
	wg.Wait()

	var movies []model.Movie
	for i, src := range e.srcs {
		movies = append(movies, catalog.CanonicalizeQueryResults(records[i], src.Name())...)
	}
	return catalog.FoldMovies(movies)
}

// rank scores a case-insensitive match of query against title, genres and
// synopsis, highest first. Ties keep snapshot order.
func rank(query string, movies []model.Movie) []model.Movie {
	q := strings.ToLower(strings.TrimSpace(query))
	words := queryWords(q)

	type scored struct {
		movie model.Movie
		score int
	}
	var matches []scored
	for _, m := range movies {
		s := relevance(m, q, words)
		if s > 0 {
			matches = append(matches, scored{movie: m, score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	out := make([]model.Movie, 0, len(matches))
	for _, s := range matches {
		out = append(out, s.movie)
	}
	return out
}

func relevance(m model.Movie, q string, words []string) int {
	score := 0
	title := strings.ToLower(m.Title)
	switch {
	case title == q:
		score += 100
	case strings.Contains(title, q):
		score += 50
	case anyWordIn(title, words):
		score += 25
	}
	for _, g := range m.Genres {
		if strings.Contains(strings.ToLower(g), q) {
			score += 5
			break
		}
	}
	if m.Synopsis != "" && strings.Contains(strings.ToLower(m.Synopsis), q) {
		score += 3
	}
	return score
}

// queryWords keeps the words long enough to be meaningful on their own.
func queryWords(q string) []string {
	var out []string
	for _, w := range strings.Fields(q) {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

func anyWordIn(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
