package search_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"freewatch-server/internal/catalog"
	"freewatch-server/internal/model"
	"freewatch-server/internal/search"
	"freewatch-server/internal/sources"
)

type fakeSource struct {
	name       string
	results    []model.RawRecord
	queryCalls atomic.Int64
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchAll(context.Context) ([]model.RawRecord, error) {
	return f.results, nil
}

func (f *fakeSource) FetchQuery(context.Context, string) ([]model.RawRecord, error) {
	f.queryCalls.Add(1)
	return f.results, nil
}

func freshStore(t *testing.T, titles ...string) *catalog.Store {
	t.Helper()
	var movies []model.Movie
	for _, title := range titles {
		m, err := catalog.Canonicalize(model.RawRecord{Title: title, Year: 2000, ServiceName: "Tubi", Access: model.AccessFree}, "justwatch")
		if err != nil {
			t.Fatalf("canonicalize: %v", err)
		}
		movies = append(movies, m)
	}
	s := catalog.NewStore(context.Background(), catalog.Options{TTL: time.Hour})
	s.Replace(context.Background(), catalog.FoldMovies(movies))
	return s
}

func TestSearchCacheFirstThreshold(t *testing.T) {
	store := freshStore(t, "Love Actually", "Love and Friendship", "From Paris with Love", "Detour")
	src := &fakeSource{name: "justwatch"}
	e := search.New(store, []sources.Adapter{src})

	// 3 cache matches for "love", threshold 2: no network call
	res := e.Search(context.Background(), "love", false, 2)
	if res.Source != search.SourceCache {
		t.Fatalf("source = %s", res.Source)
	}
	if len(res.Movies) != 3 {
		t.Fatalf("matches = %d", len(res.Movies))
	}
	if src.queryCalls.Load() != 0 {
		t.Fatalf("cache-only path hit the network")
	}

	// threshold 5: fallback must consult the sources
	_ = e.Search(context.Background(), "love", false, 5)
	if src.queryCalls.Load() == 0 {
		t.Fatalf("below-threshold search did not consult sources")
	}
}

func TestSearchZeroThresholdStaysOnCache(t *testing.T) {
	store := freshStore(t, "Detour")
	src := &fakeSource{name: "justwatch"}
	e := search.New(store, []sources.Adapter{src})

	res := e.Search(context.Background(), "no such movie", false, 0)
	if res.Source != search.SourceCache || len(res.Movies) != 0 {
		t.Fatalf("source=%s matches=%d", res.Source, len(res.Movies))
	}
	if src.queryCalls.Load() != 0 {
		t.Fatalf("threshold 0 must never go online without force_online")
	}
}

func TestSearchForceOnline(t *testing.T) {
	store := freshStore(t, "Charade")
	src := &fakeSource{
		name: "justwatch",
		results: []model.RawRecord{
			{Title: "Charade Remake", Year: 2002, ServiceName: "Plex", Access: model.AccessFree},
		},
	}
	e := search.New(store, []sources.Adapter{src})

	res := e.Search(context.Background(), "charade", true, 5)
	if src.queryCalls.Load() != 1 {
		t.Fatalf("force_online did not consult sources")
	}
	if res.Source != search.SourceMixed {
		t.Fatalf("source = %s, want mixed (cache contributed)", res.Source)
	}
	if len(res.Movies) != 2 {
		t.Fatalf("matches = %d", len(res.Movies))
	}
}

func TestSearchOnlineTagWhenCacheEmpty(t *testing.T) {
	store := freshStore(t, "Detour")
	src := &fakeSource{
		name: "justwatch",
		results: []model.RawRecord{
			{Title: "Nosferatu", Year: 1922, ServiceName: "Internet Archive", Access: model.AccessFree},
		},
	}
	e := search.New(store, []sources.Adapter{src})

	res := e.Search(context.Background(), "nosferatu", false, 5)
	if res.Source != search.SourceOnline {
		t.Fatalf("source = %s, want online", res.Source)
	}
	if len(res.Movies) != 1 {
		t.Fatalf("matches = %d", len(res.Movies))
	}
}

func TestSearchAugmentsResidentSnapshot(t *testing.T) {
	store := freshStore(t, "Detour")
	src := &fakeSource{
		name: "justwatch",
		results: []model.RawRecord{
			{Title: "Nosferatu", Year: 1922, ServiceName: "Internet Archive", Access: model.AccessFree},
		},
	}
	e := search.New(store, []sources.Adapter{src})

	_ = e.Search(context.Background(), "nosferatu", false, 5)
	snap := store.Current()
	if len(snap.Movies) != 2 {
		t.Fatalf("online results were not merged back into the catalog: %d movies", len(snap.Movies))
	}
	if _, ok := snap.FindBySlug("detour-2000"); !ok {
		t.Fatalf("online search discarded the resident catalog")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	store := freshStore(t, "Detour")
	e := search.New(store, []sources.Adapter{&fakeSource{name: "justwatch"}})

	res := e.Search(context.Background(), "   ", false, 5)
	if len(res.Movies) != 0 || res.Source != search.SourceCache {
		t.Fatalf("empty query should be an empty cache answer, got %d/%s", len(res.Movies), res.Source)
	}
}

func TestSearchRelevanceOrdering(t *testing.T) {
	store := freshStore(t, "Love Letters from Verona", "Love")
	e := search.New(store, []sources.Adapter{&fakeSource{name: "justwatch"}})

	res := e.Search(context.Background(), "love", false, 0)
	if len(res.Movies) != 2 {
		t.Fatalf("matches = %d", len(res.Movies))
	}
	// exact title match outranks the substring match
	if res.Movies[0].Title != "Love" {
		t.Fatalf("order = [%s, %s]", res.Movies[0].Title, res.Movies[1].Title)
	}
}
