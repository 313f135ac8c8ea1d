package catalog_test

import (
	"reflect"
	"testing"

	"freewatch-server/internal/catalog"
	"freewatch-server/internal/model"
)

func ratingPtr(v float64) *float64 { return &v }

func jwMovie(t *testing.T) model.Movie {
	t.Helper()
	m, err := catalog.Canonicalize(model.RawRecord{
		Title:       "Charade",
		Year:        1963,
		Genres:      []string{"Thriller", "Romance"},
		Rating:      ratingPtr(7.9),
		Synopsis:    "A widow is pursued over her husband's stolen fortune.",
		ServiceName: "Plex",
		Access:      model.AccessSubscription,
	}, "justwatch")
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	return m
}

func archiveMovie(t *testing.T) model.Movie {
	t.Helper()
	m, err := catalog.Canonicalize(model.RawRecord{
		Title:       "Charade",
		Year:        1963,
		Genres:      []string{"Mystery"},
		Synopsis:    "Public domain print.",
		PosterURL:   "https://archive.org/services/img/charade",
		ServiceName: "Internet Archive",
		Access:      model.AccessFree,
	}, "archive")
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	return m
}

func TestMergeUnionsServicesAndGenres(t *testing.T) {
	a, b := jwMovie(t), archiveMovie(t)
	out := catalog.Merge(a, b)

	if len(out.Services) != 2 {
		t.Fatalf("services = %+v", out.Services)
	}
	wantGenres := []string{"Mystery", "Romance", "Thriller"}
	if !reflect.DeepEqual(out.Genres, wantGenres) {
		t.Errorf("genres = %v, want %v", out.Genres, wantGenres)
	}
	// free on one source wins the derived flags
	if !out.IsFree || out.HasSubscription {
		t.Errorf("is_free=%v has_subscription=%v", out.IsFree, out.HasSubscription)
	}
}

func TestMergeFirstWriterWinsScalars(t *testing.T) {
	a, b := jwMovie(t), archiveMovie(t)
	out := catalog.Merge(a, b)
	if out.Synopsis != a.Synopsis {
		t.Errorf("populated synopsis overwritten: %q", out.Synopsis)
	}
	// empty fields are filled from the incoming side
	if out.PosterURL != b.PosterURL {
		t.Errorf("empty poster not filled: %q", out.PosterURL)
	}
	if out.Rating == nil || *out.Rating != 7.9 {
		t.Errorf("rating = %v", out.Rating)
	}
}

func TestMergeCommutativeInUnionFields(t *testing.T) {
	a, b := jwMovie(t), archiveMovie(t)
	ab := catalog.Merge(a, b)
	ba := catalog.Merge(b, a)
	if !reflect.DeepEqual(ab.Genres, ba.Genres) {
		t.Errorf("genre union not commutative: %v vs %v", ab.Genres, ba.Genres)
	}
	if !reflect.DeepEqual(ab.Services, ba.Services) {
		t.Errorf("service union not commutative: %+v vs %+v", ab.Services, ba.Services)
	}
	if ab.IsFree != ba.IsFree || ab.HasSubscription != ba.HasSubscription {
		t.Errorf("derived flags not commutative")
	}
}

func TestMergeIdempotent(t *testing.T) {
	a, b := jwMovie(t), archiveMovie(t)
	once := catalog.Merge(a, b)
	twice := catalog.Merge(once, b)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merging the same record twice changed the movie:\n%+v\n%+v", once, twice)
	}
}

func TestFoldMoviesDedupInvariant(t *testing.T) {
	a, b := jwMovie(t), archiveMovie(t)
	other, err := catalog.Canonicalize(model.RawRecord{Title: "Detour", Year: 1945, ServiceName: "Internet Archive"}, "archive")
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	out := catalog.FoldMovies([]model.Movie{a, other, b, a})

	seen := map[string]int{}
	for _, m := range out {
		seen[m.Slug]++
	}
	for slug, n := range seen {
		if n > 1 {
			t.Errorf("slug %q appears %d times in snapshot", slug, n)
		}
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	// first-seen order is preserved
	if out[0].Slug != a.Slug || out[1].Slug != other.Slug {
		t.Errorf("order = [%s, %s]", out[0].Slug, out[1].Slug)
	}
}

func TestMergeIntoKeepsExistingOrder(t *testing.T) {
	a, b := jwMovie(t), archiveMovie(t)
	existing := catalog.FoldMovies([]model.Movie{a})
	out := catalog.MergeInto(existing, []model.Movie{b})
	if len(out) != 1 {
		t.Fatalf("len = %d", len(out))
	}
	// existing entry was the first writer and keeps its synopsis
	if out[0].Synopsis != a.Synopsis {
		t.Errorf("synopsis = %q", out[0].Synopsis)
	}
	if len(out[0].Services) != 2 {
		t.Errorf("services = %+v", out[0].Services)
	}
}
