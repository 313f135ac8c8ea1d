package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"freewatch-server/internal/catalog"
	"freewatch-server/internal/model"
	"freewatch-server/internal/routes"
	"freewatch-server/internal/search"
	"freewatch-server/internal/server"
	"freewatch-server/pkg/cache"
	"freewatch-server/pkg/signer"
)

func testServer(t *testing.T) *server.Server {
	t.Helper()
	store := catalog.NewStore(context.Background(), catalog.Options{TTL: time.Hour})

	rating := 7.9
	movies := []model.Movie{
		{
			Slug: "charade-1963", Title: "Charade", Year: 1963,
			Genres: []string{"Romance", "Thriller"}, Rating: &rating,
			Services: []model.Service{{Name: "Plex", Access: model.AccessFree}},
			IsFree:   true,
		},
		{
			Slug: "detour-1945", Title: "Detour", Year: 1945,
			Genres:   []string{"Film Noir"},
			Services: []model.Service{{Name: "Internet Archive", Access: model.AccessFree}},
			IsFree:   true,
		},
	}
	store.Replace(context.Background(), movies)

	s := server.New(routes.Deps{
		Store:  store,
		Search: search.New(store, nil),
		Cache:  cache.NewInMemory(),
		Signer: signer.NewHMAC([]byte("test-secret")),
	}, nil)
	return s
}

func TestHealth(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %s", ct)
	}
}

func TestListMovies(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/movies", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Items []model.Movie `json:"items"`
		Total int           `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 2 {
		t.Fatalf("total=%d items=%d", resp.Total, len(resp.Items))
	}
}

func TestListMoviesPagination(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/movies?limit=1", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	var first struct {
		Items      []model.Movie `json:"items"`
		NextCursor string        `json:"next_cursor"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(first.Items) != 1 || first.NextCursor == "" {
		t.Fatalf("items=%d cursor=%q", len(first.Items), first.NextCursor)
	}

	req = httptest.NewRequest(http.MethodGet, "/movies?limit=1&cursor="+first.NextCursor, nil)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	var second struct {
		Items      []model.Movie `json:"items"`
		NextCursor string        `json:"next_cursor"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(second.Items) != 1 || second.NextCursor != "" {
		t.Fatalf("items=%d cursor=%q", len(second.Items), second.NextCursor)
	}
	if first.Items[0].Slug == second.Items[0].Slug {
		t.Fatalf("pages overlap on %s", first.Items[0].Slug)
	}
}

func TestListMoviesRejectsTamperedCursor(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/movies?cursor=not-a-cursor", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListMoviesFilters(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/movies?genre=Thriller", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	var resp struct {
		Items []model.Movie `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Slug != "charade-1963" {
		t.Fatalf("items = %+v", resp.Items)
	}
}

func TestMovieDetail(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/movies/charade-1963", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"Charade"`) {
		t.Fatalf("body = %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/movies/no-such-movie-1900", nil)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/search?q=charade&cache_min_results=0", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Source string        `json:"source"`
		Movies []model.Movie `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Source != "cache" || len(resp.Movies) != 1 {
		t.Fatalf("source=%s results=%d", resp.Source, len(resp.Movies))
	}
}

func TestRecommendEndpoint(t *testing.T) {
	s := testServer(t)
	body := `{"version":2,"ratings":{"x-2000":{"stars":5,"at":"2026-08-01T10:00:00Z","genres":["Thriller"]}}}`
	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		NoSignal bool `json:"no_signal"`
		Ranked   []struct {
			Movie model.Movie `json:"movie"`
			Score float64     `json:"score"`
		} `json:"ranked"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.NoSignal {
		t.Fatalf("rated state reported no signal")
	}
	if len(resp.Ranked) == 0 || resp.Ranked[0].Movie.Slug != "charade-1963" {
		t.Fatalf("ranked = %+v", resp.Ranked)
	}
}

func TestRecommendRejectsBadBody(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader("{"))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRecommendRejectsUnknownMood(t *testing.T) {
	s := testServer(t)
	body := `{"version":2,"ratings":{"x-2000":{"stars":5}}}`
	req := httptest.NewRequest(http.MethodPost, "/recommend?mood=grumpy", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMetaEndpoint(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/meta", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Genres   []string `json:"genres"`
		Services []string `json:"services"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Genres) != 3 || len(resp.Services) != 2 {
		t.Fatalf("genres=%v services=%v", resp.Genres, resp.Services)
	}
}
