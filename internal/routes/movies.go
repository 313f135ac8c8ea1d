package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"freewatch-server/internal/model"
	pkghttpx "freewatch-server/pkg/httpx"
)

// Movies registers GET /movies: the filtered catalog listing with
// signed-cursor pagination over the snapshot's stable order.
func Movies(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q := r.URL.Query()

		limitStr := q.Get("limit")
		if limitStr == "" {
			limitStr = "20"
		}
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > 100 {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid limit", err))
			return
		}

		var offset int64
		cursor := q.Get("cursor")
		if cursor != "" {
			off, decErr := d.Signer.DecodeCatalogCursor(cursor)
			if decErr != nil {
				pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid cursor", decErr))
				return
			}
			offset = off
		}

		var minRating float64
		if s := q.Get("min_rating"); s != "" {
			minRating, err = strconv.ParseFloat(s, 64)
			if err != nil || minRating < 0 || minRating > 10 {
				pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid min_rating", err))
				return
			}
		}
		service := q.Get("service")
		genre := q.Get("genre")
		availability := q.Get("availability")
		switch availability {
		case "", model.AccessFree, model.AccessSubscription:
		default:
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid availability", nil))
			return
		}

		if d.Store.IsStale() {
			d.Store.TriggerRefresh()
		}
		snap := d.Store.Current()

		// key includes the snapshot fetch time, so cached pages can never
		// outlive a refresh
		cacheKey := fmt.Sprintf("movies:%d:%s:%s:%s:%g:%s:%d",
			snap.FetchedAt.Unix(), cursor, service, genre, minRating, availability, limit)
		if cached, ok := d.Cache.Get(ctx, cacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(cached))
			return
		}

		filtered := filterMovies(snap.Movies, service, genre, availability, minRating)
		total := len(filtered)
		if offset > int64(total) {
			offset = int64(total)
		}
		end := offset + int64(limit)
		if end > int64(total) {
			end = int64(total)
		}
		page := filtered[offset:end]

		resp := map[string]any{
			"items": page,
			"count": len(page),
			"total": total,
		}
		if end < int64(total) {
			resp["next_cursor"] = d.Signer.EncodeCatalogCursor(end)
		}
		b, _ := json.Marshal(resp)
		_ = d.Cache.Set(ctx, cacheKey, string(b), 2*time.Minute)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

func filterMovies(movies []model.Movie, service, genre, availability string, minRating float64) []model.Movie {
	out := make([]model.Movie, 0, len(movies))
	for _, m := range movies {
		if service != "" && !hasService(m, service) {
			continue
		}
		if genre != "" && !m.HasGenre(genre) {
			continue
		}
		if availability == model.AccessFree && !m.IsFree {
			continue
		}
		if availability == model.AccessSubscription && !m.HasSubscription {
			continue
		}
		if minRating > 0 && (m.Rating == nil || *m.Rating < minRating) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func hasService(m model.Movie, name string) bool {
	for _, s := range m.Services {
		if s.Name == name {
			return true
		}
	}
	return false
}
