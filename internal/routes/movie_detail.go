package routes

import (
	"net/http"
	"sort"

	"freewatch-server/internal/model"
	pkghttpx "freewatch-server/pkg/httpx"
)

const relatedLimit = 6

// MovieDetail registers GET /movies/{slug}: one movie plus its closest
// relatives by genre overlap.
func MovieDetail(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		snap := d.Store.Current()
		m, ok := snap.FindBySlug(slug)
		if !ok {
			pkghttpx.WriteError(w, r, pkghttpx.NotFound("movie not found", nil))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{
			"movie":   m,
			"related": relatedMovies(snap.Movies, m),
		})
	}
}

// relatedMovies ranks by genre overlap, then external rating, then title.
func relatedMovies(movies []model.Movie, target model.Movie) []model.Movie {
	type scored struct {
		movie   model.Movie
		overlap int
		rating  float64
	}
	var cands []scored
	for _, m := range movies {
		if m.Slug == target.Slug {
			continue
		}
		overlap := 0
		for _, g := range m.Genres {
			if target.HasGenre(g) {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		rating := 0.0
		if m.Rating != nil {
			rating = *m.Rating
		}
		cands = append(cands, scored{movie: m, overlap: overlap, rating: rating})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].overlap != cands[j].overlap {
			return cands[i].overlap > cands[j].overlap
		}
		if cands[i].rating != cands[j].rating {
			return cands[i].rating > cands[j].rating
		}
		return cands[i].movie.Title < cands[j].movie.Title
	})
	if len(cands) > relatedLimit {
		cands = cands[:relatedLimit]
	}
	out := make([]model.Movie, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.movie)
	}
	return out
}
