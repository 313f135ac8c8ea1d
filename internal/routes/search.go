package routes

import (
	"net/http"
	"strconv"

	pkghttpx "freewatch-server/pkg/httpx"
)

// Search registers GET /search: cache-first query resolution with an
// online fallback below the cache_min_results threshold. An empty query
// and a query matching nothing both return empty results, not errors.
func Search(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query := q.Get("q")
		forceOnline := q.Get("force_online") == "1" || q.Get("force_online") == "true"

		cacheMin := 5
		if s := q.Get("cache_min_results"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 || n > 20 {
				pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid cache_min_results", err))
				return
			}
			cacheMin = n
		}

		res := d.Search.Search(r.Context(), query, forceOnline, cacheMin)
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{
			"results":      res.Movies,
			"source":       res.Source,
			"cache_count":  res.CacheCount,
			"online_count": res.OnlineCount,
			"total":        len(res.Movies),
		})
	}
}
