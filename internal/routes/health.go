package routes

import (
	"net/http"

	pkghttpx "freewatch-server/pkg/httpx"
)

// Health registers GET /health
func Health(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := d.Store.Current()
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"movies":     len(snap.Movies),
			"fetched_at": snap.FetchedAt,
			"stale":      d.Store.IsStale(),
		})
	}
}
