package routes

import (
	"net/http"

	pkghttpx "freewatch-server/pkg/httpx"
)

// Refresh registers POST /refresh: a synchronous catalog rebuild. The
// caller joins any refresh already in flight. Failure means every source
// was unavailable; the previous snapshot stays live.
func Refresh(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := d.Store.Refresh(r.Context())
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadGateway("catalog refresh failed", err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{
			"message":    "catalog refreshed",
			"movies":     len(snap.Movies),
			"fetched_at": snap.FetchedAt,
		})
	}
}
