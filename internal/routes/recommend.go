package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"freewatch-server/internal/prefs"
	"freewatch-server/internal/recommend"
	pkghttpx "freewatch-server/pkg/httpx"
)

const maxPrefsBody = 1 << 20 // 1 MiB of preference state is plenty

// Recommend registers POST /recommend. The preference state is client-held
// and arrives in the request body; the server never stores it.
func Recommend(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var state prefs.State
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPrefsBody))
		if err := dec.Decode(&state); err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid preference state", err))
			return
		}
		state.Upgrade()

		q := r.URL.Query()
		mood := q.Get("mood")
		timeBucket := q.Get("time")

		if d.Store.IsStale() {
			d.Store.TriggerRefresh()
		}
		res, err := recommend.Recommend(d.Store.Current(), state, mood, timeBucket)
		if err != nil {
			switch {
			case errors.Is(err, recommend.ErrUnknownMood):
				pkghttpx.WriteError(w, r, pkghttpx.BadRequest("unknown mood", err))
			case errors.Is(err, recommend.ErrUnknownTimeBucket):
				pkghttpx.WriteError(w, r, pkghttpx.BadRequest("unknown time bucket", err))
			default:
				pkghttpx.WriteError(w, r, pkghttpx.Internal("recommendation failed", err))
			}
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, res)
	}
}
