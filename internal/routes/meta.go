package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	pkghttpx "freewatch-server/pkg/httpx"
)

// Meta registers GET /meta: the distinct genres and services of the
// current snapshot, for filter UIs.
func Meta(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		snap := d.Store.Current()

		cacheKey := fmt.Sprintf("meta:%d", snap.FetchedAt.Unix())
		if cached, ok := d.Cache.Get(ctx, cacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(cached))
			return
		}

		genres := make(map[string]struct{})
		services := make(map[string]struct{})
		for _, m := range snap.Movies {
			for _, g := range m.Genres {
				genres[g] = struct{}{}
			}
			for _, s := range m.Services {
				services[s.Name] = struct{}{}
			}
		}
		resp := map[string]any{
			"genres":   sortedKeys(genres),
			"services": sortedKeys(services),
		}
		b, err := json.Marshal(resp)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to encode meta", err))
			return
		}
		_ = d.Cache.Set(ctx, cacheKey, string(b), 5*time.Minute)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
