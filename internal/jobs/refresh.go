package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"freewatch-server/internal/catalog"
)

// StartRefreshLoop keeps the catalog fresh in the background. Every
// interval it checks staleness and, when stale, runs a refresh joined with
// any in-flight one. Failures are swallowed here; the next tick retries.
func StartRefreshLoop(ctx context.Context, store *catalog.Store, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		// refresh immediately on startup if the loaded snapshot is stale
		refreshIfStale(ctx, store)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshIfStale(ctx, store)
			}
		}
	}()
}

func refreshIfStale(ctx context.Context, store *catalog.Store) {
	if !store.IsStale() {
		return
	}
	snap, err := store.Refresh(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("scheduled refresh failed, will retry on next staleness check")
		return
	}
	log.Info().Int("movies", len(snap.Movies)).Msg("catalog refreshed")
}
