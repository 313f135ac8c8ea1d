package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"freewatch-server/internal/model"
	"freewatch-server/internal/sources"
)

// ErrRefreshFailed means every source was unavailable; the previous
// snapshot is retained unchanged.
var ErrRefreshFailed = errors.New("refresh failed: all sources unavailable")

// ErrNoSources means the store was built without any adapters.
var ErrNoSources = errors.New("no sources configured")

// Persistence is the durability contract for the snapshot. Writes are
// best-effort: a failed save never rolls back the in-memory replace.
type Persistence interface {
	// Load returns the last persisted snapshot. ok is false when nothing
	// usable is persisted; a non-nil error describes an unreadable store,
	// which callers treat the same as absent.
	Load(ctx context.Context) (model.CacheSnapshot, bool, error)
	Save(ctx context.Context, snap model.CacheSnapshot) error
}

// Store holds the current catalog snapshot. The snapshot pointer is the
// only mutable shared state in the engine; all mutation goes through
// Replace/Augment under the lock, and readers always observe a whole
// snapshot from a single refresh.
type Store struct {
	mu      sync.RWMutex
	snap    model.CacheSnapshot
	ttl     time.Duration
	persist Persistence
	srcs    []sources.Adapter
	now     func() time.Time
	group   singleflight.Group
}

// Options configures a Store. Persistence may be nil (no durability);
// Now defaults to time.Now.
type Options struct {
	Persistence Persistence
	TTL         time.Duration
	Sources     []sources.Adapter
	Now         func() time.Time
}

// NewStore builds a store and loads the last persisted snapshot if one
// exists. With nothing persisted (or a corrupt document) it starts from an
// empty snapshot dated at the epoch, which is immediately stale and forces
// a refresh on the first staleness check.
func NewStore(ctx context.Context, opts Options) *Store {
	s := &Store{
		ttl:     opts.TTL,
		persist: opts.Persistence,
		srcs:    opts.Sources,
		now:     opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.ttl <= 0 {
		s.ttl = 6 * time.Hour
	}

	s.snap = model.CacheSnapshot{FetchedAt: time.Unix(0, 0).UTC(), TTLSeconds: int(s.ttl.Seconds())}
	if s.persist != nil {
		snap, ok, err := s.persist.Load(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("persisted snapshot unreadable, starting empty")
		case ok:
			snap.TTLSeconds = int(s.ttl.Seconds())
			s.snap = snap
			log.Info().Int("movies", len(snap.Movies)).Time("fetched_at", snap.FetchedAt).Msg("loaded persisted snapshot")
		}
	}
	return s
}

// Current returns the live snapshot. Never blocks on network I/O.
func (s *Store) Current() model.CacheSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// IsStale reports whether the live snapshot is past its expiry. Stale
// snapshots stay servable until replaced.
func (s *Store) IsStale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.StaleAt(s.now())
}

// Replace atomically swaps in a freshly fetched movie sequence and
// persists it best-effort.
func (s *Store) Replace(ctx context.Context, movies []model.Movie) model.CacheSnapshot {
	snap := model.CacheSnapshot{
		Movies:     movies,
		FetchedAt:  s.now().UTC(),
		TTLSeconds: int(s.ttl.Seconds()),
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	s.save(ctx, snap)
	return snap
}

// Augment merges additional movies (typically online search results) into
// the resident snapshot without touching its fetch time, so a partial
// query-driven update never masks catalog staleness.
func (s *Store) Augment(ctx context.Context, movies []model.Movie) model.CacheSnapshot {
	s.mu.Lock()
	snap := model.CacheSnapshot{
		Movies:     MergeInto(s.snap.Movies, movies),
		FetchedAt:  s.snap.FetchedAt,
		TTLSeconds: s.snap.TTLSeconds,
	}
	s.snap = snap
	s.mu.Unlock()
	s.save(ctx, snap)
	return snap
}

// Refresh rebuilds the catalog from every source and replaces the
// snapshot. At most one refresh is in flight at a time; concurrent callers
// join the running one and share its outcome. The fetch itself is detached
// from the caller's cancellation: a disconnecting caller abandons only its
// wait, not the work.
func (s *Store) Refresh(ctx context.Context) (model.CacheSnapshot, error) {
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		rctx := context.WithoutCancel(ctx)
		movies, err := s.fetchAll(rctx)
		if err != nil {
			return nil, err
		}
		return s.Replace(rctx, movies), nil
	})
	if err != nil {
		return s.Current(), err
	}
	return v.(model.CacheSnapshot), nil
}

// TriggerRefresh starts (or joins) a refresh without waiting for it.
// Failures are logged and retried on the next staleness check.
func (s *Store) TriggerRefresh() {
	go func() {
		if _, err := s.Refresh(context.Background()); err != nil {
			log.Warn().Err(err).Msg("background refresh failed")
		}
	}()
}

func (s *Store) save(ctx context.Context, snap model.CacheSnapshot) {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(ctx, snap); err != nil {
		log.Error().Err(err).Msg("snapshot persist failed")
	}
}

// fetchAll queries every adapter concurrently, then canonicalizes and
// folds in registration order so scalar precedence across sources is
// deterministic. A failing source contributes nothing; only all sources
// failing fails the refresh.
func (s *Store) fetchAll(ctx context.Context) ([]model.Movie, error) {
	if len(s.srcs) == 0 {
		return nil, ErrNoSources
	}
	records := make([][]model.RawRecord, len(s.srcs))
	errs := make([]error, len(s.srcs))
	var wg sync.WaitGroup
	for i, src := range s.srcs {
		wg.Add(1)
		go func(i int, src sources.Adapter) {
			defer wg.Done()
			records[i], errs[i] = src.FetchAll(ctx)
		}(i, src)
	}
	wg.Wait()

	anyOK := false
	var movies []model.Movie
	for i, src := range s.srcs {
		if errs[i] != nil {
			log.Warn().Err(errs[i]).Str("source", src.Name()).Msg("source unavailable this refresh")
			continue
		}
		anyOK = true
		for _, rec := range records[i] {
			m, err := Canonicalize(rec, src.Name())
			if err != nil {
				log.Debug().Err(err).Str("source", src.Name()).Msg("dropping record")
				continue
			}
			movies = append(movies, m)
		}
	}
	if !anyOK {
		return nil, ErrRefreshFailed
	}
	return FoldMovies(movies), nil
}

// CanonicalizeQueryResults converts raw query records from one adapter,
// dropping malformed entries the same way a refresh does.
func CanonicalizeQueryResults(records []model.RawRecord, source string) []model.Movie {
	out := make([]model.Movie, 0, len(records))
	for _, rec := range records {
		m, err := Canonicalize(rec, source)
		if err != nil {
			log.Debug().Err(err).Str("source", source).Msg("dropping record")
			continue
		}
		out = append(out, m)
	}
	return out
}
