package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"freewatch-server/internal/model"
)

// Postgres keeps the snapshot as one JSONB row, upserted on every replace.
// The catalog is a single document, not relational data, so one row is the
// whole schema.
type Postgres struct {
	pool *pgxpool.Pool
}

const snapshotRowID = 1

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Load(ctx context.Context) (model.CacheSnapshot, bool, error) {
	var (
		payload    []byte
		fetchedAt  time.Time
		ttlSeconds int
	)
	row := p.pool.QueryRow(ctx,
		`SELECT payload, fetched_at, ttl_seconds FROM catalog_snapshot WHERE id = $1`, snapshotRowID)
	if err := row.Scan(&payload, &fetchedAt, &ttlSeconds); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CacheSnapshot{}, false, nil
		}
		return model.CacheSnapshot{}, false, fmt.Errorf("load snapshot row: %w", err)
	}
	var movies []model.Movie
	if err := json.Unmarshal(payload, &movies); err != nil {
		return model.CacheSnapshot{}, false, fmt.Errorf("decode snapshot payload: %w", err)
	}
	return model.CacheSnapshot{Movies: movies, FetchedAt: fetchedAt, TTLSeconds: ttlSeconds}, true, nil
}

func (p *Postgres) Save(ctx context.Context, snap model.CacheSnapshot) error {
	payload, err := json.Marshal(snap.Movies)
	if err != nil {
		return fmt.Errorf("encode snapshot payload: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO catalog_snapshot (id, payload, fetched_at, ttl_seconds)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET payload = EXCLUDED.payload,
		     fetched_at = EXCLUDED.fetched_at,
		     ttl_seconds = EXCLUDED.ttl_seconds`,
		snapshotRowID, payload, snap.FetchedAt, snap.TTLSeconds)
	if err != nil {
		return fmt.Errorf("upsert snapshot row: %w", err)
	}
	return nil
}
