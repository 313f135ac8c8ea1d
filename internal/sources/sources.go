// Package sources contains the external listing clients the catalog is
// built from. Each adapter returns normalized raw records; failures are
// source-scoped and never abort a whole refresh.
package sources

import (
	"context"

	"freewatch-server/internal/model"
)

// Adapter is a per-source client. Implementations must be safe for
// concurrent use; FetchAll and FetchQuery may be called in parallel with
// each other across adapters.
type Adapter interface {
	Name() string
	FetchAll(ctx context.Context) ([]model.RawRecord, error)
	FetchQuery(ctx context.Context, query string) ([]model.RawRecord, error)
}
