package routes

import (
	"freewatch-server/internal/catalog"
	"freewatch-server/internal/search"
	"freewatch-server/pkg/cache"
	"freewatch-server/pkg/signer"
)

// Deps holds the dependencies required by the route handlers.
type Deps struct {
	Store  *catalog.Store
	Search *search.Engine
	Cache  cache.Cache
	Signer signer.Codec
}
