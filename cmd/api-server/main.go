package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"freewatch-server/internal/catalog"
	"freewatch-server/internal/config"
	"freewatch-server/internal/jobs"
	"freewatch-server/internal/migrate"
	"freewatch-server/internal/persist"
	"freewatch-server/internal/routes"
	"freewatch-server/internal/search"
	"freewatch-server/internal/server"
	"freewatch-server/internal/sources"
	"freewatch-server/pkg/cache"
	pkgdb "freewatch-server/pkg/db"
	"freewatch-server/pkg/signer"
)

func main() {
	_ = godotenv.Load() // best-effort
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Snapshot durability: Postgres when configured, JSON file otherwise.
	var store catalog.Persistence = persist.NewFile(cfg.CacheFile)
	if cfg.DatabaseURL != "" {
		pool, err := pkgdb.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error().Err(err).Msg("db connect failed, falling back to file persistence")
		} else {
			defer pool.Close()
			if err := migrate.Up(cfg.DatabaseURL); err != nil {
				log.Fatal().Err(err).Msg("migrations failed")
			}
			store = persist.NewPostgres(pool)
		}
	}

	var c cache.Cache
	if addr := cfg.ValkeyAddr; addr != "" {
		vc, err := cache.NewValkey(addr, cfg.ValkeyPassword)
		if err != nil {
			log.Error().Err(err).Msg("valkey connect failed, using in-memory cache")
			c = cache.NewInMemory()
		} else {
			c = vc
		}
	} else {
		c = cache.NewInMemory()
	}

	// Adapter order is the scalar-metadata precedence order.
	adapters := []sources.Adapter{
		sources.NewJustWatch(cfg.JustWatchCountry, cfg.JustWatchLanguage, cfg.SourceTimeout),
	}
	if cfg.IncludeArchive {
		adapters = append(adapters, sources.NewArchive(cfg.SourceTimeout))
	}

	catalogStore := catalog.NewStore(ctx, catalog.Options{
		Persistence: store,
		TTL:         cfg.CacheTTL,
		Sources:     adapters,
	})
	engine := search.New(catalogStore, adapters)

	jobs.StartRefreshLoop(ctx, catalogStore, cfg.RefreshCheckInterval)

	api := server.New(routes.Deps{
		Store:  catalogStore,
		Search: engine,
		Cache:  c,
		Signer: signer.NewHMAC(cfg.CursorSecret),
	}, cfg.CORSAllowedOrigins)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := server.StartHTTP(ctx, addr, api.Router()); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	_, _ = fmt.Fprintln(os.Stderr, "shutting down...")
	time.Sleep(200 * time.Millisecond)
}
