package server

import (
	"net/http"

	"freewatch-server/internal/routes"
)

type Server struct {
	deps    routes.Deps
	origins []string
}

func New(deps routes.Deps, corsOrigins []string) *Server {
	return &Server{deps: deps, origins: corsOrigins}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	d := s.deps

	// Endpoints declared here for easy scanning
	mux.HandleFunc("GET /health", routes.Health(d))
	mux.HandleFunc("GET /movies", routes.Movies(d))
	mux.HandleFunc("GET /movies/{slug}", routes.MovieDetail(d))
	mux.HandleFunc("GET /meta", routes.Meta(d))
	mux.HandleFunc("GET /search", routes.Search(d))
	mux.HandleFunc("POST /refresh", routes.Refresh(d))
	mux.HandleFunc("POST /recommend", routes.Recommend(d))

	h := withSecurityHeaders(mux)
	h = withCORS(s.origins)(h)
	return withCorrelationID(withLogging(h))
}
