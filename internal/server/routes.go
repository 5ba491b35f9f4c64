package server

import (
  "net/http"

  "github.com/go-chi/chi/v5"
  "github.com/go-chi/chi/v5/middleware"
)

func (s *Server) routes() http.Handler {
  r := chi.NewRouter()
  r.Use(middleware.Recoverer)
  r.Use(s.requestLogger())

  r.Get("/api/health", s.handleHealth)
  r.Get("/api/settlements", s.handleSettlements)

  return r
}
