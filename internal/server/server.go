package server

import (
  "crypto/tls"
  "fmt"
  "log"
  "net/http"
  "time"

  "github.com/silenzara/ln-telegram/internal/config"
  "github.com/silenzara/ln-telegram/internal/store"
)

// Server exposes the settlement history over HTTP. It is optional: the
// notifier runs without it when no server port is configured.
type Server struct {
  cfg     *config.Config
  logger  *log.Logger
  history *store.Store
}

func New(cfg *config.Config, logger *log.Logger, history *store.Store) *Server {
  return &Server{
    cfg:     cfg,
    logger:  logger,
    history: history,
  }
}

func (s *Server) Run() error {
  addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

  httpServer := &http.Server{
    Addr:              addr,
    Handler:           s.routes(),
    ReadHeaderTimeout: 10 * time.Second,
  }

  if s.cfg.Server.TLSCert == "" || s.cfg.Server.TLSKey == "" {
    s.logger.Printf("listening on http://%s", addr)
    return httpServer.ListenAndServe()
  }

  httpServer.TLSConfig = &tls.Config{
    MinVersion: tls.VersionTLS12,
  }
  s.logger.Printf("listening on https://%s", addr)
  return httpServer.ListenAndServeTLS(s.cfg.Server.TLSCert, s.cfg.Server.TLSKey)
}
