package server

import (
  "context"
  "net/http"
  "strconv"
  "time"

  "github.com/silenzara/ln-telegram/internal/store"
)

const historyQueryTimeout = 5 * time.Second

type healthResponse struct {
  Status string `json:"status"`
  History bool `json:"history"`
  Timestamp string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
  writeJSON(w, http.StatusOK, healthResponse{
    Status: "OK",
    History: s.history != nil,
    Timestamp: time.Now().UTC().Format(time.RFC3339),
  })
}

type settlementsResponse struct {
  Settlements []store.Settlement `json:"settlements"`
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
  if s.history == nil {
    writeError(w, http.StatusServiceUnavailable, "settlement history disabled")
    return
  }

  limit := 0
  if raw := r.URL.Query().Get("limit"); raw != "" {
    parsed, err := strconv.Atoi(raw)
    if err != nil || parsed <= 0 {
      writeError(w, http.StatusBadRequest, "limit must be a positive integer")
      return
    }
    limit = parsed
  }

  ctx, cancel := context.WithTimeout(r.Context(), historyQueryTimeout)
  defer cancel()

  items, err := s.history.List(ctx, limit)
  if err != nil {
    s.logger.Printf("server: list settlements: %v", err)
    writeError(w, http.StatusInternalServerError, "failed to load settlements")
    return
  }
  if items == nil {
    items = []store.Settlement{}
  }

  writeJSON(w, http.StatusOK, settlementsResponse{Settlements: items})
}
