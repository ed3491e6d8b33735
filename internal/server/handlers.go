package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":      "healthy",
		"version":     "1.0.0",
		"service":     "sentinel-constraints",
		"constraints": len(s.container.Aggregator.Names()),
	}

	status := http.StatusOK
	if db := s.container.HistoryDB; db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := db.HealthCheck(ctx); err != nil {
			s.log.Warn().Err(err).Msg("History database health check failed")
			response["status"] = "degraded"
			response["history_db"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	s.writeJSON(w, status, response)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
