package rpc

import (
	"context"
	"time"
)

// HealthService serves the public liveness procedure.
const HealthService = "HealthService"

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// RegisterHealth adds the public "health" procedure.
func (s *Server) RegisterHealth(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.Register(HealthService, Query("", "health", Public, func(context.Context, Empty) (HealthResponse, error) {
		return HealthResponse{Status: "ok", Timestamp: now().UTC()}, nil
	}))
}
