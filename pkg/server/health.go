// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/EnSpec/SpecDAL/pkg/defaults"
	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/serializer"
)

// Status values reported by /health and /ready.
const (
	StatusAlive    = "alive"
	StatusReady    = "ready"
	StatusStarting = "starting"
	StatusDegraded = "degraded"

	checkOK = "ok"
)

// HealthResponse is the body of /health and /ready. Checks maps every
// registered readiness check to "ok" or its failure.
type HealthResponse struct {
	Status    string            `json:"status" yaml:"status"`
	Service   string            `json:"service" yaml:"service"`
	Version   string            `json:"version,omitempty" yaml:"version,omitempty"`
	Uptime    string            `json:"uptime" yaml:"uptime"`
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty" yaml:"checks,omitempty"`
	Reason    string            `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func (s *Server) healthResponse(status string) HealthResponse {
	return HealthResponse{
		Status:    status,
		Service:   s.config.Name,
		Version:   s.config.Version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
}

// handleHealth reports liveness. It never runs checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	serializer.RespondJSON(w, http.StatusOK, s.healthResponse(StatusAlive))
}

// handleReady reports whether the listener is up and every check passes.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()

	if !ready {
		resp := s.healthResponse(StatusStarting)
		resp.Reason = "listener not started"
		serializer.RespondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp := s.healthResponse(StatusReady)
	failed := s.runChecks(r.Context(), &resp)
	if failed > 0 {
		resp.Status = StatusDegraded
		resp.Reason = fmt.Sprintf("%d of %d checks failed", failed, len(resp.Checks))
		serializer.RespondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, resp)
}

// runChecks runs the registered checks in name order and returns the
// number that failed.
func (s *Server) runChecks(ctx context.Context, resp *HealthResponse) int {
	if len(s.config.Checks) == 0 {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, defaults.ServerReadyCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.config.Checks))
	for name := range s.config.Checks {
		names = append(names, name)
	}
	slices.Sort(names)

	resp.Checks = make(map[string]string, len(names))
	failed := 0
	for _, name := range names {
		if err := s.config.Checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			readyCheckUp.WithLabelValues(name).Set(0)
			failed++
			continue
		}
		resp.Checks[name] = checkOK
		readyCheckUp.WithLabelValues(name).Set(1)
	}
	return failed
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	WriteError(w, r, http.StatusMethodNotAllowed, errors.ErrCodeMethodNotAllowed,
		"Method not allowed", false, map[string]any{"method": r.Method})
	return false
}
