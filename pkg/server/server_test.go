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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	sderrors "github.com/EnSpec/SpecDAL/pkg/errors"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestParseConfig(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		cfg := parseConfig()

		if cfg.Address != "" {
			t.Errorf("expected empty address, got %s", cfg.Address)
		}
		if cfg.Port != 8080 {
			t.Errorf("expected port 8080, got %d", cfg.Port)
		}
		if cfg.RateLimit != 100 {
			t.Errorf("expected rate limit 100, got %v", cfg.RateLimit)
		}
		if cfg.RateLimitBurst != 200 {
			t.Errorf("expected rate limit burst 200, got %d", cfg.RateLimitBurst)
		}
		if cfg.MaxUploadSize <= 0 {
			t.Errorf("expected positive upload limit, got %d", cfg.MaxUploadSize)
		}
		if cfg.ShutdownTimeout != 30*time.Second {
			t.Errorf("expected shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("SPECDAL_RATE_LIMIT", "10")
		t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "5")

		cfg := parseConfig()

		if cfg.Port != 9090 {
			t.Errorf("expected port 9090 from env, got %d", cfg.Port)
		}
		if cfg.RateLimit != 10 || cfg.RateLimitBurst != 20 {
			t.Errorf("expected rate limit 10/20, got %v/%d", cfg.RateLimit, cfg.RateLimitBurst)
		}
		if cfg.ShutdownTimeout != 5*time.Second {
			t.Errorf("expected shutdown timeout 5s, got %v", cfg.ShutdownTimeout)
		}
	})

	t.Run("invalid port from environment uses default", func(t *testing.T) {
		t.Setenv("PORT", "invalid")

		if cfg := parseConfig(); cfg.Port != 8080 {
			t.Errorf("expected default port 8080 for invalid env, got %d", cfg.Port)
		}
	})
}

func TestHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		code sderrors.ErrorCode
		want int
	}{
		{sderrors.ErrCodeInvalidRequest, http.StatusBadRequest},
		{sderrors.ErrCodeDuplicateName, http.StatusBadRequest},
		{sderrors.ErrCodeNotFound, http.StatusNotFound},
		{sderrors.ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{sderrors.ErrCodeUnsupportedFormat, http.StatusUnsupportedMediaType},
		{sderrors.ErrCodeCorruptFile, http.StatusUnprocessableEntity},
		{sderrors.ErrCodeMalformedRecord, http.StatusUnprocessableEntity},
		{sderrors.ErrCodeEmptyBase, http.StatusUnprocessableEntity},
		{sderrors.ErrCodeTypeMismatch, http.StatusUnprocessableEntity},
		{sderrors.ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{sderrors.ErrCodeUnavailable, http.StatusServiceUnavailable},
		{sderrors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{sderrors.ErrCodeInternal, http.StatusInternalServerError},
		{sderrors.ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := HTTPStatusFromCode(tt.code); got != tt.want {
				t.Fatalf("HTTPStatusFromCode(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestRetryableFromCode(t *testing.T) {
	tests := []struct {
		code sderrors.ErrorCode
		want bool
	}{
		{sderrors.ErrCodeInvalidRequest, false},
		{sderrors.ErrCodeCorruptFile, false},
		{sderrors.ErrCodeTimeout, true},
		{sderrors.ErrCodeUnavailable, true},
		{sderrors.ErrCodeRateLimitExceeded, true},
		{sderrors.ErrCodeInternal, true},
		{sderrors.ErrorCode("SOMETHING_ELSE"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := retryableFromCode(tt.code); got != tt.want {
				t.Fatalf("retryableFromCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestMergeDetails(t *testing.T) {
	if got := mergeDetails(nil, map[string]any{}); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}

	got := mergeDetails(map[string]any{"a": 1, "shared": "old"}, map[string]any{"b": 2, "shared": "new"})
	if got["a"].(int) != 1 || got["b"].(int) != 2 {
		t.Fatalf("expected a=1 b=2, got %#v", got)
	}
	if got["shared"].(string) != "new" {
		t.Fatalf("expected shared to be overwritten to 'new', got %#v", got["shared"])
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), contextKeyRequestID, "req-123"))
	w := httptest.NewRecorder()

	WriteError(w, req, http.StatusBadRequest, sderrors.ErrCodeInvalidRequest, "bad request", false, map[string]any{"k": "v"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	resp := decodeError(t, w)
	if resp.Code != string(sderrors.ErrCodeInvalidRequest) || resp.Message != "bad request" {
		t.Fatalf("unexpected response %#v", resp)
	}
	if resp.RequestID != "req-123" {
		t.Fatalf("expected requestId req-123, got %q", resp.RequestID)
	}
	if resp.Details["k"].(string) != "v" {
		t.Fatalf("expected details to include k=v, got %#v", resp.Details)
	}
}

func TestWriteErrorFromErr(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/spectra", nil)
		w := httptest.NewRecorder()

		cause := errors.New("offset 484 beyond end of file")
		err := sderrors.WrapWithContext(sderrors.ErrCodeCorruptFile, "truncated file", cause, map[string]any{"file": "a.asd"})
		WriteErrorFromErr(w, req, err, "fallback", map[string]any{"part": "file"})

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
		}
		resp := decodeError(t, w)
		if resp.Code != string(sderrors.ErrCodeCorruptFile) || resp.Message != "truncated file" {
			t.Fatalf("unexpected response %#v", resp)
		}
		if resp.Retryable {
			t.Fatal("expected retryable=false")
		}
		if resp.Details["file"] != "a.asd" || resp.Details["part"] != "file" {
			t.Fatalf("expected merged details, got %#v", resp.Details)
		}
		if resp.Details["error"] != cause.Error() {
			t.Fatalf("expected cause propagated, got %#v", resp.Details["error"])
		}
	})

	t.Run("plain error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		WriteErrorFromErr(w, req, errors.New("boom"), "fallback", nil)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		resp := decodeError(t, w)
		if resp.Code != string(sderrors.ErrCodeInternal) || resp.Message != "fallback" || !resp.Retryable {
			t.Fatalf("unexpected response %#v", resp)
		}
		if resp.Details["error"] != "boom" {
			t.Fatalf("expected details error=boom, got %#v", resp.Details)
		}
	})
}

func TestNegotiateAPIVersion(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{"", "v1"},
		{"application/json", "v1"},
		{"application/vnd.enspec.specdal.v1+json", "v1"},
		{"text/html, application/vnd.enspec.specdal.v1+json", "v1"},
		{"application/vnd.enspec.specdal.v9+json", "v1"},
	}
	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept", tt.accept)
			if got := negotiateAPIVersion(req); got != tt.want {
				t.Errorf("negotiateAPIVersion(%q) = %q, want %q", tt.accept, got, tt.want)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	s := &Server{config: NewConfig(), rateLimiter: rate.NewLimiter(100, 200)}

	tests := []struct {
		name     string
		provided string
		keep     bool
	}{
		{"generates new id", "", false},
		{"uses provided id", uuid.New().String(), true},
		{"replaces invalid id", "not-a-uuid", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			handler := s.requestIDMiddleware(func(w http.ResponseWriter, r *http.Request) {
				captured = r.Context().Value(contextKeyRequestID).(string)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.provided != "" {
				req.Header.Set("X-Request-Id", tt.provided)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if _, err := uuid.Parse(captured); err != nil {
				t.Errorf("expected valid UUID, got: %s", captured)
			}
			if tt.keep && captured != tt.provided {
				t.Errorf("expected request ID %s, got %s", tt.provided, captured)
			}
			if !tt.keep && captured == tt.provided {
				t.Errorf("expected request ID to be replaced, got %s", captured)
			}
			if rec.Header().Get("X-Request-Id") != captured {
				t.Errorf("expected X-Request-Id header %s, got %s", captured, rec.Header().Get("X-Request-Id"))
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	s := &Server{config: NewConfig(), rateLimiter: rate.NewLimiter(1, 1)}
	handler := s.rateLimitMiddleware(okHandler)

	first := httptest.NewRecorder()
	handler(first, httptest.NewRequest(http.MethodGet, "/test", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("expected X-RateLimit-Limit header")
	}

	second := httptest.NewRecorder()
	handler(second, httptest.NewRequest(http.MethodGet, "/test", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, second.Code)
	}
	if second.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After 1, got %q", second.Header().Get("Retry-After"))
	}
	if resp := decodeError(t, second); !resp.Retryable {
		t.Error("expected retryable rate limit error")
	}
}

func TestBodyLimitMiddleware(t *testing.T) {
	cfg := NewConfig()
	cfg.MaxUploadSize = 4
	s := &Server{config: cfg}

	var readErr error
	handler := s.bodyLimitMiddleware(func(_ http.ResponseWriter, r *http.Request) {
		_, readErr = r.Body.Read(make([]byte, 16))
		for readErr == nil {
			_, readErr = r.Body.Read(make([]byte, 16))
		}
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))

	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Fatalf("expected MaxBytesError, got %v", readErr)
	}
}

func TestTimeoutMiddleware(t *testing.T) {
	cfg := NewConfig()
	cfg.HandlerTimeout = time.Minute
	s := &Server{config: cfg}

	var deadline bool
	handler := s.timeoutMiddleware(func(_ http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !deadline {
		t.Error("expected handler context to carry a deadline")
	}
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	s := &Server{config: NewConfig()}
	handler := s.panicRecoveryMiddleware(func(_ http.ResponseWriter, _ *http.Request) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d after panic recovery, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestMiddlewareChainSetsHeaders(t *testing.T) {
	s := New(WithHandler(map[string]http.HandlerFunc{"/test": okHandler}))

	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	for _, h := range []string{"X-Request-Id", "X-API-Version", "X-RateLimit-Limit"} {
		if w.Header().Get(h) == "" {
			t.Errorf("expected %s header", h)
		}
	}
}

func TestNew(t *testing.T) {
	s := New(WithHandler(map[string]http.HandlerFunc{"/test": okHandler}))

	if s.config == nil || s.httpServer == nil || s.rateLimiter == nil {
		t.Fatal("expected server to be fully initialized")
	}
	if s.config.Name != "server" {
		t.Errorf("expected default name 'server', got %s", s.config.Name)
	}
	if _, ok := s.config.Handlers["/"]; !ok {
		t.Error("expected default root handler to be created")
	}
}

func TestWithOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Port = 9090
	cfg.RateLimit = 500

	s := New(WithConfig(cfg), WithName("specdald"), WithVersion("1.2.3"))

	if s.config.Name != "specdald" || s.config.Version != "1.2.3" {
		t.Errorf("unexpected identity %s %s", s.config.Name, s.config.Version)
	}
	if s.config.Port != 9090 || s.config.RateLimit != 500 {
		t.Errorf("expected config to be applied, got port %d rate %v", s.config.Port, s.config.RateLimit)
	}
	if s.httpServer.Addr != ":9090" {
		t.Errorf("expected address :9090, got %s", s.httpServer.Addr)
	}
}

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	s := New(WithName("specdald"), WithVersion("v1.0.0"))

	w := httptest.NewRecorder()
	s.handleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", w.Header().Get("Content-Type"))
	}
	if resp := decodeHealth(t, w); resp.Status != StatusAlive || resp.Service != "specdald" || resp.Version != "v1.0.0" {
		t.Errorf("unexpected health response %+v", resp)
	}

	for _, ready := range []bool{false, true} {
		s.setReady(ready)
		w := httptest.NewRecorder()
		s.handleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		want, status := http.StatusServiceUnavailable, StatusStarting
		if ready {
			want, status = http.StatusOK, StatusReady
		}
		if w.Code != want {
			t.Errorf("ready=%v: expected status %d, got %d", ready, want, w.Code)
		}
		if resp := decodeHealth(t, w); resp.Status != status {
			t.Errorf("ready=%v: expected status %q, got %q", ready, status, resp.Status)
		}
	}
}

func TestHealthMethodNotAllowed(t *testing.T) {
	s := New()
	for name, h := range map[string]http.HandlerFunc{"health": s.handleHealth, "ready": s.handleReady} {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/"+name, nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected status 405, got %d", name, w.Code)
		}
		if w.Header().Get("Allow") != http.MethodGet {
			t.Errorf("%s: expected Allow GET, got %q", name, w.Header().Get("Allow"))
		}
	}
}

func TestReadyChecks(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]Check
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "no checks",
			wantCode:   http.StatusOK,
			wantStatus: StatusReady,
		},
		{
			name: "all pass",
			checks: map[string]Check{
				"decoders": func(context.Context) error { return nil },
			},
			wantCode:   http.StatusOK,
			wantStatus: StatusReady,
			wantChecks: map[string]string{"decoders": "ok"},
		},
		{
			name: "one fails",
			checks: map[string]Check{
				"decoders": func(context.Context) error { return nil },
				"storage":  func(context.Context) error { return errors.New("disk full") },
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: StatusDegraded,
			wantChecks: map[string]string{"decoders": "ok", "storage": "disk full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			for name, c := range tt.checks {
				opts = append(opts, WithCheck(name, c))
			}
			s := New(opts...)
			s.setReady(true)

			w := httptest.NewRecorder()
			s.handleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			resp := decodeHealth(t, w)
			if resp.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, resp.Status)
			}
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Fatalf("expected checks %v, got %v", tt.wantChecks, resp.Checks)
			}
			for name, want := range tt.wantChecks {
				if resp.Checks[name] != want {
					t.Errorf("check %s: expected %q, got %q", name, want, resp.Checks[name])
				}
			}
			if tt.wantStatus == StatusDegraded && resp.Reason != "1 of 2 checks failed" {
				t.Errorf("unexpected reason %q", resp.Reason)
			}
		})
	}
}

func TestDefaultRootHandler(t *testing.T) {
	s := New(WithHandler(map[string]http.HandlerFunc{"/v1/spectra": okHandler}))
	handler := s.config.Handlers["/"]

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "/v1/spectra") {
		t.Error("expected response to contain /v1/spectra route")
	}

	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
	}

	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestCustomRootHandlerNotOverridden(t *testing.T) {
	called := false
	s := New(WithHandler(map[string]http.HandlerFunc{
		"/": func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		},
	}))

	s.config.Handlers["/"](httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("expected custom root handler to be called, not default")
	}
}

func TestGracefulShutdown(t *testing.T) {
	cfg := NewConfig()
	cfg.Address = "127.0.0.1"
	cfg.Port = 18080
	cfg.ShutdownTimeout = 100 * time.Millisecond
	cfg.Handlers = map[string]http.HandlerFunc{"/test": okHandler}

	s := New(WithConfig(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("expected clean shutdown, got error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("shutdown timed out")
	}
}
