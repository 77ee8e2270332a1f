// Package server exposes the agent fleet over HTTP: blocking message
// exchanges, SSE streaming subscriptions, fleet discovery, health, and
// Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentbridge/agentbridge/pkg/a2a"
	"github.com/agentbridge/agentbridge/pkg/agent"
	"github.com/agentbridge/agentbridge/pkg/bridge"
	"github.com/agentbridge/agentbridge/pkg/observability"
)

// MessageRequest is the body of a blocking or streaming exchange.
type MessageRequest struct {
	Message string `json:"message"`
}

// MessageResponse is the body of a blocking exchange.
type MessageResponse struct {
	Success      bool   `json:"success"`
	AgentName    string `json:"agentName,omitempty"`
	ResponseText string `json:"responseText,omitempty"`
	Error        string `json:"error,omitempty"`
}

// AgentSummary is one fleet entry in the discovery listing.
type AgentSummary struct {
	Name    string         `json:"name"`
	Healthy bool           `json:"healthy"`
	Error   string         `json:"error,omitempty"`
	Card    *a2a.AgentCard `json:"card,omitempty"`
}

// HTTPServer serves the bridge API.
type HTTPServer struct {
	host     string
	port     int
	registry *agent.Registry
	bridge   *bridge.Bridge
	obs      *observability.Manager
	logger   *slog.Logger

	server *http.Server
}

// Option configures the HTTP server.
type Option func(*HTTPServer)

// WithObservability attaches the tracing and metrics manager.
func WithObservability(obs *observability.Manager) Option {
	return func(s *HTTPServer) { s.obs = obs }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *HTTPServer) { s.logger = logger }
}

// New builds the HTTP server over a registry and its bridge.
func New(host string, port int, registry *agent.Registry, b *bridge.Bridge, opts ...Option) *HTTPServer {
	s := &HTTPServer{
		host:     host,
		port:     port,
		registry: registry,
		bridge:   b,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Address returns the listen address.
func (s *HTTPServer) Address() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// Start serves until ctx is done or the listener fails, then shuts down
// gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	handler := s.Handler()

	s.server = &http.Server{
		Addr:        s.Address(),
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// No write timeout: SSE subscriptions stay open as long as the
		// upstream task runs.
		IdleTimeout: 120 * time.Second,
	}

	s.logger.Info("HTTP server starting", "address", s.Address())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.logger.Info("HTTP server shutting down")
	return s.server.Shutdown(shutdownCtx)
}

// Handler builds the full middleware and routing stack.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/v1/agents", s.handleListAgents)
	r.Route("/v1/agents/{agent}", func(r chi.Router) {
		r.Post("/message", s.handleMessage)
		r.Post("/stream", s.handleStream)
	})

	var handler http.Handler = r
	if s.obs != nil {
		handler = observability.HTTPMiddleware(s.obs.Tracer("agentbridge/http"), s.obs.Metrics())(handler)
	}
	return handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"agents":        s.registry.Count(),
		"healthyAgents": s.registry.HealthyCount(),
	})
}

func (s *HTTPServer) handleListAgents(w http.ResponseWriter, r *http.Request) {
	clients := s.registry.All()
	agents := make([]AgentSummary, 0, len(clients))
	for _, c := range clients {
		agents = append(agents, AgentSummary{
			Name:    c.Name(),
			Healthy: c.Healthy(),
			Error:   c.ErrorMessage(),
			Card:    c.Card(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"agents": agents,
		"total":  len(agents),
	})
}

// handleMessage performs a blocking exchange and returns the final response
// text regardless of whether the agent answered with a bare message or a
// task.
func (s *HTTPServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	agentName := chi.URLParam(r, "agent")

	req, ok := s.decodeMessageRequest(w, r)
	if !ok {
		return
	}

	client, found := s.registry.Get(agentName)
	if !found {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown agent %q", agentName))
		return
	}

	start := time.Now()
	result, err := client.Send(r.Context(), req.Message)
	if m := observability.GetGlobalMetrics(); m != nil {
		m.RecordExchange(r.Context(), agentName, time.Since(start), err)
	}
	if err != nil {
		s.writeSendError(w, agentName, err)
		return
	}

	var text string
	switch {
	case result.Message != nil:
		text = a2a.TextContent(result.Message)
	case result.Task != nil:
		text = a2a.TaskText(result.Task)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(MessageResponse{
		Success:      true,
		AgentName:    agentName,
		ResponseText: text,
	})
}

// handleStream subscribes to the agent and relays status updates as SSE
// events until the bridge closes the subscription.
func (s *HTTPServer) handleStream(w http.ResponseWriter, r *http.Request) {
	agentName := chi.URLParam(r, "agent")

	req, ok := s.decodeMessageRequest(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates, err := s.bridge.Subscribe(r.Context(), agentName, req.Message)
	if err != nil {
		var unknown *bridge.UnknownAgentError
		if errors.As(err, &unknown) {
			s.writeError(w, http.StatusNotFound, unknown.Error())
			return
		}
		s.writeSendError(w, agentName, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics := observability.GetGlobalMetrics()
	if metrics != nil {
		metrics.AddActiveSubscriptions(r.Context(), agentName, 1)
		defer metrics.AddActiveSubscriptions(r.Context(), agentName, -1)
	}

	var lastType bridge.UpdateType
	for update := range updates {
		payload, err := json.Marshal(update)
		if err != nil {
			s.logger.Error("failed to marshal status update", "agent", agentName, "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", update.Type, payload); err != nil {
			// Subscriber went away; r.Context() cancellation tears down
			// the upstream subscription.
			return
		}
		flusher.Flush()
		lastType = update.Type
		if metrics != nil {
			metrics.RecordStreamEvent(r.Context(), agentName, string(update.Type))
		}
	}

	// The close event marks normal completion only; after an error update
	// the error is the last word on the stream.
	if lastType == bridge.UpdateTypeError {
		return
	}
	fmt.Fprint(w, "event: close\ndata: {}\n\n")
	flusher.Flush()
}

func (s *HTTPServer) decodeMessageRequest(w http.ResponseWriter, r *http.Request) (MessageRequest, bool) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return req, false
	}
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return req, false
	}
	return req, true
}

// writeSendError maps client failures onto HTTP statuses: a permanently
// unhealthy agent is a 503 carrying its stored startup failure, a timeout
// and a transport failure are both 500s with distinct wording.
func (s *HTTPServer) writeSendError(w http.ResponseWriter, agentName string, err error) {
	var unhealthy *agent.AgentUnhealthyError
	var timeout *agent.ResponseTimeoutError

	switch {
	case errors.As(err, &unhealthy):
		s.writeError(w, http.StatusServiceUnavailable,
			fmt.Sprintf("agent %q is unavailable: %s", agentName, unhealthy.Reason))
	case errors.As(err, &timeout):
		s.writeError(w, http.StatusInternalServerError,
			fmt.Sprintf("agent %q did not respond within %s", agentName, timeout.Timeout))
	default:
		s.writeError(w, http.StatusInternalServerError,
			fmt.Sprintf("exchange with agent %q failed: %v", agentName, err))
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(MessageResponse{Success: false, Error: message})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// Don't wrap ResponseWriter here; it must stay a Flusher for SSE.
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
