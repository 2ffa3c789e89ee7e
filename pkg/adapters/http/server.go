package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aretw0/loanflow/internal/logging"
	"github.com/aretw0/loanflow/pkg/abn"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/aretw0/loanflow/pkg/runner"
)

// Server exposes a Conversation over JSON and SSE.
type Server struct {
	conv       ports.Conversation
	calculator *quote.Calculator
	registry   ports.Registry
	streams    *StreamManager
	metrics    http.Handler
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCalculator prices POST /quotes. Defaults to quote.New().
func WithCalculator(c *quote.Calculator) Option {
	return func(s *Server) { s.calculator = c }
}

// WithRegistry enables registry lookups on GET /abn/{abn}.
func WithRegistry(r ports.Registry) Option {
	return func(s *Server) { s.registry = r }
}

// WithStreams shares a StreamManager, typically also installed as the engine emitter.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.streams = sm }
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewHandler creates the HTTP handler for conv.
func NewHandler(conv ports.Conversation, opts ...Option) http.Handler {
	s := &Server{conv: conv, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.calculator == nil {
		s.calculator = quote.New()
	}
	if s.streams == nil {
		s.streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Get("/health", s.health)
	r.Post("/sessions", s.create)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.snapshot)
		r.Delete("/", s.reset)
		r.Post("/start", s.start)
		r.Post("/answer", s.answer)
		r.Get("/events", s.events)
	})
	r.Post("/quotes", s.quote)
	r.Get("/abn/{abn}", s.checkABN)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AnswerRequest is the body of POST /sessions/{id}/answer.
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// TurnResponse is a turn plus the RFC 7386 merge patch of the record against
// its state before the request.
type TurnResponse struct {
	*domain.Turn
	Patch json.RawMessage `json:"patch,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string       `json:"error"`
	Field string       `json:"field,omitempty"`
	Turn  *domain.Turn `json:"turn,omitempty"`
}

// ABNResponse is the body of GET /abn/{abn}.
type ABNResponse struct {
	ABN        string                `json:"abn"`
	Valid      bool                  `json:"valid"`
	Formatted  string                `json:"formatted,omitempty"`
	Registered *bool                 `json:"registered,omitempty"`
	Entry      *domain.RegistryEntry `json:"entry,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	turn, err := s.conv.Start(r.Context(), id)
	if err != nil {
		s.fail(w, err, turn)
		return
	}
	w.Header().Set("Location", "/sessions/"+id)
	s.writeJSON(w, http.StatusCreated, TurnResponse{Turn: turn})
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	turn, err := s.conv.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, turn)
		return
	}
	s.writeJSON(w, http.StatusOK, TurnResponse{Turn: turn})
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		s.logger.Warn("answer: invalid request body", "session_id", id, "error", err)
		return
	}
	input, err := runner.SanitizeInput(body.Answer)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		s.logger.Warn("answer: input rejected", "session_id", id, "error", err, "size", len(body.Answer))
		return
	}

	var before *domain.Application
	if snap, err := s.conv.Snapshot(r.Context(), id); err == nil {
		before = snap.Record
	}

	turn, err := s.conv.Answer(r.Context(), id, input)
	if err != nil {
		s.fail(w, err, turn)
		return
	}

	patch, err := recordPatch(before, turn.Record)
	if err != nil {
		s.logger.Error("answer: record patch failed", "session_id", id, "error", err)
	}
	if patch != nil {
		s.streams.Broadcast(id, Event{Name: EventPatch, Data: string(patch)})
	}
	s.writeJSON(w, http.StatusOK, TurnResponse{Turn: turn, Patch: patch})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	turn, err := s.conv.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, turn)
		return
	}
	s.writeJSON(w, http.StatusOK, TurnResponse{Turn: turn})
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.conv.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request) {
	var req quote.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	res, err := s.calculator.Calculate(req)
	var rangeErr *quote.RangeError
	switch {
	case errors.As(err, &rangeErr):
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Field: rangeErr.Field})
	case errors.Is(err, quote.ErrUnknownRate):
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case err != nil:
		s.fail(w, err, nil)
	default:
		s.writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) checkABN(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "abn")
	resp := ABNResponse{ABN: abn.Normalize(raw), Valid: abn.IsValid(raw)}
	if !resp.Valid {
		s.writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Formatted = abn.Format(raw)

	if s.registry != nil {
		entry, err := s.registry.Lookup(r.Context(), resp.ABN)
		switch {
		case errors.Is(err, ports.ErrNotFound):
			registered := false
			resp.Registered = &registered
		case err != nil:
			s.logger.Warn("abn: registry lookup failed", "abn", resp.ABN, "error", err)
			s.writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "registry unavailable"})
			return
		default:
			registered := true
			resp.Registered = &registered
			resp.Entry = entry
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// events streams assistant messages and record patches for one session.
// ?watch=message,patch limits the event names delivered.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("events: streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	watch := map[string]bool{}
	for _, name := range strings.Split(r.URL.Query().Get("watch"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			watch[name] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(id)
	defer cancel()
	s.logger.Info("SSE client subscribed", "session_id", id)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "session_id", id)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watch[ev.Name] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		}
	}
}

// recordPatch returns nil when nothing changed.
func recordPatch(before, after *domain.Application) ([]byte, error) {
	if after == nil {
		return nil, nil
	}
	original := []byte("{}")
	if before != nil {
		var err error
		if original, err = json.Marshal(before); err != nil {
			return nil, err
		}
	}
	modified, err := json.Marshal(after)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(original, modified)
	if err != nil {
		return nil, err
	}
	if string(patch) == "{}" {
		return nil, nil
	}
	return patch, nil
}

// statusFor maps engine errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionIDRequired):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAwaitingInput), errors.Is(err, domain.ErrSessionTerminal):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionHalted):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error, turn *domain.Turn) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error(), Turn: turn})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
