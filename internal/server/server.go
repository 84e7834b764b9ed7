// Package server exposes the webhook ingest and run status API.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shellci/internal/core"
	"shellci/internal/journal"
	"shellci/internal/security"
)

// Server receives repository events, evaluates them against the workflow
// and dispatches eligible ones asynchronously.
type Server struct {
	wf         *core.Workflow
	dispatcher *core.Dispatcher
	journal    *journal.Journal // optional
	secret     string           // webhook HMAC secret; empty disables the check
	log        *zap.SugaredLogger

	mu   sync.Mutex
	runs map[string]*core.RunResult
}

func New(wf *core.Workflow, d *core.Dispatcher, j *journal.Journal, secret string, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{
		wf:         wf,
		dispatcher: d,
		journal:    j,
		secret:     secret,
		log:        log,
		runs:       make(map[string]*core.RunResult),
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/events", s.handleEvent)
	r.Get("/runs/{id}", s.handleGetRun)
	r.Get("/journal/verify", s.handleVerifyJournal)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// EventResponse is the answer to a webhook delivery.
type EventResponse struct {
	RunID    string `json:"run_id,omitempty"`
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// POST /events -> evaluate and, when eligible, schedule a run
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}
	if s.secret != "" {
		sig := r.Header.Get("X-Hub-Signature-256")
		if !security.VerifyWebhookSignature(s.secret, sig, body) {
			s.log.Warnw("webhook signature rejected", "remote", r.RemoteAddr)
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	var ev core.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}

	if dec := core.Evaluate(s.wf, ev); !dec.Run {
		writeJSON(w, http.StatusOK, EventResponse{Decision: "skipped", Reason: dec.Reason})
		return
	}

	id := uuid.NewString()
	pending := &core.RunResult{
		ID:        id,
		Workflow:  s.wf.Name,
		Event:     ev.Kind,
		Ref:       ev.Ref,
		Status:    core.StatusRunning,
		StartedAt: time.Now(),
	}
	s.mu.Lock()
	s.runs[id] = pending
	s.mu.Unlock()

	// Dispatch detached from the request: webhook deliveries must not wait
	// for the run.
	go func() {
		res, _, err := s.dispatcher.Dispatch(context.Background(), id, s.wf, ev)
		if err != nil {
			s.log.Errorw("dispatch failed", "run", id, "error", err)
			return
		}
		if res != nil {
			s.mu.Lock()
			s.runs[id] = res
			s.mu.Unlock()
		}
	}()

	writeJSON(w, http.StatusAccepted, EventResponse{RunID: id, Decision: "scheduled"})
}

// GET /runs/{id} -> run status and per-job results
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	res, ok := s.runs[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /journal/verify -> re-verify the whole journal chain
func (s *Server) handleVerifyJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "journal not configured", http.StatusNotFound)
		return
	}
	if err := s.journal.Verify(); err != nil {
		http.Error(w, "journal verification failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "records": s.journal.Len()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
