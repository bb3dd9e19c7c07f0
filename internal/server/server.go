// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/jeranaias/newsdesk/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultHost binds to loopback only.
	DefaultHost = "127.0.0.1"

	// DefaultPort matches the port the client assumes.
	DefaultPort = 8000

	// MaxRequestBodySize caps a request body.
	MaxRequestBodySize = 64 * 1024

	// ReadHeaderTimeout bounds slow clients.
	ReadHeaderTimeout = 10 * time.Second
)

// Wire values shared with the client.
const (
	NoResultsReply  = "No results found from both Naver and Google."
	NoResultsSource = "None"
	SourceNaver     = "Naver Search API"
	SourceGoogle    = "Google Search API"

	TypeChat      = "chat"
	TypeAssistant = "assistant"
)

// =============================================================================
// RESPONDER
// =============================================================================

// Query is one incoming message.
type Query struct {
	Message  string
	Mode     model.Mode
	ThreadID string
}

// Answer is what a Responder produced for a Query. An answer without
// results is sent as the no-results shape.
type Answer struct {
	Reply   string
	Source  string
	Results []model.ResultItem
}

// Responder produces answers for the server.
type Responder interface {
	Respond(ctx context.Context, q Query) (Answer, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, q Query) (Answer, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, q Query) (Answer, error) {
	return f(ctx, q)
}

// =============================================================================
// SERVER
// =============================================================================

// Config configures the server.
type Config struct {
	Host string
	Port int

	// AllowedOrigins lists CORS origins. Empty uses DefaultCORSConfig.
	AllowedOrigins []string

	// Logger receives request logs. Nil uses the standard logger.
	Logger *log.Logger
}

// Stats tracks request counts since start.
type Stats struct {
	StartTime time.Time
	Chat      atomic.Int64
	Assistant atomic.Int64
	NoResults atomic.Int64
	Failures  atomic.Int64
}

// Server is the local news backend.
type Server struct {
	cfg        Config
	responder  Responder
	router     chi.Router
	httpServer *http.Server
	stats      *Stats
}

// New creates a server answering with responder.
func New(cfg Config, responder Responder) *Server {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if responder == nil {
		responder = NewEchoResponder()
	}

	s := &Server{
		cfg:       cfg,
		responder: responder,
		stats:     &Stats{StartTime: time.Now()},
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
	return s
}

func (s *Server) routes() chi.Router {
	cors := DefaultCORSConfig()
	if len(s.cfg.AllowedOrigins) > 0 {
		cors.AllowedOrigins = s.cfg.AllowedOrigins
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(LoggingMiddleware(s.cfg.Logger))
	r.Use(RecoveryMiddleware())
	r.Use(CORSMiddleware(cors))
	r.Use(BodyLimitMiddleware(MaxRequestBodySize))

	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Post("/assistant", s.handleAssistant)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Stats returns the live request counters.
func (s *Server) Stats() *Stats {
	return s.stats
}

// Start listens on Addr and serves until Shutdown. It returns
// http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	log.Printf("SERVER_START | addr=%s", s.Addr())
	return s.httpServer.ListenAndServe()
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	log.Printf("SERVER_START | addr=%s", ln.Addr())
	return s.httpServer.Serve(ln)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Printf("SERVER_SHUTDOWN | uptime=%v chat=%d assistant=%d no_results=%d failures=%d",
		time.Since(s.stats.StartTime).Round(time.Second),
		s.stats.Chat.Load(),
		s.stats.Assistant.Load(),
		s.stats.NoResults.Load(),
		s.stats.Failures.Load(),
	)
	return s.httpServer.Shutdown(ctx)
}

// =============================================================================
// HANDLERS
// =============================================================================

type healthResponse struct {
	Status string `json:"status"`
}

type messageRequest struct {
	Message  *string `json:"message"`
	ThreadID string  `json:"thread_id"`
}

type noResultsResponse struct {
	Reply  string `json:"reply"`
	Source string `json:"source"`
}

type chatResponse struct {
	Reply   string             `json:"reply"`
	Source  string             `json:"source"`
	Results []model.ResultItem `json:"results"`
	Type    string             `json:"type"`
}

type assistantSummary struct {
	Reply    string `json:"reply"`
	ThreadID string `json:"thread_id"`
}

type assistantResponse struct {
	Results []model.ResultItem `json:"results"`
	Summary assistantSummary   `json:"summary"`
	Type    string             `json:"type"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.stats.Chat.Add(1)

	req, ok := decodeMessage(w, r)
	if !ok {
		return
	}

	ans, ok := s.answer(w, r, Query{Message: *req.Message, Mode: model.ModeChat})
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:   ans.Reply,
		Source:  ans.Source,
		Results: ans.Results,
		Type:    TypeChat,
	})
}

func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	s.stats.Assistant.Add(1)

	req, ok := decodeMessage(w, r)
	if !ok {
		return
	}

	threadID := strings.TrimSpace(req.ThreadID)
	if threadID == "" {
		threadID = NewThreadID()
		log.Printf("THREAD_CREATED | thread_id=%s", threadID)
	}

	ans, ok := s.answer(w, r, Query{Message: *req.Message, Mode: model.ModeAssistant, ThreadID: threadID})
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, assistantResponse{
		Results: ans.Results,
		Summary: assistantSummary{Reply: ans.Reply, ThreadID: threadID},
		Type:    TypeAssistant,
	})
}

// answer runs the responder. It writes the error or no-results body itself
// and reports whether the caller should write the full reply.
func (s *Server) answer(w http.ResponseWriter, r *http.Request, q Query) (Answer, bool) {
	ans, err := s.responder.Respond(r.Context(), q)
	if err != nil {
		s.stats.Failures.Add(1)
		log.Printf("RESPONDER_FAILED | mode=%s request_id=%s error=%v", q.Mode, chiMiddleware.GetReqID(r.Context()), err)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return Answer{}, false
	}

	if len(ans.Results) == 0 {
		s.stats.NoResults.Add(1)
		writeJSON(w, http.StatusOK, noResultsResponse{Reply: NoResultsReply, Source: NoResultsSource})
		return Answer{}, false
	}
	return ans, true
}

// decodeMessage reads {message, thread_id?}. It writes 413 for an oversized
// body and 422 for anything without a string message.
func decodeMessage(w http.ResponseWriter, r *http.Request) (messageRequest, bool) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid JSON body: %v", err))
		return req, false
	}
	if req.Message == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "field required: message")
		return req, false
	}
	return req, true
}

// NewThreadID returns a fresh assistant thread id.
func NewThreadID() string {
	return "thread_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// =============================================================================
// HELPERS
// =============================================================================

type detailResponse struct {
	Detail string `json:"detail"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("RESPONSE_ENCODE_FAILED | error=%v", err)
	}
}

// writeDetail writes an error body in the {"detail": "..."} form.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}
