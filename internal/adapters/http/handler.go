// Package httpadapter exposes the slide generator over HTTP for the web
// front-end: stateless generation endpoints, the session state machine,
// saved history and document export.
package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/piyuindia4/ai-slides/internal/app/generator"
	"github.com/piyuindia4/ai-slides/internal/app/history"
	"github.com/piyuindia4/ai-slides/internal/app/session"
	"github.com/piyuindia4/ai-slides/internal/domain"
	"github.com/piyuindia4/ai-slides/internal/export"
	"github.com/piyuindia4/ai-slides/internal/observability"
)

type Server struct {
	gen       session.Generator
	sessions  *session.Service
	history   *history.Service
	exporter  *export.Exporter
	modelName string
	now       func() time.Time
}

func NewServer(gen session.Generator, sessions *session.Service, hist *history.Service, exporter *export.Exporter, modelName string) http.Handler {
	s := &Server{
		gen:       gen,
		sessions:  sessions,
		history:   hist,
		exporter:  exporter,
		modelName: modelName,
		now:       time.Now,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/generate-slides", s.handleGenerateSlides)
	mux.HandleFunc("/api/edit-slides", s.handleEditSlides)

	// /api/sessions           → POST: create session
	// /api/sessions/{handle}… → everything scoped to one session
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/sessions/", s.handleSessionWithHandle)

	// /api/history      → GET: list, DELETE: clear
	// /api/history/{id} → DELETE: remove one, /restore → reopen
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/history/", s.handleHistoryWithID)

	return chainMiddlewares(mux, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type generateRequest struct {
	Prompt              string           `json:"prompt"`
	ConversationHistory []domain.Message `json:"conversationHistory,omitempty"`
}

type editRequest struct {
	Prompt        string      `json:"prompt"`
	CurrentSlides domain.Deck `json:"currentSlides"`
}

type deckResponse struct {
	Message string      `json:"message"`
	Slides  domain.Deck `json:"slides"`
}

type sendMessageRequest struct {
	Text  string           `json:"text"`
	Files []domain.FileRef `json:"files,omitempty"`
}

type replaceSlideRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Content  string `json:"content"`
}

type historyResponse struct {
	Today   []domain.Session `json:"today"`
	Earlier []domain.Session `json:"earlier"`
}

// failureResponse mirrors what the front-end expects for a failed
// generation: a short error, a human message and a retryability flag.
type failureResponse struct {
	Error       string `json:"error"`
	Message     string `json:"message,omitempty"`
	Details     string `json:"details,omitempty"`
	IsRetryable bool   `json:"isRetryable"`
}

// ─────────────────────────────────────────────
// Stateless generation
// ─────────────────────────────────────────────

// quotaDescription mirrors the hosted model's free-tier limits.
const quotaDescription = "Unlimited (Rate limited to 2 RPM on free tier)"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "OK",
		"model":  s.modelName,
		"quota":  quotaDescription,
	})
}

func (s *Server) handleGenerateSlides(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		badRequest(w, "prompt is required")
		return
	}

	out := s.gen.Generate(r.Context(), req.Prompt, req.ConversationHistory)
	if out.Failure != nil {
		writeFailure(w, out.Failure)
		return
	}

	writeJSON(w, http.StatusOK, deckResponse{Message: out.Message, Slides: out.Deck})
}

func (s *Server) handleEditSlides(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		badRequest(w, "prompt is required")
		return
	}
	if len(req.CurrentSlides) == 0 {
		badRequest(w, "currentSlides is required")
		return
	}

	out := s.gen.Revise(r.Context(), req.Prompt, req.CurrentSlides)
	if out.Failure != nil {
		writeFailure(w, out.Failure)
		return
	}

	writeJSON(w, http.StatusOK, deckResponse{Message: out.Message, Slides: out.Deck})
}

// ─────────────────────────────────────────────
// Session state machine
// ─────────────────────────────────────────────

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		writeJSON(w, http.StatusCreated, s.sessions.NewSession())
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSessionWithHandle(w http.ResponseWriter, r *http.Request) {
	// expected paths:
	// /api/sessions/{handle}
	// /api/sessions/{handle}/messages
	// /api/sessions/{handle}/retry
	// /api/sessions/{handle}/slides/{index}
	// /api/sessions/{handle}/export/{format}
	// /api/sessions/{handle}/thumbnail/{index}
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	handle := parts[0]
	if handle == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		snap, err := s.sessions.Get(handle)
		if err != nil {
			writeSessionError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "messages" && r.Method == http.MethodPost:
		s.handleSendMessage(w, r, handle)
	case len(parts) == 2 && parts[1] == "retry" && r.Method == http.MethodPost:
		s.handleRetry(w, r, handle)
	case len(parts) == 3 && parts[1] == "slides" && r.Method == http.MethodPut:
		s.handleReplaceSlide(w, r, handle, parts[2])
	case len(parts) == 3 && parts[1] == "export" && r.Method == http.MethodGet:
		s.handleExport(w, r, handle, parts[2])
	case len(parts) == 3 && parts[1] == "thumbnail" && r.Method == http.MethodGet:
		s.handleThumbnail(w, r, handle, parts[2])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, handle string) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	snap, err := s.sessions.Submit(r.Context(), handle, req.Text, req.Files)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request, handle string) {
	snap, err := s.sessions.Retry(r.Context(), handle)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReplaceSlide(w http.ResponseWriter, r *http.Request, handle, indexPart string) {
	index, err := strconv.Atoi(indexPart)
	if err != nil {
		badRequest(w, "invalid slide index")
		return
	}

	var req replaceSlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	snap, err := s.sessions.ReplaceSlide(handle, index, req.Title, req.Subtitle, req.Content)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ─────────────────────────────────────────────
// Export
// ─────────────────────────────────────────────

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, handle, format string) {
	deck, prompt, err := s.sessions.Deck(handle)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	if len(deck) == 0 {
		badRequest(w, "session has no slides to export")
		return
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "pptx":
		data, err = s.exporter.PPTX(r.Context(), deck)
		contentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case "pdf":
		data, err = s.exporter.PDF(r.Context(), deck)
		contentType = "application/pdf"
	default:
		badRequest(w, "unsupported export format")
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(prompt, format)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request, handle, indexPart string) {
	index, err := strconv.Atoi(indexPart)
	if err != nil {
		badRequest(w, "invalid slide index")
		return
	}

	deck, _, err := s.sessions.Deck(handle)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	if index < 0 || index >= len(deck) {
		writeSessionError(w, r, session.ErrSlideIndex)
		return
	}

	png, err := s.exporter.Thumbnail(deck[index], index)
	if err != nil {
		internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ─────────────────────────────────────────────
// History
// ─────────────────────────────────────────────

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions, err := s.history.Load(r.Context())
		if err != nil {
			internalError(w, r, err)
			return
		}
		today, earlier := history.Partition(sessions, s.now())
		if today == nil {
			today = []domain.Session{}
		}
		if earlier == nil {
			earlier = []domain.Session{}
		}
		writeJSON(w, http.StatusOK, historyResponse{Today: today, Earlier: earlier})
	case http.MethodDelete:
		if err := s.history.Clear(r.Context()); err != nil {
			internalError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleHistoryWithID(w http.ResponseWriter, r *http.Request) {
	// expected paths:
	// /api/history/{id}
	// /api/history/{id}/restore
	path := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := domain.SessionID(parts[0])
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := s.history.Delete(r.Context(), id); err != nil {
			internalError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case len(parts) == 2 && parts[1] == "restore" && r.Method == http.MethodPost:
		s.handleRestore(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// handleRestore reopens a saved deck as a live session so the user can
// keep editing where they left off.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	sessions, err := s.history.Load(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	for _, saved := range sessions {
		if saved.ID == id {
			writeJSON(w, http.StatusCreated, s.sessions.Restore(saved))
			return
		}
	}
	http.NotFound(w, r)
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

// writeFailure maps a classified generation failure onto the wire contract:
// quota exhaustion is 429 and final, overload is 503 and retryable,
// anything else is a plain 500.
func writeFailure(w http.ResponseWriter, f *generator.Failure) {
	switch f.Class {
	case generator.FailureRateLimited:
		writeJSON(w, http.StatusTooManyRequests, failureResponse{
			Error:       "API quota exceeded",
			Message:     "You have exceeded your API rate limits. Please wait a moment before trying again.",
			Details:     f.Reason,
			IsRetryable: false,
		})
	case generator.FailureOverloaded:
		writeJSON(w, http.StatusServiceUnavailable, failureResponse{
			Error:       "Service overloaded",
			Message:     f.Reason + ". Please try again in a few moments.",
			IsRetryable: true,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, failureResponse{
			Error:       "Failed to generate slides",
			Details:     f.Reason,
			IsRetryable: false,
		})
	}
}

func writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, session.ErrEmptyInput):
		badRequest(w, "text is required")
	case errors.Is(err, session.ErrSlideIndex):
		badRequest(w, "slide index out of range")
	case errors.Is(err, session.ErrGenerationInFlight):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a generation is already in progress"})
	case errors.Is(err, session.ErrNoRetry):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "nothing to retry"})
	case errors.Is(err, session.ErrRetryCountdown):
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "retry countdown has not elapsed"})
	default:
		internalError(w, r, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
