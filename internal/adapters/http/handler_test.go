package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/piyuindia4/ai-slides/internal/adapters/http"
	memstore "github.com/piyuindia4/ai-slides/internal/adapters/history/memory"
	"github.com/piyuindia4/ai-slides/internal/adapters/llm"
	"github.com/piyuindia4/ai-slides/internal/app/generator"
	"github.com/piyuindia4/ai-slides/internal/app/history"
	"github.com/piyuindia4/ai-slides/internal/app/session"
	"github.com/piyuindia4/ai-slides/internal/domain"
	"github.com/piyuindia4/ai-slides/internal/export"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// newTestServer wires the full stack on the mock model, with image
// downloads disabled so exports never leave the process.
func newTestServer(t *testing.T, model domain.ModelClient) http.Handler {
	t.Helper()

	dispatcher := generator.NewDispatcher(model)
	hist := history.NewService(memstore.NewStore())
	t.Cleanup(hist.Close)
	sessions := session.NewService(dispatcher, hist)

	noNetwork := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("network disabled in tests")
	})}
	exporter := export.NewExporter(export.WithHTTPClient(noNetwork))

	return httpadapter.NewServer(dispatcher, sessions, hist, exporter, "test-model")
}

type failingModel struct {
	err error
}

func (m *failingModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	return "", m.err
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, llm.NewMockLLM())

	w := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]string
	decode(t, w, &resp)
	if resp["status"] != "OK" || resp["model"] != "test-model" {
		t.Fatalf("unexpected health payload: %v", resp)
	}
	if resp["quota"] == "" {
		t.Fatal("expected a quota description in the health payload")
	}
}

func TestGenerateSlides(t *testing.T) {
	srv := newTestServer(t, llm.NewMockLLM())

	w := doJSON(t, srv, http.MethodPost, "/api/generate-slides", map[string]string{"prompt": "Mars Missions"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Message string      `json:"message"`
		Slides  domain.Deck `json:"slides"`
	}
	decode(t, w, &resp)
	if len(resp.Slides) != 5 {
		t.Fatalf("expected 5 slides, got %d", len(resp.Slides))
	}
	if resp.Slides[0].Title != "Mars Missions" {
		t.Fatalf("unexpected title slide %q", resp.Slides[0].Title)
	}
	if resp.Message == "" {
		t.Fatal("expected a message")
	}
}

func TestGenerateSlidesRequiresPrompt(t *testing.T) {
	srv := newTestServer(t, llm.NewMockLLM())

	w := doJSON(t, srv, http.MethodPost, "/api/generate-slides", map[string]string{"prompt": "  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGenerateSlidesQuotaExceeded(t *testing.T) {
	model := &failingModel{err: errors.New("429 Too Many Requests: quota exceeded")}
	srv := newTestServer(t, model)

	w := doJSON(t, srv, http.MethodPost, "/api/generate-slides", map[string]string{"prompt": "Mars"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}

	var resp struct {
		Error       string `json:"error"`
		IsRetryable bool   `json:"isRetryable"`
	}
	decode(t, w, &resp)
	if resp.Error != "API quota exceeded" {
		t.Fatalf("unexpected error %q", resp.Error)
	}
	if resp.IsRetryable {
		t.Fatal("quota exhaustion must not be retryable")
	}
}

func TestEditSlides(t *testing.T) {
	srv := newTestServer(t, llm.NewMockLLM())

	deck := domain.Deck{{Title: "Old", Type: domain.SlideTypeTitle}}
	w := doJSON(t, srv, http.MethodPost, "/api/edit-slides", map[string]any{
		"prompt":        "make it shorter",
		"currentSlides": deck,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Slides domain.Deck `json:"slides"`
	}
	decode(t, w, &resp)
	if len(resp.Slides) == 0 {
		t.Fatal("expected revised slides")
	}
}

func createSession(t *testing.T, srv http.Handler) session.Snapshot {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d, body=%s", w.Code, w.Body.String())
	}
	var snap session.Snapshot
	decode(t, w, &snap)
	if snap.Handle == "" {
		t.Fatal("expected a session handle")
	}
	return snap
}

func TestSessionFlow(t *testing.T) {
	srv := newTestServer(t, llm.NewMockLLM())
	snap := createSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/sessions/"+snap.Handle+"/messages",
		map[string]string{"text": "Solar Energy"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var turn session.Snapshot
	decode(t, w, &turn)
	if turn.State != session.StateDisplaying {
		t.Fatalf("expected displaying, got %s", turn.State)
	}
	if len(turn.Deck) != 5 {
		t.Fatalf("expected 5 slides, got %d", len(turn.Deck))
	}

	// Fetch it back.
	w = doJSON(t, srv, http.MethodGet, "/api/sessions/"+snap.Handle, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got session.Snapshot
	decode(t, w, &got)
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
}

func TestSessionNotFound(t *testing.T) {
	srv := newTestServer(t, llm.NewMockLLM())

	w := doJSON(t, srv, http.MethodGet, "/api/sessions/unknown", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestReplaceSlideEndpoint(t *testing.T) {
	srv := newTestServer(t, llm.NewMockLLM())
	snap := createSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/sessions/"+snap.Handle+"/messages",
		map[string]string{"text": "Solar Energy"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodPut, "/api/sessions/"+snap.Handle+"/slides/1",
		map[string]string{"title": "Edited", "subtitle": "By hand", "content": "New body."})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var turn session.Snapshot
	decode(t, w, &turn)
	if turn.Deck[1].Title != "Edited" {
		t.Fatalf("expected replaced slide, got %+v", turn.Deck[1])
	}
}

func TestExportEndpoints(t *testing.T) {
	srv := newTestServer(t, llm.NewMockLLM())
	snap := createSession(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/sessions/"+snap.Handle+"/messages",
		map[string]string{"text": "Solar Energy"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodGet, "/api/sessions/"+snap.Handle+"/export/pdf", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected a PDF body")
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="solar-energy.pdf"` {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	w = doJSON(t, srv, http.MethodGet, "/api/sessions/"+snap.Handle+"/export/pptx", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatal("expected a zip body")
	}

	w = doJSON(t, srv, http.MethodGet, "/api/sessions/"+snap.Handle+"/thumbnail/0", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("expected image/png, got %s", w.Header().Get("Content-Type"))
	}

	w = doJSON(t, srv, http.MethodGet, "/api/sessions/"+snap.Handle+"/export/docx", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported format, got %d", w.Code)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	srv := newTestServer(t, llm.NewMockLLM())

	w := doJSON(t, srv, http.MethodGet, "/api/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Today   []domain.Session `json:"today"`
		Earlier []domain.Session `json:"earlier"`
	}
	decode(t, w, &resp)
	if resp.Today == nil || resp.Earlier == nil {
		t.Fatal("expected both buckets present, even when empty")
	}

	w = doJSON(t, srv, http.MethodDelete, "/api/history", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

// brokenStore fails every operation, standing in for an unreachable backend.
type brokenStore struct{}

func (brokenStore) Put(context.Context, domain.Session) error { return errors.New("backend down") }
func (brokenStore) List(context.Context) ([]domain.Session, error) {
	return nil, errors.New("backend down")
}
func (brokenStore) Delete(context.Context, domain.SessionID) error { return errors.New("backend down") }
func (brokenStore) Clear(context.Context) error                    { return errors.New("backend down") }

func TestHistoryStoreFailureIsLoggedAndMasked(t *testing.T) {
	dispatcher := generator.NewDispatcher(llm.NewMockLLM())
	hist := history.NewService(brokenStore{})
	t.Cleanup(hist.Close)
	sessions := session.NewService(dispatcher, hist)
	srv := httpadapter.NewServer(dispatcher, sessions, hist, export.NewExporter(), "test-model")

	w := doJSON(t, srv, http.MethodGet, "/api/history", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp map[string]string
	decode(t, w, &resp)
	if resp["error"] != "internal server error" {
		t.Fatalf("expected the store error to be masked, got %v", resp)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, llm.NewMockLLM())

	req := httptest.NewRequest(http.MethodOptions, "/api/generate-slides", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected CORS headers")
	}
}
