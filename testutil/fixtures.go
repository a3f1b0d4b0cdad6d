package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// ChatRequest is the body the fake backend received on POST /chat
type ChatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// FakeBackend is an in-process stand-in for the ModularAI HTTP backend.
type FakeBackend struct {
	server *httptest.Server

	mu         sync.Mutex
	reply      string
	steps      int
	memories   map[string][]string
	failStatus int
	failBody   string

	chatRequests     []ChatRequest
	memoryRequests   []string
	documentRequests [][]string
}

// NewFakeBackend starts a fake backend that answers "ok" in one step until told otherwise.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	b := &FakeBackend{
		reply:    "ok",
		steps:    1,
		memories: make(map[string][]string),
	}

	r := chi.NewRouter()
	r.Use(b.failing)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	})
	r.Post("/chat", b.handleChat)
	r.Get("/memory/{userID}", b.handleMemory)
	r.Post("/documents", b.handleDocuments)

	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the base URL of the fake backend
func (b *FakeBackend) URL() string {
	return b.server.URL
}

// SetReply sets the reply returned by POST /chat
func (b *FakeBackend) SetReply(reply string, steps int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reply = reply
	b.steps = steps
}

// SetMemories sets what GET /memory/{userID} returns for userID
func (b *FakeBackend) SetMemories(userID string, memories []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.memories[userID] = memories
}

// Fail makes every endpoint answer with status and a plain-text body.
// A zero status restores normal behaviour.
func (b *FakeBackend) Fail(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failStatus = status
	b.failBody = body
}

// ChatRequests returns the chat requests received so far
func (b *FakeBackend) ChatRequests() []ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ChatRequest(nil), b.chatRequests...)
}

// MemoryRequests returns the unescaped user ids requested from /memory
func (b *FakeBackend) MemoryRequests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.memoryRequests...)
}

// DocumentRequests returns the document batches received so far
func (b *FakeBackend) DocumentRequests() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.documentRequests...)
}

func (b *FakeBackend) failing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		status, body := b.failStatus, b.failBody
		b.mu.Unlock()
		if status != 0 {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusUnprocessableEntity)
		return
	}

	b.mu.Lock()
	b.chatRequests = append(b.chatRequests, req)
	reply, steps := b.reply, b.steps
	b.mu.Unlock()

	writeJSON(w, map[string]interface{}{"reply": reply, "steps": steps})
}

func (b *FakeBackend) handleMemory(w http.ResponseWriter, r *http.Request) {
	// chi matches against the raw path when the request carried escapes
	userID := chi.URLParam(r, "userID")
	if r.URL.RawPath != "" {
		var err error
		if userID, err = url.PathUnescape(userID); err != nil {
			http.Error(w, "bad user id", http.StatusBadRequest)
			return
		}
	}

	b.mu.Lock()
	b.memoryRequests = append(b.memoryRequests, userID)
	memories := b.memories[userID]
	b.mu.Unlock()

	if memories == nil {
		memories = []string{}
	}
	writeJSON(w, map[string]interface{}{"user_id": userID, "memories": memories})
}

func (b *FakeBackend) handleDocuments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Documents []string `json:"documents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Documents) == 0 {
		http.Error(w, "documents required", http.StatusUnprocessableEntity)
		return
	}

	b.mu.Lock()
	b.documentRequests = append(b.documentRequests, req.Documents)
	b.mu.Unlock()

	writeJSON(w, map[string]interface{}{"status": "ok", "count": len(req.Documents)})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
