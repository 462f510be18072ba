// internal/web/server.go
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/user/docchat/internal/session"
	"github.com/user/docchat/internal/tokens"
	"github.com/user/docchat/internal/types"
)

// Server is a lightweight read-only HTTP surface over the coordinator, used
// by the serve mode so local tooling can inspect state and ask questions.
type Server struct {
	coordinator *session.Coordinator
	counter     *tokens.Counter
	mux         *http.ServeMux
}

// NewServer creates a Server over the given coordinator. counter may be nil,
// in which case token counts are omitted.
func NewServer(coordinator *session.Coordinator, counter *tokens.Counter) *Server {
	s := &Server{
		coordinator: coordinator,
		counter:     counter,
		mux:         http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/documents", s.handleDocuments)
	s.mux.HandleFunc("GET /api/transcript", s.handleTranscript)
	s.mux.HandleFunc("POST /ask", s.handleAsk)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": string(s.coordinator.Health()),
	})
}

// documentsResponse is the JSON body for GET /api/documents.
type documentsResponse struct {
	Documents []*types.Document `json:"documents"`
	Error     string            `json:"error,omitempty"`
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(documentsResponse{
		Documents: s.coordinator.Documents(),
		Error:     s.coordinator.LastError(),
	})
}

// transcriptResponse is the JSON body for GET /api/transcript.
type transcriptResponse struct {
	Messages   []*types.Message `json:"messages"`
	TokenCount int              `json:"token_count,omitempty"`
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.coordinator.Transcript(r.Context())
	if err != nil {
		slog.Error("transcript read failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	resp := transcriptResponse{Messages: msgs}
	if s.counter != nil {
		resp.TokenCount = s.counter.TranscriptTokens(msgs)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// askRequest is the JSON body for POST /ask.
type askRequest struct {
	Question string `json:"question"`
}

// askResponse carries the assistant's reply for POST /ask.
type askResponse struct {
	Answer  string         `json:"answer"`
	Sources []types.Source `json:"sources,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		http.Error(w, `{"error":"question is required"}`, http.StatusBadRequest)
		return
	}
	if s.coordinator.SelectedDocument() == nil {
		http.Error(w, `{"error":"no document selected"}`, http.StatusConflict)
		return
	}

	if err := s.coordinator.Ask(r.Context(), req.Question); err != nil {
		slog.Error("ask failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	msgs, err := s.coordinator.Transcript(r.Context())
	if err != nil || len(msgs) == 0 {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	last := msgs[len(msgs)-1]
	resp := askResponse{Answer: last.Content}
	if s.coordinator.SourcesVisible() {
		resp.Sources = last.Sources
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
