package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cyberstrike/backend/internal/analysis"
)

type chatRequest struct {
	ID      string             `json:"id"`
	Query   string             `json:"query"`
	History []analysis.Message `json:"history"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	rec, ok := s.readyRecord(w, r, req.ID)
	if !ok {
		return
	}

	answer, err := s.analyst.Chat(r.Context(), rec.ExtractedText, req.Query, req.History)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.saveTurn(r.Context(), rec.ID, "user", req.Query)
	s.saveTurn(r.Context(), rec.ID, "assistant", answer)

	writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}

// saveTurn appends one turn to the document's transcript. Transcripts are an
// extra; losing one is a warning, not a request failure.
func (s *Server) saveTurn(ctx context.Context, docID, role, content string) {
	if s.database == nil {
		return
	}
	dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.database.SaveMessage(dbCtx, docID, role, content); err != nil {
		slog.Warn("save chat message", "document", docID, "role", role, "err", err)
	}
}
