package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cyberstrike/backend/internal/document"
)

// fileInfo returns the descriptive metadata for a document. While extraction
// is still running the response is a 202 so the frontend can poll.
func (s *Server) fileInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	switch rec.State {
	case document.StatePending:
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": string(rec.State),
		})
		return
	case document.StateFailed:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"status": string(rec.State),
			"error":  rec.FailureDetail,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"file_name":   rec.Filename,
		"file_size":   humanSize(rec.FileSize),
		"last_edited": rec.LastModified,
		"page_count":  rec.PageCount,
		"author":      rec.Author,
		"created_at":  rec.CreatedAt,
	})
}
