package api

import (
	"encoding/json"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/cyberstrike/backend/internal/analysis"
	"github.com/cyberstrike/backend/internal/document"
)

type documentRequest struct {
	ID string `json:"id"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

// readyRecord resolves a document id to a READY record, writing the error
// response itself when the document is unknown or not yet analyzable.
func (s *Server) readyRecord(w http.ResponseWriter, r *http.Request, id string) (*document.Record, bool) {
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	switch rec.State {
	case document.StateReady:
		return rec, true
	case document.StatePending:
		writeJSON(w, http.StatusConflict, map[string]string{
			"status": string(rec.State),
			"error":  "document is still processing",
		})
	default:
		writeJSON(w, http.StatusConflict, map[string]string{
			"status": string(rec.State),
			"error":  "document processing failed: " + rec.FailureDetail,
		})
	}
	return nil, false
}

func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, ok := s.readyRecord(w, r, req.ID)
	if !ok {
		return
	}
	summary, err := s.analyst.Summarize(r.Context(), rec.ExtractedText)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) keyFindings(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, ok := s.readyRecord(w, r, req.ID)
	if !ok {
		return
	}
	findings, err := s.analyst.KeyFindings(r.Context(), rec.ExtractedText)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"findings": findings})
}

func (s *Server) vulnerabilities(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, ok := s.readyRecord(w, r, req.ID)
	if !ok {
		return
	}
	vulns, err := s.analyst.Vulnerabilities(r.Context(), rec.ExtractedText)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vulnerabilities": vulns})
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, ok := s.readyRecord(w, r, req.ID)
	if !ok {
		return
	}
	graph, err := s.analyst.Graph(r.Context(), rec.ExtractedText)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

type categoriesRequest struct {
	FileList []string `json:"file_list"`
}

// categories classifies a set of documents in one model call. Texts are
// gathered concurrently since each lookup may rehydrate (and re-extract) a
// document that fell out of the cache.
func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	var req categoriesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.FileList) == 0 {
		writeError(w, http.StatusBadRequest, "file_list is required")
		return
	}

	gathered := make([]analysis.DocumentText, len(req.FileList))
	g, ctx := errgroup.WithContext(r.Context())
	for i, id := range req.FileList {
		g.Go(func() error {
			rec, err := s.store.Get(ctx, id)
			if err != nil {
				return err
			}
			if rec.State != document.StateReady {
				return nil
			}
			gathered[i] = analysis.DocumentText{ID: rec.ID, Text: rec.ExtractedText}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeDomainError(w, err)
		return
	}

	docs := gathered[:0]
	for _, d := range gathered {
		if d.ID != "" {
			docs = append(docs, d)
		}
	}
	if len(docs) == 0 {
		writeError(w, http.StatusConflict, "no documents are ready for categorization")
		return
	}

	result, err := s.analyst.Categorize(r.Context(), docs)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": result})
}
