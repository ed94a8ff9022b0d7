package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cyberstrike/backend/internal/db"
)

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or malformed multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read file")
		return
	}

	id, err := s.store.Ingest(r.Context(), raw, header.Filename)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.indexDocument(r.Context(), id)

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       id,
		"filename": header.Filename,
		"status":   "processing",
	})
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	type fileEntry struct {
		FileID   string `json:"file_id"`
		FileName string `json:"file_name"`
		Status   string `json:"status"`
	}

	files := []fileEntry{}
	for sum := range s.store.All() {
		files = append(files, fileEntry{
			FileID:   sum.ID,
			FileName: sum.Filename,
			Status:   string(sum.State),
		})
	}

	// A wiped data directory can still be listed from the durable index;
	// lookups against those ids will 404 until the blobs are restored.
	if len(files) == 0 && s.database != nil {
		rows, err := s.database.ListDocuments(r.Context())
		if err != nil {
			slog.Warn("list documents from index", "err", err)
		}
		for _, row := range rows {
			files = append(files, fileEntry{FileID: row.ID, FileName: row.Filename, Status: row.State})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// indexDocument mirrors a record into the durable index. Failures are logged,
// never surfaced: the sidecar store remains the source of truth.
func (s *Server) indexDocument(ctx context.Context, id string) {
	if s.database == nil {
		return
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		slog.Warn("index document: lookup", "id", id, "err", err)
		return
	}
	row := db.DocumentRow{
		ID:         rec.ID,
		Filename:   rec.Filename,
		State:      string(rec.State),
		Size:       rec.FileSize,
		UploadTime: rec.UploadTime,
	}
	dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.database.UpsertDocument(dbCtx, row); err != nil {
		slog.Warn("index document", "id", id, "err", err)
	}
}
