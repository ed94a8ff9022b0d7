package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ExtractFunc converts raw file bytes into extracted text plus descriptive
// metadata. The store calls it on rehydration of READY records; the worker
// pool calls it for PENDING ones.
type ExtractFunc func(ctx context.Context, raw []byte, filename string) (string, Metadata, error)

// Scheduler hands a document id to the background extraction queue.
type Scheduler interface {
	Schedule(id string)
}

// Store maps content hashes to Records and persists them durably: one raw
// blob plus one JSON sidecar per document under the base directory. The
// in-memory map is a cache; sidecars are the source of truth across restarts.
type Store struct {
	baseDir   string
	extract   ExtractFunc
	scheduler Scheduler
	flight    singleflight.Group

	mu      sync.RWMutex
	records map[string]*Record
}

// NewStore creates a store rooted at baseDir, creating the blob and sidecar
// directories if needed.
func NewStore(baseDir string, extract ExtractFunc) (*Store, error) {
	for _, dir := range []string{blobDir(baseDir), metaDir(baseDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return &Store{
		baseDir: baseDir,
		extract: extract,
		records: make(map[string]*Record),
	}, nil
}

// SetScheduler configures the extraction queue. Without one, Ingest leaves
// records PENDING until a caller transitions them (useful in tests).
func (s *Store) SetScheduler(sched Scheduler) {
	s.scheduler = sched
}

func blobDir(base string) string { return filepath.Join(base, "blobs") }
func metaDir(base string) string { return filepath.Join(base, "meta") }

// HashBytes returns the hex content hash used as a document id.
func HashBytes(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Ingest persists raw bytes under their content hash, creates a PENDING
// record, and schedules extraction. Ingesting identical bytes again returns
// the existing id without re-processing. The first caller to take the store
// lock for a given id wins; everyone else observes that record.
func (s *Store) Ingest(ctx context.Context, raw []byte, filename string) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	id := HashBytes(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; ok {
		return id, nil
	}
	// A sidecar from a previous process also counts as an existing document.
	if rec, err := s.loadSidecar(id); err == nil {
		s.records[id] = rec
		return id, nil
	}

	rec := &Record{
		ID:         id,
		Filename:   filename,
		BlobPath:   filepath.Join("blobs", id+filepath.Ext(filename)),
		FileSize:   int64(len(raw)),
		UploadTime: time.Now().UTC(),
		State:      StatePending,
	}
	if err := os.WriteFile(filepath.Join(s.baseDir, rec.BlobPath), raw, 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", id, err)
	}
	if err := s.writeSidecar(rec); err != nil {
		os.Remove(filepath.Join(s.baseDir, rec.BlobPath))
		return "", err
	}
	s.records[id] = rec

	if s.scheduler != nil {
		s.scheduler.Schedule(id)
	}
	return id, nil
}

// Get returns the record for id, rehydrating from the sidecar on a cache
// miss. Rehydrating a READY record re-runs extraction on the stored blob —
// the sidecar deliberately omits the text, so a restart pays one extraction
// per document on first lookup.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if ok {
		return rec, nil
	}

	// Rehydrations of the same id are collapsed: on a restart-time thundering
	// herd only one caller pays the re-extraction.
	v, err, _ := s.flight.Do(id, func() (any, error) {
		s.mu.RLock()
		rec, ok := s.records[id]
		s.mu.RUnlock()
		if ok {
			return rec, nil
		}

		rec, err := s.loadSidecar(id)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}

		if rec.State == StateReady {
			raw, err := os.ReadFile(filepath.Join(s.baseDir, rec.BlobPath))
			if err != nil {
				return nil, fmt.Errorf("rehydrate %s: read blob: %w", id, err)
			}
			text, _, err := s.extract(ctx, raw, rec.Filename)
			if err != nil {
				return nil, fmt.Errorf("rehydrate %s: %w", id, err)
			}
			rec.ExtractedText = text
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if cached, ok := s.records[id]; ok {
			// Raced with a fresh ingest or a worker transition.
			return cached, nil
		}
		s.records[id] = rec
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

// lockedRecord returns the record for id, loading the sidecar into the cache
// on a miss. A miss is normal after a restart: the reconcile sweep requeues
// PENDING sidecars the new process has never looked up. Callers hold s.mu.
func (s *Store) lockedRecord(id string) (*Record, error) {
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	rec, err := s.loadSidecar(id)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	s.records[id] = rec
	return rec, nil
}

// MarkReady transitions a PENDING record to READY, filling in the extracted
// text and metadata. Exactly one transition per record is allowed.
func (s *Store) MarkReady(id, text string, meta Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.lockedRecord(id)
	if err != nil {
		return err
	}
	if rec.State != StatePending {
		return fmt.Errorf("mark ready on %s record %s: %w", rec.State, id, ErrInvalidState)
	}
	// Copy on write: callers hold pointers returned by Get, so a transition
	// installs a fresh snapshot instead of mutating the shared record.
	updated := *rec
	updated.ExtractedText = text
	updated.PageCount = meta.PageCount
	updated.Author = meta.Author
	updated.CreatedAt = meta.CreatedAt
	updated.LastModified = meta.LastModified
	updated.State = StateReady
	if err := s.writeSidecar(&updated); err != nil {
		return err
	}
	s.records[id] = &updated
	return nil
}

// MarkFailed transitions a PENDING record to FAILED. The failure is terminal;
// no retry is scheduled.
func (s *Store) MarkFailed(id, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.lockedRecord(id)
	if err != nil {
		return err
	}
	if rec.State != StatePending {
		return fmt.Errorf("mark failed on %s record %s: %w", rec.State, id, ErrInvalidState)
	}
	updated := *rec
	updated.State = StateFailed
	updated.FailureDetail = detail
	if err := s.writeSidecar(&updated); err != nil {
		return err
	}
	s.records[id] = &updated
	return nil
}

// All returns a restartable sequence over every persisted sidecar. Order is
// unspecified. Unreadable sidecars are skipped with a warning.
func (s *Store) All() iter.Seq[Summary] {
	return func(yield func(Summary) bool) {
		entries, err := os.ReadDir(metaDir(s.baseDir))
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("scan sidecars", "err", err)
			}
			return
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			rec, err := s.loadSidecar(e.Name()[:len(e.Name())-len(".json")])
			if err != nil {
				slog.Warn("skip unreadable sidecar", "name", e.Name(), "err", err)
				continue
			}
			if !yield(rec.summary()) {
				return
			}
		}
	}
}

// ReadBlob returns the raw bytes and current record for id. Used by the
// extraction worker.
func (s *Store) ReadBlob(id string) ([]byte, *Record, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		var err error
		if rec, err = s.loadSidecar(id); err != nil {
			return nil, nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}
	}
	raw, err := os.ReadFile(filepath.Join(s.baseDir, rec.BlobPath))
	if err != nil {
		return nil, nil, fmt.Errorf("read blob %s: %w", id, err)
	}
	return raw, rec, nil
}

func (s *Store) sidecarPath(id string) string {
	return filepath.Join(metaDir(s.baseDir), id+".json")
}

func (s *Store) writeSidecar(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar %s: %w", rec.ID, err)
	}
	if err := os.WriteFile(s.sidecarPath(rec.ID), data, 0o644); err != nil {
		return fmt.Errorf("write sidecar %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) loadSidecar(id string) (*Record, error) {
	data, err := os.ReadFile(s.sidecarPath(id))
	if err != nil {
		return nil, err
	}
	rec := &Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode sidecar %s: %w", id, err)
	}
	return rec, nil
}
