// Package document owns the content-addressed document store: ingestion of
// uploaded files, durable sidecar metadata, background text extraction, and
// lookup with lazy rehydration after a restart.
package document

import (
	"errors"
	"time"
)

// State tracks asynchronous extraction progress for a record.
type State string

const (
	StatePending State = "PENDING"
	StateReady   State = "READY"
	StateFailed  State = "FAILED"
)

var (
	// ErrInvalidInput reports an empty or undecodable upload payload.
	ErrInvalidInput = errors.New("invalid upload payload")
	// ErrNotFound reports an unknown document id.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidState reports an illegal state transition. It indicates an
	// ordering bug (double processing) and is never retried.
	ErrInvalidState = errors.New("invalid state transition")
)

// Record is the unit of stored state per uploaded file. The JSON encoding is
// the sidecar format: extracted text is deliberately excluded and recomputed
// from the raw blob on rehydration to bound sidecar growth.
type Record struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	BlobPath      string    `json:"blob_path"`
	ExtractedText string    `json:"-"`
	PageCount     int       `json:"page_count"`
	FileSize      int64     `json:"size"`
	Author        string    `json:"author"`
	CreatedAt     string    `json:"created_at"`
	LastModified  string    `json:"last_modified"`
	UploadTime    time.Time `json:"upload_time"`
	State         State     `json:"processing_state"`
	FailureDetail string    `json:"failure_detail,omitempty"`
}

// Metadata carries the descriptive fields an extraction produces alongside
// the text itself.
type Metadata struct {
	PageCount    int
	Author       string
	CreatedAt    string
	LastModified string
}

// Summary is the sidecar-only view of a record used for listings.
type Summary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	State      State     `json:"processing_state"`
	FileSize   int64     `json:"size"`
	UploadTime time.Time `json:"upload_time"`
}

func (r *Record) summary() Summary {
	return Summary{
		ID:         r.ID,
		Filename:   r.Filename,
		State:      r.State,
		FileSize:   r.FileSize,
		UploadTime: r.UploadTime,
	}
}
