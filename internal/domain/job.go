package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a translation job.
type JobStatus string

const (
	StatusPending   JobStatus = "PENDING"
	StatusCompleted JobStatus = "COMPLETED"
	StatusFailed    JobStatus = "FAILED"
)

// IsTerminal returns true if the status represents a final state.
// A job transitions out of PENDING exactly once and never reverts.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Field is one independent translation unit. Metadata is opaque caller
// data echoed back verbatim per field, never interpreted or translated.
type Field struct {
	Text     string          `json:"texttotranslate"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// TranslateRequest is the submission payload for POST /translate.
// Field names follow the public wire contract.
type TranslateRequest struct {
	TargetLanguages []string `json:"targetLanguages"`
	Language        string   `json:"language"`
	Fields          []Field  `json:"fields"`
	RequestedBy     string   `json:"UserRequestedTranslation"`
	ItemID          string   `json:"itemId"`
	ItemPath        string   `json:"itemPath"`
}

// Validate checks the submission shape and normalizes targetLanguages to an
// ordered set (duplicates removed, first occurrence wins).
func (r *TranslateRequest) Validate() error {
	if len(r.TargetLanguages) == 0 {
		return ErrNoTargetLanguages
	}
	if r.Language == "" {
		return ErrMissingSourceLanguage
	}
	if len(r.Fields) == 0 {
		return ErrNoFields
	}
	for _, f := range r.Fields {
		if f.Text == "" {
			return ErrEmptyFieldText
		}
	}

	seen := make(map[string]struct{}, len(r.TargetLanguages))
	distinct := r.TargetLanguages[:0]
	for _, lang := range r.TargetLanguages {
		if lang == "" {
			return ErrNoTargetLanguages
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		distinct = append(distinct, lang)
	}
	r.TargetLanguages = distinct
	return nil
}

// FieldResult holds the aggregated translations for one field, keyed by
// target language. Languages whose backend calls failed are absent.
type FieldResult struct {
	Metadata     json.RawMessage   `json:"metadata,omitempty"`
	Translations map[string]string `json:"translations"`
}

// TranslationJob is the durable record of one translation request, keyed by
// JobID. Results is parallel to Fields (Results[i] corresponds to Fields[i])
// and is present only when Status is COMPLETED. Error is present only when
// Status is FAILED.
type TranslationJob struct {
	JobID           uuid.UUID     `json:"jobId"`
	SourceLanguage  string        `json:"sourceLanguage"`
	TargetLanguages []string      `json:"targetLanguages"`
	Fields          []Field       `json:"fields"`
	RequestedBy     string        `json:"requestedBy,omitempty"`
	ItemID          string        `json:"itemId,omitempty"`
	ItemPath        string        `json:"itemPath,omitempty"`
	Status          JobStatus     `json:"status"`
	Results         []FieldResult `json:"results,omitempty"`
	Error           string        `json:"error,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty"`
}

// TerminalResult is the single terminal write performed by the worker.
// It fully overwrites the terminal fields of the record, which makes
// re-processing the same queue message safe under at-least-once delivery.
type TerminalResult struct {
	Status      JobStatus
	Results     []FieldResult
	Error       string
	CompletedAt time.Time
}

// QueueMessage is the JSON payload carried on the job queue. Consumers must
// tolerate unknown extra fields and dead-letter messages missing JobID or
// Request.
type QueueMessage struct {
	JobID   string            `json:"jobId"`
	Request *TranslateRequest `json:"request"`
}

// JobMessage wraps a decoded queue delivery with its acknowledgement
// callbacks so the worker pool can settle the message after processing.
type JobMessage struct {
	JobID   uuid.UUID
	Request *TranslateRequest
	Ack     func() error
	Nack    func(requeue bool) error
}

// SubmitResponse is returned after a successful submission.
type SubmitResponse struct {
	Message string    `json:"message"`
	JobID   uuid.UUID `json:"jobId"`
	Status  JobStatus `json:"status"`
}
