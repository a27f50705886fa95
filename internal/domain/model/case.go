//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxCaseNameLen = 255

// CaseStatus is the lifecycle of a case as reported by the backend.
type CaseStatus string

const (
	CaseStatusDraft      CaseStatus = "draft"
	CaseStatusProcessing CaseStatus = "processing"
	CaseStatusCompleted  CaseStatus = "completed"
	CaseStatusFailed     CaseStatus = "failed"
)

// Valid reports whether the status is one the backend emits.
func (s CaseStatus) Valid() bool {
	switch s {
	case CaseStatusDraft, CaseStatusProcessing, CaseStatusCompleted, CaseStatusFailed:
		return true
	default:
		return false
	}
}

// Case groups the uploaded BRDs and the generated TBRD for one engagement.
type Case struct {
	CaseID    string     `json:"case_id"`
	Name      string     `json:"name"`
	Status    CaseStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateCaseRequest is the input for creating a case.
type CreateCaseRequest struct {
	Name string `json:"name"`
}

// Normalize trims the name.
func (r *CreateCaseRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

// Validate checks the case name.
func (r *CreateCaseRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(r.Name) > maxCaseNameLen {
		return errors.New("name exceeds 255 characters")
	}
	return nil
}

// Document is a BRD uploaded to a case.
type Document struct {
	DocumentID string    `json:"document_id"`
	CaseID     string    `json:"case_id"`
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
	Ingested   bool      `json:"ingested"`
}
