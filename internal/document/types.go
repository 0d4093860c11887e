// Package document implements the ingestion lifecycle for client
// requirement documents: submission, the clarification gate, scope
// generation dispatch, and the in-memory record store backing it all.
package document

import (
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/scopegen/internal/scope"
)

// SourceType identifies where a submitted document came from.
type SourceType string

const (
	SourceUploadedFile SourceType = "uploaded_file"
	SourcePastedText   SourceType = "pasted_text"
	SourceURL          SourceType = "url"
	SourceEmail        SourceType = "email"
	SourceClientBrief  SourceType = "client_brief"
	SourceMeetingNotes SourceType = "meeting_notes"
	SourceRFP          SourceType = "rfp"
	SourceProposal     SourceType = "proposal"
)

// ValidSourceType reports whether s is a known source type.
func ValidSourceType(s SourceType) bool {
	switch s {
	case SourceUploadedFile, SourcePastedText, SourceURL, SourceEmail,
		SourceClientBrief, SourceMeetingNotes, SourceRFP, SourceProposal:
		return true
	}
	return false
}

// Status is the lifecycle state of a document.
type Status string

const (
	StatusSubmitted             Status = "submitted"
	StatusProcessing            Status = "processing"
	StatusAwaitingClarification Status = "awaiting_clarification"
	StatusReadyForPreprocessing Status = "ready_for_preprocessing"
	StatusFailed                Status = "failed"
	StatusCancelled             Status = "cancelled"
)

// Stage is the coarse pipeline phase a document is in.
type Stage string

const (
	StageIngestion     Stage = "ingestion"
	StageClarification Stage = "clarification"
	StagePreprocessing Stage = "preprocessing"
)

// ClarificationStatus tracks a clarification item's resolution.
// Only an open item may transition to answered or expired; once
// resolved an item is immutable.
type ClarificationStatus string

const (
	ClarificationOpen     ClarificationStatus = "open"
	ClarificationAnswered ClarificationStatus = "answered"
	ClarificationExpired  ClarificationStatus = "expired"
)

// ClarificationCategory classifies what a clarification asks about.
type ClarificationCategory string

const (
	CategoryPersonaCoverage ClarificationCategory = "persona_coverage"
	CategoryFeatureGaps     ClarificationCategory = "feature_gaps"
	CategoryKPIDetails      ClarificationCategory = "kpi_details"
	CategoryContext         ClarificationCategory = "context"
	CategoryOther           ClarificationCategory = "other"
)

// Clarification is a pending question blocking progress to scope
// generation until answered or expired.
type Clarification struct {
	ID         uuid.UUID             `json:"clarification_id"`
	Question   string                `json:"question"`
	Category   ClarificationCategory `json:"category"`
	Status     ClarificationStatus   `json:"status"`
	CreatedAt  time.Time             `json:"created_at"`
	ExpiresAt  time.Time             `json:"expires_at"`
	Answer     string                `json:"answer,omitempty"`
	AnsweredAt *time.Time            `json:"answered_at,omitempty"`
}

// NewClarification creates an open clarification that expires after
// the given timeout.
func NewClarification(question string, category ClarificationCategory, timeout time.Duration) *Clarification {
	now := time.Now().UTC()
	return &Clarification{
		ID:        uuid.New(),
		Question:  question,
		Category:  category,
		Status:    ClarificationOpen,
		CreatedAt: now,
		ExpiresAt: now.Add(timeout),
	}
}

// Metadata carries free-form client and project tags supplied at
// submission time.
type Metadata struct {
	ClientName   string `json:"client_name,omitempty"`
	ProjectName  string `json:"project_name,omitempty"`
	Notes        string `json:"notes,omitempty"`
	EngagementID string `json:"engagement_id,omitempty"`
}

// Record is the stored state of one submitted document. Records are
// mutated only through the Service's transition methods.
type Record struct {
	DocID            uuid.UUID        `json:"doc_id"`
	SourceType       SourceType       `json:"source_type"`
	Status           Status           `json:"status"`
	Stage            Stage            `json:"stage"`
	Progress         int              `json:"progress"`
	Metadata         *Metadata        `json:"metadata,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Clarifications   []*Clarification `json:"clarifications"`
	OriginalFilename string           `json:"original_filename,omitempty"`
	ContentLength    int              `json:"content_length"`
	Content          string           `json:"content"`
	Scope            *scope.Document  `json:"scope,omitempty"`
	ScopeVersion     int              `json:"scope_version"`
	ScopeGeneratedAt *time.Time       `json:"scope_generated_at,omitempty"`
	ScopeHistory     []scope.Document `json:"scope_history"`
}

// Touch updates the record's last-modified timestamp.
func (r *Record) Touch() {
	r.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy of the clarification.
func (c *Clarification) Clone() *Clarification {
	cp := *c
	if c.AnsweredAt != nil {
		t := *c.AnsweredAt
		cp.AnsweredAt = &t
	}
	return &cp
}

// Clone returns a deep copy of the record. The store hands out clones
// only, so callers never share memory with stored records.
func (r *Record) Clone() *Record {
	cp := *r
	if r.Metadata != nil {
		m := *r.Metadata
		cp.Metadata = &m
	}
	if r.Clarifications != nil {
		cp.Clarifications = make([]*Clarification, len(r.Clarifications))
		for i, c := range r.Clarifications {
			cp.Clarifications[i] = c.Clone()
		}
	}
	if r.Scope != nil {
		sc := r.Scope.Clone()
		cp.Scope = &sc
	}
	if r.ScopeGeneratedAt != nil {
		t := *r.ScopeGeneratedAt
		cp.ScopeGeneratedAt = &t
	}
	if r.ScopeHistory != nil {
		cp.ScopeHistory = make([]scope.Document, len(r.ScopeHistory))
		for i := range r.ScopeHistory {
			cp.ScopeHistory[i] = r.ScopeHistory[i].Clone()
		}
	}
	return &cp
}

// StatusInfo is the read-model returned by Service.Status.
type StatusInfo struct {
	DocID                 uuid.UUID `json:"doc_id"`
	Status                Status    `json:"status"`
	Stage                 Stage     `json:"stage"`
	Progress              int       `json:"progress"`
	ClarificationRequired bool      `json:"clarification_required"`
	ScopeAvailable        bool      `json:"scope_available"`
	LastUpdated           time.Time `json:"last_updated"`
}

// ModuleListItem pairs a module name with the features assigned to it.
type ModuleListItem struct {
	Name     string   `json:"name"`
	Features []string `json:"features"`
}

// SubmitResult is returned from document submission.
type SubmitResult struct {
	DocID   uuid.UUID `json:"doc_id"`
	Status  Status    `json:"status"`
	Message string    `json:"message"`
}
