package models

import "time"

// Match methods recorded on assignment rows
const (
	MatchMethodLLM      = "llm_classification"
	MatchMethodOverride = "manual_override"
)

// Assignment is one append-only row in ticket_ontology_assignments.
// Rows are never updated or deleted; the current assignment for a ticket
// is always derived as the row with the greatest AssignedAt.
type Assignment struct {
	ID         int64  `json:"assignment_id"`
	TicketID   string `json:"ticket_id"`
	OntologyID int64  `json:"ontology_id"`
	ProjectID  *int64 `json:"project_id,omitempty"`

	// Classification provenance, populated for automatic assignments.
	MatchConfidence  *float64 `json:"match_confidence,omitempty"`
	MatchMethod      string   `json:"match_method"`
	LLMReasoning     string   `json:"llm_reasoning,omitempty"`
	LLMCategory      string   `json:"llm_category,omitempty"`
	LLMKeywordsFound []string `json:"llm_keywords_found,omitempty"`
	LLMModel         string   `json:"llm_model,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms,omitempty"`

	// Ticket text snapshot so later review does not depend on the
	// ticket system still holding the original text.
	TicketTitle       string `json:"ticket_title,omitempty"`
	TicketDescription string `json:"ticket_description,omitempty"`

	// Override provenance, populated for manual assignments.
	IsOverride     bool   `json:"is_override"`
	OverrideReason string `json:"override_reason,omitempty"`
	OverrideBy     string `json:"override_by,omitempty"`

	AssignedAt time.Time `json:"assigned_at"`
}

// AssignmentHistoryEntry is an assignment row enriched with the referenced
// ontology's current name/version/category via LEFT JOIN. The ontology
// fields are nil when the ontology row was since hard-removed.
type AssignmentHistoryEntry struct {
	AssignmentID    int64     `json:"assignment_id"`
	TicketID        string    `json:"ticket_id"`
	OntologyID      int64     `json:"ontology_id"`
	OntologyName    *string   `json:"ontology_name"`
	OntologyVersion *string   `json:"ontology_version"`
	Category        *string   `json:"category"`
	MatchConfidence *float64  `json:"match_confidence,omitempty"`
	MatchMethod     string    `json:"match_method"`
	LLMReasoning    string    `json:"llm_reasoning,omitempty"`
	LLMCategory     string    `json:"llm_category,omitempty"`
	IsOverride      bool      `json:"is_override"`
	OverrideReason  string    `json:"override_reason,omitempty"`
	OverrideBy      string    `json:"override_by,omitempty"`
	AssignedAt      time.Time `json:"assigned_at"`
}

// ClassificationResult is the parsed, contract-checked outcome of one
// classifier call.
type ClassificationResult struct {
	OntologyID       int64    `json:"ontology_id"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	Category         string   `json:"category"`
	KeywordsFound    []string `json:"keywords_found"`
	LLMModel         string   `json:"llm_model"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}
