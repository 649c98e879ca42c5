package models

import "time"

// Ontology is a catalog entry in the ontology_store table. The document
// holds the entities/relationships structure consumed by graph retrieval;
// it is stored as JSON text and parsed on every read path.
type Ontology struct {
	ID          int64          `json:"ontology_id"`
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Document    map[string]any `json:"ontology_json"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags"`
	Priority    int            `json:"priority"`
	IsActive    bool           `json:"is_active"`
	CreatedBy   string         `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}

// OntologySummary is the document-free projection returned by listings.
type OntologySummary struct {
	ID          int64     `json:"ontology_id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Priority    int       `json:"priority"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OntologyCandidate is the minimal projection handed to the classifier.
// The full document is never exposed to the LLM, only descriptive metadata.
type OntologyCandidate struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Priority    int      `json:"priority"`
}

// StoreOntologyRequest carries the parameters for a catalog store/upsert.
type StoreOntologyRequest struct {
	Name        string
	Document    map[string]any
	Category    string
	Description string
	Tags        []string
	Priority    int
	Version     string
	CreatedBy   string
}

// UpdateOntologyFields is a partial-update request. A nil field means
// "not sent"; a non-nil pointer to the zero value means "set to the zero
// value". The two must never be collapsed.
type UpdateOntologyFields struct {
	Document    *map[string]any
	Category    *string
	Description *string
	Tags        *[]string
	Priority    *int
	IsActive    *bool
}

// IsEmpty reports whether no field was supplied at all.
func (u *UpdateOntologyFields) IsEmpty() bool {
	return u.Document == nil && u.Category == nil && u.Description == nil &&
		u.Tags == nil && u.Priority == nil && u.IsActive == nil
}

// ListOntologiesFilter selects which catalog rows a listing returns.
type ListOntologiesFilter struct {
	Category       *string
	IsActive       *bool
	IncludeDeleted bool
	Limit          int
	Offset         int
}
