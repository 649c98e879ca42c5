// Package prompts builds the text prompts sent to the classification model.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-engine/pkg/models"
)

// OntologySelectionSystemPrompt instructs the model to pick exactly one
// ontology and answer with a single JSON object.
const OntologySelectionSystemPrompt = `You are an expert at matching IT tickets to appropriate data ontologies.
Analyze the ticket and select the most appropriate ontology based on the ticket's domain, category, and technical requirements.

Consider:
1. Technical domain (infrastructure, application, database, network, etc.)
2. Ticket type (incident, query, request, etc.)
3. Keywords and technical terms
4. Business context

Respond ONLY with valid JSON matching this structure:
{
    "ontology_id": <selected_ontology_id>,
    "confidence": <0.0-1.0>,
    "reasoning": "<brief explanation>",
    "category": "<identified_category>",
    "keywords_found": ["<keyword1>", "<keyword2>"]
}`

// candidateOption is the projection of a candidate shown to the model.
type candidateOption struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// BuildOntologySelectionPrompt creates the user prompt for selecting an
// ontology for a ticket. Candidates keep their given order (priority
// descending), so the preferred option is listed first.
func BuildOntologySelectionPrompt(ticketTitle, ticketDescription string, candidates []*models.OntologyCandidate) (string, error) {
	options := make([]candidateOption, 0, len(candidates))
	for _, c := range candidates {
		options = append(options, candidateOption{
			ID:          c.ID,
			Name:        c.Name,
			Category:    c.Category,
			Description: c.Description,
			Tags:        c.Tags,
		})
	}

	optionsJSON, err := json.MarshalIndent(options, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize candidate options: %w", err)
	}

	var prompt strings.Builder
	prompt.WriteString("Ticket Information:\n")
	prompt.WriteString(fmt.Sprintf("Title: %s\n", ticketTitle))
	prompt.WriteString(fmt.Sprintf("Description: %s\n\n", ticketDescription))
	prompt.WriteString("Available Ontologies:\n")
	prompt.Write(optionsJSON)
	prompt.WriteString("\n\nSelect the most appropriate ontology for this ticket.")

	return prompt.String(), nil
}
