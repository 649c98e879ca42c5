package tools

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-engine/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-engine/pkg/models"
	"github.com/ekaya-inc/ekaya-engine/pkg/services"
)

func newAssignmentToolServer(svc *mockAssignmentService) *server.MCPServer {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterAssignmentTools(s, &AssignmentToolDeps{
		AssignmentService: svc,
		Logger:            zap.NewNop(),
	})
	return s
}

func sampleOutcome() *services.SelectionOutcome {
	confidence := 0.92
	assignedAt := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	return &services.SelectionOutcome{
		Assignment: &models.Assignment{
			ID:              101,
			TicketID:        "TICK-555",
			OntologyID:      42,
			MatchConfidence: &confidence,
			MatchMethod:     models.MatchMethodLLM,
			AssignedAt:      assignedAt,
		},
		Selected: &models.OntologyCandidate{
			ID:      42,
			Name:    "network_ontology",
			Version: "1.0.0",
		},
		Classification: &models.ClassificationResult{
			OntologyID:       42,
			Confidence:       0.92,
			Reasoning:        "Ticket mentions BGP routing on core switches",
			Category:         "network",
			KeywordsFound:    []string{"bgp", "routing"},
			LLMModel:         "gpt-4o",
			ProcessingTimeMs: 850,
		},
	}
}

func TestRegisterAssignmentTools(t *testing.T) {
	s := newAssignmentToolServer(&mockAssignmentService{})
	names := listToolNames(t, s)

	assert.True(t, names["select_ontology_for_ticket"])
	assert.True(t, names["override_ticket_ontology"])
	assert.True(t, names["get_ticket_ontology_history"])
}

func TestSelectOntologyForTicketTool(t *testing.T) {
	t.Run("success carries full provenance", func(t *testing.T) {
		svc := &mockAssignmentService{outcome: sampleOutcome()}
		s := newAssignmentToolServer(svc)

		envelope, isError := callTool(t, s, "select_ontology_for_ticket", map[string]any{
			"ticket_id":          "TICK-555",
			"ticket_title":       "BGP flapping on core switch",
			"ticket_description": "Intermittent route withdrawals since last night",
		})

		assert.False(t, isError)
		assert.Equal(t, true, envelope["success"])
		assert.Equal(t, "TICK-555", envelope["ticket_id"])
		assert.Equal(t, float64(101), envelope["assignment_id"])
		assert.Equal(t, float64(42), envelope["ontology_id"])
		assert.Equal(t, "network_ontology", envelope["ontology_name"])
		assert.Equal(t, 0.92, envelope["match_confidence"])
		assert.Equal(t, models.MatchMethodLLM, envelope["match_method"])
		assert.Equal(t, "gpt-4o", envelope["llm_model"])
		assert.NotEmpty(t, envelope["reasoning"])

		assert.Nil(t, svc.lastProjectID)
	})

	t.Run("project id forwarded when supplied", func(t *testing.T) {
		svc := &mockAssignmentService{outcome: sampleOutcome()}
		s := newAssignmentToolServer(svc)

		_, isError := callTool(t, s, "select_ontology_for_ticket", map[string]any{
			"ticket_id":    "TICK-555",
			"ticket_title": "BGP flapping",
			"project_id":   7,
		})

		assert.False(t, isError)
		require.NotNil(t, svc.lastProjectID)
		assert.Equal(t, int64(7), *svc.lastProjectID)
	})

	t.Run("empty catalog", func(t *testing.T) {
		svc := &mockAssignmentService{err: apperrors.ErrNoCandidates}
		s := newAssignmentToolServer(svc)

		envelope, isError := callTool(t, s, "select_ontology_for_ticket", map[string]any{
			"ticket_id":    "TICK-1",
			"ticket_title": "anything",
		})

		assert.True(t, isError)
		assert.Equal(t, codeNoCandidates, envelope["error"])
	})

	t.Run("classifier contract violation", func(t *testing.T) {
		svc := &mockAssignmentService{
			err: fmt.Errorf("%w: ontology_id 999 is not among the candidates", apperrors.ErrClassificationParse),
		}
		s := newAssignmentToolServer(svc)

		envelope, isError := callTool(t, s, "select_ontology_for_ticket", map[string]any{
			"ticket_id":    "TICK-1",
			"ticket_title": "anything",
		})

		assert.True(t, isError)
		assert.Equal(t, codeClassificationParse, envelope["error"])
	})

	t.Run("missing ticket_title", func(t *testing.T) {
		s := newAssignmentToolServer(&mockAssignmentService{})

		envelope, isError := callTool(t, s, "select_ontology_for_ticket", map[string]any{
			"ticket_id": "TICK-1",
		})

		assert.True(t, isError)
		assert.Equal(t, codeInvalidParameters, envelope["error"])
	})
}

func TestOverrideTicketOntologyTool(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		assignedAt := time.Date(2026, 8, 3, 11, 0, 0, 0, time.UTC)
		svc := &mockAssignmentService{
			override: &models.Assignment{
				ID:             102,
				TicketID:       "TICK-555",
				OntologyID:     43,
				MatchMethod:    models.MatchMethodOverride,
				IsOverride:     true,
				OverrideReason: "Misclassified, this is a database issue",
				OverrideBy:     "bob",
				AssignedAt:     assignedAt,
			},
			target: &models.OntologySummary{
				ID:      43,
				Name:    "database_ontology",
				Version: "1.2.0",
			},
		}
		s := newAssignmentToolServer(svc)

		envelope, isError := callTool(t, s, "override_ticket_ontology", map[string]any{
			"ticket_id":       "TICK-555",
			"ontology_id":     43,
			"override_reason": "Misclassified, this is a database issue",
			"override_by":     "bob",
		})

		assert.False(t, isError)
		assert.Equal(t, float64(102), envelope["assignment_id"])
		assert.Equal(t, "database_ontology", envelope["ontology_name"])
		assert.Equal(t, models.MatchMethodOverride, envelope["match_method"])
		assert.Equal(t, true, envelope["is_override"])
		assert.Equal(t, "bob", envelope["override_by"])
	})

	t.Run("target ontology missing or deleted", func(t *testing.T) {
		svc := &mockAssignmentService{err: apperrors.ErrNotFound}
		s := newAssignmentToolServer(svc)

		envelope, isError := callTool(t, s, "override_ticket_ontology", map[string]any{
			"ticket_id":   "TICK-555",
			"ontology_id": 999,
		})

		assert.True(t, isError)
		assert.Equal(t, codeNotFound, envelope["error"])
		assert.Contains(t, envelope["message"], "999")
	})

	t.Run("storage failure is scrubbed", func(t *testing.T) {
		svc := &mockAssignmentService{err: errors.New("pq: deadlock detected")}
		s := newAssignmentToolServer(svc)

		envelope, isError := callTool(t, s, "override_ticket_ontology", map[string]any{
			"ticket_id":   "TICK-555",
			"ontology_id": 43,
		})

		assert.True(t, isError)
		assert.Equal(t, codeStorageFailure, envelope["error"])
	})
}

func TestGetTicketOntologyHistoryTool(t *testing.T) {
	name := "network_ontology"
	version := "1.0.0"

	t.Run("history ordered with current assignment first", func(t *testing.T) {
		svc := &mockAssignmentService{
			history: []*models.AssignmentHistoryEntry{
				{
					AssignmentID: 102,
					TicketID:     "TICK-555",
					OntologyID:   43,
					MatchMethod:  models.MatchMethodOverride,
					IsOverride:   true,
					AssignedAt:   time.Date(2026, 8, 3, 11, 0, 0, 0, time.UTC),
				},
				{
					AssignmentID:    101,
					TicketID:        "TICK-555",
					OntologyID:      42,
					OntologyName:    &name,
					OntologyVersion: &version,
					MatchMethod:     models.MatchMethodLLM,
					AssignedAt:      time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC),
				},
			},
		}
		s := newAssignmentToolServer(svc)

		envelope, isError := callTool(t, s, "get_ticket_ontology_history", map[string]any{
			"ticket_id": "TICK-555",
		})

		assert.False(t, isError)
		assert.Equal(t, float64(2), envelope["count"])
		assert.Equal(t, 10, svc.lastLimit)

		current, ok := envelope["current_assignment"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(102), current["assignment_id"])
		assert.Equal(t, true, current["is_override"])
	})

	t.Run("no assignments yet", func(t *testing.T) {
		svc := &mockAssignmentService{history: []*models.AssignmentHistoryEntry{}}
		s := newAssignmentToolServer(svc)

		envelope, isError := callTool(t, s, "get_ticket_ontology_history", map[string]any{
			"ticket_id": "TICK-999",
		})

		assert.False(t, isError)
		assert.Equal(t, float64(0), envelope["count"])
		assert.NotContains(t, envelope, "current_assignment")
	})

	t.Run("custom limit forwarded", func(t *testing.T) {
		svc := &mockAssignmentService{}
		s := newAssignmentToolServer(svc)

		_, isError := callTool(t, s, "get_ticket_ontology_history", map[string]any{
			"ticket_id": "TICK-555",
			"limit":     3,
		})

		assert.False(t, isError)
		assert.Equal(t, 3, svc.lastLimit)
	})
}
