package tools

import (
	"context"

	"github.com/ekaya-inc/ekaya-engine/pkg/models"
	"github.com/ekaya-inc/ekaya-engine/pkg/services"
)

// mockOntologyService implements services.OntologyService for testing.
type mockOntologyService struct {
	ontology   *models.Ontology
	summaries  []*models.OntologySummary
	total      int
	names      []string
	validation *models.ValidationResult
	err        error

	lastStoreReq     *models.StoreOntologyRequest
	lastUpdateFields *models.UpdateOntologyFields
	lastListFilter   *models.ListOntologiesFilter
	lastGetByName    [2]string
}

var _ services.OntologyService = (*mockOntologyService)(nil)

func (m *mockOntologyService) Store(ctx context.Context, req *models.StoreOntologyRequest) (*models.Ontology, error) {
	m.lastStoreReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.ontology, nil
}

func (m *mockOntologyService) GetByID(ctx context.Context, id int64) (*models.Ontology, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ontology, nil
}

func (m *mockOntologyService) GetByName(ctx context.Context, name, version string) (*models.Ontology, error) {
	m.lastGetByName = [2]string{name, version}
	if m.err != nil {
		return nil, m.err
	}
	return m.ontology, nil
}

func (m *mockOntologyService) List(ctx context.Context, filter *models.ListOntologiesFilter) ([]*models.OntologySummary, int, error) {
	m.lastListFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.summaries, m.total, nil
}

func (m *mockOntologyService) Update(ctx context.Context, id int64, fields *models.UpdateOntologyFields) (*models.Ontology, error) {
	m.lastUpdateFields = fields
	if m.err != nil {
		return nil, m.err
	}
	return m.ontology, nil
}

func (m *mockOntologyService) Delete(ctx context.Context, id int64) (*models.Ontology, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ontology, nil
}

func (m *mockOntologyService) ListAvailableNames(ctx context.Context, isActive bool) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.names, nil
}

func (m *mockOntologyService) Validate(doc map[string]any) *models.ValidationResult {
	return m.validation
}

// mockAssignmentService implements services.AssignmentService for testing.
type mockAssignmentService struct {
	outcome  *services.SelectionOutcome
	override *models.Assignment
	target   *models.OntologySummary
	history  []*models.AssignmentHistoryEntry
	err      error

	lastTicketID  string
	lastProjectID *int64
	lastLimit     int
}

var _ services.AssignmentService = (*mockAssignmentService)(nil)

func (m *mockAssignmentService) SelectForTicket(ctx context.Context, ticketID, ticketTitle, ticketDescription string, projectID *int64) (*services.SelectionOutcome, error) {
	m.lastTicketID = ticketID
	m.lastProjectID = projectID
	if m.err != nil {
		return nil, m.err
	}
	return m.outcome, nil
}

func (m *mockAssignmentService) Override(ctx context.Context, ticketID string, ontologyID int64, overrideReason, overrideBy string, projectID *int64) (*models.Assignment, *models.OntologySummary, error) {
	m.lastTicketID = ticketID
	m.lastProjectID = projectID
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.override, m.target, nil
}

func (m *mockAssignmentService) History(ctx context.Context, ticketID string, limit int) ([]*models.AssignmentHistoryEntry, error) {
	m.lastTicketID = ticketID
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.history, nil
}
