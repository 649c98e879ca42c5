package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-engine/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-engine/pkg/models"
	"github.com/ekaya-inc/ekaya-engine/pkg/repositories"
)

// SelectionOutcome is the combined result of a classify-then-record run.
type SelectionOutcome struct {
	Assignment     *models.Assignment
	Selected       *models.OntologyCandidate
	Classification *models.ClassificationResult
}

// AssignmentService runs the classification pipeline and the manual
// override path; both write through the append-only ledger.
type AssignmentService interface {
	// SelectForTicket classifies the ticket against the active ontology
	// pool and records the decision. Fails with apperrors.ErrNoCandidates
	// before any classifier call when the pool is empty; a classifier
	// failure leaves no ledger row.
	SelectForTicket(ctx context.Context, ticketID, ticketTitle, ticketDescription string, projectID *int64) (*SelectionOutcome, error)

	// Override records a manual assignment superseding any automatic one.
	// The target ontology must exist and not be soft-deleted.
	Override(ctx context.Context, ticketID string, ontologyID int64, overrideReason, overrideBy string, projectID *int64) (*models.Assignment, *models.OntologySummary, error)

	// History returns the ticket's assignment rows, most recent first. The
	// first row is the ticket's current assignment.
	History(ctx context.Context, ticketID string, limit int) ([]*models.AssignmentHistoryEntry, error)
}

type assignmentService struct {
	ontologyRepo   repositories.OntologyRepository
	assignmentRepo repositories.AssignmentRepository
	classifier     ClassifierService
	logger         *zap.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	ontologyRepo repositories.OntologyRepository,
	assignmentRepo repositories.AssignmentRepository,
	classifier ClassifierService,
	logger *zap.Logger,
) AssignmentService {
	return &assignmentService{
		ontologyRepo:   ontologyRepo,
		assignmentRepo: assignmentRepo,
		classifier:     classifier,
		logger:         logger.Named("assignment-service"),
	}
}

var _ AssignmentService = (*assignmentService)(nil)

func (s *assignmentService) SelectForTicket(
	ctx context.Context,
	ticketID, ticketTitle, ticketDescription string,
	projectID *int64,
) (*SelectionOutcome, error) {
	s.logger.Info("Selecting ontology for ticket", zap.String("ticket_id", ticketID))

	candidates, err := s.ontologyRepo.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		s.logger.Warn("No active ontologies found", zap.String("ticket_id", ticketID))
		return nil, apperrors.ErrNoCandidates
	}

	s.logger.Debug("Candidate pool assembled",
		zap.String("ticket_id", ticketID),
		zap.Int("candidates", len(candidates)))

	// The classifier call is the single blocking step of the pipeline; the
	// ledger insert happens only after it succeeds, so a failure or timeout
	// here leaves no partial assignment row.
	result, err := s.classifier.SelectOntology(ctx, ticketTitle, ticketDescription, candidates)
	if err != nil {
		return nil, err
	}

	assignment, err := s.assignmentRepo.RecordClassification(
		ctx, ticketID, projectID, result, ticketTitle, ticketDescription)
	if err != nil {
		return nil, err
	}

	var selected *models.OntologyCandidate
	for _, c := range candidates {
		if c.ID == result.OntologyID {
			selected = c
			break
		}
	}
	if selected == nil {
		// The classifier contract already guarantees membership.
		return nil, fmt.Errorf("selected ontology %d missing from candidate pool", result.OntologyID)
	}

	s.logger.Info("Ontology selected and assigned",
		zap.String("ticket_id", ticketID),
		zap.Int64("ontology_id", selected.ID),
		zap.String("ontology_name", selected.Name),
		zap.Float64("confidence", result.Confidence))

	return &SelectionOutcome{
		Assignment:     assignment,
		Selected:       selected,
		Classification: result,
	}, nil
}

func (s *assignmentService) Override(
	ctx context.Context,
	ticketID string,
	ontologyID int64,
	overrideReason, overrideBy string,
	projectID *int64,
) (*models.Assignment, *models.OntologySummary, error) {
	s.logger.Info("Overriding ticket ontology",
		zap.String("ticket_id", ticketID),
		zap.Int64("ontology_id", ontologyID),
		zap.String("override_by", overrideBy))

	assignment, target, err := s.assignmentRepo.RecordOverride(
		ctx, ticketID, ontologyID, overrideReason, overrideBy, projectID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Override recorded",
		zap.Int64("assignment_id", assignment.ID),
		zap.String("ticket_id", ticketID))
	return assignment, target, nil
}

func (s *assignmentService) History(ctx context.Context, ticketID string, limit int) ([]*models.AssignmentHistoryEntry, error) {
	entries, err := s.assignmentRepo.History(ctx, ticketID, limit)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Assignment history retrieved",
		zap.String("ticket_id", ticketID),
		zap.Int("count", len(entries)))
	return entries, nil
}
