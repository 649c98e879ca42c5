package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-engine/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-engine/pkg/database"
	"github.com/ekaya-inc/ekaya-engine/pkg/models"
)

// AssignmentRepository provides append-only access to the assignment
// ledger. Rows are inserted and never mutated; history reads enrich each
// row with the referenced ontology's current name/version/category.
type AssignmentRepository interface {
	// RecordClassification inserts an automatic assignment row carrying the
	// classifier's provenance fields and the ticket text snapshot.
	RecordClassification(ctx context.Context, ticketID string, projectID *int64, result *models.ClassificationResult, ticketTitle, ticketDescription string) (*models.Assignment, error)

	// RecordOverride verifies the target ontology exists and is not
	// soft-deleted, then inserts a manual assignment row. Fails with
	// apperrors.ErrNotFound when the ontology is missing or deleted.
	RecordOverride(ctx context.Context, ticketID string, ontologyID int64, overrideReason, overrideBy string, projectID *int64) (*models.Assignment, *models.OntologySummary, error)

	// History returns up to limit assignment rows for the ticket, most
	// recent first.
	History(ctx context.Context, ticketID string, limit int) ([]*models.AssignmentHistoryEntry, error)
}

type assignmentRepository struct {
	db *database.DB
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(db *database.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

var _ AssignmentRepository = (*assignmentRepository)(nil)

func (r *assignmentRepository) RecordClassification(
	ctx context.Context,
	ticketID string,
	projectID *int64,
	result *models.ClassificationResult,
	ticketTitle, ticketDescription string,
) (*models.Assignment, error) {
	keywords := result.KeywordsFound
	if keywords == nil {
		keywords = []string{}
	}

	query := `
		INSERT INTO ticket_ontology_assignments
			(ticket_id, ontology_id, project_id, match_confidence, match_method,
			 llm_reasoning, llm_category, llm_keywords_found, llm_model, processing_time_ms,
			 ticket_title, ticket_description, is_override, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE, NOW())
		RETURNING assignment_id, assigned_at`

	assignment := &models.Assignment{
		TicketID:          ticketID,
		OntologyID:        result.OntologyID,
		ProjectID:         projectID,
		MatchConfidence:   &result.Confidence,
		MatchMethod:       models.MatchMethodLLM,
		LLMReasoning:      result.Reasoning,
		LLMCategory:       result.Category,
		LLMKeywordsFound:  keywords,
		LLMModel:          result.LLMModel,
		ProcessingTimeMs:  result.ProcessingTimeMs,
		TicketTitle:       ticketTitle,
		TicketDescription: ticketDescription,
	}

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			ticketID, result.OntologyID, projectID, result.Confidence, models.MatchMethodLLM,
			result.Reasoning, result.Category, keywords, result.LLMModel, result.ProcessingTimeMs,
			ticketTitle, ticketDescription,
		).Scan(&assignment.ID, &assignment.AssignedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record classification for ticket %s: %w", ticketID, err)
	}

	return assignment, nil
}

func (r *assignmentRepository) RecordOverride(
	ctx context.Context,
	ticketID string,
	ontologyID int64,
	overrideReason, overrideBy string,
	projectID *int64,
) (*models.Assignment, *models.OntologySummary, error) {
	assignment := &models.Assignment{
		TicketID:       ticketID,
		OntologyID:     ontologyID,
		ProjectID:      projectID,
		MatchMethod:    models.MatchMethodOverride,
		IsOverride:     true,
		OverrideReason: overrideReason,
		OverrideBy:     overrideBy,
	}
	var target models.OntologySummary

	// Verify-then-insert runs in one transaction so a concurrent soft
	// delete cannot slip between the check and the write.
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		checkQuery := `
			SELECT ontology_id, name, version, category
			FROM ontology_store
			WHERE ontology_id = $1 AND deleted_at IS NULL`
		err := tx.QueryRow(ctx, checkQuery, ontologyID).Scan(
			&target.ID, &target.Name, &target.Version, &target.Category,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to verify ontology %d: %w", ontologyID, err)
		}

		insertQuery := `
			INSERT INTO ticket_ontology_assignments
				(ticket_id, ontology_id, project_id, match_method, is_override,
				 override_reason, override_by, assigned_at)
			VALUES ($1, $2, $3, $4, TRUE, $5, $6, NOW())
			RETURNING assignment_id, assigned_at`
		return tx.QueryRow(ctx, insertQuery,
			ticketID, ontologyID, projectID, models.MatchMethodOverride,
			overrideReason, overrideBy,
		).Scan(&assignment.ID, &assignment.AssignedAt)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to record override for ticket %s: %w", ticketID, err)
	}

	return assignment, &target, nil
}

func (r *assignmentRepository) History(ctx context.Context, ticketID string, limit int) ([]*models.AssignmentHistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			toa.assignment_id,
			toa.ticket_id,
			toa.ontology_id,
			os.name AS ontology_name,
			os.version AS ontology_version,
			os.category,
			toa.match_confidence,
			toa.match_method,
			toa.llm_reasoning,
			toa.llm_category,
			toa.is_override,
			toa.override_reason,
			toa.override_by,
			toa.assigned_at
		FROM ticket_ontology_assignments toa
		LEFT JOIN ontology_store os ON toa.ontology_id = os.ontology_id
		WHERE toa.ticket_id = $1
		ORDER BY toa.assigned_at DESC, toa.assignment_id DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, ticketID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment history for ticket %s: %w", ticketID, err)
	}
	defer rows.Close()

	entries := make([]*models.AssignmentHistoryEntry, 0)
	for rows.Next() {
		var e models.AssignmentHistoryEntry
		if err := rows.Scan(
			&e.AssignmentID, &e.TicketID, &e.OntologyID,
			&e.OntologyName, &e.OntologyVersion, &e.Category,
			&e.MatchConfidence, &e.MatchMethod, &e.LLMReasoning, &e.LLMCategory,
			&e.IsOverride, &e.OverrideReason, &e.OverrideBy, &e.AssignedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return entries, nil
}
