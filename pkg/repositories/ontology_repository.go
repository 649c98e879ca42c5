package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-engine/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-engine/pkg/database"
	"github.com/ekaya-inc/ekaya-engine/pkg/models"
)

// MaxListLimit bounds the page size of catalog listings.
const MaxListLimit = 500

// DefaultListLimit applies when a listing does not specify a limit.
const DefaultListLimit = 100

// OntologyRepository provides data access for the versioned ontology catalog.
type OntologyRepository interface {
	// Store creates or upserts an ontology. On (name, version) conflict the
	// document, category, description, tags and priority are overwritten and
	// updated_at is bumped; the row id and created_at are preserved.
	Store(ctx context.Context, req *models.StoreOntologyRequest) (*models.Ontology, error)

	// GetByID returns the full record with the document parsed, or
	// apperrors.ErrNotFound if missing or soft-deleted.
	GetByID(ctx context.Context, id int64) (*models.Ontology, error)

	// GetByName returns the exact (name, version) row when version is
	// non-empty, else the non-deleted row with the most recent created_at.
	GetByName(ctx context.Context, name, version string) (*models.Ontology, error)

	// List returns a page of document-free summaries plus the total count
	// computed against the same filter.
	List(ctx context.Context, filter *models.ListOntologiesFilter) ([]*models.OntologySummary, int, error)

	// Update applies only the supplied fields and bumps updated_at.
	Update(ctx context.Context, id int64, fields *models.UpdateOntologyFields) (*models.Ontology, error)

	// SoftDelete sets deleted_at and clears is_active atomically. A second
	// call on the same id fails with apperrors.ErrAlreadyDeleted.
	SoftDelete(ctx context.Context, id int64) (*models.Ontology, error)

	// ListActiveNames returns distinct non-deleted names matching the
	// active filter, ordered alphabetically.
	ListActiveNames(ctx context.Context, isActive bool) ([]string, error)

	// ListCandidates returns the active, non-deleted classification pool
	// ordered by priority descending (ties broken by newest id first).
	ListCandidates(ctx context.Context) ([]*models.OntologyCandidate, error)

	// Exists reports whether a non-deleted row with the id is present.
	Exists(ctx context.Context, id int64) (bool, error)
}

type ontologyRepository struct {
	db *database.DB
}

// NewOntologyRepository creates a new OntologyRepository.
func NewOntologyRepository(db *database.DB) OntologyRepository {
	return &ontologyRepository{db: db}
}

var _ OntologyRepository = (*ontologyRepository)(nil)

const ontologyColumns = `ontology_id, name, version, ontology_json, category, description,
		tags, priority, is_active, created_by, created_at, updated_at, deleted_at`

func (r *ontologyRepository) Store(ctx context.Context, req *models.StoreOntologyRequest) (*models.Ontology, error) {
	doc, err := json.Marshal(req.Document)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize ontology document: %w", err)
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO ontology_store
			(name, version, ontology_json, category, description, tags, priority, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (name, version)
		DO UPDATE SET
			ontology_json = EXCLUDED.ontology_json,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			tags = EXCLUDED.tags,
			priority = EXCLUDED.priority,
			updated_at = NOW()
		RETURNING ` + ontologyColumns

	var ont *models.Ontology
	err = r.db.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query,
			req.Name, req.Version, string(doc), req.Category, req.Description,
			tags, req.Priority, req.CreatedBy,
		)
		ont, err = scanOntologyRow(row)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store ontology: %w", err)
	}
	return ont, nil
}

func (r *ontologyRepository) GetByID(ctx context.Context, id int64) (*models.Ontology, error) {
	query := `
		SELECT ` + ontologyColumns + `
		FROM ontology_store
		WHERE ontology_id = $1 AND deleted_at IS NULL`

	ont, err := scanOntologyRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ontology %d: %w", id, err)
	}
	return ont, nil
}

func (r *ontologyRepository) GetByName(ctx context.Context, name, version string) (*models.Ontology, error) {
	var row pgx.Row
	if version != "" {
		query := `
			SELECT ` + ontologyColumns + `
			FROM ontology_store
			WHERE name = $1 AND version = $2 AND deleted_at IS NULL`
		row = r.db.QueryRow(ctx, query, name, version)
	} else {
		query := `
			SELECT ` + ontologyColumns + `
			FROM ontology_store
			WHERE name = $1 AND deleted_at IS NULL
			ORDER BY created_at DESC
			LIMIT 1`
		row = r.db.QueryRow(ctx, query, name)
	}

	ont, err := scanOntologyRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ontology %q: %w", name, err)
	}
	return ont, nil
}

func (r *ontologyRepository) List(ctx context.Context, filter *models.ListOntologiesFilter) ([]*models.OntologySummary, int, error) {
	conditions := []string{}
	params := []any{}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if filter.IsActive != nil {
		params = append(params, *filter.IsActive)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(params)))
	}
	if filter.Category != nil {
		params = append(params, *filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(params)))
	}

	whereClause := "TRUE"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	listQuery := fmt.Sprintf(`
		SELECT ontology_id, name, version, category, description, tags,
			priority, is_active, created_by, created_at, updated_at
		FROM ontology_store
		WHERE %s
		ORDER BY priority DESC, created_at DESC, ontology_id DESC
		LIMIT $%d OFFSET $%d`, whereClause, len(params)+1, len(params)+2)

	countQuery := fmt.Sprintf(
		`SELECT COUNT(*) FROM ontology_store WHERE %s`, whereClause)

	var summaries []*models.OntologySummary
	var total int

	// Both queries run in one transaction so the page and the total are
	// computed against the same snapshot.
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, listQuery, append(params, limit, offset)...)
		if err != nil {
			return fmt.Errorf("failed to list ontologies: %w", err)
		}
		defer rows.Close()

		summaries = make([]*models.OntologySummary, 0)
		for rows.Next() {
			var s models.OntologySummary
			if err := rows.Scan(
				&s.ID, &s.Name, &s.Version, &s.Category, &s.Description, &s.Tags,
				&s.Priority, &s.IsActive, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to scan ontology summary: %w", err)
			}
			summaries = append(summaries, &s)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating ontologies: %w", err)
		}

		if err := tx.QueryRow(ctx, countQuery, params...).Scan(&total); err != nil {
			return fmt.Errorf("failed to count ontologies: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return summaries, total, nil
}

func (r *ontologyRepository) Update(ctx context.Context, id int64, fields *models.UpdateOntologyFields) (*models.Ontology, error) {
	if fields.IsEmpty() {
		return nil, apperrors.ErrNoFieldsToUpdate
	}

	setClauses := []string{}
	params := []any{}

	if fields.Document != nil {
		doc, err := json.Marshal(*fields.Document)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize ontology document: %w", err)
		}
		params = append(params, string(doc))
		setClauses = append(setClauses, fmt.Sprintf("ontology_json = $%d", len(params)))
	}
	if fields.Category != nil {
		params = append(params, *fields.Category)
		setClauses = append(setClauses, fmt.Sprintf("category = $%d", len(params)))
	}
	if fields.Description != nil {
		params = append(params, *fields.Description)
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", len(params)))
	}
	if fields.Tags != nil {
		params = append(params, *fields.Tags)
		setClauses = append(setClauses, fmt.Sprintf("tags = $%d", len(params)))
	}
	if fields.Priority != nil {
		params = append(params, *fields.Priority)
		setClauses = append(setClauses, fmt.Sprintf("priority = $%d", len(params)))
	}
	if fields.IsActive != nil {
		params = append(params, *fields.IsActive)
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", len(params)))
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	params = append(params, id)

	query := fmt.Sprintf(`
		UPDATE ontology_store
		SET %s
		WHERE ontology_id = $%d AND deleted_at IS NULL
		RETURNING %s`, strings.Join(setClauses, ", "), len(params), ontologyColumns)

	var ont *models.Ontology
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		ont, err = scanOntologyRow(tx.QueryRow(ctx, query, params...))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update ontology %d: %w", id, err)
	}
	return ont, nil
}

func (r *ontologyRepository) SoftDelete(ctx context.Context, id int64) (*models.Ontology, error) {
	query := `
		UPDATE ontology_store
		SET deleted_at = NOW(), is_active = FALSE
		WHERE ontology_id = $1 AND deleted_at IS NULL
		RETURNING ` + ontologyColumns

	var ont *models.Ontology
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		ont, err = scanOntologyRow(tx.QueryRow(ctx, query, id))
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing row from a racing second delete.
			var exists bool
			if checkErr := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM ontology_store WHERE ontology_id = $1)`, id,
			).Scan(&exists); checkErr != nil {
				return fmt.Errorf("failed to check ontology %d: %w", id, checkErr)
			}
			if exists {
				return apperrors.ErrAlreadyDeleted
			}
			return apperrors.ErrNotFound
		}
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrAlreadyDeleted) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete ontology %d: %w", id, err)
	}
	return ont, nil
}

func (r *ontologyRepository) ListActiveNames(ctx context.Context, isActive bool) ([]string, error) {
	query := `
		SELECT DISTINCT name
		FROM ontology_store
		WHERE deleted_at IS NULL AND is_active = $1
		ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, isActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list ontology names: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan ontology name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ontology names: %w", err)
	}

	return names, nil
}

func (r *ontologyRepository) ListCandidates(ctx context.Context) ([]*models.OntologyCandidate, error) {
	query := `
		SELECT ontology_id, name, version, category, description, tags, priority
		FROM ontology_store
		WHERE is_active = TRUE AND deleted_at IS NULL
		ORDER BY priority DESC, ontology_id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate ontologies: %w", err)
	}
	defer rows.Close()

	candidates := make([]*models.OntologyCandidate, 0)
	for rows.Next() {
		var c models.OntologyCandidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Version, &c.Category, &c.Description, &c.Tags, &c.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}

	return candidates, nil
}

func (r *ontologyRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ontology_store WHERE ontology_id = $1 AND deleted_at IS NULL)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ontology %d: %w", id, err)
	}
	return exists, nil
}

func scanOntologyRow(row pgx.Row) (*models.Ontology, error) {
	var o models.Ontology
	var rawDoc string

	err := row.Scan(
		&o.ID, &o.Name, &o.Version, &rawDoc, &o.Category, &o.Description,
		&o.Tags, &o.Priority, &o.IsActive, &o.CreatedBy, &o.CreatedAt,
		&o.UpdatedAt, &o.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan ontology: %w", err)
	}

	if err := json.Unmarshal([]byte(rawDoc), &o.Document); err != nil {
		return nil, fmt.Errorf("failed to parse stored ontology document: %w", err)
	}

	return &o, nil
}
