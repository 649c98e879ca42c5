package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-engine/pkg/models"
	"github.com/ekaya-inc/ekaya-engine/pkg/repositories"
)

// OntologyService provides operations on the versioned ontology catalog.
// Sentinel errors from pkg/apperrors pass through to the tool boundary,
// which converts them into the uniform result envelope.
type OntologyService interface {
	// Store creates or upserts an ontology. No content validation happens
	// here; storage accepts any well-formed document.
	Store(ctx context.Context, req *models.StoreOntologyRequest) (*models.Ontology, error)

	// GetByID returns the full record if not soft-deleted.
	GetByID(ctx context.Context, id int64) (*models.Ontology, error)

	// GetByName returns the exact version when given, else the latest
	// non-deleted row for the name.
	GetByName(ctx context.Context, name, version string) (*models.Ontology, error)

	// List returns a page of summaries plus the filter-wide total count.
	List(ctx context.Context, filter *models.ListOntologiesFilter) ([]*models.OntologySummary, int, error)

	// Update applies only the supplied fields.
	Update(ctx context.Context, id int64, fields *models.UpdateOntologyFields) (*models.Ontology, error)

	// Delete soft-deletes the ontology; calling it twice fails the second time.
	Delete(ctx context.Context, id int64) (*models.Ontology, error)

	// ListAvailableNames returns distinct names for selection UIs.
	ListAvailableNames(ctx context.Context, isActive bool) ([]string, error)

	// Validate runs the structural check. A document with errors is a
	// normal successful response carrying IsValid=false.
	Validate(doc map[string]any) *models.ValidationResult
}

type ontologyService struct {
	repo   repositories.OntologyRepository
	logger *zap.Logger
}

// NewOntologyService creates a new OntologyService.
func NewOntologyService(repo repositories.OntologyRepository, logger *zap.Logger) OntologyService {
	return &ontologyService{
		repo:   repo,
		logger: logger.Named("ontology-service"),
	}
}

var _ OntologyService = (*ontologyService)(nil)

func (s *ontologyService) Store(ctx context.Context, req *models.StoreOntologyRequest) (*models.Ontology, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("ontology name is required")
	}
	if req.Document == nil {
		return nil, fmt.Errorf("ontology document is required")
	}

	s.logger.Info("Storing ontology",
		zap.String("name", req.Name),
		zap.String("version", req.Version))

	ont, err := s.repo.Store(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ontology stored",
		zap.Int64("ontology_id", ont.ID),
		zap.String("name", ont.Name),
		zap.String("version", ont.Version))
	return ont, nil
}

func (s *ontologyService) GetByID(ctx context.Context, id int64) (*models.Ontology, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ontologyService) GetByName(ctx context.Context, name, version string) (*models.Ontology, error) {
	if name == "" {
		return nil, fmt.Errorf("ontology name is required")
	}
	return s.repo.GetByName(ctx, name, version)
}

func (s *ontologyService) List(ctx context.Context, filter *models.ListOntologiesFilter) ([]*models.OntologySummary, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *ontologyService) Update(ctx context.Context, id int64, fields *models.UpdateOntologyFields) (*models.Ontology, error) {
	ont, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ontology updated",
		zap.Int64("ontology_id", ont.ID),
		zap.String("name", ont.Name),
		zap.String("version", ont.Version))
	return ont, nil
}

func (s *ontologyService) Delete(ctx context.Context, id int64) (*models.Ontology, error) {
	ont, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ontology soft-deleted",
		zap.Int64("ontology_id", ont.ID),
		zap.String("name", ont.Name),
		zap.String("version", ont.Version))
	return ont, nil
}

func (s *ontologyService) ListAvailableNames(ctx context.Context, isActive bool) ([]string, error) {
	return s.repo.ListActiveNames(ctx, isActive)
}

func (s *ontologyService) Validate(doc map[string]any) *models.ValidationResult {
	result := ValidateOntologyDocument(doc)
	s.logger.Info("Validation complete",
		zap.Bool("is_valid", result.IsValid),
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)))
	return result
}
