package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-engine/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-engine/pkg/llm"
	"github.com/ekaya-inc/ekaya-engine/pkg/models"
	"github.com/ekaya-inc/ekaya-engine/pkg/prompts"
)

// ClassifierService selects one ontology for a ticket via a single
// request/response exchange with the classification model.
type ClassifierService interface {
	// SelectOntology scores the candidates against the ticket text and
	// returns the model's choice. The returned ontology id is guaranteed to
	// be one of the candidate ids and the confidence to lie in [0, 1];
	// anything else fails with apperrors.ErrClassificationParse.
	SelectOntology(ctx context.Context, ticketTitle, ticketDescription string, candidates []*models.OntologyCandidate) (*models.ClassificationResult, error)
}

type classifierService struct {
	client      llm.LLMClient
	temperature float64
	logger      *zap.Logger
}

// NewClassifierService creates a new ClassifierService. The client and
// temperature are process-wide read-only state configured once at startup.
func NewClassifierService(client llm.LLMClient, temperature float64, logger *zap.Logger) ClassifierService {
	return &classifierService{
		client:      client,
		temperature: temperature,
		logger:      logger.Named("classifier"),
	}
}

var _ ClassifierService = (*classifierService)(nil)

// llmSelection is the JSON object the model is instructed to return.
type llmSelection struct {
	OntologyID    int64    `json:"ontology_id"`
	Confidence    float64  `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	Category      string   `json:"category"`
	KeywordsFound []string `json:"keywords_found"`
}

func (s *classifierService) SelectOntology(
	ctx context.Context,
	ticketTitle, ticketDescription string,
	candidates []*models.OntologyCandidate,
) (*models.ClassificationResult, error) {
	prompt, err := prompts.BuildOntologySelectionPrompt(ticketTitle, ticketDescription, candidates)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Sending classification request",
		zap.Int("candidates", len(candidates)),
		zap.String("model", s.client.GetModel()))

	start := time.Now()
	response, err := s.client.GenerateResponse(ctx, prompt, prompts.OntologySelectionSystemPrompt, s.temperature)
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}
	processingTime := time.Since(start)

	selection, err := llm.ParseJSONResponse[llmSelection](response)
	if err != nil {
		s.logger.Error("Failed to parse classifier response",
			zap.String("response", response),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrClassificationParse, err)
	}

	if selection.Confidence < 0.0 || selection.Confidence > 1.0 {
		return nil, fmt.Errorf("%w: confidence %v out of range [0, 1]",
			apperrors.ErrClassificationParse, selection.Confidence)
	}
	if !candidateListContains(candidates, selection.OntologyID) {
		return nil, fmt.Errorf("%w: ontology_id %d is not among the candidates",
			apperrors.ErrClassificationParse, selection.OntologyID)
	}

	s.logger.Info("Classifier selected ontology",
		zap.Int64("ontology_id", selection.OntologyID),
		zap.Float64("confidence", selection.Confidence),
		zap.Duration("elapsed", processingTime))

	return &models.ClassificationResult{
		OntologyID:       selection.OntologyID,
		Confidence:       selection.Confidence,
		Reasoning:        selection.Reasoning,
		Category:         selection.Category,
		KeywordsFound:    selection.KeywordsFound,
		LLMModel:         s.client.GetModel(),
		ProcessingTimeMs: processingTime.Milliseconds(),
	}, nil
}

func candidateListContains(candidates []*models.OntologyCandidate, id int64) bool {
	for _, c := range candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}
