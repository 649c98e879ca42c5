package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-engine/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-engine/pkg/llm"
	"github.com/ekaya-inc/ekaya-engine/pkg/models"
	"github.com/ekaya-inc/ekaya-engine/pkg/prompts"
)

func testCandidates() []*models.OntologyCandidate {
	return []*models.OntologyCandidate{
		{ID: 1, Name: "network_ontology", Category: "network", Priority: 80},
		{ID: 2, Name: "database_ontology", Category: "database", Priority: 50},
	}
}

func newTestClassifier(mock *llm.MockLLMClient) ClassifierService {
	return NewClassifierService(mock, 0.3, zap.NewNop())
}

func TestSelectOntology_Success(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.Model = "gpt-4o"
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
		assert.Equal(t, prompts.OntologySelectionSystemPrompt, systemMessage)
		assert.Equal(t, 0.3, temperature)
		return `{"ontology_id": 1, "confidence": 0.92, "reasoning": "network terms dominate", "category": "network", "keywords_found": ["bgp", "routing"]}`, nil
	}

	result, err := newTestClassifier(mock).SelectOntology(
		context.Background(), "BGP flapping", "routes withdrawn", testCandidates())

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.OntologyID)
	assert.Equal(t, 0.92, result.Confidence)
	assert.Equal(t, "network terms dominate", result.Reasoning)
	assert.Equal(t, "network", result.Category)
	assert.Equal(t, []string{"bgp", "routing"}, result.KeywordsFound)
	assert.Equal(t, "gpt-4o", result.LLMModel)
	assert.GreaterOrEqual(t, result.ProcessingTimeMs, int64(0))
	assert.Equal(t, 1, mock.GenerateResponseCalls)
}

func TestSelectOntology_FencedResponse(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
		return "Here is my selection:\n```json\n{\"ontology_id\": 2, \"confidence\": 0.7, \"reasoning\": \"db\", \"category\": \"database\", \"keywords_found\": []}\n```", nil
	}

	result, err := newTestClassifier(mock).SelectOntology(
		context.Background(), "slow queries", "", testCandidates())

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.OntologyID)
}

func TestSelectOntology_UnparseableResponse(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
		return "I think the network ontology fits best.", nil
	}

	_, err := newTestClassifier(mock).SelectOntology(
		context.Background(), "title", "desc", testCandidates())

	assert.ErrorIs(t, err, apperrors.ErrClassificationParse)
}

func TestSelectOntology_ConfidenceOutOfRange(t *testing.T) {
	tests := []struct {
		name       string
		confidence string
	}{
		{"above one", "1.5"},
		{"negative", "-0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockLLMClient()
			mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
				return `{"ontology_id": 1, "confidence": ` + tt.confidence + `, "reasoning": "", "category": "", "keywords_found": []}`, nil
			}

			_, err := newTestClassifier(mock).SelectOntology(
				context.Background(), "title", "desc", testCandidates())

			assert.ErrorIs(t, err, apperrors.ErrClassificationParse)
		})
	}
}

func TestSelectOntology_SelectionOutsideCandidates(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
		return `{"ontology_id": 999, "confidence": 0.9, "reasoning": "", "category": "", "keywords_found": []}`, nil
	}

	_, err := newTestClassifier(mock).SelectOntology(
		context.Background(), "title", "desc", testCandidates())

	assert.ErrorIs(t, err, apperrors.ErrClassificationParse)
	assert.Contains(t, err.Error(), "999")
}

func TestSelectOntology_ClientFailure(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
		return "", errors.New("request timed out")
	}

	_, err := newTestClassifier(mock).SelectOntology(
		context.Background(), "title", "desc", testCandidates())

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrClassificationParse)
	assert.Contains(t, err.Error(), "classification call failed")
}

func TestSelectOntology_PromptCarriesTicketAndCandidates(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
		return `{"ontology_id": 1, "confidence": 0.8, "reasoning": "", "category": "", "keywords_found": []}`, nil
	}

	_, err := newTestClassifier(mock).SelectOntology(
		context.Background(), "BGP flapping on core switch", "Routes withdrawn intermittently", testCandidates())

	require.NoError(t, err)
	assert.Contains(t, mock.LastPrompt, "Title: BGP flapping on core switch")
	assert.Contains(t, mock.LastPrompt, "Description: Routes withdrawn intermittently")
	assert.Contains(t, mock.LastPrompt, "network_ontology")
	assert.Contains(t, mock.LastPrompt, "database_ontology")
}
