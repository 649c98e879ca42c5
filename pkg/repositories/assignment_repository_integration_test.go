//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-engine/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-engine/pkg/models"
	"github.com/ekaya-inc/ekaya-engine/pkg/testhelpers"
)

func classificationResult(ontologyID int64) *models.ClassificationResult {
	return &models.ClassificationResult{
		OntologyID:       ontologyID,
		Confidence:       0.88,
		Reasoning:        "network keywords dominate",
		Category:         "network",
		KeywordsFound:    []string{"bgp"},
		LLMModel:         "gpt-4o",
		ProcessingTimeMs: 640,
	}
}

func TestAssignmentRepository_RecordClassification(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, db.DB)
	ontologyRepo := NewOntologyRepository(db.DB)
	repo := NewAssignmentRepository(db.DB)
	ctx := context.Background()

	ont, err := ontologyRepo.Store(ctx, storeRequest("net", "1.0.0"))
	require.NoError(t, err)

	assignment, err := repo.RecordClassification(
		ctx, "TICK-1", nil, classificationResult(ont.ID), "BGP flapping", "routes withdrawn")
	require.NoError(t, err)

	assert.NotZero(t, assignment.ID)
	assert.Equal(t, "TICK-1", assignment.TicketID)
	assert.Equal(t, ont.ID, assignment.OntologyID)
	require.NotNil(t, assignment.MatchConfidence)
	assert.Equal(t, 0.88, *assignment.MatchConfidence)
	assert.Equal(t, models.MatchMethodLLM, assignment.MatchMethod)
	assert.Equal(t, "BGP flapping", assignment.TicketTitle)
	assert.False(t, assignment.IsOverride)
}

func TestAssignmentRepository_OverrideAfterClassification(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, db.DB)
	ontologyRepo := NewOntologyRepository(db.DB)
	repo := NewAssignmentRepository(db.DB)
	ctx := context.Background()

	netOnt, err := ontologyRepo.Store(ctx, storeRequest("net", "1.0.0"))
	require.NoError(t, err)
	dbOnt, err := ontologyRepo.Store(ctx, storeRequest("db", "1.0.0"))
	require.NoError(t, err)

	_, err = repo.RecordClassification(
		ctx, "TICK-1", nil, classificationResult(netOnt.ID), "title", "desc")
	require.NoError(t, err)

	override, target, err := repo.RecordOverride(
		ctx, "TICK-1", dbOnt.ID, "actually a database issue", "bob", nil)
	require.NoError(t, err)
	assert.True(t, override.IsOverride)
	assert.Equal(t, models.MatchMethodOverride, override.MatchMethod)
	assert.Equal(t, "bob", override.OverrideBy)
	assert.Equal(t, "db", target.Name)

	// History is most recent first; the override supersedes without erasing.
	history, err := repo.History(ctx, "TICK-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, override.ID, history[0].AssignmentID)
	assert.True(t, history[0].IsOverride)
	assert.Equal(t, netOnt.ID, history[1].OntologyID)
	require.NotNil(t, history[1].OntologyName)
	assert.Equal(t, "net", *history[1].OntologyName)
}

func TestAssignmentRepository_OverrideRejectsMissingOrDeleted(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, db.DB)
	ontologyRepo := NewOntologyRepository(db.DB)
	repo := NewAssignmentRepository(db.DB)
	ctx := context.Background()

	_, _, err := repo.RecordOverride(ctx, "TICK-1", 99999, "", "bob", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	ont, err := ontologyRepo.Store(ctx, storeRequest("net", "1.0.0"))
	require.NoError(t, err)
	_, err = ontologyRepo.SoftDelete(ctx, ont.ID)
	require.NoError(t, err)

	_, _, err = repo.RecordOverride(ctx, "TICK-1", ont.ID, "", "bob", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// The failed override left no ledger row.
	history, err := repo.History(ctx, "TICK-1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAssignmentRepository_HistoryVisibilityAfterDelete(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, db.DB)
	ontologyRepo := NewOntologyRepository(db.DB)
	repo := NewAssignmentRepository(db.DB)
	ctx := context.Background()

	ont, err := ontologyRepo.Store(ctx, storeRequest("net", "1.0.0"))
	require.NoError(t, err)
	_, err = repo.RecordClassification(
		ctx, "TICK-1", nil, classificationResult(ont.ID), "title", "desc")
	require.NoError(t, err)

	_, err = ontologyRepo.SoftDelete(ctx, ont.ID)
	require.NoError(t, err)

	// Soft-deleted ontologies stay resolvable from history.
	history, err := repo.History(ctx, "TICK-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].OntologyName)
	assert.Equal(t, "net", *history[0].OntologyName)
}

func TestAssignmentRepository_HistoryLimit(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateTables(t, db.DB)
	ontologyRepo := NewOntologyRepository(db.DB)
	repo := NewAssignmentRepository(db.DB)
	ctx := context.Background()

	ont, err := ontologyRepo.Store(ctx, storeRequest("net", "1.0.0"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := repo.RecordClassification(
			ctx, "TICK-1", nil, classificationResult(ont.ID), "title", "desc")
		require.NoError(t, err)
	}

	history, err := repo.History(ctx, "TICK-1", 3)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	// Other tickets are not mixed in.
	other, err := repo.History(ctx, "TICK-2", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}
