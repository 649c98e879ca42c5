package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-engine/pkg/services"
)

// AssignmentToolDeps contains dependencies for the ticket assignment tools.
type AssignmentToolDeps struct {
	AssignmentService services.AssignmentService
	Logger            *zap.Logger
}

// RegisterAssignmentTools registers the ticket ontology assignment MCP tools.
func RegisterAssignmentTools(s *server.MCPServer, deps *AssignmentToolDeps) {
	registerSelectOntologyForTicketTool(s, deps)
	registerOverrideTicketOntologyTool(s, deps)
	registerGetTicketOntologyHistoryTool(s, deps)
}

func registerSelectOntologyForTicketTool(s *server.MCPServer, deps *AssignmentToolDeps) {
	tool := mcp.NewTool(
		"select_ontology_for_ticket",
		mcp.WithDescription(
			"Automatically select the best matching ontology for a ticket using "+
				"LLM classification and record the assignment. The classification "+
				"provenance (confidence, reasoning, model) is persisted with the row.",
		),
		mcp.WithString(
			"ticket_id",
			mcp.Required(),
			mcp.Description("The ticket identifier"),
		),
		mcp.WithString(
			"ticket_title",
			mcp.Required(),
			mcp.Description("The ticket title/summary"),
		),
		mcp.WithString(
			"ticket_description",
			mcp.Description("The full ticket description"),
		),
		mcp.WithNumber(
			"project_id",
			mcp.Description("Optional project scope for the assignment"),
		),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticketID, err := req.RequireString("ticket_id")
		if err != nil {
			return newFailureResult(codeInvalidParameters, err.Error()), nil
		}
		ticketTitle, err := req.RequireString("ticket_title")
		if err != nil {
			return newFailureResult(codeInvalidParameters, err.Error()), nil
		}
		ticketDescription := getOptionalString(req, "ticket_description", "")

		var projectID *int64
		if hasArgument(req, "project_id") {
			pid := int64(getOptionalInt(req, "project_id", 0))
			projectID = &pid
		}

		outcome, err := deps.AssignmentService.SelectForTicket(
			ctx, ticketID, ticketTitle, ticketDescription, projectID)
		if err != nil {
			deps.Logger.Error("select_ontology_for_ticket failed",
				zap.String("ticket_id", ticketID), zap.Error(err))
			return failureFromError(err, fmt.Sprintf("Failed to select ontology for ticket '%s'", ticketID)), nil
		}

		return newSuccessResult(map[string]any{
			"ticket_id":          ticketID,
			"assignment_id":      outcome.Assignment.ID,
			"ontology_id":        outcome.Selected.ID,
			"ontology_name":      outcome.Selected.Name,
			"ontology_version":   outcome.Selected.Version,
			"category":           outcome.Classification.Category,
			"match_confidence":   outcome.Classification.Confidence,
			"match_method":       outcome.Assignment.MatchMethod,
			"reasoning":          outcome.Classification.Reasoning,
			"keywords_found":     outcome.Classification.KeywordsFound,
			"llm_model":          outcome.Classification.LLMModel,
			"processing_time_ms": outcome.Classification.ProcessingTimeMs,
			"assigned_at":        outcome.Assignment.AssignedAt,
		}, fmt.Sprintf("Ontology '%s' assigned to ticket '%s'", outcome.Selected.Name, ticketID))
	})
}

func registerOverrideTicketOntologyTool(s *server.MCPServer, deps *AssignmentToolDeps) {
	tool := mcp.NewTool(
		"override_ticket_ontology",
		mcp.WithDescription(
			"Manually override a ticket's ontology assignment. Appends a new "+
				"assignment row; the automatic classification is kept in history. "+
				"The target ontology must exist and not be deleted.",
		),
		mcp.WithString(
			"ticket_id",
			mcp.Required(),
			mcp.Description("The ticket identifier"),
		),
		mcp.WithNumber(
			"ontology_id",
			mcp.Required(),
			mcp.Description("The ontology ID to assign"),
		),
		mcp.WithString(
			"override_reason",
			mcp.Description("Why the assignment is being overridden"),
		),
		mcp.WithString(
			"override_by",
			mcp.Description("Username performing the override (default: 'system')"),
		),
		mcp.WithNumber(
			"project_id",
			mcp.Description("Optional project scope for the assignment"),
		),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticketID, err := req.RequireString("ticket_id")
		if err != nil {
			return newFailureResult(codeInvalidParameters, err.Error()), nil
		}
		ontologyID, err := req.RequireInt("ontology_id")
		if err != nil {
			return newFailureResult(codeInvalidParameters, err.Error()), nil
		}
		overrideReason := getOptionalString(req, "override_reason", "")
		overrideBy := getOptionalString(req, "override_by", "system")

		var projectID *int64
		if hasArgument(req, "project_id") {
			pid := int64(getOptionalInt(req, "project_id", 0))
			projectID = &pid
		}

		assignment, target, err := deps.AssignmentService.Override(
			ctx, ticketID, int64(ontologyID), overrideReason, overrideBy, projectID)
		if err != nil {
			deps.Logger.Error("override_ticket_ontology failed",
				zap.String("ticket_id", ticketID),
				zap.Int64("ontology_id", int64(ontologyID)),
				zap.Error(err))
			return failureFromError(err, fmt.Sprintf("No ontology found with ID %d", ontologyID)), nil
		}

		return newSuccessResult(map[string]any{
			"ticket_id":        ticketID,
			"assignment_id":    assignment.ID,
			"ontology_id":      target.ID,
			"ontology_name":    target.Name,
			"ontology_version": target.Version,
			"match_method":     assignment.MatchMethod,
			"is_override":      assignment.IsOverride,
			"override_reason":  assignment.OverrideReason,
			"override_by":      assignment.OverrideBy,
			"assigned_at":      assignment.AssignedAt,
		}, fmt.Sprintf("Ticket '%s' ontology overridden to '%s'", ticketID, target.Name))
	})
}

func registerGetTicketOntologyHistoryTool(s *server.MCPServer, deps *AssignmentToolDeps) {
	tool := mcp.NewTool(
		"get_ticket_ontology_history",
		mcp.WithDescription(
			"Get the ontology assignment history for a ticket, most recent first. "+
				"The first entry is the ticket's current assignment.",
		),
		mcp.WithString(
			"ticket_id",
			mcp.Required(),
			mcp.Description("The ticket identifier"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum number of history entries (default: 10)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticketID, err := req.RequireString("ticket_id")
		if err != nil {
			return newFailureResult(codeInvalidParameters, err.Error()), nil
		}
		limit := getOptionalInt(req, "limit", 10)

		entries, err := deps.AssignmentService.History(ctx, ticketID, limit)
		if err != nil {
			return failureFromError(err, fmt.Sprintf("Failed to retrieve history for ticket '%s'", ticketID)), nil
		}

		payload := map[string]any{
			"ticket_id": ticketID,
			"history":   entries,
			"count":     len(entries),
		}
		if len(entries) > 0 {
			payload["current_assignment"] = entries[0]
		}

		return newSuccessResult(payload, fmt.Sprintf("Retrieved %d assignment(s) for ticket '%s'", len(entries), ticketID))
	})
}
