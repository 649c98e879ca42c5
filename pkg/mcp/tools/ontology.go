package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-engine/pkg/models"
	"github.com/ekaya-inc/ekaya-engine/pkg/services"
)

// OntologyToolDeps contains dependencies for the catalog tools.
type OntologyToolDeps struct {
	OntologyService services.OntologyService
	Logger          *zap.Logger
}

// RegisterOntologyTools registers the ontology catalog MCP tools.
func RegisterOntologyTools(s *server.MCPServer, deps *OntologyToolDeps) {
	registerStoreOntologyTool(s, deps)
	registerRetrieveOntologyByIDTool(s, deps)
	registerRetrieveOntologyByNameTool(s, deps)
	registerListOntologiesTool(s, deps)
	registerValidateOntologyTool(s, deps)
	registerUpdateOntologyTool(s, deps)
	registerDeleteOntologyTool(s, deps)
	registerListAvailableOntologyNamesTool(s, deps)
}

func registerStoreOntologyTool(s *server.MCPServer, deps *OntologyToolDeps) {
	tool := mcp.NewTool(
		"store_ontology",
		mcp.WithDescription(
			"Store a new ontology in the catalog. "+
				"On a (name, version) conflict the existing row is updated in place. "+
				"No structural validation is performed here; use validate_ontology for that.",
		),
		mcp.WithString(
			"name",
			mcp.Required(),
			mcp.Description("Unique name for the ontology (e.g., 'infrastructure_ontology')"),
		),
		mcp.WithObject(
			"ontology_json",
			mcp.Required(),
			mcp.Description("The ontology JSON structure with entities and relationships"),
		),
		mcp.WithString(
			"category",
			mcp.Description("Category: 'infrastructure', 'application', 'database', 'network', etc. (default: 'general')"),
		),
		mcp.WithString(
			"description",
			mcp.Description("Human-readable description of the ontology"),
		),
		mcp.WithArray(
			"tags",
			mcp.Description("List of tags for searching (e.g., ['network', 'cisco', 'routing'])"),
		),
		mcp.WithNumber(
			"priority",
			mcp.Description("Priority for selection (1-100, higher = preferred, default: 50)"),
		),
		mcp.WithString(
			"version",
			mcp.Description("Version string in semver format (default: '1.0.0')"),
		),
		mcp.WithString(
			"created_by",
			mcp.Description("Username who created this ontology (default: 'system')"),
		),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return newFailureResult(codeInvalidParameters, err.Error()), nil
		}
		document, ok := getObject(req, "ontology_json")
		if !ok {
			return newFailureResult(codeInvalidParameters, "ontology_json must be a JSON object"), nil
		}
		tags, _ := getStringSlice(req, "tags")

		storeReq := &models.StoreOntologyRequest{
			Name:        name,
			Document:    document,
			Category:    getOptionalString(req, "category", "general"),
			Description: getOptionalString(req, "description", ""),
			Tags:        tags,
			Priority:    getOptionalInt(req, "priority", 50),
			Version:     getOptionalString(req, "version", "1.0.0"),
			CreatedBy:   getOptionalString(req, "created_by", "system"),
		}

		ont, err := deps.OntologyService.Store(ctx, storeReq)
		if err != nil {
			deps.Logger.Error("store_ontology failed", zap.String("name", name), zap.Error(err))
			return failureFromError(err, fmt.Sprintf("Failed to store ontology '%s'", name)), nil
		}

		return newSuccessResult(map[string]any{
			"ontology_id": ont.ID,
			"name":        ont.Name,
			"version":     ont.Version,
			"created_at":  ont.CreatedAt,
		}, fmt.Sprintf("Ontology '%s' stored successfully", ont.Name))
	})
}

func registerRetrieveOntologyByIDTool(s *server.MCPServer, deps *OntologyToolDeps) {
	tool := mcp.NewTool(
		"retrieve_ontology_by_id",
		mcp.WithDescription("Retrieve a specific ontology by its ID, with the document parsed."),
		mcp.WithNumber(
			"ontology_id",
			mcp.Required(),
			mcp.Description("The ontology ID to retrieve"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("ontology_id")
		if err != nil {
			return newFailureResult(codeInvalidParameters, err.Error()), nil
		}

		ont, err := deps.OntologyService.GetByID(ctx, int64(id))
		if err != nil {
			return failureFromError(err, fmt.Sprintf("No ontology found with ID %d", id)), nil
		}

		return newSuccessResult(map[string]any{
			"ontology": ont,
		}, "Ontology retrieved successfully")
	})
}

func registerRetrieveOntologyByNameTool(s *server.MCPServer, deps *OntologyToolDeps) {
	tool := mcp.NewTool(
		"retrieve_ontology_by_name",
		mcp.WithDescription(
			"Retrieve an ontology by name. With a version, performs an exact "+
				"(name, version) lookup; without one, returns the latest non-deleted version.",
		),
		mcp.WithString(
			"name",
			mcp.Required(),
			mcp.Description("The ontology name"),
		),
		mcp.WithString(
			"version",
			mcp.Description("Specific version (if omitted, returns latest)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return newFailureResult(codeInvalidParameters, err.Error()), nil
		}
		version := getOptionalString(req, "version", "")

		ont, err := deps.OntologyService.GetByName(ctx, name, version)
		if err != nil {
			return failureFromError(err, fmt.Sprintf("No ontology found with name '%s'", name)), nil
		}

		return newSuccessResult(map[string]any{
			"ontology": ont,
		}, "Ontology retrieved successfully")
	})
}

func registerListOntologiesTool(s *server.MCPServer, deps *OntologyToolDeps) {
	tool := mcp.NewTool(
		"list_ontologies",
		mcp.WithDescription(
			"List ontologies with optional filtering and pagination. "+
				"Returns document-free summaries ordered by priority, then recency.",
		),
		mcp.WithString(
			"category",
			mcp.Description("Filter by category"),
		),
		mcp.WithBoolean(
			"is_active",
			mcp.Description("Filter by active status (default: true)"),
		),
		mcp.WithBoolean(
			"include_deleted",
			mcp.Description("Include soft-deleted ontologies (default: false)"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum number of results (1-500, default: 100)"),
		),
		mcp.WithNumber(
			"offset",
			mcp.Description("Pagination offset"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := &models.ListOntologiesFilter{
			IncludeDeleted: getOptionalBool(req, "include_deleted", false),
			Limit:          getOptionalInt(req, "limit", 100),
			Offset:         getOptionalInt(req, "offset", 0),
		}
		if hasArgument(req, "category") {
			category := getOptionalString(req, "category", "")
			filter.Category = &category
		}
		isActive := getOptionalBool(req, "is_active", true)
		filter.IsActive = &isActive

		summaries, total, err := deps.OntologyService.List(ctx, filter)
		if err != nil {
			return failureFromError(err, "Failed to list ontologies"), nil
		}

		return newSuccessResult(map[string]any{
			"ontologies": summaries,
			"count":      len(summaries),
			"total":      total,
			"limit":      filter.Limit,
			"offset":     filter.Offset,
		}, fmt.Sprintf("Retrieved %d ontologies", len(summaries)))
	})
}

func registerValidateOntologyTool(s *server.MCPServer, deps *OntologyToolDeps) {
	tool := mcp.NewTool(
		"validate_ontology",
		mcp.WithDescription(
			"Validate ontology JSON structure for graph-retrieval compatibility. "+
				"A document with structural errors is reported as is_valid=false, "+
				"not as an operation failure.",
		),
		mcp.WithObject(
			"ontology_json",
			mcp.Required(),
			mcp.Description("The ontology JSON to validate"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		document, ok := getObject(req, "ontology_json")
		if !ok {
			return newFailureResult(codeInvalidParameters, "ontology_json must be a JSON object"), nil
		}

		result := deps.OntologyService.Validate(document)

		message := "Validation completed"
		if !result.IsValid {
			message = fmt.Sprintf("Validation failed with %d errors", len(result.Errors))
		}

		return newSuccessResult(map[string]any{
			"validation": result,
		}, message)
	})
}

func registerUpdateOntologyTool(s *server.MCPServer, deps *OntologyToolDeps) {
	tool := mcp.NewTool(
		"update_ontology",
		mcp.WithDescription(
			"Update an existing ontology. Only the supplied fields are changed; "+
				"omitted fields are left untouched.",
		),
		mcp.WithNumber(
			"ontology_id",
			mcp.Required(),
			mcp.Description("The ontology ID to update"),
		),
		mcp.WithObject(
			"ontology_json",
			mcp.Description("New ontology JSON (if updating)"),
		),
		mcp.WithString(
			"category",
			mcp.Description("New category (if updating)"),
		),
		mcp.WithString(
			"description",
			mcp.Description("New description (if updating)"),
		),
		mcp.WithArray(
			"tags",
			mcp.Description("New tags (if updating)"),
		),
		mcp.WithNumber(
			"priority",
			mcp.Description("New priority (if updating)"),
		),
		mcp.WithBoolean(
			"is_active",
			mcp.Description("New active status (if updating)"),
		),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("ontology_id")
		if err != nil {
			return newFailureResult(codeInvalidParameters, err.Error()), nil
		}

		// Presence in the argument map decides whether a field updates,
		// so an explicit zero value is honored.
		fields := &models.UpdateOntologyFields{}
		if doc, ok := getObject(req, "ontology_json"); ok {
			fields.Document = &doc
		}
		if hasArgument(req, "category") {
			category := getOptionalString(req, "category", "")
			fields.Category = &category
		}
		if hasArgument(req, "description") {
			description := getOptionalString(req, "description", "")
			fields.Description = &description
		}
		if tags, ok := getStringSlice(req, "tags"); ok {
			fields.Tags = &tags
		}
		if hasArgument(req, "priority") {
			priority := getOptionalInt(req, "priority", 0)
			fields.Priority = &priority
		}
		if hasArgument(req, "is_active") {
			isActive := getOptionalBool(req, "is_active", false)
			fields.IsActive = &isActive
		}

		ont, err := deps.OntologyService.Update(ctx, int64(id), fields)
		if err != nil {
			return failureFromError(err, fmt.Sprintf("No ontology found with ID %d", id)), nil
		}

		return newSuccessResult(map[string]any{
			"ontology_id": ont.ID,
			"name":        ont.Name,
			"version":     ont.Version,
			"updated_at":  ont.UpdatedAt,
		}, "Ontology updated successfully")
	})
}

func registerDeleteOntologyTool(s *server.MCPServer, deps *OntologyToolDeps) {
	tool := mcp.NewTool(
		"delete_ontology",
		mcp.WithDescription(
			"Soft delete an ontology: sets deleted_at and deactivates it while "+
				"keeping the record for assignment history. Deleting twice fails.",
		),
		mcp.WithNumber(
			"ontology_id",
			mcp.Required(),
			mcp.Description("The ontology ID to delete"),
		),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("ontology_id")
		if err != nil {
			return newFailureResult(codeInvalidParameters, err.Error()), nil
		}

		ont, err := deps.OntologyService.Delete(ctx, int64(id))
		if err != nil {
			return failureFromError(err, fmt.Sprintf("No active ontology found with ID %d", id)), nil
		}

		return newSuccessResult(map[string]any{
			"ontology_id": ont.ID,
			"name":        ont.Name,
			"version":     ont.Version,
			"deleted_at":  ont.DeletedAt,
		}, fmt.Sprintf("Ontology '%s' deleted successfully", ont.Name))
	})
}

func registerListAvailableOntologyNamesTool(s *server.MCPServer, deps *OntologyToolDeps) {
	tool := mcp.NewTool(
		"list_available_ontology_names",
		mcp.WithDescription(
			"Get a deduplicated, alphabetical list of ontology names. "+
				"A lightweight projection for dropdown/selection UIs.",
		),
		mcp.WithBoolean(
			"is_active",
			mcp.Description("Filter by active status (default: true)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		isActive := getOptionalBool(req, "is_active", true)

		names, err := deps.OntologyService.ListAvailableNames(ctx, isActive)
		if err != nil {
			return failureFromError(err, "Failed to retrieve ontology names"), nil
		}

		return newSuccessResult(map[string]any{
			"ontology_names": names,
			"count":          len(names),
		}, fmt.Sprintf("Retrieved %d ontology name(s)", len(names)))
	})
}
