package services

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-engine/pkg/models"
)

// ValidateOntologyDocument checks the structural shape of an ontology
// document for graph-retrieval compatibility. The check is deliberately
// shape-only: relationship endpoints are not required to reference declared
// entities, and type vocabularies are not checked.
//
// Missing top-level keys or wrongly-typed collections are errors; missing
// descriptive fields on individual elements are warnings. Validity depends
// on errors alone.
func ValidateOntologyDocument(doc map[string]any) *models.ValidationResult {
	errs := []string{}
	warnings := []string{}
	entityCount := 0
	relationshipCount := 0

	for _, key := range []string{"entities", "relationships"} {
		if _, ok := doc[key]; !ok {
			errs = append(errs, fmt.Sprintf("Missing required key: '%s'", key))
		}
	}

	if raw, ok := doc["entities"]; ok {
		entities, ok := raw.([]any)
		if !ok {
			errs = append(errs, "'entities' must be an array")
		} else {
			entityCount = len(entities)
			for idx, elem := range entities {
				entity, ok := elem.(map[string]any)
				if !ok {
					errs = append(errs, fmt.Sprintf("Entity at index %d must be an object", idx))
					continue
				}
				if _, ok := entity["name"]; !ok {
					warnings = append(warnings, fmt.Sprintf("Entity at index %d missing 'name' field", idx))
				}
			}
		}
	}

	if raw, ok := doc["relationships"]; ok {
		relationships, ok := raw.([]any)
		if !ok {
			errs = append(errs, "'relationships' must be an array")
		} else {
			relationshipCount = len(relationships)
			for idx, elem := range relationships {
				rel, ok := elem.(map[string]any)
				if !ok {
					errs = append(errs, fmt.Sprintf("Relationship at index %d must be an object", idx))
					continue
				}
				for _, field := range []string{"source", "target", "type"} {
					if _, ok := rel[field]; !ok {
						warnings = append(warnings, fmt.Sprintf("Relationship at index %d missing '%s' field", idx, field))
					}
				}
			}
		}
	}

	return &models.ValidationResult{
		IsValid:           len(errs) == 0,
		Errors:            errs,
		Warnings:          warnings,
		EntityCount:       entityCount,
		RelationshipCount: relationshipCount,
	}
}
