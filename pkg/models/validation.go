package models

// ValidationResult reports the structural check of an ontology document.
// Warnings never affect validity; IsValid is true iff Errors is empty.
type ValidationResult struct {
	IsValid           bool     `json:"is_valid"`
	Errors            []string `json:"errors"`
	Warnings          []string `json:"warnings"`
	EntityCount       int      `json:"entity_count"`
	RelationshipCount int      `json:"relationship_count"`
}
