package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyDeleted      = errors.New("already deleted")
	ErrNoFieldsToUpdate    = errors.New("no fields to update")
	ErrNoCandidates        = errors.New("no active ontologies available")
	ErrClassificationParse = errors.New("classifier response is not valid JSON")
)
