package search

import (
	"github.com/davidschrooten/solr-schema-sync/internal/schema"
)

// FieldCatalog defines the searchable view of the target schema
// This interface allows for easy mocking and testing
type FieldCatalog interface {
	// Rebuild replaces the catalog contents with the additions of a plan
	Rebuild(plan *schema.Plan) error

	// Search operations
	Search(req SearchRequest) (*SearchResult, error)
	Count() (uint64, error)

	// Lifecycle
	Close() error
}
