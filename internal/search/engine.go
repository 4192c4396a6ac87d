package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/davidschrooten/solr-schema-sync/internal/schema"
)

// Kinds of catalog entries
const (
	KindField        = "field"
	KindDynamicField = "dynamicField"
	KindFieldType    = "fieldType"
)

const defaultSize = 20

// Engine keeps the fields and field types of the latest plan in an in-memory Bleve index
type Engine struct {
	index bleve.Index
	mutex sync.RWMutex
}

// Entry is one indexed field, dynamic field or field type
type Entry struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Command     string `json:"command"`
	Type        string `json:"type,omitempty"`
	Class       string `json:"class,omitempty"`
	Indexed     bool   `json:"indexed"`
	Stored      bool   `json:"stored"`
	MultiValued bool   `json:"multiValued"`
}

// SearchRequest represents a catalog query
type SearchRequest struct {
	Query string `json:"query"` // Bleve query string, empty matches everything
	Kind  string `json:"kind,omitempty"`
	Size  int    `json:"size"`
	From  int    `json:"from"`
}

// SearchHit represents a single search result
type SearchHit struct {
	ID     string                 `json:"_id"`
	Score  float64                `json:"score"`
	Source map[string]interface{} `json:"source"`
}

// SearchResult represents catalog search results
type SearchResult struct {
	Hits  []SearchHit `json:"hits"`
	Total uint64      `json:"total"`
}

// NewEngine creates an empty catalog
func NewEngine() (*Engine, error) {
	index, err := bleve.NewMemOnly(createMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index: %w", err)
	}
	return &Engine{index: index}, nil
}

// createMapping indexes every attribute verbatim, since field names like *_t_en must not be tokenized
func createMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = keyword.Name

	doc := bleve.NewDocumentMapping()
	for _, name := range []string{"name", "kind", "command", "type", "class"} {
		doc.AddFieldMappingsAt(name, bleve.NewKeywordFieldMapping())
	}
	for _, name := range []string{"indexed", "stored", "multiValued"} {
		doc.AddFieldMappingsAt(name, bleve.NewBooleanFieldMapping())
	}
	indexMapping.DefaultMapping = doc

	return indexMapping
}

// EntriesFromPlan extracts the additions and replacements of a plan
func EntriesFromPlan(plan *schema.Plan) []Entry {
	var entries []Entry
	for _, op := range plan.Operations {
		entry := Entry{Name: op.Name(), Command: string(op.Command)}
		switch op.Command {
		case schema.AddField:
			entry.Kind = KindField
		case schema.AddDynamicField:
			entry.Kind = KindDynamicField
		case schema.AddFieldType, schema.ReplaceFieldType:
			entry.Kind = KindFieldType
		default:
			continue
		}
		entry.Type = op.Type()
		if v, ok := op.Params.Get("class"); ok {
			entry.Class, _ = v.(string)
		}
		entry.Indexed = paramBool(op.Params, "indexed")
		entry.Stored = paramBool(op.Params, "stored")
		entry.MultiValued = paramBool(op.Params, "multiValued")
		entries = append(entries, entry)
	}
	return entries
}

// field type properties are strings, field flags are bools
func paramBool(p schema.Params, key string) bool {
	v, ok := p.Get(key)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}

// Rebuild indexes the plan into a fresh index and swaps it in
func (e *Engine) Rebuild(plan *schema.Plan) error {
	index, err := bleve.NewMemOnly(createMapping())
	if err != nil {
		return fmt.Errorf("failed to create catalog index: %w", err)
	}

	batch := index.NewBatch()
	for _, entry := range EntriesFromPlan(plan) {
		if err := batch.Index(entry.Kind+":"+entry.Name, entry); err != nil {
			index.Close()
			return fmt.Errorf("failed to index %s: %w", entry.Name, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return fmt.Errorf("failed to index catalog: %w", err)
	}

	e.mutex.Lock()
	old := e.index
	e.index = index
	e.mutex.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

// Count returns the number of catalog entries
func (e *Engine) Count() (uint64, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.index.DocCount()
}

// Search performs a catalog query
func (e *Engine) Search(req SearchRequest) (*SearchResult, error) {
	var q query.Query = bleve.NewMatchAllQuery()
	if req.Query != "" {
		q = bleve.NewQueryStringQuery(req.Query)
	}
	if req.Kind != "" {
		kind := bleve.NewTermQuery(req.Kind)
		kind.SetField("kind")
		q = bleve.NewConjunctionQuery(q, kind)
	}

	size := req.Size
	if size <= 0 {
		size = defaultSize
	}

	searchReq := bleve.NewSearchRequestOptions(q, size, req.From, false)
	searchReq.Fields = []string{"*"}
	searchReq.SortBy([]string{"-_score", "name"})

	e.mutex.RLock()
	result, err := e.index.Search(searchReq)
	e.mutex.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := &SearchResult{
		Hits:  make([]SearchHit, 0, len(result.Hits)),
		Total: result.Total,
	}
	for _, hit := range result.Hits {
		out.Hits = append(out.Hits, SearchHit{
			ID:     hit.ID,
			Score:  hit.Score,
			Source: hit.Fields,
		})
	}
	return out, nil
}

// Close closes the index
func (e *Engine) Close() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return e.index.Close()
}
