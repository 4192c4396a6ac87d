package schema

import (
	"errors"
)

// Command is a Solr Schema API command name
type Command string

const (
	AddField           Command = "add-field"
	AddDynamicField    Command = "add-dynamic-field"
	DeleteField        Command = "delete-field"
	DeleteDynamicField Command = "delete-dynamic-field"
	DeleteCopyField    Command = "delete-copy-field"
	AddFieldType       Command = "add-field-type"
	ReplaceFieldType   Command = "replace-field-type"
)

// Phase groups commands by the position they must occupy in a plan
type Phase int

const (
	PhaseRemove Phase = iota
	PhaseFieldType
	PhaseField
)

// Phase returns the plan phase a command belongs to
func (c Command) Phase() Phase {
	switch c {
	case DeleteCopyField, DeleteDynamicField, DeleteField:
		return PhaseRemove
	case AddFieldType, ReplaceFieldType:
		return PhaseFieldType
	default:
		return PhaseField
	}
}

// ErrNilSnapshot is returned when planning is attempted without a schema snapshot
var ErrNilSnapshot = errors.New("schema snapshot is required")

// Property is a single named field type attribute. Values are passed through verbatim.
type Property struct {
	Name  string
	Value string
}

// Analyzer describes a tokenizer and its ordered filter chain
type Analyzer struct {
	Tokenizer Params
	Filters   []Params
}

// FieldTypeSpec is a field type the target schema requires
type FieldTypeSpec struct {
	Name          string
	Class         string
	Properties    []Property
	IndexAnalyzer *Analyzer
	QueryAnalyzer *Analyzer
}

// FieldSpec is a field or dynamic field the target schema requires
type FieldSpec struct {
	Name          string
	Type          string
	Required      bool
	Indexed       bool
	Stored        bool
	MultiValued   bool
	OmitNorms     bool
	TermVectors   bool
	TermPositions bool
	TermOffsets   bool
	DefaultValue  string
	DocValues     *bool
	IsDynamic     bool
}

// CopyField is a copy-field directive present in the live schema
type CopyField struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
}

// FieldTypeInfo is a field type present in the live schema
type FieldTypeInfo struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

// Snapshot is a read-only view of the live schema
type Snapshot struct {
	Fields        []string
	DynamicFields []string
	CopyFields    []CopyField
	FieldTypes    []FieldTypeInfo
}

// FieldType looks up a live field type by exact name
func (s *Snapshot) FieldType(name string) (FieldTypeInfo, bool) {
	for _, ft := range s.FieldTypes {
		if ft.Name == name {
			return ft, true
		}
	}
	return FieldTypeInfo{}, false
}

// HasFieldType reports whether a field type with this name exists in the live schema
func (s *Snapshot) HasFieldType(name string) bool {
	_, ok := s.FieldType(name)
	return ok
}
