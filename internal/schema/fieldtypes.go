package schema

// TextGeneralType is the general purpose text type and the fallback for
// languages without a dedicated analyzer type.
const TextGeneralType = "text_general"

// Auxiliary analyzer resources, referenced by name only
const (
	StopwordsResource = "stopwords.txt"
	SynonymsResource  = "synonyms.txt"
)

var requiredFieldTypes = []FieldTypeSpec{
	{
		Name:  "random",
		Class: "solr.RandomSortField",
		Properties: []Property{
			{Name: "indexed", Value: "true"},
		},
	},
	{
		Name:  "ignored",
		Class: "solr.StrField",
		Properties: []Property{
			{Name: "indexed", Value: "false"},
			{Name: "stored", Value: "false"},
			{Name: "docValues", Value: "false"},
			{Name: "multiValued", Value: "true"},
		},
	},
}

func stopFilter() Params {
	return Params{
		{Key: "class", Value: "solr.StopFilterFactory"},
		{Key: "ignoreCase", Value: "true"},
		{Key: "words", Value: StopwordsResource},
	}
}

func lowerCaseFilter() Params {
	return Params{{Key: "class", Value: "solr.LowerCaseFilterFactory"}}
}

func standardTokenizer() Params {
	return Params{{Key: "class", Value: "solr.StandardTokenizerFactory"}}
}

// textGeneralOverride redefines the analyzer chain of the live text_general type,
// keeping its implementation class. It is only produced when the type exists.
func textGeneralOverride(snap *Snapshot) (FieldTypeSpec, bool) {
	live, ok := snap.FieldType(TextGeneralType)
	if !ok {
		return FieldTypeSpec{}, false
	}
	return FieldTypeSpec{
		Name:  live.Name,
		Class: live.Class,
		Properties: []Property{
			{Name: "positionIncrementGap", Value: "100"},
			{Name: "multiValued", Value: "false"},
		},
		IndexAnalyzer: &Analyzer{
			Tokenizer: standardTokenizer(),
			Filters:   []Params{stopFilter(), lowerCaseFilter()},
		},
		QueryAnalyzer: &Analyzer{
			Tokenizer: standardTokenizer(),
			Filters: []Params{
				stopFilter(),
				{
					{Key: "class", Value: "solr.SynonymFilterFactory"},
					{Key: "synonyms", Value: SynonymsResource},
					{Key: "ignoreCase", Value: "true"},
					{Key: "expand", Value: "true"},
				},
				lowerCaseFilter(),
			},
		},
	}, true
}

// RequiredFieldTypes lists the field types the target schema declares, in plan
// order: the text_general override first (when the live schema has that type),
// then the fixed types.
func RequiredFieldTypes(snap *Snapshot) []FieldTypeSpec {
	types := make([]FieldTypeSpec, 0, len(requiredFieldTypes)+1)
	if override, ok := textGeneralOverride(snap); ok {
		types = append(types, override)
	}
	return append(types, requiredFieldTypes...)
}

// FieldTypeOperation chooses replace when the type exists in the live schema and add otherwise
func FieldTypeOperation(ft FieldTypeSpec, snap *Snapshot) Operation {
	cmd := AddFieldType
	if snap.HasFieldType(ft.Name) {
		cmd = ReplaceFieldType
	}

	params := Params{
		{Key: "name", Value: ft.Name},
		{Key: "class", Value: ft.Class},
	}
	for _, prop := range ft.Properties {
		params = append(params, Param{Key: prop.Name, Value: prop.Value})
	}
	if ft.IndexAnalyzer != nil {
		params = append(params, Param{Key: "indexAnalyzer", Value: ft.IndexAnalyzer.Params()})
	}
	if ft.QueryAnalyzer != nil {
		params = append(params, Param{Key: "queryAnalyzer", Value: ft.QueryAnalyzer.Params()})
	}
	return Operation{Command: cmd, Params: params}
}
