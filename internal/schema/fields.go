package schema

// Dynamic text field naming: "*_t" for the default language, "*_t_<code>" per language.
const (
	TextFieldSuffix         = "*_t"
	LanguageTextFieldPrefix = "*_t_"
	LanguageTypePrefix      = "text_"
)

var docValuesOff = false

var systemFields = []FieldSpec{
	{Name: "_content", Type: "text_general", Indexed: true},
	{Name: "_database", Type: "lowercase", Indexed: true, Stored: true},
	{Name: "_path", Type: "string", Indexed: true, Stored: true, MultiValued: true},
	{Name: "_uniqueid", Type: "string", Required: true, Indexed: true, Stored: true},
	{Name: "_datasource", Type: "lowercase", Required: true, Indexed: true, Stored: true},
	{Name: "_parent", Type: "string", Indexed: true, Stored: true},
	{Name: "_name", Type: "text_general", Indexed: true, Stored: true},
	{Name: "_displayname", Type: "text_general", Indexed: true, Stored: true},
	{Name: "_language", Type: "string", Indexed: true, Stored: true},
	{Name: "_creator", Type: "lowercase", Indexed: true, Stored: true},
	{Name: "_editor", Type: "lowercase", Indexed: true, Stored: true},
	{Name: "_created", Type: "pdate", Indexed: true, Stored: true},
	{Name: "_updated", Type: "pdate", Indexed: true, Stored: true},
	{Name: "_hidden", Type: "boolean", Indexed: true},
	{Name: "_template", Type: "lowercase", Indexed: true, Stored: true},
	{Name: "_templatename", Type: "lowercase", Indexed: true, Stored: true},
	{Name: "_templates", Type: "string", Indexed: true, Stored: true, MultiValued: true},
	{Name: "_icon", Type: "lowercase", Indexed: true, Stored: true},
	{Name: "_links", Type: "lowercase", Indexed: true, Stored: true, MultiValued: true},
	{Name: "_tags", Type: "lowercase", Indexed: true, Stored: true, MultiValued: true},
	{Name: "_group", Type: "string", Indexed: true, Stored: true},
	{Name: "_indexname", Type: "lowercase", Indexed: true, Stored: true},
	{Name: "_latestversion", Type: "boolean", Indexed: true, Stored: true},
	{Name: "_indextimestamp", Type: "pdate", Indexed: true, Stored: true, DefaultValue: "NOW"},
	{Name: "_fullpath", Type: "lowercase", Indexed: true, Stored: true},
	{Name: "_isclone", Type: "boolean", Indexed: true, Stored: true},
	{Name: "_version", Type: "string", Indexed: true, Stored: true},
	{Name: "_hash", Type: "string", Indexed: true, Stored: true},
	{Name: "__semantics", Type: "string", Indexed: true, Stored: true, MultiValued: true},
	{Name: "__boost", Type: "pfloat", Indexed: true, Stored: true, OmitNorms: true, DefaultValue: "0"},
	{Name: "_readaccess", Type: "lowercase", Indexed: true, MultiValued: true, DocValues: &docValuesOff},
	{Name: "lock", Type: "boolean", Indexed: true},
	{Name: "__bucketable", Type: "boolean", Indexed: true},
	{Name: "__workflow_state", Type: "string", Indexed: true},
	{Name: "__is_bucket", Type: "boolean", Indexed: true},
	{Name: "is_displayed_in_search_results", Type: "boolean", Indexed: true},
	{Name: "text", Type: "text_general", Indexed: true, MultiValued: true},
	{Name: "text_rev", Type: "text_general_rev", Indexed: true, MultiValued: true},
	{Name: "alphaNameSort", Type: "alphaOnlySort", Indexed: true},
	{Name: "__hidden", Type: "boolean", Indexed: true},
	{Name: "_version_", Type: "plong", Indexed: true, Stored: true},
	{Name: TextFieldSuffix, Type: "text_general", Indexed: true, Stored: true, IsDynamic: true},
}

// LanguageAnalyzers maps the language codes with a dedicated dynamic text field
// to their analyzer type. Most follow text_<code>; cs and nb do not.
var LanguageAnalyzers = []struct {
	Code string
	Type string
}{
	{"en", "text_en"},
	{"ar", "text_ar"},
	{"bg", "text_bg"},
	{"ca", "text_ca"},
	{"cs", "text_cz"},
	{"da", "text_da"},
	{"de", "text_de"},
	{"el", "text_el"},
	{"es", "text_es"},
	{"eu", "text_eu"},
	{"fa", "text_fa"},
	{"fi", "text_fi"},
	{"fr", "text_fr"},
	{"ga", "text_ga"},
	{"gl", "text_gl"},
	{"hi", "text_hi"},
	{"hu", "text_hu"},
	{"hy", "text_hy"},
	{"id", "text_id"},
	{"it", "text_it"},
	{"ja", "text_ja"},
	{"lv", "text_lv"},
	{"nl", "text_nl"},
	{"nb", "text_no"},
	{"pt", "text_pt"},
	{"ro", "text_ro"},
	{"ru", "text_ru"},
	{"sv", "text_sv"},
	{"th", "text_th"},
	{"tr", "text_tr"},
}

var patternFields = []FieldSpec{
	{Name: "*_i", Type: "pint", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_s", Type: "string", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_sm", Type: "string", Indexed: true, Stored: true, MultiValued: true, IsDynamic: true},
	{Name: "*_ls", Type: "lowercase", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_lsm", Type: "lowercase", Indexed: true, Stored: true, MultiValued: true, IsDynamic: true},
	{Name: "*_im", Type: "pint", Indexed: true, Stored: true, MultiValued: true, IsDynamic: true},
	{Name: "*_txm", Type: "text_general", Indexed: true, Stored: true, MultiValued: true, IsDynamic: true},
	{Name: "*_b", Type: "boolean", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_dt", Type: "pdate", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_p", Type: "location", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_ti", Type: "pint", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_tl", Type: "plong", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_tf", Type: "pfloat", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_td", Type: "pdouble", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_tdt", Type: "pdate", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_tdtm", Type: "pdate", Indexed: true, Stored: true, MultiValued: true, IsDynamic: true},
	{Name: "*_pi", Type: "pint", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_c", Type: "currency", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_ignored", Type: "ignored", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_random", Type: "random", Indexed: true, Stored: true, IsDynamic: true},
	{Name: "*_rpt", Type: "location_rpt", Indexed: true, Stored: true, IsDynamic: true},
}

// LanguageTextField builds the dynamic text field for one language
func LanguageTextField(code, fieldType string) FieldSpec {
	return FieldSpec{
		Name:      LanguageTextFieldPrefix + code,
		Type:      fieldType,
		Indexed:   true,
		Stored:    true,
		IsDynamic: true,
	}
}

// RequiredFields returns the full static field catalog in declaration order.
// The returned slice is a fresh copy on every call.
func RequiredFields() []FieldSpec {
	fields := make([]FieldSpec, 0, len(systemFields)+len(LanguageAnalyzers)+len(patternFields))
	fields = append(fields, systemFields...)
	for _, lang := range LanguageAnalyzers {
		fields = append(fields, LanguageTextField(lang.Code, lang.Type))
	}
	return append(fields, patternFields...)
}

// AvailableFields drops every catalog entry whose type the live schema lacks
func AvailableFields(catalog []FieldSpec, snap *Snapshot) []FieldSpec {
	out := make([]FieldSpec, 0, len(catalog))
	for _, f := range catalog {
		if snap.HasFieldType(f.Type) {
			out = append(out, f)
		}
	}
	return out
}

// FieldOperation renders an add-field or add-dynamic-field command. Optional
// flags are only written when set.
func FieldOperation(f FieldSpec) Operation {
	cmd := AddField
	if f.IsDynamic {
		cmd = AddDynamicField
	}

	params := Params{
		{Key: "name", Value: f.Name},
		{Key: "type", Value: f.Type},
		{Key: "indexed", Value: f.Indexed},
		{Key: "stored", Value: f.Stored},
	}
	flags := []struct {
		key string
		set bool
	}{
		{"required", f.Required},
		{"multiValued", f.MultiValued},
		{"omitNorms", f.OmitNorms},
		{"termVectors", f.TermVectors},
		{"termPositions", f.TermPositions},
		{"termOffsets", f.TermOffsets},
	}
	for _, flag := range flags {
		if flag.set {
			params = append(params, Param{Key: flag.key, Value: true})
		}
	}
	if f.DefaultValue != "" {
		params = append(params, Param{Key: "default", Value: f.DefaultValue})
	}
	if f.DocValues != nil {
		params = append(params, Param{Key: "docValues", Value: *f.DocValues})
	}
	return Operation{Command: cmd, Params: params}
}
