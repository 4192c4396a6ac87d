package schema

// LanguageNotifier is told about every language field the deriver adds
type LanguageNotifier func(code, fieldType string)

// DeriveLanguageFields adds a dynamic text field for every configured language
// not already covered by the static fields. Unlike the static catalog, a missing
// language type falls back to text_general instead of dropping the field, and the
// fallback is used whether or not text_general exists itself.
func DeriveLanguageFields(static []FieldSpec, codes []string, snap *Snapshot, notify LanguageNotifier) []FieldSpec {
	declared := make(map[string]struct{}, len(static))
	for _, f := range static {
		if f.Name != "" {
			declared[f.Name] = struct{}{}
		}
	}

	var derived []FieldSpec
	for _, code := range codes {
		if code == "" {
			continue
		}
		name := LanguageTextFieldPrefix + code
		if _, ok := declared[name]; ok {
			continue
		}
		declared[name] = struct{}{}

		fieldType := LanguageTypePrefix + code
		if !snap.HasFieldType(fieldType) {
			fieldType = TextGeneralType
		}
		derived = append(derived, LanguageTextField(code, fieldType))
		if notify != nil {
			notify(code, fieldType)
		}
	}
	return derived
}
