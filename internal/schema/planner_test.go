package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catalogTypes are all types the static catalog references, minus random and ignored
var catalogTypes = []FieldTypeInfo{
	{Name: "string", Class: "solr.StrField"},
	{Name: "lowercase", Class: "solr.TextField"},
	{Name: "boolean", Class: "solr.BoolField"},
	{Name: "pint", Class: "solr.IntPointField"},
	{Name: "plong", Class: "solr.LongPointField"},
	{Name: "pfloat", Class: "solr.FloatPointField"},
	{Name: "pdouble", Class: "solr.DoublePointField"},
	{Name: "pdate", Class: "solr.DatePointField"},
	{Name: "location", Class: "solr.LatLonPointSpatialField"},
	{Name: "location_rpt", Class: "solr.SpatialRecursivePrefixTreeFieldType"},
	{Name: "currency", Class: "solr.CurrencyFieldType"},
	{Name: "text_general", Class: "solr.TextField"},
	{Name: "text_general_rev", Class: "solr.TextField"},
	{Name: "alphaOnlySort", Class: "solr.TextField"},
}

func fullSnapshot() *Snapshot {
	types := append([]FieldTypeInfo(nil), catalogTypes...)
	for _, lang := range LanguageAnalyzers {
		types = append(types, FieldTypeInfo{Name: lang.Type, Class: "solr.TextField"})
	}
	return &Snapshot{FieldTypes: types}
}

func without(snap *Snapshot, names ...string) *Snapshot {
	drop := make(map[string]bool)
	for _, n := range names {
		drop[n] = true
	}
	out := &Snapshot{}
	for _, ft := range snap.FieldTypes {
		if !drop[ft.Name] {
			out.FieldTypes = append(out.FieldTypes, ft)
		}
	}
	return out
}

func names(ops []Operation) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.Name())
	}
	return out
}

func findOp(plan *Plan, cmd Command, name string) (Operation, bool) {
	for _, op := range plan.Filter(cmd) {
		if op.Name() == name {
			return op, true
		}
	}
	return Operation{}, false
}

// applyPlan simulates the Schema API applying a plan to a live schema
func applyPlan(t *testing.T, snap *Snapshot, plan *Plan) *Snapshot {
	t.Helper()
	out := &Snapshot{FieldTypes: append([]FieldTypeInfo(nil), snap.FieldTypes...)}
	fields := append([]string(nil), snap.Fields...)
	dynamic := append([]string(nil), snap.DynamicFields...)
	copies := append([]CopyField(nil), snap.CopyFields...)

	remove := func(list []string, name string) []string {
		for i, n := range list {
			if n == name {
				return append(list[:i], list[i+1:]...)
			}
		}
		t.Fatalf("delete of unknown entry %q", name)
		return list
	}

	for _, op := range plan.Operations {
		switch op.Command {
		case DeleteCopyField:
			copies = copies[1:]
		case DeleteDynamicField:
			dynamic = remove(dynamic, op.Name())
		case DeleteField:
			fields = remove(fields, op.Name())
		case AddFieldType:
			require.False(t, out.HasFieldType(op.Name()), "add of existing type %s", op.Name())
			class, _ := op.Params.Get("class")
			out.FieldTypes = append(out.FieldTypes, FieldTypeInfo{Name: op.Name(), Class: class.(string)})
		case ReplaceFieldType:
			require.True(t, out.HasFieldType(op.Name()), "replace of missing type %s", op.Name())
		case AddField:
			fields = append(fields, op.Name())
		case AddDynamicField:
			dynamic = append(dynamic, op.Name())
		}
	}
	require.Empty(t, copies)
	out.Fields = fields
	out.DynamicFields = dynamic
	return out
}

func TestBuildPlan_NilSnapshot(t *testing.T) {
	_, err := NewPlanner().BuildPlan(nil, []string{"en"})
	assert.ErrorIs(t, err, ErrNilSnapshot)
}

func TestBuildPlan_EmptySchema(t *testing.T) {
	var notified []string
	planner := NewPlanner(WithLanguageNotifier(func(code, fieldType string) {
		notified = append(notified, code+"="+fieldType)
	}))

	plan, err := planner.BuildPlan(&Snapshot{}, []string{"en", "fr", "xx"})
	require.NoError(t, err)
	require.NoError(t, plan.Validate())

	summary := plan.Summary()
	assert.Zero(t, summary.Removals)
	assert.Equal(t, []string{"random", "ignored"}, names(plan.Filter(AddFieldType)))
	assert.Empty(t, plan.Filter(ReplaceFieldType))
	assert.Empty(t, plan.Filter(AddField))

	// nothing in the static catalog survives, so every language is derived
	dynamic := plan.Filter(AddDynamicField)
	assert.Equal(t, []string{"*_t_en", "*_t_fr", "*_t_xx"}, names(dynamic))
	for _, op := range dynamic {
		assert.Equal(t, TextGeneralType, op.Type())
	}
	assert.Equal(t, []string{"en=text_general", "fr=text_general", "xx=text_general"}, notified)
}

func TestBuildPlan_RemovalPhase(t *testing.T) {
	snap := fullSnapshot()
	snap.CopyFields = []CopyField{{Source: "title", Dest: "text"}, {Source: "body", Dest: "text"}}
	snap.DynamicFields = []string{"*_s", "*_x"}
	snap.Fields = []string{"id", "title", "_version_"}

	plan, err := NewPlanner().BuildPlan(snap, nil)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(plan.Operations), 7)
	head := plan.Operations[:7]
	assert.Equal(t, DeleteCopyField, head[0].Command)
	src, _ := head[0].Params.Get("source")
	dest, _ := head[0].Params.Get("dest")
	assert.Equal(t, "title", src)
	assert.Equal(t, "text", dest)
	assert.Equal(t, DeleteCopyField, head[1].Command)
	assert.Equal(t, []string{"*_s", "*_x"}, names(head[2:4]))
	assert.Equal(t, DeleteDynamicField, head[2].Command)
	assert.Equal(t, []string{"id", "title", "_version_"}, names(head[4:7]))
	assert.Equal(t, DeleteField, head[6].Command)
	assert.Equal(t, 7, plan.Summary().Removals)
}

func TestRemovalOperations_SkipsEmptyEntries(t *testing.T) {
	snap := &Snapshot{
		CopyFields:    []CopyField{{Source: "", Dest: "text"}, {Source: "title", Dest: ""}, {Source: "body", Dest: "text"}},
		DynamicFields: []string{"", "*_s"},
		Fields:        []string{"id", ""},
	}

	ops := RemovalOperations(snap)

	require.Len(t, ops, 3)
	src, _ := ops[0].Params.Get("source")
	assert.Equal(t, "body", src)
	assert.Equal(t, []string{"*_s", "id"}, names(ops[1:]))
	for _, op := range ops {
		assert.NotContains(t, string(mustEncode(t, op)), `""`)
	}
}

func mustEncode(t *testing.T, op Operation) []byte {
	t.Helper()
	body, err := EncodeOperations([]Operation{op})
	require.NoError(t, err)
	return body
}

func TestBuildPlan_OrderingInvariant(t *testing.T) {
	snapshots := map[string]*Snapshot{
		"empty": {},
		"full":  fullSnapshot(),
		"populated": {
			Fields:        []string{"id"},
			DynamicFields: []string{"*_s"},
			CopyFields:    []CopyField{{Source: "a", Dest: "b"}},
			FieldTypes:    []FieldTypeInfo{{Name: "string", Class: "solr.StrField"}, {Name: "random", Class: "solr.RandomSortField"}},
		},
	}

	for name, snap := range snapshots {
		t.Run(name, func(t *testing.T) {
			plan, err := NewPlanner().BuildPlan(snap, []string{"en", "pl", "xx"})
			require.NoError(t, err)
			require.NoError(t, plan.Validate())

			last := PhaseRemove
			for _, op := range plan.Operations {
				assert.GreaterOrEqual(t, op.Command.Phase(), last, "operation %s %s", op.Command, op.Name())
				last = op.Command.Phase()
			}
		})
	}
}

func TestBuildPlan_DropsFieldsWithMissingType(t *testing.T) {
	plan, err := NewPlanner().BuildPlan(without(fullSnapshot(), "pdate"), nil)
	require.NoError(t, err)

	for _, name := range []string{"_created", "_updated", "_indextimestamp"} {
		_, ok := findOp(plan, AddField, name)
		assert.False(t, ok, "%s should be dropped", name)
	}
	for _, name := range []string{"*_dt", "*_tdt", "*_tdtm"} {
		_, ok := findOp(plan, AddDynamicField, name)
		assert.False(t, ok, "%s should be dropped", name)
	}
	_, ok := findOp(plan, AddField, "_uniqueid")
	assert.True(t, ok)
}

func TestBuildPlan_FullCatalog(t *testing.T) {
	plan, err := NewPlanner().BuildPlan(fullSnapshot(), []string{"en", "de", "cs"})
	require.NoError(t, err)

	// random and ignored are only added by this plan, so their dynamic fields wait a run
	_, ok := findOp(plan, AddDynamicField, "*_random")
	assert.False(t, ok)
	_, ok = findOp(plan, AddDynamicField, "*_ignored")
	assert.False(t, ok)

	expected := len(RequiredFields()) - 2
	assert.Equal(t, expected, plan.Summary().Fields)

	cs, ok := findOp(plan, AddDynamicField, "*_t_cs")
	require.True(t, ok)
	assert.Equal(t, "text_cz", cs.Type())
	nb, ok := findOp(plan, AddDynamicField, "*_t_nb")
	require.True(t, ok)
	assert.Equal(t, "text_no", nb.Type())
}

func TestBuildPlan_StaticFieldOrder(t *testing.T) {
	plan, err := NewPlanner().BuildPlan(fullSnapshot(), nil)
	require.NoError(t, err)

	var got []string
	for _, op := range plan.Operations {
		if op.Command.Phase() == PhaseField {
			got = append(got, op.Name())
		}
	}
	require.NotEmpty(t, got)
	assert.Equal(t, "_content", got[0])
	assert.Equal(t, "*_rpt", got[len(got)-1])
}

func TestBuildPlan_LanguageFallback(t *testing.T) {
	var notified []string
	planner := NewPlanner(WithLanguageNotifier(func(code, fieldType string) {
		notified = append(notified, code)
	}))

	// text_de is missing: the static *_t_de is dropped and rederived on text_general
	snap := without(fullSnapshot(), "text_de")
	snap.FieldTypes = append(snap.FieldTypes, FieldTypeInfo{Name: "text_pl", Class: "solr.TextField"})

	plan, err := planner.BuildPlan(snap, []string{"de", "pl", "xx", "en"})
	require.NoError(t, err)

	de, ok := findOp(plan, AddDynamicField, "*_t_de")
	require.True(t, ok)
	assert.Equal(t, TextGeneralType, de.Type())

	pl, ok := findOp(plan, AddDynamicField, "*_t_pl")
	require.True(t, ok)
	assert.Equal(t, "text_pl", pl.Type())

	xx, ok := findOp(plan, AddDynamicField, "*_t_xx")
	require.True(t, ok)
	assert.Equal(t, TextGeneralType, xx.Type())

	assert.Equal(t, []string{"de", "pl", "xx"}, notified)
}

func TestBuildPlan_LanguageFallbackWithoutGeneralType(t *testing.T) {
	plan, err := NewPlanner().BuildPlan(without(fullSnapshot(), TextGeneralType), []string{"xx"})
	require.NoError(t, err)

	xx, ok := findOp(plan, AddDynamicField, "*_t_xx")
	require.True(t, ok)
	assert.Equal(t, TextGeneralType, xx.Type())
	assert.Empty(t, plan.Filter(ReplaceFieldType))
}

func TestBuildPlan_LanguageDeduplication(t *testing.T) {
	plan, err := NewPlanner().BuildPlan(fullSnapshot(), []string{"pl", "pl", "en", "en", ""})
	require.NoError(t, err)

	count := map[string]int{}
	for _, op := range plan.Filter(AddDynamicField) {
		count[op.Name()]++
	}
	assert.Equal(t, 1, count["*_t_pl"])
	assert.Equal(t, 1, count["*_t_en"])
	assert.Zero(t, count["*_t_"])
}

func TestBuildPlan_FieldTypeAddOrReplace(t *testing.T) {
	snap := fullSnapshot()
	snap.FieldTypes = append(snap.FieldTypes, FieldTypeInfo{Name: "random", Class: "solr.RandomSortField"})

	plan, err := NewPlanner().BuildPlan(snap, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{TextGeneralType, "random"}, names(plan.Filter(ReplaceFieldType)))
	assert.Equal(t, []string{"ignored"}, names(plan.Filter(AddFieldType)))

	// the override comes first among the field types
	types := plan.Operations[:3]
	assert.Equal(t, TextGeneralType, types[0].Name())
}

func TestBuildPlan_TextGeneralKeepsLiveClass(t *testing.T) {
	snap := &Snapshot{FieldTypes: []FieldTypeInfo{{Name: TextGeneralType, Class: "solr.SortableTextField"}}}

	plan, err := NewPlanner().BuildPlan(snap, nil)
	require.NoError(t, err)

	op, ok := findOp(plan, ReplaceFieldType, TextGeneralType)
	require.True(t, ok)
	class, _ := op.Params.Get("class")
	assert.Equal(t, "solr.SortableTextField", class)
	_, ok = op.Params.Get("indexAnalyzer")
	assert.True(t, ok)
	_, ok = op.Params.Get("queryAnalyzer")
	assert.True(t, ok)
}

func TestBuildPlan_Idempotent(t *testing.T) {
	planner := NewPlanner()
	langs := []string{"en", "pl", "xx"}

	first, err := planner.BuildPlan(fullSnapshot(), langs)
	require.NoError(t, err)
	s1 := applyPlan(t, fullSnapshot(), first)

	// the second run picks up fields on types added by the first
	second, err := planner.BuildPlan(s1, langs)
	require.NoError(t, err)
	s2 := applyPlan(t, s1, second)

	third, err := planner.BuildPlan(s2, langs)
	require.NoError(t, err)
	s3 := applyPlan(t, s2, third)

	assert.Equal(t, s2, s3)
	assert.Contains(t, s2.DynamicFields, "*_random")
	assert.Contains(t, s2.DynamicFields, "*_ignored")

	fourth, err := planner.BuildPlan(s3, langs)
	require.NoError(t, err)
	assert.Equal(t, third.Operations, fourth.Operations)
}

func TestBuildPlan_CustomCatalog(t *testing.T) {
	planner := NewPlanner(WithFields([]FieldSpec{
		{Name: "title", Type: "string", Indexed: true, Stored: true},
		{Name: "*_t_en", Type: "text_en", Indexed: true, Stored: true, IsDynamic: true},
	}))

	plan, err := planner.BuildPlan(fullSnapshot(), []string{"en", "de"})
	require.NoError(t, err)

	assert.Equal(t, []string{"title"}, names(plan.Filter(AddField)))
	assert.Equal(t, []string{"*_t_en", "*_t_de"}, names(plan.Filter(AddDynamicField)))
}
