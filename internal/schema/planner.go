// Package schema computes the ordered Solr Schema API mutations that converge a
// live schema onto the target catalog.
//
// Planning is a full teardown followed by a full rebuild: every copy field,
// dynamic field and field in the live schema is deleted, field types are added or
// replaced, and the catalog fields are added back. Every existence check reads
// the snapshot as it was before the plan, so a type added by the plan does not
// make fields referencing it eligible until the next run.
package schema

// Planner builds mutation plans
type Planner struct {
	fields   []FieldSpec
	notifier LanguageNotifier
}

// Option configures a Planner
type Option func(*Planner)

// WithLanguageNotifier sets the observer called for each derived language field
func WithLanguageNotifier(n LanguageNotifier) Option {
	return func(p *Planner) {
		p.notifier = n
	}
}

// WithFields replaces the static field catalog
func WithFields(fields []FieldSpec) Option {
	return func(p *Planner) {
		p.fields = fields
	}
}

// NewPlanner creates a planner over the built-in catalogs
func NewPlanner(opts ...Option) *Planner {
	p := &Planner{fields: RequiredFields()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildPlan computes the plan for a snapshot and the configured language codes
func (p *Planner) BuildPlan(snap *Snapshot, languages []string) (*Plan, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}

	ops := RemovalOperations(snap)

	for _, ft := range RequiredFieldTypes(snap) {
		ops = append(ops, FieldTypeOperation(ft, snap))
	}

	static := AvailableFields(p.fields, snap)
	for _, f := range static {
		ops = append(ops, FieldOperation(f))
	}
	for _, f := range DeriveLanguageFields(static, languages, snap, p.notifier) {
		ops = append(ops, FieldOperation(f))
	}

	return &Plan{Operations: ops}, nil
}

// RemovalOperations deletes every copy field, then every dynamic field, then every
// field of the snapshot, each group in snapshot order. Entries with an empty name,
// source or dest are skipped.
func RemovalOperations(snap *Snapshot) []Operation {
	ops := make([]Operation, 0, len(snap.CopyFields)+len(snap.DynamicFields)+len(snap.Fields))
	for _, cf := range snap.CopyFields {
		if cf.Source == "" || cf.Dest == "" {
			continue
		}
		ops = append(ops, Operation{
			Command: DeleteCopyField,
			Params: Params{
				{Key: "source", Value: cf.Source},
				{Key: "dest", Value: cf.Dest},
			},
		})
	}
	for _, name := range snap.DynamicFields {
		if name == "" {
			continue
		}
		ops = append(ops, Operation{Command: DeleteDynamicField, Params: Params{{Key: "name", Value: name}}})
	}
	for _, name := range snap.Fields {
		if name == "" {
			continue
		}
		ops = append(ops, Operation{Command: DeleteField, Params: Params{{Key: "name", Value: name}}})
	}
	return ops
}
