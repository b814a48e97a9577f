package merge

import (
	"fmt"

	"bookshelf/internal/metadata"
)

// Metadata holds one FieldValue per tracked field.
type Metadata map[metadata.Field]FieldValue

// SourceResult is one labeled record returned by an external source.
type SourceResult struct {
	Label  string
	Record metadata.Record
}

// Get returns the value for field, or Empty when it was never merged.
func (m Metadata) Get(field metadata.Field) FieldValue {
	if value, ok := m[field]; ok && value != nil {
		return value
	}
	return Empty{}
}

// MergeResults reconciles existing against every source, field by field.
// Numeric fields are merged over their decimal string form.
func MergeResults(existing metadata.Record, results []SourceResult) Metadata {
	merged := make(Metadata, len(metadata.TrackedFields))
	for _, field := range metadata.TrackedFields {
		candidates := make([]Candidate, 0, len(results))
		for _, result := range results {
			candidates = append(candidates, Candidate{Label: result.Label, Value: valueOf(result.Record, field)})
		}
		merged[field] = MergeField(valueOf(existing, field), candidates)
	}
	return merged
}

func valueOf(record metadata.Record, field metadata.Field) *string {
	value, ok := record.Value(field)
	if !ok {
		return nil
	}
	return &value
}

// Record collapses the merge into a plain record, taking Agreed values and
// the Selected value of conflicts.
func (m Metadata) Record() (metadata.Record, error) {
	var out metadata.Record
	for _, field := range metadata.TrackedFields {
		var value string
		switch v := m.Get(field).(type) {
		case Agreed:
			value = v.Value
		case Conflicting:
			value = v.Selected
		case Empty:
			continue
		}
		if err := out.Set(field, value); err != nil {
			return metadata.Record{}, fmt.Errorf("merged %s: %w", field, err)
		}
	}
	return out, nil
}

// Conflicts returns the fields still in the Conflicting state, in field order.
func (m Metadata) Conflicts() []metadata.Field {
	var fields []metadata.Field
	for _, field := range metadata.TrackedFields {
		if _, ok := m.Get(field).(Conflicting); ok {
			fields = append(fields, field)
		}
	}
	return fields
}

// Labels returns every source label that contributed any value, in
// first-seen order across fields.
func (m Metadata) Labels() []string {
	var labels []string
	add := func(sources []string) {
		for _, label := range sources {
			if !containsLabel(labels, label) {
				labels = append(labels, label)
			}
		}
	}
	for _, field := range metadata.TrackedFields {
		switch v := m.Get(field).(type) {
		case Agreed:
			add(v.Sources)
		case Conflicting:
			for _, alt := range v.Alternatives {
				add(alt.Sources)
			}
		}
	}
	return labels
}
