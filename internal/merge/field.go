package merge

// FileLabel is the synthetic source label given to the value already stored
// in the file.
const FileLabel = "file"

// FieldValue is the reconciled state of one field: Agreed, Conflicting or
// Empty.
type FieldValue interface {
	isFieldValue()
}

// Agreed means every source that supplied a value supplied the same one.
type Agreed struct {
	Value string
	// Sources lists the labels that produced Value, in first-seen order.
	Sources []string
}

// Conflicting means sources disagree. Selected is the value to present as the
// default choice.
type Conflicting struct {
	Selected     string
	Alternatives []Alternative
}

// Alternative is one distinct value together with every label that produced it.
type Alternative struct {
	Sources []string
	Value   string
}

// Empty means no source, including the file, supplied a value.
type Empty struct{}

func (Agreed) isFieldValue()      {}
func (Conflicting) isFieldValue() {}
func (Empty) isFieldValue()       {}

// Candidate is one labeled, possibly missing, value fed into MergeField.
type Candidate struct {
	Label string
	Value *string
}

// MergeField reconciles the existing file value with the values from each
// labeled source. Grouping preserves the order in which distinct values were
// first seen; Selected favors the existing value when one is supplied.
func MergeField(existing *string, sources []Candidate) FieldValue {
	entries := make([]Candidate, 0, len(sources)+1)
	if existing != nil {
		entries = append(entries, Candidate{Label: FileLabel, Value: existing})
	}
	entries = append(entries, sources...)

	var groups []Alternative
	for _, entry := range entries {
		if entry.Value == nil {
			continue
		}
		idx := indexOfValue(groups, *entry.Value)
		if idx < 0 {
			groups = append(groups, Alternative{Value: *entry.Value})
			idx = len(groups) - 1
		}
		groups[idx].Sources = append(groups[idx].Sources, entry.Label)
	}

	switch len(groups) {
	case 0:
		return Empty{}
	case 1:
		return Agreed{Value: groups[0].Value, Sources: groups[0].Sources}
	}

	selected := groups[0].Value
	if existing != nil {
		selected = *existing
	}
	return Conflicting{Selected: selected, Alternatives: groups}
}

func indexOfValue(groups []Alternative, value string) int {
	for i, group := range groups {
		if group.Value == value {
			return i
		}
	}
	return -1
}

func containsLabel(labels []string, label string) bool {
	for _, candidate := range labels {
		if candidate == label {
			return true
		}
	}
	return false
}
