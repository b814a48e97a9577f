package merge

import "bookshelf/internal/metadata"

// ResolveWithTrustedSource settles every Conflicting field for which trusted
// supplied a value. The field becomes Agreed with the whole group of labels
// that shared the trusted value. Fields without a trusted value are left
// Conflicting; Agreed and Empty fields pass through. Applying it twice is the
// same as applying it once.
func ResolveWithTrustedSource(m Metadata, trusted string) Metadata {
	out := make(Metadata, len(m))
	for field, value := range m {
		out[field] = value
	}
	for _, field := range metadata.TrackedFields {
		conflict, ok := m.Get(field).(Conflicting)
		if !ok {
			continue
		}
		for _, alt := range conflict.Alternatives {
			if containsLabel(alt.Sources, trusted) {
				out[field] = Agreed{Value: alt.Value, Sources: append([]string(nil), alt.Sources...)}
				break
			}
		}
	}
	return out
}

// HasTrustedSourceData reports whether trusted contributed a value to any
// field, agreed or not.
func HasTrustedSourceData(m Metadata, trusted string) bool {
	for _, field := range metadata.TrackedFields {
		switch v := m.Get(field).(type) {
		case Agreed:
			if containsLabel(v.Sources, trusted) {
				return true
			}
		case Conflicting:
			for _, alt := range v.Alternatives {
				if containsLabel(alt.Sources, trusted) {
					return true
				}
			}
		}
	}
	return false
}

// MatchesFile reports whether the external sources only confirmed what the
// file already holds. It returns the confirming labels and true when no field
// conflicts, every agreed field includes the file's own value, and at least
// one non-file source agreed with something. Any other case returns false so
// the caller does not skip the file.
func MatchesFile(m Metadata) ([]string, bool) {
	var confirmed []string
	for _, field := range metadata.TrackedFields {
		switch v := m.Get(field).(type) {
		case Conflicting:
			return nil, false
		case Agreed:
			if !containsLabel(v.Sources, FileLabel) {
				return nil, false
			}
			for _, label := range v.Sources {
				if label != FileLabel && !containsLabel(confirmed, label) {
					confirmed = append(confirmed, label)
				}
			}
		}
	}
	if len(confirmed) == 0 {
		return nil, false
	}
	return confirmed, true
}
