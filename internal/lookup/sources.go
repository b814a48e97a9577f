package lookup

import (
	"fmt"
	"strings"
)

// Source labels attached to every result.
const (
	SourceAudnexus    = "audnexus"
	SourceAudible     = "audible"
	SourceOpenLibrary = "openlibrary"
)

// Sources lists the provider labels in the order results are returned.
var Sources = []string{SourceAudnexus, SourceAudible, SourceOpenLibrary}

// TrustedSource names the provider whose values may settle conflicts
// without review. The zero value means no provider is trusted.
type TrustedSource string

// ParseTrustedSource validates a user supplied source name. Blank input
// yields the zero value.
func ParseTrustedSource(name string) (TrustedSource, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", nil
	}
	for _, source := range Sources {
		if source == name {
			return TrustedSource(name), nil
		}
	}
	return "", fmt.Errorf("unknown source %q (expected one of %s)", name, strings.Join(Sources, ", "))
}

// Label returns the result label the source produces.
func (t TrustedSource) Label() string {
	return string(t)
}

// IsSet reports whether a source was chosen.
func (t TrustedSource) IsSet() bool {
	return t != ""
}
